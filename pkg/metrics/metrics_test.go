package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/dnamatch/pkg/match"
	"github.com/orneryd/dnamatch/pkg/pedigree"
)

func TestRecorder_ObserveRun(t *testing.T) {
	rec := New()

	result := &match.Result{
		Candidates: []pedigree.IndividualID{"GP1", "GP2"},
		Listings: []match.Listing{
			{Candidates: make([]match.Candidate, 4)},
			{Candidates: make([]match.Candidate, 3)},
		},
		IndexBuild: 2 * time.Millisecond,
	}
	rec.ObserveRun(result, nil)
	rec.ObserveRun(nil, &match.Error{Kind: match.ErrEmptyIntersection})
	rec.ObserveRun(nil, errors.New("disk on fire"))

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.runs.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.runs.WithLabelValues("empty_intersection")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.runs.WithLabelValues("other")))
	assert.Equal(t, 2.0, testutil.ToFloat64(rec.candidates))
	assert.Equal(t, 1, testutil.CollectAndCount(rec.indexBuild))
}

func TestRecorder_ObserveImport(t *testing.T) {
	rec := New()
	rec.ObserveImport(true)
	rec.ObserveImport(false)
	rec.ObserveImport(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.imports.WithLabelValues("stored")))
	assert.Equal(t, 2.0, testutil.ToFloat64(rec.imports.WithLabelValues("unchanged")))
}

func TestRecorder_WriteTextfile(t *testing.T) {
	rec := New()
	rec.ObserveRun(nil, &match.Error{Kind: match.ErrPlausibility})

	path := filepath.Join(t.TempDir(), "dnamatch.prom")
	require.NoError(t, rec.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `dnamatch_runs_total{result="plausibility"} 1`)
	assert.Contains(t, string(data), "# HELP dnamatch_candidates")
}

func TestRecorder_WriteTextfile_BadPath(t *testing.T) {
	rec := New()
	err := rec.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom"))
	assert.Error(t, err)
}
