package match

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/dnamatch/pkg/ancestry"
	"github.com/orneryd/dnamatch/pkg/dnarange"
	"github.com/orneryd/dnamatch/pkg/kinship"
	"github.com/orneryd/dnamatch/pkg/pedigree"
	"github.com/orneryd/dnamatch/pkg/pedigree/pedigreetest"
)

var cousinsAt1500 = []string{"101,1500", "201,1500", "301,1500"}

func newCousinsEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	e := NewEngine(pedigreetest.Cousins(t), nil, dnarange.Default(), opts)
	e.newRunID = func() string { return "run-1" }
	return e
}

func eventsOf(events []Event, typ EventType) []Event {
	var out []Event
	for _, ev := range events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

// ============================================================================
// Successful runs
// ============================================================================

func TestEngine_Run_Cousins(t *testing.T) {
	e := newCousinsEngine(t, DefaultOptions())
	result, events, err := e.Run(context.Background(), cousinsAt1500)
	require.NoError(t, err)
	require.NotNil(t, result)

	t.Run("shared grandparents", func(t *testing.T) {
		assert.Equal(t, []pedigree.IndividualID{"GP1", "GP2"}, result.Candidates)
		assert.Equal(t, "run-1", result.RunID)
	})

	t.Run("per-tester listings", func(t *testing.T) {
		require.Len(t, result.Listings, 3)
		assert.True(t, NewSet("GP1", "GP2", "B", "C").Equal(result.Listings[0].Set()))
		assert.True(t, NewSet("GP1", "GP2", "A", "C").Equal(result.Listings[1].Set()))
		assert.True(t, NewSet("GP1", "GP2", "A", "B").Equal(result.Listings[2].Set()))
	})

	t.Run("candidates are in every tester set", func(t *testing.T) {
		for _, id := range result.Candidates {
			for _, l := range result.Listings {
				assert.True(t, l.Set().Has(id), "%s missing from %s", id, l.Tester.ID)
			}
		}
	})

	t.Run("every candidate's range contains each tester's value", func(t *testing.T) {
		for _, l := range result.Listings {
			for _, c := range l.Candidates {
				r, ok := dnarange.Default().Lookup(c.Relationship.Label)
				require.True(t, ok)
				assert.True(t, r.Contains(l.Tester.CM))
			}
		}
	})

	t.Run("people and families", func(t *testing.T) {
		assert.Equal(t, []pedigree.IndividualID{"GP1", "GP2", "A1", "B1", "C1"}, result.People)
		assert.Equal(t, []pedigree.FamilyID{"F2", "F1", "F3", "F4"}, result.PathFamilies)
		assert.Equal(t, []pedigree.FamilyID{"F1"}, result.SharedFamilies)
	})

	t.Run("events", func(t *testing.T) {
		matches := eventsOf(events, EventTesterMatches)
		require.Len(t, matches, 3)
		assert.Equal(t, pedigree.IndividualID("A1"), matches[0].Tester.ID)
		assert.Equal(t, 4, matches[0].Count)

		inter := eventsOf(events, EventIntersection)
		require.Len(t, inter, 1)
		assert.Equal(t, 2, inter[0].Count)

		assert.Empty(t, eventsOf(events, EventFailure))
		for _, ev := range events {
			assert.Equal(t, "run-1", ev.RunID)
		}
	})

	t.Run("index stats", func(t *testing.T) {
		assert.Equal(t, 11, result.IndexStats.Individuals)
	})
}

func TestEngine_Run_TesterOrderDoesNotMatter(t *testing.T) {
	forward, _, err := newCousinsEngine(t, DefaultOptions()).Run(context.Background(), cousinsAt1500)
	require.NoError(t, err)
	backward, _, err := newCousinsEngine(t, DefaultOptions()).Run(context.Background(),
		[]string{"301,1500", "101,1500", "201,1500"})
	require.NoError(t, err)

	assert.Equal(t, forward.Candidates, backward.Candidates)
}

func TestEngine_Run_PrebuiltIndexIsReused(t *testing.T) {
	p := pedigreetest.Cousins(t)
	idx, err := ancestry.Build(p)
	require.NoError(t, err)

	e := NewEngine(p, idx, nil, DefaultOptions())
	e.buildIndex = func(*pedigree.Pedigree) (*ancestry.Index, error) {
		t.Fatal("index must not be rebuilt")
		return nil, nil
	}

	result, _, err := e.Run(context.Background(), cousinsAt1500)
	require.NoError(t, err)
	assert.Len(t, result.Candidates, 2)
	assert.Zero(t, result.IndexBuild)
}

// ============================================================================
// Failures
// ============================================================================

func TestEngine_Run_Failures(t *testing.T) {
	tests := []struct {
		name    string
		opts    func(*Options)
		entries []string
		want    error
	}{
		{
			name:    "malformed entry",
			entries: []string{"101,1500", "201", "301,1500"},
			want:    ErrInputValidation,
		},
		{
			name:    "unknown tester",
			entries: []string{"101,1500", "201,1500", "999,1500"},
			want:    ErrIdentifierResolution,
		},
		{
			name:    "duplicate tester",
			entries: []string{"101,1500", "201,1500", "@I101@,1500"},
			want:    ErrInputValidation,
		},
		{
			name:    "too few testers",
			entries: []string{"101,1500", "201,1500"},
			want:    ErrInputValidation,
		},
		{
			name:    "nobody above the smallest match",
			entries: []string{"101,866", "201,500", "301,700"},
			want:    ErrPlausibility,
		},
		{
			name:    "no shared candidate",
			entries: []string{"101,900", "201,900", "301,900"},
			want:    ErrEmptyIntersection,
		},
		{
			name:    "result too large",
			opts:    func(o *Options) { o.MaxResults = 2 },
			entries: cousinsAt1500,
			want:    ErrResultTooLarge,
		},
		{
			name:    "non-positive min testers",
			opts:    func(o *Options) { o.MinTesters = 0 },
			entries: cousinsAt1500,
			want:    ErrInputValidation,
		},
		{
			name:    "smallest match of one",
			opts:    func(o *Options) { o.SmallestMatch = 1 },
			entries: cousinsAt1500,
			want:    ErrInputValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			if tt.opts != nil {
				tt.opts(&opts)
			}
			result, events, err := newCousinsEngine(t, opts).Run(context.Background(), tt.entries)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, result)

			failures := eventsOf(events, EventFailure)
			require.Len(t, failures, 1)
			assert.Equal(t, KindName(tt.want), failures[0].Kind)
		})
	}
}

func TestEngine_Run_ValidationBeforeTraversal(t *testing.T) {
	builds := 0
	e := newCousinsEngine(t, DefaultOptions())
	e.buildIndex = func(p *pedigree.Pedigree) (*ancestry.Index, error) {
		builds++
		return ancestry.Build(p)
	}

	for _, entries := range [][]string{
		{"101,1500", "201,1500"},
		{"101,800", "201,800", "301,800"},
		{"101,1500", "nope", "301,1500"},
	} {
		_, _, err := e.Run(context.Background(), entries)
		require.Error(t, err)
	}
	assert.Zero(t, builds)

	_, _, err := e.Run(context.Background(), cousinsAt1500)
	require.NoError(t, err)
	_, _, err = e.Run(context.Background(), cousinsAt1500)
	require.NoError(t, err)
	assert.Equal(t, 1, builds)
}

func TestEngine_Run_RejectedTestersAreReported(t *testing.T) {
	_, events, err := newCousinsEngine(t, DefaultOptions()).Run(context.Background(),
		[]string{"101", "201,1500", "301,0"})
	require.Error(t, err)

	rejected := eventsOf(events, EventTesterRejected)
	require.Len(t, rejected, 2)
	assert.Contains(t, rejected[0].Message, "#1")
	assert.Contains(t, rejected[1].Message, "#3")

	var me *Error
	require.True(t, errors.As(err, &me))
	assert.Len(t, me.Details, 2)
}

func TestEngine_Run_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, _, err := newCousinsEngine(t, DefaultOptions()).Run(ctx, cousinsAt1500)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
}

func TestEngine_Run_CycleFails(t *testing.T) {
	b := pedigreetest.New()
	b.Family("F1", "A", "")
	b.Child("B", "F1")
	b.Family("F2", "B", "")
	b.Child("A", "F2")
	b.Child("T2", "F1")
	b.Child("T3", "F2")
	b.Person("A").XRef = 1
	b.Person("B").XRef = 2
	b.Person("T2").XRef = 3
	b.Person("T3").XRef = 4

	e := NewEngine(b.Build(t), nil, nil, DefaultOptions())
	_, _, err := e.Run(context.Background(), []string{"1,1500", "3,1500", "4,1500"})
	assert.ErrorIs(t, err, ancestry.ErrCycleDetected)
}

func TestEngine_Run_NearestMinimum(t *testing.T) {
	opts := DefaultOptions()
	opts.Nearest = kinship.NearestMinimumDistance
	e := newCousinsEngine(t, opts)
	assert.Equal(t, kinship.NearestMinimumDistance, e.Options().Nearest)

	result, _, err := e.Run(context.Background(), cousinsAt1500)
	require.NoError(t, err)
	assert.Equal(t, []pedigree.IndividualID{"GP1", "GP2"}, result.Candidates)
}
