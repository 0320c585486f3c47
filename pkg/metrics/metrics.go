// Package metrics records Prometheus metrics for dnamatch batch runs.
//
// A run is a short-lived process, so metrics live in a private registry and
// are written once to a node_exporter textfile instead of being scraped.
//
// Example Usage:
//
//	rec := metrics.New()
//	result, _, err := engine.Run(ctx, testers)
//	rec.ObserveRun(result, err)
//	if err := rec.WriteTextfile("/var/lib/node_exporter/dnamatch.prom"); err != nil {
//		logger.Warn("metrics not written", "err", err)
//	}
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/orneryd/dnamatch/pkg/match"
)

const namespace = "dnamatch"

// Recorder owns a registry and the run collectors.
type Recorder struct {
	registry *prometheus.Registry

	// runs counts finished runs. Labels: result (success or an error kind)
	runs *prometheus.CounterVec
	// testerMatches is the size of each tester's own candidate listing
	testerMatches prometheus.Histogram
	// candidates is the size of the last shared candidate set
	candidates prometheus.Gauge
	// indexBuild measures ancestry index construction
	indexBuild prometheus.Histogram
	// imports counts pedigree imports. Labels: outcome (stored, unchanged)
	imports *prometheus.CounterVec
}

// New returns a recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Match runs by result",
		}, []string{"result"}),
		testerMatches: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tester_matches",
			Help:      "Candidates per tester before intersection",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100, 250},
		}),
		candidates: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "candidates",
			Help:      "Shared candidates found by the last successful run",
		}),
		indexBuild: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ancestry_build_seconds",
			Help:      "Time to build the ancestry index",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		imports: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imports_total",
			Help:      "Pedigree imports by outcome",
		}, []string{"outcome"}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveRun records the outcome of one engine run.
func (r *Recorder) ObserveRun(result *match.Result, err error) {
	r.runs.WithLabelValues(match.KindName(err)).Inc()
	if result == nil {
		return
	}
	for _, l := range result.Listings {
		r.testerMatches.Observe(float64(len(l.Candidates)))
	}
	r.candidates.Set(float64(len(result.Candidates)))
	if result.IndexBuild > 0 {
		r.ObserveIndexBuild(result.IndexBuild)
	}
}

// ObserveIndexBuild records one ancestry index build.
func (r *Recorder) ObserveIndexBuild(d time.Duration) {
	r.indexBuild.Observe(d.Seconds())
}

// ObserveImport records a pedigree import. stored is false when the content
// was already present.
func (r *Recorder) ObserveImport(stored bool) {
	outcome := "unchanged"
	if stored {
		outcome = "stored"
	}
	r.imports.WithLabelValues(outcome).Inc()
}

// WriteTextfile writes every collected metric to path in the Prometheus text
// format. The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
