// Package metrics counts walker lifecycle events on a private Prometheus
// registry so that a run can dump them as a node-exporter textfile.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "barw"

// Lifecycle event labels.
const (
	EventSpawned     = "spawned"
	EventAnnihilated = "annihilated"
	EventBranched    = "branched"
)

// Recorder collects run metrics. It is safe for concurrent use, and a nil
// *Recorder is a valid no-op.
type Recorder struct {
	reg            *prometheus.Registry
	walkers        *prometheus.CounterVec
	sweeps         prometheus.Counter
	samples        prometheus.Counter
	sampleDuration prometheus.Histogram
	sampleWalkers  prometheus.Histogram
}

// NewRecorder registers the barw metrics on a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		reg: reg,
		walkers: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "walker_events_total",
			Help:      "Walker lifecycle events by kind",
		}, []string{"event"}),
		sweeps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweeps_total",
			Help:      "Global iterations performed across all samples",
		}),
		samples: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_total",
			Help:      "Completed samples",
		}),
		sampleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sample_duration_seconds",
			Help:      "Wall time per sample",
			Buckets:   []float64{0.001, 0.01, 0.1, 1, 10, 60},
		}),
		sampleWalkers: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sample_walkers",
			Help:      "Walker records per completed sample",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
}

// Walker counts n lifecycle events of the given kind.
func (r *Recorder) Walker(event string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.walkers.WithLabelValues(event).Add(float64(n))
}

// Sweep counts one global iteration.
func (r *Recorder) Sweep() {
	if r == nil {
		return
	}
	r.sweeps.Inc()
}

// SampleDone records one completed sample.
func (r *Recorder) SampleDone(d time.Duration, walkers int) {
	if r == nil {
		return
	}
	r.samples.Inc()
	r.sampleDuration.Observe(d.Seconds())
	r.sampleWalkers.Observe(float64(walkers))
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.reg
}

// WriteTextfile writes all metrics in the text exposition format to path.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
