// Package rgmetrics wires an internal/exec.Trace to Prometheus
// counters/histograms, entirely outside the core engine (spec.md
// §7.1's ambient-stack boundary). Grounded on the pack's
// prometheus/client_golang usage (cockroachdb, loki); google/uuid gives
// each run a stable id for correlating its start/done/task log lines.
package rgmetrics

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"rowgraph/internal/exec"
)

// Recorder exposes Prometheus collectors for rowgraph run/task
// lifecycle events and a Trace that feeds them.
type Recorder struct {
	runsTotal     *prometheus.CounterVec
	runDuration   prometheus.Histogram
	tasksTotal    prometheus.Counter
	rowsProcessed prometheus.Counter

	mu        sync.Mutex
	runStart  time.Time
	runID     string
}

// NewRecorder creates and registers a Recorder's collectors against reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rowgraph",
			Name:      "runs_total",
			Help:      "Total number of engine runs, by outcome.",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rowgraph",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of engine runs.",
			Buckets:   prometheus.DefBuckets,
		}),
		tasksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rowgraph",
			Name:      "tasks_total",
			Help:      "Total number of row-range tasks dispatched to slots.",
		}),
		rowsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rowgraph",
			Name:      "rows_processed_total",
			Help:      "Total number of source rows included in a run's partitioning.",
		}),
	}
	for _, c := range []prometheus.Collector{r.runsTotal, r.runDuration, r.tasksTotal, r.rowsProcessed} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Trace returns an *exec.Trace wired to this Recorder's collectors.
func (r *Recorder) Trace() *exec.Trace {
	return &exec.Trace{
		RunStart: func(slots, rows int) {
			r.mu.Lock()
			r.runStart = time.Now()
			r.runID = uuid.NewString()
			r.mu.Unlock()
			r.rowsProcessed.Add(float64(rows))
		},
		RunDone: func(err error) {
			r.mu.Lock()
			elapsed := time.Since(r.runStart)
			r.mu.Unlock()
			r.runDuration.Observe(elapsed.Seconds())
			outcome := "ok"
			if err != nil {
				outcome = "error"
			}
			r.runsTotal.WithLabelValues(outcome).Inc()
		},
		TaskStart: func(slot, lo, hi int) {
			r.tasksTotal.Inc()
		},
	}
}

// RunID returns the most recently started run's id, for correlating log
// lines emitted by the ambient logger with this Recorder's metrics.
func (r *Recorder) RunID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runID
}
