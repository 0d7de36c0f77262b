// Package metrics records per-operation counters and latencies.
package metrics

import (
	"fmt"
	"io"
	"time"

	vm "github.com/VictoriaMetrics/metrics"
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Recorder collects operation metrics in its own set so tests stay isolated.
// A nil Recorder discards everything.
type Recorder struct {
	set *vm.Set
}

func NewRecorder() *Recorder {
	return &Recorder{set: vm.NewSet()}
}

// Observe counts one finished operation and records its duration
func (r *Recorder) Observe(op string, start time.Time, err error) {
	if r == nil {
		return
	}

	status := StatusOK
	if err != nil {
		status = StatusError
	}

	r.set.GetOrCreateCounter(counterName(op, status)).Inc()
	r.set.GetOrCreateHistogram(fmt.Sprintf(`docdbctl_operation_duration_seconds{op=%q}`, op)).UpdateDuration(start)
}

// Count returns how many operations finished with the given status
func (r *Recorder) Count(op, status string) uint64 {
	if r == nil {
		return 0
	}
	return r.set.GetOrCreateCounter(counterName(op, status)).Get()
}

// WritePrometheus writes all metrics in Prometheus text format
func (r *Recorder) WritePrometheus(w io.Writer) {
	if r == nil {
		return
	}
	r.set.WritePrometheus(w)
}

func counterName(op, status string) string {
	return fmt.Sprintf(`docdbctl_operations_total{op=%q,status=%q}`, op, status)
}
