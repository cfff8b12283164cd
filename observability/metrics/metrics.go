// Package metrics keeps in-process counters and timers of the service operations
// on top of go-metrics and exports them as a JSON snapshot.
package metrics

import (
	"io"
	"time"

	gometrics "github.com/rcrowley/go-metrics"
)

// Recorder records operation outcomes. A nil *Recorder is valid and records nothing.
type Recorder struct {
	reg gometrics.Registry
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	return &Recorder{reg: gometrics.NewRegistry()}
}

// Inc increments counter name by one.
func (r *Recorder) Inc(name string) {
	if r == nil {
		return
	}
	gometrics.GetOrRegisterCounter(name, r.reg).Inc(1)
}

// Observe records the duration since start under timer name.
func (r *Recorder) Observe(name string, start time.Time) {
	if r == nil {
		return
	}
	gometrics.GetOrRegisterTimer(name, r.reg).UpdateSince(start)
}

// Outcome increments "{op}.ok" or "{op}.error" and times "{op}.duration".
func (r *Recorder) Outcome(op string, start time.Time, err error) {
	r.Observe(op+".duration", start)
	if err != nil {
		r.Inc(op + ".error")
		return
	}
	r.Inc(op + ".ok")
}

// Count returns the current value of counter name, zero when absent.
func (r *Recorder) Count(name string) int64 {
	if r == nil {
		return 0
	}
	c, ok := r.reg.Get(name).(gometrics.Counter)
	if !ok {
		return 0
	}
	return c.Count()
}

// WriteJSON writes a snapshot of every metric.
func (r *Recorder) WriteJSON(w io.Writer) {
	if r == nil {
		_, _ = w.Write([]byte("{}"))
		return
	}
	gometrics.WriteJSONOnce(r.reg, w)
}
