package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// VecTimer is a helper type to time functions.
// It is similar to prometheus.Timer, but takes a prometheus.ObserverVec,
// and can add labels to it when the VecTimer is observed.
// Use NewVecTimer to create new instances.
type VecTimer struct {
	begin time.Time
	vec   prometheus.ObserverVec
}

// NewVecTimer creates a new VecTimer. The provided ObserverVec is used to observe a
// duration in seconds. Usually curried with every label but LabelStatus:
//
//    timer := NewVecTimer(durations.MustCurryWith(prometheus.Labels{LabelCommand: "close"}))
//    defer func() { timer.ObserveErr(err) }()
//
func NewVecTimer(v prometheus.ObserverVec) *VecTimer {
	return &VecTimer{
		begin: time.Now(),
		vec:   v,
	}
}

// ObserveWith records the duration passed since the VecTimer was created
// with the given labels. The observed duration is also returned.
func (t *VecTimer) ObserveWith(labels prometheus.Labels) time.Duration {
	d := time.Since(t.begin)
	if t.vec != nil {
		t.vec.With(labels).Observe(d.Seconds())
	}
	return d
}

// ObserveErr sets a label equal to LabelStatus based on the err value and records the
// duration passed since the VecTimer was created.
// The observed duration is also returned.
func (t *VecTimer) ObserveErr(err error) time.Duration {
	return t.ObserveWith(prometheus.Labels{LabelStatus: Status(err)})
}
