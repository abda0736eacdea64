// Package timer measures how long a wrapped call took, in milliseconds.
package timer

import "time"

// Timer records a start time. Finish reports the elapsed milliseconds.
type Timer interface {
	Finish() float64
}

type timer struct {
	start time.Time
}

// Start returns a timer started now.
func Start() Timer {
	return &timer{start: time.Now()}
}

// New returns a timer started at the given time.
func New(start time.Time) Timer {
	return &timer{start: start}
}

// Finish returns the milliseconds elapsed since the timer started. It may be
// called more than once.
func (t *timer) Finish() float64 {
	return float64(time.Since(t.start)) / float64(time.Millisecond)
}
