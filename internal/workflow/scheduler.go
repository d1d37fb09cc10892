package workflow

import "time"

// Timer is a pending single-shot task.
type Timer interface {
	Stop() bool
}

// Scheduler runs a function once after a delay without blocking the caller.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemScheduler schedules tasks on the runtime timer heap.
type SystemScheduler struct{}

// AfterFunc wraps time.AfterFunc.
func (SystemScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
