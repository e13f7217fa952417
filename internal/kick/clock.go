package kick

import "time"

// Clock abstracts one-shot timer creation so session timing is testable.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is an armed callback that can be cancelled before it fires.
type Timer interface {
	Stop() bool
}

type systemClock struct{}

// SystemClock returns a Clock backed by the time package.
func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
