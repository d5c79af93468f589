package api

import "time"

// Decision tells the read path how to answer when asked for today's events.
type Decision int

const (
	// ServeToday: today's events exist, serve them.
	ServeToday Decision = iota
	// ServePreviousProcessing: the daily run is due right now, serve the
	// previous day with a processing notice.
	ServePreviousProcessing
	// ServePrevious: before the daily run, serve the previous day as-is.
	ServePrevious
	// RunEmergency: the daily run should have happened and did not, process
	// synchronously before answering.
	RunEmergency
)

// Window decides what to serve relative to the daily processing time.
type Window struct {
	RunHour   int
	RunMinute int
	// Buffer is how far on either side of the trigger time the run is
	// considered "in progress".
	Buffer time.Duration
	Loc    *time.Location
}

// Resolve classifies the current instant. hasToday short-circuits everything:
// existing events are always served.
func (w Window) Resolve(now time.Time, hasToday bool) Decision {
	if hasToday {
		return ServeToday
	}

	now = now.In(w.Loc)
	trigger := time.Date(now.Year(), now.Month(), now.Day(), w.RunHour, w.RunMinute, 0, 0, w.Loc)

	diff := now.Sub(trigger)
	if diff < 0 {
		diff = -diff
	}
	if diff <= w.Buffer {
		return ServePreviousProcessing
	}
	if now.Before(trigger) {
		return ServePrevious
	}
	return RunEmergency
}
