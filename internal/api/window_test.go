package api

import (
	"testing"
	"time"
)

func testWindow() Window {
	return Window{RunHour: 12, RunMinute: 0, Buffer: 10 * time.Minute, Loc: time.UTC}
}

func at(hour, minute int) time.Time {
	return time.Date(2026, 8, 31, hour, minute, 0, 0, time.UTC)
}

func TestResolveExistingEventsAlwaysServed(t *testing.T) {
	w := testWindow()
	for _, now := range []time.Time{at(8, 0), at(12, 5), at(18, 0)} {
		if got := w.Resolve(now, true); got != ServeToday {
			t.Errorf("Resolve(%v, hasToday) = %v, want ServeToday", now, got)
		}
	}
}

func TestResolveAroundTrigger(t *testing.T) {
	w := testWindow()

	tests := []struct {
		now  time.Time
		want Decision
	}{
		{at(9, 0), ServePrevious},
		{at(11, 49), ServePrevious},
		{at(11, 55), ServePreviousProcessing},
		{at(12, 0), ServePreviousProcessing},
		{at(12, 5), ServePreviousProcessing},
		{at(12, 10), ServePreviousProcessing},
		{at(12, 11), RunEmergency},
		{at(18, 30), RunEmergency},
	}

	for _, tt := range tests {
		if got := w.Resolve(tt.now, false); got != tt.want {
			t.Errorf("Resolve(%v) = %v, want %v", tt.now.Format("15:04"), got, tt.want)
		}
	}
}
