package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// clock is a package-level time source so tests can freeze time via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source used for run and publish timestamps.
// Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Now returns the current time from the package clock, in UTC.
func Now() time.Time {
	return clock.Now().UTC()
}

// RunInfo identifies one pipeline execution.
type RunInfo struct {
	ID        string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
}

// NewRunInfo stamps a new run with a random ID and the current time.
func NewRunInfo() RunInfo {
	return RunInfo{ID: uuid.NewString(), StartedAt: Now()}
}
