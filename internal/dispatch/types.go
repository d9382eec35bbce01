package dispatch

import (
	"time"

	"herald/internal/contact"
)

// Status is the terminal state of one recipient in a dispatch run.
type Status string

const (
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
	// StatusSkipped marks recipients never attempted because the run was
	// cancelled between recipients. Distinct from failed on purpose.
	StatusSkipped Status = "skipped"
)

// Outcome is the per-recipient result. One Outcome exists for every
// recipient of a run, in input order.
type Outcome struct {
	Contact contact.Record
	Status  Status
	Error   string
}

// Summary aggregates a whole run.
// Invariant: Sent + Failed + Skipped == Total == len(recipients).
type Summary struct {
	RunID     string
	Total     int
	Sent      int
	Failed    int
	Skipped   int
	Outcomes  []Outcome
	StartedAt time.Time
	Took      time.Duration
}

type Config struct {
	Pacing Pacing
}
