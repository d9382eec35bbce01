package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures the run audit log.
//
// Driver values:
//   - "file": dependency-free JSON Lines append log
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// RunEntry records one completed (or cancelled) dispatch or membership
// run. Keep it compact and schema-stable; per-recipient outcomes are
// ephemeral, only the failure list survives in MetaJSON.
type RunEntry struct {
	At        time.Time `json:"at"`
	RunID     string    `json:"run_id"`
	Kind      string    `json:"kind"` // "send" | "group"
	Source    string    `json:"source"`
	GroupName string    `json:"group_name,omitempty"`
	Total     int       `json:"total"`
	Sent      int       `json:"sent,omitempty"`
	Added     int       `json:"added,omitempty"`
	Invited   int       `json:"invited,omitempty"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped,omitempty"`
	TookMS    int64     `json:"took_ms"`
	MetaJSON  string    `json:"meta,omitempty"`
}
