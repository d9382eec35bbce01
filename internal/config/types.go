package config

import "time"

// Config is the full configuration surface.
//
// The file may be JSON or YAML; YAML is coerced to JSON bytes so both
// formats go through the same strict decoder (DisallowUnknownFields).
type Config struct {
	// CountryCode is prepended to bare 10-digit numbers.
	CountryCode string `json:"country_code"`

	// GroupName is the default group used by membership runs.
	GroupName string `json:"group_name"`

	// Numbers seeds the config-origin contact collection.
	Numbers []string `json:"numbers,omitempty"`

	Messages MessagesConfig `json:"messages"`
	Pacing   PacingConfig   `json:"pacing"`
	Logging  LoggingConfig  `json:"logging"`
	Storage  *StorageConfig `json:"storage,omitempty"`

	// Campaigns are unattended periodic sends, used by daemon mode only.
	Campaigns []CampaignConfig `json:"campaigns,omitempty"`
}

type MessagesConfig struct {
	// Bulk is the default message body for dispatch runs.
	Bulk string `json:"bulk"`
	// InviteFallback is sent to recipients that could not be added to the
	// group directly. It may contain {groupName} and {inviteLink}.
	InviteFallback string `json:"invite_fallback"`
}

// PacingConfig controls the per-recipient delay inserted between channel
// calls. Delays are Go duration strings (e.g. "3s", "1m"); sub-second
// values are allowed but the delay is drawn in whole seconds.
type PacingConfig struct {
	MinDelay string `json:"min_delay"`
	MaxDelay string `json:"max_delay"`
	// RatePerSec is a hard ceiling on channel calls, independent of the
	// randomized delay. 0 keeps the default of 1.
	RatePerSec int `json:"rate_per_sec,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// StorageConfig controls the optional run audit log.
//
// Driver values:
//   - "file": dependency-free jsonl append log
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", storage is disabled.
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// CampaignConfig describes one scheduled bulk send.
type CampaignConfig struct {
	Name string `json:"name"`
	// Spec is a cron expression (standard 5-field, or @every syntax).
	Spec    string `json:"spec"`
	Message string `json:"message,omitempty"` // empty: messages.bulk
	// BatchSize/StartBatch select the window of the active collection to
	// send to. BatchSize 0 means the whole collection.
	BatchSize  int `json:"batch_size,omitempty"`
	StartBatch int `json:"start_batch,omitempty"`
}

// MinDelayDuration returns the parsed minimum pacing delay.
// Validate() guarantees it parses; errors here fall back to zero.
func (p PacingConfig) MinDelayDuration() time.Duration {
	d, _ := ParseDurationField("pacing.min_delay", p.MinDelay)
	return d
}

func (p PacingConfig) MaxDelayDuration() time.Duration {
	d, _ := ParseDurationField("pacing.max_delay", p.MaxDelay)
	return d
}
