package config

import (
	"fmt"
	"strings"
)

// ApplyDefaults fills zero-valued fields with operational defaults.
// It runs before Validate on every load.
func (c *Config) ApplyDefaults() {
	if strings.TrimSpace(c.CountryCode) == "" {
		c.CountryCode = "1"
	}
	if strings.TrimSpace(c.GroupName) == "" {
		c.GroupName = "herald"
	}
	if strings.TrimSpace(c.Messages.InviteFallback) == "" {
		c.Messages.InviteFallback = "Join {groupName}: {inviteLink}"
	}
	if strings.TrimSpace(c.Pacing.MinDelay) == "" {
		c.Pacing.MinDelay = "3s"
	}
	if strings.TrimSpace(c.Pacing.MaxDelay) == "" {
		c.Pacing.MaxDelay = "8s"
	}
	if c.Pacing.RatePerSec <= 0 {
		c.Pacing.RatePerSec = 1
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = "info"
	}
}

// Validate rejects configs that would make a run misbehave. It assumes
// ApplyDefaults already ran.
func (c *Config) Validate() error {
	for _, r := range c.CountryCode {
		if r < '0' || r > '9' {
			return fmt.Errorf("country_code: must be digits, got %q", c.CountryCode)
		}
	}

	min, err := ParseDurationField("pacing.min_delay", c.Pacing.MinDelay)
	if err != nil {
		return err
	}
	max, err := ParseDurationField("pacing.max_delay", c.Pacing.MaxDelay)
	if err != nil {
		return err
	}
	if max < min {
		return fmt.Errorf("pacing: max_delay %s < min_delay %s", c.Pacing.MaxDelay, c.Pacing.MinDelay)
	}

	if s := c.Storage; s != nil {
		switch strings.ToLower(strings.TrimSpace(s.Driver)) {
		case "", "none", "file", "sqlite":
		default:
			return fmt.Errorf("storage.driver: unknown driver %q", s.Driver)
		}
		if _, err := ParseDurationField("storage.busy_timeout", s.BusyTimeout); err != nil {
			return err
		}
	}

	seen := map[string]bool{}
	for i, camp := range c.Campaigns {
		name := strings.TrimSpace(camp.Name)
		if name == "" {
			return fmt.Errorf("campaigns[%d]: name is required", i)
		}
		if seen[name] {
			return fmt.Errorf("campaigns[%d]: duplicate name %q", i, name)
		}
		seen[name] = true
		if strings.TrimSpace(camp.Spec) == "" {
			return fmt.Errorf("campaigns[%d] %q: spec is required", i, name)
		}
		if camp.BatchSize < 0 {
			return fmt.Errorf("campaigns[%d] %q: batch_size must be >= 0", i, name)
		}
		if camp.StartBatch < 0 {
			return fmt.Errorf("campaigns[%d] %q: start_batch must be >= 0", i, name)
		}
	}
	return nil
}
