package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadJSON(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.json", `{
		"country_code": "62",
		"group_name": "Crew",
		"numbers": ["5551234567", "628123456789"],
		"messages": {"bulk": "hi there"},
		"pacing": {"min_delay": "2s", "max_delay": "4s", "rate_per_sec": 2}
	}`)

	m := NewManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CountryCode != "62" || cfg.GroupName != "Crew" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if len(cfg.Numbers) != 2 {
		t.Fatalf("numbers = %v", cfg.Numbers)
	}
	if cfg.Pacing.MinDelayDuration() != 2*time.Second || cfg.Pacing.MaxDelayDuration() != 4*time.Second {
		t.Fatalf("pacing = %+v", cfg.Pacing)
	}
	if m.Get() != cfg {
		t.Fatal("Get did not return committed config")
	}
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.yaml", strings.Join([]string{
		"country_code: \"1\"",
		"group_name: Crew",
		"numbers:",
		"  - \"5551234567\"",
		"messages:",
		"  bulk: hello",
		"pacing:",
		"  min_delay: 1s",
		"  max_delay: 3s",
	}, "\n"))

	cfg, err := NewManager(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GroupName != "Crew" || cfg.Messages.Bulk != "hello" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.json", `{"country_code": "1", "bogus_key": true}`)
	if _, err := NewManager(path).Load(); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestApplyDefaults(t *testing.T) {
	t.Parallel()
	var c Config
	c.ApplyDefaults()

	if c.CountryCode != "1" {
		t.Fatalf("country code = %q", c.CountryCode)
	}
	if c.Pacing.MinDelay != "3s" || c.Pacing.MaxDelay != "8s" || c.Pacing.RatePerSec != 1 {
		t.Fatalf("pacing = %+v", c.Pacing)
	}
	if !strings.Contains(c.Messages.InviteFallback, "{inviteLink}") {
		t.Fatalf("invite fallback = %q", c.Messages.InviteFallback)
	}
	if c.Logging.Level != "info" {
		t.Fatalf("level = %q", c.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	base := func() Config {
		var c Config
		c.ApplyDefaults()
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults valid", mutate: func(c *Config) {}},
		{
			name:    "non-digit country code",
			mutate:  func(c *Config) { c.CountryCode = "+1" },
			wantErr: "country_code",
		},
		{
			name:    "inverted delays",
			mutate:  func(c *Config) { c.Pacing.MinDelay = "10s"; c.Pacing.MaxDelay = "2s" },
			wantErr: "max_delay",
		},
		{
			name:    "bad delay string",
			mutate:  func(c *Config) { c.Pacing.MinDelay = "fast" },
			wantErr: "min_delay",
		},
		{
			name:    "unknown storage driver",
			mutate:  func(c *Config) { c.Storage = &StorageConfig{Driver: "redis"} },
			wantErr: "storage.driver",
		},
		{
			name:   "file storage ok",
			mutate: func(c *Config) { c.Storage = &StorageConfig{Driver: "file", Path: "./h.db"} },
		},
		{
			name:    "campaign without name",
			mutate:  func(c *Config) { c.Campaigns = []CampaignConfig{{Spec: "@every 1h"}} },
			wantErr: "name is required",
		},
		{
			name: "duplicate campaign names",
			mutate: func(c *Config) {
				c.Campaigns = []CampaignConfig{
					{Name: "a", Spec: "@every 1h"},
					{Name: "a", Spec: "@every 2h"},
				}
			},
			wantErr: "duplicate",
		},
		{
			name:    "campaign without spec",
			mutate:  func(c *Config) { c.Campaigns = []CampaignConfig{{Name: "a"}} },
			wantErr: "spec is required",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestSubscribePublish(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.json", `{"country_code": "1"}`)
	m := NewManager(path)
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	ch := m.Subscribe(1)
	cfg := m.Get()
	m.publish(cfg)

	select {
	case got := <-ch:
		if got != cfg {
			t.Fatal("published config mismatch")
		}
	case <-time.After(time.Second):
		t.Fatal("no config published")
	}

	m.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Fatal("channel not closed after Unsubscribe")
	}
}

func TestPublishDropsOldestForSlowSubscriber(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.json", `{"country_code": "1"}`)
	m := NewManager(path)
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	ch := m.Subscribe(1)
	defer m.Unsubscribe(ch)

	stale := &Config{CountryCode: "0"}
	fresh := m.Get()
	m.publish(stale)
	m.publish(fresh)

	if got := <-ch; got != fresh {
		t.Fatalf("got stale config %+v", got)
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()
	if d, err := ParseDurationField("x", "90s"); err != nil || d != 90*time.Second {
		t.Fatalf("got %v, %v", d, err)
	}
	if d, err := ParseDurationField("x", "  "); err != nil || d != 0 {
		t.Fatalf("blank: got %v, %v", d, err)
	}
	if _, err := ParseDurationField("x", "-1s"); err == nil {
		t.Fatal("negative duration accepted")
	}
	if _, err := ParseDurationField("x", "soon"); err == nil {
		t.Fatal("garbage duration accepted")
	}
	if d, err := ParseDurationOrDefault("x", "", 5*time.Second); err != nil || d != 5*time.Second {
		t.Fatalf("default: got %v, %v", d, err)
	}
}
