package daemon

import (
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "127.0.0.1")
	}
	if cfg.API.Port != 8374 {
		t.Errorf("API.Port = %d, want %d", cfg.API.Port, 8374)
	}
	if cfg.Gamify.DailyTargetMinutes != 30 {
		t.Errorf("Gamify.DailyTargetMinutes = %d, want 30", cfg.Gamify.DailyTargetMinutes)
	}
	if cfg.Gamify.ChallengeReward != 50 {
		t.Errorf("Gamify.ChallengeReward = %d, want 50", cfg.Gamify.ChallengeReward)
	}
	if !cfg.Reminders.Enabled {
		t.Error("Reminders.Enabled should default to true")
	}
	if cfg.Reminders.InactiveHour != 20 || cfg.Reminders.ParentAlertHour != 9 || cfg.Reminders.CleanupHour != 2 {
		t.Errorf("reminder hours = %d/%d/%d, want 20/9/2",
			cfg.Reminders.InactiveHour, cfg.Reminders.ParentAlertHour, cfg.Reminders.CleanupHour)
	}
	if cfg.Reminders.RetentionDays != 30 {
		t.Errorf("Reminders.RetentionDays = %d, want 30", cfg.Reminders.RetentionDays)
	}
}

func TestLoadConfig_RoundTrip(t *testing.T) {
	t.Setenv("READLY_HOME", t.TempDir())

	// No file yet: defaults.
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load without file: %v", err)
	}
	if cfg.API.Port != DefaultConfig().API.Port {
		t.Errorf("expected defaults, got port %d", cfg.API.Port)
	}

	cfg.API.Port = 9999
	cfg.Reminders.Enabled = false
	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.API.Port != 9999 {
		t.Errorf("port = %d, want 9999", loaded.API.Port)
	}
	if loaded.Reminders.Enabled {
		t.Error("Reminders.Enabled should round-trip as false")
	}
}

func TestReadlyHome_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("READLY_HOME", dir)
	if got := readlyHome(); got != dir {
		t.Errorf("readlyHome = %q, want %q", got, dir)
	}
}
