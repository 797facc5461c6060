package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEnvOverrides(t *testing.T) {
	s, err := Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}

	t.Setenv("HOTCONSOLE_WATCHDOG_ENABLED", "0")
	t.Setenv("HOTCONSOLE_CONTROL_ENABLED", "false")
	t.Setenv("HOTCONSOLE_LOG_LEVEL", "debug")
	t.Setenv("HOTCONSOLE_LOG_FORMAT", "json")
	t.Setenv("HOTCONSOLE_DATA_PATH", "/tmp/elsewhere/data.json")

	applyEnvOverrides(s)

	if s.Watchdog.Enabled {
		t.Fatalf("watchdog should be disabled via env")
	}
	if s.Control.Enabled {
		t.Fatalf("control should be disabled via env")
	}
	if s.Logging.Level != "debug" || s.Logging.Format != "json" {
		t.Fatalf("logging overrides failed: %+v", s.Logging)
	}
	if s.Paths.DataPath != "/tmp/elsewhere/data.json" {
		t.Fatalf("data path override failed: %q", s.Paths.DataPath)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	s, err := Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	s.App.Title = "Work scripts"
	s.Commands = []CommandConfig{{
		Name:        "turn",
		Description: "Toggle the service",
		Kind:        KindService,
		Service:     "Spooler",
		Options:     []OptionConfig{{Label: "Stop"}, {Label: "Start"}},
	}}
	s.Hotkeys = []HotkeyConfig{{Combo: "alt+1", Command: "turn", Option: 2}}
	s.Defaults["inn2UL"] = "6699000000"

	if err := Save(s, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.App.Title != "Work scripts" {
		t.Fatalf("expected title to persist, got %q", loaded.App.Title)
	}
	if len(loaded.Commands) != 1 || loaded.Commands[0].Service != "Spooler" || len(loaded.Commands[0].Options) != 2 {
		t.Fatalf("commands did not round trip: %+v", loaded.Commands)
	}
	if len(loaded.Hotkeys) != 1 || loaded.Hotkeys[0].Option != 2 {
		t.Fatalf("hotkeys did not round trip: %+v", loaded.Hotkeys)
	}
	doc, err := loaded.ExpectedDocument()
	if err != nil {
		t.Fatalf("expected document: %v", err)
	}
	if doc.Version != 1 || doc.Extra["inn2UL"] != "6699000000" {
		t.Fatalf("defaults did not round trip: %+v", doc)
	}
	if loaded.Paths.ConfigPath != path {
		t.Fatalf("config path not recorded: %q", loaded.Paths.ConfigPath)
	}
}

func TestLoadWritesTemplateWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	s, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("template not written: %v", err)
	}
	if len(s.Hotkeys) == 0 {
		t.Fatalf("expected default hotkeys")
	}
}

func TestIntervalsFallBackToDefaults(t *testing.T) {
	s, _ := Default()
	s.Watchdog.IdleIntervalSec = 0
	s.Watchdog.LockedIntervalSec = 0.5
	if got := s.IdleInterval(); got != 15*time.Second {
		t.Fatalf("idle interval = %s", got)
	}
	if got := s.LockedInterval(); got != 500*time.Millisecond {
		t.Fatalf("locked interval = %s", got)
	}
}

func TestExpectedDocumentRejectsBadDefaults(t *testing.T) {
	s, _ := Default()
	s.Defaults = map[string]any{"version": int64(0), "consoleMode": false, "refuseStartup": false}
	if _, err := s.ExpectedDocument(); err == nil {
		t.Fatalf("expected error for version 0")
	}
}
