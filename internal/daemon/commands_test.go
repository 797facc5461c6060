package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"hotconsole/internal/config"
)

func testSettings(t *testing.T) *config.Settings {
	t.Helper()
	dir := t.TempDir()
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	cfg.Paths.ConfigPath = filepath.Join(dir, "config.toml")
	cfg.Paths.PidPath = filepath.Join(dir, "hotconsole.pid")
	if err := config.Save(cfg, cfg.Paths.ConfigPath); err != nil {
		t.Fatalf("save cfg: %v", err)
	}
	return cfg
}

func TestWaitForShutdownSucceedsWhenPidFileRemoved(t *testing.T) {
	cfg := testSettings(t)
	if err := os.WriteFile(cfg.Paths.PidPath, []byte("12345"), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = os.Remove(cfg.Paths.PidPath)
	}()
	if err := waitForShutdown(cfg.Paths.ConfigPath, 2*time.Second); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestWaitForShutdownTimesOutOnAlivePid(t *testing.T) {
	cfg := testSettings(t)
	if err := os.WriteFile(cfg.Paths.PidPath, []byte(fmt.Sprintf("%d", os.Getpid())), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	if err := waitForShutdown(cfg.Paths.ConfigPath, 300*time.Millisecond); err == nil {
		t.Fatalf("expected timeout error")
	}
}

func TestEnsureNotRunning(t *testing.T) {
	cfg := testSettings(t)
	if err := ensureNotRunning(cfg); err != nil {
		t.Fatalf("no pid file: %v", err)
	}
	// Our own pid is ignored so a relaunch can take over the pid file.
	if err := writePID(cfg.Paths.PidPath); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	if err := ensureNotRunning(cfg); err != nil {
		t.Fatalf("own pid: %v", err)
	}
	pid, err := readPID(cfg.Paths.PidPath)
	if err != nil || pid != os.Getpid() {
		t.Fatalf("readPID = %d, %v", pid, err)
	}
}

func TestReadPIDRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pid")
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := readPID(path); err == nil {
		t.Fatalf("expected error")
	}
}
