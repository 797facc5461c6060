package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultTitle        = "Hotconsole Scripts"
	DefaultLockProcess  = "LogonUI.exe"
	defaultIdleSec      = 15
	defaultLockedSec    = 2
	defaultStatusTail   = 10
	defaultAppDir       = "hotconsole"
	defaultDataFileName = "data.json"
)

// Settings holds application settings loaded from TOML. The JSON data
// document lives separately at Paths.DataPath.
type Settings struct {
	App struct {
		Title string `toml:"title"`
	} `toml:"app"`

	Paths struct {
		StateDir   string `toml:"state_dir"`
		DataPath   string `toml:"data_path"`
		LogPath    string `toml:"log_path"`
		PidPath    string `toml:"pid_path"`
		SocketPath string `toml:"socket_path"`
		ConfigPath string `toml:"-"`
	} `toml:"paths"`

	Logging struct {
		Level  string `toml:"level"`  // debug, info, warn, error
		Format string `toml:"format"` // text, json
		Stderr bool   `toml:"stderr"`
	} `toml:"logging"`

	Watchdog struct {
		Enabled           bool    `toml:"enabled"`
		Process           string  `toml:"process"`
		IdleIntervalSec   float64 `toml:"idle_interval_sec"`
		LockedIntervalSec float64 `toml:"locked_interval_sec"`
	} `toml:"watchdog"`

	Control struct {
		Enabled bool `toml:"enabled"`
	} `toml:"control"`

	UI struct {
		StatusTail int `toml:"status_tail"`
	} `toml:"ui"`

	// Defaults is the expected data document; new keys are merged into
	// data.json whenever its version changes.
	Defaults map[string]any `toml:"defaults"`

	Commands   []CommandConfig   `toml:"commands"`
	Hotkeys    []HotkeyConfig    `toml:"hotkeys"`
	Hotstrings []HotstringConfig `toml:"hotstrings"`
}

// Default returns Settings populated with defaults.
func Default() (*Settings, error) {
	stateDir, err := defaultStateDir()
	if err != nil {
		return nil, err
	}

	s := &Settings{}
	s.App.Title = DefaultTitle

	s.Paths.StateDir = stateDir
	s.Paths.DataPath = defaultDataPath(stateDir)
	s.Paths.LogPath = filepath.Join(stateDir, "hotconsole.log")
	s.Paths.PidPath = filepath.Join(stateDir, "hotconsole.pid")
	s.Paths.SocketPath = filepath.Join(stateDir, "hotconsole.sock")

	s.Logging.Level = "info"
	s.Logging.Format = "text"

	s.Watchdog.Enabled = true
	s.Watchdog.Process = DefaultLockProcess
	s.Watchdog.IdleIntervalSec = defaultIdleSec
	s.Watchdog.LockedIntervalSec = defaultLockedSec

	s.Control.Enabled = true
	s.UI.StatusTail = defaultStatusTail

	s.Defaults = map[string]any{
		KeyVersion:       int64(1),
		KeyConsoleMode:   false,
		KeyRefuseStartup: false,
	}

	s.Commands = []CommandConfig{
		{Name: "inn", Kind: KindINN, Description: "Generate a random INN"},
		{Name: "uuid", Kind: KindUUID, Description: "Generate a random UUID"},
	}
	s.Hotkeys = []HotkeyConfig{
		{Combo: "alt+shift+i", Command: "inn"},
		{Combo: "alt+shift+u", Command: "uuid"},
	}
	return s, nil
}

// Load loads settings from file, applying defaults. A missing file is
// created from the defaults.
func Load(path string) (*Settings, error) {
	s, err := Default()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err := Save(s, path); err != nil {
				return nil, err
			}
			s.Paths.ConfigPath = path
			applyEnvOverrides(s)
			return s, nil
		}
		return nil, err
	}

	// Decoding into the populated defaults would merge list entries, so the
	// declared lists start empty when the file sets them.
	s.Commands, s.Hotkeys, s.Hotstrings = nil, nil, nil
	s.Defaults = nil
	if err := toml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if s.Defaults == nil {
		s.Defaults = DefaultDocument().Fields()
	}
	s.Paths.ConfigPath = path
	applyEnvOverrides(s)
	return s, nil
}

// Save writes s to path.
func Save(s *Settings, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := toml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o600)
}

// DefaultPath is %APPDATA%\hotconsole\config.toml on Windows and the XDG
// config dir elsewhere.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, defaultAppDir, "config.toml"), nil
}

// MustStatePaths ensures state dirs exist.
func MustStatePaths(s *Settings) error {
	for _, p := range []string{s.Paths.StateDir, filepath.Dir(s.Paths.LogPath), filepath.Dir(s.Paths.DataPath)} {
		if p == "" || p == "." {
			continue
		}
		if err := os.MkdirAll(p, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// ExpectedDocument builds the document the data file should converge to.
func (s *Settings) ExpectedDocument() (*Document, error) {
	if len(s.Defaults) == 0 {
		return DefaultDocument(), nil
	}
	doc, err := DocumentFromFields(s.Defaults)
	if err != nil {
		return nil, fmt.Errorf("settings [defaults]: %w", err)
	}
	return doc, nil
}

// IdleInterval is the lock poll period while the session is unlocked.
func (s *Settings) IdleInterval() time.Duration {
	return seconds(s.Watchdog.IdleIntervalSec, defaultIdleSec)
}

// LockedInterval is the lock poll period once a lock was seen.
func (s *Settings) LockedInterval() time.Duration {
	return seconds(s.Watchdog.LockedIntervalSec, defaultLockedSec)
}

func seconds(v float64, def float64) time.Duration {
	if v <= 0 {
		v = def
	}
	return time.Duration(v * float64(time.Second))
}

func defaultStateDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", err
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, defaultAppDir), nil
}

// defaultDataPath keeps data.json next to the executable, falling back to
// the state dir when the executable path is unknown.
func defaultDataPath(stateDir string) string {
	exe, err := os.Executable()
	if err != nil {
		return filepath.Join(stateDir, defaultDataFileName)
	}
	return filepath.Join(filepath.Dir(exe), defaultDataFileName)
}

func applyEnvOverrides(s *Settings) {
	if v := os.Getenv("HOTCONSOLE_LOG_LEVEL"); v != "" {
		s.Logging.Level = v
	}
	if v := os.Getenv("HOTCONSOLE_LOG_FORMAT"); v != "" {
		s.Logging.Format = v
	}
	if v := os.Getenv("HOTCONSOLE_DATA_PATH"); v != "" {
		s.Paths.DataPath = v
	}
	if v := os.Getenv("HOTCONSOLE_WATCHDOG_ENABLED"); v != "" {
		s.Watchdog.Enabled = truthy(v)
	}
	if v := os.Getenv("HOTCONSOLE_CONTROL_ENABLED"); v != "" {
		s.Control.Enabled = truthy(v)
	}
}

func truthy(v string) bool {
	return v != "0" && strings.ToLower(v) != "false"
}
