package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hotconsole/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureWritesToLogPath(t *testing.T) {
	dir := t.TempDir()
	s, err := config.Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	s.Paths.StateDir = dir
	s.Paths.LogPath = filepath.Join(dir, "logs", "hotconsole.log")
	s.Paths.DataPath = filepath.Join(dir, "data.json")
	s.Logging.Level = "warn"
	s.Logging.Format = "json"

	logger, err := Configure(s)
	if err != nil {
		t.Fatalf("configure: %v", err)
	}
	if logger.GetLevel() != logrus.WarnLevel {
		t.Fatalf("level = %s", logger.GetLevel())
	}
	logger.Info("hidden")
	logger.Warn("visible")

	data, err := os.ReadFile(s.Paths.LogPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"msg":"visible"`) {
		t.Fatalf("unexpected log contents: %s", out)
	}
}

func TestConfigureStampsDefaultFields(t *testing.T) {
	dir := t.TempDir()
	s, err := config.Default()
	require.NoError(t, err)
	s.Paths.StateDir = dir
	s.Paths.LogPath = filepath.Join(dir, "hotconsole.log")
	s.Paths.DataPath = filepath.Join(dir, "data.json")
	s.Logging.Level = "loud"
	s.Logging.Format = "json"

	logger, err := Configure(s)
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	Component(logger, "runner").WithField("title", "override").Info("ready")

	data, err := os.ReadFile(s.Paths.LogPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var warn, entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &warn))
	assert.Equal(t, "unknown log level, using info", warn["msg"])
	// logrus renames data keys that clash with its own.
	assert.Equal(t, "loud", warn["fields.level"])
	assert.Equal(t, s.App.Title, warn["title"])

	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	assert.Equal(t, "runner", entry[FieldComponent])
	assert.Equal(t, "override", entry["title"])
	assert.Equal(t, float64(os.Getpid()), entry["pid"])
}

func TestComponentEntry(t *testing.T) {
	entry := Component(NewTestLogger(), "control")
	assert.Equal(t, "control", entry.Data[FieldComponent])
}
