package logging

import (
	"io"
	"os"
	"strings"

	"hotconsole/internal/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FieldComponent names the subsystem that wrote an entry.
const FieldComponent = "component"

// Configure sets up logrus with rotation. Every entry carries the process
// id and the console title so a shared log file can be split per instance;
// a relaunch writes to the same file under a new pid.
func Configure(s *config.Settings) (*logrus.Logger, error) {
	if err := config.MustStatePaths(s); err != nil {
		return nil, err
	}
	logger := logrus.New()
	switch strings.ToLower(s.Logging.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, levelErr := logrus.ParseLevel(strings.ToLower(s.Logging.Level))
	if levelErr == nil {
		logger.SetLevel(level)
	}
	rotator := &lumberjack.Logger{
		Filename:   s.Paths.LogPath,
		MaxSize:    20, // megabytes
		MaxBackups: 3,
		MaxAge:     30,
	}
	// Stdout carries the console UI, so the mirror goes to stderr.
	if s.Logging.Stderr {
		logger.SetOutput(io.MultiWriter(os.Stderr, rotator))
	} else {
		logger.SetOutput(rotator)
	}
	logger.AddHook(defaultFields{"pid": os.Getpid(), "title": s.App.Title})
	if levelErr != nil && s.Logging.Level != "" {
		logger.WithField("level", s.Logging.Level).Warn("unknown log level, using info")
	}
	return logger, nil
}

// Component returns logger tagged with the subsystem name.
func Component(logger logrus.FieldLogger, name string) *logrus.Entry {
	return logger.WithField(FieldComponent, name)
}

// defaultFields fills in fields that an entry did not set itself.
type defaultFields logrus.Fields

func (defaultFields) Levels() []logrus.Level { return logrus.AllLevels }

func (d defaultFields) Fire(e *logrus.Entry) error {
	for k, v := range d {
		if _, ok := e.Data[k]; !ok {
			e.Data[k] = v
		}
	}
	return nil
}

// NewTestLogger returns a logger that discards everything.
func NewTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.DebugLevel)
	return logger
}
