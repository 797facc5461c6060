package daemon

import (
	"context"
	"errors"
	"os"

	"hotconsole/internal/autostart"
	"hotconsole/internal/commands"
	"hotconsole/internal/config"
	"hotconsole/internal/console"
	"hotconsole/internal/control"
	"hotconsole/internal/elevation"
	"hotconsole/internal/hotkey"
	"hotconsole/internal/proc"
	"hotconsole/internal/runner"
	"hotconsole/internal/window"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// ServeOptions are per-run switches from the command line.
type ServeOptions struct {
	ForceConsole bool
}

// Serve wires settings into a runner and blocks until ctx is done or the
// process relaunches itself.
func Serve(ctx context.Context, s *config.Settings, logger *logrus.Logger, opts ServeOptions) error {
	expected, err := s.ExpectedDocument()
	if err != nil {
		return err
	}

	in := console.NewLineSource(os.Stdin)
	defer in.Close()
	con := console.New(color.Output, in)
	title := s.App.Title
	con.Focus = func() {
		if !window.IsForeground(title) {
			_ = window.SwitchTo(title)
		}
	}

	facility, err := hotkey.New()
	if errors.Is(err, hotkey.ErrUnsupported) {
		logger.Warn("global hotkeys unavailable on this platform; console mode only")
		facility = hotkey.NewNoop()
		opts.ForceConsole = true
	} else if err != nil {
		return err
	}
	defer facility.Close()

	store := config.NewStore(s.Paths.DataPath)
	reg, err := commands.Build(s.Commands, commands.Deps{Console: con, Logger: logger, Store: store})
	if err != nil {
		return err
	}
	hotkeys, err := commands.Hotkeys(reg, s.Hotkeys)
	if err != nil {
		return err
	}

	ro := runner.Options{
		Store:          store,
		Expected:       expected,
		Title:          title,
		SetTitle:       window.SetTitle,
		Facility:       facility,
		Restarter:      elevation.Process{Exit: os.Exit},
		Console:        con,
		Logger:         logger,
		Commands:       reg.All(),
		IdleInterval:   s.IdleInterval(),
		LockedInterval: s.LockedInterval(),
		History:        s.UI.StatusTail,
		ForceConsole:   opts.ForceConsole,
	}
	if s.Watchdog.Enabled && !opts.ForceConsole {
		ro.Detector = proc.LockDetector{Process: s.Watchdog.Process}
	}
	if folder, err := autostart.UserFolder(); err == nil {
		entry, err := autostart.ForExecutable(autostart.EntryName(title, config.DefaultTitle), os.Args[1:])
		if err != nil {
			return err
		}
		ro.Startup, ro.StartupEntry = folder, entry
	} else {
		logger.WithError(err).Debug("startup folder unavailable")
	}

	r, err := runner.New(ro)
	if err != nil {
		return err
	}
	if err := r.Init(ctx); err != nil {
		return err
	}

	if s.Control.Enabled {
		ln, err := control.Listen(control.Endpoint(s))
		if err != nil {
			logger.Errorf("control listen: %v", err)
		} else {
			srv := control.NewServer(r, logger)
			go func() {
				if err := srv.Serve(ctx, ln); err != nil {
					logger.Errorf("control serve: %v", err)
				}
			}()
		}
	}

	logger.WithFields(logrus.Fields{"hotkeys": len(hotkeys), "commands": reg.Len()}).Info("hotconsole ready")
	return r.Run(ctx, hotkeys, commands.Hotstrings(s.Hotstrings))
}
