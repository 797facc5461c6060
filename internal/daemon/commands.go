package daemon

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"hotconsole/internal/config"
	"hotconsole/internal/logging"

	"github.com/spf13/cobra"
)

const relaunchGrace = 3 * time.Second

// NewRunCmd runs the dispatcher in the foreground console.
func NewRunCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Register hotkeys and serve commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flag("no-watchdog").Changed {
				if err := os.Setenv("HOTCONSOLE_WATCHDOG_ENABLED", "0"); err != nil {
					return fmt.Errorf("set HOTCONSOLE_WATCHDOG_ENABLED: %w", err)
				}
			}
			s, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			if err := config.MustStatePaths(s); err != nil {
				return err
			}
			logger, err := logging.Configure(s)
			if err != nil {
				return err
			}
			if err := ensureNotRunning(s); err != nil {
				return err
			}
			if err := writePID(s.Paths.PidPath); err != nil {
				return err
			}
			defer func() {
				if err := os.Remove(s.Paths.PidPath); err != nil && !errors.Is(err, os.ErrNotExist) {
					logger.Warnf("remove pid file: %v", err)
				}
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			console, _ := cmd.Flags().GetBool("console")
			return Serve(ctx, s, logger, ServeOptions{ForceConsole: console})
		},
	}
	cmd.Flags().Bool("console", false, "start in console mode")
	cmd.Flags().Bool("no-watchdog", false, "do not relaunch after a screen lock")
	return cmd
}

// NewStopCmd stops a running dispatcher.
func NewStopCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the running dispatcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			pid, err := readPID(s.Paths.PidPath)
			if err != nil {
				return fmt.Errorf("not running: %w", err)
			}
			if err := terminate(pid); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "stop signal sent")
			if wait, _ := cmd.Flags().GetDuration("wait"); wait > 0 {
				return waitForShutdown(*cfgPath, wait)
			}
			return nil
		},
	}
	cmd.Flags().Duration("wait", 0, "wait up to this long for the process to exit")
	return cmd
}

func ensureNotRunning(s *config.Settings) error {
	pid, err := readPID(s.Paths.PidPath)
	if err != nil {
		return nil
	}
	if pid == os.Getpid() {
		return nil
	}
	// A relaunch starts the new process before the old one exits.
	deadline := time.Now().Add(relaunchGrace)
	for alive(pid) {
		if time.Now().After(deadline) {
			return fmt.Errorf("already running with pid %d", pid)
		}
		time.Sleep(100 * time.Millisecond)
	}
	return nil
}

func writePID(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("bad pid file %s: %w", path, err)
	}
	return pid, nil
}

func waitForShutdown(cfgPath string, timeout time.Duration) error {
	s, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		pid, err := readPID(s.Paths.PidPath)
		if err != nil {
			return nil // pid file gone
		}
		if !alive(pid) {
			_ = os.Remove(s.Paths.PidPath)
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("stop: dispatcher did not exit within %s", timeout)
}
