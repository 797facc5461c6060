package main

import (
	"fmt"
	"os"

	"hotconsole/internal/control"
	"hotconsole/internal/daemon"
	"hotconsole/internal/gen"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	root := &cobra.Command{
		Use:   "hotconsole",
		Short: "Hotconsole: global hotkeys and console commands for scripts",
		Long: `Hotconsole binds global hotkeys and console commands to your scripts: exec hooks,
Windows services, sqlite queries, HTTP calls and generators. data.json next to the
executable keeps the scripts' settings and is migrated on start.

Key commands:
  run [--console]           Register hotkeys and serve commands
  stop                      Stop the running dispatcher
  status [--json]           Counters + last executions
  list|exec <name> [n]      Inspect or run commands remotely
  config show|get|set       Read or edit data.json
  doctor|health|tail-log    Checks, liveness, log tail
  inn|uuid                  Generate identifiers`,
		Example: `  hotconsole run
  hotconsole run --console
  hotconsole exec inn 1
  hotconsole config set consoleMode true
  hotconsole status --json`,
		DisableFlagsInUseLine: true,
	}

	root.Version = version
	root.SetVersionTemplate("Hotconsole v{{.Version}}\n")

	cfgPath := root.PersistentFlags().StringP("config", "c", "", "Path to settings file (TOML). Defaults to %APPDATA%\\hotconsole\\config.toml")
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(daemon.NewRunCmd(cfgPath))
	root.AddCommand(daemon.NewStopCmd(cfgPath))
	root.AddCommand(control.NewStatusCmd(cfgPath))
	root.AddCommand(control.NewHealthCmd(cfgPath))
	root.AddCommand(control.NewListCmd(cfgPath))
	root.AddCommand(control.NewExecCmd(cfgPath))
	root.AddCommand(control.NewConfigCmd(cfgPath))
	root.AddCommand(control.NewDoctorCmd(cfgPath))
	root.AddCommand(control.NewTailLogCmd(cfgPath))
	root.AddCommand(newINNCmd())
	root.AddCommand(newUUIDCmd())

	applyColorHelp(root)

	if err := root.Execute(); err != nil {
		return err
	}
	return nil
}

func newINNCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inn",
		Short: "Print a random valid INN",
		RunE: func(cmd *cobra.Command, args []string) error {
			inn := gen.LegalINN()
			if individual, _ := cmd.Flags().GetBool("individual"); individual {
				inn = gen.IndividualINN()
			}
			return printAndCopy(cmd, inn)
		},
	}
	cmd.Flags().BoolP("individual", "i", false, "12-digit INN of an individual")
	cmd.Flags().Bool("copy", false, "also copy to the clipboard")
	return cmd
}

func newUUIDCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uuid",
		Short: "Print a random UUID",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printAndCopy(cmd, gen.UUID())
		},
	}
	cmd.Flags().Bool("copy", false, "also copy to the clipboard")
	return cmd
}

func printAndCopy(cmd *cobra.Command, value string) error {
	fmt.Fprintln(cmd.OutOrStdout(), value)
	if cp, _ := cmd.Flags().GetBool("copy"); cp {
		return clipboard.WriteAll(value)
	}
	return nil
}

func applyColorHelp(root *cobra.Command) {
	const (
		boldBlue = "\033[1;34m"
		green    = "\033[32m"
		bold     = "\033[1m"
		dim      = "\033[2m"
		reset    = "\033[0m"
	)
	root.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd != root {
			_ = cmd.Usage()
			return
		}
		out := cmd.OutOrStdout()
		write := func(format string, args ...any) { _, _ = fmt.Fprintf(out, format, args...) }
		writeln := func(line string) { _, _ = fmt.Fprintln(out, line) }

		write("%sHotconsole%s: global hotkeys and console commands %s(v%s)%s\n", boldBlue, reset, dim, version, reset)
		write("%sRegisters your hotkeys, keeps data.json current and runs commands one at a time.%s\n\n", dim, reset)

		write("%sUsage%s\n", bold, reset)
		write("  hotconsole [command] [flags]\n\n")

		write("%sConsole mode%s\n", bold, reset)
		writeln("  alt+h                       print the hotkey list")
		writeln("  alt+q                       switch to console mode")
		writeln("  <name> [option]             run a command; exit relaunches")
		writeln("")

		write("%sNotable flags & env%s\n", bold, reset)
		writeln("  -c, --config <path>     settings file (default %APPDATA%\\hotconsole\\config.toml)")
		writeln("  Env: HOTCONSOLE_LOG_LEVEL=debug, HOTCONSOLE_LOG_FORMAT=json,")
		writeln("       HOTCONSOLE_DATA_PATH=<file>, HOTCONSOLE_WATCHDOG_ENABLED=0,")
		writeln("       HOTCONSOLE_CONTROL_ENABLED=0")
		writeln("")

		write("%sExamples%s\n", bold, reset)
		writeln("  hotconsole run")
		writeln("  hotconsole exec inn 1")
		writeln("  hotconsole config set consoleMode true")
		writeln("  hotconsole status --json")
		writeln("")

		write("%sCommands%s\n", bold, reset)
		for _, c := range cmd.Commands() {
			if c.Hidden {
				continue
			}
			write("  %s%-15s%s %s\n", green, c.Name(), reset, c.Short)
		}
	})
}
