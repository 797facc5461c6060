package control

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"hotconsole/internal/config"
	"hotconsole/internal/doctor"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

func clientFor(cfgPath string) (*Client, *config.Settings, error) {
	s, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, err
	}
	return NewClient(Endpoint(s)), s, nil
}

// NewStatusCmd queries the running dispatcher.
func NewStatusCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show dispatcher status",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := clientFor(*cfgPath)
			if err != nil {
				return err
			}
			resp, err := c.Do(Request{Op: OpStatus})
			if err != nil {
				return err
			}
			st := resp.Status
			if st == nil {
				return fmt.Errorf("status: empty response")
			}
			out := cmd.OutOrStdout()
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return json.NewEncoder(out).Encode(st)
			}
			fmt.Fprintf(out, "uptime: %s\nconsole mode: %v\nwatchdog: %s\n", time.Since(st.StartedAt).Round(time.Second), st.ConsoleMode, st.Watchdog)
			fmt.Fprintf(out, "hotkeys: %d  commands: %d\n", st.Hotkeys, st.Commands)
			fmt.Fprintf(out, "executed: %d  succeeded: %d  declined: %d  failed: %d\n", st.Executed, st.Succeeded, st.Declined, st.Failed)
			for _, e := range st.Recent {
				line := fmt.Sprintf("%s  %-10s %s", e.At.Format("15:04:05"), e.Outcome, e.Command)
				if e.Option != 0 {
					line += " " + strconv.Itoa(e.Option)
				}
				if e.Error != "" {
					line += ": " + e.Error
				} else if e.Message != "" {
					line += ": " + e.Message
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "output JSON")
	return cmd
}

// NewHealthCmd pings the control endpoint.
func NewHealthCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Ping the running dispatcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := clientFor(*cfgPath)
			if err != nil {
				return err
			}
			resp, err := c.Do(Request{Op: OpHealth})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			return nil
		},
	}
}

// NewListCmd prints the commands the dispatcher knows.
func NewListCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List commands and their hotkeys",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := clientFor(*cfgPath)
			if err != nil {
				return err
			}
			resp, err := c.Do(Request{Op: OpList})
			if err != nil {
				return err
			}
			tbl := uitable.New()
			tbl.Separator = "  "
			tbl.AddRow("COMMAND", "HOTKEYS", "DESCRIPTION", "OPTIONS")
			for _, ci := range resp.Commands {
				opts := make([]string, len(ci.Options))
				for i, o := range ci.Options {
					opts[i] = fmt.Sprintf("%d=%s", i+1, o)
				}
				tbl.AddRow(ci.Name, strings.Join(ci.Hotkeys, ","), ci.Description, strings.Join(opts, " "))
			}
			fmt.Fprintln(cmd.OutOrStdout(), tbl)
			return nil
		},
	}
}

// NewExecCmd runs a command inside the dispatcher.
func NewExecCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "exec <name> [option]",
		Short: "Run a command in the running dispatcher",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := clientFor(*cfgPath)
			if err != nil {
				return err
			}
			req := Request{Op: OpExec, Name: args[0]}
			if len(args) == 2 {
				n, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("option must be a number: %q", args[1])
				}
				req.Option = n
			}
			resp, err := c.Do(req)
			if err != nil {
				return err
			}
			res := resp.Result
			if res == nil {
				return fmt.Errorf("exec: empty response")
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s (%s)\n", res.Command, res.Outcome, res.Duration.Round(time.Millisecond))
			if res.Message != "" {
				fmt.Fprintln(out, res.Message)
			}
			if !resp.OK {
				return fmt.Errorf("%s failed: %s", res.Command, res.Error)
			}
			return nil
		},
	}
}

// NewConfigCmd inspects and edits data.json.
func NewConfigCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or edit data.json",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print data.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storeFor(*cfgPath)
			if err != nil {
				return err
			}
			fields, err := store.LoadRaw()
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(fields, "", "    ")
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s\n", store.Path(), out)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print one value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storeFor(*cfgPath)
			if err != nil {
				return err
			}
			v, err := store.GetField(args[0])
			if err != nil {
				return err
			}
			if str, ok := v.(string); ok {
				fmt.Fprintln(cmd.OutOrStdout(), str)
				return nil
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(v)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one value; true/false and numbers keep their type",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storeFor(*cfgPath)
			if err != nil {
				return err
			}
			doc, err := store.Load()
			if err != nil {
				return fmt.Errorf("%w (run hotconsole once to repair it)", err)
			}
			if err := doc.Set(args[0], ParseValue(args[1])); err != nil {
				return err
			}
			if err := store.Save(doc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s set in %s\n", args[0], store.Path())
			return nil
		},
	})
	return cmd
}

func storeFor(cfgPath string) (*config.Store, error) {
	s, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	return config.NewStore(s.Paths.DataPath), nil
}

// ParseValue reads a CLI value as bool, integer, float or string.
func ParseValue(s string) any {
	if s == "true" || s == "false" {
		return s == "true"
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// NewTailLogCmd tails the main log file (simple last N lines).
func NewTailLogCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tail-log",
		Short: "Show the last log lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			n, _ := cmd.Flags().GetInt("lines")
			lines, err := tailFile(s.Paths.LogPath, n)
			if err != nil {
				return err
			}
			for _, l := range lines {
				fmt.Fprintln(cmd.OutOrStdout(), l)
			}
			return nil
		},
	}
	cmd.Flags().IntP("lines", "n", 50, "number of lines")
	return cmd
}

func tailFile(path string, n int) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var lines []string
	for _, l := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}

// NewDoctorCmd runs environment checks.
func NewDoctorCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check settings, data.json and declared commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			results := doctor.Run(s)
			failed := false
			for _, r := range results {
				status := "ok"
				if !r.Pass {
					status = "fail"
					failed = true
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %-4s %s\n", r.Name, status, r.Detail)
			}
			if failed {
				return fmt.Errorf("doctor found issues")
			}
			return nil
		},
	}
}
