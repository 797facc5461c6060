// Package commands turns [[commands]] entries of the settings file into
// registered commands.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"hotconsole/internal/command"
	"hotconsole/internal/config"
	"hotconsole/internal/console"
	"hotconsole/internal/gen"
	"hotconsole/internal/httpx"
	"hotconsole/internal/proc"
	"hotconsole/internal/service"
	"hotconsole/internal/shellcmd"
	"hotconsole/internal/storage"
	"hotconsole/internal/window"

	"github.com/atotto/clipboard"
	"github.com/sirupsen/logrus"
)

// Deps are the collaborators declared commands call into. Zero fields get
// the real implementations.
type Deps struct {
	Console   *console.Console
	Logger    logrus.FieldLogger
	Store     *config.Store // data document for ${config:key} references
	Shell     *shellcmd.Runner
	HTTP      *httpx.Client
	Services  service.Controller
	Clipboard func(string) error
	Kill      func(name string) (bool, error)
	Focus     func(title string) error
}

func (d *Deps) defaults() {
	if d.Logger == nil {
		d.Logger = logrus.StandardLogger()
	}
	if d.Shell == nil {
		d.Shell = shellcmd.NewRunner(d.Console.Out, d.Logger)
	}
	if d.HTTP == nil {
		d.HTTP = httpx.New(d.Console.Out, 30*time.Second)
	}
	if d.Services == nil {
		d.Services = service.System()
	}
	if d.Clipboard == nil {
		d.Clipboard = clipboard.WriteAll
	}
	if d.Kill == nil {
		d.Kill = proc.KillByName
	}
	if d.Focus == nil {
		d.Focus = window.SwitchTo
	}
}

// Build registers every declared command.
func Build(decls []config.CommandConfig, deps Deps) (*command.Registry, error) {
	if deps.Console == nil {
		return nil, fmt.Errorf("commands: console is required")
	}
	deps.defaults()
	reg := command.NewRegistry()
	for i, decl := range decls {
		cmd, err := New(decl, deps)
		if err != nil {
			return nil, fmt.Errorf("commands[%d] %s: %w", i, decl.Name, err)
		}
		if err := reg.Register(cmd); err != nil {
			return nil, fmt.Errorf("commands[%d]: %w", i, err)
		}
	}
	return reg, nil
}

// New builds one command from its declaration. deps must have defaults
// applied.
func New(decl config.CommandConfig, deps Deps) (*command.Command, error) {
	kind := strings.ToLower(strings.TrimSpace(decl.Kind))
	if kind == "" {
		kind = config.KindExec
	}
	cmd := &command.Command{
		Name:           decl.Name,
		Description:    decl.Description,
		Options:        options(decl.Options),
		OptionsMessage: decl.OptionsMessage,
	}
	timeout := time.Duration(decl.TimeoutSec * float64(time.Second))

	switch kind {
	case config.KindExec:
		args := decl.Args
		if decl.ArgsLine != "" {
			parsed, err := shellcmd.ParseArgs(decl.ArgsLine)
			if err != nil {
				return nil, fmt.Errorf("args_line: %w", err)
			}
			args = append(append([]string{}, args...), parsed...)
		}
		if decl.Command == "" {
			return nil, fmt.Errorf("exec command needs command")
		}
		spec := shellcmd.Spec{Command: decl.Command, Args: args, Dir: decl.Dir, Env: decl.Env, Timeout: timeout}
		run := execRun(cmd.Options, spec, decl.ConfigMessage, deps)
		if decl.Multi {
			if len(cmd.Options) == 0 {
				return nil, fmt.Errorf("multi exec command needs options")
			}
			// The executor must not ask for a single option; the
			// command asks for several itself.
			choices, message := cmd.Options, cmd.Prompt()
			cmd.Options = nil
			run = multiRun(choices, message, run, deps.Console)
		}
		cmd.Run = run
	case config.KindService:
		if decl.Service == "" {
			return nil, fmt.Errorf("service command needs service")
		}
		if len(cmd.Options) == 0 {
			cmd.Options = command.Labels("Stop", "Start", "Restart")
		}
		cmd.Run = serviceRun(decl.Service, timeout, deps.Services)
	case config.KindSQL:
		if decl.DB == "" || decl.Query == "" {
			return nil, fmt.Errorf("sql command needs db and query")
		}
		cmd.Run = sqlRun(decl.DB, decl.Query, deps.Console)
	case config.KindHTTP:
		if decl.URL == "" {
			return nil, fmt.Errorf("http command needs url")
		}
		cmd.Run = httpRun(decl.URL, decl.ConfigMessage, deps)
	case config.KindINN:
		if len(cmd.Options) == 0 {
			cmd.Options = []command.Option{
				command.KeyedOption{Key: "legal", Text: "Legal entity (10 digits)"},
				command.KeyedOption{Key: "individual", Text: "Individual (12 digits)"},
			}
		}
		cmd.Run = innRun(deps)
	case config.KindUUID:
		cmd.Run = func(ctx context.Context, _ int) (string, error) {
			copyOut(deps, gen.UUID())
			return "", nil
		}
	case config.KindKill:
		if decl.Process == "" {
			return nil, fmt.Errorf("kill command needs process")
		}
		cmd.Run = func(ctx context.Context, _ int) (string, error) {
			found, err := deps.Kill(decl.Process)
			if err != nil {
				return "", err
			}
			if !found {
				return fmt.Sprintf("Process %s is not running", decl.Process), nil
			}
			return "", nil
		}
	case config.KindFocus:
		if decl.Window == "" {
			return nil, fmt.Errorf("focus command needs window")
		}
		cmd.Run = func(ctx context.Context, _ int) (string, error) {
			return "", deps.Focus(decl.Window)
		}
	default:
		return nil, fmt.Errorf("unknown kind %q", decl.Kind)
	}
	return cmd, nil
}

func options(decls []config.OptionConfig) []command.Option {
	if len(decls) == 0 {
		return nil
	}
	out := make([]command.Option, len(decls))
	for i, o := range decls {
		if o.Key != "" {
			out[i] = command.KeyedOption{Key: o.Key, Text: o.Label}
		} else {
			out[i] = command.PlainOption{Text: o.Label}
		}
	}
	return out
}

func execRun(opts []command.Option, spec shellcmd.Spec, message string, deps Deps) command.RunFunc {
	return func(ctx context.Context, option int) (string, error) {
		resolved, missing, err := resolveSpec(ctx, deps, spec, message)
		if err != nil || missing != "" {
			return missing, err
		}
		choice := shellcmd.Choice{Index: option}
		if option >= 1 && option <= len(opts) {
			o := opts[option-1]
			choice.Label = o.Label()
			if k, ok := o.(command.KeyedOption); ok {
				choice.Key = k.Key
			}
		}
		return deps.Shell.Run(ctx, resolved, choice)
	}
}

// multiRun runs once per selected option. A fixed option runs only that one.
func multiRun(opts []command.Option, message string, run command.RunFunc, con *console.Console) command.RunFunc {
	return func(ctx context.Context, option int) (string, error) {
		picked := []int{option}
		if option == 0 {
			ns, err := con.AskOptions(ctx, opts, message)
			if err != nil {
				return "", err
			}
			picked = ns
		} else if err := console.CheckRange(option, len(opts)); err != nil {
			return "", err
		}
		if len(picked) == 0 {
			return "Nothing selected", nil
		}
		for _, n := range picked {
			msg, err := run(ctx, n)
			if err != nil || msg != "" {
				return msg, err
			}
		}
		return "", nil
	}
}

func serviceRun(name string, timeout time.Duration, ctl service.Controller) command.RunFunc {
	return func(ctx context.Context, option int) (string, error) {
		var steps []service.State
		switch option {
		case 1:
			steps = []service.State{service.Stopped}
		case 2:
			steps = []service.State{service.Running}
		default:
			steps = []service.State{service.Stopped, service.Running}
		}
		for _, target := range steps {
			ok, err := service.ChangeState(ctx, ctl, name, target, timeout)
			if err != nil {
				return "", err
			}
			if !ok {
				return fmt.Sprintf("Service %s did not become %s in time", name, target), nil
			}
		}
		return "", nil
	}
}

func sqlRun(db, query string, con *console.Console) command.RunFunc {
	return func(ctx context.Context, _ int) (string, error) {
		rows, err := storage.ConnectAndExecute(ctx, db, query)
		if err != nil {
			return "", err
		}
		if rows == nil {
			con.Printf("\nQuery executed\n")
			return "", nil
		}
		if len(rows.Values) == 0 {
			con.Printf("\nNo rows\n")
			return "", nil
		}
		con.Println()
		con.Table(rows.Columns, rows.Strings())
		return "", nil
	}
}

func httpRun(rawURL, message string, deps Deps) command.RunFunc {
	return func(ctx context.Context, _ int) (string, error) {
		url, missing, err := resolveConfig(ctx, deps, rawURL, message)
		if err != nil || missing != "" {
			return missing, err
		}
		body, err := deps.HTTP.GetJSON(ctx, url)
		if err != nil {
			return "", err
		}
		if body == nil {
			return "", nil
		}
		out, err := json.MarshalIndent(body, "", "    ")
		if err != nil {
			return "", err
		}
		deps.Console.Printf("\n%s\n", out)
		return "", nil
	}
}

func innRun(deps Deps) command.RunFunc {
	return func(ctx context.Context, option int) (string, error) {
		var inn string
		if option == 2 {
			inn = gen.IndividualINN()
		} else {
			inn = gen.LegalINN()
		}
		copyOut(deps, inn)
		return "", nil
	}
}

// copyOut prints value and puts it on the clipboard.
func copyOut(deps Deps, value string) {
	deps.Console.Printf("\n%s\n", value)
	if err := deps.Clipboard(value); err != nil {
		deps.Logger.WithError(err).Warn("clipboard unavailable")
		return
	}
	deps.Console.Printf("Copied to clipboard\n")
}
