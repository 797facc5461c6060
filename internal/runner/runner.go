// Package runner owns the dispatcher loop. Commands from every source
// execute on the loop goroutine, one at a time.
package runner

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"hotconsole/internal/autostart"
	"hotconsole/internal/command"
	"hotconsole/internal/config"
	"hotconsole/internal/console"
	"hotconsole/internal/elevation"
	"hotconsole/internal/executor"
	"hotconsole/internal/hotkey"
	"hotconsole/internal/logging"
	"hotconsole/internal/migrate"

	"github.com/sirupsen/logrus"
)

const (
	ComboHelp    = "alt+h"
	ComboConsole = "alt+q"

	defaultIdleInterval   = 15 * time.Second
	defaultLockedInterval = 2 * time.Second
	defaultHistory        = 10
)

var (
	ErrCommandNotFound = errors.New("command not found")
	ErrTooManyArgs     = errors.New("the command has extra arguments")
	ErrOptionNotNumber = errors.New("option number must be a number")
	ErrStopped         = errors.New("dispatcher is not running")
)

// LockDetector reports whether the session is locked.
type LockDetector interface {
	Locked(ctx context.Context) (bool, error)
}

// StartupFolder stores the autostart launcher.
type StartupFolder interface {
	Exists(e autostart.Entry) (bool, error)
	Write(e autostart.Entry) (string, error)
}

// Options configures a Runner.
type Options struct {
	Store      *config.Store
	Expected   *config.Document
	Migrations []migrate.Migration
	Actualize  executor.ActualizeFunc
	Title      string
	SetTitle   func(string) error

	Facility  hotkey.Facility
	Detector  LockDetector // nil disables the watchdog
	Restarter elevation.Relauncher
	Console   *console.Console
	Logger    logrus.FieldLogger

	Startup      StartupFolder // nil skips the startup offer
	StartupEntry autostart.Entry

	// Commands reachable from the console and the control channel in
	// addition to the bound ones.
	Commands []*command.Command

	IdleInterval   time.Duration
	LockedInterval time.Duration
	History        int
	// ForceConsole starts in console mode regardless of the document.
	ForceConsole bool
}

type request struct {
	fn   func()
	done chan struct{}
}

// Runner dispatches hotkeys, console lines and control requests.
type Runner struct {
	opts Options
	exec *executor.Executor
	log  logrus.FieldLogger

	hotkeys  command.Hotkeys
	bindings map[string]command.Hotkey
	commands []*command.Command
	byName   map[string]*command.Command

	consoleMode bool
	watching    bool
	watchdog    watchdog
	stats       stats

	requests chan request
	running  chan struct{}
	stopped  chan struct{}
}

// New validates opts and builds a Runner.
func New(opts Options) (*Runner, error) {
	if opts.Store == nil || opts.Console == nil || opts.Facility == nil || opts.Restarter == nil {
		return nil, errors.New("runner: store, console, facility and restarter are required")
	}
	if opts.Console.In == nil {
		return nil, errors.New("runner: console has no input")
	}
	if opts.Expected == nil {
		opts.Expected = config.DefaultDocument()
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Title == "" {
		opts.Title = config.DefaultTitle
	}
	if opts.IdleInterval <= 0 {
		opts.IdleInterval = defaultIdleInterval
	}
	if opts.LockedInterval <= 0 {
		opts.LockedInterval = defaultLockedInterval
	}
	if opts.History <= 0 {
		opts.History = defaultHistory
	}
	exec := executor.New(opts.Store, opts.Console, opts.Facility, opts.Logger)
	exec.SetActualize(opts.Actualize)
	return &Runner{
		opts:     opts,
		exec:     exec,
		log:      logging.Component(opts.Logger, "runner"),
		bindings: map[string]command.Hotkey{},
		byName:   map[string]*command.Command{},
		stats:    newStats(opts.History),
		requests: make(chan request),
		running:  make(chan struct{}),
		stopped:  make(chan struct{}),
	}, nil
}

// Init sets the title, brings data.json up to date and offers autostart.
func (r *Runner) Init(ctx context.Context) error {
	if r.opts.SetTitle != nil {
		if err := r.opts.SetTitle(r.opts.Title); err != nil {
			r.log.WithError(err).Debug("set title")
		}
	}
	outcome, err := migrate.ApplyWithOptions(r.opts.Store, r.opts.Expected, r.opts.Migrations, migrate.Options{Logger: r.opts.Logger})
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}
	r.log.WithField("outcome", outcome.String()).Info("config checked")
	if outcome.NeedsRestart() {
		r.opts.Console.Success(fmt.Sprintf("%s updated successfully", fileName(r.opts.Store.Path())))
		if err := r.opts.Console.WaitEnter(ctx, ""); err != nil && !errors.Is(err, console.ErrClosed) {
			return err
		}
		if err := r.opts.Restarter.Relaunch(false); err != nil {
			r.log.WithError(err).Warn("relaunch after config update")
		}
	}
	return r.OfferStartup(ctx)
}

// OfferStartup asks once whether to install the autostart launcher. It
// always leaves refuseStartup set afterwards.
func (r *Runner) OfferStartup(ctx context.Context) error {
	doc, err := r.opts.Store.Load()
	if err != nil {
		return err
	}
	if doc.RefuseStartup || r.opts.Startup == nil {
		return nil
	}
	defer func() {
		if err := r.opts.Store.UpdateField(config.KeyRefuseStartup, true); err != nil {
			r.log.WithError(err).Warn("persist refuseStartup")
		}
	}()

	entry := r.opts.StartupEntry
	exists, err := r.opts.Startup.Exists(entry)
	if err != nil {
		r.startupFailed(err)
		return nil
	}
	if exists {
		return nil
	}
	yes, err := r.opts.Console.Confirm(ctx, "Add the scripts to startup so you don't have to launch them by hand?")
	if err != nil {
		r.startupFailed(err)
		return nil
	}
	if !yes {
		return nil
	}
	path, err := r.opts.Startup.Write(entry)
	if err != nil {
		r.startupFailed(err)
		return nil
	}
	r.log.WithField("path", path).Info("startup launcher written")
	r.opts.Console.Printf("\nThe scripts were added to startup\n")
	return nil
}

func (r *Runner) startupFailed(err error) {
	r.log.WithError(err).Warn("startup offer failed")
	r.opts.Console.Printf("\n\nCould not add the startup launcher\n\n")
}

// Run registers bindings and serves until ctx is done.
func (r *Runner) Run(ctx context.Context, hotkeys command.Hotkeys, hotstrings []command.Hotstring) error {
	select {
	case <-r.running:
		return errors.New("runner already started")
	default:
		close(r.running)
	}
	defer close(r.stopped)

	r.opts.Console.Success("Hotkeys are ready!")
	if err := r.register(hotkeys, hotstrings); err != nil {
		return err
	}
	r.printHotkeys()

	doc, err := r.opts.Store.Load()
	if err != nil {
		return err
	}
	watch := r.opts.Detector != nil
	if doc.ConsoleMode || r.opts.ForceConsole {
		r.opts.Console.Success("Console-only mode is on")
		r.opts.Console.Printf("To turn it off set consoleMode = false in %s\n\n", fileName(r.opts.Store.Path()))
		watch = false
		r.enterConsole()
	}
	return r.loop(ctx, watch)
}

func (r *Runner) register(hotkeys command.Hotkeys, hotstrings []command.Hotstring) error {
	for _, hk := range hotkeys {
		combo, err := hotkey.Normalize(hk.Combo)
		if err != nil {
			return err
		}
		if combo == ComboHelp || combo == ComboConsole {
			return fmt.Errorf("hotkey %s is reserved", combo)
		}
		if err := r.opts.Facility.Register(combo); err != nil {
			return err
		}
		r.bindings[combo] = hk
	}
	for _, hs := range hotstrings {
		if err := r.opts.Facility.AddAbbreviation(hs.Abbreviation, hs.Text); err != nil {
			return fmt.Errorf("hotstring %s: %w", hs.Abbreviation, err)
		}
	}
	for _, combo := range []string{ComboHelp, ComboConsole} {
		if err := r.opts.Facility.Register(combo); err != nil {
			return err
		}
	}
	r.hotkeys = hotkeys

	r.commands = nil
	for _, c := range append(hotkeys.Commands(), r.opts.Commands...) {
		if _, ok := r.byName[c.Name]; ok {
			continue
		}
		r.byName[c.Name] = c
		r.commands = append(r.commands, c)
	}
	return nil
}

func (r *Runner) loop(ctx context.Context, watch bool) error {
	events := r.opts.Facility.Events()
	lines := r.opts.Console.In.Lines()

	r.watching = watch
	var tick <-chan time.Time
	var timer *time.Timer
	if watch {
		timer = time.NewTimer(r.opts.IdleInterval)
		defer timer.Stop()
		tick = timer.C
	}

	for {
		var consoleLines <-chan string
		if r.consoleMode {
			consoleLines = lines
		}
		select {
		case <-ctx.Done():
			return nil
		case combo, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			r.onHotkey(ctx, combo)
		case line, ok := <-consoleLines:
			if !ok {
				r.log.Warn("console input closed")
				lines = nil
				continue
			}
			if err := r.handleLine(ctx, line); err != nil {
				r.opts.Console.Error(consoleMessage(err))
			}
			r.printCommands()
		case req := <-r.requests:
			req.fn()
			close(req.done)
		case <-tick:
			timer.Reset(r.watchdogTick(ctx))
		}
	}
}

func (r *Runner) onHotkey(ctx context.Context, combo string) {
	switch combo {
	case ComboHelp:
		r.printHotkeys()
		return
	case ComboConsole:
		if !r.consoleMode {
			r.enterConsole()
		}
		return
	}
	hk, ok := r.bindings[combo]
	if !ok {
		r.log.WithField("combo", combo).Debug("unbound hotkey")
		return
	}
	// A binding without an option asks for one.
	r.execute(ctx, hk.Command, hk.Option, hk.Option == 0)
}

func (r *Runner) enterConsole() {
	r.consoleMode = true
	r.opts.Console.In.Drain()
	r.opts.Console.Success("Console commands are waiting for you!")
	r.printCommands()
}

// handleLine parses "<name> [option]" or "exit".
func (r *Runner) handleLine(ctx context.Context, line string) error {
	args := strings.Fields(line)
	if len(args) == 0 {
		return nil
	}
	if args[0] == command.ReservedExit {
		return r.opts.Restarter.Relaunch(true)
	}
	if len(args) > 2 {
		return ErrTooManyArgs
	}
	cmd, ok := r.byName[args[0]]
	if !ok {
		return fmt.Errorf("%s: %w", args[0], ErrCommandNotFound)
	}
	if len(args) == 1 {
		r.execute(ctx, cmd, 0, true)
		return nil
	}
	option, err := parseOption(args[1])
	if err != nil {
		return err
	}
	r.execute(ctx, cmd, option, false)
	return nil
}

func parseOption(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", s, ErrOptionNotNumber)
	}
	return n, nil
}

func (r *Runner) execute(ctx context.Context, cmd *command.Command, option int, ask bool) executor.Result {
	var res executor.Result
	if ask {
		res = r.exec.TryExecutePrompt(ctx, cmd)
	} else {
		res = r.exec.TryExecute(ctx, cmd, option)
	}
	r.stats.record(res)
	return res
}

func consoleMessage(err error) string {
	switch {
	case errors.Is(err, ErrCommandNotFound):
		return "Command not found"
	case errors.Is(err, ErrTooManyArgs):
		return "The command has extra arguments"
	case errors.Is(err, ErrOptionNotNumber):
		return "Option number must be a number"
	default:
		return err.Error()
	}
}

func (r *Runner) printHotkeys() {
	rows := make([][]string, 0, len(r.hotkeys)+2)
	for _, hk := range r.hotkeys {
		opt := ""
		if hk.Option != 0 {
			opt = fmt.Sprint(hk.Option)
		}
		rows = append(rows, []string{hk.Combo, hk.Command.Description, opt})
	}
	rows = append(rows,
		[]string{ComboHelp, "Print the hotkey list", ""},
		[]string{ComboConsole, "Switch to console mode", ""},
	)
	r.opts.Console.Table([]string{"Combo", "Description", "Option"}, rows)
	r.opts.Console.Println()
}

func (r *Runner) printCommands() {
	rows := make([][]string, 0, len(r.commands)+1)
	for _, c := range r.commands {
		rows = append(rows, []string{c.Name, c.Description})
	}
	rows = append(rows, []string{command.ReservedExit, "Go back to hotkey mode"})
	r.opts.Console.Table([]string{"Command", "Description"}, rows)
	r.opts.Console.Println()
}

// Do runs fn on the dispatcher goroutine and waits for it.
func (r *Runner) Do(ctx context.Context, fn func()) error {
	select {
	case <-r.running:
	default:
		return ErrStopped
	}
	req := request{fn: fn, done: make(chan struct{})}
	select {
	case r.requests <- req:
	case <-r.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-req.done:
		return nil
	case <-r.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Exec runs the command called name on the dispatcher. Commands with
// options need an explicit option here; the console is not asked.
func (r *Runner) Exec(ctx context.Context, name string, option int) (executor.Result, error) {
	var res executor.Result
	var execErr error
	err := r.Do(ctx, func() {
		cmd, ok := r.byName[name]
		if !ok {
			execErr = fmt.Errorf("%s: %w", name, ErrCommandNotFound)
			return
		}
		if cmd.HasOptions() && option == 0 {
			execErr = fmt.Errorf("command %s needs an option 1-%d", name, len(cmd.Options))
			return
		}
		res = r.execute(ctx, cmd, option, false)
	})
	if err != nil {
		return res, err
	}
	return res, execErr
}

// CommandInfo describes a reachable command.
type CommandInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Options     []string `json:"options,omitempty"`
	Hotkeys     []string `json:"hotkeys,omitempty"`
}

// Commands lists the commands reachable from the console.
func (r *Runner) Commands(ctx context.Context) ([]CommandInfo, error) {
	var out []CommandInfo
	err := r.Do(ctx, func() {
		for _, c := range r.commands {
			info := CommandInfo{Name: c.Name, Description: c.Description}
			for _, o := range c.Options {
				info.Options = append(info.Options, o.Label())
			}
			for _, hk := range r.hotkeys {
				if hk.Command == c {
					info.Hotkeys = append(info.Hotkeys, hk.Combo)
				}
			}
			out = append(out, info)
		}
	})
	return out, err
}

func fileName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
