// Package executor runs a single command with its preconditions and turns
// every failure into a printed, logged result.
package executor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"hotconsole/internal/command"
	"hotconsole/internal/config"
	"hotconsole/internal/console"
	"hotconsole/internal/logging"

	"github.com/sirupsen/logrus"
)

// ActualizeFunc refreshes derived data before every command. It receives the
// freshly loaded document.
type ActualizeFunc func(ctx context.Context, doc *config.Document) error

// ModifierReleaser lifts modifier keys still held from the hotkey press.
type ModifierReleaser interface {
	ReleaseModifiers()
}

// Outcome of one execution.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeDeclined  Outcome = "declined"
	OutcomeFailed    Outcome = "failed"
)

// Result describes one execution.
type Result struct {
	Command  string
	Option   int
	Outcome  Outcome
	Category Category
	Message  string
	Err      error
	Started  time.Time
	Duration time.Duration
}

// PanicError carries a recovered panic and the stack it was raised on.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

// Executor runs commands sequentially. It is not safe for concurrent use.
type Executor struct {
	store     *config.Store
	console   *console.Console
	keys      ModifierReleaser
	actualize ActualizeFunc
	logger    logrus.FieldLogger
}

// New builds an executor. keys may be nil.
func New(store *config.Store, con *console.Console, keys ModifierReleaser, logger logrus.FieldLogger) *Executor {
	return &Executor{
		store:   store,
		console: con,
		keys:    keys,
		logger:  logging.Component(logger, "executor"),
	}
}

// SetActualize installs the per-command refresh hook. nil disables it.
func (e *Executor) SetActualize(fn ActualizeFunc) { e.actualize = fn }

// TryExecute runs cmd with a given option. When cmd has options, option
// must lie in [1, len(Options)]; anything else fails with a
// *console.ValidationError. It never panics and never returns an error; the
// Result says what happened.
func (e *Executor) TryExecute(ctx context.Context, cmd *command.Command, option int) Result {
	return e.execute(ctx, cmd, option, false)
}

// TryExecutePrompt runs cmd and asks for the option on the console when cmd
// has options.
func (e *Executor) TryExecutePrompt(ctx context.Context, cmd *command.Command) Result {
	return e.execute(ctx, cmd, 0, true)
}

func (e *Executor) execute(ctx context.Context, cmd *command.Command, option int, ask bool) (res Result) {
	res = Result{Command: cmd.Name, Option: option, Started: time.Now()}
	e.release()
	defer e.release()
	defer func() {
		if r := recover(); r != nil {
			res.fail(&PanicError{Value: r, Stack: debug.Stack()})
		}
		res.Duration = time.Since(res.Started)
		e.report(cmd, &res)
	}()

	chosen, err := e.prepare(ctx, cmd, option, ask)
	if err != nil {
		res.fail(err)
		return res
	}
	res.Option = chosen

	msg, err := cmd.Run(ctx, chosen)
	switch {
	case err != nil:
		res.fail(err)
	case msg != "":
		res.Outcome = OutcomeDeclined
		res.Message = msg
	default:
		res.Outcome = OutcomeSucceeded
	}
	return res
}

func (e *Executor) prepare(ctx context.Context, cmd *command.Command, option int, ask bool) (int, error) {
	doc, err := e.store.Load()
	if err != nil {
		return 0, err
	}
	if e.actualize != nil {
		if err := e.actualize(ctx, doc); err != nil {
			return 0, fmt.Errorf("actualize: %w", err)
		}
	}
	if !cmd.HasOptions() {
		return option, nil
	}
	if ask {
		return e.console.AskOption(ctx, cmd.Options, cmd.Prompt())
	}
	if err := console.CheckRange(option, len(cmd.Options)); err != nil {
		return 0, err
	}
	return option, nil
}

func (r *Result) fail(err error) {
	r.Outcome = OutcomeFailed
	r.Err = err
	r.Category = Classify(err)
}

func (e *Executor) report(cmd *command.Command, res *Result) {
	fields := logrus.Fields{
		"command":  res.Command,
		"option":   res.Option,
		"outcome":  res.Outcome,
		"duration": res.Duration.Round(time.Millisecond).String(),
	}
	switch res.Outcome {
	case OutcomeSucceeded:
		e.logger.WithFields(fields).Info("command succeeded")
		e.console.Success("")
	case OutcomeDeclined:
		e.logger.WithFields(fields).WithField("message", res.Message).Info("command declined")
		e.console.Printf("\n%s\n", res.Message)
		e.console.Error("")
	default:
		fields["category"] = res.Category
		e.logger.WithFields(fields).WithError(res.Err).Error("command failed")
		e.printDiagnostics(res.Err)
		e.console.Printf("Failed to %s\n", lowerFirst(cmd.Description))
		e.console.Error(res.Category.Message())
	}
}

func (e *Executor) printDiagnostics(err error) {
	var pe *PanicError
	if errors.As(err, &pe) {
		e.console.Printf("%v\n\n%s\n", pe.Value, pe.Stack)
		return
	}
	// Go errors carry no stack; the typed wrap chain is the trace.
	e.console.Printf("error (%T): %v\n", err, err)
	for inner := errors.Unwrap(err); inner != nil; inner = errors.Unwrap(inner) {
		e.console.Printf("  caused by (%T): %v\n", inner, inner)
	}
}

func (e *Executor) release() {
	if e.keys != nil {
		e.keys.ReleaseModifiers()
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return "run the command"
	}
	return strings.ToLower(s[:1]) + s[1:]
}
