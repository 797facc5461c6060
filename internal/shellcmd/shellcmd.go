// Package shellcmd runs external programs declared as commands.
package shellcmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"hotconsole/internal/logging"

	"github.com/google/shlex"
	"github.com/sirupsen/logrus"
)

// Spec describes one program invocation.
type Spec struct {
	Command string
	Args    []string
	Dir     string
	Env     map[string]string
	Timeout time.Duration
}

// Choice is the option picked for this run. Index is 0 when none.
type Choice struct {
	Index int
	Key   string
	Label string
}

// Runner executes specs and streams their output.
type Runner struct {
	Out      io.Writer
	logger   logrus.FieldLogger
	hostname string
}

func NewRunner(out io.Writer, logger logrus.FieldLogger) *Runner {
	host, _ := os.Hostname()
	return &Runner{
		Out:      out,
		logger:   logging.Component(logger, "shellcmd"),
		hostname: host,
	}
}

// Run executes spec. A non-zero exit becomes a user-facing message; failures
// to start the program are returned as errors.
func (r *Runner) Run(ctx context.Context, spec Spec, choice Choice) (string, error) {
	if strings.TrimSpace(spec.Command) == "" {
		return "", errors.New("no command configured")
	}
	vars := r.vars(choice)
	args := make([]string, len(spec.Args))
	for i, a := range spec.Args {
		args[i] = Expand(a, vars)
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if spec.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(runCtx, Expand(spec.Command, vars), args...)
	cmd.Dir = spec.Dir
	cmd.Env = os.Environ()
	for k, v := range spec.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, Expand(v, vars)))
	}
	cmd.Env = append(cmd.Env,
		fmt.Sprintf("HOTCONSOLE_OPTION=%d", choice.Index),
		fmt.Sprintf("HOTCONSOLE_OPTION_KEY=%s", choice.Key),
		fmt.Sprintf("HOTCONSOLE_OPTION_LABEL=%s", choice.Label),
	)

	var buf bytes.Buffer
	if r.Out != nil {
		cmd.Stdout = io.MultiWriter(r.Out, &buf)
	} else {
		cmd.Stdout = &buf
	}
	cmd.Stderr = cmd.Stdout

	err := cmd.Run()
	if out := strings.TrimSpace(buf.String()); out != "" {
		r.logger.Debugf("command output: %s", out)
	}
	if err == nil {
		return "", nil
	}
	if runCtx.Err() == context.DeadlineExceeded {
		return fmt.Sprintf("%s timed out after %s", spec.Command, spec.Timeout), nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Sprintf("%s exited with status %d", spec.Command, exitErr.ExitCode()), nil
	}
	return "", fmt.Errorf("run %s: %w", spec.Command, err)
}

func (r *Runner) vars(choice Choice) map[string]string {
	return map[string]string{
		"option":       strconv.Itoa(choice.Index),
		"option_key":   choice.Key,
		"option_label": choice.Label,
		"hostname":     r.hostname,
	}
}

var placeholderRE = regexp.MustCompile(`\$\{(\w+)\}`)

// Expand replaces ${name} placeholders. Unknown names are left as they are.
func Expand(s string, vars map[string]string) string {
	return placeholderRE.ReplaceAllStringFunc(s, func(m string) string {
		if v, ok := vars[m[2:len(m)-1]]; ok {
			return v
		}
		return m
	})
}

// ParseArgs splits a command line with shell quoting rules.
func ParseArgs(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return []string{}, nil
	}
	return shlex.Split(raw)
}
