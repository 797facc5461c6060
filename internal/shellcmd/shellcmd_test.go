package shellcmd

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strings"
	"testing"
	"time"

	"hotconsole/internal/logging"
)

func skipOnWindows(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX shell")
	}
}

func TestRunExpandsPlaceholdersAndEnv(t *testing.T) {
	skipOnWindows(t)
	var out bytes.Buffer
	r := NewRunner(&out, logging.NewTestLogger())
	msg, err := r.Run(context.Background(), Spec{
		Command: "/bin/sh",
		Args:    []string{"-c", `echo "arg=${option_key} env=$HOTCONSOLE_OPTION label=$LABEL"`},
		Env:     map[string]string{"LABEL": "${option_label}"},
	}, Choice{Index: 2, Key: "start", Label: "Start"})
	if err != nil || msg != "" {
		t.Fatalf("run = %q, %v", msg, err)
	}
	if got := strings.TrimSpace(out.String()); got != "arg=start env=2 label=Start" {
		t.Fatalf("output = %q", got)
	}
}

func TestRunNonZeroExitIsMessage(t *testing.T) {
	skipOnWindows(t)
	r := NewRunner(nil, logging.NewTestLogger())
	msg, err := r.Run(context.Background(), Spec{Command: "/bin/sh", Args: []string{"-c", "exit 3"}}, Choice{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(msg, "status 3") {
		t.Fatalf("message = %q", msg)
	}
}

func TestRunTimeout(t *testing.T) {
	skipOnWindows(t)
	r := NewRunner(nil, logging.NewTestLogger())
	msg, err := r.Run(context.Background(), Spec{Command: "/bin/sh", Args: []string{"-c", "sleep 5"}, Timeout: 100 * time.Millisecond}, Choice{})
	if err != nil || !strings.Contains(msg, "timed out") {
		t.Fatalf("run = %q, %v", msg, err)
	}
}

func TestRunMissingProgram(t *testing.T) {
	r := NewRunner(nil, logging.NewTestLogger())
	_, err := r.Run(context.Background(), Spec{Command: "definitely-not-a-real-program-xyz"}, Choice{})
	if !errors.Is(err, exec.ErrNotFound) {
		t.Fatalf("expected exec.ErrNotFound, got %v", err)
	}
}

func TestExpand(t *testing.T) {
	vars := map[string]string{"option": "1"}
	if got := Expand("n=${option} x=${other} $HOME", vars); got != "n=1 x=${other} $HOME" {
		t.Fatalf("expand = %q", got)
	}
}

func TestParseArgs(t *testing.T) {
	args, err := ParseArgs(`-c "echo hi" 'single quoted'`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(args) != 3 || args[1] != "echo hi" || args[2] != "single quoted" {
		t.Fatalf("args = %#v", args)
	}
	if args, _ := ParseArgs("   "); len(args) != 0 {
		t.Fatalf("blank should be empty")
	}
}
