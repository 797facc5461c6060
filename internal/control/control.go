// Package control is the local request channel between the running
// dispatcher and the CLI.
package control

import (
	"time"

	"hotconsole/internal/executor"
	"hotconsole/internal/runner"
)

// Ops understood by the server.
const (
	OpStatus = "status"
	OpHealth = "health"
	OpList   = "list"
	OpExec   = "exec"
)

// Request is one line of JSON sent by a client.
type Request struct {
	Op     string `json:"op"`
	Name   string `json:"name,omitempty"`
	Option int    `json:"option,omitempty"`
}

// Response is the single line of JSON written back.
type Response struct {
	OK       bool                 `json:"ok"`
	Message  string               `json:"message,omitempty"`
	Error    string               `json:"error,omitempty"`
	Status   *runner.Status       `json:"status,omitempty"`
	Commands []runner.CommandInfo `json:"commands,omitempty"`
	Result   *ExecResult          `json:"result,omitempty"`
}

// ExecResult reports an exec request.
type ExecResult struct {
	Command  string        `json:"command"`
	Option   int           `json:"option,omitempty"`
	Outcome  string        `json:"outcome"`
	Category string        `json:"category,omitempty"`
	Message  string        `json:"message,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

func newExecResult(res executor.Result) *ExecResult {
	out := &ExecResult{
		Command:  res.Command,
		Option:   res.Option,
		Outcome:  string(res.Outcome),
		Category: string(res.Category),
		Message:  res.Message,
		Duration: res.Duration,
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}
