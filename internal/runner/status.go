package runner

import (
	"context"
	"time"

	"hotconsole/internal/executor"
)

// Execution is a finished command as shown by status.
type Execution struct {
	Command  string        `json:"command"`
	Option   int           `json:"option,omitempty"`
	Outcome  string        `json:"outcome"`
	Category string        `json:"category,omitempty"`
	Message  string        `json:"message,omitempty"`
	Error    string        `json:"error,omitempty"`
	At       time.Time     `json:"at"`
	Duration time.Duration `json:"duration"`
}

// Status is a snapshot of the dispatcher.
type Status struct {
	StartedAt   time.Time   `json:"started_at"`
	ConsoleMode bool        `json:"console_mode"`
	Watchdog    string      `json:"watchdog"`
	Hotkeys     int         `json:"hotkeys"`
	Commands    int         `json:"commands"`
	Executed    int         `json:"executed"`
	Succeeded   int         `json:"succeeded"`
	Declined    int         `json:"declined"`
	Failed      int         `json:"failed"`
	Recent      []Execution `json:"recent,omitempty"`
}

type stats struct {
	started   time.Time
	executed  int
	succeeded int
	declined  int
	failed    int
	recent    []Execution
	limit     int
}

func newStats(limit int) stats {
	return stats{started: time.Now(), limit: limit}
}

func (s *stats) record(res executor.Result) {
	s.executed++
	switch res.Outcome {
	case executor.OutcomeSucceeded:
		s.succeeded++
	case executor.OutcomeDeclined:
		s.declined++
	case executor.OutcomeFailed:
		s.failed++
	}
	e := Execution{
		Command:  res.Command,
		Option:   res.Option,
		Outcome:  string(res.Outcome),
		Category: string(res.Category),
		Message:  res.Message,
		At:       res.Started,
		Duration: res.Duration,
	}
	if res.Err != nil {
		e.Error = res.Err.Error()
	}
	s.recent = append(s.recent, e)
	if len(s.recent) > s.limit {
		s.recent = s.recent[len(s.recent)-s.limit:]
	}
}

// Status returns counters and the most recent executions, newest last.
func (r *Runner) Status(ctx context.Context) (Status, error) {
	var st Status
	err := r.Do(ctx, func() {
		st = Status{
			StartedAt:   r.stats.started,
			ConsoleMode: r.consoleMode,
			Watchdog:    r.watchdogLabel(),
			Hotkeys:     len(r.hotkeys),
			Commands:    len(r.commands),
			Executed:    r.stats.executed,
			Succeeded:   r.stats.succeeded,
			Declined:    r.stats.declined,
			Failed:      r.stats.failed,
			Recent:      append([]Execution(nil), r.stats.recent...),
		}
	})
	return st, err
}

func (r *Runner) watchdogLabel() string {
	if !r.watching {
		return "off"
	}
	return r.watchdog.state.String()
}
