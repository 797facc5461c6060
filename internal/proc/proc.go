// Package proc lists and kills processes by executable name.
package proc

import (
	"context"
	"errors"
	"strings"
)

// ErrUnsupported is returned where process enumeration is not implemented.
var ErrUnsupported = errors.New("process helpers are only available on Windows")

// Process is one entry of the process table.
type Process struct {
	PID  uint32
	Name string
}

// Lister enumerates running processes.
type Lister interface {
	List() ([]Process, error)
}

// ListerFunc adapts a function to Lister.
type ListerFunc func() ([]Process, error)

func (f ListerFunc) List() ([]Process, error) { return f() }

// Find returns the processes whose executable name matches name, ignoring
// case.
func Find(l Lister, name string) ([]Process, error) {
	all, err := l.List()
	if err != nil {
		return nil, err
	}
	var out []Process
	for _, p := range all {
		if strings.EqualFold(p.Name, name) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Running reports whether a process called name exists.
func Running(name string) (bool, error) {
	ps, err := Find(System(), name)
	return len(ps) > 0, err
}

// KillByName terminates every process called name. It reports whether any
// was found.
func KillByName(name string) (bool, error) {
	ps, err := Find(System(), name)
	if err != nil {
		return false, err
	}
	var errs []error
	for _, p := range ps {
		if err := Kill(p.PID); err != nil {
			errs = append(errs, err)
		}
	}
	return len(ps) > 0, errors.Join(errs...)
}

// LockDetector reports a locked session by the presence of the lock screen
// process.
type LockDetector struct {
	Process string
	Lister  Lister
}

// Locked reports whether the lock screen process is running.
func (d LockDetector) Locked(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	l := d.Lister
	if l == nil {
		l = System()
	}
	ps, err := Find(l, d.Process)
	return len(ps) > 0, err
}
