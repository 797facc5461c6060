// Package service starts and stops Windows services through the SCM.
package service

import (
	"context"
	"errors"
	"time"
)

// ErrUnsupported is returned where there is no service manager to talk to.
var ErrUnsupported = errors.New("service control is only available on Windows")

// State is the subset of service states commands wait for.
type State int

const (
	Unknown State = iota
	Stopped
	Running
	Pending
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	case Pending:
		return "pending"
	default:
		return "unknown"
	}
}

const (
	DefaultTimeout = 10 * time.Second
	pollInterval   = time.Second
)

// Controller is the SCM surface ChangeState drives.
type Controller interface {
	Query(name string) (State, error)
	Start(name string) error
	Stop(name string) error
}

// ChangeState moves the service to target and polls until it gets there.
// It returns false when the timeout expires first.
func ChangeState(ctx context.Context, c Controller, name string, target State, timeout time.Duration) (bool, error) {
	if target != Stopped && target != Running {
		return false, errors.New("target state must be stopped or running")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	state, err := c.Query(name)
	if err != nil {
		return false, err
	}
	if state == target {
		return true, nil
	}
	if target == Running {
		err = c.Start(name)
	} else {
		err = c.Stop(name)
	}
	if err != nil {
		return false, err
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(pollInterval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-deadline.C:
			return false, nil
		case <-tick.C:
			state, err := c.Query(name)
			if err != nil {
				return false, err
			}
			if state == target {
				return true, nil
			}
		}
	}
}

// Start starts name with the system controller.
func Start(ctx context.Context, name string, timeout time.Duration) (bool, error) {
	return ChangeState(ctx, System(), name, Running, timeout)
}

// Stop stops name with the system controller.
func Stop(ctx context.Context, name string, timeout time.Duration) (bool, error) {
	return ChangeState(ctx, System(), name, Stopped, timeout)
}

// Restart stops then starts name. It stops at the first step that times out.
func Restart(ctx context.Context, name string, timeout time.Duration) (bool, error) {
	ok, err := Stop(ctx, name, timeout)
	if err != nil || !ok {
		return ok, err
	}
	return Start(ctx, name, timeout)
}

// Query returns the current state of name.
func Query(name string) (State, error) {
	return System().Query(name)
}
