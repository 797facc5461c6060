package runner

import (
	"context"
	"time"
)

type watchState int

const (
	watchIdle watchState = iota
	watchLocked
)

func (s watchState) String() string {
	if s == watchLocked {
		return "locked"
	}
	return "idle"
}

type watchdog struct {
	state watchState
}

// watchdogTick polls the lock detector and returns the delay until the next
// poll. Leaving the locked state relaunches the process. A failed poll
// keeps the current state.
func (r *Runner) watchdogTick(ctx context.Context) time.Duration {
	locked, err := r.opts.Detector.Locked(ctx)
	if err != nil {
		r.log.WithError(err).WithField("state", r.watchdog.state).Warn("lock detection failed")
		if r.watchdog.state == watchLocked {
			return r.opts.LockedInterval
		}
		return r.opts.IdleInterval
	}
	switch r.watchdog.state {
	case watchIdle:
		if locked {
			r.log.Info("session locked")
			r.watchdog.state = watchLocked
			return r.opts.LockedInterval
		}
		return r.opts.IdleInterval
	default:
		if locked {
			return r.opts.LockedInterval
		}
		r.log.Info("session unlocked, relaunching")
		r.opts.Console.Printf("Restarting after lock...\n")
		r.watchdog.state = watchIdle
		if err := r.opts.Restarter.Relaunch(true); err != nil {
			r.log.WithError(err).Warn("relaunch after lock")
		}
		return r.opts.IdleInterval
	}
}
