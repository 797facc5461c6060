// Package elevation relaunches the current process with administrator
// rights.
package elevation

import (
	"errors"
	"strings"
)

// ErrUnsupported is returned where there is no UAC elevation.
var ErrUnsupported = errors.New("elevation is only available on Windows")

// Relauncher restarts the process. The runner uses it after a config
// rewrite and after a screen lock.
type Relauncher interface {
	Relaunch(force bool) error
}

// Process relaunches the running executable with its original arguments.
type Process struct {
	// Exit ends the current process once the new one is started.
	Exit func(code int)
}

// Relaunch starts an elevated copy and exits with status 1. Without force
// it does nothing when already elevated.
func (p Process) Relaunch(force bool) error {
	return relaunch(force, p.Exit)
}

// JoinArgs quotes args for a command line.
func JoinArgs(args []string) string {
	out := make([]string, len(args))
	for i, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\"") {
			a = `"` + strings.ReplaceAll(a, `"`, `\"`) + `"`
		}
		out[i] = a
	}
	return strings.Join(out, " ")
}
