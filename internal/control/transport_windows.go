//go:build windows

package control

import (
	"net"
	"time"

	"hotconsole/internal/config"

	"github.com/Microsoft/go-winio"
)

// PipeName is the control endpoint on Windows.
const PipeName = `\\.\pipe\hotconsole`

// Current user, SYSTEM and administrators.
const pipeSecurity = "D:P(A;;GA;;;OW)(A;;GA;;;SY)(A;;GA;;;BA)"

// Endpoint returns the address the daemon listens on.
func Endpoint(*config.Settings) string { return PipeName }

// Listen opens the named pipe.
func Listen(endpoint string) (net.Listener, error) {
	return winio.ListenPipe(endpoint, &winio.PipeConfig{SecurityDescriptor: pipeSecurity})
}

func dial(endpoint string, timeout time.Duration) (net.Conn, error) {
	return winio.DialPipe(endpoint, &timeout)
}
