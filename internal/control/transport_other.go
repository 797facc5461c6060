//go:build !windows

package control

import (
	"errors"
	"net"
	"os"
	"time"

	"hotconsole/internal/config"
)

// Endpoint returns the address the daemon listens on.
func Endpoint(s *config.Settings) string { return s.Paths.SocketPath }

// Listen removes a stale socket and listens on endpoint.
func Listen(endpoint string) (net.Listener, error) {
	if err := os.Remove(endpoint); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return net.Listen("unix", endpoint)
}

func dial(endpoint string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("unix", endpoint, timeout)
}
