// Package window manipulates top-level windows by title.
package window

import "errors"

// ErrUnsupported is returned where there are no Win32 windows.
var ErrUnsupported = errors.New("window helpers are only available on Windows")

// ErrNotFound is returned when no window has the requested title.
var ErrNotFound = errors.New("window not found")
