//go:build !windows

package elevation

// IsElevated reports false outside Windows.
func IsElevated() bool { return false }

func relaunch(bool, func(int)) error { return ErrUnsupported }
