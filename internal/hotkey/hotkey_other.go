//go:build !windows

package hotkey

// New reports ErrUnsupported outside Windows.
func New() (Facility, error) {
	return nil, ErrUnsupported
}
