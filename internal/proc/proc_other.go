//go:build !windows

package proc

// System returns a lister that fails with ErrUnsupported.
func System() Lister { return ListerFunc(List) }

func List() ([]Process, error) { return nil, ErrUnsupported }

func Kill(uint32) error { return ErrUnsupported }
