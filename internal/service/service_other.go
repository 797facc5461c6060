//go:build !windows

package service

type unsupported struct{}

// System returns a controller that fails with ErrUnsupported.
func System() Controller { return unsupported{} }

func (unsupported) Query(string) (State, error) { return Unknown, ErrUnsupported }
func (unsupported) Start(string) error          { return ErrUnsupported }
func (unsupported) Stop(string) error           { return ErrUnsupported }
