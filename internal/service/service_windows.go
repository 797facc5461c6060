//go:build windows

package service

import (
	"fmt"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"
)

type scm struct{}

// System returns the controller backed by the Windows SCM.
func System() Controller { return scm{} }

func (scm) open(name string) (*mgr.Mgr, *mgr.Service, error) {
	m, err := mgr.Connect()
	if err != nil {
		return nil, nil, fmt.Errorf("connect to SCM: %w", err)
	}
	s, err := m.OpenService(name)
	if err != nil {
		m.Disconnect()
		return nil, nil, fmt.Errorf("open service %s: %w", name, err)
	}
	return m, s, nil
}

func (c scm) Query(name string) (State, error) {
	m, s, err := c.open(name)
	if err != nil {
		return Unknown, err
	}
	defer m.Disconnect()
	defer s.Close()

	st, err := s.Query()
	if err != nil {
		return Unknown, fmt.Errorf("query service %s: %w", name, err)
	}
	switch st.State {
	case svc.Stopped:
		return Stopped, nil
	case svc.Running:
		return Running, nil
	default:
		return Pending, nil
	}
}

func (c scm) Start(name string) error {
	m, s, err := c.open(name)
	if err != nil {
		return err
	}
	defer m.Disconnect()
	defer s.Close()

	if err := s.Start(); err != nil && err != windows.ERROR_SERVICE_ALREADY_RUNNING {
		return fmt.Errorf("start service %s: %w", name, err)
	}
	return nil
}

func (c scm) Stop(name string) error {
	m, s, err := c.open(name)
	if err != nil {
		return err
	}
	defer m.Disconnect()
	defer s.Close()

	if _, err := s.Control(svc.Stop); err != nil && err != windows.ERROR_SERVICE_NOT_ACTIVE {
		return fmt.Errorf("stop service %s: %w", name, err)
	}
	return nil
}
