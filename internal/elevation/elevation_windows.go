//go:build windows

package elevation

import (
	"fmt"
	"os"

	"golang.org/x/sys/windows"
)

const swShowNormal = 1

// IsElevated reports whether the process token is elevated.
func IsElevated() bool {
	return windows.GetCurrentProcessToken().IsElevated()
}

func relaunch(force bool, exit func(int)) error {
	if IsElevated() && !force {
		return nil
	}
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	verb, err := windows.UTF16PtrFromString("runas")
	if err != nil {
		return err
	}
	file, err := windows.UTF16PtrFromString(exe)
	if err != nil {
		return err
	}
	params, err := windows.UTF16PtrFromString(JoinArgs(os.Args[1:]))
	if err != nil {
		return err
	}
	cwd, _ := os.Getwd()
	dir, err := windows.UTF16PtrFromString(cwd)
	if err != nil {
		return err
	}
	if err := windows.ShellExecute(0, verb, file, params, dir, swShowNormal); err != nil {
		return fmt.Errorf("ShellExecute runas: %w", err)
	}
	if exit == nil {
		exit = os.Exit
	}
	exit(1)
	return nil
}
