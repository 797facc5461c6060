//go:build windows

package window

import (
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	kernel32                = windows.NewLazySystemDLL("kernel32.dll")
	procFindWindowW         = user32.NewProc("FindWindowW")
	procShowWindow          = user32.NewProc("ShowWindow")
	procSetForegroundWindow = user32.NewProc("SetForegroundWindow")
	procGetForegroundWindow = user32.NewProc("GetForegroundWindow")
	procIsIconic            = user32.NewProc("IsIconic")
	procPostMessageW        = user32.NewProc("PostMessageW")
	procLoadKeyboardLayoutW = user32.NewProc("LoadKeyboardLayoutW")
	procKeybdEvent          = user32.NewProc("keybd_event")
	procSetConsoleTitleW    = kernel32.NewProc("SetConsoleTitleW")
	procGetConsoleTitleW    = kernel32.NewProc("GetConsoleTitleW")
)

const (
	swRestore      = 9
	wmClose        = 0x0010
	klfActivate    = 0x00000001
	vkMenu         = 0x12
	vkTab          = 0x09
	keyeventfKeyUp = 0x0002
	englishUS      = "00000409"
	switchSettle   = 500 * time.Millisecond
)

// SetTitle sets the console window title.
func SetTitle(title string) error {
	p, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return err
	}
	if r, _, err := procSetConsoleTitleW.Call(uintptr(unsafe.Pointer(p))); r == 0 {
		return fmt.Errorf("SetConsoleTitle: %w", err)
	}
	return nil
}

// Title returns the console window title.
func Title() (string, error) {
	buf := make([]uint16, 256)
	r, _, err := procGetConsoleTitleW.Call(uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if r == 0 {
		return "", fmt.Errorf("GetConsoleTitle: %w", err)
	}
	return windows.UTF16ToString(buf), nil
}

func find(title string) (uintptr, error) {
	p, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return 0, err
	}
	hwnd, _, _ := procFindWindowW.Call(0, uintptr(unsafe.Pointer(p)))
	if hwnd == 0 {
		return 0, fmt.Errorf("%q: %w", title, ErrNotFound)
	}
	return hwnd, nil
}

// SwitchTo restores and focuses the window called title. When that fails it
// falls back to alt+tab.
func SwitchTo(title string) error {
	defer time.Sleep(switchSettle)
	hwnd, err := find(title)
	if err != nil {
		altTab()
		return err
	}
	if iconic, _, _ := procIsIconic.Call(hwnd); iconic != 0 {
		procShowWindow.Call(hwnd, swRestore)
	}
	if r, _, _ := procSetForegroundWindow.Call(hwnd); r == 0 {
		altTab()
	}
	return nil
}

// IsForeground reports whether title is the foreground window.
func IsForeground(title string) bool {
	hwnd, err := find(title)
	if err != nil {
		return false
	}
	fg, _, _ := procGetForegroundWindow.Call()
	return fg == hwnd
}

// Close asks the window called title to close.
func Close(title string) error {
	hwnd, err := find(title)
	if err != nil {
		return err
	}
	procPostMessageW.Call(hwnd, wmClose, 0, 0)
	return nil
}

// SetEnglishLayout activates the US layout so combos map to Latin keys.
func SetEnglishLayout() error {
	p, _ := windows.UTF16PtrFromString(englishUS)
	if r, _, err := procLoadKeyboardLayoutW.Call(uintptr(unsafe.Pointer(p)), klfActivate); r == 0 {
		return fmt.Errorf("LoadKeyboardLayout: %w", err)
	}
	return nil
}

func altTab() {
	procKeybdEvent.Call(vkMenu, 0, 0, 0)
	procKeybdEvent.Call(vkTab, 0, 0, 0)
	procKeybdEvent.Call(vkTab, 0, keyeventfKeyUp, 0)
	procKeybdEvent.Call(vkMenu, 0, keyeventfKeyUp, 0)
}
