//go:build windows

package hotkey

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"unicode/utf16"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                = windows.NewLazySystemDLL("user32.dll")
	procRegisterHotKey    = user32.NewProc("RegisterHotKey")
	procUnregisterHotKey  = user32.NewProc("UnregisterHotKey")
	procGetMessageW       = user32.NewProc("GetMessageW")
	procPeekMessageW      = user32.NewProc("PeekMessageW")
	procPostThreadMessage = user32.NewProc("PostThreadMessageW")
	procSetWindowsHookEx  = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHook = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx    = user32.NewProc("CallNextHookEx")
	procSendInput         = user32.NewProc("SendInput")
	procGetAsyncKeyState  = user32.NewProc("GetAsyncKeyState")
)

const (
	wmQuit       = 0x0012
	wmHotkey     = 0x0312
	wmKeyDown    = 0x0100
	wmSysKeyDown = 0x0104
	wmUser       = 0x0400
	wmRequest    = wmUser + 1
	wmExpand     = wmUser + 2
	pmNoRemove   = 0x0000
	modNoRepeat  = 0x4000
	whKeyboardLL = 13

	llkhfInjected = 0x10

	inputKeyboard     = 1
	keyeventfKeyUp    = 0x0002
	keyeventfUnicode  = 0x0004
	vkBack            = 0x08
	vkShift           = 0x10
	vkSpace           = 0x20
	vkLShift          = 0xA0
	vkRShift          = 0xA1
	vkLControl        = 0xA2
	vkRControl        = 0xA3
	vkLMenu           = 0xA4
	vkRMenu           = 0xA5
	vkLWin            = 0x5B
	vkRWin            = 0x5C
	maxTypedRunes     = 64
	eventsBufferDepth = 32
)

type point struct{ x, y int32 }

type winMsg struct {
	hwnd    uintptr
	message uint32
	wParam  uintptr
	lParam  uintptr
	time    uint32
	pt      point
	private uint32
}

type kbdLLHookStruct struct {
	vkCode      uint32
	scanCode    uint32
	flags       uint32
	time        uint32
	dwExtraInfo uintptr
}

type keybdInput struct {
	wVk         uint16
	wScan       uint16
	dwFlags     uint32
	time        uint32
	dwExtraInfo uintptr
}

// input mirrors INPUT with the keyboard arm of the union. The padding
// covers the larger MOUSEINPUT arm.
type input struct {
	typ uint32
	ki  keybdInput
	_   [8]byte
}

type request struct {
	fn    func() error
	reply chan error
}

type facility struct {
	tid    uint32
	reqs   chan request
	events chan string
	done   chan struct{}
	once   sync.Once

	// owned by the message loop thread
	ids     map[uintptr]string
	byCombo map[string]uintptr
	nextID  uintptr
	abbrevs map[string]string
	hook    uintptr
	typed   []rune
	expand  []string
}

var (
	hookOnce     sync.Once
	hookCallback uintptr
	// activeHook is read and written only on the message loop thread.
	activeHook *facility
)

// New starts the message loop thread.
func New() (Facility, error) {
	f := &facility{
		reqs:    make(chan request, 8),
		events:  make(chan string, eventsBufferDepth),
		done:    make(chan struct{}),
		ids:     map[uintptr]string{},
		byCombo: map[string]uintptr{},
		nextID:  1,
		abbrevs: map[string]string{},
	}
	ready := make(chan error, 1)
	go f.loop(ready)
	if err := <-ready; err != nil {
		return nil, err
	}
	return f, nil
}

func (f *facility) loop(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(f.done)

	f.tid = windows.GetCurrentThreadId()
	var m winMsg
	// Forces the thread message queue into existence before anyone posts.
	procPeekMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, wmUser, wmUser, pmNoRemove)
	ready <- nil

	for {
		r, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if int32(r) <= 0 {
			f.teardown()
			return
		}
		switch m.message {
		case wmHotkey:
			if combo, ok := f.ids[m.wParam]; ok {
				select {
				case f.events <- combo:
				default:
				}
			}
		case wmRequest:
			f.serveRequests()
		case wmExpand:
			f.typePending()
		}
	}
}

func (f *facility) serveRequests() {
	for {
		select {
		case req := <-f.reqs:
			req.reply <- req.fn()
		default:
			return
		}
	}
}

// call runs fn on the message loop thread.
func (f *facility) call(fn func() error) error {
	reply := make(chan error, 1)
	select {
	case <-f.done:
		return errors.New("hotkey facility closed")
	case f.reqs <- request{fn: fn, reply: reply}:
	}
	if r, _, err := procPostThreadMessage.Call(uintptr(f.tid), wmRequest, 0, 0); r == 0 {
		return fmt.Errorf("post to hotkey thread: %w", err)
	}
	select {
	case err := <-reply:
		return err
	case <-f.done:
		return errors.New("hotkey facility closed")
	}
}

func (f *facility) Register(combo string) error {
	c, err := ParseCombo(combo)
	if err != nil {
		return err
	}
	name := c.String()
	return f.call(func() error {
		if _, ok := f.byCombo[name]; ok {
			return fmt.Errorf("hotkey %s already registered", name)
		}
		id := f.nextID
		r, _, err := procRegisterHotKey.Call(0, id, uintptr(c.Mods|modNoRepeat), uintptr(c.VK))
		if r == 0 {
			return fmt.Errorf("register hotkey %s: %w", name, err)
		}
		f.nextID++
		f.ids[id] = name
		f.byCombo[name] = id
		return nil
	})
}

func (f *facility) AddAbbreviation(abbr, text string) error {
	if abbr == "" {
		return errors.New("abbreviation is empty")
	}
	return f.call(func() error {
		if f.hook == 0 {
			hookOnce.Do(func() { hookCallback = windows.NewCallback(keyboardProc) })
			h, _, err := procSetWindowsHookEx.Call(whKeyboardLL, hookCallback, 0, 0)
			if h == 0 {
				return fmt.Errorf("install keyboard hook: %w", err)
			}
			f.hook = h
			activeHook = f
		}
		f.abbrevs[abbr] = text
		return nil
	})
}

func (f *facility) Events() <-chan string { return f.events }

// ReleaseModifiers sends key-up for every modifier still held down.
func (f *facility) ReleaseModifiers() {
	var inputs []input
	for _, vk := range []uint16{vkLShift, vkRShift, vkLControl, vkRControl, vkLMenu, vkRMenu, vkLWin, vkRWin} {
		state, _, _ := procGetAsyncKeyState.Call(uintptr(vk))
		if state&0x8000 != 0 {
			inputs = append(inputs, input{typ: inputKeyboard, ki: keybdInput{wVk: vk, dwFlags: keyeventfKeyUp}})
		}
	}
	sendInputs(inputs)
}

func (f *facility) Close() error {
	var err error
	f.once.Do(func() {
		select {
		case <-f.done:
			return
		default:
		}
		if r, _, perr := procPostThreadMessage.Call(uintptr(f.tid), wmQuit, 0, 0); r == 0 {
			err = fmt.Errorf("stop hotkey thread: %w", perr)
			return
		}
		<-f.done
	})
	return err
}

func (f *facility) teardown() {
	for id := range f.ids {
		procUnregisterHotKey.Call(0, id)
	}
	if f.hook != 0 {
		procUnhookWindowsHook.Call(f.hook)
		f.hook = 0
		if activeHook == f {
			activeHook = nil
		}
	}
	close(f.events)
}

func keyboardProc(code int, wParam uintptr, lParam uintptr) uintptr {
	if code >= 0 && activeHook != nil && (wParam == wmKeyDown || wParam == wmSysKeyDown) {
		ev := (*kbdLLHookStruct)(unsafe.Pointer(lParam))
		if ev.flags&llkhfInjected == 0 && activeHook.onKey(ev.vkCode) {
			return 1
		}
	}
	r, _, _ := procCallNextHookEx.Call(0, uintptr(code), wParam, lParam)
	return r
}

// onKey tracks the word being typed. It returns true to swallow the key.
func (f *facility) onKey(vk uint32) bool {
	switch {
	case vk == vkSpace:
		word := string(f.typed)
		f.typed = f.typed[:0]
		if text, ok := f.abbrevs[word]; ok && word != "" {
			f.expand = append(f.expand, word, text)
			procPostThreadMessage.Call(uintptr(f.tid), wmExpand, 0, 0)
			return true
		}
	case vk == vkBack:
		if n := len(f.typed); n > 0 {
			f.typed = f.typed[:n-1]
		}
	case vk >= 'A' && vk <= 'Z':
		r := rune(vk - 'A' + 'a')
		if shiftDown() {
			r = rune(vk)
		}
		f.push(r)
	case vk >= '0' && vk <= '9':
		f.push(rune(vk))
	case vk == vkShift || (vk >= vkLShift && vk <= vkRShift):
	default:
		f.typed = f.typed[:0]
	}
	return false
}

func (f *facility) push(r rune) {
	if len(f.typed) >= maxTypedRunes {
		f.typed = f.typed[1:]
	}
	f.typed = append(f.typed, r)
}

// typePending erases each matched abbreviation and types its expansion.
func (f *facility) typePending() {
	for len(f.expand) >= 2 {
		word, text := f.expand[0], f.expand[1]
		f.expand = f.expand[2:]

		var inputs []input
		for range []rune(word) {
			inputs = append(inputs,
				input{typ: inputKeyboard, ki: keybdInput{wVk: vkBack}},
				input{typ: inputKeyboard, ki: keybdInput{wVk: vkBack, dwFlags: keyeventfKeyUp}},
			)
		}
		for _, u := range utf16.Encode([]rune(text)) {
			inputs = append(inputs,
				input{typ: inputKeyboard, ki: keybdInput{wScan: u, dwFlags: keyeventfUnicode}},
				input{typ: inputKeyboard, ki: keybdInput{wScan: u, dwFlags: keyeventfUnicode | keyeventfKeyUp}},
			)
		}
		sendInputs(inputs)
	}
}

func shiftDown() bool {
	state, _, _ := procGetAsyncKeyState.Call(vkShift)
	return state&0x8000 != 0
}

func sendInputs(inputs []input) {
	if len(inputs) == 0 {
		return
	}
	procSendInput.Call(uintptr(len(inputs)), uintptr(unsafe.Pointer(&inputs[0])), unsafe.Sizeof(inputs[0]))
}
