// Package hotkey registers global key combinations and typed abbreviations.
package hotkey

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupported is returned by New where no global hotkey API exists.
var ErrUnsupported = errors.New("global hotkeys are not supported on this platform")

// Modifier flags, same values as the Win32 MOD_* constants.
const (
	ModAlt     uint32 = 0x0001
	ModControl uint32 = 0x0002
	ModShift   uint32 = 0x0004
	ModWin     uint32 = 0x0008
)

// Combo is a parsed key combination.
type Combo struct {
	Mods uint32
	Key  string // canonical key name
	VK   uint16 // virtual-key code
}

// ComboError reports an unparsable combination.
type ComboError struct {
	Combo  string
	Reason string
}

func (e *ComboError) Error() string {
	return fmt.Sprintf("hotkey %q: %s", e.Combo, e.Reason)
}

var modifierNames = map[string]uint32{
	"ctrl":    ModControl,
	"control": ModControl,
	"alt":     ModAlt,
	"shift":   ModShift,
	"win":     ModWin,
	"windows": ModWin,
}

var namedKeys = map[string]uint16{
	"space":       0x20,
	"enter":       0x0D,
	"return":      0x0D,
	"tab":         0x09,
	"esc":         0x1B,
	"escape":      0x1B,
	"backspace":   0x08,
	"delete":      0x2E,
	"del":         0x2E,
	"insert":      0x2D,
	"ins":         0x2D,
	"home":        0x24,
	"end":         0x23,
	"pageup":      0x21,
	"pagedown":    0x22,
	"left":        0x25,
	"up":          0x26,
	"right":       0x27,
	"down":        0x28,
	"printscreen": 0x2C,
	"pause":       0x13,
	"plus":        0xBB,
	"minus":       0xBD,
	"-":           0xBD,
	"=":           0xBB,
	",":           0xBC,
	".":           0xBE,
	"/":           0xBF,
	";":           0xBA,
	"`":           0xC0,
	"[":           0xDB,
	"\\":          0xDC,
	"]":           0xDD,
	"'":           0xDE,
}

var aliases = map[string]string{
	"return": "enter",
	"escape": "esc",
	"del":    "delete",
	"ins":    "insert",
	"-":      "minus",
	"=":      "plus",
}

// ParseCombo parses forms like "alt+shift+9", "ctrl+f5" or "win+space".
func ParseCombo(s string) (Combo, error) {
	raw := s
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Combo{}, &ComboError{Combo: raw, Reason: "empty"}
	}
	var c Combo
	parts := strings.Split(s, "+")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return Combo{}, &ComboError{Combo: raw, Reason: "empty key"}
		}
		if m, ok := modifierNames[p]; ok && i < len(parts)-1 {
			c.Mods |= m
			continue
		}
		if c.Key != "" || i != len(parts)-1 {
			return Combo{}, &ComboError{Combo: raw, Reason: fmt.Sprintf("unexpected key %q", p)}
		}
		vk, name, ok := lookupKey(p)
		if !ok {
			return Combo{}, &ComboError{Combo: raw, Reason: fmt.Sprintf("unknown key %q", p)}
		}
		c.Key, c.VK = name, vk
	}
	return c, nil
}

func lookupKey(p string) (uint16, string, bool) {
	if len(p) == 1 {
		ch := p[0]
		switch {
		case ch >= 'a' && ch <= 'z':
			return uint16(ch - 'a' + 'A'), p, true
		case ch >= '0' && ch <= '9':
			return uint16(ch), p, true
		}
	}
	if vk, ok := namedKeys[p]; ok {
		if a, ok := aliases[p]; ok {
			p = a
		}
		return vk, p, true
	}
	var n int
	if _, err := fmt.Sscanf(p, "f%d", &n); err == nil && n >= 1 && n <= 24 && p == fmt.Sprintf("f%d", n) {
		return uint16(0x70 + n - 1), p, true
	}
	if _, err := fmt.Sscanf(p, "numpad%d", &n); err == nil && n >= 0 && n <= 9 && p == fmt.Sprintf("numpad%d", n) {
		return uint16(0x60 + n), p, true
	}
	return 0, "", false
}

// String renders the canonical form, modifiers in ctrl, alt, shift, win
// order.
func (c Combo) String() string {
	var parts []string
	if c.Mods&ModControl != 0 {
		parts = append(parts, "ctrl")
	}
	if c.Mods&ModAlt != 0 {
		parts = append(parts, "alt")
	}
	if c.Mods&ModShift != 0 {
		parts = append(parts, "shift")
	}
	if c.Mods&ModWin != 0 {
		parts = append(parts, "win")
	}
	return strings.Join(append(parts, c.Key), "+")
}

// Normalize returns the canonical form of s.
func Normalize(s string) (string, error) {
	c, err := ParseCombo(s)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}
