package hotkey

import (
	"errors"
	"testing"
)

func TestParseCombo(t *testing.T) {
	cases := []struct {
		in   string
		mods uint32
		vk   uint16
		str  string
	}{
		{"alt+shift+9", ModAlt | ModShift, '9', "alt+shift+9"},
		{"Ctrl+F5", ModControl, 0x74, "ctrl+f5"},
		{"control+alt+delete", ModControl | ModAlt, 0x2E, "ctrl+alt+delete"},
		{"shift+win+space", ModShift | ModWin, 0x20, "shift+win+space"},
		{"windows+e", ModWin, 'E', "win+e"},
		{"f24", 0, 0x87, "f24"},
		{"alt + h", ModAlt, 'H', "alt+h"},
		{"alt+esc", ModAlt, 0x1B, "alt+esc"},
		{"alt+escape", ModAlt, 0x1B, "alt+esc"},
		{"ctrl+numpad3", ModControl, 0x63, "ctrl+numpad3"},
		{"alt+-", ModAlt, 0xBD, "alt+minus"},
	}
	for _, tc := range cases {
		c, err := ParseCombo(tc.in)
		if err != nil {
			t.Fatalf("%q: %v", tc.in, err)
		}
		if c.Mods != tc.mods || c.VK != tc.vk || c.String() != tc.str {
			t.Fatalf("%q: got mods=%#x vk=%#x str=%q", tc.in, c.Mods, c.VK, c.String())
		}
	}
}

func TestParseComboRejects(t *testing.T) {
	for _, in := range []string{"", "alt", "alt+", "alt+foo", "9+alt", "alt+a+b", "f25", "f0", "f1x", "ctrl++"} {
		_, err := ParseCombo(in)
		var ce *ComboError
		if !errors.As(err, &ce) {
			t.Fatalf("%q: expected ComboError, got %v", in, err)
		}
	}
}

func TestNoopFacility(t *testing.T) {
	f := NewNoop()
	if err := f.Register("Alt+Q"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := f.Register("alt+q"); err == nil {
		t.Fatalf("duplicate should fail")
	}
	if f.Press("alt+w") {
		t.Fatalf("unregistered combo should not fire")
	}
	if !f.Press("alt+q") {
		t.Fatalf("press failed")
	}
	if got := <-f.Events(); got != "alt+q" {
		t.Fatalf("event = %q", got)
	}
	_ = f.AddAbbreviation("@@", "me@example.com")
	if text, ok := f.Abbreviation("@@"); !ok || text != "me@example.com" {
		t.Fatalf("abbreviation = %q", text)
	}
	_ = f.Close()
	if _, ok := <-f.Events(); ok {
		t.Fatalf("events should be closed")
	}
}
