package commands

import (
	"fmt"

	"hotconsole/internal/command"
	"hotconsole/internal/config"
)

// Hotkeys resolves [[hotkeys]] against reg.
func Hotkeys(reg *command.Registry, decls []config.HotkeyConfig) (command.Hotkeys, error) {
	out := make(command.Hotkeys, 0, len(decls))
	for i, d := range decls {
		cmd, ok := reg.Lookup(d.Command)
		if !ok {
			return nil, fmt.Errorf("hotkeys[%d] %s: unknown command %q", i, d.Combo, d.Command)
		}
		if d.Option < 0 || (d.Option > 0 && d.Option > len(cmd.Options)) {
			return nil, fmt.Errorf("hotkeys[%d] %s: option %d out of range for %s", i, d.Combo, d.Option, cmd.Name)
		}
		out = append(out, command.Hotkey{Combo: d.Combo, Command: cmd, Option: d.Option})
	}
	return out, nil
}

// Hotstrings converts [[hotstrings]].
func Hotstrings(decls []config.HotstringConfig) []command.Hotstring {
	out := make([]command.Hotstring, 0, len(decls))
	for _, d := range decls {
		out = append(out, command.Hotstring{Abbreviation: d.Abbreviation, Description: d.Description, Text: d.Text})
	}
	return out
}
