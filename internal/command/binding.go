package command

// Hotkey binds a key combination to a command with a fixed option. Option 0
// asks the user.
type Hotkey struct {
	Combo   string
	Command *Command
	Option  int
}

// Hotstring replaces Abbreviation with Text once followed by a space.
type Hotstring struct {
	Abbreviation string
	Description  string
	Text         string
}

// Hotkeys is an ordered binding list.
type Hotkeys []Hotkey

// Commands lists the bound commands, first binding wins, in binding order.
func (h Hotkeys) Commands() []*Command {
	seen := map[string]bool{}
	var out []*Command
	for _, hk := range h {
		if hk.Command == nil || seen[hk.Command.Name] {
			continue
		}
		seen[hk.Command.Name] = true
		out = append(out, hk.Command)
	}
	return out
}
