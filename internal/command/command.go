// Package command defines the commands a user can trigger from hotkeys,
// the console or the control channel.
package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// DefaultOptionsMessage is shown above the option list when a command does
// not set its own.
const DefaultOptionsMessage = "Enter option number"

// ReservedExit is the console word that leaves console mode.
const ReservedExit = "exit"

// RunFunc executes a command. option is the 1-based option index, or 0 when
// the command has no options. A non-empty message is a user-facing refusal;
// err is an unexpected failure.
type RunFunc func(ctx context.Context, option int) (message string, err error)

// Option is one selectable variant of a command.
type Option interface {
	Label() string
}

// PlainOption is an option identified only by its label.
type PlainOption struct {
	Text string
}

func (o PlainOption) Label() string { return o.Text }

// KeyedOption carries a machine key next to the displayed label.
type KeyedOption struct {
	Key  string
	Text string
}

func (o KeyedOption) Label() string { return o.Text }

// Labels is a convenience for building plain options.
func Labels(labels ...string) []Option {
	out := make([]Option, len(labels))
	for i, l := range labels {
		out[i] = PlainOption{Text: l}
	}
	return out
}

// Command is a named, described action.
type Command struct {
	Name           string
	Description    string
	Run            RunFunc
	Options        []Option
	OptionsMessage string
}

// Prompt returns the message shown before the option list.
func (c *Command) Prompt() string {
	if strings.TrimSpace(c.OptionsMessage) == "" {
		return DefaultOptionsMessage
	}
	return c.OptionsMessage
}

// HasOptions reports whether the command asks for an option.
func (c *Command) HasOptions() bool { return len(c.Options) > 0 }

// OptionAt returns the option for a 1-based index.
func (c *Command) OptionAt(n int) (Option, bool) {
	if n < 1 || n > len(c.Options) {
		return nil, false
	}
	return c.Options[n-1], true
}

func (c *Command) String() string {
	return fmt.Sprintf("command %s: %s", c.Name, c.Description)
}

// Validate checks the invariants a registry enforces.
func (c *Command) Validate() error {
	if c == nil {
		return errors.New("command is nil")
	}
	name := c.Name
	if name == "" {
		return errors.New("command name is empty")
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return fmt.Errorf("command name %q contains whitespace", name)
	}
	if strings.EqualFold(name, ReservedExit) {
		return fmt.Errorf("command name %q is reserved", name)
	}
	if c.Run == nil {
		return fmt.Errorf("command %s has no run function", name)
	}
	for i, o := range c.Options {
		if o == nil || strings.TrimSpace(o.Label()) == "" {
			return fmt.Errorf("command %s: option %d has no label", name, i+1)
		}
	}
	return nil
}
