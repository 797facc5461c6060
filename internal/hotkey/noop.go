package hotkey

import (
	"fmt"
	"sync"
)

// Noop is a Facility that never sees real key presses. Press simulates one.
type Noop struct {
	mu      sync.Mutex
	combos  map[string]bool
	abbrevs map[string]string
	events  chan string
	closed  bool
}

func NewNoop() *Noop {
	return &Noop{
		combos:  map[string]bool{},
		abbrevs: map[string]string{},
		events:  make(chan string, 16),
	}
}

func (n *Noop) Register(combo string) error {
	name, err := Normalize(combo)
	if err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.combos[name] {
		return fmt.Errorf("hotkey %s already registered", name)
	}
	n.combos[name] = true
	return nil
}

func (n *Noop) AddAbbreviation(abbr, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.abbrevs[abbr] = text
	return nil
}

func (n *Noop) Events() <-chan string { return n.events }

func (n *Noop) ReleaseModifiers() {}

// Press emits combo if it was registered.
func (n *Noop) Press(combo string) bool {
	name, err := Normalize(combo)
	if err != nil {
		return false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed || !n.combos[name] {
		return false
	}
	n.events <- name
	return true
}

// Registered reports whether combo was registered.
func (n *Noop) Registered(combo string) bool {
	name, err := Normalize(combo)
	if err != nil {
		return false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.combos[name]
}

// Abbreviation returns the expansion registered for abbr.
func (n *Noop) Abbreviation(abbr string) (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	t, ok := n.abbrevs[abbr]
	return t, ok
}

func (n *Noop) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.closed {
		n.closed = true
		close(n.events)
	}
	return nil
}
