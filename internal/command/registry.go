package command

import (
	"fmt"
	"sync"
)

// Registry holds commands by name in registration order.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Command
	order  []*Command
}

func NewRegistry() *Registry {
	return &Registry{byName: map[string]*Command{}}
}

// Register adds cmd. Names must be unique.
func (r *Registry) Register(cmd *Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[cmd.Name]; ok {
		return fmt.Errorf("command %s already registered", cmd.Name)
	}
	r.byName[cmd.Name] = cmd
	r.order = append(r.order, cmd)
	return nil
}

// MustRegister panics on a registration error.
func (r *Registry) MustRegister(cmd *Command) {
	if err := r.Register(cmd); err != nil {
		panic(err)
	}
}

// Lookup returns the command registered under name.
func (r *Registry) Lookup(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byName[name]
	return c, ok
}

// All returns the commands in registration order.
func (r *Registry) All() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Command(nil), r.order...)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
