package leash

import (
	"sync"

	"github.com/elliotchance/orderedmap/v2"
)

// Registry holds the current State of every leash seen during a session.
//
// Entries are kept in first-seen order so that "first grabbed" and "first
// entry" selections are deterministic. Devices are never removed; a stale
// device simply stops receiving updates.
//
// All methods are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	devices *orderedmap.OrderedMap[string, State]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		devices: orderedmap.NewOrderedMap[string, State](),
	}
}

// Apply applies one parameter update to the named device, creating it first
// when the name has not been seen. The direction is only used on creation.
//
// The read-modify-write runs under the registry lock, so concurrent updates
// to the same name are never lost.
//
// Returns the device state after the update.
func (r *Registry) Apply(name string, dir Direction, p Param, value any) State {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.devices.Get(name)
	if !ok {
		state = NewState(name, dir)
	}
	state = state.Apply(p, value)
	r.devices.Set(name, state)
	return state
}

// Get returns the state of a single device.
func (r *Registry) Get(name string) (State, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.devices.Get(name)
}

// Len returns the number of known devices.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.devices.Len()
}

// Snapshot returns a copy of every device state in first-seen order.
func (r *Registry) Snapshot() []State {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]State, 0, r.devices.Len())
	for el := r.devices.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value)
	}
	return out
}
