package status

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/nexoft/phonebook/internal/bus"
)

// State represents an engine runtime state.
type State string

const (
	Booting    State = "BOOTING"
	Refreshing State = "REFRESHING"
	Ready      State = "READY"    // last refresh served remote data
	Offline    State = "OFFLINE"  // last refresh fell back to the local cache
	Error      State = "ERROR"    // refresh failed with an empty cache
)

// validTransitions defines allowed state transitions.
var validTransitions = map[State][]State{
	Booting:    {Refreshing, Error},
	Refreshing: {Ready, Offline, Error},
	Ready:      {Refreshing, Error},
	Offline:    {Refreshing, Error},
	Error:      {Refreshing},
}

// Machine tracks and enforces engine runtime state transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a new state machine starting in Booting state.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Booting,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new state. Returns error if transition is invalid.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	if m.bus != nil {
		m.bus.Publish(bus.Event{
			Kind:      "status.changed",
			Timestamp: time.Now(),
			Payload: Change{
				From: from,
				To:   to,
			},
		})
	}
	return nil
}

// Change is the payload for status change events.
type Change struct {
	From State
	To   State
}
