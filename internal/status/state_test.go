package status

import (
	"testing"

	"github.com/nexoft/phonebook/internal/bus"
)

func TestInitialState(t *testing.T) {
	m := NewMachine(nil)
	if m.Current() != Booting {
		t.Errorf("initial state = %s, want BOOTING", m.Current())
	}
}

func TestValidTransitions(t *testing.T) {
	tests := []struct {
		from State
		to   State
	}{
		{Booting, Refreshing},
		{Booting, Error},
		{Refreshing, Ready},
		{Refreshing, Offline},
		{Refreshing, Error},
		{Ready, Refreshing},
		{Offline, Refreshing},
		{Error, Refreshing},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			m := NewMachine(nil)
			walkTo(t, m, tt.from)
			if err := m.Transition(tt.to); err != nil {
				t.Errorf("Transition(%s -> %s) error = %v", tt.from, tt.to, err)
			}
			if m.Current() != tt.to {
				t.Errorf("state = %s, want %s", m.Current(), tt.to)
			}
		})
	}
}

func TestInvalidTransition(t *testing.T) {
	m := NewMachine(nil)
	if err := m.Transition(Ready); err == nil {
		t.Error("Transition(BOOTING -> READY) should fail")
	}
}

func TestTransitionEmitsEvent(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("status.", 10)
	defer unsub()

	m := NewMachine(b)
	if err := m.Transition(Refreshing); err != nil {
		t.Fatal(err)
	}

	evt := <-ch
	if evt.Kind != "status.changed" {
		t.Errorf("event kind = %q, want status.changed", evt.Kind)
	}
	change, ok := evt.Payload.(Change)
	if !ok {
		t.Fatalf("payload type = %T, want Change", evt.Payload)
	}
	if change.From != Booting || change.To != Refreshing {
		t.Errorf("change = %v -> %v, want BOOTING -> REFRESHING", change.From, change.To)
	}
}

// TestOfflineRecovery simulates a refresh that fell back to cache and the
// next refresh succeeding: REFRESHING → OFFLINE → REFRESHING → READY.
func TestOfflineRecovery(t *testing.T) {
	m := NewMachine(nil)

	steps := []State{Refreshing, Offline, Refreshing, Ready}
	for _, s := range steps {
		if err := m.Transition(s); err != nil {
			t.Fatalf("Transition to %s: %v (current: %s)", s, err, m.Current())
		}
	}
	if m.Current() != Ready {
		t.Errorf("final state = %s, want READY", m.Current())
	}
}

// TestErrorIsRetryable verifies a failed refresh with an empty cache can be
// retried: ERROR → REFRESHING.
func TestErrorIsRetryable(t *testing.T) {
	m := NewMachine(nil)
	walkTo(t, m, Error)

	if err := m.Transition(Refreshing); err != nil {
		t.Fatalf("ERROR -> REFRESHING: %v", err)
	}
}

// TestReadyCannotSkipRefreshing verifies READY cannot jump straight to
// OFFLINE; only a refresh outcome decides between the two.
func TestReadyCannotSkipRefreshing(t *testing.T) {
	m := NewMachine(nil)
	walkTo(t, m, Ready)

	if err := m.Transition(Offline); err == nil {
		t.Fatal("Transition(READY -> OFFLINE) should fail")
	}
	if m.Current() != Ready {
		t.Errorf("state = %s, want READY (should not have changed)", m.Current())
	}
}

// walkTo is a helper that transitions the machine to a target state.
func walkTo(t *testing.T, m *Machine, target State) {
	t.Helper()
	paths := map[State][]State{
		Booting:    {},
		Refreshing: {Refreshing},
		Ready:      {Refreshing, Ready},
		Offline:    {Refreshing, Offline},
		Error:      {Error},
	}
	for _, s := range paths[target] {
		if err := m.Transition(s); err != nil {
			t.Fatalf("walkTo(%s): %v", target, err)
		}
	}
}
