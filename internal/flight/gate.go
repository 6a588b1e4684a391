package flight

import (
	"errors"
	"sync"
)

// ErrBusy is returned when an operation is started while another one of the
// same kind is still in flight.
var ErrBusy = errors.New("operation already in progress")

// State is the single-flight state of a Gate
type State int

const (
	StateIdle State = iota
	StatePending
)

// String returns the display name of the state
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	default:
		return "unknown"
	}
}

// Gate admits at most one outstanding operation at a time. A second Begin
// while Pending is rejected, not queued.
type Gate struct {
	mu    sync.Mutex
	state State
}

// Begin moves the gate from Idle to Pending, or returns ErrBusy
func (g *Gate) Begin() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == StatePending {
		return ErrBusy
	}
	g.state = StatePending
	return nil
}

// End moves the gate back to Idle
func (g *Gate) End() {
	g.mu.Lock()
	g.state = StateIdle
	g.mu.Unlock()
}

// State returns the current state
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Busy reports whether an operation is in flight
func (g *Gate) Busy() bool {
	return g.State() == StatePending
}
