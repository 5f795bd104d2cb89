package build

import "fmt"

// State is a build pipeline state.
type State int

const (
	StateInit State = iota
	StateResolving
	StateCollecting
	StateAssembling
	StateFinalizing
	StateSucceeded
	StateFailed
)

var stateNames = [...]string{
	StateInit:       "init",
	StateResolving:  "resolving",
	StateCollecting: "collecting",
	StateAssembling: "assembling",
	StateFinalizing: "finalizing",
	StateSucceeded:  "succeeded",
	StateFailed:     "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// IsTerminal reports whether s ends the build.
func IsTerminal(s State) bool {
	return s == StateSucceeded || s == StateFailed
}

// Machine tracks the current state of one build.
type Machine struct {
	current State
	history []State
}

// NewMachine returns a machine in StateInit.
func NewMachine() *Machine {
	return &Machine{current: StateInit, history: []State{StateInit}}
}

// Current returns the current state.
func (m *Machine) Current() State { return m.current }

// History returns every state visited, in order.
func (m *Machine) History() []State {
	return append([]State(nil), m.history...)
}

// Transition moves from the expected state from to to.
func (m *Machine) Transition(from, to State) error {
	if m.current != from {
		return fmt.Errorf("invalid build transition: expected %s, got %s", from, m.current)
	}
	if !isAllowedTransition(from, to) {
		return fmt.Errorf("disallowed build transition: %s -> %s", from, to)
	}
	m.current = to
	m.history = append(m.history, to)
	return nil
}

// Fail moves any non-terminal state to StateFailed.
func (m *Machine) Fail() error {
	return m.Transition(m.current, StateFailed)
}

func isAllowedTransition(from, to State) bool {
	switch from {
	case StateInit:
		return to == StateResolving || to == StateFailed
	case StateResolving:
		return to == StateCollecting || to == StateFailed
	case StateCollecting:
		return to == StateAssembling || to == StateFailed
	case StateAssembling:
		return to == StateFinalizing || to == StateFailed
	case StateFinalizing:
		return to == StateSucceeded || to == StateFailed
	default:
		return false
	}
}
