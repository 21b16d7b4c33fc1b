package agent

import (
	"log/slog"
	"time"
)

type State int

const (
	StateAwaitingModel State = iota
	StateDispatchingTools
	StateDone
	StateAborted
)

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case StateAwaitingModel:
		return "AWAITING_MODEL"
	case StateDispatchingTools:
		return "DISPATCHING_TOOLS"
	case StateDone:
		return "DONE"
	case StateAborted:
		return "ABORTED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool { return s == StateDone || s == StateAborted }

// StateChange represents a state transition event.
type StateChange struct {
	TraceID   string
	FromState State
	ToState   State
	Timestamp time.Time
	Reason    string
}

// StateListener observes loop state changes.
type StateListener interface {
	OnStateChange(event StateChange)
}

// LogListener writes each state change to a logger at debug level.
type LogListener struct {
	Logger *slog.Logger
}

func (l LogListener) OnStateChange(event StateChange) {
	log := l.Logger
	if log == nil {
		log = slog.Default()
	}
	log.Debug("state_change",
		"trace_id", event.TraceID,
		"from", event.FromState.String(),
		"to", event.ToState.String(),
		"reason", event.Reason,
	)
}

var validTransitions = map[State][]State{
	StateAwaitingModel:    {StateDispatchingTools, StateDone, StateAborted},
	StateDispatchingTools: {StateAwaitingModel, StateAborted},
}

// stateMachine tracks one query's progress through the loop.
type stateMachine struct {
	traceID   string
	current   State
	listeners []StateListener
}

func newStateMachine(traceID string, listeners []StateListener) *stateMachine {
	return &stateMachine{traceID: traceID, current: StateAwaitingModel, listeners: listeners}
}

func (sm *stateMachine) State() State { return sm.current }

func transitionValid(from, to State) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition moves to a new state with validation.
func (sm *stateMachine) Transition(to State, reason string) error {
	if !transitionValid(sm.current, to) {
		return &InvalidTransitionError{From: sm.current, To: to}
	}
	event := StateChange{
		TraceID:   sm.traceID,
		FromState: sm.current,
		ToState:   to,
		Timestamp: time.Now(),
		Reason:    reason,
	}
	sm.current = to
	for _, l := range sm.listeners {
		l.OnStateChange(event)
	}
	return nil
}

// InvalidTransitionError represents an invalid state transition attempt
type InvalidTransitionError struct {
	From State
	To   State
}

func (e *InvalidTransitionError) Error() string {
	return "invalid state transition from " + e.From.String() + " to " + e.To.String()
}
