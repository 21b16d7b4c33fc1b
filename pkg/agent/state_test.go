package agent

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestStateMachineRejectsInvalidTransitions(t *testing.T) {
	sm := newStateMachine("trace", nil)

	if err := sm.Transition(StateAwaitingModel, "self"); err == nil {
		t.Fatalf("expected error for AWAITING_MODEL -> AWAITING_MODEL")
	}
	if err := sm.Transition(StateDone, "answer"); err != nil {
		t.Fatalf("transition error: %v", err)
	}
	err := sm.Transition(StateDispatchingTools, "late")
	invalid, ok := err.(*InvalidTransitionError)
	if !ok {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	if invalid.From != StateDone || invalid.To != StateDispatchingTools {
		t.Fatalf("unexpected error fields: %+v", invalid)
	}
	if got := err.Error(); got != "invalid state transition from DONE to DISPATCHING_TOOLS" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestStateTerminal(t *testing.T) {
	for s, want := range map[State]bool{
		StateAwaitingModel:    false,
		StateDispatchingTools: false,
		StateDone:             true,
		StateAborted:          true,
	} {
		if s.Terminal() != want {
			t.Fatalf("%s terminal = %v, want %v", s, s.Terminal(), want)
		}
	}
}

func TestLogListenerWritesTransition(t *testing.T) {
	var buf bytes.Buffer
	l := LogListener{Logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))}
	sm := newStateMachine("trace-9", []StateListener{l})

	if err := sm.Transition(StateDispatchingTools, "tool_calls"); err != nil {
		t.Fatalf("transition error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"state_change", "trace_id=trace-9", "from=AWAITING_MODEL", "to=DISPATCHING_TOOLS", "reason=tool_calls"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}
