package errorsx

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestWrapAndReason(t *testing.T) {
	err := Wrap(assertErr{}, ReasonProtocol)
	if Reason(err) != ReasonProtocol {
		t.Fatalf("expected reason %s, got %s", ReasonProtocol, Reason(err))
	}
	if !HasReason(err, ReasonProtocol) {
		t.Fatalf("expected HasReason true")
	}
}

func TestWrapPreservesExistingReason(t *testing.T) {
	first := Wrap(assertErr{}, ReasonConnection)
	second := Wrap(first, ReasonProtocol)
	if Reason(second) != ReasonConnection {
		t.Fatalf("expected reason preserved, got %s", Reason(second))
	}
}

func TestReasonClassifiesTypedErrors(t *testing.T) {
	cases := []struct {
		err  error
		want ReasonCode
	}{
		{&ConnectionError{Endpoint: "x", Err: assertErr{}}, ReasonConnection},
		{&TimeoutError{Endpoint: "x"}, ReasonTimeout},
		{&UnsupportedModelError{Model: "m"}, ReasonUnsupportedModel},
		{&HTTPError{Status: 500}, ReasonHTTPStatus},
		{&ProtocolError{Detail: "bad"}, ReasonProtocol},
		{&UnknownToolError{Name: "nope"}, ReasonUnknownTool},
		{&ToolArgumentError{Tool: "t", Err: assertErr{}}, ReasonToolArguments},
		{&ToolRuntimeError{Tool: "t", Err: assertErr{}}, ReasonToolRuntime},
		{fmt.Errorf("loop: %w", ErrMaxIterations), ReasonMaxIterations},
		{context.Canceled, ReasonCanceled},
		{assertErr{}, ReasonUnknown},
	}
	for _, tc := range cases {
		if got := Reason(tc.err); got != tc.want {
			t.Fatalf("Reason(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}

func TestUserMessageForHTTPStatus(t *testing.T) {
	msg := UserMessage(fmt.Errorf("chat: %w", &HTTPError{Status: 503}))
	if msg != "The model server returned HTTP 503." {
		t.Fatalf("unexpected message %q", msg)
	}
	var he *HTTPError
	if !errors.As(fmt.Errorf("chat: %w", &HTTPError{Status: 503}), &he) {
		t.Fatalf("expected HTTPError to unwrap")
	}
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
