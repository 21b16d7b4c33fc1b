package errorsx

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMaxIterations is returned when a query exhausts its round-trip budget.
	ErrMaxIterations = errors.New("max iterations reached")
	// ErrNoUserMessage is returned when a chat history carries no user turn.
	ErrNoUserMessage = errors.New("history must contain at least one user message")
)

// ConnectionError reports an unreachable endpoint.
type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("could not connect to %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// TimeoutError reports an endpoint that did not answer in time.
type TimeoutError struct {
	Endpoint string
	Timeout  time.Duration
	Err      error
}

func (e *TimeoutError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("request to %s timed out after %s", e.Endpoint, e.Timeout)
	}
	return fmt.Sprintf("request to %s timed out", e.Endpoint)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// UnsupportedModelError is reported when the chat endpoint answers 404, which
// usually means the model cannot do tool calling or the server is too old.
type UnsupportedModelError struct {
	Model    string
	Endpoint string
}

func (e *UnsupportedModelError) Error() string {
	return fmt.Sprintf("endpoint %s returned 404: model %q may not support tool calling", e.Endpoint, e.Model)
}

// HTTPError carries any other non-2xx status.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected HTTP status %d", e.Status)
	}
	return fmt.Sprintf("unexpected HTTP status %d: %s", e.Status, e.Body)
}

// ProtocolError reports a response body that does not have the expected shape.
type ProtocolError struct {
	Detail string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err == nil {
		return "protocol error: " + e.Detail
	}
	return fmt.Sprintf("protocol error: %s: %v", e.Detail, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// UnknownToolError is reported when the model requests an unregistered tool.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return "unknown tool: " + e.Name
}

// ToolArgumentError reports missing, extra or wrongly typed tool arguments.
type ToolArgumentError struct {
	Tool string
	Err  error
}

func (e *ToolArgumentError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %v", e.Tool, e.Err)
}

func (e *ToolArgumentError) Unwrap() error { return e.Err }

// ToolRuntimeError reports any other failure raised while a tool ran.
type ToolRuntimeError struct {
	Tool string
	Err  error
}

func (e *ToolRuntimeError) Error() string {
	return fmt.Sprintf("error executing %s: %v", e.Tool, e.Err)
}

func (e *ToolRuntimeError) Unwrap() error { return e.Err }

// UserMessage renders err as a single line suitable for the terminal.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	switch Reason(err) {
	case ReasonConnection:
		return "Could not connect to the model server. Make sure Ollama is running."
	case ReasonTimeout:
		return "The model server timed out. It may be busy with a large request."
	case ReasonUnsupportedModel:
		var me *UnsupportedModelError
		if errors.As(err, &me) {
			return fmt.Sprintf("The chat endpoint returned 404. Model %q may not support tool calling; update Ollama or pull a model with tool support.", me.Model)
		}
		return "The chat endpoint returned 404. The model may not support tool calling."
	case ReasonHTTPStatus:
		var he *HTTPError
		if errors.As(err, &he) {
			return fmt.Sprintf("The model server returned HTTP %d.", he.Status)
		}
	case ReasonProtocol:
		return "The model server sent a response that could not be understood."
	case ReasonMaxIterations:
		return "Stopped after too many tool-calling rounds without a final answer."
	case ReasonCanceled:
		return "Request canceled."
	}
	return err.Error()
}
