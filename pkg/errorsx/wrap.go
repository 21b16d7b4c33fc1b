package errorsx

import (
	"context"
	"errors"
)

// ReasonedError wraps an error with a reason code.
type ReasonedError struct {
	Err    error
	Reason ReasonCode
}

func (e ReasonedError) Error() string {
	if e.Err == nil {
		return string(e.Reason)
	}
	return e.Err.Error()
}

func (e ReasonedError) Unwrap() error {
	return e.Err
}

// Wrap attaches a reason code to an error (no-op if err is nil or already reasoned).
func Wrap(err error, reason ReasonCode) error {
	if err == nil {
		return nil
	}
	var re ReasonedError
	if errors.As(err, &re) {
		return err
	}
	return ReasonedError{Err: err, Reason: reason}
}

// Reason extracts a reason code from an error. An explicit ReasonedError wins;
// otherwise the typed errors of this package are classified.
func Reason(err error) ReasonCode {
	if err == nil {
		return ReasonUnknown
	}
	var re ReasonedError
	if errors.As(err, &re) {
		return re.Reason
	}
	return classify(err)
}

// HasReason returns true if err contains the given reason code.
func HasReason(err error, reason ReasonCode) bool {
	return Reason(err) == reason
}

func classify(err error) ReasonCode {
	var (
		connErr    *ConnectionError
		timeoutErr *TimeoutError
		modelErr   *UnsupportedModelError
		httpErr    *HTTPError
		protoErr   *ProtocolError
		unknownErr *UnknownToolError
		argErr     *ToolArgumentError
		runErr     *ToolRuntimeError
	)
	switch {
	case errors.As(err, &connErr):
		return ReasonConnection
	case errors.As(err, &timeoutErr):
		return ReasonTimeout
	case errors.As(err, &modelErr):
		return ReasonUnsupportedModel
	case errors.As(err, &httpErr):
		return ReasonHTTPStatus
	case errors.As(err, &protoErr):
		return ReasonProtocol
	case errors.As(err, &unknownErr):
		return ReasonUnknownTool
	case errors.As(err, &argErr):
		return ReasonToolArguments
	case errors.As(err, &runErr):
		return ReasonToolRuntime
	case errors.Is(err, ErrMaxIterations):
		return ReasonMaxIterations
	case errors.Is(err, context.Canceled):
		return ReasonCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	}
	return ReasonUnknown
}
