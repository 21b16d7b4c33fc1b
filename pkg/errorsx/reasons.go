package errorsx

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	ReasonConnection       ReasonCode = "connection"
	ReasonTimeout          ReasonCode = "timeout"
	ReasonUnsupportedModel ReasonCode = "unsupported_model"
	ReasonHTTPStatus       ReasonCode = "http_status"
	ReasonProtocol         ReasonCode = "protocol"

	ReasonUnknownTool   ReasonCode = "unknown_tool"
	ReasonToolArguments ReasonCode = "tool_arguments"
	ReasonToolRuntime   ReasonCode = "tool_runtime"

	ReasonMaxIterations ReasonCode = "max_iterations"
	ReasonCanceled      ReasonCode = "canceled"
)
