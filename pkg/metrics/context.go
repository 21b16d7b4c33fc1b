package metrics

import "context"

type traceKey struct{}

// WithTraceID returns a context carrying the trace id used to tag events.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceKey{}, id)
}

func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(traceKey{}).(string)
	return id
}

// TagTrace adds the context trace id to tags when one is set.
func TagTrace(ctx context.Context, tags map[string]string) map[string]string {
	id := TraceIDFromContext(ctx)
	if id == "" {
		return tags
	}
	if tags == nil {
		tags = make(map[string]string, 1)
	}
	tags["trace_id"] = id
	return tags
}
