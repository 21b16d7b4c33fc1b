// Package metrics records agent loop and tool events for offline analysis.
package metrics

import "time"

// Event names emitted by the agent loop and the tool executor.
const (
	EventChatRoundtrip = "chat_roundtrip"
	EventToolCall      = "tool_call"
	EventLoopDone      = "loop_done"
	EventLoopAborted   = "loop_aborted"
)

type MetricsEvent struct {
	Name   string
	Time   time.Time
	Value  float64
	Tags   map[string]string
	Fields map[string]any
}

type Observer interface {
	RecordEvent(ev MetricsEvent)
}

type Flusher interface {
	Flush() error
}

type NoopObserver struct{}

func (NoopObserver) RecordEvent(MetricsEvent) {}

// Elapsed builds an event whose value is the milliseconds since start.
func Elapsed(name string, start time.Time, tags map[string]string) MetricsEvent {
	now := time.Now()
	return MetricsEvent{
		Name:  name,
		Time:  now.UTC(),
		Value: float64(now.Sub(start).Milliseconds()),
		Tags:  tags,
	}
}
