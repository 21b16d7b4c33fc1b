// Package observers holds metrics sinks that sit next to the JSONL stream:
// debug logging, per-query summaries and per-trace timelines.
package observers

import (
	"context"
	"log/slog"

	"github.com/harunnryd/tooloop/pkg/metrics"
)

type LoggerObserver struct {
	log *slog.Logger
}

func NewLoggerObserver(log *slog.Logger) *LoggerObserver {
	if log == nil {
		log = slog.Default()
	}
	return &LoggerObserver{log: log}
}

func (o *LoggerObserver) RecordEvent(ev metrics.MetricsEvent) {
	attrs := []slog.Attr{
		slog.String("name", ev.Name),
		slog.Time("time", ev.Time),
		slog.Float64("value", ev.Value),
	}
	for k, v := range ev.Tags {
		attrs = append(attrs, slog.String(k, v))
	}
	for k, v := range ev.Fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	o.log.LogAttrs(context.TODO(), slog.LevelDebug, "metrics", attrs...)
}

// MultiObserver fans every event out to each non-nil observer in order.
type MultiObserver struct {
	list []metrics.Observer
}

func NewMultiObserver(list ...metrics.Observer) *MultiObserver {
	return &MultiObserver{list: list}
}

func (m *MultiObserver) RecordEvent(ev metrics.MetricsEvent) {
	for _, obs := range m.list {
		if obs != nil {
			obs.RecordEvent(ev)
		}
	}
}

// Flush flushes every member that supports it and returns the first error.
func (m *MultiObserver) Flush() error {
	var first error
	for _, obs := range m.list {
		f, ok := obs.(metrics.Flusher)
		if !ok {
			continue
		}
		if err := f.Flush(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

var (
	_ metrics.Observer = (*LoggerObserver)(nil)
	_ metrics.Flusher  = (*MultiObserver)(nil)
)
