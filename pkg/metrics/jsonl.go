package metrics

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
)

// JSONLObserver writes one JSON object per event.
type JSONLObserver struct {
	mu     sync.Mutex
	logger *slog.Logger
	closer io.Closer
}

func NewJSONLObserver(w io.Writer) *JSONLObserver {
	if w == nil {
		w = io.Discard
	}
	return &JSONLObserver{logger: slog.New(slog.NewJSONHandler(w, nil))}
}

// OpenJSONL appends events to the file at path, creating it if needed.
func OpenJSONL(path string) (*JSONLObserver, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	o := NewJSONLObserver(f)
	o.closer = f
	return o, nil
}

func (o *JSONLObserver) RecordEvent(ev MetricsEvent) {
	attrs := []slog.Attr{
		slog.String("event", ev.Name),
		slog.Time("event_time", ev.Time),
		slog.Float64("value", ev.Value),
	}
	for k, v := range ev.Tags {
		attrs = append(attrs, slog.String(k, v))
	}
	for k, v := range ev.Fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	o.mu.Lock()
	o.logger.LogAttrs(context.Background(), slog.LevelInfo, "metrics", attrs...)
	o.mu.Unlock()
}

func (o *JSONLObserver) Close() error {
	if o.closer == nil {
		return nil
	}
	return o.closer.Close()
}
