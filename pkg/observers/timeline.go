package observers

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/harunnryd/tooloop/pkg/metrics"
	"github.com/harunnryd/tooloop/pkg/redact"
)

// TimelineObserver writes one JSONL file per query trace into dir.
type TimelineObserver struct {
	dir   string
	mu    sync.Mutex
	files map[string]*os.File
}

// NewTimelineObserver creates a new timeline observer writing to dir.
func NewTimelineObserver(dir string) *TimelineObserver {
	return &TimelineObserver{dir: dir, files: make(map[string]*os.File)}
}

// RecordEvent implements metrics.Observer.
func (o *TimelineObserver) RecordEvent(ev metrics.MetricsEvent) {
	traceID := ""
	if ev.Tags != nil {
		traceID = ev.Tags["trace_id"]
	}
	if traceID == "" || strings.TrimSpace(o.dir) == "" {
		return
	}
	entry := timelineEvent{
		Time:    ev.Time.UTC(),
		Event:   ev.Name,
		TraceID: traceID,
		Ms:      ev.Value,
		Tags:    copyTags(ev.Tags),
		Fields:  sanitizeFields(ev.Fields),
	}
	delete(entry.Tags, "trace_id")

	line, err := json.Marshal(entry)
	if err != nil {
		return
	}

	f := o.fileFor(traceID)
	if f == nil {
		return
	}
	_, _ = f.Write(append(line, '\n'))

	// A finished query gets no more events.
	if ev.Name == metrics.EventLoopDone || ev.Name == metrics.EventLoopAborted {
		o.release(traceID)
	}
}

// Close closes any open files.
func (o *TimelineObserver) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	var err error
	for _, f := range o.files {
		if f == nil {
			continue
		}
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}
	o.files = make(map[string]*os.File)
	return err
}

type timelineEvent struct {
	Time    time.Time         `json:"time"`
	Event   string            `json:"event"`
	TraceID string            `json:"trace_id"`
	Ms      float64           `json:"ms"`
	Tags    map[string]string `json:"tags,omitempty"`
	Fields  map[string]any    `json:"fields,omitempty"`
}

func (o *TimelineObserver) fileFor(id string) *os.File {
	safe := sanitizeID(id)
	if safe == "" {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if f := o.files[safe]; f != nil {
		return f
	}
	if err := os.MkdirAll(o.dir, 0o755); err != nil {
		return nil
	}
	path := filepath.Join(o.dir, safe+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil
	}
	o.files[safe] = f
	return f
}

func (o *TimelineObserver) release(id string) {
	safe := sanitizeID(id)
	o.mu.Lock()
	defer o.mu.Unlock()
	if f := o.files[safe]; f != nil {
		_ = f.Close()
		delete(o.files, safe)
	}
}

func sanitizeID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, id)
}

func copyTags(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func sanitizeFields(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		if s, ok := v.(string); ok {
			out[k] = redact.Text(redact.Secrets(s))
			continue
		}
		out[k] = v
	}
	return out
}

var _ metrics.Observer = (*TimelineObserver)(nil)
