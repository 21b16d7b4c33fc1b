package observers

import (
	"log/slog"
	"strconv"
	"sync"

	"github.com/harunnryd/tooloop/pkg/metrics"
)

// Summary is the per-query rollup logged when a loop finishes.
type Summary struct {
	TraceID    string
	Outcome    string
	RoundTrips int
	ChatMs     int64
	ToolCalls  int
	ToolErrors int
	ToolMs     int64
	TotalMs    int64
}

// SummaryObserver accumulates chat and tool timings per trace and logs one
// query_summary line on loop_done or loop_aborted. Events without a trace
// id are ignored.
type SummaryObserver struct {
	mu     sync.Mutex
	traces map[string]*Summary
	log    *slog.Logger
	last   Summary
}

func NewSummaryObserver(log *slog.Logger) *SummaryObserver {
	if log == nil {
		log = slog.Default()
	}
	return &SummaryObserver{
		traces: make(map[string]*Summary),
		log:    log,
	}
}

func (o *SummaryObserver) RecordEvent(ev metrics.MetricsEvent) {
	traceID := ""
	if ev.Tags != nil {
		traceID = ev.Tags["trace_id"]
	}
	if traceID == "" {
		return
	}
	o.mu.Lock()
	s := o.traces[traceID]
	if s == nil {
		s = &Summary{TraceID: traceID}
		o.traces[traceID] = s
	}
	ms := int64(ev.Value)
	switch ev.Name {
	case metrics.EventChatRoundtrip:
		s.RoundTrips++
		s.ChatMs += ms
	case metrics.EventToolCall:
		s.ToolCalls++
		s.ToolMs += ms
		if ev.Tags["status"] != "ok" {
			s.ToolErrors++
		}
	case metrics.EventLoopDone:
		s.Outcome = "done"
		s.TotalMs = ms
	case metrics.EventLoopAborted:
		s.Outcome = "aborted:" + ev.Tags["reason"]
		s.TotalMs = ms
	}
	if s.Outcome == "" {
		o.mu.Unlock()
		return
	}
	delete(o.traces, traceID)
	o.last = *s
	o.mu.Unlock()
	o.logSummary(*s)
}

// Last returns the most recently completed summary.
func (o *SummaryObserver) Last() Summary {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}

func (o *SummaryObserver) logSummary(s Summary) {
	o.log.Info("query_summary",
		"trace_id", s.TraceID,
		"outcome", s.Outcome,
		"round_trips", s.RoundTrips,
		"chat_ms", s.ChatMs,
		"tool_calls", s.ToolCalls,
		"tool_errors", s.ToolErrors,
		"tool_ms", s.ToolMs,
		"total_ms", s.TotalMs,
		"model_share", share(s.ChatMs, s.TotalMs),
	)
}

// share renders part/total as a percentage, or "n/a" when total is zero.
func share(part, total int64) string {
	if total <= 0 {
		return "n/a"
	}
	return strconv.FormatInt(part*100/total, 10) + "%"
}

var _ metrics.Observer = (*SummaryObserver)(nil)
