package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/harunnryd/tooloop/pkg/errorsx"
	"github.com/harunnryd/tooloop/pkg/llm"
	"github.com/harunnryd/tooloop/pkg/metrics"
)

const DefaultTimeout = 10 * time.Second

// ErrToolTimeout is reported when a tool does not return within the
// executor's per-call timeout.
var ErrToolTimeout = errors.New("tool timeout")

// Result is the outcome of one tool call: either a text payload or an error
// record. It is always rendered to text before entering the history.
type Result struct {
	Text string
	Err  error
}

// Failed reports whether the result is an error record.
func (r Result) Failed() bool { return r.Err != nil }

// String renders the result for a tool message. Error records become
// {"error":"<text>"}.
func (r Result) String() string {
	if r.Err == nil {
		return r.Text
	}
	raw, err := json.Marshal(map[string]string{"error": r.Err.Error()})
	if err != nil {
		return fmt.Sprintf("{\"error\":%q}", r.Err.Error())
	}
	return string(raw)
}

type ExecutorConfig struct {
	Registry *Registry
	Timeout  time.Duration
	Logger   *slog.Logger
	Observer metrics.Observer
}

// Executor dispatches tool calls by name. It never panics and never returns
// an error outward; failures come back as error records.
type Executor struct {
	registry *Registry
	timeout  time.Duration
	logger   *slog.Logger
	observer metrics.Observer
}

func NewExecutor(cfg ExecutorConfig) *Executor {
	e := &Executor{
		registry: cfg.Registry,
		timeout:  cfg.Timeout,
		logger:   cfg.Logger,
		observer: cfg.Observer,
	}
	if e.registry == nil {
		e.registry, _ = NewRegistry()
	}
	if e.timeout <= 0 {
		e.timeout = DefaultTimeout
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.observer == nil {
		e.observer = metrics.NoopObserver{}
	}
	return e
}

// Definitions lists the registered tool definitions in registration order.
func (e *Executor) Definitions() []llm.Tool { return e.registry.Definitions() }

// Execute runs the named tool with args.
func (e *Executor) Execute(ctx context.Context, name string, args map[string]any) Result {
	start := time.Now()
	res := e.execute(ctx, name, args)
	status := "ok"
	if res.Failed() {
		status = string(errorsx.Reason(res.Err))
		e.logger.Warn("tool_failed", "tool", name, "reason", status, "error", res.Err)
	} else {
		e.logger.Debug("tool_result", "tool", name, "bytes", len(res.Text))
	}
	e.observer.RecordEvent(metrics.Elapsed(metrics.EventToolCall, start, metrics.TagTrace(ctx, map[string]string{"tool": name, "status": status})))
	return res
}

func (e *Executor) execute(ctx context.Context, name string, args map[string]any) Result {
	tool, ok := e.registry.Lookup(name)
	if !ok {
		return Result{Err: &errorsx.UnknownToolError{Name: name}}
	}
	if err := Validate(args, tool.Definition().Schema); err != nil {
		return Result{Err: &errorsx.ToolArgumentError{Tool: name, Err: err}}
	}
	e.logger.Debug("tool_call", "tool", name, "args", args)

	text, err := e.callWithTimeout(ctx, tool, args)
	if err != nil {
		var argErr *errorsx.ToolArgumentError
		if errors.As(err, &argErr) {
			return Result{Err: err}
		}
		return Result{Err: &errorsx.ToolRuntimeError{Tool: name, Err: err}}
	}
	return Result{Text: text}
}

func (e *Executor) callWithTimeout(ctx context.Context, tool Tool, args map[string]any) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		text, err := tool.Invoke(ctx, args)
		ch <- result{text: text, err: err}
	}()
	select {
	case out := <-ch:
		return out.text, out.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ErrToolTimeout
		}
		return "", ctx.Err()
	}
}
