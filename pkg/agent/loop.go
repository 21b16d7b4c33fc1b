// Package agent runs the bounded tool-calling loop for one user query.
package agent

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/harunnryd/tooloop/pkg/errorsx"
	"github.com/harunnryd/tooloop/pkg/llm"
	"github.com/harunnryd/tooloop/pkg/metrics"
	"github.com/harunnryd/tooloop/pkg/redact"
	"github.com/harunnryd/tooloop/pkg/tools"
)

const DefaultMaxIterations = 10

// ToolExecutor advertises tool definitions and runs calls by name. It must
// not fail outward; failures come back as error records.
type ToolExecutor interface {
	Definitions() []llm.Tool
	Execute(ctx context.Context, name string, args map[string]any) tools.Result
}

type Config struct {
	Client        llm.ChatClient
	Tools         ToolExecutor
	SystemPrompt  string
	MaxIterations int
	Logger        *slog.Logger
	Observer      metrics.Observer
	Listeners     []StateListener
}

// Outcome describes how a query ended. History is the full conversation
// exchanged for the query.
type Outcome struct {
	State      State
	Answer     string
	Iterations int
	History    []llm.Message
	TraceID    string
}

// Loop sends a query to the model, runs the tools it asks for and feeds the
// results back until the model answers in plain text or the iteration
// ceiling is hit.
type Loop struct {
	client        llm.ChatClient
	tools         ToolExecutor
	systemPrompt  string
	maxIterations int
	logger        *slog.Logger
	observer      metrics.Observer
	listeners     []StateListener
}

func New(cfg Config) (*Loop, error) {
	if cfg.Client == nil {
		return nil, errors.New("agent: chat client is required")
	}
	if cfg.Tools == nil {
		return nil, errors.New("agent: tool executor is required")
	}
	l := &Loop{
		client:        cfg.Client,
		tools:         cfg.Tools,
		systemPrompt:  cfg.SystemPrompt,
		maxIterations: cfg.MaxIterations,
		logger:        cfg.Logger,
		observer:      cfg.Observer,
		listeners:     cfg.Listeners,
	}
	if l.maxIterations <= 0 {
		l.maxIterations = DefaultMaxIterations
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	if l.observer == nil {
		l.observer = metrics.NoopObserver{}
	}
	return l, nil
}

// Run processes one query with a fresh history. A transport error or the
// iteration ceiling ends the query with StateAborted and a non-nil error.
func (l *Loop) Run(ctx context.Context, query string) (Outcome, error) {
	out := Outcome{TraceID: uuid.NewString(), State: StateAwaitingModel}
	logger := l.logger.With("trace_id", out.TraceID)
	fsm := newStateMachine(out.TraceID, l.listeners)
	started := time.Now()
	ctx = metrics.WithTraceID(ctx, out.TraceID)

	if l.systemPrompt != "" {
		out.History = append(out.History, llm.SystemMessage(l.systemPrompt))
	}
	out.History = append(out.History, llm.UserMessage(query))
	logger.Info("query_received", "query", redact.Text(query), "model", l.client.Name())

	defs := l.tools.Definitions()
	abort := func(err error, reason errorsx.ReasonCode) (Outcome, error) {
		if terr := fsm.Transition(StateAborted, string(reason)); terr != nil {
			return out, terr
		}
		out.State = fsm.State()
		l.observer.RecordEvent(metrics.Elapsed(metrics.EventLoopAborted, started, metrics.TagTrace(ctx, map[string]string{"reason": string(reason)})))
		return out, errorsx.Wrap(err, reason)
	}

	for {
		if out.Iterations >= l.maxIterations {
			logger.Warn("max_iterations_reached", "iterations", out.Iterations)
			return abort(errorsx.ErrMaxIterations, errorsx.ReasonMaxIterations)
		}
		if err := ctx.Err(); err != nil {
			return abort(err, errorsx.Reason(err))
		}

		out.Iterations++
		rtStart := time.Now()
		reply, err := l.client.Chat(ctx, out.History, defs)
		status := "ok"
		if err != nil {
			status = string(errorsx.Reason(err))
		}
		l.observer.RecordEvent(metrics.Elapsed(metrics.EventChatRoundtrip, rtStart, metrics.TagTrace(ctx, map[string]string{"status": status})))
		if err != nil {
			logger.Error("chat_failed", "iteration", out.Iterations, "reason", status, "error", redact.Secrets(err.Error()))
			return abort(err, errorsx.Reason(err))
		}
		reply.Role = llm.RoleAssistant
		out.History = append(out.History, reply)

		if !reply.HasToolCalls() {
			if err := fsm.Transition(StateDone, "final_answer"); err != nil {
				return out, err
			}
			out.State = fsm.State()
			out.Answer = reply.Content
			logger.Info("loop_done", "iterations", out.Iterations)
			l.observer.RecordEvent(metrics.Elapsed(metrics.EventLoopDone, started, metrics.TagTrace(ctx, map[string]string{"iterations": strconv.Itoa(out.Iterations)})))
			return out, nil
		}

		if reply.Content != "" {
			logger.Info("assistant_note", "content", reply.Content)
		}
		if err := fsm.Transition(StateDispatchingTools, "tool_calls"); err != nil {
			return out, err
		}
		out.State = fsm.State()
		l.dispatch(ctx, logger, &out, reply.ToolCalls)
		if err := fsm.Transition(StateAwaitingModel, "tool_results"); err != nil {
			return out, err
		}
		out.State = fsm.State()
	}
}

// dispatch runs calls sequentially in order, appending one tool message per
// well-formed call.
func (l *Loop) dispatch(ctx context.Context, logger *slog.Logger, out *Outcome, calls []llm.ToolCall) {
	for i, call := range calls {
		if call.Name == "" || call.Arguments == nil {
			logger.Warn("tool_call_malformed", "index", i, "tool", call.Name)
			continue
		}
		logger.Info("tool_call", "iteration", out.Iterations, "tool", call.Name)
		res := l.tools.Execute(ctx, call.Name, call.Arguments)
		out.History = append(out.History, llm.ToolMessage(res.String()))
	}
}
