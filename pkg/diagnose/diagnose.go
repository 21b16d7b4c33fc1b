// Package diagnose checks that the configured Ollama server is reachable and
// that the model can answer chat and tool-calling requests.
package diagnose

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/harunnryd/tooloop/pkg/errorsx"
	"github.com/harunnryd/tooloop/pkg/llm"
	"github.com/harunnryd/tooloop/pkg/providers/ollama"
)

const DefaultChatTimeout = 10 * time.Second

// ErrChecksFailed is returned when at least one check did not pass.
var ErrChecksFailed = errors.New("some checks failed")

// Lister is the subset of the Ollama client the checks need.
type Lister interface {
	BaseURL() string
	Model() string
	ListModels(ctx context.Context) ([]ollama.ModelInfo, error)
	ChatWithTimeout(ctx context.Context, timeout time.Duration, history []llm.Message, tools []llm.Tool) (llm.Message, error)
}

type Config struct {
	Client      Lister
	Out         io.Writer
	ChatTimeout time.Duration
	NoColor     bool
}

type Check struct {
	Name string
	OK   bool
}

type Report struct {
	Checks []Check
}

func (r Report) Passed() bool {
	for _, c := range r.Checks {
		if !c.OK {
			return false
		}
	}
	return len(r.Checks) > 0
}

var testTool = llm.Tool{
	Name:        "test_tool",
	Description: "A test tool",
	Schema: llm.ObjectSchema(map[string]llm.Property{
		"message": {Type: "string", Description: "A test message"},
	}, "message"),
}

type doctor struct {
	client  Lister
	out     io.Writer
	timeout time.Duration
	ok      *color.Color
	bad     *color.Color
	warn    *color.Color
}

// Run executes the connection, chat and tool-calling checks in order and
// prints a summary. It returns ErrChecksFailed if any check fails.
func Run(ctx context.Context, cfg Config) (Report, error) {
	if cfg.Client == nil {
		return Report{}, errors.New("diagnose: client is required")
	}
	d := &doctor{
		client:  cfg.Client,
		out:     cfg.Out,
		timeout: cfg.ChatTimeout,
		ok:      color.New(color.FgGreen),
		bad:     color.New(color.FgRed),
		warn:    color.New(color.FgYellow),
	}
	if d.out == nil {
		d.out = io.Discard
	}
	if d.timeout <= 0 {
		d.timeout = DefaultChatTimeout
	}
	if cfg.NoColor {
		for _, c := range []*color.Color{d.ok, d.bad, d.warn} {
			c.DisableColor()
		}
	}

	fmt.Fprintf(d.out, "Ollama Diagnostic Tool (%s, model %s)\n", d.client.BaseURL(), d.client.Model())
	report := Report{Checks: []Check{
		{Name: "Connection", OK: d.connection(ctx)},
		{Name: "Chat Endpoint", OK: d.chat(ctx)},
		{Name: "Tool Calling", OK: d.toolCalling(ctx)},
	}}

	d.section("Summary")
	for _, c := range report.Checks {
		d.mark(c.OK, c.Name)
	}
	if report.Passed() {
		d.ok.Fprintln(d.out, "\nAll checks passed! Your setup is ready.")
		return report, nil
	}
	d.warn.Fprintln(d.out, "\nSome checks failed. See above for details.")
	return report, ErrChecksFailed
}

func (d *doctor) section(title string) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintf(d.out, "\n%s\n%s\n%s\n", rule, title, rule)
}

func (d *doctor) mark(ok bool, format string, args ...any) {
	if ok {
		d.ok.Fprint(d.out, "✓ ")
	} else {
		d.bad.Fprint(d.out, "✗ ")
	}
	fmt.Fprintf(d.out, format+"\n", args...)
}

func (d *doctor) connection(ctx context.Context) bool {
	d.section("Testing Ollama Connection")
	models, err := d.client.ListModels(ctx)
	if err != nil {
		d.mark(false, "Failed to connect: %s", errorsx.UserMessage(err))
		return false
	}
	d.mark(true, "Connected to Ollama")
	d.mark(true, "Found %d model(s):", len(models))
	for _, name := range ollama.ModelNames(models) {
		fmt.Fprintf(d.out, "  - %s\n", name)
	}
	return true
}

func (d *doctor) chat(ctx context.Context) bool {
	d.section("Testing /api/chat endpoint")
	reply, err := d.client.ChatWithTimeout(ctx, d.timeout, []llm.Message{llm.UserMessage("Say hello")}, nil)
	if err != nil {
		d.mark(false, "/api/chat failed: %s", describe(err))
		return false
	}
	d.mark(true, "/api/chat endpoint works")
	fmt.Fprintf(d.out, "Response: %s\n", clip(reply.Content, 100))
	return true
}

func (d *doctor) toolCalling(ctx context.Context) bool {
	d.section("Testing Tool Calling Support")
	history := []llm.Message{llm.UserMessage("Call the test_tool with message 'hello'")}
	reply, err := d.client.ChatWithTimeout(ctx, d.timeout, history, []llm.Tool{testTool})
	if err != nil {
		if errorsx.HasReason(err, errorsx.ReasonUnsupportedModel) {
			d.mark(false, "404 Error: Tool calling not supported")
			fmt.Fprintln(d.out, "  Your Ollama version may be too old, or the model lacks tool support.")
			fmt.Fprintln(d.out, "  Update Ollama (https://ollama.com) or pull a model with tool support.")
			return false
		}
		d.mark(false, "Tool calling request failed: %s", describe(err))
		return false
	}
	d.mark(true, "Tool calling endpoint works")
	if !reply.HasToolCalls() {
		d.warn.Fprint(d.out, "⚠ ")
		fmt.Fprintln(d.out, "Model responded but didn't use tools")
		fmt.Fprintf(d.out, "  Response: %s\n", clip(reply.Content, 100))
		return true
	}
	d.mark(true, "Model supports tool calling! Found %d tool call(s)", len(reply.ToolCalls))
	for _, tc := range reply.ToolCalls {
		fmt.Fprintf(d.out, "  Tool: %s\n", tc.Name)
	}
	return true
}

func describe(err error) string {
	var he *errorsx.HTTPError
	if errors.As(err, &he) {
		return fmt.Sprintf("HTTP %d: %s", he.Status, clip(he.Body, 200))
	}
	return errorsx.UserMessage(err)
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
