package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/harunnryd/tooloop/pkg/errorsx"
	"github.com/harunnryd/tooloop/pkg/llm"
)

const (
	DefaultBaseURL      = "http://localhost:11434"
	DefaultModel        = "qwen3:latest"
	DefaultChatTimeout  = 30 * time.Second
	DefaultCheckTimeout = 5 * time.Second

	chatPath = "/api/chat"
	tagsPath = "/api/tags"

	maxErrorBody = 4 << 10
)

type Config struct {
	BaseURL      string
	Model        string
	ChatTimeout  time.Duration
	CheckTimeout time.Duration
	Options      *Options
	HTTPClient   *http.Client
	Logger       *slog.Logger
}

// Client talks to a local Ollama server over its native JSON API.
type Client struct {
	baseURL      string
	model        string
	chatTimeout  time.Duration
	checkTimeout time.Duration
	options      *Options
	http         *http.Client
	logger       *slog.Logger
}

var _ llm.ChatClient = (*Client)(nil)

func NewClient(cfg Config) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		model:        strings.TrimSpace(cfg.Model),
		chatTimeout:  cfg.ChatTimeout,
		checkTimeout: cfg.CheckTimeout,
		options:      cfg.Options,
		http:         cfg.HTTPClient,
		logger:       cfg.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.chatTimeout <= 0 {
		c.chatTimeout = DefaultChatTimeout
	}
	if c.checkTimeout <= 0 {
		c.checkTimeout = DefaultCheckTimeout
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

func (c *Client) Name() string { return "ollama" }

func (c *Client) Model() string { return c.model }

func (c *Client) BaseURL() string { return c.baseURL }

// Chat sends history and tool definitions in one non-streamed request and
// returns the assistant reply. The caller's history is never modified.
func (c *Client) Chat(ctx context.Context, history []llm.Message, tools []llm.Tool) (llm.Message, error) {
	return c.chat(ctx, c.chatTimeout, history, tools)
}

// ChatWithTimeout is Chat with an explicit deadline, used by diagnostics.
func (c *Client) ChatWithTimeout(ctx context.Context, timeout time.Duration, history []llm.Message, tools []llm.Tool) (llm.Message, error) {
	return c.chat(ctx, timeout, history, tools)
}

func (c *Client) chat(ctx context.Context, timeout time.Duration, history []llm.Message, tools []llm.Tool) (llm.Message, error) {
	if !llm.HasUserMessage(history) {
		return llm.Message{}, errorsx.Wrap(errorsx.ErrNoUserMessage, errorsx.ReasonProtocol)
	}
	body, err := c.buildRequest(history, tools)
	if err != nil {
		return llm.Message{}, &errorsx.ProtocolError{Detail: "encode request", Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	endpoint := c.baseURL + chatPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return llm.Message{}, &errorsx.ConnectionError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("chat_request", "endpoint", endpoint, "model", c.model, "messages", len(history), "tools", len(tools))
	resp, err := c.http.Do(req)
	if err != nil {
		return llm.Message{}, transportError(ctx, endpoint, timeout, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return llm.Message{}, &errorsx.UnsupportedModelError{Model: c.model, Endpoint: endpoint}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return llm.Message{}, &errorsx.HTTPError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var payload chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		if isTimeout(ctx, err) {
			return llm.Message{}, &errorsx.TimeoutError{Endpoint: endpoint, Timeout: timeout, Err: err}
		}
		return llm.Message{}, &errorsx.ProtocolError{Detail: "decode chat response", Err: err}
	}
	if payload.Message == nil {
		return llm.Message{}, &errorsx.ProtocolError{Detail: "chat response has no message"}
	}
	msg := payload.Message.toMessage()
	c.logger.Debug("chat_response", "content_len", len(msg.Content), "tool_calls", len(msg.ToolCalls))
	return msg, nil
}

func (c *Client) buildRequest(history []llm.Message, tools []llm.Tool) (*bytes.Buffer, error) {
	req := chatRequest{
		Model:    c.model,
		Messages: make([]wireMessage, 0, len(history)),
		Tools:    mapTools(tools),
		Stream:   false,
		Options:  c.options,
	}
	for _, m := range llm.CloneMessages(history) {
		wm, err := fromMessage(m)
		if err != nil {
			return nil, err
		}
		req.Messages = append(req.Messages, wm)
	}
	b, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	return bytes.NewBuffer(b), nil
}

// mapTools converts tool definitions to Ollama's function-tool wire shape.
func mapTools(tools []llm.Tool) []wireTool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]wireTool, 0, len(tools))
	for _, t := range tools {
		out = append(out, wireTool{
			Type: "function",
			Function: wireToolDef{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Schema,
			},
		})
	}
	return out
}

func transportError(ctx context.Context, endpoint string, timeout time.Duration, err error) error {
	if isTimeout(ctx, err) {
		return &errorsx.TimeoutError{Endpoint: endpoint, Timeout: timeout, Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return errorsx.Wrap(err, errorsx.ReasonCanceled)
	}
	return &errorsx.ConnectionError{Endpoint: endpoint, Err: err}
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
