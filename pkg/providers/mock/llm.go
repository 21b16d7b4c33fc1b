package mock

import (
	"context"
	"sync"

	"github.com/harunnryd/tooloop/pkg/llm"
)

// ChatClient replays scripted replies in order and records every history it
// was given. Once the script is exhausted the last step repeats.
type ChatClient struct {
	mu      sync.Mutex
	steps   []Step
	calls   int
	history [][]llm.Message
}

// Step is one scripted reply; Err takes precedence over Reply.
type Step struct {
	Reply llm.Message
	Err   error
}

type ChatConfig struct {
	Steps []Step
}

var _ llm.ChatClient = (*ChatClient)(nil)

func NewChatClient(cfg ChatConfig) *ChatClient {
	if len(cfg.Steps) == 0 {
		cfg.Steps = []Step{{Reply: Text("mock response")}}
	}
	return &ChatClient{steps: cfg.Steps}
}

func (c *ChatClient) Name() string { return "mock_llm" }

func (c *ChatClient) Chat(ctx context.Context, history []llm.Message, tools []llm.Tool) (llm.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, llm.CloneMessages(history))
	idx := c.calls
	if idx >= len(c.steps) {
		idx = len(c.steps) - 1
	}
	c.calls++
	if err := ctx.Err(); err != nil {
		return llm.Message{}, err
	}
	step := c.steps[idx]
	if step.Err != nil {
		return llm.Message{}, step.Err
	}
	return step.Reply, nil
}

// Calls returns how many round-trips were made.
func (c *ChatClient) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Histories returns a copy of every history sent, in call order.
func (c *ChatClient) Histories() [][]llm.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]llm.Message, len(c.history))
	copy(out, c.history)
	return out
}

// Text builds a final assistant reply with no tool calls.
func Text(content string) llm.Message {
	return llm.Message{Role: llm.RoleAssistant, Content: content}
}

// ToolCalls builds an assistant reply requesting the given tool calls.
func ToolCalls(calls ...llm.ToolCall) llm.Message {
	return llm.Message{Role: llm.RoleAssistant, ToolCalls: calls}
}
