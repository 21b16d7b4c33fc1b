package llm

import "context"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of a conversation history. ToolCalls is only set on
// assistant messages.
type Message struct {
	Role      Role
	Content   string
	ToolCalls []ToolCall
}

// ToolCall is a model-issued request to run a named tool.
type ToolCall struct {
	Name      string
	Arguments map[string]any
}

// Tool is the static definition of a callable tool as advertised to the model.
type Tool struct {
	Name        string
	Description string
	Schema      *Schema
}

// ChatClient performs a single blocking chat round-trip.
type ChatClient interface {
	Chat(ctx context.Context, history []Message, tools []Tool) (Message, error)
	Name() string
}

func SystemMessage(content string) Message { return Message{Role: RoleSystem, Content: content} }

func UserMessage(content string) Message { return Message{Role: RoleUser, Content: content} }

func ToolMessage(content string) Message { return Message{Role: RoleTool, Content: content} }

// HasToolCalls reports whether the message requests any tool invocation.
func (m Message) HasToolCalls() bool { return len(m.ToolCalls) > 0 }

// HasUserMessage reports whether history carries at least one user turn.
func HasUserMessage(history []Message) bool {
	for _, m := range history {
		if m.Role == RoleUser {
			return true
		}
	}
	return false
}

// CloneMessages deep-copies a history so callees cannot alias caller state.
func CloneMessages(in []Message) []Message {
	out := make([]Message, 0, len(in))
	for _, m := range in {
		c := m
		if len(m.ToolCalls) > 0 {
			c.ToolCalls = make([]ToolCall, len(m.ToolCalls))
			for i, tc := range m.ToolCalls {
				c.ToolCalls[i] = ToolCall{Name: tc.Name, Arguments: cloneArgs(tc.Arguments)}
			}
		}
		out = append(out, c)
	}
	return out
}

func cloneArgs(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
