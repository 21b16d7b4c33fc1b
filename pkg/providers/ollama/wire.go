package ollama

import (
	"bytes"
	"encoding/json"

	"github.com/harunnryd/tooloop/pkg/llm"
)

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []wireMessage `json:"messages"`
	Tools    []wireTool    `json:"tools,omitempty"`
	Stream   bool          `json:"stream"`
	Options  *Options      `json:"options,omitempty"`
}

type chatResponse struct {
	Model   string       `json:"model"`
	Message *wireMessage `json:"message"`
	Done    bool         `json:"done"`
}

type wireMessage struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	ToolCalls []wireToolCall `json:"tool_calls,omitempty"`
}

type wireToolCall struct {
	Function wireFunction `json:"function"`
}

type wireFunction struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

type wireTool struct {
	Type     string      `json:"type"`
	Function wireToolDef `json:"function"`
}

type wireToolDef struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  *llm.Schema `json:"parameters,omitempty"`
}

type tagsResponse struct {
	Models []ModelInfo `json:"models"`
}

// ModelInfo is one entry of the /api/tags listing.
type ModelInfo struct {
	Name       string `json:"name"`
	Model      string `json:"model,omitempty"`
	Size       int64  `json:"size,omitempty"`
	ModifiedAt string `json:"modified_at,omitempty"`
}

func fromMessage(m llm.Message) (wireMessage, error) {
	wm := wireMessage{Role: string(m.Role), Content: m.Content}
	for _, tc := range m.ToolCalls {
		var args json.RawMessage
		if tc.Arguments != nil {
			b, err := json.Marshal(tc.Arguments)
			if err != nil {
				return wireMessage{}, err
			}
			args = b
		}
		wm.ToolCalls = append(wm.ToolCalls, wireToolCall{Function: wireFunction{Name: tc.Name, Arguments: args}})
	}
	return wm, nil
}

// toMessage converts a reply. A call whose arguments are absent or cannot be
// decoded keeps nil Arguments so the loop can report it as malformed.
func (wm wireMessage) toMessage() llm.Message {
	msg := llm.Message{Role: llm.Role(wm.Role), Content: wm.Content}
	if msg.Role == "" {
		msg.Role = llm.RoleAssistant
	}
	for _, tc := range wm.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, llm.ToolCall{
			Name:      tc.Function.Name,
			Arguments: decodeArguments(tc.Function.Arguments),
		})
	}
	return msg
}

func decodeArguments(raw json.RawMessage) map[string]any {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	// OpenAI-compatible servers send arguments as a JSON-encoded string.
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		raw = []byte(s)
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil
	}
	if args == nil {
		return nil
	}
	return args
}
