package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneMessagesDoesNotAlias(t *testing.T) {
	in := []Message{
		UserMessage("hi"),
		{Role: RoleAssistant, ToolCalls: []ToolCall{{Name: "calculate", Arguments: map[string]any{"expression": "1+1"}}}},
	}
	out := CloneMessages(in)
	out[0].Content = "changed"
	out[1].ToolCalls[0].Arguments["expression"] = "2+2"
	out[1].ToolCalls[0].Name = "other"

	assert.Equal(t, "hi", in[0].Content)
	assert.Equal(t, "1+1", in[1].ToolCalls[0].Arguments["expression"])
	assert.Equal(t, "calculate", in[1].ToolCalls[0].Name)
}

func TestHasUserMessage(t *testing.T) {
	assert.False(t, HasUserMessage(nil))
	assert.False(t, HasUserMessage([]Message{SystemMessage("sys")}))
	assert.True(t, HasUserMessage([]Message{SystemMessage("sys"), UserMessage("q")}))
}
