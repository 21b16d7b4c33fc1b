package ollama

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harunnryd/tooloop/pkg/errorsx"
	"github.com/harunnryd/tooloop/pkg/llm"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, Model: "qwen3:latest"})
}

func TestChatSendsExpectedBody(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = io.WriteString(w, `{"message":{"role":"assistant","content":"hello"}}`)
	})

	tools := []llm.Tool{{
		Name:        "calculate",
		Description: "math",
		Schema:      llm.ObjectSchema(map[string]llm.Property{"expression": {Type: "string"}}, "expression"),
	}}
	msg, err := client.Chat(context.Background(), []llm.Message{llm.UserMessage("hi")}, tools)
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, llm.RoleAssistant, msg.Role)

	assert.Equal(t, "qwen3:latest", got["model"])
	assert.Equal(t, false, got["stream"])
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, "user", msgs[0].(map[string]any)["role"])
	wireTools := got["tools"].([]any)
	require.Len(t, wireTools, 1)
	fn := wireTools[0].(map[string]any)["function"].(map[string]any)
	assert.Equal(t, "calculate", fn["name"])
	assert.Equal(t, "function", wireTools[0].(map[string]any)["type"])
}

func TestChatParsesToolCalls(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"message":{"role":"assistant","content":"","tool_calls":[
			{"function":{"name":"calculate","arguments":{"expression":"2+2"}}},
			{"function":{"name":"get_stock_price","arguments":"{\"symbol\":\"NVDA\"}"}},
			{"function":{"name":"broken"}}
		]}}`)
	})
	msg, err := client.Chat(context.Background(), []llm.Message{llm.UserMessage("q")}, nil)
	require.NoError(t, err)
	require.Len(t, msg.ToolCalls, 3)
	assert.Equal(t, "calculate", msg.ToolCalls[0].Name)
	assert.Equal(t, "2+2", msg.ToolCalls[0].Arguments["expression"])
	assert.Equal(t, "NVDA", msg.ToolCalls[1].Arguments["symbol"])
	assert.Nil(t, msg.ToolCalls[2].Arguments)
}

func TestChatDoesNotMutateHistory(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"message":{"role":"assistant","content":"ok"}}`)
	})
	history := []llm.Message{
		llm.SystemMessage("sys"),
		llm.UserMessage("q"),
		{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{{Name: "calculate", Arguments: map[string]any{"expression": "1"}}}},
		llm.ToolMessage("The result is: 1"),
	}
	before := llm.CloneMessages(history)
	_, err := client.Chat(context.Background(), history, nil)
	require.NoError(t, err)
	assert.Equal(t, before, history)
	assert.Len(t, history, 4)
}

func TestChatRejectsHistoryWithoutUser(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })
	_, err := client.Chat(context.Background(), []llm.Message{llm.SystemMessage("sys")}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errorsx.ErrNoUserMessage)
	assert.False(t, called)
}

func TestChatErrorTaxonomy(t *testing.T) {
	t.Run("404 is unsupported model", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		})
		_, err := client.Chat(context.Background(), []llm.Message{llm.UserMessage("q")}, nil)
		var me *errorsx.UnsupportedModelError
		require.ErrorAs(t, err, &me)
		assert.Equal(t, "qwen3:latest", me.Model)
	})

	t.Run("other status is http error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		})
		_, err := client.Chat(context.Background(), []llm.Message{llm.UserMessage("q")}, nil)
		var he *errorsx.HTTPError
		require.ErrorAs(t, err, &he)
		assert.Equal(t, http.StatusInternalServerError, he.Status)
		assert.Equal(t, "boom", he.Body)
	})

	t.Run("garbage body is protocol error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `not json`)
		})
		_, err := client.Chat(context.Background(), []llm.Message{llm.UserMessage("q")}, nil)
		assert.True(t, errorsx.HasReason(err, errorsx.ReasonProtocol))
	})

	t.Run("missing message is protocol error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"done":true}`)
		})
		_, err := client.Chat(context.Background(), []llm.Message{llm.UserMessage("q")}, nil)
		var pe *errorsx.ProtocolError
		require.ErrorAs(t, err, &pe)
	})

	t.Run("slow server is timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer srv.Close()
		client := NewClient(Config{BaseURL: srv.URL, ChatTimeout: 50 * time.Millisecond})
		_, err := client.Chat(context.Background(), []llm.Message{llm.UserMessage("q")}, nil)
		var te *errorsx.TimeoutError
		require.ErrorAs(t, err, &te)
	})

	t.Run("closed server is connection error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		url := srv.URL
		srv.Close()
		client := NewClient(Config{BaseURL: url})
		_, err := client.Chat(context.Background(), []llm.Message{llm.UserMessage("q")}, nil)
		var ce *errorsx.ConnectionError
		require.ErrorAs(t, err, &ce)
	})
}

func TestListModels(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = io.WriteString(w, `{"models":[{"name":"llama3:8b"},{"name":"Qwen3:latest"}]}`)
	})
	models, err := client.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3:8b", "Qwen3:latest"}, ModelNames(models))
	assert.True(t, HasModelMatching(models, "qwen"))
	assert.False(t, HasModelMatching(models, "mistral"))
}
