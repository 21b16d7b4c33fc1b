package diagnose

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harunnryd/tooloop/pkg/providers/ollama"
)

func fakeOllama(t *testing.T, toolStatus int, toolReply string) *ollama.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			_, _ = io.WriteString(w, `{"models":[{"name":"qwen3:latest"},{"name":"llama3.1:8b"}]}`)
		case "/api/chat":
			var req map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			if _, withTools := req["tools"]; withTools {
				w.WriteHeader(toolStatus)
				_, _ = io.WriteString(w, toolReply)
				return
			}
			_, _ = io.WriteString(w, `{"message":{"role":"assistant","content":"Hello!"}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return ollama.NewClient(ollama.Config{BaseURL: srv.URL})
}

func TestRunAllChecksPass(t *testing.T) {
	client := fakeOllama(t, http.StatusOK, `{"message":{"role":"assistant","content":"","tool_calls":[{"function":{"name":"test_tool","arguments":{"message":"hello"}}}]}}`)
	var out bytes.Buffer

	report, err := Run(context.Background(), Config{Client: client, Out: &out, NoColor: true})

	require.NoError(t, err)
	assert.True(t, report.Passed())
	text := out.String()
	assert.Contains(t, text, "✓ Found 2 model(s):")
	assert.Contains(t, text, "  - qwen3:latest")
	assert.Contains(t, text, "Response: Hello!")
	assert.Contains(t, text, "Found 1 tool call(s)")
	assert.Contains(t, text, "  Tool: test_tool")
	assert.Contains(t, text, "All checks passed!")
}

func TestRunModelIgnoresToolsStillPasses(t *testing.T) {
	client := fakeOllama(t, http.StatusOK, `{"message":{"role":"assistant","content":"hello"}}`)
	var out bytes.Buffer

	report, err := Run(context.Background(), Config{Client: client, Out: &out, NoColor: true})
	require.NoError(t, err)
	assert.True(t, report.Passed())
	assert.Contains(t, out.String(), "didn't use tools")
}

func TestRunToolCallingUnsupported(t *testing.T) {
	client := fakeOllama(t, http.StatusNotFound, `404 page not found`)
	var out bytes.Buffer

	report, err := Run(context.Background(), Config{Client: client, Out: &out, NoColor: true})

	assert.ErrorIs(t, err, ErrChecksFailed)
	require.Len(t, report.Checks, 3)
	assert.True(t, report.Checks[0].OK)
	assert.True(t, report.Checks[1].OK)
	assert.False(t, report.Checks[2].OK)
	assert.Contains(t, out.String(), "✗ 404 Error: Tool calling not supported")
	assert.Contains(t, out.String(), "✗ Tool Calling")
}

func TestRunServerDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	var out bytes.Buffer

	report, err := Run(context.Background(), Config{Client: ollama.NewClient(ollama.Config{BaseURL: url}), Out: &out, NoColor: true})

	assert.ErrorIs(t, err, ErrChecksFailed)
	for _, c := range report.Checks {
		assert.False(t, c.OK, c.Name)
	}
	assert.Contains(t, out.String(), "Failed to connect: Could not connect to the model server")
}
