package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	chdirForTest(t, t.TempDir())
	t.Setenv("ALPHAVANTAGE_API_KEY", "")
	t.Setenv("SYSTEM_PROMPT_PATH", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434", cfg.Ollama.BaseURL)
	assert.Equal(t, "qwen3:latest", cfg.Ollama.Model)
	assert.Equal(t, "qwen", cfg.Ollama.ModelHint)
	assert.Equal(t, 30*time.Second, cfg.Ollama.ChatTimeout)
	assert.Equal(t, 5*time.Second, cfg.Ollama.CheckTimeout)
	assert.Equal(t, 10, cfg.Agent.MaxIterations)
	assert.Equal(t, 10*time.Second, cfg.Tools.Timeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.True(t, cfg.Privacy.RedactPII)
	assert.Empty(t, cfg.Metrics.Path)
	assert.Empty(t, cfg.Metrics.TimelineDir)
	assert.Zero(t, cfg.Metrics.TimelineRetention)
	assert.True(t, cfg.Metrics.Summary)
	assert.Equal(t, "system_prompt.txt", cfg.SystemPromptPath)
	assert.Empty(t, cfg.Market.AlphaVantageAPIKey)
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	chdirForTest(t, dir)
	path := writeFile(t, dir, "tooloop.yaml", `
ollama:
  model: llama3.1:8b
  chat_timeout: 45s
  options:
    temperature: 0.1
agent:
  max_iterations: 4
metrics:
  timeline_dir: ${HOME}/timelines
  timeline_retention: 72h
log_format: json
`)
	t.Setenv("HOME", "/home/tester")
	t.Setenv("TOOLOOP_AGENT_MAX_ITERATIONS", "6")
	t.Setenv("ALPHAVANTAGE_API_KEY", "demo-key")
	t.Setenv("SYSTEM_PROMPT_PATH", "/etc/tooloop/prompt.txt")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "llama3.1:8b", cfg.Ollama.Model)
	assert.Equal(t, 45*time.Second, cfg.Ollama.ChatTimeout)
	assert.Equal(t, 0.1, cfg.Ollama.Options["temperature"])
	assert.Equal(t, 6, cfg.Agent.MaxIterations)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "/home/tester/timelines", cfg.Metrics.TimelineDir)
	assert.Equal(t, 72*time.Hour, cfg.Metrics.TimelineRetention)
	assert.Equal(t, "demo-key", cfg.Market.AlphaVantageAPIKey)
	assert.Equal(t, "/etc/tooloop/prompt.txt", cfg.SystemPromptPath)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdirForTest(t, dir)
	writeFile(t, dir, ".env", "TOOLOOP_OLLAMA_MODEL=from-dotenv\n")
	t.Cleanup(func() { _ = os.Unsetenv("TOOLOOP_OLLAMA_MODEL") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Ollama.Model)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	chdirForTest(t, dir)
	path := writeFile(t, dir, "bad.yaml", `
ollama:
  base_url: localhost:11434
agent:
  max_iterations: 0
metrics:
  timeline_retention: -1h
log_format: xml
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama.base_url")
	assert.Contains(t, err.Error(), "agent.max_iterations")
	assert.Contains(t, err.Error(), "log_format")
	assert.Contains(t, err.Error(), "metrics.timeline_retention")
}

func TestLoadMissingFile(t *testing.T) {
	chdirForTest(t, t.TempDir())
	_, err := Load("does-not-exist.yaml")
	assert.ErrorContains(t, err, "read config")
}

func TestLoadSystemPrompt(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, "Be brief.", LoadSystemPrompt(writeFile(t, dir, "p.txt", "\n  Be brief.\n\n"), nil))
	assert.Equal(t, "", LoadSystemPrompt(writeFile(t, dir, "empty.txt", "  \n"), nil))
	assert.Equal(t, "", LoadSystemPrompt(filepath.Join(dir, "missing.txt"), nil))
	assert.Equal(t, "", LoadSystemPrompt(dir, nil))
	assert.Equal(t, "", LoadSystemPrompt("", nil))
}
