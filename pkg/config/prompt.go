package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"
)

// LoadSystemPrompt returns the trimmed contents of path. A missing, empty or
// unreadable file yields "" so the agent runs without a system prompt.
func LoadSystemPrompt(path string, logger *slog.Logger) string {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(path) == "" {
		return ""
	}
	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Info("system_prompt_missing", "path", path)
		return ""
	case err != nil:
		logger.Error("system_prompt_read_failed", "path", path, "error", err)
		return ""
	}
	prompt := strings.TrimSpace(string(raw))
	if prompt == "" {
		logger.Info("system_prompt_empty", "path", path)
		return ""
	}
	logger.Info("system_prompt_loaded", "path", path, "chars", len(prompt))
	return prompt
}
