// Package config loads runtime settings from an optional YAML file, a .env
// file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/harunnryd/tooloop/pkg/configutil"
)

const EnvPrefix = "TOOLOOP"

type Config struct {
	Ollama           OllamaConfig  `mapstructure:"ollama"`
	Agent            AgentConfig   `mapstructure:"agent"`
	Tools            ToolsConfig   `mapstructure:"tools"`
	Market           MarketConfig  `mapstructure:"market"`
	LogLevel         string        `mapstructure:"log_level"`
	LogFormat        string        `mapstructure:"log_format"`
	Privacy          PrivacyConfig `mapstructure:"privacy"`
	Metrics          MetricsConfig `mapstructure:"metrics"`
	SystemPromptPath string        `mapstructure:"system_prompt_path"`
}

type OllamaConfig struct {
	BaseURL      string         `mapstructure:"base_url"`
	Model        string         `mapstructure:"model"`
	ModelHint    string         `mapstructure:"model_hint"`
	ChatTimeout  time.Duration  `mapstructure:"chat_timeout"`
	CheckTimeout time.Duration  `mapstructure:"check_timeout"`
	Options      map[string]any `mapstructure:"options"`
}

type AgentConfig struct {
	MaxIterations int `mapstructure:"max_iterations"`
}

type ToolsConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type MarketConfig struct {
	YahooChartURL      string `mapstructure:"yahoo_chart_url"`
	YahooSearchURL     string `mapstructure:"yahoo_search_url"`
	AlphaVantageURL    string `mapstructure:"alphavantage_url"`
	AlphaVantageAPIKey string `mapstructure:"alphavantage_api_key"`
}

type PrivacyConfig struct {
	RedactPII bool `mapstructure:"redact_pii"`
}

// MetricsConfig controls the event sinks. Empty paths disable a sink; a zero
// TimelineRetention keeps timeline files forever.
type MetricsConfig struct {
	Path              string        `mapstructure:"path"`
	TimelineDir       string        `mapstructure:"timeline_dir"`
	TimelineRetention time.Duration `mapstructure:"timeline_retention"`
	Summary           bool          `mapstructure:"summary"`
}

// Load reads .env (if present), then the YAML file at path (optional), then
// TOOLOOP_* environment overrides. ALPHAVANTAGE_API_KEY and
// SYSTEM_PROMPT_PATH are honored without the prefix.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetDefault("ollama.base_url", "http://localhost:11434")
	v.SetDefault("ollama.model", "qwen3:latest")
	v.SetDefault("ollama.model_hint", "qwen")
	v.SetDefault("ollama.chat_timeout", "30s")
	v.SetDefault("ollama.check_timeout", "5s")
	v.SetDefault("agent.max_iterations", 10)
	v.SetDefault("tools.timeout", "10s")
	v.SetDefault("market.yahoo_chart_url", "https://query1.finance.yahoo.com/v8/finance/chart")
	v.SetDefault("market.yahoo_search_url", "https://query2.finance.yahoo.com/v1/finance/search")
	v.SetDefault("market.alphavantage_url", "https://www.alphavantage.co/query")
	v.SetDefault("market.alphavantage_api_key", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("privacy.redact_pii", true)
	v.SetDefault("metrics.path", "")
	v.SetDefault("metrics.timeline_dir", "")
	v.SetDefault("metrics.timeline_retention", "0s")
	v.SetDefault("metrics.summary", true)
	v.SetDefault("system_prompt_path", "system_prompt.txt")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("market.alphavantage_api_key", EnvPrefix+"_MARKET_ALPHAVANTAGE_API_KEY", "ALPHAVANTAGE_API_KEY")
	_ = v.BindEnv("system_prompt_path", EnvPrefix+"_SYSTEM_PROMPT_PATH", "SYSTEM_PROMPT_PATH")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	expandEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	checks := []error{
		configutil.RequireHTTPURL(c.Ollama.BaseURL, "ollama.base_url"),
		configutil.RequireString(c.Ollama.Model, "ollama.model"),
		configutil.RequireDuration(c.Ollama.ChatTimeout, "ollama.chat_timeout"),
		configutil.RequireDuration(c.Ollama.CheckTimeout, "ollama.check_timeout"),
		configutil.RequirePositive(c.Agent.MaxIterations, "agent.max_iterations"),
		configutil.RequireDuration(c.Tools.Timeout, "tools.timeout"),
		configutil.RequireHTTPURL(c.Market.YahooChartURL, "market.yahoo_chart_url"),
		configutil.RequireHTTPURL(c.Market.YahooSearchURL, "market.yahoo_search_url"),
		configutil.RequireHTTPURL(c.Market.AlphaVantageURL, "market.alphavantage_url"),
		configutil.RequireOneOf(c.LogFormat, "log_format", "text", "json"),
	}
	if c.Metrics.TimelineRetention < 0 {
		checks = append(checks, errors.New("metrics.timeline_retention must not be negative"))
	}
	return errors.Join(checks...)
}

// expandEnv resolves ${VAR} references in string settings.
func expandEnv(c *Config) {
	for _, s := range []*string{
		&c.Ollama.BaseURL,
		&c.Ollama.Model,
		&c.Market.YahooChartURL,
		&c.Market.YahooSearchURL,
		&c.Market.AlphaVantageURL,
		&c.Market.AlphaVantageAPIKey,
		&c.Metrics.Path,
		&c.Metrics.TimelineDir,
		&c.SystemPromptPath,
	} {
		*s = strings.TrimSpace(os.ExpandEnv(*s))
	}
}
