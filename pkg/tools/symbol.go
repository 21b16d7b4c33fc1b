package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/harunnryd/tooloop/pkg/llm"
	"github.com/harunnryd/tooloop/pkg/market"
	"github.com/harunnryd/tooloop/pkg/redact"
	"github.com/harunnryd/tooloop/pkg/resilience"
)

const maxSymbolMatches = 5

type SymbolResolverConfig struct {
	Primary  market.SymbolSearcher
	Fallback market.SymbolSearcher
	// Breaker skips the primary after repeated rate limits. Nil uses a
	// breaker that opens after 3 consecutive 429s for 60s.
	Breaker *resilience.CircuitBreaker
	Logger  *slog.Logger
}

// SymbolResolver finds ticker symbols for a company name, trying the primary
// provider first and the fallback when the primary fails, is rate limited or
// has nothing usable.
type SymbolResolver struct {
	primary  market.SymbolSearcher
	fallback market.SymbolSearcher
	breaker  *resilience.CircuitBreaker
	logger   *slog.Logger
}

func NewSymbolResolver(cfg SymbolResolverConfig) *SymbolResolver {
	r := &SymbolResolver{
		primary:  cfg.Primary,
		fallback: cfg.Fallback,
		breaker:  cfg.Breaker,
		logger:   cfg.Logger,
	}
	if r.primary == nil {
		r.primary = market.NewYahoo(market.YahooConfig{})
	}
	if r.fallback == nil {
		r.fallback = market.NewAlphaVantage(market.AlphaVantageConfig{})
	}
	if r.breaker == nil {
		r.breaker = resilience.NewCircuitBreaker(3, time.Minute)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	r.logger = r.logger.With("tool", SymbolSearchToolName)
	return r
}

// Resolve always answers with text; provider failures are described, not
// returned.
func (r *SymbolResolver) Resolve(ctx context.Context, query string) string {
	if lines, ok := r.fromPrimary(ctx, query); ok {
		return formatMatches(query, r.primary.Name(), lines)
	}
	return r.fromFallback(ctx, query)
}

func (r *SymbolResolver) fromPrimary(ctx context.Context, query string) ([]string, bool) {
	name := r.primary.Name()
	if !r.breaker.Allow() {
		r.logger.Warn("symbol_primary_skipped", "provider", name, "reason", "circuit_open")
		return nil, false
	}
	r.logger.Info("symbol_search", "provider", name, "query", redact.Text(query))
	matches, err := r.primary.SearchSymbols(ctx, query, maxSymbolMatches)
	if err != nil {
		r.breaker.OnError(err)
		if resilience.IsRateLimit(err) {
			r.logger.Warn("symbol_primary_rate_limited", "provider", name, "fallback", r.fallback.Name())
		} else {
			r.logger.Warn("symbol_primary_failed", "provider", name, "error", redact.Secrets(err.Error()))
		}
		return nil, false
	}
	r.breaker.OnSuccess()
	if len(matches) == 0 {
		r.logger.Info("symbol_primary_empty", "provider", name, "fallback", r.fallback.Name())
		return nil, false
	}
	lines := make([]string, 0, len(matches))
	for _, m := range matches {
		lines = append(lines, fmt.Sprintf("%s — %s (Symbol: %s, Exchange: %s, Type: %s)", m.Name, m.Symbol, m.Symbol, m.Exchange, m.Type))
	}
	r.logger.Info("symbol_matches", "provider", name, "count", len(lines))
	return lines, true
}

func (r *SymbolResolver) fromFallback(ctx context.Context, query string) string {
	primary, fallback := r.primary.Name(), r.fallback.Name()
	matches, err := r.fallback.SearchSymbols(ctx, query, maxSymbolMatches)
	switch {
	case errors.Is(err, market.ErrNoAPIKey):
		r.logger.Warn("symbol_fallback_unavailable", "provider", fallback, "reason", "missing_api_key")
		return fmt.Sprintf("%s search failed or was rate-limited, and no %s API key is configured (ALPHAVANTAGE_API_KEY). "+
			"Please set that environment variable or provide the stock ticker symbol directly.", primary, fallback)
	case errors.Is(err, market.ErrNoUsableMatches):
		r.logger.Warn("symbol_fallback_unusable", "provider", fallback)
		return fmt.Sprintf("%s returned results for '%s', but none had a usable symbol. "+
			"Please refine your query or provide the ticker directly.", fallback, query)
	case err != nil:
		msg := redact.Secrets(err.Error())
		r.logger.Error("symbol_fallback_failed", "provider", fallback, "error", msg)
		return fmt.Sprintf("Error searching for ticker symbol for '%s' using both %s and %s: %s", query, primary, fallback, msg)
	case len(matches) == 0:
		r.logger.Warn("symbol_fallback_empty", "provider", fallback)
		return fmt.Sprintf("Could not find a ticker symbol for '%s' using %s or %s. "+
			"Please try a different or more specific company name.", query, primary, fallback)
	}
	lines := make([]string, 0, len(matches))
	for _, m := range matches {
		lines = append(lines, fmt.Sprintf("%s — %s (Symbol: %s, Region: %s, Currency: %s)", m.Name, m.Symbol, m.Symbol, m.Region, m.Currency))
	}
	r.logger.Info("symbol_matches", "provider", fallback, "count", len(lines))
	return formatMatches(query, fallback, lines)
}

func formatMatches(query, source string, lines []string) string {
	return fmt.Sprintf("Top matches for '%s' (%s):\n", query, source) + strings.Join(lines, "\n")
}

// SymbolSearch exposes a SymbolResolver as a tool.
type SymbolSearch struct {
	resolver *SymbolResolver
}

type symbolSearchArgs struct {
	CompanyName string `mapstructure:"company_name"`
}

func NewSymbolSearch(resolver *SymbolResolver) *SymbolSearch {
	if resolver == nil {
		resolver = NewSymbolResolver(SymbolResolverConfig{})
	}
	return &SymbolSearch{resolver: resolver}
}

func (s *SymbolSearch) Definition() llm.Tool {
	return llm.Tool{
		Name:        SymbolSearchToolName,
		Description: "Search for a stock ticker symbol by company name. Use this when you need to find the ticker symbol for a company.",
		Schema: llm.ObjectSchema(map[string]llm.Property{
			"company_name": {Type: "string", Description: "The name of the company to search for, e.g. 'NVIDIA', 'Apple', 'Tesla', 'Microsoft'"},
		}, "company_name"),
	}
}

func (s *SymbolSearch) Invoke(ctx context.Context, args map[string]any) (string, error) {
	var in symbolSearchArgs
	if err := decodeArgs(args, &in); err != nil {
		return "", argError(SymbolSearchToolName, err)
	}
	return s.resolver.Resolve(ctx, strings.TrimSpace(in.CompanyName)), nil
}
