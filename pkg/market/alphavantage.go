package market

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/harunnryd/tooloop/pkg/errorsx"
	"github.com/harunnryd/tooloop/pkg/resilience"
)

const DefaultAlphaVantageURL = "https://www.alphavantage.co/query"

// ErrNoAPIKey is returned when the Alpha Vantage key is not configured.
var ErrNoAPIKey = errors.New("alpha vantage api key not configured")

type AlphaVantageConfig struct {
	BaseURL string
	APIKey  string
	Client  HTTPClient
}

// AlphaVantage resolves symbols through the SYMBOL_SEARCH function.
type AlphaVantage struct {
	baseURL string
	apiKey  string
	client  HTTPClient
}

var _ SymbolSearcher = (*AlphaVantage)(nil)

func NewAlphaVantage(cfg AlphaVantageConfig) *AlphaVantage {
	a := &AlphaVantage{baseURL: cfg.BaseURL, apiKey: strings.TrimSpace(cfg.APIKey), client: cfg.Client}
	if a.baseURL == "" {
		a.baseURL = DefaultAlphaVantageURL
	}
	if a.client == nil {
		a.client = &http.Client{Timeout: DefaultTimeout}
	}
	return a
}

func (a *AlphaVantage) Name() string { return "Alpha Vantage" }

func (a *AlphaVantage) Configured() bool { return a.apiKey != "" }

// SearchSymbols returns up to limit matches. The provider signals throttling
// and bad requests inside a 200 body, so those notes are turned into errors.
func (a *AlphaVantage) SearchSymbols(ctx context.Context, query string, limit int) ([]SymbolMatch, error) {
	if !a.Configured() {
		return nil, ErrNoAPIKey
	}
	if limit <= 0 {
		limit = 5
	}
	params := url.Values{
		"function": {"SYMBOL_SEARCH"},
		"keywords": {query},
		"apikey":   {a.apiKey},
	}
	doc, err := getJSON(ctx, a.client, a.Name(), a.baseURL, params)
	if err != nil {
		return nil, err
	}
	if msg := doc.Get("Error Message").String(); msg != "" {
		return nil, &errorsx.ProtocolError{Detail: msg}
	}
	if msg := firstString(doc.Get("Note"), doc.Get("Information")); msg != "" && !doc.Get("bestMatches").Exists() {
		return nil, resilience.RateLimitError{Provider: a.Name(), Message: msg}
	}
	matches := doc.Get("bestMatches")
	if matches.Exists() && !matches.IsArray() {
		return nil, &errorsx.ProtocolError{Detail: "bestMatches is not a list"}
	}
	out, err := collect(matches, limit, func(row gjson.Result, symbol string) SymbolMatch {
		return SymbolMatch{
			Symbol:   symbol,
			Name:     orDefault(row.Get(`2\. name`).String(), symbol),
			Type:     orDefault(row.Get(`3\. type`).String(), "N/A"),
			Region:   orDefault(row.Get(`4\. region`).String(), "N/A"),
			Currency: orDefault(row.Get(`8\. currency`).String(), "N/A"),
		}
	}, `1\. symbol`)
	return out, err
}
