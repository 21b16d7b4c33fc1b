package market

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/harunnryd/tooloop/pkg/errorsx"
	"github.com/harunnryd/tooloop/pkg/resilience"
)

const (
	userAgent   = "Mozilla/5.0 (compatible; tooloop/1.0)"
	maxBodySize = 2 << 20
)

// getJSON issues a GET and returns the parsed document. 429 becomes a
// resilience.RateLimitError so callers can fall back.
func getJSON(ctx context.Context, client HTTPClient, provider, endpoint string, params url.Values) (gjson.Result, error) {
	u := endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return gjson.Result{}, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return gjson.Result{}, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return gjson.Result{}, err
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return gjson.Result{}, resilience.RateLimitError{Provider: provider, Message: "HTTP 429"}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return gjson.Result{}, &errorsx.HTTPError{Status: resp.StatusCode, Body: truncate(strings.TrimSpace(string(body)), 200)}
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, &errorsx.ProtocolError{Detail: fmt.Sprintf("%s returned invalid JSON", provider)}
	}
	return gjson.ParseBytes(body), nil
}

func optionalFloat(r gjson.Result) *float64 {
	if !r.Exists() || r.Type != gjson.Number {
		return nil
	}
	v := r.Float()
	return &v
}

func firstString(rs ...gjson.Result) string {
	for _, r := range rs {
		if s := strings.TrimSpace(r.String()); s != "" {
			return s
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// ErrNoUsableMatches means the provider returned rows but none carried a symbol.
var ErrNoUsableMatches = errors.New("no usable symbol in provider results")

// collect maps up to limit rows that carry a non-empty symbol field.
func collect(rows gjson.Result, limit int, build func(row gjson.Result, symbol string) SymbolMatch, symbolPath string) ([]SymbolMatch, error) {
	var (
		out  []SymbolMatch
		seen int
	)
	rows.ForEach(func(_, row gjson.Result) bool {
		seen++
		if len(out) >= limit {
			return false
		}
		symbol := strings.TrimSpace(row.Get(symbolPath).String())
		if symbol == "" {
			return true
		}
		out = append(out, build(row, symbol))
		return true
	})
	if len(out) == 0 && seen > 0 {
		return nil, ErrNoUsableMatches
	}
	return out, nil
}
