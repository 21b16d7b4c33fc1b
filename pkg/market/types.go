// Package market fetches quotes and resolves ticker symbols from public
// market-data providers.
package market

import (
	"context"
	"net/http"
	"time"
)

const DefaultTimeout = 10 * time.Second

// Quote is a point-in-time snapshot for one ticker. Price fields are nil when
// the provider did not report them.
type Quote struct {
	Symbol             string
	LongName           string
	Currency           string
	CurrentPrice       *float64
	RegularMarketPrice *float64
	PreviousClose      *float64
	DayHigh            *float64
	DayLow             *float64
	MarketCap          *float64
}

// Price picks the first available of current, regular-market and previous
// close price.
func (q Quote) Price() (float64, bool) {
	for _, p := range []*float64{q.CurrentPrice, q.RegularMarketPrice, q.PreviousClose} {
		if p != nil {
			return *p, true
		}
	}
	return 0, false
}

// SymbolMatch is one candidate ticker for a company name.
type SymbolMatch struct {
	Symbol   string
	Name     string
	Exchange string
	Type     string
	Region   string
	Currency string
}

type QuoteProvider interface {
	Quote(ctx context.Context, symbol string) (Quote, error)
}

type SymbolSearcher interface {
	SearchSymbols(ctx context.Context, query string, limit int) ([]SymbolMatch, error)
	Name() string
}

// HTTPClient is satisfied by *http.Client.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

var _ HTTPClient = (*http.Client)(nil)
