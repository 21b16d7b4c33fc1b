package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/harunnryd/tooloop/pkg/llm"
	"github.com/harunnryd/tooloop/pkg/market"
	"github.com/harunnryd/tooloop/pkg/redact"
)

// StockPrice reports the latest quote for a ticker. Lookup failures are
// described in the returned text, never returned as errors.
type StockPrice struct {
	quotes market.QuoteProvider
	logger *slog.Logger
}

type stockPriceArgs struct {
	Symbol string `mapstructure:"symbol"`
}

// NewStockPrice uses a default Yahoo provider when quotes is nil and the
// default logger when logger is nil.
func NewStockPrice(quotes market.QuoteProvider, logger *slog.Logger) *StockPrice {
	if quotes == nil {
		quotes = market.NewYahoo(market.YahooConfig{})
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StockPrice{quotes: quotes, logger: logger.With("tool", StockPriceToolName)}
}

func (s *StockPrice) Definition() llm.Tool {
	return llm.Tool{
		Name:        StockPriceToolName,
		Description: "Get the current stock price and information for a given ticker symbol using Yahoo Finance",
		Schema: llm.ObjectSchema(map[string]llm.Property{
			"symbol": {Type: "string", Description: "The stock ticker symbol, e.g. 'NVDA' for NVIDIA, 'AAPL' for Apple, 'TSLA' for Tesla"},
		}, "symbol"),
	}
}

func (s *StockPrice) Invoke(ctx context.Context, args map[string]any) (string, error) {
	var in stockPriceArgs
	if err := decodeArgs(args, &in); err != nil {
		return "", argError(StockPriceToolName, err)
	}
	symbol := strings.ToUpper(strings.TrimSpace(in.Symbol))
	s.logger.Info("stock_quote_fetch", "symbol", symbol)

	q, err := s.quotes.Quote(ctx, symbol)
	if err != nil {
		s.logger.Error("stock_quote_failed", "symbol", symbol, "error", redact.Secrets(err.Error()))
		return fmt.Sprintf("Error fetching stock data for '%s': %s", symbol, redact.Secrets(err.Error())), nil
	}
	price, ok := q.Price()
	if !ok {
		s.logger.Warn("stock_price_missing", "symbol", symbol)
		return fmt.Sprintf("Could not find stock price for symbol '%s'. Please check if the ticker symbol is correct.", symbol), nil
	}
	return formatQuote(symbol, q, price), nil
}

func formatQuote(symbol string, q market.Quote, price float64) string {
	name := q.LongName
	if name == "" {
		name = symbol
	}
	currency := q.Currency
	if currency == "" {
		currency = "USD"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", name, symbol)
	fmt.Fprintf(&b, "Current Price: %s %s\n", currency, market.FormatPrice(price))
	if q.DayHigh != nil && q.DayLow != nil && *q.DayHigh != 0 && *q.DayLow != 0 {
		fmt.Fprintf(&b, "Day Range: %s - %s\n", market.FormatPrice(*q.DayLow), market.FormatPrice(*q.DayHigh))
	}
	if q.MarketCap != nil && *q.MarketCap > 0 {
		b.WriteString("Market Cap: " + market.FormatMarketCap(*q.MarketCap))
	}
	return b.String()
}
