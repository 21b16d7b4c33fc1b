package market

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/harunnryd/tooloop/pkg/errorsx"
)

const (
	DefaultYahooChartURL  = "https://query1.finance.yahoo.com/v8/finance/chart"
	DefaultYahooSearchURL = "https://query2.finance.yahoo.com/v1/finance/search"
)

type YahooConfig struct {
	// ChartURL is the chart endpoint base; the symbol is appended as a path
	// segment.
	ChartURL  string
	SearchURL string
	Client    HTTPClient
}

// Yahoo reads quotes from the chart endpoint and symbol search results from
// Yahoo Finance. Neither endpoint needs a session crumb.
type Yahoo struct {
	chartURL  string
	searchURL string
	client    HTTPClient
}

var (
	_ QuoteProvider  = (*Yahoo)(nil)
	_ SymbolSearcher = (*Yahoo)(nil)
)

func NewYahoo(cfg YahooConfig) *Yahoo {
	y := &Yahoo{
		chartURL:  strings.TrimRight(cfg.ChartURL, "/"),
		searchURL: cfg.SearchURL,
		client:    cfg.Client,
	}
	if y.chartURL == "" {
		y.chartURL = DefaultYahooChartURL
	}
	if y.searchURL == "" {
		y.searchURL = DefaultYahooSearchURL
	}
	if y.client == nil {
		y.client = &http.Client{Timeout: DefaultTimeout}
	}
	return y
}

func (y *Yahoo) Name() string { return "Yahoo Finance" }

// Quote returns the snapshot for symbol from chart.result.0.meta. An unknown
// symbol (404 or a "Not Found" chart error) yields a Quote without prices
// rather than an error.
func (y *Yahoo) Quote(ctx context.Context, symbol string) (Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	q := Quote{Symbol: symbol}
	endpoint := y.chartURL + "/" + url.PathEscape(symbol)
	doc, err := getJSON(ctx, y.client, y.Name(), endpoint, url.Values{"interval": {"1d"}, "range": {"1d"}})
	if err != nil {
		var he *errorsx.HTTPError
		if errors.As(err, &he) && he.Status == http.StatusNotFound {
			return q, nil
		}
		return Quote{}, err
	}
	if cerr := doc.Get("chart.error"); cerr.IsObject() {
		if cerr.Get("code").String() == "Not Found" {
			return q, nil
		}
		return Quote{}, &errorsx.ProtocolError{Detail: orDefault(cerr.Get("description").String(), "chart error")}
	}
	if !doc.Get("chart.result").IsArray() {
		return Quote{}, &errorsx.ProtocolError{Detail: "chart response has no result list"}
	}
	meta := doc.Get("chart.result.0.meta")
	if !meta.Exists() {
		return q, nil
	}
	q.LongName = firstString(meta.Get("longName"), meta.Get("shortName"))
	q.Currency = meta.Get("currency").String()
	q.RegularMarketPrice = optionalFloat(meta.Get("regularMarketPrice"))
	q.PreviousClose = optionalFloat(meta.Get("previousClose"))
	if q.PreviousClose == nil {
		q.PreviousClose = optionalFloat(meta.Get("chartPreviousClose"))
	}
	q.DayHigh = optionalFloat(meta.Get("regularMarketDayHigh"))
	q.DayLow = optionalFloat(meta.Get("regularMarketDayLow"))
	q.MarketCap = optionalFloat(meta.Get("marketCap"))
	return q, nil
}

// SearchSymbols returns up to limit matches; rows without a symbol are dropped.
func (y *Yahoo) SearchSymbols(ctx context.Context, query string, limit int) ([]SymbolMatch, error) {
	if limit <= 0 {
		limit = 5
	}
	params := url.Values{
		"q":             {query},
		"quotesCount":   {strconv.Itoa(limit)},
		"newsCount":     {"0"},
		"quotesQueryId": {"tss_match_phrase_query"},
	}
	doc, err := getJSON(ctx, y.client, y.Name(), y.searchURL, params)
	if err != nil {
		return nil, err
	}
	return collect(doc.Get("quotes"), limit, func(row gjson.Result, symbol string) SymbolMatch {
		return SymbolMatch{
			Symbol:   symbol,
			Name:     orDefault(firstString(row.Get("shortname"), row.Get("longname")), symbol),
			Exchange: orDefault(firstString(row.Get("exchange"), row.Get("fullExchangeName")), "N/A"),
			Type:     orDefault(row.Get("quoteType").String(), "N/A"),
		}
	}, "symbol")
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
