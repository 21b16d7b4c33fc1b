package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/harunnryd/tooloop/pkg/calc"
	"github.com/harunnryd/tooloop/pkg/errorsx"
	"github.com/harunnryd/tooloop/pkg/llm"
	"github.com/harunnryd/tooloop/pkg/market"
)

const (
	WeatherToolName      = "get_current_weather"
	CalculateToolName    = "calculate"
	StockPriceToolName   = "get_stock_price"
	SymbolSearchToolName = "search_stock_symbol"
)

// BuiltinConfig carries the market-data backends and the logger used by the
// stock tools.
type BuiltinConfig struct {
	Quotes  market.QuoteProvider
	Symbols *SymbolResolver
	Logger  *slog.Logger
}

// Builtins returns the four built-in tools in their advertised order.
func Builtins(cfg BuiltinConfig) []Tool {
	return []Tool{
		Weather{},
		Calculator{},
		NewStockPrice(cfg.Quotes, cfg.Logger),
		NewSymbolSearch(cfg.Symbols),
	}
}

// NewBuiltinRegistry builds the registry of the four built-in tools.
func NewBuiltinRegistry(cfg BuiltinConfig) (*Registry, error) {
	return NewRegistry(Builtins(cfg)...)
}

func argError(tool string, err error) error {
	return &errorsx.ToolArgumentError{Tool: tool, Err: err}
}

// Weather is a stub that always reports fair weather.
type Weather struct{}

type weatherArgs struct {
	Location string `mapstructure:"location"`
}

func (Weather) Definition() llm.Tool {
	return llm.Tool{
		Name:        WeatherToolName,
		Description: "Get the current weather for a location",
		Schema: llm.ObjectSchema(map[string]llm.Property{
			"location": {Type: "string", Description: "The city and state, e.g. San Francisco, CA"},
		}, "location"),
	}
}

func (Weather) Invoke(_ context.Context, args map[string]any) (string, error) {
	var in weatherArgs
	if err := decodeArgs(args, &in); err != nil {
		return "", argError(WeatherToolName, err)
	}
	return fmt.Sprintf("The weather in %s is sunny and 72°F", in.Location), nil
}

// Calculator evaluates arithmetic expressions with calc.Eval. Nothing else is
// ever evaluated.
type Calculator struct{}

type calculateArgs struct {
	Expression string `mapstructure:"expression"`
}

func (Calculator) Definition() llm.Tool {
	return llm.Tool{
		Name:        CalculateToolName,
		Description: "Perform a mathematical calculation",
		Schema: llm.ObjectSchema(map[string]llm.Property{
			"expression": {Type: "string", Description: "The mathematical expression to evaluate, e.g. '2 + 2' or '10 * 5'"},
		}, "expression"),
	}
}

func (Calculator) Invoke(_ context.Context, args map[string]any) (string, error) {
	var in calculateArgs
	if err := decodeArgs(args, &in); err != nil {
		return "", argError(CalculateToolName, err)
	}
	v, err := calc.Eval(in.Expression)
	if err != nil {
		return "", err
	}
	return "The result is: " + calc.Format(v), nil
}
