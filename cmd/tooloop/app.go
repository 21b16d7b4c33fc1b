package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/harunnryd/tooloop/pkg/config"
	"github.com/harunnryd/tooloop/pkg/logging"
	"github.com/harunnryd/tooloop/pkg/market"
	"github.com/harunnryd/tooloop/pkg/metrics"
	"github.com/harunnryd/tooloop/pkg/observers"
	"github.com/harunnryd/tooloop/pkg/providers/ollama"
	"github.com/harunnryd/tooloop/pkg/redact"
	"github.com/harunnryd/tooloop/pkg/runner"
	"github.com/harunnryd/tooloop/pkg/tools"
)

// app holds the wired dependencies shared by the chat and doctor commands.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	client   *ollama.Client
	executor *tools.Executor
	observer metrics.Observer
	closers  []func() error
}

func bootstrap(opts *rootOptions, stderr io.Writer) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	logger := logging.InitLogger(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: stderr})
	slog.SetDefault(logger)
	redact.SetEnabled(cfg.Privacy.RedactPII)

	a := &app{cfg: cfg, logger: logger}
	if err := a.openObservers(); err != nil {
		a.close()
		return nil, err
	}

	modelOpts, err := ollama.DecodeOptions(cfg.Ollama.Options)
	if err != nil {
		a.close()
		return nil, err
	}
	a.client = ollama.NewClient(ollama.Config{
		BaseURL:      cfg.Ollama.BaseURL,
		Model:        cfg.Ollama.Model,
		ChatTimeout:  cfg.Ollama.ChatTimeout,
		CheckTimeout: cfg.Ollama.CheckTimeout,
		Options:      modelOpts,
		Logger:       logging.NewComponentLogger(logger, "ollama"),
	})

	if cfg.Market.AlphaVantageAPIKey != "" {
		logger.Info("api_key_loaded", "name", "ALPHAVANTAGE_API_KEY")
	} else {
		logger.Info("api_key_missing", "name", "ALPHAVANTAGE_API_KEY")
	}
	httpClient := &http.Client{Timeout: market.DefaultTimeout}
	yahoo := market.NewYahoo(market.YahooConfig{
		ChartURL:  cfg.Market.YahooChartURL,
		SearchURL: cfg.Market.YahooSearchURL,
		Client:    httpClient,
	})
	alpha := market.NewAlphaVantage(market.AlphaVantageConfig{
		BaseURL: cfg.Market.AlphaVantageURL,
		APIKey:  cfg.Market.AlphaVantageAPIKey,
		Client:  httpClient,
	})
	toolsLogger := logging.NewComponentLogger(logger, "tools")
	registry, err := tools.NewBuiltinRegistry(tools.BuiltinConfig{
		Quotes:  yahoo,
		Symbols: tools.NewSymbolResolver(tools.SymbolResolverConfig{
			Primary:  yahoo,
			Fallback: alpha,
			Logger:   toolsLogger,
		}),
		Logger: toolsLogger,
	})
	if err != nil {
		a.close()
		return nil, err
	}
	a.executor = tools.NewExecutor(tools.ExecutorConfig{
		Registry: registry,
		Timeout:  cfg.Tools.Timeout,
		Logger:   toolsLogger,
		Observer: a.observer,
	})
	return a, nil
}

// openObservers fans metrics out to the configured sinks through one async
// observer that the drainer flushes on shutdown.
func (a *app) openObservers() error {
	cfg := a.cfg.Metrics
	sinks := []metrics.Observer{observers.NewLoggerObserver(logging.NewComponentLogger(a.logger, "metrics"))}
	var sinkClosers []func() error
	if cfg.Summary {
		sinks = append(sinks, observers.NewSummaryObserver(a.logger))
	}
	if cfg.Path != "" {
		sink, err := metrics.OpenJSONL(cfg.Path)
		if err != nil {
			return err
		}
		sinks = append(sinks, sink)
		sinkClosers = append(sinkClosers, sink.Close)
	}
	if cfg.TimelineDir != "" {
		if cfg.TimelineRetention > 0 {
			n, err := observers.PurgeArtifacts(cfg.TimelineDir, cfg.TimelineRetention)
			if err != nil {
				a.logger.Warn("timeline_purge_failed", "dir", cfg.TimelineDir, "error", err)
			} else if n > 0 {
				a.logger.Info("timeline_purged", "dir", cfg.TimelineDir, "files", n)
			}
		}
		timeline := observers.NewTimelineObserver(cfg.TimelineDir)
		sinks = append(sinks, timeline)
		sinkClosers = append(sinkClosers, timeline.Close)
	}

	async := metrics.NewAsyncObserver(observers.NewMultiObserver(sinks...), 256)
	a.observer = async
	a.closers = append(a.closers, func() error {
		async.Close()
		if n := async.Dropped(); n > 0 {
			a.logger.Warn("metrics_dropped", "events", n)
		}
		var errs error
		for _, c := range sinkClosers {
			errs = errors.Join(errs, c())
		}
		return errs
	})
	return nil
}

// checkModel fails when the server is unreachable and warns when no
// installed model matches the configured hint.
func (a *app) checkModel(ctx context.Context) error {
	models, err := a.client.ListModels(ctx)
	if err != nil {
		a.logger.Error("ollama_unreachable", "base_url", a.client.BaseURL(), "error", err)
		return err
	}
	if !ollama.HasModelMatching(models, a.cfg.Ollama.ModelHint) {
		a.logger.Warn("model_hint_missing", "hint", a.cfg.Ollama.ModelHint, "available", ollama.ModelNames(models))
	}
	return nil
}

func (a *app) drainer() runner.Drainer {
	return runner.DrainFunc(func() error {
		closers := a.closers
		a.closers = nil
		var first error
		for _, c := range closers {
			if err := c(); err != nil && first == nil {
				first = err
			}
		}
		return first
	})
}

func (a *app) close() {
	if err := a.drainer().Drain(); err != nil {
		a.logger.Warn("shutdown_flush_failed", "error", err)
	}
}
