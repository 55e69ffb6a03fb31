package cmd

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"tariffscout/internal/config"
	"tariffscout/internal/crawler"
	"tariffscout/internal/crawler/engine"
	"tariffscout/internal/errors"
	"tariffscout/internal/metrics"
	"tariffscout/internal/pricing"
	"tariffscout/internal/regions"
	"tariffscout/internal/storage"
)

// app is a fully wired run and the resources it must release.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	engine  *engine.Engine
	metrics *metrics.Recorder
	closers []func() error
}

func build(ctx context.Context, cfg *config.Config, logger *zap.Logger, stdout io.Writer) (*app, error) {
	a := &app{cfg: cfg, logger: logger, metrics: metrics.New()}

	client := crawler.NewClient(crawler.ClientOptions{
		UserAgent:        cfg.UserAgent,
		Timeout:          cfg.RequestTimeout,
		Retries:          cfg.Retries,
		CloudflareBypass: cfg.CloudflareBypass,
	})

	cache, err := storage.OpenCache(ctx, cfg.CacheBackend, cfg.CacheDir, cfg.CacheDB)
	if err != nil {
		return nil, errors.Wrap(errors.TypeConfig, "open cache", err)
	}
	a.closers = append(a.closers, cache.Close)

	var pages crawler.PageFetcher = crawler.NewHTTPFetcher(client)
	if cfg.FetchMode == "browser" {
		browser := crawler.NewBrowserFetcher(ctx, cfg.UserAgent, cfg.RequestTimeout)
		a.closers = append(a.closers, browser.Close)
		pages = browser
	}

	fetcher := crawler.NewRegionFetcher(crawler.RegionFetcherOptions{
		Cache:         cache,
		Pages:         pages,
		Domains:       crawler.NewDomainManager(client, cfg.RateLimit, cfg.UserAgent, cfg.RespectRobots),
		PageURL:       cfg.PageURL,
		StateVariable: cfg.StateVariable,
		Logger:        logger,
		Metrics:       a.metrics,
	})

	var source regions.Source = regions.NewHTTPSource(client, cfg.RegionsURL)
	if cfg.RegionsFile != "" {
		source = regions.NewFileSource(cfg.RegionsFile)
	}

	a.engine = engine.NewEngine(engine.Config{
		Workers:      cfg.Workers,
		Refresh:      refresh,
		ReportFormat: cfg.ReportFormat,
	}, engine.Dependencies{
		Source:  source,
		Fetcher: fetcher,
		Filter:  pricing.NewCategoryFilter(cfg.TariffCategory),
		Output:  &storage.OutputSink{Path: cfg.OutputFile},
		History: a.history(ctx),
		Report:  stdout,
		Logger:  logger,
		Metrics: a.metrics,
	})
	return a, nil
}

// history connects the Postgres sink when DB_URL is set. An unreachable
// database only disables history for this run.
func (a *app) history(ctx context.Context) []engine.Sink {
	if a.cfg.DatabaseURL == "" {
		return nil
	}
	db, err := storage.WaitForPostgres(ctx, a.cfg.DatabaseURL, 5, 2*time.Second, a.logger)
	if err != nil {
		a.logger.Warn("price history disabled", zap.Error(err))
		return nil
	}
	sink := &storage.HistorySink{Storage: storage.NewStorage(db)}
	a.closers = append(a.closers, sink.Close)
	if err := sink.EnsureSchema(ctx); err != nil {
		a.logger.Warn("price history disabled", zap.Error(err))
		return nil
	}
	return []engine.Sink{sink}
}

func (a *app) writeMetrics() {
	if a.cfg.MetricsFile == "" {
		return
	}
	if err := a.metrics.WriteTextfile(a.cfg.MetricsFile); err != nil {
		a.logger.Warn("metrics not written", zap.String("path", a.cfg.MetricsFile), zap.Error(err))
	}
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", zap.Error(err))
		}
	}
}
