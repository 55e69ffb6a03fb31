// Package engine runs one scrape: it loads the region list, fetches every
// region, aggregates prices and persists the result.
package engine

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tariffscout/internal"
	"tariffscout/internal/crawler"
	"tariffscout/internal/errors"
	"tariffscout/internal/logging"
	"tariffscout/internal/metrics"
	"tariffscout/internal/pricing"
	"tariffscout/internal/regions"
	"tariffscout/internal/report"
	"tariffscout/pkg/models"
)

// Fetcher obtains one region's payload. It reports failure through the
// result, never by panicking.
type Fetcher interface {
	Fetch(ctx context.Context, region models.Region, refresh bool) crawler.FetchResult
}

// Sink persists the outcome of a run.
type Sink interface {
	Save(ctx context.Context, snap models.PriceSnapshot) error
	Name() string
}

// Config holds run settings.
type Config struct {
	Workers      int
	Refresh      bool
	ReportFormat string
}

type Dependencies struct {
	Source  regions.Source
	Fetcher Fetcher
	Filter  pricing.TariffFilter
	// Output failing to save fails the run.
	Output Sink
	// History sinks are best effort.
	History []Sink
	Report  io.Writer
	Logger  *zap.Logger
	Metrics *metrics.Recorder
}

// Summary describes a finished run.
type Summary struct {
	RunID    string
	Regions  int
	Cached   int
	Fetched  int
	Failed   int
	Tariffs  int
	Cheapest []models.CheapestEntry
}

// Engine orchestrates the run.
type Engine struct {
	config Config
	deps   Dependencies
	logger *zap.Logger
}

func NewEngine(cfg Config, deps Dependencies) *Engine {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Report == nil {
		deps.Report = io.Discard
	}
	return &Engine{config: cfg, deps: deps, logger: deps.Logger}
}

// Run performs one scrape. A region list failure or an output write failure
// is returned as an error; per-region and per-tariff failures are logged and
// skipped. When ctx is cancelled the run stops without writing output.
func (engine *Engine) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{RunID: uuid.NewString()}
	log := engine.logger.With(zap.String("run", summary.RunID))

	list, err := engine.deps.Source.Regions(ctx)
	if err != nil {
		if !errors.IsType(err, errors.TypeRegionList) {
			err = errors.Wrap(errors.TypeRegionList, "load region list", err)
		}
		return nil, err
	}
	list = engine.admit(list, log)
	summary.Regions = len(list)
	log.Info("engine started", zap.Int("regions", len(list)), zap.Int("workers", engine.config.Workers), zap.Bool("refresh", engine.config.Refresh))

	results := engine.fetchAll(ctx, list, log)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	agg := pricing.NewAggregator(engine.deps.Filter, log, engine.deps.Metrics)
	for _, res := range results {
		switch res.Outcome {
		case models.CachedHit:
			summary.Cached++
		case models.FetchedFresh:
			summary.Fetched++
		default:
			summary.Failed++
			continue
		}
		agg.Add(res.Region.ID, res.Payload)
	}

	table := agg.Table()
	summary.Tariffs = table.Len()
	summary.Cheapest = pricing.Cheapest(table)

	snap := models.PriceSnapshot{RunID: summary.RunID, ObservedAt: time.Now().UTC(), Prices: table}
	if err := engine.deps.Output.Save(ctx, snap); err != nil {
		return summary, errors.Wrap(errors.TypeOutput, "save "+engine.deps.Output.Name(), err)
	}
	for _, sink := range engine.deps.History {
		if err := sink.Save(ctx, snap); err != nil {
			log.Warn("history sink failed", zap.String("sink", sink.Name()), zap.Error(err))
		}
	}

	if err := report.Write(engine.deps.Report, engine.config.ReportFormat, summary.Cheapest); err != nil {
		log.Warn("report not printed", zap.Error(err))
	}

	log.Info("engine finished",
		zap.Int("cached", summary.Cached),
		zap.Int("fetched", summary.Fetched),
		zap.Int("failed", summary.Failed),
		zap.Int("tariffs", summary.Tariffs))
	return summary, nil
}

// admit drops regions whose ID is unusable or repeated, keeping list order.
func (engine *Engine) admit(list []models.Region, log *zap.Logger) []models.Region {
	visited := internal.NewSafeMap()
	admitted := make([]models.Region, 0, len(list))
	for _, region := range list {
		switch {
		case !region.Valid():
			log.Warn("invalid region id skipped", logging.Region(region.ID))
		case visited.Seen(region.ID):
			log.Warn("duplicate region skipped", logging.Region(region.ID))
		default:
			admitted = append(admitted, region)
		}
	}
	return admitted
}

// fetchAll runs the fetch workers. Each result lands in the slot of its
// region, so the returned slice follows list order whatever the scheduling.
func (engine *Engine) fetchAll(ctx context.Context, list []models.Region, log *zap.Logger) []crawler.FetchResult {
	results := make([]crawler.FetchResult, len(list))
	jobs := make(chan int)

	var waitGroup sync.WaitGroup
	for i := 0; i < engine.config.Workers; i++ {
		waitGroup.Add(1)
		go engine.startFetchWorker(ctx, i, list, jobs, results, log, &waitGroup)
	}

	for i := range list {
		jobs <- i
	}
	close(jobs)
	waitGroup.Wait()
	return results
}

func (engine *Engine) startFetchWorker(ctx context.Context, id int, list []models.Region, jobs <-chan int, results []crawler.FetchResult, log *zap.Logger, waitGroup *sync.WaitGroup) {
	defer waitGroup.Done()
	for i := range jobs {
		region := list[i]
		if err := ctx.Err(); err != nil {
			results[i] = crawler.FetchResult{Region: region, Outcome: models.Failed, Err: err}
			continue
		}
		log.Debug("processing region", zap.Int("worker", id), logging.Region(region.ID))
		results[i] = engine.deps.Fetcher.Fetch(ctx, region, engine.config.Refresh)
		log.Info("region done",
			logging.Region(region.ID),
			zap.Stringer("outcome", results[i].Outcome),
			zap.Int("position", i+1),
			zap.Int("of", len(list)))
	}
}
