package crawler

import (
	"bytes"
	"context"

	"go.uber.org/zap"

	"tariffscout/internal/errors"
	"tariffscout/internal/logging"
	"tariffscout/internal/metrics"
	"tariffscout/internal/storage"
	"tariffscout/pkg/models"
)

// FetchResult is the terminal state of one region. Payload is set exactly
// when Outcome.OK().
type FetchResult struct {
	Region  models.Region
	Outcome models.FetchOutcome
	Payload *models.RegionTariffPayload
	Err     error
}

type RegionFetcherOptions struct {
	Cache   storage.CacheStore
	Pages   PageFetcher
	Domains *DomainManager
	// PageURL maps a region ID to its storefront page.
	PageURL       func(regionID string) string
	StateVariable string
	Logger        *zap.Logger
	Metrics       *metrics.Recorder
}

// RegionFetcher obtains the tariff payload of one region, from cache when
// allowed and otherwise from the live page. It is safe for concurrent use as
// long as its cache and page fetcher are.
type RegionFetcher struct {
	cache    storage.CacheStore
	pages    PageFetcher
	domains  *DomainManager
	pageURL  func(string) string
	variable string
	logger   *zap.Logger
	metrics  *metrics.Recorder
}

func NewRegionFetcher(opts RegionFetcherOptions) *RegionFetcher {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegionFetcher{
		cache:    opts.Cache,
		pages:    opts.Pages,
		domains:  opts.Domains,
		pageURL:  opts.PageURL,
		variable: opts.StateVariable,
		logger:   logger,
		metrics:  opts.Metrics,
	}
}

// Fetch never returns an error for a single region: failures end in the
// Failed outcome with Err set. With refresh, the cache is not consulted but
// is still written.
func (f *RegionFetcher) Fetch(ctx context.Context, region models.Region, refresh bool) FetchResult {
	log := f.logger.With(logging.Region(region.ID))
	result := FetchResult{Region: region}

	if !refresh {
		if payload, ok := f.fromCache(ctx, region.ID, log); ok {
			log.Debug("cache hit")
			result.Outcome, result.Payload = models.CachedHit, payload
			f.metrics.RegionOutcome(result.Outcome)
			return result
		}
	}

	payload, err := f.fetchFresh(ctx, region.ID)
	if err != nil {
		log.Warn("region skipped", zap.Error(err))
		result.Outcome, result.Err = models.Failed, err
		f.metrics.RegionOutcome(result.Outcome)
		return result
	}

	err = f.cache.Put(ctx, region.ID, payload.Raw)
	f.metrics.CacheWrite(err)
	if err != nil {
		log.Warn("cache write failed, using fetched data anyway",
			zap.Error(errors.Wrap(errors.TypeCache, "write region cache", err)))
	}

	log.Debug("fetched", zap.Int("tariffs", len(payload.Tariffs)))
	result.Outcome, result.Payload = models.FetchedFresh, payload
	f.metrics.RegionOutcome(result.Outcome)
	return result
}

// fromCache treats unreadable or undecodable entries as misses.
func (f *RegionFetcher) fromCache(ctx context.Context, regionID string, log *zap.Logger) (*models.RegionTariffPayload, bool) {
	raw, found, err := f.cache.Get(ctx, regionID)
	if err != nil {
		log.Warn("cache read failed, fetching instead",
			zap.Error(errors.Wrap(errors.TypeCache, "read region cache", err)))
		return nil, false
	}
	if !found {
		return nil, false
	}
	payload, err := ParsePayload(raw)
	if err != nil {
		log.Warn("cached payload unusable, fetching instead", zap.Error(err))
		return nil, false
	}
	return payload, true
}

func (f *RegionFetcher) fetchFresh(ctx context.Context, regionID string) (*models.RegionTariffPayload, error) {
	target := f.pageURL(regionID)

	if f.domains != nil {
		if !f.domains.IsAllowed(ctx, target) {
			return nil, errors.Newf(errors.TypeNetwork, "robots.txt disallows %s", target)
		}
		if err := f.domains.Wait(ctx, target); err != nil {
			return nil, errors.Wrap(errors.TypeNetwork, "wait for rate limiter", err)
		}
	}

	page, err := f.pages.FetchPage(ctx, target)
	if err != nil {
		return nil, errors.Wrap(errors.TypeNetwork, "fetch page", err).WithContext("url", target)
	}

	blocks, err := Extract(bytes.NewReader(page), f.variable)
	if err != nil {
		return nil, errors.Wrap(errors.TypeExtraction, "extract state block", err).WithContext("url", target)
	}

	var parseErr error
	for _, block := range blocks {
		payload, err := ParsePayload(block)
		if err == nil {
			return payload, nil
		}
		if parseErr == nil {
			parseErr = err
		}
	}
	return nil, errors.Wrap(errors.TypeParsing, "parse state block", parseErr).WithContext("url", target)
}
