package pricing

import (
	"go.uber.org/zap"

	"tariffscout/internal/logging"
	"tariffscout/internal/metrics"
	"tariffscout/pkg/models"
)

// Aggregator folds region payloads into a PriceTable. It is not safe for
// concurrent use; regions are added one at a time in list order.
type Aggregator struct {
	filter  TariffFilter
	table   *models.PriceTable
	logger  *zap.Logger
	metrics *metrics.Recorder
}

func NewAggregator(filter TariffFilter, logger *zap.Logger, rec *metrics.Recorder) *Aggregator {
	if filter == nil {
		filter = AlwaysFilter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		filter:  filter,
		table:   models.NewPriceTable(),
		logger:  logger,
		metrics: rec,
	}
}

// Add records every priced, in-category tariff of one region and returns how
// many were recorded. A tariff listed twice in a region keeps its lower price.
func (a *Aggregator) Add(regionID string, payload *models.RegionTariffPayload) int {
	if payload == nil {
		return 0
	}
	log := a.logger.With(logging.Region(regionID))
	if payload.Rejected > 0 {
		log.Warn("unreadable tariff records skipped", zap.Int("count", payload.Rejected))
		for i := 0; i < payload.Rejected; i++ {
			a.metrics.Tariff("unreadable")
		}
	}
	priced := 0
	for _, t := range payload.Tariffs {
		if !a.filter.Filter(t) {
			a.metrics.Tariff("filtered")
			continue
		}
		if t.ID == "" {
			log.Warn("tariff without id skipped", zap.String("title", t.Title))
			a.metrics.Tariff("no_price")
			continue
		}
		price, err := ExtractPrice(t)
		if err != nil {
			log.Warn("tariff skipped", logging.Tariff(t.ID), zap.Error(err))
			a.metrics.Tariff("no_price")
			continue
		}
		if existing, ok := a.table.Get(t.ID, regionID); ok {
			log.Debug("duplicate tariff in region", logging.Tariff(t.ID),
				zap.Stringer("kept", existing), zap.Stringer("seen", price))
			if price.LessThan(existing) {
				a.table.Set(t.ID, regionID, price)
			}
			continue
		}
		a.table.Set(t.ID, regionID, price)
		a.metrics.Tariff("priced")
		priced++
	}
	return priced
}

func (a *Aggregator) Table() *models.PriceTable {
	return a.table
}

// Cheapest lists, per tariff in first-seen order, the minimum price and every
// region charging exactly that amount in the order the regions were added.
func Cheapest(table *models.PriceTable) []models.CheapestEntry {
	if table == nil {
		return nil
	}
	entries := make([]models.CheapestEntry, 0, table.Len())
	for _, tariffID := range table.Tariffs() {
		regions := table.Regions(tariffID)
		if len(regions) == 0 {
			continue
		}
		var entry models.CheapestEntry
		entry.TariffID = tariffID
		for i, regionID := range regions {
			price, _ := table.Get(tariffID, regionID)
			switch {
			case i == 0 || price.LessThan(entry.MinPrice):
				entry.MinPrice = price
				entry.Regions = []string{regionID}
			case price.Equal(entry.MinPrice):
				entry.Regions = append(entry.Regions, regionID)
			}
		}
		entries = append(entries, entry)
	}
	return entries
}
