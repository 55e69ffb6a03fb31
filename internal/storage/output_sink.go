package storage

import (
	"context"

	"github.com/goccy/go-json"

	"tariffscout/pkg/models"
)

// OutputSink overwrites one JSON document with the consolidated price table.
type OutputSink struct {
	Path string
}

func (s *OutputSink) Save(ctx context.Context, snap models.PriceSnapshot) error {
	prices := snap.Prices
	if prices == nil {
		prices = models.NewPriceTable()
	}
	data, err := json.MarshalIndent(prices, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(s.Path, append(data, '\n'))
}

func (s *OutputSink) Name() string {
	return "output:" + s.Path
}
