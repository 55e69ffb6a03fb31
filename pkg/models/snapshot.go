package models

import "time"

// PriceSnapshot is the finalized PriceTable of one run, ready to persist.
type PriceSnapshot struct {
	RunID      string
	ObservedAt time.Time
	Prices     *PriceTable
}
