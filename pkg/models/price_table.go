package models

import (
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// PriceTable maps tariff ID -> region ID -> price. It remembers the order in
// which tariffs and, per tariff, regions were first inserted.
type PriceTable struct {
	prices  map[string]map[string]decimal.Decimal
	tariffs []string
	regions map[string][]string
}

func NewPriceTable() *PriceTable {
	return &PriceTable{
		prices:  make(map[string]map[string]decimal.Decimal),
		regions: make(map[string][]string),
	}
}

// Set records a price. Re-setting an existing pair keeps its position.
func (t *PriceTable) Set(tariffID, regionID string, price decimal.Decimal) {
	byRegion, ok := t.prices[tariffID]
	if !ok {
		byRegion = make(map[string]decimal.Decimal)
		t.prices[tariffID] = byRegion
		t.tariffs = append(t.tariffs, tariffID)
	}
	if _, seen := byRegion[regionID]; !seen {
		t.regions[tariffID] = append(t.regions[tariffID], regionID)
	}
	byRegion[regionID] = price
}

func (t *PriceTable) Get(tariffID, regionID string) (decimal.Decimal, bool) {
	price, ok := t.prices[tariffID][regionID]
	return price, ok
}

// Tariffs returns tariff IDs in first-seen order.
func (t *PriceTable) Tariffs() []string {
	return append([]string(nil), t.tariffs...)
}

// Regions returns the regions priced for a tariff in insertion order.
func (t *PriceTable) Regions(tariffID string) []string {
	return append([]string(nil), t.regions[tariffID]...)
}

func (t *PriceTable) Len() int {
	return len(t.tariffs)
}

// MarshalJSON writes prices as JSON numbers with sorted keys, so equal tables
// always serialize to equal bytes.
func (t *PriceTable) MarshalJSON() ([]byte, error) {
	out := make(map[string]map[string]json.Number, len(t.prices))
	for tariffID, byRegion := range t.prices {
		row := make(map[string]json.Number, len(byRegion))
		for regionID, price := range byRegion {
			row[regionID] = json.Number(price.String())
		}
		out[tariffID] = row
	}
	return json.Marshal(out)
}

// CheapestEntry is the minimum price of a tariff and every region charging it.
type CheapestEntry struct {
	TariffID string
	MinPrice decimal.Decimal
	Regions  []string
}
