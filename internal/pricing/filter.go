package pricing

import (
	"strings"

	"tariffscout/pkg/models"
)

// TariffFilter decides which tariff records take part in aggregation.
type TariffFilter interface {
	Filter(t models.Tariff) bool
}

// CategoryFilter keeps tariffs tagged with one category, ignoring case.
type CategoryFilter struct {
	Category string
}

func NewCategoryFilter(category string) CategoryFilter {
	return CategoryFilter{Category: strings.TrimSpace(category)}
}

func (f CategoryFilter) Filter(t models.Tariff) bool {
	return t.InCategory(f.Category)
}

type AlwaysFilter struct{}

func (AlwaysFilter) Filter(models.Tariff) bool {
	return true
}
