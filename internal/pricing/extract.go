// Package pricing turns decoded tariff records into one comparable price per
// tariff and region, and reduces the resulting table to the cheapest regions.
package pricing

import (
	stderrors "errors"

	"github.com/shopspring/decimal"

	"tariffscout/internal/errors"
	"tariffscout/pkg/models"
)

// ErrNoPrice is wrapped by every extraction failure.
var ErrNoPrice = stderrors.New("no price available")

// ExtractPrice returns the price a customer pays for the tariff: the cheapest
// package, the flat fee, or the default package of a configurable tariff.
func ExtractPrice(t models.Tariff) (decimal.Decimal, error) {
	switch shape := t.Price.(type) {
	case models.PackagePricing:
		var fees []decimal.Decimal
		for _, fee := range shape.Fees {
			if !fee.IsNegative() {
				fees = append(fees, fee)
			}
		}
		if len(fees) == 0 {
			return decimal.Zero, noPrice("no package carries a fee")
		}
		return decimal.Min(fees[0], fees[1:]...), nil
	case models.FlatFee:
		if shape.Fee.IsNegative() {
			return decimal.Zero, noPrice("negative subscription fee")
		}
		return shape.Fee, nil
	case models.ParametrizedPricing:
		if shape.DefaultPackagePrice.IsNegative() {
			return decimal.Zero, noPrice("negative default package price")
		}
		return shape.DefaultPackagePrice, nil
	default:
		return decimal.Zero, noPrice("unrecognized price shape")
	}
}

func noPrice(reason string) error {
	return errors.Wrap(errors.TypePricing, reason, ErrNoPrice)
}
