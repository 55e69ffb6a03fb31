package models

import (
	"bytes"
	"errors"
	"strings"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// PriceShape is the way a tariff advertises its price. The set of shapes is
// closed: PackagePricing, FlatFee and ParametrizedPricing.
type PriceShape interface {
	priceShape()
}

// PackagePricing is a tariff sold as selectable packages with their own fees.
// Fees holds only the packages that actually carry one.
type PackagePricing struct {
	Fees []decimal.Decimal
}

// FlatFee is a single subscription fee.
type FlatFee struct {
	Fee decimal.Decimal
}

// ParametrizedPricing is a configurable tariff priced at its default package.
type ParametrizedPricing struct {
	DefaultPackagePrice decimal.Decimal
}

func (PackagePricing) priceShape()      {}
func (FlatFee) priceShape()             {}
func (ParametrizedPricing) priceShape() {}

// Tariff is one record of a region's tariff list. Price is nil when the
// record matches none of the known shapes.
type Tariff struct {
	ID       string
	Title    string
	Category string
	Price    PriceShape
}

// InCategory compares the category tag case-insensitively.
func (t Tariff) InCategory(category string) bool {
	return strings.EqualFold(strings.TrimSpace(t.Category), category)
}

// amount accepts {"numValue": 450}, a bare number, or a numeric string.
// Anything unparsable is treated as absent.
type amount struct {
	value *decimal.Decimal
}

func (a *amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var obj struct {
			NumValue json.RawMessage `json:"numValue"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil
		}
		data = obj.NumValue
	}
	a.value = parseAmount(data)
	return nil
}

func parseAmount(data []byte) *decimal.Decimal {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return nil
	}
	return &d
}

// text reads a string or a number as text. Anything else is empty.
func text(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}
	return ""
}

// field decodes one member of an object into an amount. A member that is not
// an object, or whose key is missing, is absent.
func field(raw json.RawMessage, key string) amount {
	var a amount
	var members map[string]json.RawMessage
	if json.Unmarshal(raw, &members) == nil {
		_ = a.UnmarshalJSON(members[key])
	}
	return a
}

// tariffWire is a record decoded member by member, so a malformed member
// only loses itself.
type tariffWire struct {
	ID              string
	Title           string
	TariffType      string
	Packages        []json.RawMessage
	SubscriptionFee amount
	DefaultPrice    amount
}

// shape classifies the record. Packages win over a direct fee, which wins
// over parametrized settings.
func (w tariffWire) shape() PriceShape {
	if len(w.Packages) > 0 {
		fees := make([]decimal.Decimal, 0, len(w.Packages))
		for _, p := range w.Packages {
			if fee := field(p, "subscriptionFee"); fee.value != nil {
				fees = append(fees, *fee.value)
			}
		}
		return PackagePricing{Fees: fees}
	}
	if w.SubscriptionFee.value != nil {
		return FlatFee{Fee: *w.SubscriptionFee.value}
	}
	if w.DefaultPrice.value != nil {
		return ParametrizedPricing{DefaultPackagePrice: *w.DefaultPrice.value}
	}
	return nil
}

var errNotAnObject = errors.New("tariff record is not an object")

// decodeTariff fails only when the record is not a JSON object. Members of
// the wrong type are treated as absent; a non-array "packages" does not
// count as package pricing.
func decodeTariff(data []byte) (Tariff, error) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return Tariff{}, err
	}
	if members == nil {
		return Tariff{}, errNotAnObject
	}

	w := tariffWire{
		ID:           text(members["id"]),
		Title:        text(members["title"]),
		TariffType:   text(members["tariffType"]),
		DefaultPrice: field(members["parametrizedTariffSettings"], "defaultPackagePrice"),
	}
	var packages []json.RawMessage
	if json.Unmarshal(members["packages"], &packages) == nil {
		w.Packages = packages
	}
	_ = w.SubscriptionFee.UnmarshalJSON(members["subscriptionFee"])

	return Tariff{
		ID:       w.ID,
		Title:    w.Title,
		Category: w.TariffType,
		Price:    w.shape(),
	}, nil
}

func (t *Tariff) UnmarshalJSON(data []byte) error {
	decoded, err := decodeTariff(data)
	if err != nil {
		return err
	}
	*t = decoded
	return nil
}
