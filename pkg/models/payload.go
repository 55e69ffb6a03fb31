package models

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// TariffListKey is the member of the embedded block holding the tariff list.
const TariffListKey = "actualTariffs"

var ErrNoTariffList = errors.New("payload has no " + TariffListKey + " array")

// RegionTariffPayload is the parsed data block of one regional page.
type RegionTariffPayload struct {
	Tariffs []Tariff
	// Metadata holds every other top-level member of the block, undecoded.
	Metadata map[string]json.RawMessage
	// Raw is the block exactly as it was extracted from the page.
	Raw []byte
	// Rejected counts list entries that were not tariff records at all.
	Rejected int
}

// DecodePayload parses a strict-JSON block. raw is retained verbatim.
func DecodePayload(raw []byte) (*RegionTariffPayload, error) {
	return decodePayload(raw, raw)
}

// DecodeNormalizedPayload parses normalized, but keeps the original text as Raw.
func DecodeNormalizedPayload(normalized, raw []byte) (*RegionTariffPayload, error) {
	return decodePayload(normalized, raw)
}

func decodePayload(data, raw []byte) (*RegionTariffPayload, error) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, err
	}
	list, ok := members[TariffListKey]
	if !ok || len(list) == 0 || list[0] != '[' {
		return nil, ErrNoTariffList
	}
	var records []json.RawMessage
	if err := json.Unmarshal(list, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", TariffListKey, err)
	}
	delete(members, TariffListKey)

	payload := &RegionTariffPayload{
		Tariffs:  make([]Tariff, 0, len(records)),
		Metadata: members,
		Raw:      append([]byte(nil), raw...),
	}
	// one unreadable record never costs the region its other tariffs
	for _, record := range records {
		t, err := decodeTariff(record)
		if err != nil {
			payload.Rejected++
			continue
		}
		payload.Tariffs = append(payload.Tariffs, t)
	}
	return payload, nil
}
