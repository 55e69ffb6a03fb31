package report

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tariffscout/pkg/models"
)

var entries = []models.CheapestEntry{
	{TariffID: "smart", MinPrice: decimal.RequireFromString("250"), Regions: []string{"spb", "nsk"}},
	{TariffID: "go", MinPrice: decimal.RequireFromString("399.9"), Regions: []string{"msk"}},
}

func TestWrite_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatText, entries))
	assert.Equal(t, "smart: 250 (spb, nsk)\ngo: 399.9 (msk)\n", buf.String())
}

func TestWrite_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatText, nil))
	assert.Empty(t, buf.String())
}

func TestWrite_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatTable, entries))

	out := buf.String()
	assert.Contains(t, out, "TARIFF")
	assert.Contains(t, out, "spb, nsk")
	assert.Contains(t, out, "399.9")
	assert.Contains(t, out, "╭")
}
