// Package report prints the cheapest regions of every tariff.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"tariffscout/pkg/models"
)

const (
	FormatText  = "text"
	FormatTable = "table"
)

// Write renders entries in the given format. An unknown format falls back
// to text.
func Write(w io.Writer, format string, entries []models.CheapestEntry) error {
	if format == FormatTable {
		return writeTable(w, entries)
	}
	return writeText(w, entries)
}

// writeText prints one line per tariff: "smart: 250 (spb, msk)".
func writeText(w io.Writer, entries []models.CheapestEntry) error {
	for _, e := range entries {
		_, err := fmt.Fprintf(w, "%s: %s (%s)\n", e.TariffID, e.MinPrice.String(), strings.Join(e.Regions, ", "))
		if err != nil {
			return err
		}
	}
	return nil
}

func writeTable(w io.Writer, entries []models.CheapestEntry) error {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Tariff", "Min price", "Regions"})
	for _, e := range entries {
		t.AppendRow(table.Row{e.TariffID, e.MinPrice.String(), strings.Join(e.Regions, ", ")})
	}
	t.SetStyle(table.StyleRounded)
	_, err := io.WriteString(w, t.Render()+"\n")
	return err
}
