package crawler

import (
	"bytes"
	stderrors "errors"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/goccy/go-json"
	"github.com/titanous/json5"

	"tariffscout/pkg/models"
)

var ErrNoStateBlock = stderrors.New("no script assigns the state variable")

// assignmentPattern matches `<variable> = <block>;` running to the end of a
// script element. The variable must not be the tail of a longer name.
func assignmentPattern(variable string) *regexp.Regexp {
	return regexp.MustCompile(`(?s)(?:^|[\s;])` + regexp.QuoteMeta(variable) + `\s*=\s*(.+?)\s*;?\s*\z`)
}

// Extract returns, in document order, the block assigned to variable by the
// last statement of every <script> element that has one. Callers try them in
// turn: an earlier script may only initialise the variable.
func Extract(r io.Reader, variable string) ([][]byte, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	pattern := assignmentPattern(variable)

	var blocks [][]byte
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		if !strings.Contains(text, variable) {
			return
		}
		if groups := pattern.FindStringSubmatch(text); len(groups) == 2 {
			blocks = append(blocks, []byte(groups[1]))
		}
	})
	if len(blocks) == 0 {
		return nil, ErrNoStateBlock
	}
	return blocks, nil
}

// ParsePayload decodes an extracted block. Blocks written as JavaScript
// object literals rather than strict JSON are normalized through json5.
func ParsePayload(block []byte) (*models.RegionTariffPayload, error) {
	payload, err := models.DecodePayload(block)
	if err == nil || stderrors.Is(err, models.ErrNoTariffList) {
		return payload, err
	}

	var loose any
	if json5.Unmarshal(block, &loose) != nil {
		return nil, err
	}
	normalized, mErr := json.Marshal(loose)
	if mErr != nil {
		return nil, mErr
	}
	return models.DecodeNormalizedPayload(normalized, bytes.TrimSpace(block))
}
