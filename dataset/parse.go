package dataset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// csvSeparators are tried in order when sniffing a CSV file. The candidate
// that yields the widest header wins, so semicolon and tab exports parse into
// real columns instead of one glued-together column.
var csvSeparators = []rune{',', ';', '\t'}

// ParseCSV parses raw CSV bytes into a flat-table source, detecting both the
// encoding (UTF-8, falling back to Windows-1251) and the separator.
func ParseCSV(data []byte) (Source, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyDataset
	}

	candidates := make([][]byte, 0, 2)
	if utf8.Valid(data) {
		candidates = append(candidates, data)
	}
	if decoded, err := charmap.Windows1251.NewDecoder().Bytes(data); err == nil {
		candidates = append(candidates, decoded)
	}

	var best *tabularSource
	for _, text := range candidates {
		for _, sep := range csvSeparators {
			src, err := parseCSVWith(text, sep)
			if err != nil {
				continue
			}
			if best == nil || len(src.columns) > len(best.columns) {
				best = src
			}
			// A header containing invoice_id is unambiguous.
			if _, ok := src.colIdx["invoice_id"]; ok {
				return src, nil
			}
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: cannot parse CSV file", ErrUnrecognizedShape)
	}
	return best, nil
}

func parseCSVWith(data []byte, sep rune) (*tabularSource, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sep
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}

	header := make([]string, len(records[0]))
	for i, col := range records[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(col, "\uFEFF"))
	}
	return newTabularSource(header, records[1:]), nil
}

// ParseJSON parses raw JSON bytes into an object-list source. Accepted top
// levels are a plain array of invoice objects or an object wrapping the list
// under an "orders" key.
func ParseJSON(data []byte) (Source, error) {
	var parsed interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedShape, err)
	}

	switch t := parsed.(type) {
	case []interface{}:
		return &objectListSource{records: t}, nil
	case map[string]interface{}:
		if orders, ok := t["orders"].([]interface{}); ok {
			return &objectListSource{records: orders}, nil
		}
	}
	return nil, fmt.Errorf("%w: invalid JSON structure", ErrUnrecognizedShape)
}
