// Package catalog loads the domestic-source catalog from files, object storage or SQL
// tables and publishes it to request handlers once loading has finished.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/A-Yoshitsugu/crossborder/internal/domain"
)

// column names accepted for each candidate field, checked in order
var columnAliases = map[string][]string{
	"id":           {"id", "jp_id", "candidate_id", "sku"},
	"title":        {"title", "jp_title", "name"},
	"unit_price":   {"unit_price", "jp_price_jpy", "price_jpy", "price"},
	"weight_g":     {"weight_g", "weight_grams", "weight"},
	"thickness_cm": {"thickness_cm", "thickness"},
	"url":          {"url", "jp_url"},
}

var requiredColumns = []string{"id", "title", "unit_price", "weight_g", "thickness_cm"}

// ParseCSV reads a header-led CSV catalog.
// Rows whose numeric cells do not parse are returned as record errors; indexes are
// zero-based data row positions. A missing required column fails the whole file.
func ParseCSV(r io.Reader) ([]domain.CatalogCandidate, []domain.RecordError, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, errors.New("catalog csv: empty file")
		}
		return nil, nil, fmt.Errorf("catalog csv: read header: %w", err)
	}

	cols, err := resolveColumns(header)
	if err != nil {
		return nil, nil, err
	}

	var (
		candidates []domain.CatalogCandidate
		rejected   []domain.RecordError
	)
	row := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("catalog csv: row %d: %w", row, err)
		}
		if blankRecord(record) {
			continue
		}

		cand, err := parseRecord(record, cols)
		if err != nil {
			rejected = append(rejected, domain.RecordError{Index: row, ID: cand.ID, Err: err})
		} else {
			candidates = append(candidates, cand)
		}
		row++
	}

	return candidates, rejected, nil
}

func resolveColumns(header []string) (map[string]int, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, seen := positions[name]; !seen {
			positions[name] = i
		}
	}

	cols := make(map[string]int, len(columnAliases))
	for field, aliases := range columnAliases {
		for _, alias := range aliases {
			if i, ok := positions[alias]; ok {
				cols[field] = i
				break
			}
		}
	}

	var missing []string
	for _, field := range requiredColumns {
		if _, ok := cols[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("catalog csv: missing required columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func parseRecord(record []string, cols map[string]int) (domain.CatalogCandidate, error) {
	cell := func(field string) string {
		i, ok := cols[field]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	cand := domain.CatalogCandidate{
		ID:    cell("id"),
		Title: cell("title"),
		URL:   cell("url"),
	}

	var err error
	if cand.UnitPrice, err = parseNumber("unit_price", cell("unit_price")); err != nil {
		return cand, err
	}
	if cand.WeightGrams, err = parseNumber("weight_g", cell("weight_g")); err != nil {
		return cand, err
	}
	if cand.ThicknessCm, err = parseNumber("thickness_cm", cell("thickness_cm")); err != nil {
		return cand, err
	}
	return cand, nil
}

func parseNumber(field, raw string) (float64, error) {
	if raw == "" {
		return 0, &domain.ValidationError{Field: field, Reason: "is required"}
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0, &domain.ValidationError{Field: field, Reason: fmt.Sprintf("not a number: %q", raw)}
	}
	return v, nil
}

func blankRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
