package demand

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/A-Yoshitsugu/crossborder/internal/domain"
)

// Row is one listing as returned by the upstream demand API
type Row struct {
	SGID          string                     `json:"sg_id"`
	ID            string                     `json:"id"`
	Title         string                     `json:"title"`
	Brand         string                     `json:"brand"`
	Attrs         map[string]json.RawMessage `json:"attrs"`
	PriceP25      *float64                   `json:"price_p25"`
	PriceMedian   *float64                   `json:"price_median"`
	Reviews30d    *int                       `json:"reviews_30d"`
	DemandIndex   *float64                   `json:"demand_index"`
	CompIntensity *float64                   `json:"comp_intensity"`
}

// MapRows converts upstream rows to demand items.
// A row that cannot be mapped is reported and the rest are still returned.
func MapRows(rows []Row) ([]domain.DemandItem, []domain.RecordError) {
	items := make([]domain.DemandItem, 0, len(rows))
	var failures []domain.RecordError
	for i, row := range rows {
		item, err := MapToDemandItem(row)
		if err != nil {
			failures = append(failures, domain.RecordError{Index: i, ID: row.identifier(), Err: err})
			continue
		}
		items = append(items, item)
	}
	return items, failures
}

// MapToDemandItem converts a single upstream row
func MapToDemandItem(row Row) (domain.DemandItem, error) {
	if row.PriceP25 == nil {
		return domain.DemandItem{}, &domain.ValidationError{Field: "price_p25", Reason: "is required"}
	}
	if row.PriceMedian == nil {
		return domain.DemandItem{}, &domain.ValidationError{Field: "price_median", Reason: "is required"}
	}

	attrs, err := mapAttributes(row.Attrs)
	if err != nil {
		return domain.DemandItem{}, err
	}

	item := domain.DemandItem{
		ID:            row.identifier(),
		Title:         strings.TrimSpace(row.Title),
		Brand:         strings.TrimSpace(row.Brand),
		Attributes:    attrs,
		PriceP25:      *row.PriceP25,
		PriceMedian:   *row.PriceMedian,
		Reviews30d:    row.Reviews30d,
		DemandIndex:   row.DemandIndex,
		CompIntensity: row.CompIntensity,
	}
	if err := item.Validate(); err != nil {
		return domain.DemandItem{}, err
	}
	return item, nil
}

func (r Row) identifier() string {
	if id := strings.TrimSpace(r.SGID); id != "" {
		return id
	}
	return strings.TrimSpace(r.ID)
}

func mapAttributes(raw map[string]json.RawMessage) (domain.Attributes, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	attrs := make(domain.Attributes, len(raw))
	for key, msg := range raw {
		if string(msg) == "null" {
			continue
		}
		var v domain.AttrValue
		if err := json.Unmarshal(msg, &v); err != nil {
			return nil, &domain.ValidationError{Field: fmt.Sprintf("attrs.%s", key), Reason: err.Error()}
		}
		attrs[key] = v
	}
	return attrs, nil
}
