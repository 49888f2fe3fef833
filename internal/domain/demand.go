package domain

import (
	"math"
	"strings"
)

// DemandItem is a foreign-market listing with observed selling prices.
// Produced by the demand-data provider; read-only to matching and scoring.
type DemandItem struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Brand         string     `json:"brand,omitempty"`
	Attributes    Attributes `json:"attrs,omitempty"`
	PriceP25      float64    `json:"price_p25"`
	PriceMedian   float64    `json:"price_median"`
	Reviews30d    *int       `json:"reviews_30d,omitempty"`
	DemandIndex   *float64   `json:"demand_index,omitempty"`
	CompIntensity *float64   `json:"comp_intensity,omitempty"`
}

// DemandQuery selects demand items by category over a lookback window
type DemandQuery struct {
	Categories []string `json:"categories"`
	Days       int      `json:"days"`
}

// Validate checks the fields matching and scoring rely on
func (d DemandItem) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return &ValidationError{Field: "id", Reason: "must not be empty"}
	}
	if err := nonNegative("price_p25", d.PriceP25); err != nil {
		return err
	}
	if err := nonNegative("price_median", d.PriceMedian); err != nil {
		return err
	}
	if d.Reviews30d != nil && *d.Reviews30d < 0 {
		return &ValidationError{Field: "reviews_30d", Reason: "must not be negative"}
	}
	if d.DemandIndex != nil {
		if err := nonNegative("demand_index", *d.DemandIndex); err != nil {
			return err
		}
	}
	if d.CompIntensity != nil {
		if err := nonNegative("comp_intensity", *d.CompIntensity); err != nil {
			return err
		}
	}
	return nil
}

func nonNegative(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &ValidationError{Field: field, Reason: "must be a finite number"}
	}
	if v < 0 {
		return &ValidationError{Field: field, Reason: "must not be negative"}
	}
	return nil
}
