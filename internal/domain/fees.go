package domain

import (
	"fmt"
	"math"
	"slices"
)

// MaxFXRate bounds the source -> target currency rate. No real currency pair
// comes near it, so anything larger is a unit mistake.
const MaxFXRate = 1e6

// ShippingBand is an inclusive weight/thickness ceiling with a flat cost in target currency
type ShippingBand struct {
	MaxWeightGrams float64 `json:"max_weight_g" toml:"max_weight_g"`
	MaxThicknessCm float64 `json:"max_thickness_cm" toml:"max_thickness_cm"`
	Cost           float64 `json:"cost" toml:"cost"`
}

// FeeConfig holds the rates used to turn a match into landed cost and margin.
// FXRate converts source currency into target currency.
type FeeConfig struct {
	FXRate          float64        `json:"fx_rate" toml:"fx_rate"`
	GSTRate         float64        `json:"gst_rate" toml:"gst_rate"`
	PlatformFeeRate float64        `json:"platform_fee_rate" toml:"platform_fee_rate"`
	PaymentFeeRate  float64        `json:"payment_fee_rate" toml:"payment_fee_rate"`
	MarginThreshold float64        `json:"gm_threshold" toml:"gm_threshold"`
	ShippingBands   []ShippingBand `json:"shipping_bands" toml:"shipping_bands"`
}

// FeeOverrides are request-level values that take precedence over the process defaults.
// Absent fields fall back; an explicit zero is honoured (and then validated).
type FeeOverrides struct {
	FXRate          OptionalFloat `json:"fx_rate"`
	GSTRate         OptionalFloat `json:"gst_rate"`
	PlatformFeeRate OptionalFloat `json:"platform_fee_rate"`
	PaymentFeeRate  OptionalFloat `json:"payment_fee_rate"`
	MarginThreshold OptionalFloat `json:"gm_threshold"`
}

// FeeSnapshot is one consistent view of the fee configuration and the static reference prices
type FeeSnapshot struct {
	Fees      FeeConfig
	RefPrices map[string]RefPrice
}

// DefaultFeeConfig returns the built-in JPY -> SGD small-parcel defaults
func DefaultFeeConfig() FeeConfig {
	return FeeConfig{
		FXRate:          0.009,
		GSTRate:         0.08,
		PlatformFeeRate: 0.08,
		PaymentFeeRate:  0.035,
		MarginThreshold: 0.5,
		ShippingBands: []ShippingBand{
			{MaxWeightGrams: 50, MaxThicknessCm: 2, Cost: 2.2},
			{MaxWeightGrams: 100, MaxThicknessCm: 3, Cost: 3.1},
			{MaxWeightGrams: 250, MaxThicknessCm: 3, Cost: 4.4},
			{MaxWeightGrams: 500, MaxThicknessCm: 5, Cost: 6.8},
			{MaxWeightGrams: 1000, MaxThicknessCm: 10, Cost: 10.5},
			{MaxWeightGrams: 2000, MaxThicknessCm: 20, Cost: 16.0},
		},
	}
}

// Apply returns a copy of f with the supplied overrides applied
func (f FeeConfig) Apply(o FeeOverrides) FeeConfig {
	out := f
	out.ShippingBands = slices.Clone(f.ShippingBands)
	out.FXRate = o.FXRate.Or(f.FXRate)
	out.GSTRate = o.GSTRate.Or(f.GSTRate)
	out.PlatformFeeRate = o.PlatformFeeRate.Or(f.PlatformFeeRate)
	out.PaymentFeeRate = o.PaymentFeeRate.Or(f.PaymentFeeRate)
	out.MarginThreshold = o.MarginThreshold.Or(f.MarginThreshold)
	return out
}

// Validate returns a *ConfigError for the first structurally invalid field
func (f FeeConfig) Validate() error {
	if !finite(f.FXRate) || f.FXRate <= 0 || f.FXRate > MaxFXRate {
		return &ConfigError{Field: "fx_rate", Reason: fmt.Sprintf("must be within (0,%g]", MaxFXRate)}
	}
	rates := []struct {
		field string
		v     float64
	}{
		{"gst_rate", f.GSTRate},
		{"platform_fee_rate", f.PlatformFeeRate},
		{"payment_fee_rate", f.PaymentFeeRate},
	}
	for _, r := range rates {
		if !finite(r.v) || r.v < 0 || r.v >= 1 {
			return &ConfigError{Field: r.field, Reason: "must be within [0,1)"}
		}
	}
	if !finite(f.MarginThreshold) || f.MarginThreshold < 0 || f.MarginThreshold > 1 {
		return &ConfigError{Field: "gm_threshold", Reason: "must be within [0,1]"}
	}
	if len(f.ShippingBands) == 0 {
		return &ConfigError{Field: "shipping_bands", Reason: "at least one band is required"}
	}
	for i, b := range f.ShippingBands {
		if !finite(b.MaxWeightGrams) || b.MaxWeightGrams <= 0 || !finite(b.MaxThicknessCm) || b.MaxThicknessCm <= 0 {
			return &ConfigError{Field: fmt.Sprintf("shipping_bands[%d]", i), Reason: "limits must be greater than zero"}
		}
		if !finite(b.Cost) || b.Cost < 0 {
			return &ConfigError{Field: fmt.Sprintf("shipping_bands[%d]", i), Reason: "cost must not be negative"}
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
