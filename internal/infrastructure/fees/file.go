// Package fees loads fee rates, shipping bands and static reference prices from
// TOML and serves them as atomically swapped snapshots.
package fees

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/A-Yoshitsugu/crossborder/internal/domain"
)

// fileFormat mirrors the fee file. Rates left out keep the built-in default;
// a shipping_bands table, when present, replaces the default bands entirely.
type fileFormat struct {
	FXRate          *float64                   `toml:"fx_rate"`
	GSTRate         *float64                   `toml:"gst_rate"`
	PlatformFeeRate *float64                   `toml:"platform_fee_rate"`
	PaymentFeeRate  *float64                   `toml:"payment_fee_rate"`
	MarginThreshold *float64                   `toml:"gm_threshold"`
	ShippingBands   []domain.ShippingBand      `toml:"shipping_bands"`
	RefPrices       map[string]domain.RefPrice `toml:"ref_prices"`
}

// LoadFile reads and validates the fee file at path.
// An empty path yields the built-in defaults with no reference prices.
func LoadFile(path string) (domain.FeeSnapshot, error) {
	if path == "" {
		return domain.FeeSnapshot{Fees: domain.DefaultFeeConfig(), RefPrices: map[string]domain.RefPrice{}}, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.FeeSnapshot{}, fmt.Errorf("fees: read %s: %w", path, err)
	}
	snap, err := Parse(string(raw))
	if err != nil {
		return domain.FeeSnapshot{}, fmt.Errorf("fees: %s: %w", path, err)
	}
	return snap, nil
}

// Parse decodes TOML fee data on top of the defaults and validates the result
func Parse(data string) (domain.FeeSnapshot, error) {
	var f fileFormat
	md, err := toml.Decode(data, &f)
	if err != nil {
		return domain.FeeSnapshot{}, fmt.Errorf("decode toml: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return domain.FeeSnapshot{}, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}

	cfg := domain.DefaultFeeConfig()
	setIf(&cfg.FXRate, f.FXRate)
	setIf(&cfg.GSTRate, f.GSTRate)
	setIf(&cfg.PlatformFeeRate, f.PlatformFeeRate)
	setIf(&cfg.PaymentFeeRate, f.PaymentFeeRate)
	setIf(&cfg.MarginThreshold, f.MarginThreshold)
	if md.IsDefined("shipping_bands") {
		cfg.ShippingBands = f.ShippingBands
	}

	if err := cfg.Validate(); err != nil {
		return domain.FeeSnapshot{}, err
	}

	prices := make(map[string]domain.RefPrice, len(f.RefPrices))
	for id, p := range f.RefPrices {
		if err := p.Validate(); err != nil {
			return domain.FeeSnapshot{}, &domain.ConfigError{Field: "ref_prices." + id, Reason: err.Error()}
		}
		prices[id] = p
	}

	return domain.FeeSnapshot{Fees: cfg, RefPrices: prices}, nil
}

func setIf(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
