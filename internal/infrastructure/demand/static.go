package demand

import (
	"context"
	"slices"

	"github.com/A-Yoshitsugu/crossborder/internal/domain"
)

// StaticProvider serves a fixed set of demand items regardless of the query.
// It backs local runs when no demand API is configured.
type StaticProvider struct {
	items []domain.DemandItem
}

// NewStaticProvider returns a provider over items, or over the demo fixture when items is nil
func NewStaticProvider(items []domain.DemandItem) *StaticProvider {
	if items == nil {
		items = DemoItems()
	}
	return &StaticProvider{items: items}
}

// FetchDemand returns a copy of the fixture. Categories are not used for filtering.
func (p *StaticProvider) FetchDemand(ctx context.Context, _ domain.DemandQuery) ([]domain.DemandItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slices.Clone(p.items), nil
}

// DemoItems returns the two demonstration listings
func DemoItems() []domain.DemandItem {
	reviewsWashi, reviewsTenugui := 74, 21
	demandWashi, demandTenugui := 0.78, 0.52
	compWashi, compTenugui := 0.35, 0.20

	return []domain.DemandItem{
		{
			ID:    "sg_123",
			Title: "Washi Tape Sakura",
			Brand: "BrandA",
			Attributes: domain.Attributes{
				"material": domain.StringAttr("paper"),
				"width_mm": domain.NumberAttr(15),
			},
			PriceP25:      6.2,
			PriceMedian:   8.5,
			Reviews30d:    &reviewsWashi,
			DemandIndex:   &demandWashi,
			CompIntensity: &compWashi,
		},
		{
			ID:    "sg_456",
			Title: "Tenugui A",
			Brand: "BrandB",
			Attributes: domain.Attributes{
				"material": domain.StringAttr("cotton"),
			},
			PriceP25:      12.0,
			PriceMedian:   16.0,
			Reviews30d:    &reviewsTenugui,
			DemandIndex:   &demandTenugui,
			CompIntensity: &compTenugui,
		},
	}
}

var _ domain.DemandProvider = (*StaticProvider)(nil)
