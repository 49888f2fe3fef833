package usecase

import "github.com/A-Yoshitsugu/crossborder/internal/domain"

// EstimateShipCost returns the cheapest band whose weight and thickness limits both
// contain the parcel (limits are inclusive). When no band contains it, the most
// expensive band is charged instead of failing. An empty band list costs 0;
// FeeConfig.Validate rejects that case before scoring.
func EstimateShipCost(weightGrams, thicknessCm float64, bands []domain.ShippingBand) float64 {
	if len(bands) == 0 {
		return 0
	}

	found := false
	cheapest := 0.0
	worst := bands[0].Cost

	for _, b := range bands {
		worst = max(worst, b.Cost)
		if weightGrams <= b.MaxWeightGrams && thicknessCm <= b.MaxThicknessCm {
			if !found || b.Cost < cheapest {
				cheapest = b.Cost
				found = true
			}
		}
	}

	if !found {
		return worst
	}
	return cheapest
}
