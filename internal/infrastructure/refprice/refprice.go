// Package refprice provides reference sell-price resolvers for matches.
package refprice

import "github.com/A-Yoshitsugu/crossborder/internal/domain"

// Table is a static candidate id -> reference price lookup
type Table map[string]domain.RefPrice

// Resolve implements domain.RefPriceResolver by the match's candidate id
func (t Table) Resolve(m domain.MatchRecord) (domain.RefPrice, bool) {
	p, ok := t[m.CandidateID]
	return p, ok
}

// DemandPrices holds the prices each demand item observed in the target market,
// keyed by demand id. Every match is priced with its own demand item, so two
// demand items matched to one candidate keep their own sell prices.
type DemandPrices map[string]domain.RefPrice

// Resolve implements domain.RefPriceResolver by the match's demand id
func (d DemandPrices) Resolve(m domain.MatchRecord) (domain.RefPrice, bool) {
	p, ok := d[m.DemandID]
	return p, ok
}

// FromDemand collects the demand items' own observed prices.
// A repeated demand id keeps its first occurrence.
func FromDemand(items []domain.DemandItem) DemandPrices {
	d := make(DemandPrices, len(items))
	for _, it := range items {
		if _, seen := d[it.ID]; seen {
			continue
		}
		d[it.ID] = domain.RefPrice{P25: it.PriceP25, Median: it.PriceMedian}
	}
	return d
}

// Chain asks each resolver in turn and returns the first hit. Nil resolvers are skipped.
func Chain(resolvers ...domain.RefPriceResolver) domain.RefPriceResolver {
	return domain.RefPriceFunc(func(m domain.MatchRecord) (domain.RefPrice, bool) {
		for _, r := range resolvers {
			if r == nil {
				continue
			}
			if p, ok := r.Resolve(m); ok {
				return p, true
			}
		}
		return domain.RefPrice{}, false
	})
}
