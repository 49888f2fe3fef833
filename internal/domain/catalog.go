package domain

import (
	"fmt"
	"strings"
)

// CatalogCandidate is a domestic-source item that demand items are matched against.
// Prices are in source currency; weight in grams, thickness in centimetres.
type CatalogCandidate struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	UnitPrice   float64 `json:"unit_price"`
	WeightGrams float64 `json:"weight_g"`
	ThicknessCm float64 `json:"thickness_cm"`
	URL         string  `json:"url,omitempty"`
}

// Validate rejects candidates that could not be priced
func (c CatalogCandidate) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return &ValidationError{Field: "id", Reason: "must not be empty"}
	}
	if err := nonNegative("unit_price", c.UnitPrice); err != nil {
		return err
	}
	if err := nonNegative("weight_g", c.WeightGrams); err != nil {
		return err
	}
	return nonNegative("thickness_cm", c.ThicknessCm)
}

// Catalog is an immutable, ordered set of candidates.
// Iteration order is load order; matching relies on it for tie-breaks.
type Catalog struct {
	candidates []CatalogCandidate
	index      map[string]int
}

// NewCatalog copies the valid candidates into a new Catalog.
// Invalid rows and duplicate ids are returned as record errors and left out.
func NewCatalog(candidates []CatalogCandidate) (*Catalog, []RecordError) {
	c := &Catalog{
		candidates: make([]CatalogCandidate, 0, len(candidates)),
		index:      make(map[string]int, len(candidates)),
	}

	var rejected []RecordError
	for i, cand := range candidates {
		if err := cand.Validate(); err != nil {
			rejected = append(rejected, RecordError{Index: i, ID: cand.ID, Err: err})
			continue
		}
		if _, dup := c.index[cand.ID]; dup {
			rejected = append(rejected, RecordError{
				Index: i,
				ID:    cand.ID,
				Err:   &ValidationError{Field: "id", Reason: fmt.Sprintf("duplicate candidate id %q", cand.ID)},
			})
			continue
		}
		c.index[cand.ID] = len(c.candidates)
		c.candidates = append(c.candidates, cand)
	}

	return c, rejected
}

// Len returns the number of candidates. A nil catalog is empty.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.candidates)
}

// At returns the i-th candidate in catalog order
func (c *Catalog) At(i int) CatalogCandidate {
	return c.candidates[i]
}

// Lookup finds a candidate by id
func (c *Catalog) Lookup(id string) (CatalogCandidate, bool) {
	if c == nil {
		return CatalogCandidate{}, false
	}
	i, ok := c.index[id]
	if !ok {
		return CatalogCandidate{}, false
	}
	return c.candidates[i], true
}

// Candidates returns a copy of the candidates in catalog order
func (c *Catalog) Candidates() []CatalogCandidate {
	if c == nil {
		return nil
	}
	out := make([]CatalogCandidate, len(c.candidates))
	copy(out, c.candidates)
	return out
}
