package domain

import (
	"math"
	"strings"
)

// MatchRecord pairs a demand item with its best catalog candidate.
// Similarity is the maximum over the whole catalog for that demand item.
type MatchRecord struct {
	DemandID    string  `json:"demand_id" binding:"required"`
	CandidateID string  `json:"candidate_id" binding:"required"`
	UnitPrice   float64 `json:"unit_price"`
	Similarity  float64 `json:"similarity"`
	WeightGrams float64 `json:"weight_g"`
	ThicknessCm float64 `json:"thickness_cm"`
	URL         string  `json:"url,omitempty"`
}

// Validate rejects records the scorer cannot price
func (m MatchRecord) Validate() error {
	if strings.TrimSpace(m.DemandID) == "" {
		return &ValidationError{Field: "demand_id", Reason: "must not be empty"}
	}
	if strings.TrimSpace(m.CandidateID) == "" {
		return &ValidationError{Field: "candidate_id", Reason: "must not be empty"}
	}
	if err := nonNegative("unit_price", m.UnitPrice); err != nil {
		return err
	}
	if err := nonNegative("weight_g", m.WeightGrams); err != nil {
		return err
	}
	if err := nonNegative("thickness_cm", m.ThicknessCm); err != nil {
		return err
	}
	if math.IsNaN(m.Similarity) || m.Similarity < 0 || m.Similarity > 1 {
		return &ValidationError{Field: "similarity", Reason: "must be within [0,1]"}
	}
	return nil
}

// RefPrice holds reference selling prices in the target market.
// Only Median feeds the cost math; P25 is reported for context.
type RefPrice struct {
	P25    float64 `json:"p25" toml:"p25"`
	Median float64 `json:"median" toml:"median"`
}

func (r RefPrice) Validate() error {
	if err := nonNegative("p25", r.P25); err != nil {
		return err
	}
	return nonNegative("median", r.Median)
}

// ScoredRow is a match that cleared the margin threshold.
// LandedCost is rounded to 2 places, GrossMargin to 3; Score equals GrossMargin.
type ScoredRow struct {
	DemandID     string   `json:"demand_id"`
	CandidateID  string   `json:"candidate_id"`
	SellPriceRef RefPrice `json:"sell_price_ref"`
	LandedCost   float64  `json:"landed_cost"`
	GrossMargin  float64  `json:"gm"`
	URL          string   `json:"url,omitempty"`
	Score        float64  `json:"score"`
}

// OpportunityReport is the output of one demand -> match -> score run
type OpportunityReport struct {
	RunID       string        `json:"run_id"`
	Query       DemandQuery   `json:"query"`
	DemandItems int           `json:"demand_items"`
	Matches     []MatchRecord `json:"matches"`
	Scored      []ScoredRow   `json:"scored"`
	Failures    []RecordError `json:"failures"`
}
