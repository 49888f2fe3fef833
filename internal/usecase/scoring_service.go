package usecase

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/A-Yoshitsugu/crossborder/internal/domain"
)

// Output precision for landed cost and gross margin
const (
	landedCostPlaces  = 2
	grossMarginPlaces = 3
)

// CostBreakdown is the full cost math for one match, before rounding
type CostBreakdown struct {
	SourceCost  float64 `json:"source_cost"`
	ShipCost    float64 `json:"ship_cost"`
	CIF         float64 `json:"cif"`
	Tax         float64 `json:"tax"`
	SellPrice   float64 `json:"sell_price"`
	PlatformFee float64 `json:"platform_fee"`
	PaymentFee  float64 `json:"payment_fee"`
	LandedCost  float64 `json:"landed_cost"`
	GrossMargin float64 `json:"gross_margin"`
}

// ComputeCosts runs the landed-cost and margin math for one match.
// The median reference price is the sell price; a zero sell price is a *domain.ConfigError.
func ComputeCosts(m domain.MatchRecord, ref domain.RefPrice, fees domain.FeeConfig) (CostBreakdown, error) {
	var b CostBreakdown

	b.SourceCost = m.UnitPrice * fees.FXRate
	b.ShipCost = EstimateShipCost(m.WeightGrams, m.ThicknessCm, fees.ShippingBands)
	b.CIF = b.SourceCost + b.ShipCost
	b.Tax = b.CIF * fees.GSTRate
	b.SellPrice = ref.Median
	b.PlatformFee = b.SellPrice * fees.PlatformFeeRate
	b.PaymentFee = b.SellPrice * fees.PaymentFeeRate
	b.LandedCost = b.SourceCost + b.ShipCost + b.Tax + b.PlatformFee + b.PaymentFee

	if b.SellPrice == 0 {
		return b, &domain.ConfigError{
			Field:  "sell_price",
			Reason: fmt.Sprintf("reference median price for candidate %q is zero", m.CandidateID),
		}
	}
	b.GrossMargin = max(0, (b.SellPrice-b.LandedCost)/b.SellPrice)

	if !isFinite(b.LandedCost) || !isFinite(b.GrossMargin) {
		return b, &domain.ValidationError{
			Field:  "landed_cost",
			Reason: "cost math overflowed; unit price or rates out of range",
		}
	}

	return b, nil
}

// ScoringService turns matches into ranked, threshold-filtered opportunities
type ScoringService struct {
	logger *zap.Logger
}

// ScoreResult holds the rows that cleared the threshold and the rejected records
type ScoreResult struct {
	Rows     []domain.ScoredRow
	Failures []domain.RecordError
}

// NewScoringService creates a new scoring service
func NewScoringService(logger *zap.Logger) *ScoringService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScoringService{logger: logger.Named("scorer")}
}

// Score prices every match and keeps the rows whose rounded margin meets fees.MarginThreshold,
// sorted by margin descending with ties in input order.
//
// An invalid fee configuration or a zero sell price aborts the call with a *domain.ConfigError.
// Malformed matches and matches without a reference price are reported per record.
// Rows below the threshold are dropped without error.
func (s *ScoringService) Score(
	matches []domain.MatchRecord,
	prices domain.RefPriceResolver,
	fees domain.FeeConfig,
) (*ScoreResult, error) {
	if err := fees.Validate(); err != nil {
		return nil, err
	}
	if prices == nil {
		return nil, &domain.ConfigError{Field: "ref_prices", Reason: "no reference price resolver configured"}
	}

	result := &ScoreResult{Rows: make([]domain.ScoredRow, 0, len(matches))}
	dropped := 0

	for i, m := range matches {
		if err := m.Validate(); err != nil {
			result.Failures = append(result.Failures, s.reject(i, m, err))
			continue
		}

		ref, ok := prices.Resolve(m)
		if !ok {
			result.Failures = append(result.Failures, s.reject(i, m, &domain.ValidationError{
				Field:  "candidate_id",
				Reason: fmt.Sprintf("no reference price for candidate %q", m.CandidateID),
			}))
			continue
		}
		if err := ref.Validate(); err != nil {
			result.Failures = append(result.Failures, s.reject(i, m, err))
			continue
		}

		costs, err := ComputeCosts(m, ref, fees)
		if errors.Is(err, domain.ErrValidation) {
			result.Failures = append(result.Failures, s.reject(i, m, err))
			continue
		}
		if err != nil {
			return nil, err
		}

		landed := roundTo(costs.LandedCost, landedCostPlaces)
		margin := roundTo(costs.GrossMargin, grossMarginPlaces)
		if margin < fees.MarginThreshold {
			dropped++
			continue
		}

		result.Rows = append(result.Rows, domain.ScoredRow{
			DemandID:     m.DemandID,
			CandidateID:  m.CandidateID,
			SellPriceRef: ref,
			LandedCost:   landed,
			GrossMargin:  margin,
			URL:          m.URL,
			Score:        margin,
		})
	}

	sort.SliceStable(result.Rows, func(i, j int) bool {
		return result.Rows[i].Score > result.Rows[j].Score
	})

	s.logger.Debug("scored matches",
		zap.Int("input", len(matches)),
		zap.Int("kept", len(result.Rows)),
		zap.Int("below_threshold", dropped),
		zap.Int("rejected", len(result.Failures)))

	return result, nil
}

func (s *ScoringService) reject(i int, m domain.MatchRecord, err error) domain.RecordError {
	s.logger.Warn("rejected match",
		zap.Int("index", i),
		zap.String("demand_id", m.DemandID),
		zap.String("candidate_id", m.CandidateID),
		zap.Error(err))
	return domain.RecordError{Index: i, ID: m.DemandID, Err: err}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// roundTo rounds half away from zero in decimal, so binary noise such as
// 0.49999999999999994 lands on the intended boundary.
func roundTo(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
