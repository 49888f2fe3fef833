package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/A-Yoshitsugu/crossborder/internal/domain"
)

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	StripNoiseWords    bool
	EnableDebugLogging bool
}

// MatchingService picks the catalog candidate whose title is most similar to each demand item
type MatchingService struct {
	normalizer         *TitleNormalizer
	enableDebugLogging bool
	logger             *zap.Logger
}

// MatchResult holds one record per valid demand item plus the rejected items
type MatchResult struct {
	Matches  []domain.MatchRecord
	Failures []domain.RecordError
}

// NewMatchingService creates a new matching service with the given configuration
func NewMatchingService(config MatchConfig, logger *zap.Logger) *MatchingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("matcher")

	return &MatchingService{
		normalizer:         NewTitleNormalizer(config.StripNoiseWords, logger),
		enableDebugLogging: config.EnableDebugLogging,
		logger:             logger,
	}
}

// catalogTokens is the per-request view of the catalog: normalized title tokens by position.
// It is discarded when the request finishes and never written back to the candidates.
type catalogTokens [][]string

func (s *MatchingService) tokenizeCatalog(catalog *domain.Catalog) catalogTokens {
	tokens := make(catalogTokens, catalog.Len())
	for i := range tokens {
		tokens[i] = tokenSet(s.normalizer.Normalize(catalog.At(i).Title))
	}
	return tokens
}

// Match produces one MatchRecord per demand item. Items are independent: an invalid
// item is reported in Failures and the rest of the batch is still matched.
// An empty catalog fails the whole call with a *domain.NoCandidatesError.
func (s *MatchingService) Match(
	ctx context.Context,
	items []domain.DemandItem,
	catalog *domain.Catalog,
) (*MatchResult, error) {
	if catalog.Len() == 0 {
		return nil, &domain.NoCandidatesError{DemandItems: len(items)}
	}

	tokens := s.tokenizeCatalog(catalog)
	result := &MatchResult{
		Matches: make([]domain.MatchRecord, 0, len(items)),
	}

	for i, item := range items {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := item.Validate(); err != nil {
			s.logger.Warn("rejected demand item",
				zap.Int("index", i),
				zap.String("demand_id", item.ID),
				zap.Error(err))
			result.Failures = append(result.Failures, domain.RecordError{Index: i, ID: item.ID, Err: err})
			continue
		}

		result.Matches = append(result.Matches, s.bestMatch(item, catalog, tokens))
	}

	return result, nil
}

// FindBestMatch matches a single demand item against the catalog
func (s *MatchingService) FindBestMatch(
	ctx context.Context,
	item domain.DemandItem,
	catalog *domain.Catalog,
) (*domain.MatchRecord, error) {
	res, err := s.Match(ctx, []domain.DemandItem{item}, catalog)
	if err != nil {
		return nil, err
	}
	if len(res.Failures) > 0 {
		return nil, res.Failures[0]
	}
	return &res.Matches[0], nil
}

// bestMatch scans the catalog in order and keeps the first candidate with the highest score.
// The scan never re-sorts, so ties resolve to the earliest candidate.
func (s *MatchingService) bestMatch(
	item domain.DemandItem,
	catalog *domain.Catalog,
	tokens catalogTokens,
) domain.MatchRecord {
	itemTokens := tokenSet(s.normalizer.Normalize(item.Title))

	bestIdx := 0
	highestScore := -1.0 // so a score of 0 still selects the first candidate

	for i := range tokens {
		score := tokenSetRatio(itemTokens, tokens[i])

		if s.enableDebugLogging {
			s.logger.Debug("candidate scored",
				zap.String("demand_id", item.ID),
				zap.String("candidate_id", catalog.At(i).ID),
				zap.Float64("similarity", score))
		}

		if score > highestScore {
			highestScore = score
			bestIdx = i
		}
	}

	best := catalog.At(bestIdx)
	if s.enableDebugLogging {
		s.logger.Debug("best match",
			zap.String("demand_id", item.ID),
			zap.String("candidate_id", best.ID),
			zap.Float64("similarity", highestScore))
	}

	return domain.MatchRecord{
		DemandID:    item.ID,
		CandidateID: best.ID,
		UnitPrice:   best.UnitPrice,
		Similarity:  highestScore,
		WeightGrams: best.WeightGrams,
		ThicknessCm: best.ThicknessCm,
		URL:         best.URL,
	}
}
