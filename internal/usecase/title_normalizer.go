package usecase

import (
	"regexp"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

// Compiled regex patterns for listing-title noise
var (
	// Matches size/quantity patterns like "15mm", "5 m", "250 ml", "1.5 kg", "40g"
	sizeQuantityPattern = regexp.MustCompile(`\b\d+(?:\.\d+)?\s*(?:mm|cm|m|ml|l|g|kg|oz)\b`)

	// Matches pack/count patterns like "3 pack", "pack of 6", "10pcs", "set of 4"
	packCountPattern = regexp.MustCompile(`\b\d+\s*[-]?\s*(?:pack|pk|pcs|pc|count|ct|rolls?|sheets?)\b|\b(?:pack|set)\s+of\s+\d+\b`)
)

// titleNoiseWords are marketplace filler terms that carry no product identity
var titleNoiseWords = map[string]bool{
	"new": true, "hot": true, "sale": true, "free": true, "shipping": true,
	"authentic": true, "genuine": true, "original": true, "official": true,
	"japan": true, "japanese": true, "import": true, "imported": true,
	"premium": true, "quality": true, "best": true, "seller": true,
	"ready": true, "stock": true, "local": true, "fast": true, "delivery": true,
}

// TitleNormalizer prepares listing titles for token-set comparison
type TitleNormalizer struct {
	stripNoise bool
	logger     *zap.Logger
}

// NewTitleNormalizer creates a normalizer. With stripNoise set, sizes, pack counts
// and marketplace filler words are removed before tokenizing.
func NewTitleNormalizer(stripNoise bool, logger *zap.Logger) *TitleNormalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TitleNormalizer{stripNoise: stripNoise, logger: logger}
}

// Normalize lower-cases the title, replaces every non letter/digit with a space
// and collapses whitespace.
func (n *TitleNormalizer) Normalize(title string) string {
	if title == "" {
		return ""
	}

	cleaned := strings.ToLower(title)
	if n.stripNoise {
		cleaned = sizeQuantityPattern.ReplaceAllString(cleaned, " ")
		cleaned = packCountPattern.ReplaceAllString(cleaned, " ")
	}

	cleaned = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, cleaned)

	words := strings.Fields(cleaned)
	if n.stripNoise {
		kept := words[:0]
		for _, w := range words {
			if !titleNoiseWords[w] {
				kept = append(kept, w)
			}
		}
		words = kept
	}

	out := strings.Join(words, " ")
	if ce := n.logger.Check(zap.DebugLevel, "normalized title"); ce != nil {
		ce.Write(zap.String("input", title), zap.String("output", out))
	}
	return out
}
