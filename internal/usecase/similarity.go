package usecase

import (
	"context"
	"errors"
	"image"
	"log"
	"math"

	"github.com/labellens/backend/internal/domain"
)

// Verdict thresholds are inclusive lower bounds on the rounded score.
const (
	likelyMatchThreshold  = 0.85
	warningMatchThreshold = 0.70
)

// SimilarityStrategy compares a reference product image against a user capture.
// Strategies share one output contract but may emit different flag sets.
type SimilarityStrategy interface {
	Name() string
	Compare(ctx context.Context, reference, capture image.Image) (*domain.SimilarityResult, error)
}

// SimilarityService tries an ordered list of strategies and returns the first
// success. A strategy whose external collaborator is unavailable falls through
// to the next one; image processing failures are terminal for the comparison.
type SimilarityService struct {
	strategies []SimilarityStrategy
}

// NewSimilarityService creates a similarity service over the given strategies,
// tried in argument order.
func NewSimilarityService(strategies ...SimilarityStrategy) *SimilarityService {
	return &SimilarityService{strategies: strategies}
}

// Compare scores the visual similarity of two fully loaded images.
func (s *SimilarityService) Compare(ctx context.Context, reference, capture image.Image) (*domain.SimilarityResult, error) {
	if reference == nil || capture == nil {
		return nil, domain.ErrInvalidRequest
	}

	var lastErr error
	for _, strategy := range s.strategies {
		result, err := strategy.Compare(ctx, reference, capture)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, domain.ErrVisionUnavailable) {
			log.Printf("[SIMILARITY] %s strategy unavailable, falling back: %v", strategy.Name(), err)
			lastErr = err
			continue
		}
		return nil, err
	}

	if lastErr == nil {
		lastErr = domain.ErrInvalidRequest
	}
	return nil, lastErr
}

// verdictFor maps a rounded similarity score to its verdict bucket.
func verdictFor(similarity float64) string {
	switch {
	case similarity >= likelyMatchThreshold:
		return domain.VerdictLikelyMatch
	case similarity >= warningMatchThreshold:
		return domain.VerdictLikelyMatchWithWarnings
	default:
		return domain.VerdictMismatch
	}
}

// roundScore rounds a similarity score to two decimals.
func roundScore(v float64) float64 {
	return math.Round(v*100) / 100
}
