package usecase

import (
	"context"
	"fmt"
	"image"
	"math/bits"

	"github.com/disintegration/imaging"
	"github.com/labellens/backend/internal/domain"
)

const hashGridSize = 8

// AverageHashStrategy compares two images through 64-bit average-hash
// fingerprints. Fully local, no external collaborator, always available.
type AverageHashStrategy struct{}

// NewAverageHashStrategy creates the local perceptual-hash strategy.
func NewAverageHashStrategy() *AverageHashStrategy {
	return &AverageHashStrategy{}
}

// Name identifies the strategy in results and logs.
func (s *AverageHashStrategy) Name() string { return "average_hash" }

// Compare fingerprints both images and scores them by Hamming distance:
// similarity = 1 - distance/64, rounded to two decimals.
func (s *AverageHashStrategy) Compare(ctx context.Context, reference, capture image.Image) (*domain.SimilarityResult, error) {
	if reference == nil || capture == nil {
		return nil, fmt.Errorf("%w: missing image", domain.ErrImageProcessing)
	}

	distance := bits.OnesCount64(averageHash(reference) ^ averageHash(capture))
	similarity := roundScore(1 - float64(distance)/64)

	return &domain.SimilarityResult{
		Similarity: similarity,
		Flags: []domain.SimilarityFlag{
			{Key: domain.FlagPackagingLayoutDiff, Present: distance > 0},
		},
		Verdict:  verdictFor(similarity),
		Strategy: s.Name(),
	}, nil
}

// averageHash renders the image to an 8x8 grayscale grid using standard
// luminance weights and thresholds each cell against the grid mean.
// Bits are assigned in raster order, most significant bit first.
func averageHash(img image.Image) uint64 {
	small := imaging.Resize(img, hashGridSize, hashGridSize, imaging.Lanczos)

	var gray [hashGridSize * hashGridSize]float64
	var sum float64
	for y := 0; y < hashGridSize; y++ {
		for x := 0; x < hashGridSize; x++ {
			c := small.NRGBAAt(x, y)
			lum := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
			gray[y*hashGridSize+x] = lum
			sum += lum
		}
	}
	mean := sum / float64(hashGridSize*hashGridSize)

	var hash uint64
	for i, lum := range gray {
		if lum >= mean {
			hash |= 1 << uint(63-i)
		}
	}
	return hash
}
