package usecase

import (
	"context"
	"fmt"
	"image"
	"math"
	"regexp"
	"strings"

	"github.com/labellens/backend/internal/domain"
)

const (
	labelWeight = 0.7
	colorWeight = 0.3

	// Upper bound on Euclidean RGB distance, sqrt(3 * 255^2) rounded up.
	maxRGBDistance = 442.0

	// Only the top dominant colors of each palette take part in scoring.
	paletteSize = 5
)

// Labels that indicate the annotator recognized branding on the image.
var logoTokenPattern = regexp.MustCompile(`(?i)logo|brand|trademark`)

// LabelColorStrategy scores similarity from vision annotations: Jaccard
// overlap of the two label sets blended with dominant-color palette distance.
// Requires the external vision collaborator; errors from it (or one-sided
// missing annotations) surface as ErrVisionUnavailable so callers can fall
// back to the local hash strategy.
type LabelColorStrategy struct {
	vision domain.VisionClient
}

// NewLabelColorStrategy creates the annotation-backed strategy.
func NewLabelColorStrategy(vision domain.VisionClient) *LabelColorStrategy {
	return &LabelColorStrategy{vision: vision}
}

// Name identifies the strategy in results and logs.
func (s *LabelColorStrategy) Name() string { return "label_color" }

// Compare annotates both images and combines label and color similarity with
// fixed 0.7/0.3 weights, rounded to two decimals.
func (s *LabelColorStrategy) Compare(ctx context.Context, reference, capture image.Image) (*domain.SimilarityResult, error) {
	if s.vision == nil {
		return nil, fmt.Errorf("%w: no vision client configured", domain.ErrVisionUnavailable)
	}

	refAnn, err := s.vision.Annotate(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("%w: reference annotation: %v", domain.ErrVisionUnavailable, err)
	}
	capAnn, err := s.vision.Annotate(ctx, capture)
	if err != nil {
		return nil, fmt.Errorf("%w: capture annotation: %v", domain.ErrVisionUnavailable, err)
	}
	if refAnn == nil || capAnn == nil {
		return nil, fmt.Errorf("%w: incomplete annotations", domain.ErrVisionUnavailable)
	}

	labelSim := jaccardSimilarity(refAnn.Labels, capAnn.Labels)
	colorSim := paletteSimilarity(refAnn.Colors, capAnn.Colors)
	similarity := roundScore(labelWeight*labelSim + colorWeight*colorSim)

	return &domain.SimilarityResult{
		Similarity: similarity,
		Flags: []domain.SimilarityFlag{
			{Key: domain.FlagPackagingLayoutDiff, Present: similarity < 1.0},
			{Key: domain.FlagLogoMismatch, Present: !(hasLogoToken(refAnn.Labels) && hasLogoToken(capAnn.Labels))},
		},
		Verdict:  verdictFor(similarity),
		Strategy: s.Name(),
	}, nil
}

// jaccardSimilarity is intersection over union of the lower-cased label sets.
// Defined as 0 when both sets are empty.
func jaccardSimilarity(a, b []string) float64 {
	setA := lowerSet(a)
	setB := lowerSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}

	intersection := 0
	for label := range setA {
		if setB[label] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// paletteSimilarity maps each of the reference's top colors to its nearest
// capture color by Euclidean RGB distance and averages the normalized
// per-color similarities. Zero when either palette is empty.
func paletteSimilarity(reference, capture []domain.RGB) float64 {
	refTop := topColors(reference)
	capTop := topColors(capture)
	if len(refTop) == 0 || len(capTop) == 0 {
		return 0
	}

	var total float64
	for _, rc := range refTop {
		nearest := math.MaxFloat64
		for _, cc := range capTop {
			if d := rgbDistance(rc, cc); d < nearest {
				nearest = d
			}
		}
		if nearest > maxRGBDistance {
			nearest = maxRGBDistance
		}
		total += 1 - nearest/maxRGBDistance
	}
	return total / float64(len(refTop))
}

func topColors(colors []domain.RGB) []domain.RGB {
	if len(colors) > paletteSize {
		return colors[:paletteSize]
	}
	return colors
}

func rgbDistance(a, b domain.RGB) float64 {
	dr := float64(a.Red - b.Red)
	dg := float64(a.Green - b.Green)
	db := float64(a.Blue - b.Blue)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

func hasLogoToken(labels []string) bool {
	for _, label := range labels {
		if logoTokenPattern.MatchString(label) {
			return true
		}
	}
	return false
}

func lowerSet(labels []string) map[string]bool {
	set := make(map[string]bool, len(labels))
	for _, label := range labels {
		trimmed := strings.TrimSpace(strings.ToLower(label))
		if trimmed != "" {
			set[trimmed] = true
		}
	}
	return set
}
