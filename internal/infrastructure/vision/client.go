package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/disintegration/imaging"
	"github.com/labellens/backend/internal/domain"
	"golang.org/x/time/rate"
)

const maxLabelResults = 10

// Client calls the Google Cloud Vision images:annotate endpoint to obtain
// label annotations and dominant-color palettes for the label/color
// similarity strategy.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
}

// annotate request/response shapes, trimmed to the fields we consume.
type annotateRequest struct {
	Requests []imageRequest `json:"requests"`
}

type imageRequest struct {
	Image    imageContent `json:"image"`
	Features []feature    `json:"features"`
}

type imageContent struct {
	Content string `json:"content"`
}

type feature struct {
	Type       string `json:"type"`
	MaxResults int    `json:"maxResults,omitempty"`
}

type annotateResponse struct {
	Responses []struct {
		LabelAnnotations []struct {
			Description string  `json:"description"`
			Score       float64 `json:"score"`
		} `json:"labelAnnotations"`
		ImagePropertiesAnnotation struct {
			DominantColors struct {
				Colors []struct {
					Color struct {
						Red   float64 `json:"red"`
						Green float64 `json:"green"`
						Blue  float64 `json:"blue"`
					} `json:"color"`
					Score float64 `json:"score"`
				} `json:"colors"`
			} `json:"dominantColors"`
		} `json:"imagePropertiesAnnotation"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	} `json:"responses"`
}

// NewClient creates a new Vision API client
func NewClient(apiKey, baseURL string) *Client {
	// Stay well under the default Vision quota of 1800 requests per minute
	limiter := rate.NewLimiter(rate.Limit(10), 20)

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiKey:      apiKey,
		baseURL:     baseURL,
		rateLimiter: limiter,
	}
}

// Annotate returns label tags and the dominant colors of an image, ordered by
// annotation score. All failures wrap ErrVisionUnavailable so callers can fall
// back to the local similarity strategy.
func (c *Client) Annotate(ctx context.Context, img image.Image) (*domain.ImageAnnotation, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: missing image", domain.ErrVisionUnavailable)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("%w: encode: %v", domain.ErrImageProcessing, err)
	}

	reqBody := annotateRequest{
		Requests: []imageRequest{{
			Image: imageContent{Content: base64.StdEncoding.EncodeToString(buf.Bytes())},
			Features: []feature{
				{Type: "LABEL_DETECTION", MaxResults: maxLabelResults},
				{Type: "IMAGE_PROPERTIES"},
			},
		}},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	reqURL := fmt.Sprintf("%s/v1/images:annotate?key=%s", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, "POST", reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrVisionUnavailable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrVisionUnavailable, resp.StatusCode)
	}

	var annotated annotateResponse
	if err := json.Unmarshal(body, &annotated); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", domain.ErrVisionUnavailable, err)
	}
	if len(annotated.Responses) == 0 {
		return nil, fmt.Errorf("%w: empty response", domain.ErrVisionUnavailable)
	}

	first := annotated.Responses[0]
	if first.Error != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrVisionUnavailable, first.Error.Message)
	}

	annotation := &domain.ImageAnnotation{}
	for _, label := range first.LabelAnnotations {
		annotation.Labels = append(annotation.Labels, label.Description)
	}

	colors := first.ImagePropertiesAnnotation.DominantColors.Colors
	sort.SliceStable(colors, func(i, j int) bool {
		return colors[i].Score > colors[j].Score
	})
	for _, c := range colors {
		annotation.Colors = append(annotation.Colors, domain.RGB{
			Red:   int(c.Color.Red),
			Green: int(c.Color.Green),
			Blue:  int(c.Color.Blue),
		})
	}

	return annotation, nil
}
