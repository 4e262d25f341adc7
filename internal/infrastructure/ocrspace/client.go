package ocrspace

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labellens/backend/internal/domain"
	"golang.org/x/time/rate"
)

// Client handles communication with the OCR.space text-recognition API
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	language    string
	rateLimiter *rate.Limiter
	debug       bool
}

// parseResponse mirrors the OCR.space /parse/image response shape
type parseResponse struct {
	ParsedResults []struct {
		ParsedText        string `json:"ParsedText"`
		FileParseExitCode int    `json:"FileParseExitCode"`
		ErrorMessage      string `json:"ErrorMessage"`
	} `json:"ParsedResults"`
	OCRExitCode           int  `json:"OCRExitCode"`
	IsErroredOnProcessing bool `json:"IsErroredOnProcessing"`
}

// NewClient creates a new OCR.space API client
func NewClient(apiKey, baseURL, language string) *Client {
	if language == "" {
		language = "eng"
	}

	// The free tier allows roughly one request per second sustained
	limiter := rate.NewLimiter(rate.Limit(1), 5)

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiKey:      apiKey,
		baseURL:     baseURL,
		language:    language,
		rateLimiter: limiter,
	}
}

// SetDebug enables verbose request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// exponentialBackoff returns the wait before retrying the given attempt
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(250<<uint(attempt)) * time.Millisecond
}

// RecognizeText submits encoded image bytes for OCR and returns the raw
// recognized text. Retries up to 3 times on transient failures.
func (c *Client) RecognizeText(ctx context.Context, imageData []byte) (string, error) {
	if len(imageData) == 0 {
		return "", domain.ErrInvalidRequest
	}

	contentType := http.DetectContentType(imageData)
	encoded := fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(imageData))

	form := url.Values{}
	form.Set("base64Image", encoded)
	form.Set("language", c.language)
	form.Set("isOverlayRequired", "false")
	form.Set("scale", "true")
	form.Set("OCREngine", "2")

	endpoint := fmt.Sprintf("%s/parse/image", c.baseURL)

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter error: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return "", fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("apikey", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if c.debug {
				log.Printf("[OCR] request error (attempt %d): %v", attempt, err)
			}
			lastErr = fmt.Errorf("%w: %v", domain.ErrOCRFailure, err)
			time.Sleep(exponentialBackoff(attempt))
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			if c.debug {
				log.Printf("[OCR] API error (attempt %d) - status: %d, body: %s", attempt, resp.StatusCode, string(body))
			}
			lastErr = fmt.Errorf("%w: status %d", domain.ErrOCRFailure, resp.StatusCode)
			time.Sleep(exponentialBackoff(attempt))
			continue
		}

		var parsed parseResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return "", fmt.Errorf("failed to decode response: %w", err)
		}

		if parsed.IsErroredOnProcessing || parsed.OCRExitCode != 1 {
			message := "processing error"
			if len(parsed.ParsedResults) > 0 && parsed.ParsedResults[0].ErrorMessage != "" {
				message = parsed.ParsedResults[0].ErrorMessage
			}
			return "", fmt.Errorf("%w: %s", domain.ErrOCRFailure, message)
		}

		if len(parsed.ParsedResults) == 0 {
			return "", fmt.Errorf("%w: empty result", domain.ErrOCRFailure)
		}

		var texts []string
		for _, result := range parsed.ParsedResults {
			texts = append(texts, result.ParsedText)
		}
		text := strings.TrimSpace(strings.Join(texts, "\n"))

		if c.debug {
			log.Printf("[OCR] recognized %d characters", len(text))
		}
		return text, nil
	}

	return "", lastErr
}
