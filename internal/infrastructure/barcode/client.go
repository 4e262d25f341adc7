package barcode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labellens/backend/internal/domain"
	"golang.org/x/time/rate"
)

// Client resolves barcodes against the Open Food Facts product database.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rate.Limiter
}

// productResponse mirrors the Open Food Facts product endpoint shape
type productResponse struct {
	Status  int `json:"status"`
	Product struct {
		ProductName string `json:"product_name"`
		Brands      string `json:"brands"`
		Quantity    string `json:"quantity"`
		ImageURL    string `json:"image_url"`
	} `json:"product"`
}

// NewClient creates a new Open Food Facts client
func NewClient(baseURL string) *Client {
	// Open Food Facts asks for at most 100 product queries per minute
	limiter := rate.NewLimiter(rate.Limit(100.0/60.0), 10)

	return &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL:     baseURL,
		rateLimiter: limiter,
	}
}

// LookupProduct fetches product data for a barcode.
func (c *Client) LookupProduct(ctx context.Context, barcode string) (*domain.ProductInfo, error) {
	if barcode == "" {
		return nil, domain.ErrInvalidRequest
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	reqURL := fmt.Sprintf("%s/api/v0/product/%s.json", c.baseURL, barcode)
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "LabelLens/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBarcodeAPIFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrProductNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d, body: %s", domain.ErrBarcodeAPIFailure, resp.StatusCode, string(body))
	}

	var parsed productResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if parsed.Status != 1 || parsed.Product.ProductName == "" {
		return nil, domain.ErrProductNotFound
	}

	return &domain.ProductInfo{
		Barcode:  barcode,
		Name:     parsed.Product.ProductName,
		Brand:    parsed.Product.Brands,
		Quantity: parsed.Product.Quantity,
		ImageURL: parsed.Product.ImageURL,
		Source:   "OpenFoodFacts",
	}, nil
}
