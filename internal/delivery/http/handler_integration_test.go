package http

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/labellens/backend/config"
	"github.com/labellens/backend/internal/domain"
	"github.com/labellens/backend/internal/usecase"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	// Set Gin to test mode once for all tests
	gin.SetMode(gin.TestMode)

	exitCode := m.Run()

	os.Exit(exitCode)
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"https://app.labellens.in", "http://localhost:*"},
		},
	}
}

// setupTestRouter creates a test router with nil services - those endpoints
// answer 501.
func setupTestRouter() *gin.Engine {
	handler := NewHandler(nil, nil)
	if handler == nil {
		panic("setupTestRouter: NewHandler returned nil")
	}

	router := SetupRouter(testConfig(), handler)
	if router == nil {
		panic("setupTestRouter: SetupRouter returned nil *gin.Engine")
	}

	return router
}

// TestHealthCheckEndpoint tests the health check endpoint
func TestHealthCheckEndpoint(t *testing.T) {
	t.Run("returns healthy status", func(t *testing.T) {
		router := setupTestRouter()

		req, _ := http.NewRequest("GET", "/health", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		if err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}

		if response["status"] != "healthy" {
			t.Errorf("status = %v, want healthy", response["status"])
		}
		if response["service"] != "labellens-backend" {
			t.Errorf("service = %v, want labellens-backend", response["service"])
		}
		version, ok := response["version"].(string)
		if !ok || strings.TrimSpace(version) == "" {
			t.Errorf("version = %v, want non-empty string", response["version"])
		}
	})

	t.Run("accepts GET requests only", func(t *testing.T) {
		router := setupTestRouter()

		methods := []string{"POST", "PUT", "DELETE", "PATCH"}

		for _, method := range methods {
			req, _ := http.NewRequest(method, "/health", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != http.StatusNotFound {
				t.Errorf("Method %s: Status = %d, want %d", method, w.Code, http.StatusNotFound)
			}
		}
	})
}

// TestUnconfiguredServices tests the 501 guards on every service endpoint
func TestUnconfiguredServices(t *testing.T) {
	endpoints := []struct {
		method string
		path   string
	}{
		{"POST", "/api/v1/scan"},
		{"POST", "/api/v1/validate"},
		{"POST", "/api/v1/compare"},
		{"GET", "/api/v1/products/8901234567890"},
	}

	for _, endpoint := range endpoints {
		t.Run(endpoint.method+" "+endpoint.path, func(t *testing.T) {
			router := setupTestRouter()

			req, _ := http.NewRequest(endpoint.method, endpoint.path, nil)
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != http.StatusNotImplemented {
				t.Errorf("Status = %d, want %d", w.Code, http.StatusNotImplemented)
			}

			var response map[string]interface{}
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Fatalf("Failed to unmarshal response: %v", err)
			}

			errorMsg, ok := response["error"].(string)
			if !ok {
				t.Errorf("error field is not a string: %v", response["error"])
			} else if !strings.Contains(errorMsg, "not configured") {
				t.Errorf("error = %q, want to contain 'not configured'", errorMsg)
			}
		})
	}
}

// TestCORSIntegration tests CORS headers work end-to-end with full router
func TestCORSIntegration(t *testing.T) {
	t.Run("health endpoint has CORS for the web app", func(t *testing.T) {
		router := setupTestRouter()

		req, _ := http.NewRequest("GET", "/health", nil)
		req.Header.Set("Origin", "https://app.labellens.in")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		gotOrigin := w.Header().Get("Access-Control-Allow-Origin")
		if gotOrigin != "https://app.labellens.in" {
			t.Errorf("Access-Control-Allow-Origin = %q, want %q", gotOrigin, "https://app.labellens.in")
		}

		gotCreds := w.Header().Get("Access-Control-Allow-Credentials")
		if gotCreds != "true" {
			t.Errorf("Access-Control-Allow-Credentials = %q, want %q", gotCreds, "true")
		}
	})

	t.Run("scan endpoint has CORS for localhost dev servers", func(t *testing.T) {
		router := setupTestRouter()

		req, _ := http.NewRequest("POST", "/api/v1/scan", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		gotOrigin := w.Header().Get("Access-Control-Allow-Origin")
		if gotOrigin != "http://localhost:5173" {
			t.Errorf("Access-Control-Allow-Origin = %q, want %q", gotOrigin, "http://localhost:5173")
		}
	})
}

// TestRecoveryMiddleware tests panic recovery
func TestRecoveryMiddleware(t *testing.T) {
	t.Run("recovers from panic without crashing server", func(t *testing.T) {
		router := setupTestRouter()

		router.GET("/panic", func(c *gin.Context) {
			panic("test panic")
		})

		req, _ := http.NewRequest("GET", "/panic", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		// Gin's default recovery returns 500
		if w.Code != http.StatusInternalServerError {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
		}
	})
}

// TestAPIVersioning tests that API v1 routes are correctly versioned
func TestAPIVersioning(t *testing.T) {
	t.Run("v1 routes are accessible", func(t *testing.T) {
		router := setupTestRouter()

		req, _ := http.NewRequest("POST", "/api/v1/validate", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		// Should return 501 Not Implemented, not 404 Not Found
		if w.Code != http.StatusNotImplemented {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusNotImplemented)
		}
	})

	t.Run("non-versioned routes return 404", func(t *testing.T) {
		router := setupTestRouter()

		req, _ := http.NewRequest("POST", "/api/validate", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

// --- Mock implementations for testing with real services ---

// mockCacheRepository is a mock implementation of domain.CacheRepository
type mockCacheRepository struct {
	data map[string]interface{}
}

func newMockCacheRepository() *mockCacheRepository {
	return &mockCacheRepository{data: make(map[string]interface{})}
}

func (m *mockCacheRepository) Get(ctx context.Context, key string) (interface{}, error) {
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *mockCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *mockCacheRepository) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *mockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

// mockOCRClient is a mock implementation of domain.OCRClient
type mockOCRClient struct {
	text string
	err  error
}

func (m *mockOCRClient) RecognizeText(ctx context.Context, imageData []byte) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.text, nil
}

// mockBarcodeClient is a mock implementation of domain.BarcodeClient
type mockBarcodeClient struct {
	product *domain.ProductInfo
	err     error
}

func (m *mockBarcodeClient) LookupProduct(ctx context.Context, barcode string) (*domain.ProductInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.product, nil
}

// setupTestRouterWithServices creates a test router over real services with
// mocked collaborators. Comparison runs the local hash strategy only.
func setupTestRouterWithServices(ocr domain.OCRClient, barcode domain.BarcodeClient) *gin.Engine {
	scanService := usecase.NewScanService(
		newMockCacheRepository(),
		ocr,
		barcode,
		usecase.ScanServiceConfig{CacheTTL: 24 * time.Hour},
	)
	similarity := usecase.NewSimilarityService(usecase.NewAverageHashStrategy())

	handler := NewHandler(scanService, similarity)
	return SetupRouter(testConfig(), handler)
}

// multipartBody builds a multipart form with one PNG image per field name.
func multipartBody(t *testing.T, fields map[string]image.Image) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for field, img := range fields {
		part, err := writer.CreateFormFile(field, field+".png")
		if err != nil {
			t.Fatalf("CreateFormFile(%s): %v", field, err)
		}
		if err := png.Encode(part, img); err != nil {
			t.Fatalf("png.Encode(%s): %v", field, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("multipart close: %v", err)
	}
	return body, writer.FormDataContentType()
}

func uniformImage(c color.NRGBA) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// TestScanEndpoint tests label scanning end-to-end with a mocked OCR client
func TestScanEndpoint(t *testing.T) {
	labelText := "Product Name: Wheat Flour\nMRP ₹199.00\nNet Qty: 250 g\nMfg by: Acme Foods Ltd\n12, Industrial Estate, Pune\n12/2025\nConsumer Care: 1800-123-4567"

	t.Run("returns fields and compliance for an uploaded label", func(t *testing.T) {
		router := setupTestRouterWithServices(&mockOCRClient{text: labelText}, nil)

		body, contentType := multipartBody(t, map[string]image.Image{
			"image": uniformImage(color.NRGBA{R: 230, G: 230, B: 230, A: 255}),
		})
		req, _ := http.NewRequest("POST", "/api/v1/scan", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d, body: %s", w.Code, http.StatusOK, w.Body.String())
		}

		var result domain.ScanResult
		if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}

		if result.Source != "OCR" {
			t.Errorf("source = %s, want OCR", result.Source)
		}
		if result.Fields.MRP != "₹199.00" {
			t.Errorf("mrp = %q, want ₹199.00", result.Fields.MRP)
		}
		if !result.Summary.Compliant {
			t.Errorf("expected compliant result, violations: %v", result.Summary.Violations)
		}
	})

	t.Run("returns 400 when the image field is missing", func(t *testing.T) {
		router := setupTestRouterWithServices(&mockOCRClient{text: labelText}, nil)

		req, _ := http.NewRequest("POST", "/api/v1/scan", strings.NewReader(""))
		req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("returns 422 when OCR fails", func(t *testing.T) {
		router := setupTestRouterWithServices(&mockOCRClient{err: domain.ErrOCRFailure}, nil)

		body, contentType := multipartBody(t, map[string]image.Image{
			"image": uniformImage(color.NRGBA{R: 230, G: 230, B: 230, A: 255}),
		})
		req, _ := http.NewRequest("POST", "/api/v1/scan", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
		}
	})
}

// TestValidateEndpoint tests text validation end-to-end
func TestValidateEndpoint(t *testing.T) {
	t.Run("evaluates compliance for raw text", func(t *testing.T) {
		router := setupTestRouterWithServices(&mockOCRClient{}, nil)

		payload := `{"text":"MRP ₹99.00\nNet Qty: 500 g"}`
		req, _ := http.NewRequest("POST", "/api/v1/validate", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		var result domain.ScanResult
		if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}

		if result.Fields.MRP != "₹99.00" {
			t.Errorf("mrp = %q, want ₹99.00", result.Fields.MRP)
		}
		if result.Summary.Compliant {
			t.Errorf("expected violations for a partial label")
		}
		if result.Summary.ViolationCount != len(result.Summary.Violations) {
			t.Errorf("violationCount = %d, want %d", result.Summary.ViolationCount, len(result.Summary.Violations))
		}
	})

	t.Run("empty text is a valid request", func(t *testing.T) {
		router := setupTestRouterWithServices(&mockOCRClient{}, nil)

		payload := `{"text":""}`
		req, _ := http.NewRequest("POST", "/api/v1/validate", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}
	})

	t.Run("returns 400 for invalid JSON", func(t *testing.T) {
		router := setupTestRouterWithServices(&mockOCRClient{}, nil)

		req, _ := http.NewRequest("POST", "/api/v1/validate", strings.NewReader(`{invalid json}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}

// TestCompareEndpoint tests image comparison end-to-end with the hash strategy
func TestCompareEndpoint(t *testing.T) {
	t.Run("identical uploads are a likely match", func(t *testing.T) {
		router := setupTestRouterWithServices(&mockOCRClient{}, nil)

		img := uniformImage(color.NRGBA{R: 40, G: 90, B: 200, A: 255})
		body, contentType := multipartBody(t, map[string]image.Image{
			"reference": img,
			"capture":   img,
		})
		req, _ := http.NewRequest("POST", "/api/v1/compare", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d, body: %s", w.Code, http.StatusOK, w.Body.String())
		}

		var result domain.SimilarityResult
		if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}

		if result.Similarity != 1.0 {
			t.Errorf("similarity = %v, want 1.0", result.Similarity)
		}
		if result.Verdict != domain.VerdictLikelyMatch {
			t.Errorf("verdict = %s, want %s", result.Verdict, domain.VerdictLikelyMatch)
		}
		if result.Strategy != "average_hash" {
			t.Errorf("strategy = %s, want average_hash", result.Strategy)
		}
	})

	t.Run("returns 422 when an upload is missing", func(t *testing.T) {
		router := setupTestRouterWithServices(&mockOCRClient{}, nil)

		body, contentType := multipartBody(t, map[string]image.Image{
			"reference": uniformImage(color.NRGBA{R: 40, G: 90, B: 200, A: 255}),
		})
		req, _ := http.NewRequest("POST", "/api/v1/compare", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
		}
	})
}

// TestProductLookupEndpoint tests barcode resolution end-to-end
func TestProductLookupEndpoint(t *testing.T) {
	t.Run("returns product data for a known barcode", func(t *testing.T) {
		client := &mockBarcodeClient{product: &domain.ProductInfo{
			Barcode: "8901234567890",
			Name:    "Whole Wheat Atta",
			Brand:   "Acme Foods",
			Source:  "OpenFoodFacts",
		}}
		router := setupTestRouterWithServices(&mockOCRClient{}, client)

		req, _ := http.NewRequest("GET", "/api/v1/products/8901234567890", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		var product domain.ProductInfo
		if err := json.Unmarshal(w.Body.Bytes(), &product); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}

		if product.Name != "Whole Wheat Atta" {
			t.Errorf("name = %s, want Whole Wheat Atta", product.Name)
		}
	})

	t.Run("returns 404 for an unknown barcode", func(t *testing.T) {
		client := &mockBarcodeClient{err: domain.ErrProductNotFound}
		router := setupTestRouterWithServices(&mockOCRClient{}, client)

		req, _ := http.NewRequest("GET", "/api/v1/products/0000000000000", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})

	t.Run("returns 502 when the product API fails", func(t *testing.T) {
		client := &mockBarcodeClient{err: domain.ErrBarcodeAPIFailure}
		router := setupTestRouterWithServices(&mockOCRClient{}, client)

		req, _ := http.NewRequest("GET", "/api/v1/products/8901234567890", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadGateway {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadGateway)
		}
	})
}

// TestJSONResponses tests that all responses are valid JSON
func TestJSONResponses(t *testing.T) {
	endpoints := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"POST", "/api/v1/validate"},
	}

	for _, endpoint := range endpoints {
		t.Run(endpoint.method+" "+endpoint.path, func(t *testing.T) {
			router := setupTestRouter()

			req, _ := http.NewRequest(endpoint.method, endpoint.path, nil)
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			gotContentType := w.Header().Get("Content-Type")
			wantContentType := "application/json; charset=utf-8"
			if gotContentType != wantContentType {
				t.Errorf("Content-Type = %q, want %q", gotContentType, wantContentType)
			}

			var response map[string]interface{}
			err := json.Unmarshal(w.Body.Bytes(), &response)
			if err != nil {
				t.Errorf("Response should be valid JSON, got error: %v", err)
			}
		})
	}
}
