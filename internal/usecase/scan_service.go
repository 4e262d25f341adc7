package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/labellens/backend/internal/domain"
)

// ScanServiceConfig holds configuration for the scan service
type ScanServiceConfig struct {
	CacheTTL time.Duration
}

// ScanService turns a label image into structured fields and a compliance
// summary, caching results keyed by image digest. Barcode enrichment goes
// through the same cache.
type ScanService struct {
	cache    domain.CacheRepository
	ocr      domain.OCRClient
	barcode  domain.BarcodeClient
	cacheTTL time.Duration
}

// NewScanService creates a new scan service with dependencies
func NewScanService(
	cache domain.CacheRepository,
	ocr domain.OCRClient,
	barcode domain.BarcodeClient,
	config ScanServiceConfig,
) *ScanService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}

	return &ScanService{
		cache:    cache,
		ocr:      ocr,
		barcode:  barcode,
		cacheTTL: cacheTTL,
	}
}

// ScanLabel runs OCR on uploaded image bytes, then extracts and validates the
// label fields. Flow: check cache -> OCR -> extract -> evaluate -> cache.
func (s *ScanService) ScanLabel(ctx context.Context, imageData []byte) (*domain.ScanResult, error) {
	if len(imageData) == 0 {
		return nil, domain.ErrInvalidRequest
	}

	cacheKey := scanCacheKey(imageData)
	if cached, err := s.getFromCache(ctx, cacheKey); err == nil && cached != nil {
		out := *cached
		out.Source = "Cache"
		return &out, nil
	}

	rawText, err := s.ocr.RecognizeText(ctx, imageData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrOCRFailure, err)
	}

	result := s.ValidateText(rawText)
	result.Source = "OCR"

	if err := s.setInCache(ctx, cacheKey, result); err != nil {
		log.Printf("[SCAN] cache write failed: %v", err)
	}

	return result, nil
}

// ValidateText extracts fields from raw OCR text and evaluates the compliance
// rule set. Pure computation, never fails on content.
func (s *ScanService) ValidateText(rawText string) *domain.ScanResult {
	fields := ExtractLabelFields(rawText)
	rules, summary := EvaluateCompliance(fields)
	return &domain.ScanResult{
		Fields:  fields,
		Rules:   rules,
		Summary: summary,
	}
}

// LookupBarcode resolves product data for a barcode, with caching.
func (s *ScanService) LookupBarcode(ctx context.Context, barcode string) (*domain.ProductInfo, error) {
	if barcode == "" {
		return nil, domain.ErrInvalidRequest
	}
	if s.barcode == nil {
		return nil, domain.ErrBarcodeAPIFailure
	}

	cacheKey := "product:" + barcode
	if value, err := s.cache.Get(ctx, cacheKey); err == nil {
		if product, ok := value.(*domain.ProductInfo); ok {
			out := *product
			out.Source = "Cache"
			return &out, nil
		}
	}

	product, err := s.barcode.LookupProduct(ctx, barcode)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cacheKey, product, s.cacheTTL); err != nil {
		log.Printf("[SCAN] cache write failed: %v", err)
	}

	return product, nil
}

// scanCacheKey derives a stable cache key from the image content digest.
func scanCacheKey(imageData []byte) string {
	digest := sha256.Sum256(imageData)
	return "scan:" + hex.EncodeToString(digest[:])
}

// getFromCache retrieves a scan result from cache
func (s *ScanService) getFromCache(ctx context.Context, key string) (*domain.ScanResult, error) {
	value, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	result, ok := value.(*domain.ScanResult)
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return result, nil
}

// setInCache stores a scan result in cache
func (s *ScanService) setInCache(ctx context.Context, key string, result *domain.ScanResult) error {
	result.CachedAt = time.Now()
	return s.cache.Set(ctx, key, result, s.cacheTTL)
}
