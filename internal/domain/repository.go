package domain

import (
	"context"
	"image"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// OCRClient defines the interface to a text-recognition collaborator.
// It accepts encoded image bytes and returns the raw recognized text.
type OCRClient interface {
	RecognizeText(ctx context.Context, imageData []byte) (string, error)
}

// VisionClient defines the interface to the vision annotation collaborator
// consumed by the label/color similarity strategy.
type VisionClient interface {
	Annotate(ctx context.Context, img image.Image) (*ImageAnnotation, error)
}

// BarcodeClient defines the interface for barcode product enrichment.
type BarcodeClient interface {
	LookupProduct(ctx context.Context, barcode string) (*ProductInfo, error)
}
