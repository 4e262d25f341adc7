package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
	"github.com/labellens/backend/internal/domain"
	"github.com/otiai10/gosseract/v2"
)

// Engine runs OCR locally through tesseract. It satisfies the same OCRClient
// interface as the hosted OCR.space client and needs no API key, at the cost
// of requiring tesseract to be installed on the host.
type Engine struct {
	language string
}

// NewEngine creates a local tesseract OCR engine
func NewEngine(language string) *Engine {
	if language == "" {
		language = "eng"
	}
	return &Engine{language: language}
}

// RecognizeText decodes the image bytes, preprocesses them for printed label
// text, and returns the recognized text.
func (e *Engine) RecognizeText(ctx context.Context, imageData []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	img, err := imaging.Decode(bytes.NewReader(imageData))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrImageProcessing, err)
	}

	tmp, err := os.CreateTemp("", "labellens-ocr-*.png")
	if err != nil {
		return "", fmt.Errorf("create temp image: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := imaging.Save(preprocess(img), tmpPath); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrImageProcessing, err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.language); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrOCRFailure, err)
	}
	if err := client.SetImage(tmpPath); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrOCRFailure, err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrOCRFailure, err)
	}
	return text, nil
}

// preprocess applies a contrast pipeline that works well for printed
// packaging: grayscale, contrast boost, slight sharpen, and an upscale for
// small crops so tesseract has enough pixels per glyph.
func preprocess(img image.Image) *image.NRGBA {
	gray := imaging.Grayscale(img)
	gray = imaging.AdjustContrast(gray, 15)
	gray = imaging.Sharpen(gray, 0.7)
	if gray.Bounds().Dy() < 900 {
		gray = imaging.Resize(gray, 0, 1300, imaging.Lanczos)
	}
	return gray
}
