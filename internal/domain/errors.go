package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrImageProcessing is returned when an image cannot be decoded or rendered
	ErrImageProcessing = errors.New("image could not be processed")

	// ErrOCRFailure is returned when the OCR collaborator fails to produce text
	ErrOCRFailure = errors.New("OCR processing failed")

	// ErrVisionUnavailable is returned when the vision annotation collaborator
	// is unreachable, errors, or returns incomplete annotations. Callers fall
	// back to the local perceptual-hash strategy on this error.
	ErrVisionUnavailable = errors.New("vision annotation unavailable")

	// ErrProductNotFound is returned when a barcode resolves to no product
	ErrProductNotFound = errors.New("product not found for barcode")

	// ErrBarcodeAPIFailure is returned when the barcode lookup request fails
	ErrBarcodeAPIFailure = errors.New("barcode API request failed")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)
