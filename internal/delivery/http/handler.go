package http

import (
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/labellens/backend/internal/domain"
	"github.com/labellens/backend/internal/usecase"
)

// maxUploadBytes caps label image uploads at 10 MiB.
const maxUploadBytes = 10 << 20

// Handler holds dependencies for HTTP handlers
type Handler struct {
	scanService *usecase.ScanService
	similarity  *usecase.SimilarityService
}

// NewHandler creates a new HTTP handler
func NewHandler(scanService *usecase.ScanService, similarity *usecase.SimilarityService) *Handler {
	return &Handler{
		scanService: scanService,
		similarity:  similarity,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "labellens-backend",
		"version": "1.0.0",
	})
}

// ScanLabel accepts a multipart label image, runs OCR, and returns extracted
// fields with the compliance rule results.
func (h *Handler) ScanLabel(c *gin.Context) {
	if h.scanService == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "scan service not configured"})
		return
	}

	data, err := readUpload(c, "image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}

	result, err := h.scanService.ScanLabel(c.Request.Context(), data)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRequest):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrOCRFailure), errors.Is(err, domain.ErrImageProcessing):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "scan failed"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

type validateRequest struct {
	Text string `json:"text"`
}

// ValidateText extracts fields from raw OCR text and evaluates the compliance
// rules. Pure computation; empty text is a valid input.
func (h *Handler) ValidateText(c *gin.Context) {
	if h.scanService == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "scan service not configured"})
		return
	}

	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	c.JSON(http.StatusOK, h.scanService.ValidateText(req.Text))
}

// CompareImages scores the visual similarity of a reference product image
// against a user capture.
func (h *Handler) CompareImages(c *gin.Context) {
	if h.similarity == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "similarity service not configured"})
		return
	}

	reference, err := decodeUpload(c, "reference")
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "reference image could not be decoded"})
		return
	}
	capture, err := decodeUpload(c, "capture")
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "capture image could not be decoded"})
		return
	}

	result, err := h.similarity.Compare(c.Request.Context(), reference, capture)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrImageProcessing):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrVisionUnavailable):
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "comparison failed"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// LookupProduct resolves a barcode to product data for scan enrichment.
func (h *Handler) LookupProduct(c *gin.Context) {
	if h.scanService == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "scan service not configured"})
		return
	}

	product, err := h.scanService.LookupBarcode(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRequest):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, product)
}

// readUpload reads one multipart file field, bounded by maxUploadBytes.
func readUpload(c *gin.Context, field string) ([]byte, error) {
	file, _, err := c.Request.FormFile(field)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(io.LimitReader(file, maxUploadBytes))
}

// decodeUpload reads and decodes one multipart image field.
func decodeUpload(c *gin.Context, field string) (image.Image, error) {
	file, _, err := c.Request.FormFile(field)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, err := imaging.Decode(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrImageProcessing, err)
	}
	return img, nil
}
