package main

import (
	"fmt"
	"log"
	"os"

	"github.com/labellens/backend/config"
	httpDelivery "github.com/labellens/backend/internal/delivery/http"
	"github.com/labellens/backend/internal/domain"
	"github.com/labellens/backend/internal/infrastructure/barcode"
	"github.com/labellens/backend/internal/infrastructure/cache"
	"github.com/labellens/backend/internal/infrastructure/ocrspace"
	"github.com/labellens/backend/internal/infrastructure/tesseract"
	"github.com/labellens/backend/internal/infrastructure/vision"
	"github.com/labellens/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting LabelLens Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("OCR provider: %s", cfg.OCR.Provider)

	// Initialize infrastructure dependencies
	memoryCache := cache.NewMemoryCache()
	log.Printf("Cache TTL: %s", cfg.Cache.TTL)

	var ocrClient domain.OCRClient
	switch cfg.OCR.Provider {
	case "tesseract":
		ocrClient = tesseract.NewEngine(cfg.OCR.Language)
	default:
		client := ocrspace.NewClient(cfg.OCR.APIKey, cfg.OCR.BaseURL, cfg.OCR.Language)
		if cfg.Server.Environment == "development" {
			client.SetDebug(true)
			log.Printf("OCR client debug mode enabled")
		}
		ocrClient = client
	}

	barcodeClient := barcode.NewClient(cfg.Barcode.BaseURL)

	// Similarity strategies in fallback order: vision-backed first when
	// configured, local perceptual hash always last.
	var strategies []usecase.SimilarityStrategy
	if cfg.Vision.Enabled {
		visionClient := vision.NewClient(cfg.Vision.APIKey, cfg.Vision.BaseURL)
		strategies = append(strategies, usecase.NewLabelColorStrategy(visionClient))
		log.Printf("Vision annotation enabled: %s", cfg.Vision.BaseURL)
	}
	strategies = append(strategies, usecase.NewAverageHashStrategy())

	// Initialize usecase layer
	scanService := usecase.NewScanService(
		memoryCache,
		ocrClient,
		barcodeClient,
		usecase.ScanServiceConfig{CacheTTL: cfg.Cache.TTL},
	)
	similarityService := usecase.NewSimilarityService(strategies...)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(scanService, similarityService)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
