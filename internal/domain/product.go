package domain

// ProductInfo represents product data resolved from a barcode lookup,
// used to enrich a scan with the catalog name, brand and declared quantity.
type ProductInfo struct {
	Barcode  string `json:"barcode"`
	Name     string `json:"name"`
	Brand    string `json:"brand,omitempty"`
	Quantity string `json:"quantity,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
	Source   string `json:"source"` // e.g. "OpenFoodFacts" or "Cache"
}
