package domain

import "time"

// LabelFields holds the structured fields extracted from raw label OCR text.
// An empty string means the extractor found no match for that field; a
// non-empty value always conforms to the field's normalized shape.
type LabelFields struct {
	GenericName         string `json:"genericName,omitempty"`
	MRP                 string `json:"mrp,omitempty"`          // may retain the rupee marker, e.g. "₹199.00"
	NetQuantity         string `json:"netQuantity,omitempty"`  // magnitude only, no unit
	Unit                string `json:"unit,omitempty"`         // canonical unit code: g, kg, ml, L, cm, m, pcs
	ManufacturerName    string `json:"manufacturerName,omitempty"`
	ManufacturerAddress string `json:"manufacturerAddress,omitempty"`
	MonthYear           string `json:"monthYear,omitempty"` // MM/YYYY
	ConsumerCare        string `json:"consumerCare,omitempty"`
	RawText             string `json:"rawText"` // verbatim OCR input, always present
}

// ScanResult is the full outcome of scanning one label image.
type ScanResult struct {
	Fields   LabelFields       `json:"fields"`
	Rules    []RuleResult      `json:"rules"`
	Summary  ComplianceSummary `json:"summary"`
	Source   string            `json:"source"` // "OCR" or "Cache"
	CachedAt time.Time         `json:"cachedAt,omitempty"`
}
