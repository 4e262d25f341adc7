package domain

// Verdict buckets for image similarity, derived from the score via fixed
// inclusive lower-bound thresholds.
const (
	VerdictLikelyMatch             = "likely_match"
	VerdictLikelyMatchWithWarnings = "likely_match_with_warnings"
	VerdictMismatch                = "mismatch"
)

// Flag keys emitted by the similarity strategies. Not every strategy emits
// every flag; callers must look flags up by key rather than assume a fixed set.
const (
	FlagPackagingLayoutDiff = "packaging_layout_diff"
	FlagLogoMismatch        = "logo_mismatch"
)

// SimilarityFlag marks a detected (or ruled-out) visual difference.
type SimilarityFlag struct {
	Key     string `json:"key"`
	Present bool   `json:"present"`
}

// SimilarityResult is the shared output contract of all similarity strategies.
type SimilarityResult struct {
	Similarity float64          `json:"similarity"` // in [0,1], rounded to 2 decimals
	Flags      []SimilarityFlag `json:"flags"`
	Verdict    string           `json:"verdict"`
	Strategy   string           `json:"strategy"` // which strategy produced the result
}

// RGB is a dominant color sampled from an image.
type RGB struct {
	Red   int `json:"red"`
	Green int `json:"green"`
	Blue  int `json:"blue"`
}

// ImageAnnotation is what the vision collaborator returns for one image:
// detected text labels plus an ordered dominant-color palette.
type ImageAnnotation struct {
	Labels []string `json:"labels"`
	Colors []RGB    `json:"colors"`
}
