package usecase

import (
	"regexp"
	"strings"

	"github.com/labellens/backend/internal/domain"
)

// Package-level compiled patterns for label field recognition. Each field is
// matched independently and first-match-wins; a miss leaves the field empty.
var (
	// Rupee symbol or Rs/Rs. prefix followed by an amount with up to five
	// integer digits and an optional two-digit decimal part.
	mrpPattern = regexp.MustCompile(`(?i)(₹|\bRs\.?)\s*([0-9]{1,5}(?:[.,][0-9]{2})?)`)

	// Numeric amount immediately followed by a unit token, word-bounded.
	// Longer unit spellings come first so they win over their prefixes.
	quantityPattern = regexp.MustCompile(`(?i)\b([0-9]{1,4}(?:,[0-9]{3})?(?:\.[0-9]{1,2})?)\s*(kg|grams|gram|g|ml|litres|liters|litre|liter|lt|l|pcs|pieces|piece)\b`)

	// MM/YYYY with /, . or - separators; months 01-12, years 19xx or 20xx.
	monthYearPattern = regexp.MustCompile(`\b(0[1-9]|1[0-2])\s*[./-]\s*((?:19|20)[0-9]{2})\b`)

	// Lines announcing the manufacturer, packer or importer.
	manufacturerPattern = regexp.MustCompile(`(?i)manufact|mfg\s*by|packer|importer`)

	// A leading "Some Label:" prefix on a manufacturer line.
	labelPrefixPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z .]*:\s*`)

	// Toll-free helpline (1800/1900 families) and plain 10-digit numbers.
	tollFreePattern = regexp.MustCompile(`\b1[89]00[\s-]?[0-9]{3}[\s-]?[0-9]{3,4}\b`)
	tenDigitPattern = regexp.MustCompile(`\b[0-9]{10}\b`)

	// "Name:" label for the product's generic name.
	genericNameLabelPattern = regexp.MustCompile(`(?i)name\s*:`)

	// A following line is treated as the address when it carries a digit or comma.
	addressHintPattern = regexp.MustCompile(`[0-9,]`)
)

// unitCanonical maps recognized unit spellings to their canonical codes.
// Unlisted tokens pass through lower-cased.
var unitCanonical = map[string]string{
	"g": "g", "gram": "g", "grams": "g",
	"kg": "kg",
	"ml": "ml",
	"l": "L", "lt": "L", "liter": "L", "litre": "L", "liters": "L", "litres": "L",
	"pcs": "pcs", "piece": "pcs", "pieces": "pcs",
}

// ExtractLabelFields parses raw OCR text into structured label fields.
// Pure function: no I/O and no errors. Malformed or empty input yields a
// result with all fields empty except RawText, which always carries the
// verbatim input.
func ExtractLabelFields(rawText string) domain.LabelFields {
	fields := domain.LabelFields{RawText: rawText}

	if m := mrpPattern.FindStringSubmatch(rawText); m != nil {
		// Normalize to the rupee marker when it appears in the matched span;
		// otherwise keep the matched text as-is.
		if strings.Contains(m[0], "₹") {
			fields.MRP = "₹" + m[2]
		} else {
			fields.MRP = strings.TrimSpace(m[0])
		}
	}

	if m := quantityPattern.FindStringSubmatch(rawText); m != nil {
		fields.NetQuantity = strings.ReplaceAll(m[1], ",", "")
		fields.Unit = canonicalUnit(m[2])
	}

	if m := monthYearPattern.FindStringSubmatch(rawText); m != nil {
		fields.MonthYear = m[1] + "/" + m[2]
	}

	lines := nonEmptyLines(rawText)
	for i, line := range lines {
		if !manufacturerPattern.MatchString(line) {
			continue
		}
		if name := labelPrefixPattern.ReplaceAllString(line, ""); name != "" {
			fields.ManufacturerName = name
		}
		if i+1 < len(lines) && addressHintPattern.MatchString(lines[i+1]) {
			fields.ManufacturerAddress = lines[i+1]
		}
		break
	}

	if m := tollFreePattern.FindString(rawText); m != "" {
		fields.ConsumerCare = m
	} else if m := tenDigitPattern.FindString(rawText); m != "" {
		fields.ConsumerCare = m
	}

	for _, line := range lines {
		loc := genericNameLabelPattern.FindStringIndex(line)
		if loc == nil {
			continue
		}
		if name := strings.TrimSpace(line[loc[1]:]); name != "" {
			fields.GenericName = name
		}
		break
	}

	return fields
}

// canonicalUnit maps a matched unit token to its canonical code.
func canonicalUnit(token string) string {
	lower := strings.ToLower(token)
	if canonical, ok := unitCanonical[lower]; ok {
		return canonical
	}
	return lower
}

// nonEmptyLines splits text into trimmed, non-empty lines.
func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
