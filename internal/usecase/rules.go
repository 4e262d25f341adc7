package usecase

import (
	"regexp"

	"github.com/labellens/backend/internal/domain"
)

// Fixed heuristic confidence per outcome. These signal that the local rule
// engine is an approximation; the server-side engine is authoritative.
const (
	passConfidence = 0.95
	failConfidence = 0.70
)

var (
	// Plain integer or decimal, no separators, no unit.
	numericQuantityPattern = regexp.MustCompile(`^[0-9]+(?:\.[0-9]+)?$`)

	// Any digit, for the MRP format check.
	anyDigitPattern = regexp.MustCompile(`[0-9]`)

	// Price prominence markers in the full label text.
	mrpProminencePattern = regexp.MustCompile(`(?i)mrp|price|₹|\brs\.?`)
)

// validUnits is the set of canonical unit codes the Legal Metrology rules accept.
var validUnits = map[string]bool{
	"g": true, "kg": true, "ml": true, "L": true, "cm": true, "m": true, "pcs": true,
}

// complianceRules is the fixed rule set, evaluated in declaration order.
// That order also defines the ordering of violations in the summary.
var complianceRules = []struct {
	key   string
	check func(f domain.LabelFields) bool
}{
	{domain.RuleManufacturerAddressPresent, func(f domain.LabelFields) bool {
		return f.ManufacturerName != "" || f.ManufacturerAddress != ""
	}},
	{domain.RuleGenericNamePresent, func(f domain.LabelFields) bool {
		return f.GenericName != ""
	}},
	{domain.RuleNetQuantityPresent, func(f domain.LabelFields) bool {
		return f.NetQuantity != ""
	}},
	{domain.RuleNetQuantityNumeric, func(f domain.LabelFields) bool {
		return f.NetQuantity != "" && numericQuantityPattern.MatchString(f.NetQuantity)
	}},
	{domain.RuleNetQuantityUnitValid, func(f domain.LabelFields) bool {
		return validUnits[f.Unit]
	}},
	{domain.RuleMonthYearPresent, func(f domain.LabelFields) bool {
		return f.MonthYear != ""
	}},
	{domain.RuleMRPPresent, func(f domain.LabelFields) bool {
		return f.MRP != ""
	}},
	{domain.RuleMRPFormatValid, func(f domain.LabelFields) bool {
		return f.MRP != "" && anyDigitPattern.MatchString(f.MRP)
	}},
	{domain.RuleMRPProminentInText, func(f domain.LabelFields) bool {
		return mrpProminencePattern.MatchString(f.RawText)
	}},
	{domain.RuleConsumerCarePresent, func(f domain.LabelFields) bool {
		return f.ConsumerCare != ""
	}},
}

// EvaluateCompliance runs the fixed Legal Metrology rule set over extracted
// fields. Deterministic, no I/O, never fails: a rule that cannot confirm its
// condition counts as a violation rather than raising an error.
func EvaluateCompliance(fields domain.LabelFields) ([]domain.RuleResult, domain.ComplianceSummary) {
	results := make([]domain.RuleResult, 0, len(complianceRules))
	violations := []string{}

	for _, rule := range complianceRules {
		passed := rule.check(fields)
		confidence := passConfidence
		if !passed {
			confidence = failConfidence
			violations = append(violations, rule.key)
		}
		results = append(results, domain.RuleResult{
			RuleKey:    rule.key,
			Passed:     passed,
			Confidence: confidence,
		})
	}

	summary := domain.ComplianceSummary{
		Compliant:      len(violations) == 0,
		Violations:     violations,
		ViolationCount: len(violations),
	}
	return results, summary
}
