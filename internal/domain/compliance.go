package domain

// Rule keys for the Legal Metrology compliance checks. The identifiers form a
// fixed enumerated set; evaluation order is defined by the rule evaluator.
const (
	RuleManufacturerAddressPresent = "manufacturer_address_present"
	RuleGenericNamePresent         = "generic_name_present"
	RuleNetQuantityPresent         = "net_quantity_present"
	RuleNetQuantityNumeric         = "net_quantity_numeric"
	RuleNetQuantityUnitValid       = "net_quantity_unit_valid"
	RuleMonthYearPresent           = "month_year_present"
	RuleMRPPresent                 = "mrp_present"
	RuleMRPFormatValid             = "mrp_format_valid"
	RuleMRPProminentInText         = "mrp_prominent_in_text"
	RuleConsumerCarePresent        = "consumer_care_present"
)

// RuleResult is the outcome of one compliance rule check.
// Confidence is a fixed heuristic constant per outcome, not a calibrated
// probability; the authoritative rule engine lives server-side.
type RuleResult struct {
	RuleKey    string  `json:"ruleKey"`
	Passed     bool    `json:"passed"`
	Confidence float64 `json:"confidence"`
}

// ComplianceSummary aggregates rule results into a single verdict.
// Compliant holds exactly when ViolationCount is zero.
type ComplianceSummary struct {
	Compliant      bool     `json:"compliant"`
	Violations     []string `json:"violations"` // failed rule keys in evaluation order
	ViolationCount int      `json:"violationCount"`
}
