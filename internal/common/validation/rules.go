package validation

import (
	"fmt"
	"regexp"
	"time"
)

// ValidationResult collects every violated rule for one input, not just the
// first. Callers fail fast on Valid == false before any network activity.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Rule is one named check against an input value.
type Rule struct {
	Field   string
	Code    string
	Message string
	Check   func() bool
}

// Apply runs every rule and records each failure.
func Apply(rules []Rule) *ValidationResult {
	errors := []ValidationError{}
	for _, rule := range rules {
		if !rule.Check() {
			errors = append(errors, ValidationError{
				Field:   rule.Field,
				Message: rule.Message,
				Code:    rule.Code,
			})
		}
	}
	return &ValidationResult{
		Valid:  len(errors) == 0,
		Errors: errors,
	}
}

// Merge combines results, preserving order.
func Merge(results ...*ValidationResult) *ValidationResult {
	errors := []ValidationError{}
	for _, r := range results {
		errors = append(errors, r.Errors...)
	}
	return &ValidationResult{
		Valid:  len(errors) == 0,
		Errors: errors,
	}
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

var (
	licensePattern = regexp.MustCompile(`^[A-Za-z0-9]{5,20}$`)
	statePattern   = regexp.MustCompile(`^[A-Z]{2}$`)
)

// ValidateLicenseNumber validates a driver's license number format. Formats
// vary by issuing state, so the check is deliberately loose.
func ValidateLicenseNumber(license string) bool {
	return licensePattern.MatchString(license)
}

// ValidateState validates a two-letter state code.
func ValidateState(state string) bool {
	return statePattern.MatchString(state)
}

// ValidateISODate validates a YYYY-MM-DD calendar date.
func ValidateISODate(date string) bool {
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}
