// Package errors provides standardized error handling for the ticket
// acquisition pipeline.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Input errors. Fail fast, never reach the network.
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// Infrastructure / portal-level errors. Always escalate to the next
	// fallback tier for the affected source.
	ErrCodeBrowserLaunchFailed ErrorCode = "BROWSER_LAUNCH_FAILED"
	ErrCodeNavigationTimeout   ErrorCode = "NAVIGATION_TIMEOUT"
	ErrCodeFormNotFound        ErrorCode = "FORM_NOT_FOUND"
	ErrCodeSubmitFailed        ErrorCode = "SUBMIT_FAILED"

	// Tier-level errors.
	ErrCodeRemoteTierUnavailable ErrorCode = "REMOTE_TIER_UNAVAILABLE"
	ErrCodeLocalTierUnavailable  ErrorCode = "LOCAL_TIER_UNAVAILABLE"
	ErrCodeAllTiersExhausted     ErrorCode = "ALL_TIERS_EXHAUSTED"

	// OCR-only. Terminal, no fallback tier exists for OCR.
	ErrCodeRecognitionFailed ErrorCode = "RECOGNITION_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes a wrapped cause when one was recorded in Metadata.
func (e *StandardError) Unwrap() error {
	if cause, ok := e.Metadata["cause"].(error); ok {
		return cause
	}
	return nil
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationFailedError creates a non-retryable input validation error.
// Violations lists every broken rule, not just the first one.
func NewValidationFailedError(violations []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Search criteria validation failed",
		Details:   strings.Join(violations, "; "),
		Retryable: false,
		Metadata:  map[string]interface{}{"violations": violations},
		Timestamp: time.Now().UTC(),
	}
}

// NewBrowserLaunchFailedError creates an infrastructure error for a browser
// session that could not be acquired. Escalates, never retried in place.
func NewBrowserLaunchFailedError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBrowserLaunchFailed,
		Message:   "Browser session could not be acquired",
		Details:   fmt.Sprintf("source: %s, error: %s", source, err.Error()),
		Retryable: false,
		Metadata:  map[string]interface{}{"source": source, "cause": err},
		Timestamp: time.Now().UTC(),
	}
}

// NewNavigationTimeoutError creates a portal navigation timeout error.
func NewNavigationTimeoutError(source, url string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNavigationTimeout,
		Message:   "Portal page load timed out",
		Details:   fmt.Sprintf("source: %s, url: %s", source, url),
		Retryable: true,
		Metadata:  map[string]interface{}{"source": source},
		Timestamp: time.Now().UTC(),
	}
}

// NewFormNotFoundError signals that the portal's markup likely changed.
func NewFormNotFoundError(source, selector string) *StandardError {
	return &StandardError{
		Code:      ErrCodeFormNotFound,
		Message:   "Search form not present on portal page",
		Details:   fmt.Sprintf("source: %s, selector: %s", source, selector),
		Retryable: false,
		Metadata:  map[string]interface{}{"source": source},
		Timestamp: time.Now().UTC(),
	}
}

// NewSubmitFailedError creates a form submission error.
func NewSubmitFailedError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSubmitFailed,
		Message:   "Portal search submission failed",
		Details:   fmt.Sprintf("source: %s, error: %s", source, err.Error()),
		Retryable: true,
		Metadata:  map[string]interface{}{"source": source, "cause": err},
		Timestamp: time.Now().UTC(),
	}
}

// NewRemoteTierUnavailableError marks the managed-function tier as failed.
func NewRemoteTierUnavailableError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRemoteTierUnavailable,
		Message:   "Remote lookup function unavailable",
		Details:   fmt.Sprintf("source: %s, error: %s", source, err.Error()),
		Retryable: true,
		Metadata:  map[string]interface{}{"source": source, "cause": err},
		Timestamp: time.Now().UTC(),
	}
}

// NewLocalTierUnavailableError marks the local scraping service tier as failed.
func NewLocalTierUnavailableError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLocalTierUnavailable,
		Message:   "Local scraping service unavailable",
		Details:   fmt.Sprintf("source: %s, error: %s", source, err.Error()),
		Retryable: true,
		Metadata:  map[string]interface{}{"source": source, "cause": err},
		Timestamp: time.Now().UTC(),
	}
}

// NewAllTiersExhaustedError reports that every execution tier for one source
// failed. Carries the last tier's error for diagnostics.
func NewAllTiersExhaustedError(source string, lastErr error) *StandardError {
	details := fmt.Sprintf("source: %s", source)
	if lastErr != nil {
		details = fmt.Sprintf("source: %s, last error: %s", source, lastErr.Error())
	}
	return &StandardError{
		Code:      ErrCodeAllTiersExhausted,
		Message:   "Every execution tier failed for source",
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"source": source, "cause": lastErr},
		Timestamp: time.Now().UTC(),
	}
}

// NewRecognitionFailedError creates a terminal OCR error. The caller should
// offer manual entry; OCR failures are rarely transient so there is no retry.
func NewRecognitionFailedError(err error) *StandardError {
	details := "recognizer returned empty text"
	var cause interface{}
	if err != nil {
		details = err.Error()
		cause = err
	}
	return &StandardError{
		Code:      ErrCodeRecognitionFailed,
		Message:   "Image recognition failed",
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"cause": cause},
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Escalation Policy
// ==========================

// ShouldEscalate reports whether an error from one execution tier should make
// the orchestrator move on to the next tier. Validation and recognition
// failures are terminal for the whole branch; everything else is assumed to
// be tier-local.
func ShouldEscalate(code ErrorCode) bool {
	switch code {
	case ErrCodeValidationFailed, ErrCodeRecognitionFailed, ErrCodeAllTiersExhausted:
		return false
	default:
		return true
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "BROWSER") || strings.Contains(codeStr, "NAVIGATION") ||
		strings.Contains(codeStr, "FORM") || strings.Contains(codeStr, "SUBMIT"):
		return "PORTAL"
	case strings.Contains(codeStr, "TIER"):
		return "TIER"
	case strings.Contains(codeStr, "RECOGNITION"):
		return "OCR"
	default:
		return "OTHER"
	}
}
