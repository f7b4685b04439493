package errors

import (
	"time"
)

// BranchErrorHandler converts branch-local failures into per-source status
// entries. Branch errors never abort the whole request; they are normalized,
// logged and reported next to whatever records the other branches produced.
type BranchErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewBranchErrorHandler(logger Logger) *BranchErrorHandler {
	return &BranchErrorHandler{logger: logger}
}

// HandleBranchError normalizes err and returns the error kind to report for
// the given source branch.
func (h *BranchErrorHandler) HandleBranchError(source string, err error) ErrorCode {
	stdErr := h.normalizeError(err)

	h.logger.Error("source branch failed", map[string]interface{}{
		"source":        source,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	})

	return stdErr.Code
}

// normalizeError ensures we always have a StandardError
func (h *BranchErrorHandler) normalizeError(err error) *StandardError {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
