package models

import "time"

// Source tags the component that produced a record. Producers set it
// themselves; it is never accepted from a caller.
type Source string

const (
	SourceOCR             Source = "ocr"
	SourceShavanoPark     Source = "shavano-park"
	SourceLeonValley      Source = "leon-valley"
	SourceBalconesHeights Source = "balcones-heights"
)

// IsOCR reports whether the record came from the image path rather than a
// jurisdiction portal.
func (s Source) IsOCR() bool {
	return s == SourceOCR
}

// Evidence holds the original capture for audit. Opaque to every stage
// after the one that produced it.
type Evidence struct {
	RawText    string    `json:"rawText,omitempty"`
	CapturedAt time.Time `json:"capturedAt"`
}

// TicketFields is the partial field set the extraction engine recovers from
// unstructured text. Optional fields are pointers: nil means "unknown",
// which callers must distinguish from a verified zero or empty value.
type TicketFields struct {
	CitationNumber string   `json:"citationNumber,omitempty"`
	Name           *string  `json:"name,omitempty"`
	Address        *string  `json:"address,omitempty"`
	LicenseNumber  *string  `json:"licenseNumber,omitempty"`
	DateOfBirth    *string  `json:"dateOfBirth,omitempty"`
	FineAmount     *float64 `json:"fineAmount,omitempty"`
	DueDate        *string  `json:"dueDate,omitempty"`
	CourtDate      *string  `json:"courtDate,omitempty"`
	Violation      *string  `json:"violation,omitempty"`
	CourtName      *string  `json:"courtName,omitempty"`
	CourtAddress   *string  `json:"courtAddress,omitempty"`
}

// UnifiedTicketRecord is the canonical output unit of the acquisition
// pipeline. Records are created once per request and never mutated; each
// stage produces new values from its input.
type UnifiedTicketRecord struct {
	TicketFields

	// Confidence estimates extraction reliability in [0,1], not legal
	// validity of the underlying ticket. It must never exceed the certainty
	// the producing stage actually achieved.
	Confidence float64  `json:"confidence"`
	Source     Source   `json:"source"`
	Evidence   Evidence `json:"evidence"`
}

// NewRecord builds a record from extracted fields, stamping provenance.
func NewRecord(fields TicketFields, confidence float64, source Source, evidence Evidence) UnifiedTicketRecord {
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return UnifiedTicketRecord{
		TicketFields: fields,
		Confidence:   confidence,
		Source:       source,
		Evidence:     evidence,
	}
}

// StrPtr is a convenience for building optional fields.
func StrPtr(s string) *string { return &s }

// FloatPtr is a convenience for building optional amounts.
func FloatPtr(f float64) *float64 { return &f }
