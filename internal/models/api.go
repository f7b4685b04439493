package models

// SearchRequest is the inbound request from the UI/API layer. Image bytes
// are optional; when present the OCR branch runs next to the source branches.
type SearchRequest struct {
	Sources  []string       `json:"sources"`
	Criteria SearchCriteria `json:"criteria"`
	Image    []byte         `json:"image,omitempty"`
}

// SearchResponse carries every record the succeeding branches produced plus
// a per-source error summary. "Zero found" and "search failed" are always
// distinguishable: a failed source appears in PerSourceErrors, a source with
// no tickets simply contributes no records.
type SearchResponse struct {
	Records         []UnifiedTicketRecord `json:"records"`
	PerSourceErrors map[string]string     `json:"perSourceErrors"`
}

// RecordSink is the storage collaborator boundary. The acquisition core
// hands finalized records to a sink and never persists anything itself.
type RecordSink interface {
	Store(records []UnifiedTicketRecord) error
}

// DiscardSink drops records; wired when no persistence service is attached.
type DiscardSink struct{}

func (DiscardSink) Store([]UnifiedTicketRecord) error { return nil }
