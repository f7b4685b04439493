package tiers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	commonhttp "ticket-scout/internal/common/http"
	"ticket-scout/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

// lookupResponseSchema is enforced on every tier response before any field
// is trusted. Both lookup backends speak the same wire shape.
const lookupResponseSchema = `{
  "type": "object",
  "required": ["tickets", "count"],
  "properties": {
    "tickets": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["citationNo"],
        "properties": {
          "citationNo": {"type": "string", "minLength": 1},
          "violation":  {"type": "string"},
          "fineAmount": {"type": "number"},
          "dueDate":    {"type": "string"},
          "courtName":  {"type": "string"}
        }
      }
    },
    "count": {"type": "integer", "minimum": 0}
  }
}`

type lookupRequest struct {
	Source        string `json:"source"`
	LicenseNumber string `json:"licenseNumber"`
	State         string `json:"state"`
	DOB           string `json:"dob,omitempty"`
}

type lookupTicket struct {
	CitationNo string   `json:"citationNo"`
	Violation  *string  `json:"violation,omitempty"`
	FineAmount *float64 `json:"fineAmount,omitempty"`
	DueDate    *string  `json:"dueDate,omitempty"`
	CourtName  *string  `json:"courtName,omitempty"`
}

type lookupResponse struct {
	Tickets []lookupTicket `json:"tickets"`
	Count   int            `json:"count"`
}

// lookupClient is the shared transport for both lookup backends.
type lookupClient struct {
	baseURL    string
	apiKey     string
	httpClient *commonhttp.Client
	schema     *gojsonschema.Schema
}

func newLookupClient(baseURL, apiKey string, timeout time.Duration) (*lookupClient, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(lookupResponseSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile lookup response schema: %w", err)
	}
	return &lookupClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: commonhttp.NewClient(timeout),
		schema:     schema,
	}, nil
}

func (c *lookupClient) lookup(ctx context.Context, source string, criteria models.SearchCriteria) (*lookupResponse, error) {
	payload := lookupRequest{
		Source:        source,
		LicenseNumber: criteria.LicenseNumber,
		State:         criteria.State,
		DOB:           criteria.DateOfBirth,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal lookup request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/lookup", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create lookup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute lookup request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read lookup response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("lookup failed (status %d): %s", resp.StatusCode, string(body))
	}

	result, err := c.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to validate lookup response: %w", err)
	}
	if !result.Valid() {
		violations := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			violations = append(violations, desc.String())
		}
		return nil, fmt.Errorf("lookup response failed schema validation: %s", strings.Join(violations, "; "))
	}

	var parsed lookupResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lookup response: %w", err)
	}
	return &parsed, nil
}

// toRecords converts a validated wire response into canonical records.
// Structured backend reads carry a flat prior and no raw-text evidence.
func toRecords(resp *lookupResponse, source string, prior float64) []models.UnifiedTicketRecord {
	capturedAt := time.Now().UTC()
	records := make([]models.UnifiedTicketRecord, 0, len(resp.Tickets))
	for _, ticket := range resp.Tickets {
		if ticket.CitationNo == "" {
			continue
		}
		fields := models.TicketFields{
			CitationNumber: ticket.CitationNo,
			Violation:      ticket.Violation,
			FineAmount:     ticket.FineAmount,
			DueDate:        ticket.DueDate,
			CourtName:      ticket.CourtName,
		}
		records = append(records, models.NewRecord(fields, prior, models.Source(source), models.Evidence{
			CapturedAt: capturedAt,
		}))
	}
	return records
}
