package intake

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ticket-scout/internal/common/errors"
	"ticket-scout/internal/common/logger"
	"ticket-scout/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestHandler(t *testing.T, resolver Resolver, ocrStage ImageProcessor) *Handler {
	coordinator := createTestCoordinator(t, resolver, ocrStage, nil)
	return NewHandler(coordinator, logger.NewTestLogger(t))
}

func postJSON(t *testing.T, handler *Handler, body interface{}) *httptest.ResponseRecorder {
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/tickets/search", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	handler.Search(recorder, req)
	return recorder
}

// ==========================
// Handler Tests
// ==========================

func TestHandler_Search_Success(t *testing.T) {
	resolver := &fakeResolver{outcomes: map[string]resolverOutcome{
		"shavano-park": {records: []models.UnifiedTicketRecord{portalRecord("SP2026-881", 0.95, models.SourceShavanoPark)}},
	}}
	handler := createTestHandler(t, resolver, nil)

	recorder := postJSON(t, handler, validRequest())

	require.Equal(t, http.StatusOK, recorder.Code)

	var resp models.SearchResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "SP2026-881", resp.Records[0].CitationNumber)
	assert.Empty(t, resp.PerSourceErrors)
}

func TestHandler_Search_ValidationFailureIs400WithViolations(t *testing.T) {
	handler := createTestHandler(t, &fakeResolver{}, nil)

	recorder := postJSON(t, handler, models.SearchRequest{
		Sources:  []string{"atlantis"},
		Criteria: models.SearchCriteria{LicenseNumber: "x", State: "Texas"},
	})

	require.Equal(t, http.StatusBadRequest, recorder.Code)

	var resp struct {
		Code       string   `json:"code"`
		Violations []string `json:"violations"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, string(errors.ErrCodeValidationFailed), resp.Code)
	assert.GreaterOrEqual(t, len(resp.Violations), 3, "every violation is listed")
}

func TestHandler_Search_FailedSourceIsStill200(t *testing.T) {
	resolver := &fakeResolver{outcomes: map[string]resolverOutcome{
		"shavano-park": {err: errors.NewFormNotFoundError("shavano-park", "#license")},
	}}
	handler := createTestHandler(t, resolver, nil)

	recorder := postJSON(t, handler, validRequest())

	require.Equal(t, http.StatusOK, recorder.Code, "branch failure is reported in the body, not the status")

	var resp models.SearchResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Empty(t, resp.Records)
	assert.Equal(t, string(errors.ErrCodeFormNotFound), resp.PerSourceErrors["shavano-park"])
}

func TestHandler_Search_MalformedJSONIs400(t *testing.T) {
	handler := createTestHandler(t, &fakeResolver{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/tickets/search", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	handler.Search(recorder, req)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestHandler_Search_RejectsGET(t *testing.T) {
	handler := createTestHandler(t, &fakeResolver{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/tickets/search", nil)
	recorder := httptest.NewRecorder()
	handler.Search(recorder, req)

	assert.Equal(t, http.StatusMethodNotAllowed, recorder.Code)
	assert.Equal(t, http.MethodPost, recorder.Header().Get("Allow"))
}

func TestHandler_Search_MultipartImageUpload(t *testing.T) {
	ocrStage := &fakeOCR{records: []models.UnifiedTicketRecord{
		portalRecord("SP2026-990", 0.51, models.SourceOCR),
	}}
	handler := createTestHandler(t, &fakeResolver{}, ocrStage)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image", "citation.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte{0xFF, 0xD8, 0xFF, 0xE0})
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/tickets/search", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	recorder := httptest.NewRecorder()
	handler.Search(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)

	var resp models.SearchResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	require.Len(t, resp.Records, 1)
	assert.Equal(t, models.SourceOCR, resp.Records[0].Source)
	assert.Equal(t, 1, ocrStage.calls)
}
