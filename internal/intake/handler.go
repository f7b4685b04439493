package intake

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strings"

	"ticket-scout/internal/common/errors"
	"ticket-scout/internal/common/logger"
	"ticket-scout/internal/models"

	"github.com/google/uuid"
)

// maxImageBytes caps uploaded citation photos.
const maxImageBytes = 10 << 20

// Handler exposes the coordinator over HTTP.
type Handler struct {
	coordinator *Coordinator
	logger      logger.Logger
}

func NewHandler(coordinator *Coordinator, log logger.Logger) *Handler {
	return &Handler{coordinator: coordinator, logger: log}
}

// Register mounts the search endpoint on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/v1/tickets/search", h.Search)
}

type errorResponse struct {
	Code       string   `json:"code"`
	Message    string   `json:"message"`
	Violations []string `json:"violations,omitempty"`
}

// Search handles POST /v1/tickets/search. Accepts a JSON body or a
// multipart form with an `image` file part and a `request` JSON part.
// Validation failures come back as 400 with every violation listed; branch
// failures do not fail the request and are reported inside the 200 body.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{
			Code:    "METHOD_NOT_ALLOWED",
			Message: "use POST",
		})
		return
	}

	requestID := uuid.New().String()
	log := h.logger.WithFields(map[string]interface{}{"requestId": requestID})

	req, err := decodeSearchRequest(r)
	if err != nil {
		log.Warn("malformed search request", map[string]interface{}{"error": err.Error()})
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:    "MALFORMED_REQUEST",
			Message: err.Error(),
		})
		return
	}

	resp, err := h.coordinator.Search(r.Context(), *req)
	if err != nil {
		var stdErr *errors.StandardError
		if stderrors.As(err, &stdErr) && stdErr.Code == errors.ErrCodeValidationFailed {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Code:       string(stdErr.Code),
				Message:    stdErr.Message,
				Violations: violationList(stdErr),
			})
			return
		}
		log.Error("search failed", map[string]interface{}{"error": err.Error()})
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Code:    "INTERNAL_ERROR",
			Message: "search could not be executed",
		})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func decodeSearchRequest(r *http.Request) (*models.SearchRequest, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		return decodeMultipart(r)
	}

	var req models.SearchRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxImageBytes*2)).Decode(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

func decodeMultipart(r *http.Request) (*models.SearchRequest, error) {
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		return nil, err
	}

	var req models.SearchRequest
	if raw := r.FormValue("request"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req); err != nil {
			return nil, err
		}
	}

	file, _, err := r.FormFile("image")
	if err == nil {
		defer file.Close()
		image, readErr := io.ReadAll(io.LimitReader(file, maxImageBytes))
		if readErr != nil {
			return nil, readErr
		}
		req.Image = image
	} else if err != http.ErrMissingFile {
		return nil, err
	}
	return &req, nil
}

func violationList(stdErr *errors.StandardError) []string {
	if raw, ok := stdErr.Metadata["violations"].([]string); ok {
		return raw
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
