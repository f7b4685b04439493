package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Recognizer converts one image into raw text plus the recognizer's own
// confidence score in [0,1].
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (string, float64, error)
}

// HTTPRecognizer calls a hosted recognition endpoint. The wire shape is
// {image, locale} in, {text, confidence} out.
type HTTPRecognizer struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type recognizeRequest struct {
	Image  string `json:"image"`
	Locale string `json:"locale,omitempty"`
}

type recognizeResponse struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

func NewHTTPRecognizer(baseURL, apiKey string, timeout time.Duration) *HTTPRecognizer {
	return &HTTPRecognizer{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (r *HTTPRecognizer) Recognize(ctx context.Context, image []byte) (string, float64, error) {
	payload := recognizeRequest{
		Image:  base64.StdEncoding.EncodeToString(image),
		Locale: "en-US",
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", 0, fmt.Errorf("failed to marshal recognition request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/recognize", r.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("failed to execute recognition request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read recognition response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("recognition failed (status %d): %s", resp.StatusCode, string(body))
	}

	var recognized recognizeResponse
	if err := json.Unmarshal(body, &recognized); err != nil {
		return "", 0, fmt.Errorf("failed to unmarshal recognition response: %w", err)
	}

	return recognized.Text, recognized.Confidence, nil
}
