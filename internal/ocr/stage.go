// Package ocr turns an uploaded citation photograph into unified records by
// recognizing text and handing it to the extraction engine.
package ocr

import (
	"context"
	"time"

	"ticket-scout/internal/common/errors"
	"ticket-scout/internal/common/logger"
	"ticket-scout/internal/common/metrics"
	"ticket-scout/internal/extract"
	"ticket-scout/internal/models"
)

// Stage runs the image branch of an intake. Recognition failures are
// terminal: there is no fallback tier for OCR, the caller offers manual
// entry instead.
type Stage struct {
	recognizer Recognizer
	engine     *extract.Engine
	basePrior  float64
	logger     logger.Logger
}

func NewStage(recognizer Recognizer, engine *extract.Engine, basePrior float64, log logger.Logger) *Stage {
	return &Stage{
		recognizer: recognizer,
		engine:     engine,
		basePrior:  basePrior,
		logger:     log.WithFields(map[string]interface{}{"branch": "ocr"}),
	}
}

// Process recognizes the image and extracts citation groups from the text.
// OCR-derived confidence is the recognizer's own score scaled by the OCR
// prior, so it always ranks below a direct portal read of the same ticket.
func (s *Stage) Process(ctx context.Context, image []byte) ([]models.UnifiedTicketRecord, error) {
	text, recognizerConf, err := s.recognizer.Recognize(ctx, image)
	if err != nil {
		metrics.OCROutcomes.WithLabelValues("recognition_error").Inc()
		s.logger.Warn("recognition failed", map[string]interface{}{"error": err.Error()})
		return nil, errors.NewRecognitionFailedError(err)
	}
	if text == "" {
		metrics.OCROutcomes.WithLabelValues("empty_text").Inc()
		return nil, errors.NewRecognitionFailedError(nil)
	}

	capturedAt := time.Now().UTC()
	groups := s.engine.ExtractAll(text)

	records := make([]models.UnifiedTicketRecord, 0, len(groups))
	for _, group := range groups {
		if group.Fields.CitationNumber == "" {
			continue
		}
		confidence := s.basePrior * clamp01(recognizerConf)
		records = append(records, models.NewRecord(group.Fields, confidence, models.SourceOCR, models.Evidence{
			RawText:    text,
			CapturedAt: capturedAt,
		}))
	}

	metrics.OCROutcomes.WithLabelValues("success").Inc()
	metrics.RecordsExtracted.WithLabelValues(string(models.SourceOCR)).Add(float64(len(records)))

	s.logger.Info("image processed", map[string]interface{}{
		"recognizerConfidence": recognizerConf,
		"records":              len(records),
	})

	return records, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
