// Package intake validates search requests, fans them out across portal and
// OCR branches, and merges the surviving records. A failing branch never
// takes the rest of the request down with it.
package intake

import (
	"context"
	"sync"
	"time"

	"ticket-scout/internal/common/config"
	"ticket-scout/internal/common/errors"
	"ticket-scout/internal/common/logger"
	"ticket-scout/internal/common/metrics"
	"ticket-scout/internal/dedup"
	"ticket-scout/internal/models"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// ocrBranchKey is the perSourceErrors key for the image branch.
const ocrBranchKey = "ocr"

// Resolver runs one source lookup through the fallback chain.
// *tiers.Orchestrator satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, source string, portal config.SourceConfig, criteria models.SearchCriteria) ([]models.UnifiedTicketRecord, error)
}

// ImageProcessor turns one uploaded image into records. *ocr.Stage
// satisfies it.
type ImageProcessor interface {
	Process(ctx context.Context, image []byte) ([]models.UnifiedTicketRecord, error)
}

type Coordinator struct {
	resolver      Resolver
	ocr           ImageProcessor
	sources       map[string]config.SourceConfig
	sink          models.RecordSink
	errorHandler  *errors.BranchErrorHandler
	maxConcurrent int64
	logger        logger.Logger
}

func NewCoordinator(resolver Resolver, ocrStage ImageProcessor, sources map[string]config.SourceConfig, sink models.RecordSink, maxConcurrent int, log logger.Logger) *Coordinator {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if sink == nil {
		sink = models.DiscardSink{}
	}
	return &Coordinator{
		resolver:      resolver,
		ocr:           ocrStage,
		sources:       sources,
		sink:          sink,
		errorHandler:  errors.NewBranchErrorHandler(log),
		maxConcurrent: int64(maxConcurrent),
		logger:        log,
	}
}

// Search validates the request, runs one branch per requested source plus an
// OCR branch when an image is attached, and merges the results. Branches run
// in parallel under a concurrency cap; each branch's outcome is independent.
// The returned response always distinguishes "source found nothing" (no
// records, no error entry) from "source failed" (an entry in
// PerSourceErrors).
func (c *Coordinator) Search(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
	if result := ValidateRequest(req, c.sources); !result.Valid {
		return nil, errors.NewValidationFailedError(result.GetErrorMessages())
	}

	var (
		mu           sync.Mutex
		collected    []models.UnifiedTicketRecord
		branchErrors = map[string]string{}
	)
	fail := func(branch string, err error) {
		code := c.errorHandler.HandleBranchError(branch, err)
		mu.Lock()
		branchErrors[branch] = string(code)
		mu.Unlock()
	}
	succeed := func(records []models.UnifiedTicketRecord) {
		mu.Lock()
		collected = append(collected, records...)
		mu.Unlock()
	}

	sem := semaphore.NewWeighted(c.maxConcurrent)
	group, groupCtx := errgroup.WithContext(ctx)

	for _, id := range req.Sources {
		source := id
		portal := c.sources[source]
		group.Go(func() error {
			if err := sem.Acquire(groupCtx, 1); err != nil {
				fail(source, err)
				return nil
			}
			defer sem.Release(1)

			started := time.Now()
			records, err := c.resolver.Resolve(groupCtx, source, portal, req.Criteria)
			metrics.BranchDuration.WithLabelValues(source).Observe(time.Since(started).Seconds())

			if err != nil {
				fail(source, err)
				return nil
			}
			succeed(records)
			return nil
		})
	}

	if len(req.Image) > 0 && c.ocr != nil {
		image := req.Image
		group.Go(func() error {
			if err := sem.Acquire(groupCtx, 1); err != nil {
				fail(ocrBranchKey, err)
				return nil
			}
			defer sem.Release(1)

			started := time.Now()
			records, err := c.ocr.Process(groupCtx, image)
			metrics.BranchDuration.WithLabelValues(ocrBranchKey).Observe(time.Since(started).Seconds())

			if err != nil {
				fail(ocrBranchKey, err)
				return nil
			}
			succeed(records)
			return nil
		})
	}

	// Branches report through fail/succeed, never through the group error.
	_ = group.Wait()

	merged := dedup.Merge(collected)
	if err := c.sink.Store(merged); err != nil {
		c.logger.Warn("record sink rejected results", map[string]interface{}{"error": err.Error()})
	}

	c.logger.Info("search finished", map[string]interface{}{
		"requestedSources": len(req.Sources),
		"records":          len(merged),
		"failedBranches":   len(branchErrors),
	})

	return &models.SearchResponse{
		Records:         merged,
		PerSourceErrors: branchErrors,
	}, nil
}
