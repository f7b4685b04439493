// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TierAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acquisition_tier_attempts_total",
			Help: "Total number of execution tier attempts per source",
		},
		[]string{"source", "tier"},
	)

	TierResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acquisition_tier_resolutions_total",
			Help: "Total number of lookups resolved, labeled by the winning tier",
		},
		[]string{"source", "tier"},
	)

	ScrapeOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acquisition_scrape_outcomes_total",
			Help: "Scraper terminal states per jurisdiction",
		},
		[]string{"source", "outcome"},
	)

	OCROutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acquisition_ocr_outcomes_total",
			Help: "OCR stage outcomes",
		},
		[]string{"outcome"},
	)

	RecordsExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acquisition_records_extracted_total",
			Help: "Raw records produced before deduplication, per source",
		},
		[]string{"source"},
	)

	BranchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "acquisition_branch_duration_seconds",
			Help: "Duration of one source or OCR branch in seconds",
		},
		[]string{"branch"},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acquisition_cache_hits_total",
			Help: "Result cache hits and misses",
		},
		[]string{"outcome"},
	)
)
