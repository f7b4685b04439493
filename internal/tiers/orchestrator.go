package tiers

import (
	"context"

	"ticket-scout/internal/common/cache"
	"ticket-scout/internal/common/config"
	"ticket-scout/internal/common/errors"
	"ticket-scout/internal/common/logger"
	"ticket-scout/internal/common/metrics"
	"ticket-scout/internal/models"
)

// DirectRunner is the in-process scrape, the chain's last resort.
// *scrape.Scraper satisfies it.
type DirectRunner interface {
	Run(ctx context.Context, source string, portal config.SourceConfig, criteria models.SearchCriteria) ([]models.UnifiedTicketRecord, error)
}

// Orchestrator resolves one (source, criteria) lookup through the fallback
// chain. Whether the local tier participates is fixed at construction; the
// decision never reads the process environment here.
type Orchestrator struct {
	remote        Tier
	local         Tier
	direct        DirectRunner
	resultCache   *cache.ResultCache
	isDevelopment bool
	logger        logger.Logger
}

func NewOrchestrator(remote, local Tier, direct DirectRunner, resultCache *cache.ResultCache, isDevelopment bool, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		remote:        remote,
		local:         local,
		direct:        direct,
		resultCache:   resultCache,
		isDevelopment: isDevelopment,
		logger:        log,
	}
}

type attempt struct {
	name string
	run  func(ctx context.Context) ([]models.UnifiedTicketRecord, error)
}

// Resolve walks the chain in priority order. The first tier returning a
// non-empty set wins; a tier failure or an empty set advances to the next
// tier. A chain where every tier succeeded with zero records is a valid
// zero-found result. Only when at least one tier failed and none resolved
// does the lookup report exhaustion, wrapping the most recent failure.
func (o *Orchestrator) Resolve(ctx context.Context, source string, portal config.SourceConfig, criteria models.SearchCriteria) ([]models.UnifiedTicketRecord, error) {
	log := o.logger.WithFields(map[string]interface{}{"source": source})

	cacheKey := cache.Key(source, criteria.LicenseNumber, criteria.State)
	if cached, ok := o.checkCache(ctx, cacheKey, log); ok {
		return cached, nil
	}

	var lastErr error
	for _, tier := range o.chain(source, portal, criteria) {
		metrics.TierAttempts.WithLabelValues(source, tier.name).Inc()

		records, err := tier.run(ctx)
		if err != nil {
			log.Warn("tier failed, advancing", map[string]interface{}{
				"tier":  tier.name,
				"error": err.Error(),
			})
			lastErr = err
			continue
		}
		if len(records) == 0 {
			log.Debug("tier returned no records, advancing", map[string]interface{}{"tier": tier.name})
			continue
		}

		metrics.TierResolutions.WithLabelValues(source, tier.name).Inc()
		log.Info("lookup resolved", map[string]interface{}{
			"tier":    tier.name,
			"records": len(records),
		})
		o.populateCache(ctx, cacheKey, records, log)
		return records, nil
	}

	if lastErr != nil {
		return nil, errors.NewAllTiersExhaustedError(source, lastErr)
	}
	return []models.UnifiedTicketRecord{}, nil
}

func (o *Orchestrator) chain(source string, portal config.SourceConfig, criteria models.SearchCriteria) []attempt {
	attempts := make([]attempt, 0, 3)
	if o.remote != nil {
		attempts = append(attempts, attempt{
			name: o.remote.Name(),
			run: func(ctx context.Context) ([]models.UnifiedTicketRecord, error) {
				return o.remote.Lookup(ctx, source, criteria)
			},
		})
	}
	if o.isDevelopment && o.local != nil {
		attempts = append(attempts, attempt{
			name: o.local.Name(),
			run: func(ctx context.Context) ([]models.UnifiedTicketRecord, error) {
				return o.local.Lookup(ctx, source, criteria)
			},
		})
	}
	if o.direct != nil {
		attempts = append(attempts, attempt{
			name: "direct",
			run: func(ctx context.Context) ([]models.UnifiedTicketRecord, error) {
				return o.direct.Run(ctx, source, portal, criteria)
			},
		})
	}
	return attempts
}

func (o *Orchestrator) checkCache(ctx context.Context, key string, log logger.Logger) ([]models.UnifiedTicketRecord, bool) {
	if o.resultCache == nil {
		return nil, false
	}
	var records []models.UnifiedTicketRecord
	hit, err := o.resultCache.Get(ctx, key, &records)
	if err != nil {
		// Cache trouble never fails a lookup.
		log.Debug("result cache read failed", map[string]interface{}{"error": err.Error()})
		return nil, false
	}
	if !hit {
		metrics.CacheHits.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.CacheHits.WithLabelValues("hit").Inc()
	log.Debug("lookup served from result cache", map[string]interface{}{"records": len(records)})
	return records, true
}

func (o *Orchestrator) populateCache(ctx context.Context, key string, records []models.UnifiedTicketRecord, log logger.Logger) {
	if o.resultCache == nil {
		return
	}
	if err := o.resultCache.Set(ctx, key, records); err != nil {
		log.Debug("result cache write failed", map[string]interface{}{"error": err.Error()})
	}
}
