package tiers

import (
	"context"
	"time"

	"ticket-scout/internal/common/errors"
	"ticket-scout/internal/models"
)

// LocalTier calls a scraping service running next to the app. It speaks the
// same wire shape as the remote function but is only ever constructed for a
// development context; its output is free text run through extraction
// upstream, so it carries the scrape prior, not the structured one.
type LocalTier struct {
	client *lookupClient
	prior  float64
}

func NewLocalTier(baseURL string, timeout time.Duration, prior float64) (*LocalTier, error) {
	client, err := newLookupClient(baseURL, "", timeout)
	if err != nil {
		return nil, err
	}
	return &LocalTier{client: client, prior: prior}, nil
}

func (t *LocalTier) Name() string { return "local" }

func (t *LocalTier) Lookup(ctx context.Context, source string, criteria models.SearchCriteria) ([]models.UnifiedTicketRecord, error) {
	resp, err := t.client.lookup(ctx, source, criteria)
	if err != nil {
		return nil, errors.NewLocalTierUnavailableError(source, err)
	}
	return toRecords(resp, source, t.prior), nil
}
