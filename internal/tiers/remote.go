package tiers

import (
	"context"
	"time"

	"ticket-scout/internal/common/errors"
	"ticket-scout/internal/models"
)

// RemoteTier calls the managed lookup function. Structured responses from it
// carry the highest confidence prior in the pipeline.
type RemoteTier struct {
	client *lookupClient
	prior  float64
}

func NewRemoteTier(baseURL, apiKey string, timeout time.Duration, prior float64) (*RemoteTier, error) {
	client, err := newLookupClient(baseURL, apiKey, timeout)
	if err != nil {
		return nil, err
	}
	return &RemoteTier{client: client, prior: prior}, nil
}

func (t *RemoteTier) Name() string { return "remote" }

func (t *RemoteTier) Lookup(ctx context.Context, source string, criteria models.SearchCriteria) ([]models.UnifiedTicketRecord, error) {
	resp, err := t.client.lookup(ctx, source, criteria)
	if err != nil {
		return nil, errors.NewRemoteTierUnavailableError(source, err)
	}
	return toRecords(resp, source, t.prior), nil
}
