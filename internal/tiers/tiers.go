// Package tiers runs one lookup through a fixed fallback chain:
// remote managed function, then (in development) a local scraping service,
// then a direct in-process scrape. The first tier that returns a non-empty
// set wins; failures and empty sets both advance the chain.
package tiers

import (
	"context"

	"ticket-scout/internal/models"
)

// Tier is one remote execution backend for a lookup. Implementations map
// their transport failures to the tier-specific error codes; the
// orchestrator decides what a failure means for the chain.
type Tier interface {
	Name() string
	Lookup(ctx context.Context, source string, criteria models.SearchCriteria) ([]models.UnifiedTicketRecord, error)
}
