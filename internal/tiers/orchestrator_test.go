package tiers

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"ticket-scout/internal/common/cache"
	"ticket-scout/internal/common/config"
	"ticket-scout/internal/common/errors"
	"ticket-scout/internal/common/logger"
	"ticket-scout/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeTier struct {
	name    string
	records []models.UnifiedTicketRecord
	err     error
	calls   int
}

func (f *fakeTier) Name() string { return f.name }

func (f *fakeTier) Lookup(_ context.Context, _ string, _ models.SearchCriteria) ([]models.UnifiedTicketRecord, error) {
	f.calls++
	return f.records, f.err
}

type fakeDirect struct {
	records []models.UnifiedTicketRecord
	err     error
	calls   int
}

func (f *fakeDirect) Run(_ context.Context, _ string, _ config.SourceConfig, _ models.SearchCriteria) ([]models.UnifiedTicketRecord, error) {
	f.calls++
	return f.records, f.err
}

func testRecord(citation string, confidence float64, source models.Source) models.UnifiedTicketRecord {
	return models.NewRecord(models.TicketFields{CitationNumber: citation}, confidence, source, models.Evidence{
		CapturedAt: time.Now().UTC(),
	})
}

func testCriteria() models.SearchCriteria {
	return models.SearchCriteria{LicenseNumber: "D123456789", State: "TX"}
}

func testCache(t *testing.T) *cache.ResultCache {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return cache.NewWithClient(client, 10*time.Minute)
}

// ==========================
// Fallback Chain Tests
// ==========================

func TestOrchestrator_EmptyRemoteAdvancesToLocal(t *testing.T) {
	remote := &fakeTier{name: "remote"}
	local := &fakeTier{name: "local", records: []models.UnifiedTicketRecord{
		testRecord("LV-1001", 0.70, models.SourceLeonValley),
	}}
	direct := &fakeDirect{}

	orch := NewOrchestrator(remote, local, direct, nil, true, logger.NewTestLogger(t))

	records, err := orch.Resolve(context.Background(), "leon-valley", config.SourceConfig{}, testCriteria())

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "LV-1001", records[0].CitationNumber)
	assert.Equal(t, 1, remote.calls)
	assert.Equal(t, 0, direct.calls, "chain stops at the first non-empty tier")
}

func TestOrchestrator_FailedRemoteAdvancesToDirect(t *testing.T) {
	remote := &fakeTier{name: "remote", err: stderrors.New("function endpoint gone")}
	direct := &fakeDirect{records: []models.UnifiedTicketRecord{
		testRecord("SP2026-881", 0.55, models.SourceShavanoPark),
	}}

	orch := NewOrchestrator(remote, nil, direct, nil, false, logger.NewTestLogger(t))

	records, err := orch.Resolve(context.Background(), "shavano-park", config.SourceConfig{}, testCriteria())

	require.NoError(t, err, "an intermediate tier failure is swallowed once a later tier resolves")
	require.Len(t, records, 1)
	assert.Equal(t, "SP2026-881", records[0].CitationNumber)
	assert.Equal(t, 1, direct.calls)
}

func TestOrchestrator_AllTiersFailing(t *testing.T) {
	remote := &fakeTier{name: "remote", err: stderrors.New("remote down")}
	local := &fakeTier{name: "local", err: stderrors.New("local down")}
	directErr := stderrors.New("portal unreachable")
	direct := &fakeDirect{err: directErr}

	orch := NewOrchestrator(remote, local, direct, nil, true, logger.NewTestLogger(t))

	_, err := orch.Resolve(context.Background(), "leon-valley", config.SourceConfig{}, testCriteria())

	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeAllTiersExhausted, stdErr.Code)
	assert.ErrorIs(t, err, directErr, "exhaustion wraps the most recent tier failure")
}

func TestOrchestrator_AllTiersEmptyIsZeroFound(t *testing.T) {
	remote := &fakeTier{name: "remote"}
	direct := &fakeDirect{records: []models.UnifiedTicketRecord{}}

	orch := NewOrchestrator(remote, nil, direct, nil, false, logger.NewTestLogger(t))

	records, err := orch.Resolve(context.Background(), "shavano-park", config.SourceConfig{}, testCriteria())

	require.NoError(t, err, "every tier agreeing on zero records is not a failure")
	assert.Empty(t, records)
}

func TestOrchestrator_LocalTierOnlyRunsInDevelopment(t *testing.T) {
	remote := &fakeTier{name: "remote"}
	local := &fakeTier{name: "local", records: []models.UnifiedTicketRecord{
		testRecord("LV-1001", 0.70, models.SourceLeonValley),
	}}
	direct := &fakeDirect{}

	orch := NewOrchestrator(remote, local, direct, nil, false, logger.NewTestLogger(t))

	records, err := orch.Resolve(context.Background(), "leon-valley", config.SourceConfig{}, testCriteria())

	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, 0, local.calls, "local tier is dead outside a development context")
	assert.Equal(t, 1, direct.calls)
}

// ==========================
// Result Cache Tests
// ==========================

func TestOrchestrator_CachePopulatedAfterResolution(t *testing.T) {
	resultCache := testCache(t)
	remote := &fakeTier{name: "remote", records: []models.UnifiedTicketRecord{
		testRecord("SP2026-881", 0.95, models.SourceShavanoPark),
	}}

	orch := NewOrchestrator(remote, nil, nil, resultCache, false, logger.NewTestLogger(t))

	first, err := orch.Resolve(context.Background(), "shavano-park", config.SourceConfig{}, testCriteria())
	require.NoError(t, err)
	require.Len(t, first, 1)

	// Second lookup is served from the cache without touching any tier.
	second, err := orch.Resolve(context.Background(), "shavano-park", config.SourceConfig{}, testCriteria())
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "SP2026-881", second[0].CitationNumber)
	assert.Equal(t, 1, remote.calls)
}

func TestOrchestrator_EmptyResolutionIsNotCached(t *testing.T) {
	resultCache := testCache(t)
	remote := &fakeTier{name: "remote"}
	direct := &fakeDirect{}

	orch := NewOrchestrator(remote, nil, direct, resultCache, false, logger.NewTestLogger(t))

	_, err := orch.Resolve(context.Background(), "shavano-park", config.SourceConfig{}, testCriteria())
	require.NoError(t, err)

	_, err = orch.Resolve(context.Background(), "shavano-park", config.SourceConfig{}, testCriteria())
	require.NoError(t, err)
	assert.Equal(t, 2, remote.calls, "zero-found results are re-checked, not cached")
}
