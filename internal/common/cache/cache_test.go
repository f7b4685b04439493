package cache

import (
	"context"
	"testing"
	"time"

	"ticket-scout/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestCache(t *testing.T) (*ResultCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewWithClient(client, 10*time.Minute), mr
}

func TestKey_LicenseNumberNeverAppearsInKey(t *testing.T) {
	key := Key("shavano-park", "D123456789", "TX")

	assert.Contains(t, key, "lookup:shavano-park:")
	assert.NotContains(t, key, "D123456789")
}

func TestKey_DistinctCriteriaDistinctKeys(t *testing.T) {
	a := Key("shavano-park", "D123456789", "TX")
	b := Key("shavano-park", "D123456780", "TX")
	c := Key("leon-valley", "D123456789", "TX")

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestResultCache_RoundTrip(t *testing.T) {
	resultCache, _ := createTestCache(t)
	ctx := context.Background()
	key := Key("shavano-park", "D123456789", "TX")

	records := []models.UnifiedTicketRecord{
		models.NewRecord(models.TicketFields{CitationNumber: "SP2026-881"}, 0.95, models.SourceShavanoPark, models.Evidence{
			CapturedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		}),
	}

	require.NoError(t, resultCache.Set(ctx, key, records))

	var restored []models.UnifiedTicketRecord
	hit, err := resultCache.Get(ctx, key, &restored)
	require.NoError(t, err)
	require.True(t, hit)
	require.Len(t, restored, 1)
	assert.Equal(t, "SP2026-881", restored[0].CitationNumber)
	assert.Equal(t, 0.95, restored[0].Confidence)
}

func TestResultCache_MissIsNotAnError(t *testing.T) {
	resultCache, _ := createTestCache(t)

	var dest []models.UnifiedTicketRecord
	hit, err := resultCache.Get(context.Background(), Key("leon-valley", "X999", "TX"), &dest)

	require.NoError(t, err)
	assert.False(t, hit)
}

func TestResultCache_EntriesExpire(t *testing.T) {
	resultCache, mr := createTestCache(t)
	ctx := context.Background()
	key := Key("shavano-park", "D123456789", "TX")

	require.NoError(t, resultCache.Set(ctx, key, []models.UnifiedTicketRecord{}))

	mr.FastForward(11 * time.Minute)

	var dest []models.UnifiedTicketRecord
	hit, err := resultCache.Get(ctx, key, &dest)
	require.NoError(t, err)
	assert.False(t, hit)
}
