package dedup

import (
	"testing"
	"time"

	"ticket-scout/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func record(citation string, confidence float64, source models.Source) models.UnifiedTicketRecord {
	return models.NewRecord(models.TicketFields{CitationNumber: citation}, confidence, source, models.Evidence{
		CapturedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	})
}

// ==========================
// Deduplication Tests
// ==========================

func TestMerge_HigherConfidenceWins(t *testing.T) {
	merged := Merge([]models.UnifiedTicketRecord{
		record("SP2026-881", 0.42, models.SourceOCR),
		record("SP2026-881", 0.95, models.SourceShavanoPark),
	})

	require.Len(t, merged, 1)
	assert.Equal(t, models.SourceShavanoPark, merged[0].Source)
	assert.Equal(t, 0.95, merged[0].Confidence)
}

func TestMerge_TiePrefersPortalOverOCR(t *testing.T) {
	tests := []struct {
		name  string
		input []models.UnifiedTicketRecord
	}{
		{
			name: "ocr first",
			input: []models.UnifiedTicketRecord{
				record("LV-1001", 0.60, models.SourceOCR),
				record("LV-1001", 0.60, models.SourceLeonValley),
			},
		},
		{
			name: "portal first",
			input: []models.UnifiedTicketRecord{
				record("LV-1001", 0.60, models.SourceLeonValley),
				record("LV-1001", 0.60, models.SourceOCR),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged := Merge(tt.input)
			require.Len(t, merged, 1)
			assert.Equal(t, models.SourceLeonValley, merged[0].Source, "tie-break must not depend on input order")
		})
	}
}

func TestMerge_EmptyCitationIsDropped(t *testing.T) {
	merged := Merge([]models.UnifiedTicketRecord{
		record("", 0.99, models.SourceShavanoPark),
		record("BH-2002", 0.40, models.SourceBalconesHeights),
	})

	require.Len(t, merged, 1)
	assert.Equal(t, "BH-2002", merged[0].CitationNumber)
}

func TestMerge_DistinctCitationsAllSurvive(t *testing.T) {
	merged := Merge([]models.UnifiedTicketRecord{
		record("SP2026-881", 0.55, models.SourceShavanoPark),
		record("LV-1001", 0.70, models.SourceLeonValley),
		record("BH-2002", 0.70, models.SourceBalconesHeights),
	})

	assert.Len(t, merged, 3)
}

// ==========================
// Ranking Tests
// ==========================

func TestMerge_SortedByDescendingConfidence(t *testing.T) {
	merged := Merge([]models.UnifiedTicketRecord{
		record("BH-2002", 0.40, models.SourceBalconesHeights),
		record("SP2026-881", 0.95, models.SourceShavanoPark),
		record("LV-1001", 0.70, models.SourceLeonValley),
	})

	require.Len(t, merged, 3)
	assert.Equal(t, "SP2026-881", merged[0].CitationNumber)
	assert.Equal(t, "LV-1001", merged[1].CitationNumber)
	assert.Equal(t, "BH-2002", merged[2].CitationNumber)
}

func TestMerge_EqualConfidenceOrderedByCitation(t *testing.T) {
	merged := Merge([]models.UnifiedTicketRecord{
		record("LV-1002", 0.70, models.SourceLeonValley),
		record("LV-1001", 0.70, models.SourceLeonValley),
	})

	require.Len(t, merged, 2)
	assert.Equal(t, "LV-1001", merged[0].CitationNumber)
	assert.Equal(t, "LV-1002", merged[1].CitationNumber)
}

func TestMerge_Idempotent(t *testing.T) {
	input := []models.UnifiedTicketRecord{
		record("SP2026-881", 0.95, models.SourceShavanoPark),
		record("SP2026-881", 0.42, models.SourceOCR),
		record("LV-1001", 0.70, models.SourceLeonValley),
	}

	once := Merge(input)
	twice := Merge(once)

	assert.Equal(t, once, twice)
}
