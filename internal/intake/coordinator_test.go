package intake

import (
	"context"
	"sync"
	"testing"
	"time"

	"ticket-scout/internal/common/config"
	"ticket-scout/internal/common/errors"
	"ticket-scout/internal/common/logger"
	"ticket-scout/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

// fakeResolver routes each source to a scripted outcome.
type fakeResolver struct {
	mu       sync.Mutex
	outcomes map[string]resolverOutcome
	calls    []string
}

type resolverOutcome struct {
	records []models.UnifiedTicketRecord
	err     error
	delay   time.Duration
}

func (f *fakeResolver) Resolve(ctx context.Context, source string, _ config.SourceConfig, _ models.SearchCriteria) ([]models.UnifiedTicketRecord, error) {
	f.mu.Lock()
	f.calls = append(f.calls, source)
	outcome := f.outcomes[source]
	f.mu.Unlock()

	if outcome.delay > 0 {
		select {
		case <-time.After(outcome.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return outcome.records, outcome.err
}

type fakeOCR struct {
	records []models.UnifiedTicketRecord
	err     error
	calls   int
}

func (f *fakeOCR) Process(_ context.Context, _ []byte) ([]models.UnifiedTicketRecord, error) {
	f.calls++
	return f.records, f.err
}

type capturingSink struct {
	mu     sync.Mutex
	stored []models.UnifiedTicketRecord
}

func (s *capturingSink) Store(records []models.UnifiedTicketRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stored = append(s.stored, records...)
	return nil
}

func portalRecord(citation string, confidence float64, source models.Source) models.UnifiedTicketRecord {
	return models.NewRecord(models.TicketFields{CitationNumber: citation}, confidence, source, models.Evidence{
		CapturedAt: time.Now().UTC(),
	})
}

func createTestCoordinator(t *testing.T, resolver Resolver, ocrStage ImageProcessor, sink models.RecordSink) *Coordinator {
	return NewCoordinator(resolver, ocrStage, testSources(), sink, 4, logger.NewTestLogger(t))
}

// ==========================
// Fan-Out Tests
// ==========================

func TestCoordinator_Search_MergesAllBranches(t *testing.T) {
	resolver := &fakeResolver{outcomes: map[string]resolverOutcome{
		"shavano-park": {records: []models.UnifiedTicketRecord{portalRecord("SP2026-881", 0.95, models.SourceShavanoPark)}},
		"leon-valley":  {records: []models.UnifiedTicketRecord{portalRecord("LV-1001", 0.70, models.SourceLeonValley)}},
	}}
	coordinator := createTestCoordinator(t, resolver, nil, nil)

	req := validRequest()
	req.Sources = []string{"shavano-park", "leon-valley"}

	resp, err := coordinator.Search(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, resp.Records, 2)
	assert.Empty(t, resp.PerSourceErrors)
	assert.Equal(t, "SP2026-881", resp.Records[0].CitationNumber, "ranked by descending confidence")
}

func TestCoordinator_Search_BranchIsolation(t *testing.T) {
	// Shavano Park's portal markup changed; Leon Valley still answers.
	resolver := &fakeResolver{outcomes: map[string]resolverOutcome{
		"shavano-park": {err: errors.NewFormNotFoundError("shavano-park", "#license")},
		"leon-valley": {records: []models.UnifiedTicketRecord{
			portalRecord("LV-1001", 0.70, models.SourceLeonValley),
			portalRecord("LV-1002", 0.65, models.SourceLeonValley),
		}},
	}}
	coordinator := createTestCoordinator(t, resolver, nil, nil)

	req := validRequest()
	req.Sources = []string{"shavano-park", "leon-valley"}

	resp, err := coordinator.Search(context.Background(), req)

	require.NoError(t, err, "a failing branch never fails the request")
	assert.Len(t, resp.Records, 2)
	assert.Equal(t, string(errors.ErrCodeFormNotFound), resp.PerSourceErrors["shavano-park"])
	assert.NotContains(t, resp.PerSourceErrors, "leon-valley")
}

func TestCoordinator_Search_SlowBranchDoesNotSuppressOthers(t *testing.T) {
	resolver := &fakeResolver{outcomes: map[string]resolverOutcome{
		"shavano-park": {delay: 50 * time.Millisecond, err: errors.NewNavigationTimeoutError("shavano-park", "https://example.test")},
		"leon-valley":  {records: []models.UnifiedTicketRecord{portalRecord("LV-1001", 0.70, models.SourceLeonValley)}},
	}}
	coordinator := createTestCoordinator(t, resolver, nil, nil)

	req := validRequest()
	req.Sources = []string{"shavano-park", "leon-valley"}

	resp, err := coordinator.Search(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "LV-1001", resp.Records[0].CitationNumber)
	assert.Contains(t, resp.PerSourceErrors, "shavano-park")
}

func TestCoordinator_Search_OCRBranchReportedUnderOwnKey(t *testing.T) {
	resolver := &fakeResolver{outcomes: map[string]resolverOutcome{}}
	ocrStage := &fakeOCR{err: errors.NewRecognitionFailedError(nil)}
	coordinator := createTestCoordinator(t, resolver, ocrStage, nil)

	req := models.SearchRequest{Image: []byte{0xFF, 0xD8, 0xFF}}

	resp, err := coordinator.Search(context.Background(), req)

	require.NoError(t, err)
	assert.Empty(t, resp.Records)
	assert.Equal(t, string(errors.ErrCodeRecognitionFailed), resp.PerSourceErrors["ocr"])
	assert.Equal(t, 1, ocrStage.calls)
}

func TestCoordinator_Search_OCRRecordsMergeWithPortalRecords(t *testing.T) {
	// The same citation surfaces from both paths; the portal read wins.
	resolver := &fakeResolver{outcomes: map[string]resolverOutcome{
		"shavano-park": {records: []models.UnifiedTicketRecord{portalRecord("SP2026-881", 0.95, models.SourceShavanoPark)}},
	}}
	ocrStage := &fakeOCR{records: []models.UnifiedTicketRecord{
		portalRecord("SP2026-881", 0.48, models.SourceOCR),
		portalRecord("SP2026-990", 0.51, models.SourceOCR),
	}}
	coordinator := createTestCoordinator(t, resolver, ocrStage, nil)

	req := validRequest()
	req.Image = []byte{0xFF, 0xD8, 0xFF}

	resp, err := coordinator.Search(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, resp.Records, 2)
	assert.Equal(t, models.SourceShavanoPark, resp.Records[0].Source, "higher-confidence portal record survives the collision")
	assert.Equal(t, "SP2026-990", resp.Records[1].CitationNumber)
}

func TestCoordinator_Search_ValidationStopsBeforeAnyBranch(t *testing.T) {
	resolver := &fakeResolver{outcomes: map[string]resolverOutcome{}}
	coordinator := createTestCoordinator(t, resolver, nil, nil)

	req := models.SearchRequest{Sources: []string{"shavano-park"}} // no criteria at all

	_, err := coordinator.Search(context.Background(), req)

	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeValidationFailed, stdErr.Code)
	assert.Empty(t, resolver.calls, "no network activity on invalid input")
}

func TestCoordinator_Search_ResultsReachTheSink(t *testing.T) {
	resolver := &fakeResolver{outcomes: map[string]resolverOutcome{
		"shavano-park": {records: []models.UnifiedTicketRecord{portalRecord("SP2026-881", 0.95, models.SourceShavanoPark)}},
	}}
	sink := &capturingSink{}
	coordinator := createTestCoordinator(t, resolver, nil, sink)

	_, err := coordinator.Search(context.Background(), validRequest())

	require.NoError(t, err)
	require.Len(t, sink.stored, 1)
	assert.Equal(t, "SP2026-881", sink.stored[0].CitationNumber)
}
