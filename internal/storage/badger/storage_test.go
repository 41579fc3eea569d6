package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/praedium/internal/common"
	"github.com/ternarybob/praedium/internal/interfaces"
	"github.com/ternarybob/praedium/internal/models"
	"github.com/ternarybob/praedium/internal/services/address"
)

func newTestManager(t *testing.T) interfaces.StorageManager {
	t.Helper()
	manager, err := NewManager(arbor.NewLogger(), &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })
	return manager
}

func evidenceItem(jobID, propertyID, claim string, confidence float64, capturedAt time.Time) *models.EvidenceItem {
	return &models.EvidenceItem{
		ID:                 common.NewEvidenceID(),
		JobID:              jobID,
		ResearchPropertyID: propertyID,
		Category:           "public_records",
		Claim:              claim,
		SourceURL:          "https://records.example.gov/parcel/1",
		CapturedAt:         capturedAt,
		Confidence:         confidence,
		Hash:               address.EvidenceHash("public_records", claim, "https://records.example.gov/parcel/1", ""),
	}
}

func TestEvidencePersistBatch_DedupesByHash(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	first := evidenceItem("job-1", "prop-1", "lot size 3100 sqft", 0.6, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, manager.Evidence().PersistBatch(ctx, []*models.EvidenceItem{first}))

	// Same canonical content from a later job rebinds the stored record
	second := evidenceItem("job-2", "prop-1", "lot size 3100 sqft", 0.9, time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
	require.NoError(t, manager.Evidence().PersistBatch(ctx, []*models.EvidenceItem{second}))

	stored, err := manager.Evidence().GetByHash(ctx, first.Hash)
	require.NoError(t, err)
	assert.Equal(t, first.ID, stored.ID, "canonical record keeps its first ID")
	assert.Equal(t, "job-2", stored.JobID)
	assert.Equal(t, 0.9, stored.Confidence)
	assert.Equal(t, second.CapturedAt, stored.CapturedAt)

	byProperty, err := manager.Evidence().ListByProperty(ctx, "prop-1")
	require.NoError(t, err)
	assert.Len(t, byProperty, 1, "equal drafts collapse to one record")

	// The rebind moves the record between jobs rather than duplicating it
	firstJobCount, err := manager.Evidence().CountByJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, 0, firstJobCount)
	secondJobCount, err := manager.Evidence().CountByJob(ctx, "job-2")
	require.NoError(t, err)
	assert.Equal(t, 1, secondJobCount)
}

func TestEvidenceListByJob_PreservesInsertionOrder(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	claims := []string{"zoning R-2", "sold 2022-04-01", "tax current"}
	captured := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for _, claim := range claims {
		item := evidenceItem("job-1", "prop-1", claim, 0.5, captured)
		require.NoError(t, manager.Evidence().PersistBatch(ctx, []*models.EvidenceItem{item}))
	}

	items, err := manager.Evidence().ListByJob(ctx, "job-1")
	require.NoError(t, err)
	require.Len(t, items, len(claims))
	for i, claim := range claims {
		assert.Equal(t, claim, items[i].Claim)
	}
}

func TestEvidencePersistBatch_RejectsInvalidItems(t *testing.T) {
	manager := newTestManager(t)

	item := evidenceItem("job-1", "prop-1", "confidence out of range", 1.4, time.Now().UTC())
	err := manager.Evidence().PersistBatch(context.Background(), []*models.EvidenceItem{item})
	assert.Error(t, err)
}

func saleComp(address string, price float64, score float64) *models.CompSale {
	date := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	return &models.CompSale{
		ID:              common.NewCompID(),
		Address:         address,
		DistanceMi:      0.5,
		SalePrice:       &price,
		SaleDate:        &date,
		SimilarityScore: score,
		SourceURL:       "internal://crm/" + address,
		Details:         models.CompDetails{Origin: models.CompOriginInternal, SourceQuality: 0.95, EffectiveScore: score},
	}
}

func TestCompReplace_RewritesJobRows(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, manager.Comps().ReplaceSalesForJob(ctx, "job-1", []*models.CompSale{
		saleComp("127 Main St", 400000, 0.91),
		saleComp("98 Spruce St", 420000, 0.88),
		saleComp("15 Court St", 440000, 0.82),
	}))

	// A rerun with a smaller selection leaves no stale rows behind
	require.NoError(t, manager.Comps().ReplaceSalesForJob(ctx, "job-1", []*models.CompSale{
		saleComp("127 Main St", 400000, 0.91),
	}))

	sales, err := manager.Comps().ListSalesByJob(ctx, "job-1")
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, "127 Main St", sales[0].Address)
	assert.Equal(t, "job-1", sales[0].JobID)
}

func TestCompList_RankedOrder(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, manager.Comps().ReplaceSalesForJob(ctx, "job-1", []*models.CompSale{
		saleComp("best", 420000, 0.93),
		saleComp("second", 400000, 0.88),
		saleComp("third", 440000, 0.71),
	}))

	sales, err := manager.Comps().ListSalesByJob(ctx, "job-1")
	require.NoError(t, err)
	require.Len(t, sales, 3)
	assert.Equal(t, []string{"best", "second", "third"}, []string{sales[0].Address, sales[1].Address, sales[2].Address})
}

func pendingJob(t *testing.T, manager interfaces.StorageManager, propertyID string) *models.ResearchJob {
	t.Helper()
	job := models.NewResearchJob(common.NewJobID(), common.NewTraceID(), propertyID,
		models.StrategyWholesale, nil, models.DefaultJobLimits())
	require.NoError(t, manager.Jobs().Save(context.Background(), job))
	return job
}

func TestClaim_OneInProgressPerProperty(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	first := pendingJob(t, manager, "prop-1")
	second := pendingJob(t, manager, "prop-1")
	other := pendingJob(t, manager, "prop-2")

	claimed, err := manager.Jobs().Claim(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusInProgress, claimed.Status)

	// Second job on the same property is rejected while the first runs
	_, err = manager.Jobs().Claim(ctx, second.ID)
	assert.ErrorIs(t, err, interfaces.ErrPropertyBusy)

	// A different property is unaffected
	_, err = manager.Jobs().Claim(ctx, other.ID)
	assert.NoError(t, err)

	// Completing the first job releases the property
	claimed.MarkCompleted(nil)
	require.NoError(t, manager.Jobs().Save(ctx, claimed))
	_, err = manager.Jobs().Claim(ctx, second.ID)
	assert.NoError(t, err)
}

func TestClaim_RequiresPendingStatus(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	job := pendingJob(t, manager, "prop-1")
	_, err := manager.Jobs().Claim(ctx, job.ID)
	require.NoError(t, err)

	_, err = manager.Jobs().Claim(ctx, job.ID)
	assert.Error(t, err)

	_, err = manager.Jobs().Claim(ctx, "job_missing")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestLatestCompletedForProperty(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	_, err := manager.Jobs().LatestCompletedForProperty(ctx, "prop-1")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)

	first := pendingJob(t, manager, "prop-1")
	claimed, err := manager.Jobs().Claim(ctx, first.ID)
	require.NoError(t, err)
	claimed.MarkCompleted(nil)
	require.NoError(t, manager.Jobs().Save(ctx, claimed))

	latest, err := manager.Jobs().LatestCompletedForProperty(ctx, "prop-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, latest.ID)
}
