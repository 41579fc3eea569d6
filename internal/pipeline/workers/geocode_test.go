// -----------------------------------------------------------------------
// Geocode Worker Tests
// -----------------------------------------------------------------------

package workers

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
	"github.com/ternarybob/praedium/internal/pipeline"
	"github.com/ternarybob/praedium/internal/services/crm"
	"github.com/ternarybob/praedium/internal/services/evidence"
	storagebadger "github.com/ternarybob/praedium/internal/storage/badger"
)

// offlineGeocoder reports itself unconfigured
type offlineGeocoder struct{}

func (g *offlineGeocoder) Autocomplete(ctx context.Context, text, country string) ([]interfaces.GeocodeCandidate, error) {
	return nil, nil
}

func (g *offlineGeocoder) Details(ctx context.Context, placeID string) (*interfaces.GeocodeDetails, error) {
	return nil, nil
}

func (g *offlineGeocoder) IsConfigured() bool { return false }

// profileSeedWorker publishes a prepared profile under the geocode
// worker's name so downstream workers see it
type profileSeedWorker struct {
	profile *models.PropertyProfile
	crmID   string
}

func (w *profileSeedWorker) Name() string { return pipeline.WorkerNormalizeGeocode }

func (w *profileSeedWorker) Run(ctx context.Context, jc *pipeline.JobContext) (*pipeline.Result, error) {
	return &pipeline.Result{Data: map[string]interface{}{
		"property_profile": w.profile,
		"crm_property_id":  w.crmID,
	}}, nil
}

// workerHarness executes individual workers through the real runner so
// published data, evidence and telemetry behave as they do in a pipeline
type workerHarness struct {
	storage  interfaces.StorageManager
	crm      *crm.Service
	runner   *pipeline.Runner
	job      *models.ResearchJob
	property *models.ResearchProperty
	jc       *pipeline.JobContext
	log      arbor.ILogger
}

func newarkProperty() *models.ResearchProperty {
	p := models.NewResearchProperty(common.NewPropertyID(), "key-123-main", "123 Main St", "123 main st")
	p.City, p.State, p.Zip = "Newark", "NJ", "07102"
	return p
}

func newWorkerHarness(t *testing.T, assumptions *models.Assumptions) *workerHarness {
	return newWorkerHarnessFor(t, newarkProperty(), assumptions)
}

func newWorkerHarnessFor(t *testing.T, property *models.ResearchProperty, assumptions *models.Assumptions) *workerHarness {
	t.Helper()
	logger := arbor.NewLogger()
	storage, err := storagebadger.NewManager(logger, &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	require.NoError(t, storage.Properties().Upsert(context.Background(), property))

	job := models.NewResearchJob(common.NewJobID(), common.NewTraceID(), property.ID, models.StrategyWholesale, nil, models.DefaultJobLimits())
	require.NoError(t, storage.Jobs().Save(context.Background(), job))

	if assumptions == nil {
		assumptions = &models.Assumptions{}
	}
	return &workerHarness{
		storage:  storage,
		crm:      crm.NewService(storage.CRM(), logger),
		runner:   pipeline.NewRunner(storage, evidence.NewService(storage.Evidence(), logger), nil, logger),
		job:      job,
		property: property,
		jc:       pipeline.NewJobContext(job, property, assumptions),
		log:      logger,
	}
}

func TestGeocodeWorker_FullEnrichment(t *testing.T) {
	h := newWorkerHarness(t, nil)
	ctx := context.Background()

	sold := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	subject, err := h.crm.SeedProperty(ctx, &models.CRMProperty{
		Address: "123 Main St", City: "Newark", State: "NJ", Zip: "07102",
		Sqft: fptr(1500), Beds: iptr(3), Baths: fptr(2), YearBuilt: iptr(1928), Zoning: "R-1",
	})
	require.NoError(t, err)
	_, err = h.crm.SeedSkipTrace(ctx, subject.ID, []string{"Dana Field"}, "PO Box 7, Newark NJ", time.Now().UTC())
	require.NoError(t, err)
	_, err = h.crm.SeedZillow(ctx, &models.ZillowRecord{
		CRMPropertyID: subject.ID,
		Zestimate:     fptr(410000),
		RentZestimate: fptr(2200),
		TaxStatus:     "current",
		PriceHistory: []models.PriceHistoryEvent{
			{Date: &sold, Event: "sold", Price: fptr(380000), SourceURL: "https://www.zillow.com/p/1"},
		},
		UpdatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	worker := NewGeocodeWorker(&stubGeocoder{}, h.crm, h.storage, h.log)
	run := h.runner.Execute(ctx, h.jc, worker)

	require.Equal(t, models.WorkerRunSuccess, run.Status)
	assert.Equal(t, 2, run.WebCalls)
	assert.Empty(t, run.Unknowns)

	assert.Equal(t, subject.ID, h.jc.CRMPropertyID())
	profile := h.jc.Profile()
	require.NotNil(t, profile)
	require.NotNil(t, profile.Geo.Lat)
	assert.InDelta(t, 40.7357, *profile.Geo.Lat, 0.001)
	require.NotNil(t, profile.ParcelFacts.Sqft)
	assert.Equal(t, 1500.0, *profile.ParcelFacts.Sqft)
	assert.Equal(t, "R-1", profile.Zoning)
	assert.Equal(t, []string{"Dana Field"}, profile.OwnerNames)
	assert.Equal(t, "PO Box 7, Newark NJ", profile.MailingAddress)
	assert.Equal(t, float64(410000), profile.AssessedValues["zestimate"])
	assert.Equal(t, "current", profile.TaxStatus)
	require.Len(t, profile.TransactionHistory, 1)
	assert.Equal(t, "2025-03-15", profile.TransactionHistory[0].Date)
	assert.Equal(t, "sold", profile.TransactionHistory[0].Event)

	require.NotNil(t, profile.EnrichmentStatus)
	assert.True(t, profile.EnrichmentStatus.IsEnriched)
	assert.Empty(t, profile.EnrichmentStatus.Missing)

	// Snapshot persists on the property row
	stored, err := h.storage.Properties().GetByID(ctx, h.property.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LatestProfile)
	require.NotNil(t, stored.GeoLat)

	items, err := h.storage.Evidence().ListByJob(ctx, h.job.ID)
	require.NoError(t, err)
	categories := make([]string, 0, len(items))
	for _, item := range items {
		categories = append(categories, item.Category)
	}
	assert.Equal(t, []string{"geocode", "parcel", "ownership", "valuation"}, categories)
}

func TestGeocodeWorker_NoCRMMatch(t *testing.T) {
	h := newWorkerHarness(t, nil)

	worker := NewGeocodeWorker(&stubGeocoder{}, h.crm, h.storage, h.log)
	run := h.runner.Execute(context.Background(), h.jc, worker)

	require.Equal(t, models.WorkerRunSuccess, run.Status)
	fields := make([]string, 0, len(run.Unknowns))
	for _, u := range run.Unknowns {
		fields = append(fields, u.Field)
	}
	assert.Equal(t, []string{"parcel_facts", "owner_names", "assessed_values"}, fields)

	profile := h.jc.Profile()
	require.NotNil(t, profile)
	require.NotNil(t, profile.EnrichmentStatus)
	assert.False(t, profile.EnrichmentStatus.IsEnriched)
	assert.Equal(t, []string{"crm_match", "skip_trace_owner", "zillow"}, profile.EnrichmentStatus.Missing)
}

func TestGeocodeWorker_UnconfiguredGeocoder(t *testing.T) {
	h := newWorkerHarness(t, nil)

	worker := NewGeocodeWorker(&offlineGeocoder{}, h.crm, h.storage, h.log)
	run := h.runner.Execute(context.Background(), h.jc, worker)

	require.Equal(t, models.WorkerRunSuccess, run.Status)
	assert.Equal(t, 0, run.WebCalls)
	require.NotEmpty(t, run.Unknowns)
	assert.Equal(t, "geo", run.Unknowns[0].Field)
	assert.Equal(t, "geocoder not configured", run.Unknowns[0].Reason)

	// Profile still publishes and persists without coordinates
	profile := h.jc.Profile()
	require.NotNil(t, profile)
	assert.Nil(t, profile.Geo.Lat)
}

func TestGeocodeWorker_BackfillsAddressFields(t *testing.T) {
	property := models.NewResearchProperty(common.NewPropertyID(), "key-bare", "123 Main St", "123 main st")
	h := newWorkerHarnessFor(t, property, nil)
	ctx := context.Background()

	worker := NewGeocodeWorker(&stubGeocoder{}, h.crm, h.storage, h.log)
	run := h.runner.Execute(ctx, h.jc, worker)
	require.Equal(t, models.WorkerRunSuccess, run.Status)

	stored, err := h.storage.Properties().GetByID(ctx, property.ID)
	require.NoError(t, err)
	assert.Equal(t, "Newark", stored.City)
	assert.Equal(t, "NJ", stored.State)
	assert.Equal(t, "07102", stored.Zip)
}
