// -----------------------------------------------------------------------
// Lookup Workers - Environmental and listing-data point lookups
//
// One generic worker covers flood zone mapping, the environmental
// hazard catalog and the listing-data endpoints. Geo-gated lookups
// short-circuit without spending budget when the property never
// geocoded; adapter failures degrade to an empty payload plus a
// recorded error.
// -----------------------------------------------------------------------

package workers

import (
	"context"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/praedium/internal/interfaces"
	"github.com/ternarybob/praedium/internal/models"
	"github.com/ternarybob/praedium/internal/pipeline"
)

// epaRadiusMi bounds the EPA facility search around the property
const epaRadiusMi = 1.0

// fetchFunc performs one external lookup. Listing lookups ignore the
// coordinates and read address fields off the property.
type fetchFunc func(ctx context.Context, lat, lng float64, property *models.ResearchProperty) (map[string]interface{}, error)

// LookupWorker wraps a single external lookup as a pipeline worker
type LookupWorker struct {
	name     string
	needsGeo bool
	gis      interfaces.GISLookups
	fetch    fetchFunc
	// configured gates keyed lookups; nil means no key is needed.
	// Checked before fetch so a missing key costs no budget.
	configured func() bool
	logger     arbor.ILogger
}

func (w *LookupWorker) Name() string { return w.name }

func (w *LookupWorker) Run(ctx context.Context, jc *pipeline.JobContext) (*pipeline.Result, error) {
	result := &pipeline.Result{
		Unknowns: []models.Unknown{},
		Errors:   []string{},
		Evidence: []models.EvidenceDraft{},
		Data:     map[string]interface{}{},
	}

	if w.gis == nil {
		result.Unknowns = append(result.Unknowns, models.Unknown{Field: w.name, Reason: "gis lookups not configured"})
		return result, nil
	}

	lat, lng, hasGeo := resolveGeoPoint(jc)
	if w.needsGeo && !hasGeo {
		result.Unknowns = append(result.Unknowns, models.Unknown{Field: w.name, Reason: "no geocode coordinates"})
		return result, nil
	}

	if w.configured != nil && !w.configured() {
		result.Unknowns = append(result.Unknowns, models.Unknown{Field: w.name, Reason: "api key not configured"})
		return result, nil
	}

	payload, err := w.fetch(ctx, lat, lng, jc.Property)
	result.WebCalls++
	if err != nil {
		result.Unknowns = nil
		result.Errors = append(result.Errors, err.Error())
		return result, nil
	}

	if len(payload) == 0 {
		result.Unknowns = append(result.Unknowns, models.Unknown{Field: w.name, Reason: "no data returned"})
		return result, nil
	}

	result.Data = payload
	return result, nil
}

// resolveGeoPoint reads coordinates from the published profile, falling
// back to the property row for reruns where geocoding happened earlier
func resolveGeoPoint(jc *pipeline.JobContext) (float64, float64, bool) {
	if profile := jc.Profile(); profile != nil && profile.Geo.Lat != nil && profile.Geo.Lng != nil {
		return *profile.Geo.Lat, *profile.Geo.Lng, true
	}
	if jc.Property.GeoLat != nil && jc.Property.GeoLng != nil {
		return *jc.Property.GeoLat, *jc.Property.GeoLng, true
	}
	return 0, 0, false
}

// NewFloodZoneWorker looks up the FEMA flood zone for the property
func NewFloodZoneWorker(gis interfaces.GISLookups, logger arbor.ILogger) *LookupWorker {
	return &LookupWorker{
		name:     pipeline.WorkerFloodZone,
		needsGeo: true,
		gis:      gis,
		logger:   logger,
		fetch: func(ctx context.Context, lat, lng float64, _ *models.ResearchProperty) (map[string]interface{}, error) {
			return gis.FloodZone(ctx, lat, lng)
		},
	}
}

// NewEPAWorker looks up regulated EPA facilities near the property
func NewEPAWorker(gis interfaces.GISLookups, logger arbor.ILogger) *LookupWorker {
	return &LookupWorker{
		name:     pipeline.WorkerEPAEnvironmental,
		needsGeo: true,
		gis:      gis,
		logger:   logger,
		fetch: func(ctx context.Context, lat, lng float64, _ *models.ResearchProperty) (map[string]interface{}, error) {
			return gis.EPAFacilities(ctx, lat, lng, epaRadiusMi)
		},
	}
}

// NewWildfireWorker looks up the USFS wildfire hazard rating
func NewWildfireWorker(gis interfaces.GISLookups, logger arbor.ILogger) *LookupWorker {
	return &LookupWorker{
		name:     pipeline.WorkerWildfireHazard,
		needsGeo: true,
		gis:      gis,
		logger:   logger,
		fetch: func(ctx context.Context, lat, lng float64, _ *models.ResearchProperty) (map[string]interface{}, error) {
			return gis.WildfireHazard(ctx, lat, lng)
		},
	}
}

// NewHUDWorker looks up HUD opportunity-zone designation
func NewHUDWorker(gis interfaces.GISLookups, logger arbor.ILogger) *LookupWorker {
	return &LookupWorker{
		name:     pipeline.WorkerHUDOpportunity,
		needsGeo: true,
		gis:      gis,
		logger:   logger,
		fetch: func(ctx context.Context, lat, lng float64, _ *models.ResearchProperty) (map[string]interface{}, error) {
			return gis.HUDOpportunity(ctx, lat, lng)
		},
	}
}

// NewWetlandsWorker looks up National Wetlands Inventory features
func NewWetlandsWorker(gis interfaces.GISLookups, logger arbor.ILogger) *LookupWorker {
	return &LookupWorker{
		name:     pipeline.WorkerWetlands,
		needsGeo: true,
		gis:      gis,
		logger:   logger,
		fetch: func(ctx context.Context, lat, lng float64, _ *models.ResearchProperty) (map[string]interface{}, error) {
			return gis.Wetlands(ctx, lat, lng)
		},
	}
}

// NewHistoricPlacesWorker looks up National Register listings nearby
func NewHistoricPlacesWorker(gis interfaces.GISLookups, logger arbor.ILogger) *LookupWorker {
	return &LookupWorker{
		name:     pipeline.WorkerHistoricPlaces,
		needsGeo: true,
		gis:      gis,
		logger:   logger,
		fetch: func(ctx context.Context, lat, lng float64, _ *models.ResearchProperty) (map[string]interface{}, error) {
			return gis.HistoricPlaces(ctx, lat, lng)
		},
	}
}

// NewSeismicWorker looks up the USGS seismic design category
func NewSeismicWorker(gis interfaces.GISLookups, logger arbor.ILogger) *LookupWorker {
	return &LookupWorker{
		name:     pipeline.WorkerSeismicHazard,
		needsGeo: true,
		gis:      gis,
		logger:   logger,
		fetch: func(ctx context.Context, lat, lng float64, _ *models.ResearchProperty) (map[string]interface{}, error) {
			return gis.SeismicHazard(ctx, lat, lng)
		},
	}
}

// NewSchoolDistrictWorker looks up the assigned school district
func NewSchoolDistrictWorker(gis interfaces.GISLookups, logger arbor.ILogger) *LookupWorker {
	return &LookupWorker{
		name:     pipeline.WorkerSchoolDistrict,
		needsGeo: true,
		gis:      gis,
		logger:   logger,
		fetch: func(ctx context.Context, lat, lng float64, _ *models.ResearchProperty) (map[string]interface{}, error) {
			return gis.SchoolDistrict(ctx, lat, lng)
		},
	}
}

// NewWalkScoreWorker looks up walkability scores for the address
func NewWalkScoreWorker(gis interfaces.GISLookups, logger arbor.ILogger) *LookupWorker {
	return &LookupWorker{
		name:       pipeline.WorkerWalkScore,
		needsGeo:   true,
		gis:        gis,
		configured: func() bool { return gis.HasWalkScoreKey() },
		logger:     logger,
		fetch: func(ctx context.Context, lat, lng float64, property *models.ResearchProperty) (map[string]interface{}, error) {
			return gis.WalkScore(ctx, fullAddress(property), lat, lng)
		},
	}
}

// NewUSRealEstateWorker pulls listing data from the US Real Estate API
func NewUSRealEstateWorker(gis interfaces.GISLookups, logger arbor.ILogger) *LookupWorker {
	return &LookupWorker{
		name:       pipeline.WorkerUSRealEstate,
		gis:        gis,
		configured: func() bool { return gis.HasRapidAPIKey() },
		logger:     logger,
		fetch: func(ctx context.Context, _, _ float64, p *models.ResearchProperty) (map[string]interface{}, error) {
			return gis.USRealEstate(ctx, p.RawAddress, p.City, p.State, p.Zip)
		},
	}
}

// NewRedfinWorker pulls listing data from the Redfin API
func NewRedfinWorker(gis interfaces.GISLookups, logger arbor.ILogger) *LookupWorker {
	return &LookupWorker{
		name:       pipeline.WorkerRedfin,
		gis:        gis,
		configured: func() bool { return gis.HasRapidAPIKey() },
		logger:     logger,
		fetch: func(ctx context.Context, _, _ float64, p *models.ResearchProperty) (map[string]interface{}, error) {
			return gis.Redfin(ctx, p.RawAddress, p.City, p.State, p.Zip)
		},
	}
}

// NewRentCastWorker pulls rent estimates from the RentCast API
func NewRentCastWorker(gis interfaces.GISLookups, logger arbor.ILogger) *LookupWorker {
	return &LookupWorker{
		name:       pipeline.WorkerRentCast,
		gis:        gis,
		configured: func() bool { return gis.HasRapidAPIKey() },
		logger:     logger,
		fetch: func(ctx context.Context, _, _ float64, p *models.ResearchProperty) (map[string]interface{}, error) {
			return gis.RentCast(ctx, p.RawAddress, p.City, p.State, p.Zip)
		},
	}
}
