// -----------------------------------------------------------------------
// Geocode Worker - Normalizes the subject address and enriches it from
// the geocoder and the internal CRM
//
// Every downstream worker reads the profile this worker publishes.
// Missing subsystems degrade to unknowns, never to failure: a property
// with no geocode hit and no CRM match still produces a profile.
// -----------------------------------------------------------------------

package workers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/praedium/internal/interfaces"
	"github.com/ternarybob/praedium/internal/models"
	"github.com/ternarybob/praedium/internal/pipeline"
	"github.com/ternarybob/praedium/internal/services/address"
	"github.com/ternarybob/praedium/internal/services/crm"
)

// maxTransactionEvents caps how much Zillow price history the profile keeps
const maxTransactionEvents = 8

// GeocodeWorker builds the property profile for a job
type GeocodeWorker struct {
	geocoder interfaces.Geocoder
	crm      *crm.Service
	storage  interfaces.StorageManager
	logger   arbor.ILogger
}

// NewGeocodeWorker creates the normalize_geocode worker
func NewGeocodeWorker(geocoder interfaces.Geocoder, crmSvc *crm.Service, storage interfaces.StorageManager, logger arbor.ILogger) *GeocodeWorker {
	return &GeocodeWorker{
		geocoder: geocoder,
		crm:      crmSvc,
		storage:  storage,
		logger:   logger,
	}
}

func (w *GeocodeWorker) Name() string { return pipeline.WorkerNormalizeGeocode }

func (w *GeocodeWorker) Run(ctx context.Context, jc *pipeline.JobContext) (*pipeline.Result, error) {
	property := jc.Property
	profile := &models.PropertyProfile{
		NormalizedAddress:  property.NormalizedAddress,
		APN:                property.APN,
		OwnerNames:         []string{},
		TransactionHistory: []models.TransactionEvent{},
	}

	result := &pipeline.Result{
		Unknowns: []models.Unknown{},
		Errors:   []string{},
		Evidence: []models.EvidenceDraft{},
	}

	w.resolveGeo(ctx, property, profile, result)

	match := w.enrichFromCRM(ctx, property, profile, result)
	profile.EnrichmentStatus = crm.ComputeEnrichmentStatus(jc.Assumptions, match, time.Now().UTC())

	property.LatestProfile = profile
	property.Touch()
	if err := w.storage.Properties().Upsert(ctx, property); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to persist profile: %v", err))
	}

	crmPropertyID := ""
	if match != nil && match.Property != nil {
		crmPropertyID = match.Property.ID
	}
	result.Data = map[string]interface{}{
		"property_profile": profile,
		"crm_property_id":  crmPropertyID,
	}
	return result, nil
}

// resolveGeo runs autocomplete then place details, backfilling location
// fields the input left blank
func (w *GeocodeWorker) resolveGeo(ctx context.Context, property *models.ResearchProperty, profile *models.PropertyProfile, result *pipeline.Result) {
	if w.geocoder == nil || !w.geocoder.IsConfigured() {
		result.Unknowns = append(result.Unknowns, models.Unknown{Field: "geo", Reason: "geocoder not configured"})
		return
	}

	candidates, err := w.geocoder.Autocomplete(ctx, fullAddress(property), "us")
	result.WebCalls++
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("geocode autocomplete failed: %v", err))
		result.Unknowns = append(result.Unknowns, models.Unknown{Field: "geo", Reason: "geocode lookup failed"})
		return
	}
	if len(candidates) == 0 {
		result.Unknowns = append(result.Unknowns, models.Unknown{Field: "geo", Reason: "no geocode candidates"})
		return
	}

	details, err := w.geocoder.Details(ctx, candidates[0].PlaceID)
	result.WebCalls++
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("geocode details failed: %v", err))
		result.Unknowns = append(result.Unknowns, models.Unknown{Field: "geo", Reason: "geocode lookup failed"})
		return
	}
	if details == nil {
		result.Unknowns = append(result.Unknowns, models.Unknown{Field: "geo", Reason: "place details unresolved"})
		return
	}

	if property.City == "" && details.City != "" {
		property.City = details.City
	}
	if property.State == "" {
		if code := address.NormalizeState(details.State); code != "" {
			property.State = code
		}
	}
	if property.Zip == "" && details.Zip != "" {
		property.Zip = details.Zip
	}

	if details.Lat != 0 || details.Lng != 0 {
		lat, lng := details.Lat, details.Lng
		profile.Geo = models.GeoPoint{Lat: &lat, Lng: &lng}
		property.GeoLat = &lat
		property.GeoLng = &lng
	}

	claim := fmt.Sprintf("Address resolves to %s at (%.6f, %.6f)", details.FormattedAddress, details.Lat, details.Lng)
	if details.FormattedAddress == "" {
		claim = fmt.Sprintf("Address resolves to (%.6f, %.6f)", details.Lat, details.Lng)
	}
	result.Evidence = append(result.Evidence, models.EvidenceDraft{
		Category:   "geocode",
		Claim:      claim,
		SourceURL:  "https://www.google.com/maps/place/?q=place_id:" + candidates[0].PlaceID,
		Confidence: 0.95,
	})
}

// enrichFromCRM copies parcel facts, ownership and valuation signals from
// the best CRM match onto the profile
func (w *GeocodeWorker) enrichFromCRM(ctx context.Context, property *models.ResearchProperty, profile *models.PropertyProfile, result *pipeline.Result) *crm.Match {
	match, err := w.crm.Lookup(ctx, property.RawAddress, property.City, property.State)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("crm lookup failed: %v", err))
		return nil
	}
	if match == nil {
		result.Unknowns = append(result.Unknowns,
			models.Unknown{Field: "parcel_facts", Reason: "no crm match for address"},
			models.Unknown{Field: "owner_names", Reason: "no crm match for address"},
			models.Unknown{Field: "assessed_values", Reason: "no crm match for address"},
		)
		return nil
	}

	w.copyParcelFacts(match.Property, profile, result)

	if match.SkipTrace != nil && len(match.SkipTrace.OwnerNames) > 0 {
		profile.OwnerNames = match.SkipTrace.OwnerNames
		profile.MailingAddress = match.SkipTrace.MailingAddress
		result.Evidence = append(result.Evidence, models.EvidenceDraft{
			Category:   "ownership",
			Claim:      fmt.Sprintf("Owner of record: %s", strings.Join(match.SkipTrace.OwnerNames, ", ")),
			SourceURL:  "internal://crm/skip_trace/" + match.SkipTrace.ID,
			Confidence: 0.95,
		})
	} else {
		result.Unknowns = append(result.Unknowns, models.Unknown{Field: "owner_names", Reason: "no skip trace on crm match"})
	}

	if match.Zillow != nil {
		w.copyZillow(match.Zillow, profile, result)
	} else {
		result.Unknowns = append(result.Unknowns, models.Unknown{Field: "assessed_values", Reason: "no zillow record on crm match"})
	}

	return match
}

func (w *GeocodeWorker) copyParcelFacts(record *models.CRMProperty, profile *models.PropertyProfile, result *pipeline.Result) {
	if record == nil {
		return
	}

	profile.ParcelFacts = models.ParcelFacts{
		Sqft:      record.Sqft,
		LotSqft:   record.LotSqft,
		Beds:      record.Beds,
		Baths:     record.Baths,
		YearBuilt: record.YearBuilt,
	}
	profile.Zoning = record.Zoning
	if profile.APN == "" && record.APN != "" {
		profile.APN = record.APN
	}

	result.Evidence = append(result.Evidence, models.EvidenceDraft{
		Category:   "parcel",
		Claim:      parcelClaim(record),
		SourceURL:  "internal://crm/properties/" + record.ID,
		Confidence: 0.95,
	})
}

func (w *GeocodeWorker) copyZillow(record *models.ZillowRecord, profile *models.PropertyProfile, result *pipeline.Result) {
	values := make(map[string]interface{})
	if record.Zestimate != nil {
		values["zestimate"] = *record.Zestimate
	}
	if record.RentZestimate != nil {
		values["rent_zestimate"] = *record.RentZestimate
	}
	if record.TaxAssessedValue != nil {
		values["tax_assessed_value"] = *record.TaxAssessedValue
	}
	if record.TaxAnnual != nil {
		values["tax_annual"] = *record.TaxAnnual
	}
	if len(values) > 0 {
		profile.AssessedValues = values
	}
	profile.TaxStatus = record.TaxStatus

	history := record.PriceHistory
	if len(history) > maxTransactionEvents {
		history = history[:maxTransactionEvents]
	}
	for _, event := range history {
		transaction := models.TransactionEvent{
			Event:     event.Event,
			Amount:    event.Price,
			SourceURL: event.SourceURL,
		}
		if event.Date != nil {
			transaction.Date = event.Date.UTC().Format("2006-01-02")
		}
		profile.TransactionHistory = append(profile.TransactionHistory, transaction)
	}

	claim := "Zillow valuation on file"
	if record.Zestimate != nil {
		claim = fmt.Sprintf("Zestimate $%.0f", *record.Zestimate)
		if record.RentZestimate != nil {
			claim += fmt.Sprintf(", rent estimate $%.0f/mo", *record.RentZestimate)
		}
	}
	result.Evidence = append(result.Evidence, models.EvidenceDraft{
		Category:   "valuation",
		Claim:      claim,
		SourceURL:  "internal://crm/zillow/" + record.ID,
		Confidence: 0.95,
	})
}

// fullAddress composes a free-text location string from whatever parts
// the property carries. Shared by the geocode and search workers.
func fullAddress(property *models.ResearchProperty) string {
	parts := []string{property.RawAddress}
	if property.City != "" {
		parts = append(parts, property.City)
	}
	if property.State != "" {
		parts = append(parts, property.State)
	}
	if property.Zip != "" {
		parts = append(parts, property.Zip)
	}
	return strings.Join(parts, ", ")
}

// parcelClaim summarizes the copied facts for the evidence trail
func parcelClaim(record *models.CRMProperty) string {
	parts := []string{}
	if record.Sqft != nil {
		parts = append(parts, fmt.Sprintf("%.0f sqft", *record.Sqft))
	}
	if record.Beds != nil {
		parts = append(parts, fmt.Sprintf("%d bd", *record.Beds))
	}
	if record.Baths != nil {
		parts = append(parts, fmt.Sprintf("%.1f ba", *record.Baths))
	}
	if record.YearBuilt != nil {
		parts = append(parts, fmt.Sprintf("built %d", *record.YearBuilt))
	}
	if record.Zoning != "" {
		parts = append(parts, "zoned "+record.Zoning)
	}
	if len(parts) == 0 {
		return fmt.Sprintf("Parcel record on file for %s", record.Address)
	}
	return fmt.Sprintf("Parcel record: %s", strings.Join(parts, ", "))
}
