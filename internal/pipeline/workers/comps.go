// -----------------------------------------------------------------------
// Comps Workers - Comparable sales and rentals selection
//
// Thin wrappers over the comps service: build the target from the
// published profile, run selection, rewrite the job's comp rows and emit
// one evidence record per selected comp.
// -----------------------------------------------------------------------

package workers

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/praedium/internal/common"
	"github.com/ternarybob/praedium/internal/interfaces"
	"github.com/ternarybob/praedium/internal/models"
	"github.com/ternarybob/praedium/internal/pipeline"
	"github.com/ternarybob/praedium/internal/services/comps"
)

// defaultMinComps is the selection floor before the relaxed-radius retry
const defaultMinComps = 5

// defaultFallbackRadiusMi floors the retry radius
const defaultFallbackRadiusMi = 5.0

// CompsWorker selects comparables of one kind for a job
type CompsWorker struct {
	kind    comps.Kind
	name    string
	comps   *comps.Service
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

// NewSalesCompsWorker creates the comps_sales worker
func NewSalesCompsWorker(compsSvc *comps.Service, storage interfaces.StorageManager, logger arbor.ILogger) *CompsWorker {
	return &CompsWorker{
		kind:    comps.KindSales,
		name:    pipeline.WorkerCompsSales,
		comps:   compsSvc,
		storage: storage,
		logger:  logger,
	}
}

// NewRentalCompsWorker creates the comps_rentals worker
func NewRentalCompsWorker(compsSvc *comps.Service, storage interfaces.StorageManager, logger arbor.ILogger) *CompsWorker {
	return &CompsWorker{
		kind:    comps.KindRentals,
		name:    pipeline.WorkerCompsRentals,
		comps:   compsSvc,
		storage: storage,
		logger:  logger,
	}
}

func (w *CompsWorker) Name() string { return w.name }

func (w *CompsWorker) Run(ctx context.Context, jc *pipeline.JobContext) (*pipeline.Result, error) {
	property := jc.Property
	profile := jc.Profile()

	target := comps.Target{
		CRMPropertyID: jc.CRMPropertyID(),
		Address:       property.RawAddress,
		City:          property.City,
		State:         property.State,
		Zip:           property.Zip,
	}
	if profile != nil {
		target.Sqft = profile.ParcelFacts.Sqft
		target.Beds = profile.ParcelFacts.Beds
		target.Baths = profile.ParcelFacts.Baths
	}

	params := w.buildParams(jc.Assumptions, property.City)
	selection := w.comps.Select(ctx, target, params)

	result := &pipeline.Result{
		Unknowns: []models.Unknown{},
		Errors:   append([]string{}, selection.Errors...),
		Evidence: []models.EvidenceDraft{},
		WebCalls: selection.WebCalls,
	}

	if err := w.persist(ctx, jc.Job.ID, selection.Comps); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to persist comps: %v", err))
	}

	for _, candidate := range selection.Comps {
		result.Evidence = append(result.Evidence, models.EvidenceDraft{
			Category:   w.evidenceCategory(),
			Claim:      w.compClaim(candidate),
			SourceURL:  candidate.SourceURL,
			Confidence: candidate.Effective,
		})
	}

	if len(selection.Comps) < params.MinComps {
		result.Unknowns = append(result.Unknowns, models.Unknown{
			Field:  "comps",
			Reason: fmt.Sprintf("only %d comps found (minimum %d)", len(selection.Comps), params.MinComps),
		})
	}

	result.Data = map[string]interface{}{
		"count":     len(selection.Comps),
		"radius_mi": params.RadiusMi,
	}
	return result, nil
}

// buildParams resolves radii and thresholds from assumptions with
// city-aware defaults
func (w *CompsWorker) buildParams(a *models.Assumptions, city string) comps.Params {
	params := comps.Params{
		Kind:             w.kind,
		RadiusMi:         comps.DefaultRadius(city),
		MinComps:         defaultMinComps,
		MaxSearchResults: searchMaxResults,
	}

	var radius, fallback *float64
	var minComps *int
	if w.kind == comps.KindRentals {
		radius, fallback, minComps = a.RentalRadiusMi, a.RentalFallbackRadiusMi, a.MinRentalComps
	} else {
		radius, fallback, minComps = a.SalesRadiusMi, a.SalesFallbackRadiusMi, a.MinSalesComps
	}

	if radius != nil && *radius > 0 {
		params.RadiusMi = *radius
	}
	params.FallbackRadiusMi = params.RadiusMi
	if params.FallbackRadiusMi < defaultFallbackRadiusMi {
		params.FallbackRadiusMi = defaultFallbackRadiusMi
	}
	if fallback != nil && *fallback > 0 {
		params.FallbackRadiusMi = *fallback
	}
	if minComps != nil && *minComps > 0 {
		params.MinComps = *minComps
	}
	return params
}

// persist rewrites the job's comp rows in ranked order
func (w *CompsWorker) persist(ctx context.Context, jobID string, selected []comps.Candidate) error {
	if w.kind == comps.KindRentals {
		rows := make([]*models.CompRental, 0, len(selected))
		for i, c := range selected {
			rows = append(rows, &models.CompRental{
				ID:              common.NewCompID(),
				JobID:           jobID,
				Rank:            i,
				Address:         compAddress(c),
				DistanceMi:      c.DistanceMi,
				Rent:            c.Price,
				DateListed:      c.Date,
				Sqft:            c.Sqft,
				Beds:            c.Beds,
				Baths:           c.Baths,
				SimilarityScore: c.Similarity,
				SourceURL:       c.SourceURL,
				Details: models.CompDetails{
					Origin:         c.Origin,
					SourceQuality:  c.SourceQuality,
					EffectiveScore: c.Effective,
				},
			})
		}
		return w.storage.Comps().ReplaceRentalsForJob(ctx, jobID, rows)
	}

	rows := make([]*models.CompSale, 0, len(selected))
	for i, c := range selected {
		rows = append(rows, &models.CompSale{
			ID:              common.NewCompID(),
			JobID:           jobID,
			Rank:            i,
			Address:         compAddress(c),
			DistanceMi:      c.DistanceMi,
			SalePrice:       c.Price,
			SaleDate:        c.Date,
			Sqft:            c.Sqft,
			Beds:            c.Beds,
			Baths:           c.Baths,
			YearBuilt:       c.YearBuilt,
			SimilarityScore: c.Similarity,
			SourceURL:       c.SourceURL,
			Details: models.CompDetails{
				Origin:         c.Origin,
				SourceQuality:  c.SourceQuality,
				EffectiveScore: c.Effective,
			},
		})
	}
	return w.storage.Comps().ReplaceSalesForJob(ctx, jobID, rows)
}

func (w *CompsWorker) evidenceCategory() string {
	if w.kind == comps.KindRentals {
		return "comp_rental"
	}
	return "comp_sale"
}

// compClaim summarizes one comp for the evidence trail
func (w *CompsWorker) compClaim(c comps.Candidate) string {
	addr := compAddress(c)
	if w.kind == comps.KindRentals {
		if c.Price != nil {
			return fmt.Sprintf("Comparable rental: %s at $%.0f/mo", addr, *c.Price)
		}
		return fmt.Sprintf("Comparable rental: %s", addr)
	}
	if c.Price != nil && c.Date != nil {
		return fmt.Sprintf("Comparable sale: %s sold for $%.0f on %s", addr, *c.Price, c.Date.UTC().Format("2006-01-02"))
	}
	if c.Price != nil {
		return fmt.Sprintf("Comparable sale: %s sold for $%.0f", addr, *c.Price)
	}
	return fmt.Sprintf("Comparable sale: %s", addr)
}

// compAddress joins candidate address parts into one display string
func compAddress(c comps.Candidate) string {
	out := c.Address
	if c.City != "" {
		out += ", " + c.City
	}
	switch {
	case c.State != "" && c.Zip != "":
		out += ", " + c.State + " " + c.Zip
	case c.State != "":
		out += ", " + c.State
	case c.Zip != "":
		out += " " + c.Zip
	}
	return out
}
