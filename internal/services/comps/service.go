// -----------------------------------------------------------------------
// Comp Selection - Blend internal CRM and external search candidates
// -----------------------------------------------------------------------

package comps

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/praedium/internal/interfaces"
	"github.com/ternarybob/praedium/internal/models"
	"github.com/ternarybob/praedium/internal/services/evidence"
)

// Kind separates the sale and rental selection pipelines
type Kind string

const (
	KindSales   Kind = "sales"
	KindRentals Kind = "rentals"
)

const (
	// maxInternalCandidates caps the CRM candidate pool per selection
	maxInternalCandidates = 250
	// maxSelected caps the ranked output
	maxSelected = 8
	// internalSourceURLPrefix marks comps sourced from the CRM store
	internalSourceURLPrefix = "internal://crm/properties/"
	// internalSourceQuality is the fixed trust of CRM-sourced candidates
	internalSourceQuality = 0.95
	// searchCategory keys the source-quality lookup for external hits
	searchCategory = "comps"
)

// Target describes the subject property a selection runs against
type Target struct {
	CRMPropertyID string
	Address       string
	City          string
	State         string
	Zip           string
	Sqft          *float64
	Beds          *int
	Baths         *float64
}

// Params tunes one selection run. Today is injectable so selections are
// reproducible under test.
type Params struct {
	Kind             Kind
	RadiusMi         float64
	FallbackRadiusMi float64
	MinComps         int
	MaxSearchResults int
	Today            time.Time
}

// Selection is the outcome of one run: ranked comps plus the web calls and
// non-fatal errors accumulated along the way
type Selection struct {
	Comps    []Candidate
	WebCalls int
	Errors   []string
}

// Service selects ranked comparables for a target property
type Service struct {
	crm    interfaces.CRMStorage
	search interfaces.SearchProvider
	logger arbor.ILogger
}

// NewService creates a new comp selection service
func NewService(crm interfaces.CRMStorage, search interfaces.SearchProvider, logger arbor.ILogger) *Service {
	return &Service{
		crm:    crm,
		search: search,
		logger: logger,
	}
}

// Select runs the full selection pipeline: internal candidates first,
// external search when the pool is thin, then a relaxed-radius retry when
// the ranked set is still below the minimum. Failures never abort the run;
// they are reported through Selection.Errors.
func (s *Service) Select(ctx context.Context, target Target, params Params) *Selection {
	sel := &Selection{}

	today := params.Today
	if today.IsZero() {
		today = time.Now().UTC()
	}

	candidates := s.internalCandidates(ctx, target, params, today, sel)

	if len(candidates) < maxSelected {
		candidates = append(candidates, s.externalCandidates(ctx, target, params, params.RadiusMi, today, sel)...)
	}

	selected := DedupeAndRank(candidates, maxSelected)

	if len(selected) < params.MinComps && params.FallbackRadiusMi > params.RadiusMi {
		s.logger.Debug().
			Str("kind", string(params.Kind)).
			Int("selected", len(selected)).
			Float64("fallback_radius", params.FallbackRadiusMi).
			Msg("Below minimum comps, retrying with relaxed radius")

		candidates = append(candidates, s.externalCandidates(ctx, target, params, params.FallbackRadiusMi, today, sel)...)
		selected = DedupeAndRank(candidates, maxSelected)
	}

	sel.Comps = selected
	return sel
}

// internalCandidates builds candidates from the CRM store. Rentals require
// a rent signal from the latest Zillow enrichment.
func (s *Service) internalCandidates(ctx context.Context, target Target, params Params, today time.Time, sel *Selection) []Candidate {
	rows, err := s.crm.ListCandidates(ctx, foldField(target.State), foldField(target.City), maxInternalCandidates)
	if err != nil {
		sel.Errors = append(sel.Errors, fmt.Sprintf("crm candidate lookup failed: %v", err))
		return nil
	}

	candidates := make([]Candidate, 0, len(rows))
	for _, row := range rows {
		if row.ID == target.CRMPropertyID {
			continue
		}

		var price *float64
		var date *time.Time
		yearBuilt := row.YearBuilt

		switch params.Kind {
		case KindRentals:
			zillow, zerr := s.crm.LatestZillow(ctx, row.ID)
			if zerr != nil {
				sel.Errors = append(sel.Errors, fmt.Sprintf("zillow lookup failed for %s: %v", row.ID, zerr))
				continue
			}
			if zillow == nil || zillow.RentZestimate == nil {
				continue
			}
			price = zillow.RentZestimate
			updated := zillow.UpdatedAt
			date = &updated
			yearBuilt = nil
		default:
			price = row.LastSalePrice
			date = row.LastSaleDate
		}

		distance := DistanceProxyMi(target.Zip, target.City, target.State, row.Zip, row.City, row.State)
		if !PassesHardFilters(FilterInput{
			DistanceMi:  distance,
			RadiusMi:    params.RadiusMi,
			Date:        date,
			Today:       today,
			TargetSqft:  target.Sqft,
			CandSqft:    row.Sqft,
			TargetBeds:  target.Beds,
			CandBeds:    row.Beds,
			TargetBaths: target.Baths,
			CandBaths:   row.Baths,
		}) {
			continue
		}

		similarity := SimilarityScore(SimilarityInput{
			DistanceMi:    distance,
			RadiusMi:      params.RadiusMi,
			TargetSqft:    target.Sqft,
			CandSqft:      row.Sqft,
			TargetBeds:    target.Beds,
			CandBeds:      row.Beds,
			TargetBaths:   target.Baths,
			CandBaths:     row.Baths,
			RecencyMonths: RecencyMonths(date, today),
		})

		candidates = append(candidates, Candidate{
			Address:       row.Address,
			City:          row.City,
			State:         row.State,
			Zip:           row.Zip,
			Price:         price,
			Date:          date,
			Sqft:          row.Sqft,
			Beds:          row.Beds,
			Baths:         row.Baths,
			YearBuilt:     yearBuilt,
			DistanceMi:    distance,
			Similarity:    similarity,
			SourceQuality: internalSourceQuality,
			SourceURL:     internalSourceURLPrefix + row.ID,
			Origin:        models.CompOriginInternal,
		})
	}

	return candidates
}

// externalCandidates searches the web and extracts candidate rows from hit
// text, filtered and scored at the given radius. One search is one web call.
func (s *Service) externalCandidates(ctx context.Context, target Target, params Params, radius float64, today time.Time, sel *Selection) []Candidate {
	if s.search == nil || !s.search.IsConfigured() {
		return nil
	}

	query := buildSearchQuery(params.Kind, target)
	sel.WebCalls++

	hits, err := s.search.Search(ctx, query, params.MaxSearchResults, true)
	if err != nil {
		sel.Errors = append(sel.Errors, fmt.Sprintf("search failed: %v", err))
		return nil
	}

	var candidates []Candidate
	for _, hit := range hits {
		text := hit.Text
		if text == "" {
			text = hit.Snippet
		}

		quality := evidence.SourceQuality(hit.URL, searchCategory)

		for _, row := range ExtractRows(text, params.Kind, hit.PublishedDate, today) {
			distance := DistanceProxyMi(target.Zip, target.City, target.State, row.Zip, row.City, row.State)
			if !PassesHardFilters(FilterInput{
				DistanceMi:  distance,
				RadiusMi:    radius,
				Date:        row.Date,
				Today:       today,
				TargetSqft:  target.Sqft,
				CandSqft:    row.Sqft,
				TargetBeds:  target.Beds,
				CandBeds:    row.Beds,
				TargetBaths: target.Baths,
				CandBaths:   row.Baths,
			}) {
				continue
			}

			similarity := SimilarityScore(SimilarityInput{
				DistanceMi:    distance,
				RadiusMi:      radius,
				TargetSqft:    target.Sqft,
				CandSqft:      row.Sqft,
				TargetBeds:    target.Beds,
				CandBeds:      row.Beds,
				TargetBaths:   target.Baths,
				CandBaths:     row.Baths,
				RecencyMonths: RecencyMonths(row.Date, today),
			})

			candidates = append(candidates, Candidate{
				Address:       row.Address,
				City:          row.City,
				State:         row.State,
				Zip:           row.Zip,
				Price:         row.Price,
				Date:          row.Date,
				Sqft:          row.Sqft,
				Beds:          row.Beds,
				Baths:         row.Baths,
				DistanceMi:    distance,
				Similarity:    similarity,
				SourceQuality: quality,
				SourceURL:     hit.URL,
				Origin:        models.CompOriginExternal,
			})
		}
	}

	return candidates
}

// buildSearchQuery composes the web query for a selection kind
func buildSearchQuery(kind Kind, target Target) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{target.Address, target.City, target.State, target.Zip} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	location := strings.Join(parts, ", ")

	if kind == KindRentals {
		return fmt.Sprintf("homes for rent near %s", location)
	}
	return fmt.Sprintf("recently sold homes near %s", location)
}
