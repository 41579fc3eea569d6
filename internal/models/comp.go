// -----------------------------------------------------------------------
// Comparables - Ranked sale and rental comps selected per job
// -----------------------------------------------------------------------

package models

import "time"

// CompOrigin marks where a comparable candidate was sourced from
type CompOrigin string

const (
	// CompOriginInternal comes from the CRM property store
	CompOriginInternal CompOrigin = "internal"
	// CompOriginExternal was extracted from web search hit text
	CompOriginExternal CompOrigin = "external"
)

// CompDetails carries ranking metadata attached to a selected comparable
type CompDetails struct {
	Origin         CompOrigin `json:"origin"`
	SourceQuality  float64    `json:"source_quality"`
	EffectiveScore float64    `json:"effective_score"`
}

// CompSale is a selected sale comparable. All rows for a job are deleted
// and rewritten each time the comps_sales worker runs. Rank preserves the
// ordering the ranker produced.
type CompSale struct {
	ID              string      `json:"id"`
	JobID           string      `json:"job_id" badgerhold:"index"`
	Rank            int         `json:"-" badgerhold:"index"`
	Address         string      `json:"address"`
	DistanceMi      float64     `json:"distance_mi"`
	SalePrice       *float64    `json:"sale_price"`
	SaleDate        *time.Time  `json:"sale_date"`
	Sqft            *float64    `json:"sqft"`
	Beds            *int        `json:"beds"`
	Baths           *float64    `json:"baths"`
	YearBuilt       *int        `json:"year_built"`
	SimilarityScore float64     `json:"similarity_score"`
	SourceURL       string      `json:"source_url"`
	Details         CompDetails `json:"details"`
}

// CompRental is a selected rental comparable. Same rewrite lifecycle as
// CompSale, driven by the comps_rentals worker.
type CompRental struct {
	ID              string      `json:"id"`
	JobID           string      `json:"job_id" badgerhold:"index"`
	Rank            int         `json:"-" badgerhold:"index"`
	Address         string      `json:"address"`
	DistanceMi      float64     `json:"distance_mi"`
	Rent            *float64    `json:"rent"`
	DateListed      *time.Time  `json:"date_listed"`
	Sqft            *float64    `json:"sqft"`
	Beds            *int        `json:"beds"`
	Baths           *float64    `json:"baths"`
	SimilarityScore float64     `json:"similarity_score"`
	SourceURL       string      `json:"source_url"`
	Details         CompDetails `json:"details"`
}
