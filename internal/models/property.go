// -----------------------------------------------------------------------
// Research Property - Canonical identity of a researched parcel
// -----------------------------------------------------------------------

package models

import (
	"encoding/gob"
	"fmt"
	"time"
)

func init() {
	// Register types with gob for BadgerDB serialization
	gob.Register(map[string]interface{}{})
	gob.Register([]interface{}{})
	gob.Register(time.Time{})
	gob.Register(PropertyProfile{})
	gob.Register(ParcelFacts{})
	gob.Register(TransactionEvent{})
	gob.Register([]TransactionEvent{})
	gob.Register(EnrichmentStatus{})
}

// ResearchProperty is the canonical record for a parcel under research.
// A property is created the first time an address is referenced and is
// never deleted; later jobs update the profile snapshot in place.
//
// StableKey is immutable once set. It is the SHA-256 of the normalized
// address joined with the lowercased APN, so re-submitting the same
// address in different casing or spacing resolves to the same property.
type ResearchProperty struct {
	ID                string           `json:"id"`
	StableKey         string           `json:"stable_key" badgerhold:"unique"`
	RawAddress        string           `json:"raw_address"`
	NormalizedAddress string           `json:"normalized_address"`
	City              string           `json:"city,omitempty"`
	State             string           `json:"state,omitempty"` // 2-letter code
	Zip               string           `json:"zip_code,omitempty"`
	APN               string           `json:"apn,omitempty"`
	GeoLat            *float64         `json:"geo_lat,omitempty"`
	GeoLng            *float64         `json:"geo_lng,omitempty"`
	LatestProfile     *PropertyProfile `json:"latest_profile,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// PropertyProfile is the structured snapshot produced by the geocode
// worker and refreshed on each job run.
type PropertyProfile struct {
	NormalizedAddress  string                 `json:"normalized_address"`
	Geo                GeoPoint               `json:"geo"`
	APN                string                 `json:"apn,omitempty"`
	ParcelFacts        ParcelFacts            `json:"parcel_facts"`
	Zoning             string                 `json:"zoning,omitempty"`
	OwnerNames         []string               `json:"owner_names"`
	MailingAddress     string                 `json:"mailing_address,omitempty"`
	AssessedValues     map[string]interface{} `json:"assessed_values,omitempty"`
	TaxStatus          string                 `json:"tax_status,omitempty"`
	TransactionHistory []TransactionEvent     `json:"transaction_history"`
	EnrichmentStatus   *EnrichmentStatus      `json:"enrichment_status,omitempty"`
}

// GeoPoint holds a WGS84 coordinate pair. Nil means unresolved.
type GeoPoint struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// ParcelFacts carries the physical attributes used by comp filtering and
// underwriting. Nil means the fact is unknown, not zero.
type ParcelFacts struct {
	Sqft      *float64 `json:"sqft"`
	LotSqft   *float64 `json:"lot"`
	Beds      *int     `json:"beds"`
	Baths     *float64 `json:"baths"`
	YearBuilt *int     `json:"year"`
}

// TransactionEvent is one row of a property's transaction history.
// Dates are ISO 8601 strings so the profile stays JSON-portable.
type TransactionEvent struct {
	Date      string   `json:"date"`
	Event     string   `json:"event"`
	Amount    *float64 `json:"amount,omitempty"`
	SourceURL string   `json:"source_url,omitempty"`
}

// EnrichmentStatus reports whether internal CRM enrichment exists for the
// property and whether it is fresh enough to trust.
//
// IsFresh is tri-state: nil when no freshness horizon applies,
// true/false when MaxAgeHours is set.
type EnrichmentStatus struct {
	IsEnriched  bool     `json:"is_enriched"`
	IsFresh     *bool    `json:"is_fresh"`
	MaxAgeHours *float64 `json:"max_age_hours"`
	AgeHours    *float64 `json:"age_hours,omitempty"`
	Missing     []string `json:"missing"`
}

// NewResearchProperty creates a property record from normalized components
func NewResearchProperty(id, stableKey, rawAddress, normalizedAddress string) *ResearchProperty {
	now := time.Now()
	return &ResearchProperty{
		ID:                id,
		StableKey:         stableKey,
		RawAddress:        rawAddress,
		NormalizedAddress: normalizedAddress,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Validate validates the property record
func (p *ResearchProperty) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("property ID is required")
	}
	if p.StableKey == "" {
		return fmt.Errorf("property stable key is required")
	}
	if p.RawAddress == "" {
		return fmt.Errorf("property raw address is required")
	}
	return nil
}

// HasGeo returns true when both coordinates are resolved
func (p *ResearchProperty) HasGeo() bool {
	return p.GeoLat != nil && p.GeoLng != nil
}

// Touch updates the modification timestamp
func (p *ResearchProperty) Touch() {
	p.UpdatedAt = time.Now()
}
