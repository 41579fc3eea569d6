// -----------------------------------------------------------------------
// CRM Records - Internal parcel facts, skip traces, Zillow enrichment
// -----------------------------------------------------------------------

package models

import "time"

// CRMProperty is an internally held parcel record. These rows feed both
// the enrichment step of the geocode worker and the internal comparable
// candidate pool.
type CRMProperty struct {
	ID      string `json:"id"`
	Address string `json:"address"`
	City    string `json:"city" badgerhold:"index"`
	State   string `json:"state" badgerhold:"index"`
	Zip     string `json:"zip,omitempty"`
	APN     string `json:"apn,omitempty"`

	// Parcel facts
	Sqft      *float64 `json:"sqft,omitempty"`
	LotSqft   *float64 `json:"lot_sqft,omitempty"`
	Beds      *int     `json:"beds,omitempty"`
	Baths     *float64 `json:"baths,omitempty"`
	YearBuilt *int     `json:"year_built,omitempty"`
	Zoning    string   `json:"zoning,omitempty"`

	// Last recorded sale, used for sales comps
	LastSaleDate  *time.Time `json:"last_sale_date,omitempty"`
	LastSalePrice *float64   `json:"last_sale_price,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SkipTraceRecord is the result of an owner lookup against a CRM property
type SkipTraceRecord struct {
	ID             string    `json:"id"`
	CRMPropertyID  string    `json:"crm_property_id" badgerhold:"index"`
	OwnerNames     []string  `json:"owner_names"`
	MailingAddress string    `json:"mailing_address,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ZillowRecord is cached Zillow enrichment for a CRM property
type ZillowRecord struct {
	ID            string `json:"id"`
	CRMPropertyID string `json:"crm_property_id" badgerhold:"index"`

	Zestimate     *float64 `json:"zestimate,omitempty"`
	RentZestimate *float64 `json:"rent_zestimate,omitempty"`

	TaxAssessedValue *float64 `json:"tax_assessed_value,omitempty"`
	TaxAnnual        *float64 `json:"tax_annual,omitempty"`
	TaxStatus        string   `json:"tax_status,omitempty"`

	PriceHistory []PriceHistoryEvent `json:"price_history,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// PriceHistoryEvent is one Zillow price-history row
type PriceHistoryEvent struct {
	Date      *time.Time `json:"date,omitempty"`
	Event     string     `json:"event"`
	Price     *float64   `json:"price,omitempty"`
	SourceURL string     `json:"source_url,omitempty"`
}

// HasRentalSignal reports whether the record can anchor a rental comp
func (z *ZillowRecord) HasRentalSignal() bool {
	return z != nil && z.RentZestimate != nil && *z.RentZestimate > 0
}
