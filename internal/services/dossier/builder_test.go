package dossier

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/praedium/internal/models"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

// sampleData builds a fully populated fixture. Constructed fresh on
// every call so determinism tests compare independent builds.
func sampleData() *Data {
	saleDate := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	listDate := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	profile := &models.PropertyProfile{
		NormalizedAddress: "45 oak ave, newark, nj 07102",
		APN:               "12-0345-067",
		Geo:               models.GeoPoint{Lat: fptr(40.7357), Lng: fptr(-74.1724)},
		ParcelFacts: models.ParcelFacts{
			Sqft:      fptr(1500),
			LotSqft:   fptr(4200),
			Beds:      iptr(3),
			Baths:     fptr(2),
			YearBuilt: iptr(1952),
		},
		Zoning:         "R-2",
		OwnerNames:     []string{"Maria Alvarez"},
		MailingAddress: "PO Box 910, Newark, NJ 07101",
		AssessedValues: map[string]interface{}{
			"zestimate":          410000.0,
			"rent_zestimate":     2450.0,
			"tax_assessed_value": 298000.0,
			"tax_annual":         8120.0,
		},
		TaxStatus: "current",
		TransactionHistory: []models.TransactionEvent{
			{Date: "2018-05-21", Event: "sold", Amount: fptr(255000)},
		},
	}

	return &Data{
		Profile:  profile,
		Strategy: models.StrategyWholesale,
		SalesComps: []*models.CompSale{
			{
				Address:         "12 Elm St, Newark, NJ 07102",
				SalePrice:       fptr(410000),
				SaleDate:        &saleDate,
				Sqft:            fptr(1480),
				Beds:            iptr(3),
				Baths:           fptr(2),
				SimilarityScore: 0.91,
				SourceURL:       "https://www.zillow.com/homedetails/12-elm",
			},
			{
				Address:         "88 Pine St, Newark, NJ 07102",
				SalePrice:       fptr(420000),
				SimilarityScore: 0.84,
				SourceURL:       "internal://crm/p-2",
			},
		},
		RentalComps: []*models.CompRental{
			{
				Address:         "7 Cedar Ct, Newark, NJ 07102",
				Rent:            fptr(2400),
				DateListed:      &listDate,
				Sqft:            fptr(1400),
				Beds:            iptr(3),
				Baths:           fptr(1.5),
				SimilarityScore: 0.88,
				SourceURL:       "https://www.realtor.com/7-cedar",
			},
		},
		Underwrite: &models.Underwriting{
			ARVEstimate: models.Estimate{Low: fptr(378000), Base: fptr(420000), High: fptr(462000)},
			RentEstimate: models.Estimate{
				Low: fptr(2160), Base: fptr(2400), High: fptr(2640),
			},
			RehabTier:           models.RehabTierMedium,
			RehabRange:          models.Estimate{Low: fptr(42000), Base: fptr(52500), High: fptr(63000)},
			OfferRecommendation: models.Estimate{Low: fptr(190350), Base: fptr(211500), High: fptr(232650)},
			Fees:                models.FeeSchedule{Closing: 5000, Holding: 3000, Assignment: 10000, Misc: 1500, Total: 19500},
			Sensitivity: []models.SensitivityRow{
				{Scenario: "conservative", ARV: fptr(399000), Offer: fptr(194580)},
				{Scenario: "base", ARV: fptr(420000), Offer: fptr(211500)},
				{Scenario: "optimistic", ARV: fptr(441000), Offer: fptr(228420)},
			},
		},
		Risk: &models.RiskScore{
			TitleRisk:       0.75,
			DataConfidence:  0.62,
			ComplianceFlags: []string{models.FlagOwnerNotVerified},
			Notes:           "Owner identity not confirmed by skip trace.",
		},
		Evidence: []*models.EvidenceItem{
			{ID: "ev-1", Category: "geocode", Claim: "Geocoded 45 Oak Ave to 40.7357,-74.1724", SourceURL: "https://geocode.maps.co/search", Confidence: 0.95},
			{ID: "ev-2", Category: "comp_sale", Claim: "12 Elm St sold for $410,000", SourceURL: "https://www.zillow.com/homedetails/12-elm", Confidence: 0.82},
		},
		Sections: map[string]map[string]interface{}{
			"flood_zone": {
				"zone":         "AE",
				"is_high_risk": true,
				"source":       "https://hazards.fema.gov/gis/nfhl",
			},
			"neighborhood_intel": {
				"query":     "Newark NJ 07102 neighborhood crime schools trends",
				"hit_count": 1,
				"hits": []map[string]interface{}{
					{"title": "Newark crime statistics", "url": "https://www.city-data.com/crime/newark", "snippet": "Crime trends"},
				},
			},
		},
	}
}

func TestStructured_ByteStable(t *testing.T) {
	first := Structured(sampleData())
	second := Structured(sampleData())
	assert.Equal(t, first, second)
}

func TestStructured_FullFixture(t *testing.T) {
	out := Structured(sampleData())

	assert.True(t, strings.HasPrefix(out, "# Investment Research Dossier\n\n"))
	assert.Contains(t, out, "**Property:** 45 oak ave, newark, nj 07102")
	assert.Contains(t, out, "**Strategy:** wholesale")

	assert.Contains(t, out, "## Property Details")
	assert.Contains(t, out, "- Beds: 3")
	assert.Contains(t, out, "- Year built: 1952")
	assert.Contains(t, out, "- Coordinates: 40.735700, -74.172400")

	assert.Contains(t, out, "## Ownership")
	assert.Contains(t, out, "- Owner: Maria Alvarez")

	assert.Contains(t, out, "## Valuation Signals")
	assert.Contains(t, out, "- Zestimate: $410,000.00")
	assert.Contains(t, out, "- Rent Zestimate: $2,450.00/mo")
	assert.Contains(t, out, "- Transaction history events: 1")

	assert.Contains(t, out, "## Sales Comparables")
	assert.Contains(t, out, "- Selected comps: 2")
	assert.Contains(t, out, "- Price range: $410,000.00 to $420,000.00")
	assert.Contains(t, out, "- Mean price: $415,000.00")
	assert.Contains(t, out, "- Closest match: 12 Elm St, Newark, NJ 07102 (similarity 0.91)")

	assert.Contains(t, out, "## Underwriting")
	assert.Contains(t, out, "- ARV: $420,000.00 (range $378,000.00 to $462,000.00)")
	assert.Contains(t, out, "- Monthly rent: $2,400.00/mo (range $2,160.00 to $2,640.00)")
	assert.Contains(t, out, "- Rehab tier: medium")
	assert.Contains(t, out, "- Fees total: $19,500.00")
	assert.Contains(t, out, "- Sensitivity conservative: ARV $399,000.00, offer $194,580.00")

	assert.Contains(t, out, "## Risk")
	assert.Contains(t, out, "- Title risk: 0.75")
	assert.Contains(t, out, "- Data confidence: 0.62")
	assert.Contains(t, out, "- Flags: owner_not_verified")

	// lookup bullets are sorted by key and drop the source marker
	assert.Contains(t, out, "## Flood Zone")
	assert.Contains(t, out, "- is high risk: true\n- zone: AE")
	assert.NotContains(t, out, "hazards.fema.gov/gis")

	assert.Contains(t, out, "## Neighborhood")
	assert.Contains(t, out, "- Query: Newark NJ 07102 neighborhood crime schools trends")
	assert.Contains(t, out, "- [Newark crime statistics](https://www.city-data.com/crime/newark)")

	assert.Contains(t, out, "## Raw Data Appendix")
	assert.Contains(t, out, "### Sales Comps")
	assert.Contains(t, out, "| 12 Elm St, Newark, NJ 07102 | $410,000.00 | 2025-03-14 | 1480 | 3 | 2 | 0.91 | zillow.com |")
	assert.Contains(t, out, "| 88 Pine St, Newark, NJ 07102 | $420,000.00 | n/a | n/a | n/a | n/a | 0.84 | internal |")
	assert.Contains(t, out, "### Rental Comps")
	assert.Contains(t, out, "| 7 Cedar Ct, Newark, NJ 07102 | $2,400.00 | 2025-06-02 | 1400 | 3 | 1.5 | 0.88 | realtor.com |")
	assert.Contains(t, out, "### Evidence")
	assert.Contains(t, out, "| geocode | Geocoded 45 Oak Ave to 40.7357,-74.1724 | 0.95 | geocode.maps.co |")
}

func TestStructured_EmptyData(t *testing.T) {
	out := Structured(&Data{Strategy: models.StrategyFlip})

	expected := "# Investment Research Dossier\n\n" +
		"**Strategy:** flip\n\n" +
		"No research data available." +
		"\n\n---\n\n## Raw Data Appendix\n\n" +
		"No raw data captured."
	assert.Equal(t, expected, out)
}

func TestStructured_OmitsMissingSections(t *testing.T) {
	data := &Data{
		Strategy: models.StrategyRental,
		Profile:  &models.PropertyProfile{NormalizedAddress: "1 main st, trenton, nj"},
	}
	out := Structured(data)

	assert.Contains(t, out, "## Property Details")
	assert.NotContains(t, out, "## Ownership")
	assert.NotContains(t, out, "## Underwriting")
	assert.NotContains(t, out, "## Flood Zone")
	assert.Contains(t, out, "No raw data captured.")
}

func TestWithNarrative(t *testing.T) {
	data := sampleData()
	out := WithNarrative("  ## Thesis\n\nStrong wholesale candidate.\n ", data)

	assert.True(t, strings.HasPrefix(out, "## Thesis\n\nStrong wholesale candidate."))
	assert.Contains(t, out, "\n\n---\n\n## Raw Data Appendix\n\n")
	assert.Contains(t, out, "### Evidence")
}

func TestPrompt(t *testing.T) {
	out := Prompt(sampleData())

	assert.Contains(t, out, "Write an investor memo")
	assert.Contains(t, out, "Investment strategy: wholesale.")
	assert.Contains(t, out, "## Underwriting")
	// prompt carries the summary, not the appendix
	assert.NotContains(t, out, "Raw Data Appendix")
}

func TestSummary_OrdersSections(t *testing.T) {
	out := Summary(sampleData())

	property := strings.Index(out, "## Property Details")
	underwriting := strings.Index(out, "## Underwriting")
	risk := strings.Index(out, "## Risk")
	flood := strings.Index(out, "## Flood Zone")

	require.True(t, property >= 0 && underwriting > 0 && risk > 0 && flood > 0)
	assert.Less(t, property, underwriting)
	assert.Less(t, underwriting, risk)
	assert.Less(t, risk, flood)
}

func TestSearchSection_DecodedHits(t *testing.T) {
	// hits arrive as []interface{} when read back from a stored run
	payload := map[string]interface{}{
		"query": "permits 45 oak ave newark",
		"hits": []interface{}{
			map[string]interface{}{"title": "Permit portal", "url": "https://newarknj.gov/permits"},
			map[string]interface{}{"title": "No URL hit"},
			map[string]interface{}{"url": "https://citizenserve.com/newark"},
			map[string]interface{}{"title": "Fourth hit", "url": "https://example.com/4"},
		},
	}

	out := searchSection(payload)
	assert.Contains(t, out, "- Query: permits 45 oak ave newark")
	assert.Contains(t, out, "- [Permit portal](https://newarknj.gov/permits)")
	assert.Contains(t, out, "- No URL hit")
	assert.Contains(t, out, "- [https://citizenserve.com/newark](https://citizenserve.com/newark)")
	// capped at three hits
	assert.NotContains(t, out, "Fourth hit")
}

func TestListingSection_UnwrapsDataEnvelope(t *testing.T) {
	payload := map[string]interface{}{
		"source": "us_real_estate",
		"data": map[string]interface{}{
			"list_price": 425000.0,
			"status":     "for_sale",
		},
	}

	out := listingSection(payload)
	assert.Contains(t, out, "- list price: 425000")
	assert.Contains(t, out, "- status: for_sale")
	assert.NotContains(t, out, "us_real_estate")
}

func TestLookupSection_StringLists(t *testing.T) {
	payload := map[string]interface{}{
		"wetland_types": []string{"Freshwater Pond", "Riverine"},
		"count":         2,
		"source":        "https://www.fws.gov/wetlands",
	}

	out := lookupSection(payload)
	assert.Equal(t, "- count: 2\n- wetland types: Freshwater Pond, Riverine", out)
}

func TestFormatMoney(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{420000, "$420,000.00"},
		{1234567.5, "$1,234,567.50"},
		{999.99, "$999.99"},
		{0, "$0.00"},
		{-2500, "-$2,500.00"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, formatMoney(tc.in))
	}
}

func TestSourceCell(t *testing.T) {
	assert.Equal(t, "zillow.com", sourceCell("https://www.zillow.com/homedetails/12-elm"))
	assert.Equal(t, "internal", sourceCell("internal://crm/p-2"))
	assert.Equal(t, "n/a", sourceCell(""))
}

func TestEscapeCell(t *testing.T) {
	assert.Equal(t, "a \\| b", escapeCell("a | b"))
	assert.Equal(t, "line one line two", escapeCell("line one\nline two"))
}
