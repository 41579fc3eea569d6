// -----------------------------------------------------------------------
// Adapter Interfaces - External data source contracts
//
// Adapters never panic across the worker boundary. Network or parse
// failures surface as a nil/empty result plus an error the worker records
// as a non-fatal issue; the pipeline continues.
// -----------------------------------------------------------------------

package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/praedium/internal/models"
)

// GeocodeCandidate is one autocomplete suggestion
type GeocodeCandidate struct {
	PlaceID     string `json:"place_id"`
	Description string `json:"description"`
}

// GeocodeDetails is the resolved detail record for a place
type GeocodeDetails struct {
	FormattedAddress string  `json:"formatted_address"`
	City             string  `json:"city"`
	State            string  `json:"state"`
	Zip              string  `json:"zip"`
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
}

// Geocoder resolves free-text addresses to canonical place records.
// Details returns (nil, nil) when the place cannot be resolved.
type Geocoder interface {
	Autocomplete(ctx context.Context, text, country string) ([]GeocodeCandidate, error)
	Details(ctx context.Context, placeID string) (*GeocodeDetails, error)
	IsConfigured() bool
}

// SearchHit is one normalized web search result
type SearchHit struct {
	Title         string     `json:"title"`
	URL           string     `json:"url"`
	Snippet       string     `json:"snippet"`
	PublishedDate *time.Time `json:"published_date,omitempty"`
	Text          string     `json:"text,omitempty"` // page text, populated when includeText is set
}

// SearchProvider performs web search. Implementations return an empty
// slice on failure; callers record the error and continue. Callers must
// check IsConfigured before Search so disabled providers cost no budget.
type SearchProvider interface {
	Search(ctx context.Context, query string, maxResults int, includeText bool) ([]SearchHit, error)
	Name() string
	IsConfigured() bool
}

// PageFetcher retrieves the readable text of a web page
type PageFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// NarrativeLLM generates investor-memo prose. The dossier worker falls
// back to a deterministic structured document when unavailable.
type NarrativeLLM interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
	IsAvailable() bool
	ModelName() string
}

// GISClient performs parameterized JSON GETs against public GIS endpoints
type GISClient interface {
	Get(ctx context.Context, baseURL string, params map[string]string) (map[string]interface{}, error)
}

// GISLookups is the typed catalog of external lookups used by the
// environmental and listing-data workers. Every method returns a
// normalized partial payload; missing upstream data yields an empty map.
type GISLookups interface {
	FloodZone(ctx context.Context, lat, lng float64) (map[string]interface{}, error)
	EPAFacilities(ctx context.Context, lat, lng, radiusMi float64) (map[string]interface{}, error)
	WildfireHazard(ctx context.Context, lat, lng float64) (map[string]interface{}, error)
	HUDOpportunity(ctx context.Context, lat, lng float64) (map[string]interface{}, error)
	Wetlands(ctx context.Context, lat, lng float64) (map[string]interface{}, error)
	HistoricPlaces(ctx context.Context, lat, lng float64) (map[string]interface{}, error)
	SeismicHazard(ctx context.Context, lat, lng float64) (map[string]interface{}, error)
	SchoolDistrict(ctx context.Context, lat, lng float64) (map[string]interface{}, error)
	WalkScore(ctx context.Context, address string, lat, lng float64) (map[string]interface{}, error)
	USRealEstate(ctx context.Context, address, city, state, zip string) (map[string]interface{}, error)
	Redfin(ctx context.Context, address, city, state, zip string) (map[string]interface{}, error)
	RentCast(ctx context.Context, address, city, state, zip string) (map[string]interface{}, error)

	// Key presence for the keyed lookups. Callers must check before
	// calling so lookups that would skip cost no budget.
	HasWalkScoreKey() bool
	HasRapidAPIKey() bool
}

// CRMService exposes the internal enrichment store to workers
type CRMService interface {
	// BestMatch applies the matching heuristic: state and city equality
	// when known, exact address match first, then substring.
	BestMatch(ctx context.Context, address, city, state string) (*models.CRMProperty, error)
	LatestSkipTrace(ctx context.Context, crmPropertyID string) (*models.SkipTraceRecord, error)
	LatestZillow(ctx context.Context, crmPropertyID string) (*models.ZillowRecord, error)
	ListCandidates(ctx context.Context, state, city string, limit int) ([]*models.CRMProperty, error)
}
