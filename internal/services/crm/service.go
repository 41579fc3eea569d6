// -----------------------------------------------------------------------
// CRM Service - Internal parcel matching and enrichment freshness
// -----------------------------------------------------------------------

package crm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/praedium/internal/interfaces"
	"github.com/ternarybob/praedium/internal/models"
)

// defaultMaxAgeHours is the freshness horizon applied when enriched data
// is required but no explicit horizon was given.
const defaultMaxAgeHours = 168.0

// Missing-input labels reported by enrichment status, in check order.
const (
	MissingCRMMatch       = "crm_match"
	MissingSkipTraceOwner = "skip_trace_owner"
	MissingZillow         = "zillow"
)

// Service resolves subject addresses against the internal CRM and reports
// how complete and how fresh the enrichment behind a match is.
type Service struct {
	storage interfaces.CRMStorage
	logger  arbor.ILogger
}

// NewService creates a CRM service backed by the given storage
func NewService(storage interfaces.CRMStorage, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// Match bundles a CRM property with its newest enrichment records.
// SkipTrace and Zillow are nil when no record exists.
type Match struct {
	Property  *models.CRMProperty
	SkipTrace *models.SkipTraceRecord
	Zillow    *models.ZillowRecord
}

// BestMatch finds the first CRM property whose state and city match the
// subject case-insensitively (blank subject values match anything) and
// whose address matches exactly; when no exact address matches, the first
// containment match wins. Returns nil without error when nothing matches.
func (s *Service) BestMatch(ctx context.Context, address, city, state string) (*models.CRMProperty, error) {
	candidates, err := s.storage.ListCandidates(ctx, fold(state), fold(city), 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load crm candidates: %w", err)
	}

	needle := fold(address)
	if needle == "" {
		return nil, nil
	}

	for _, candidate := range candidates {
		if fold(candidate.Address) == needle {
			return candidate, nil
		}
	}
	for _, candidate := range candidates {
		if strings.Contains(fold(candidate.Address), needle) {
			return candidate, nil
		}
	}
	return nil, nil
}

// Lookup runs BestMatch and attaches the newest skip trace and Zillow
// records. A nil Match means no CRM property matched.
func (s *Service) Lookup(ctx context.Context, address, city, state string) (*Match, error) {
	property, err := s.BestMatch(ctx, address, city, state)
	if err != nil {
		return nil, err
	}
	if property == nil {
		s.logger.Debug().Str("address", address).Msg("No CRM match")
		return nil, nil
	}

	match := &Match{Property: property}
	if match.SkipTrace, err = s.storage.LatestSkipTrace(ctx, property.ID); err != nil {
		return nil, err
	}
	if match.Zillow, err = s.storage.LatestZillow(ctx, property.ID); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("crm_id", property.ID).
		Bool("skip_trace", match.SkipTrace != nil).
		Bool("zillow", match.Zillow != nil).
		Msg("CRM match resolved")
	return match, nil
}

// LatestSkipTrace returns the newest skip trace for a CRM property
func (s *Service) LatestSkipTrace(ctx context.Context, crmPropertyID string) (*models.SkipTraceRecord, error) {
	return s.storage.LatestSkipTrace(ctx, crmPropertyID)
}

// LatestZillow returns the newest Zillow record for a CRM property
func (s *Service) LatestZillow(ctx context.Context, crmPropertyID string) (*models.ZillowRecord, error) {
	return s.storage.LatestZillow(ctx, crmPropertyID)
}

// ListCandidates returns CRM properties filtered by state and city
func (s *Service) ListCandidates(ctx context.Context, state, city string, limit int) ([]*models.CRMProperty, error) {
	return s.storage.ListCandidates(ctx, fold(state), fold(city), limit)
}

// HasOwner reports whether the match carries a skip trace with owner names
func (m *Match) HasOwner() bool {
	return m != nil && m.SkipTrace != nil && len(m.SkipTrace.OwnerNames) > 0
}

// ComputeEnrichmentStatus derives the enrichment completeness and
// freshness verdict for a (possibly nil) match.
//
// The freshness horizon comes from assumptions: an explicit positive
// enriched_max_age_hours wins, otherwise 168 hours when enriched data is
// required, otherwise no horizon applies and IsFresh stays nil. Age is
// measured from the newest of the skip trace and Zillow timestamps.
func ComputeEnrichmentStatus(a *models.Assumptions, match *Match, now time.Time) *models.EnrichmentStatus {
	status := &models.EnrichmentStatus{Missing: []string{}}

	if a != nil {
		switch {
		case a.EnrichedMaxAgeHours != nil && *a.EnrichedMaxAgeHours > 0:
			v := float64(*a.EnrichedMaxAgeHours)
			status.MaxAgeHours = &v
		case a.RequireEnrichedData:
			v := defaultMaxAgeHours
			status.MaxAgeHours = &v
		}
	}

	if match == nil || match.Property == nil {
		status.Missing = append(status.Missing, MissingCRMMatch)
	}
	if !match.HasOwner() {
		status.Missing = append(status.Missing, MissingSkipTraceOwner)
	}
	if match == nil || match.Zillow == nil {
		status.Missing = append(status.Missing, MissingZillow)
	}
	status.IsEnriched = len(status.Missing) == 0

	if status.MaxAgeHours == nil {
		return status
	}

	newest := newestEnrichmentTime(match)
	if newest == nil {
		fresh := false
		status.IsFresh = &fresh
		return status
	}

	age := now.Sub(*newest).Hours()
	status.AgeHours = &age
	fresh := age <= *status.MaxAgeHours
	status.IsFresh = &fresh
	return status
}

// newestEnrichmentTime returns the later of the skip trace creation and
// Zillow update times, or nil when neither record exists
func newestEnrichmentTime(match *Match) *time.Time {
	if match == nil {
		return nil
	}
	var newest *time.Time
	if match.SkipTrace != nil {
		t := match.SkipTrace.CreatedAt
		newest = &t
	}
	if match.Zillow != nil && (newest == nil || match.Zillow.UpdatedAt.After(*newest)) {
		t := match.Zillow.UpdatedAt
		newest = &t
	}
	return newest
}

// fold lowercases and trims for case-insensitive comparison
func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
