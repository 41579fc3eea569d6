package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/praedium/internal/interfaces"
	"github.com/ternarybob/praedium/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// CRMStorage handles internal CRM records using BadgerDB
type CRMStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCRMStorage creates a new CRM storage instance
func NewCRMStorage(db *BadgerDB, logger arbor.ILogger) *CRMStorage {
	return &CRMStorage{
		db:     db,
		logger: logger,
	}
}

// SaveProperty persists a CRM property record
func (s *CRMStorage) SaveProperty(ctx context.Context, property *models.CRMProperty) error {
	if property == nil || property.ID == "" {
		return fmt.Errorf("crm property requires an id")
	}

	property.UpdatedAt = time.Now().UTC()
	if property.CreatedAt.IsZero() {
		property.CreatedAt = property.UpdatedAt
	}

	if err := s.db.Store().Upsert(property.ID, property); err != nil {
		return fmt.Errorf("failed to save crm property: %w", err)
	}

	s.logger.Debug().Str("crm_id", property.ID).Str("address", property.Address).Msg("CRM property saved")
	return nil
}

// GetProperty retrieves a CRM property by its ID
func (s *CRMStorage) GetProperty(ctx context.Context, id string) (*models.CRMProperty, error) {
	var property models.CRMProperty
	if err := s.db.Store().Get(id, &property); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("crm property %s: %w", id, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get crm property: %w", err)
	}
	return &property, nil
}

// ListCandidates returns CRM properties filtered by state and city. Empty
// filter values match everything. Results are ordered oldest first so the
// candidate pool is stable across runs.
func (s *CRMStorage) ListCandidates(ctx context.Context, state, city string, limit int) ([]*models.CRMProperty, error) {
	var query *badgerhold.Query
	switch {
	case state != "" && city != "":
		query = badgerhold.Where("State").Eq(state).And("City").Eq(city)
	case state != "":
		query = badgerhold.Where("State").Eq(state)
	case city != "":
		query = badgerhold.Where("City").Eq(city)
	default:
		query = badgerhold.Where("ID").Ne("")
	}
	query = query.SortBy("CreatedAt", "ID")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var results []*models.CRMProperty
	if err := s.db.Store().Find(&results, query); err != nil {
		return nil, fmt.Errorf("failed to list crm candidates: %w", err)
	}
	return results, nil
}

// SaveSkipTrace persists a skip trace record
func (s *CRMStorage) SaveSkipTrace(ctx context.Context, record *models.SkipTraceRecord) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("skip trace record requires an id")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	if err := s.db.Store().Upsert(record.ID, record); err != nil {
		return fmt.Errorf("failed to save skip trace: %w", err)
	}
	return nil
}

// LatestSkipTrace returns the newest skip trace for a CRM property, or nil
// when none exists
func (s *CRMStorage) LatestSkipTrace(ctx context.Context, crmPropertyID string) (*models.SkipTraceRecord, error) {
	var records []*models.SkipTraceRecord
	query := badgerhold.Where("CRMPropertyID").Eq(crmPropertyID).SortBy("CreatedAt").Reverse().Limit(1)
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to query skip traces: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// SaveZillow persists a Zillow enrichment record
func (s *CRMStorage) SaveZillow(ctx context.Context, record *models.ZillowRecord) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("zillow record requires an id")
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = time.Now().UTC()
	}

	if err := s.db.Store().Upsert(record.ID, record); err != nil {
		return fmt.Errorf("failed to save zillow record: %w", err)
	}
	return nil
}

// LatestZillow returns the newest Zillow record for a CRM property, or nil
// when none exists
func (s *CRMStorage) LatestZillow(ctx context.Context, crmPropertyID string) (*models.ZillowRecord, error) {
	var records []*models.ZillowRecord
	query := badgerhold.Where("CRMPropertyID").Eq(crmPropertyID).SortBy("UpdatedAt").Reverse().Limit(1)
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to query zillow records: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// CountProperties returns the total number of CRM properties
func (s *CRMStorage) CountProperties(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.CRMProperty{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count crm properties: %w", err)
	}
	return int(count), nil
}
