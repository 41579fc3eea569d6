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

// PropertyStorage handles research property persistence using BadgerDB
type PropertyStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewPropertyStorage creates a new property storage instance
func NewPropertyStorage(db *BadgerDB, logger arbor.ILogger) *PropertyStorage {
	return &PropertyStorage{
		db:     db,
		logger: logger,
	}
}

// Upsert saves or updates a research property
func (s *PropertyStorage) Upsert(ctx context.Context, property *models.ResearchProperty) error {
	if property == nil {
		return fmt.Errorf("property is nil")
	}
	if err := property.Validate(); err != nil {
		return fmt.Errorf("invalid property: %w", err)
	}

	property.UpdatedAt = time.Now().UTC()
	if property.CreatedAt.IsZero() {
		property.CreatedAt = property.UpdatedAt
	}

	if err := s.db.Store().Upsert(property.ID, property); err != nil {
		return fmt.Errorf("failed to save property: %w", err)
	}

	s.logger.Debug().
		Str("property_id", property.ID).
		Str("stable_key", property.StableKey).
		Msg("Property saved")

	return nil
}

// GetByID retrieves a research property by its ID
func (s *PropertyStorage) GetByID(ctx context.Context, id string) (*models.ResearchProperty, error) {
	var property models.ResearchProperty
	if err := s.db.Store().Get(id, &property); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("property %s: %w", id, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	return &property, nil
}

// GetByStableKey retrieves a research property by its dedupe key
func (s *PropertyStorage) GetByStableKey(ctx context.Context, stableKey string) (*models.ResearchProperty, error) {
	var results []*models.ResearchProperty
	if err := s.db.Store().Find(&results, badgerhold.Where("StableKey").Eq(stableKey).Limit(1)); err != nil {
		return nil, fmt.Errorf("failed to query property by stable key: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("property with stable key %s: %w", stableKey, interfaces.ErrNotFound)
	}
	return results[0], nil
}

// List returns properties ordered by most recently updated
func (s *PropertyStorage) List(ctx context.Context, limit int) ([]*models.ResearchProperty, error) {
	query := badgerhold.Where("ID").Ne("").SortBy("UpdatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var results []*models.ResearchProperty
	if err := s.db.Store().Find(&results, query); err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	return results, nil
}

// Count returns the total number of research properties
func (s *PropertyStorage) Count(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.ResearchProperty{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count properties: %w", err)
	}
	return int(count), nil
}
