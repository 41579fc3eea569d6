package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/praedium/internal/models"
	"github.com/timshannon/badgerhold/v4"

	badgerdb "github.com/dgraph-io/badger/v4"
)

// CompStorage handles comparable persistence using BadgerDB
type CompStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCompStorage creates a new comp storage instance
func NewCompStorage(db *BadgerDB, logger arbor.ILogger) *CompStorage {
	return &CompStorage{
		db:     db,
		logger: logger,
	}
}

// ReplaceSalesForJob deletes all sale comps for a job and writes the new
// ranked set in one transaction
func (s *CompStorage) ReplaceSalesForJob(ctx context.Context, jobID string, comps []*models.CompSale) error {
	err := s.db.Store().Badger().Update(func(txn *badgerdb.Txn) error {
		query := badgerhold.Where("JobID").Eq(jobID)
		if err := s.db.Store().TxDeleteMatching(txn, &models.CompSale{}, query); err != nil {
			return fmt.Errorf("failed to delete sale comps: %w", err)
		}
		for i, comp := range comps {
			comp.JobID = jobID
			comp.Rank = i
			if err := s.db.Store().TxInsert(txn, comp.ID, comp); err != nil {
				return fmt.Errorf("failed to insert sale comp %s: %w", comp.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug().Str("job_id", jobID).Int("count", len(comps)).Msg("Sale comps replaced")
	return nil
}

// ReplaceRentalsForJob deletes all rental comps for a job and writes the new
// ranked set in one transaction
func (s *CompStorage) ReplaceRentalsForJob(ctx context.Context, jobID string, comps []*models.CompRental) error {
	err := s.db.Store().Badger().Update(func(txn *badgerdb.Txn) error {
		query := badgerhold.Where("JobID").Eq(jobID)
		if err := s.db.Store().TxDeleteMatching(txn, &models.CompRental{}, query); err != nil {
			return fmt.Errorf("failed to delete rental comps: %w", err)
		}
		for i, comp := range comps {
			comp.JobID = jobID
			comp.Rank = i
			if err := s.db.Store().TxInsert(txn, comp.ID, comp); err != nil {
				return fmt.Errorf("failed to insert rental comp %s: %w", comp.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug().Str("job_id", jobID).Int("count", len(comps)).Msg("Rental comps replaced")
	return nil
}

// ListSalesByJob returns sale comps for a job in ranked order
func (s *CompStorage) ListSalesByJob(ctx context.Context, jobID string) ([]*models.CompSale, error) {
	var comps []*models.CompSale
	query := badgerhold.Where("JobID").Eq(jobID).SortBy("Rank")
	if err := s.db.Store().Find(&comps, query); err != nil {
		return nil, fmt.Errorf("failed to list sale comps: %w", err)
	}
	return comps, nil
}

// ListRentalsByJob returns rental comps for a job in ranked order
func (s *CompStorage) ListRentalsByJob(ctx context.Context, jobID string) ([]*models.CompRental, error) {
	var comps []*models.CompRental
	query := badgerhold.Where("JobID").Eq(jobID).SortBy("Rank")
	if err := s.db.Store().Find(&comps, query); err != nil {
		return nil, fmt.Errorf("failed to list rental comps: %w", err)
	}
	return comps, nil
}
