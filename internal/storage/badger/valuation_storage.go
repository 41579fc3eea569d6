package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/praedium/internal/interfaces"
	"github.com/ternarybob/praedium/internal/models"
	"github.com/timshannon/badgerhold/v4"

	badgerdb "github.com/dgraph-io/badger/v4"
)

// ValuationStorage handles underwriting, risk score and dossier rows using
// BadgerDB. Each type keeps at most one row per job.
type ValuationStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewValuationStorage creates a new valuation storage instance
func NewValuationStorage(db *BadgerDB, logger arbor.ILogger) *ValuationStorage {
	return &ValuationStorage{
		db:     db,
		logger: logger,
	}
}

// ReplaceUnderwriting removes any existing underwriting row for the job and
// writes the new one
func (s *ValuationStorage) ReplaceUnderwriting(ctx context.Context, u *models.Underwriting) error {
	if u == nil || u.JobID == "" {
		return fmt.Errorf("underwriting row requires a job id")
	}

	err := s.db.Store().Badger().Update(func(txn *badgerdb.Txn) error {
		query := badgerhold.Where("JobID").Eq(u.JobID)
		if err := s.db.Store().TxDeleteMatching(txn, &models.Underwriting{}, query); err != nil {
			return fmt.Errorf("failed to delete underwriting: %w", err)
		}
		if err := s.db.Store().TxInsert(txn, u.ID, u); err != nil {
			return fmt.Errorf("failed to insert underwriting: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug().Str("job_id", u.JobID).Msg("Underwriting replaced")
	return nil
}

// GetUnderwriting retrieves the underwriting row for a job
func (s *ValuationStorage) GetUnderwriting(ctx context.Context, jobID string) (*models.Underwriting, error) {
	var results []*models.Underwriting
	if err := s.db.Store().Find(&results, badgerhold.Where("JobID").Eq(jobID).Limit(1)); err != nil {
		return nil, fmt.Errorf("failed to query underwriting: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("underwriting for job %s: %w", jobID, interfaces.ErrNotFound)
	}
	return results[0], nil
}

// ReplaceRiskScore removes any existing risk score row for the job and
// writes the new one
func (s *ValuationStorage) ReplaceRiskScore(ctx context.Context, r *models.RiskScore) error {
	if r == nil || r.JobID == "" {
		return fmt.Errorf("risk score row requires a job id")
	}

	err := s.db.Store().Badger().Update(func(txn *badgerdb.Txn) error {
		query := badgerhold.Where("JobID").Eq(r.JobID)
		if err := s.db.Store().TxDeleteMatching(txn, &models.RiskScore{}, query); err != nil {
			return fmt.Errorf("failed to delete risk score: %w", err)
		}
		if err := s.db.Store().TxInsert(txn, r.ID, r); err != nil {
			return fmt.Errorf("failed to insert risk score: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug().Str("job_id", r.JobID).Msg("Risk score replaced")
	return nil
}

// GetRiskScore retrieves the risk score row for a job
func (s *ValuationStorage) GetRiskScore(ctx context.Context, jobID string) (*models.RiskScore, error) {
	var results []*models.RiskScore
	if err := s.db.Store().Find(&results, badgerhold.Where("JobID").Eq(jobID).Limit(1)); err != nil {
		return nil, fmt.Errorf("failed to query risk score: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("risk score for job %s: %w", jobID, interfaces.ErrNotFound)
	}
	return results[0], nil
}

// ReplaceDossier removes any existing dossier row for the job and writes the
// new one
func (s *ValuationStorage) ReplaceDossier(ctx context.Context, d *models.Dossier) error {
	if d == nil || d.JobID == "" {
		return fmt.Errorf("dossier row requires a job id")
	}

	err := s.db.Store().Badger().Update(func(txn *badgerdb.Txn) error {
		query := badgerhold.Where("JobID").Eq(d.JobID)
		if err := s.db.Store().TxDeleteMatching(txn, &models.Dossier{}, query); err != nil {
			return fmt.Errorf("failed to delete dossier: %w", err)
		}
		if err := s.db.Store().TxInsert(txn, d.ID, d); err != nil {
			return fmt.Errorf("failed to insert dossier: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug().Str("job_id", d.JobID).Msg("Dossier replaced")
	return nil
}

// GetDossier retrieves the dossier row for a job
func (s *ValuationStorage) GetDossier(ctx context.Context, jobID string) (*models.Dossier, error) {
	var results []*models.Dossier
	if err := s.db.Store().Find(&results, badgerhold.Where("JobID").Eq(jobID).Limit(1)); err != nil {
		return nil, fmt.Errorf("failed to query dossier: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("dossier for job %s: %w", jobID, interfaces.ErrNotFound)
	}
	return results[0], nil
}
