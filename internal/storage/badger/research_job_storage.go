package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/praedium/internal/interfaces"
	"github.com/ternarybob/praedium/internal/models"
	"github.com/timshannon/badgerhold/v4"

	badgerdb "github.com/dgraph-io/badger/v4"
)

// JobStorage handles research job persistence using BadgerDB
type JobStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewJobStorage creates a new job storage instance
func NewJobStorage(db *BadgerDB, logger arbor.ILogger) *JobStorage {
	return &JobStorage{
		db:     db,
		logger: logger,
	}
}

// Save persists a research job
func (s *JobStorage) Save(ctx context.Context, job *models.ResearchJob) error {
	if job == nil {
		return fmt.Errorf("job is nil")
	}
	if err := job.Validate(); err != nil {
		return fmt.Errorf("invalid job: %w", err)
	}

	if err := s.db.Store().Upsert(job.ID, job); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}

	s.logger.Debug().
		Str("job_id", job.ID).
		Str("status", string(job.Status)).
		Msg("Job saved")

	return nil
}

// GetByID retrieves a research job by its ID
func (s *JobStorage) GetByID(ctx context.Context, id string) (*models.ResearchJob, error) {
	var job models.ResearchJob
	if err := s.db.Store().Get(id, &job); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("job %s: %w", id, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// ListByProperty returns all jobs for a property, newest first
func (s *JobStorage) ListByProperty(ctx context.Context, propertyID string) ([]*models.ResearchJob, error) {
	var jobs []*models.ResearchJob
	query := badgerhold.Where("ResearchPropertyID").Eq(propertyID).SortBy("CreatedAt").Reverse()
	if err := s.db.Store().Find(&jobs, query); err != nil {
		return nil, fmt.Errorf("failed to list jobs for property: %w", err)
	}
	return jobs, nil
}

// LatestCompletedForProperty returns the most recent completed job for a
// property
func (s *JobStorage) LatestCompletedForProperty(ctx context.Context, propertyID string) (*models.ResearchJob, error) {
	var jobs []*models.ResearchJob
	query := badgerhold.Where("ResearchPropertyID").Eq(propertyID).
		And("Status").Eq(models.JobStatusCompleted).
		SortBy("CreatedAt").Reverse().Limit(1)
	if err := s.db.Store().Find(&jobs, query); err != nil {
		return nil, fmt.Errorf("failed to query completed jobs: %w", err)
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("no completed job for property %s: %w", propertyID, interfaces.ErrNotFound)
	}
	return jobs[0], nil
}

// Claim transitions a pending job to in_progress. The transition is performed
// inside a single transaction so no two jobs can run against the same
// property at once.
func (s *JobStorage) Claim(ctx context.Context, jobID string) (*models.ResearchJob, error) {
	var claimed *models.ResearchJob

	err := s.db.Store().Badger().Update(func(txn *badgerdb.Txn) error {
		var job models.ResearchJob
		if err := s.db.Store().TxGet(txn, jobID, &job); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				return fmt.Errorf("job %s: %w", jobID, interfaces.ErrNotFound)
			}
			return fmt.Errorf("failed to get job: %w", err)
		}

		if job.Status != models.JobStatusPending {
			return fmt.Errorf("job %s is not pending (status: %s)", jobID, job.Status)
		}

		var running []*models.ResearchJob
		query := badgerhold.Where("ResearchPropertyID").Eq(job.ResearchPropertyID).
			And("Status").Eq(models.JobStatusInProgress)
		if err := s.db.Store().TxFind(txn, &running, query); err != nil {
			return fmt.Errorf("failed to query running jobs: %w", err)
		}
		if len(running) > 0 {
			return fmt.Errorf("property %s: %w", job.ResearchPropertyID, interfaces.ErrPropertyBusy)
		}

		job.MarkStarted()
		if err := s.db.Store().TxUpdate(txn, jobID, &job); err != nil {
			return fmt.Errorf("failed to claim job: %w", err)
		}

		claimed = &job
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("job_id", claimed.ID).
		Str("property_id", claimed.ResearchPropertyID).
		Msg("Job claimed")

	return claimed, nil
}

// Count returns the total number of research jobs
func (s *JobStorage) Count(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.ResearchJob{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return int(count), nil
}
