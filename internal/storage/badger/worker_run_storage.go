package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/praedium/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// WorkerRunStorage handles worker telemetry persistence using BadgerDB
type WorkerRunStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewWorkerRunStorage creates a new worker run storage instance
func NewWorkerRunStorage(db *BadgerDB, logger arbor.ILogger) *WorkerRunStorage {
	return &WorkerRunStorage{
		db:     db,
		logger: logger,
	}
}

// Save persists a worker run record, allocating its insertion sequence on
// first write
func (s *WorkerRunStorage) Save(ctx context.Context, run *models.WorkerRun) error {
	if run == nil {
		return fmt.Errorf("worker run is nil")
	}
	if run.ID == "" || run.JobID == "" {
		return fmt.Errorf("worker run requires id and job id")
	}

	if run.Seq == 0 {
		seq, err := s.db.NextRunSeq()
		if err != nil {
			return fmt.Errorf("failed to allocate run sequence: %w", err)
		}
		run.Seq = seq
	}

	if err := s.db.Store().Upsert(run.ID, run); err != nil {
		return fmt.Errorf("failed to save worker run: %w", err)
	}

	s.logger.Debug().
		Str("run_id", run.ID).
		Str("worker", run.WorkerName).
		Str("status", string(run.Status)).
		Msg("Worker run saved")

	return nil
}

// ListByJob returns worker runs for a job in execution order
func (s *WorkerRunStorage) ListByJob(ctx context.Context, jobID string) ([]*models.WorkerRun, error) {
	var runs []*models.WorkerRun
	query := badgerhold.Where("JobID").Eq(jobID).SortBy("Seq")
	if err := s.db.Store().Find(&runs, query); err != nil {
		return nil, fmt.Errorf("failed to list worker runs: %w", err)
	}
	return runs, nil
}

// CountByJob returns the number of runs recorded for a job
func (s *WorkerRunStorage) CountByJob(ctx context.Context, jobID string) (int, error) {
	count, err := s.db.Store().Count(&models.WorkerRun{}, badgerhold.Where("JobID").Eq(jobID))
	if err != nil {
		return 0, fmt.Errorf("failed to count worker runs: %w", err)
	}
	return int(count), nil
}
