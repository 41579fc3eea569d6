package badger

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/praedium/internal/interfaces"
	"github.com/ternarybob/praedium/internal/models"
	"github.com/timshannon/badgerhold/v4"

	badgerdb "github.com/dgraph-io/badger/v4"
)

// EvidenceStorage handles content-addressed evidence persistence using BadgerDB
type EvidenceStorage struct {
	db     *BadgerDB
	logger arbor.ILogger

	// Serializes batch writes so concurrent workers cannot race on the
	// same content hash
	mu sync.Mutex
}

// NewEvidenceStorage creates a new evidence storage instance
func NewEvidenceStorage(db *BadgerDB, logger arbor.ILogger) *EvidenceStorage {
	return &EvidenceStorage{
		db:     db,
		logger: logger,
	}
}

// PersistBatch writes a batch of evidence items in a single transaction.
// Items whose hash already exists are rewritten in place: the stored ID and
// insertion sequence are kept, everything else is taken from the new item.
// The passed items are mutated so callers see the canonical ID after dedupe.
func (s *EvidenceStorage) PersistBatch(ctx context.Context, items []*models.EvidenceItem) error {
	if len(items) == 0 {
		return nil
	}

	for _, item := range items {
		if err := item.Validate(); err != nil {
			return fmt.Errorf("invalid evidence item: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	reused := 0

	err := s.db.Store().Badger().Update(func(txn *badgerdb.Txn) error {
		for _, item := range items {
			var existing []*models.EvidenceItem
			query := badgerhold.Where("Hash").Eq(item.Hash).Limit(1)
			if err := s.db.Store().TxFind(txn, &existing, query); err != nil {
				return fmt.Errorf("failed to query evidence by hash: %w", err)
			}

			if len(existing) > 0 {
				item.ID = existing[0].ID
				item.Seq = existing[0].Seq
				if err := s.db.Store().TxUpdate(txn, item.ID, item); err != nil {
					return fmt.Errorf("failed to rebind evidence %s: %w", item.ID, err)
				}
				reused++
				continue
			}

			seq, err := s.db.NextEvidenceSeq()
			if err != nil {
				return fmt.Errorf("failed to allocate evidence sequence: %w", err)
			}
			item.Seq = seq
			if err := s.db.Store().TxInsert(txn, item.ID, item); err != nil {
				return fmt.Errorf("failed to insert evidence %s: %w", item.ID, err)
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug().
		Int("inserted", inserted).
		Int("reused", reused).
		Msg("Evidence batch persisted")

	return nil
}

// GetByHash retrieves an evidence item by its content hash
func (s *EvidenceStorage) GetByHash(ctx context.Context, hash string) (*models.EvidenceItem, error) {
	var results []*models.EvidenceItem
	if err := s.db.Store().Find(&results, badgerhold.Where("Hash").Eq(hash).Limit(1)); err != nil {
		return nil, fmt.Errorf("failed to query evidence by hash: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("evidence with hash %s: %w", hash, interfaces.ErrNotFound)
	}
	return results[0], nil
}

// ListByJob returns all evidence for a job in insertion order
func (s *EvidenceStorage) ListByJob(ctx context.Context, jobID string) ([]*models.EvidenceItem, error) {
	var items []*models.EvidenceItem
	query := badgerhold.Where("JobID").Eq(jobID).SortBy("Seq")
	if err := s.db.Store().Find(&items, query); err != nil {
		return nil, fmt.Errorf("failed to list evidence for job: %w", err)
	}
	return items, nil
}

// ListByProperty returns all evidence for a property in insertion order
func (s *EvidenceStorage) ListByProperty(ctx context.Context, propertyID string) ([]*models.EvidenceItem, error) {
	var items []*models.EvidenceItem
	query := badgerhold.Where("ResearchPropertyID").Eq(propertyID).SortBy("Seq")
	if err := s.db.Store().Find(&items, query); err != nil {
		return nil, fmt.Errorf("failed to list evidence for property: %w", err)
	}
	return items, nil
}

// CountByJob returns the number of evidence items bound to a job
func (s *EvidenceStorage) CountByJob(ctx context.Context, jobID string) (int, error) {
	count, err := s.db.Store().Count(&models.EvidenceItem{}, badgerhold.Where("JobID").Eq(jobID))
	if err != nil {
		return 0, fmt.Errorf("failed to count evidence: %w", err)
	}
	return int(count), nil
}
