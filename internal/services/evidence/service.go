package evidence

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/praedium/internal/common"
	"github.com/ternarybob/praedium/internal/interfaces"
	"github.com/ternarybob/praedium/internal/models"
	"github.com/ternarybob/praedium/internal/services/address"
)

// defaultConfidence applies when a draft leaves confidence unset
const defaultConfidence = 0.5

// Service turns worker evidence drafts into content-addressed items and
// persists them through the evidence storage
type Service struct {
	storage interfaces.EvidenceStorage
	logger  arbor.ILogger
}

// NewService creates a new evidence service instance
func NewService(storage interfaces.EvidenceStorage, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// BuildItem converts a draft into a full evidence item bound to a job and
// property. The content hash is derived from the draft's identity fields.
func (s *Service) BuildItem(jobID, propertyID string, draft models.EvidenceDraft) *models.EvidenceItem {
	confidence := draft.Confidence
	if confidence == 0 {
		confidence = defaultConfidence
	}

	return &models.EvidenceItem{
		ID:                 common.NewEvidenceID(),
		JobID:              jobID,
		ResearchPropertyID: propertyID,
		Category:           draft.Category,
		Claim:              draft.Claim,
		SourceURL:          draft.SourceURL,
		CapturedAt:         time.Now().UTC(),
		RawExcerpt:         draft.RawExcerpt,
		Confidence:         confidence,
		Hash:               address.EvidenceHash(draft.Category, draft.Claim, draft.SourceURL, draft.RawExcerpt),
	}
}

// PersistDrafts converts and stores a worker's draft batch atomically.
// Returns the persisted items with their canonical IDs after dedupe.
func (s *Service) PersistDrafts(ctx context.Context, jobID, propertyID string, drafts []models.EvidenceDraft) ([]*models.EvidenceItem, error) {
	if len(drafts) == 0 {
		return nil, nil
	}

	items := make([]*models.EvidenceItem, 0, len(drafts))
	for _, draft := range drafts {
		items = append(items, s.BuildItem(jobID, propertyID, draft))
	}

	if err := s.storage.PersistBatch(ctx, items); err != nil {
		return nil, fmt.Errorf("failed to persist evidence drafts: %w", err)
	}

	s.logger.Debug().
		Str("job_id", jobID).
		Int("count", len(items)).
		Msg("Evidence drafts persisted")

	return items, nil
}

// ListByJob returns a job's evidence trail in insertion order
func (s *Service) ListByJob(ctx context.Context, jobID string) ([]*models.EvidenceItem, error) {
	return s.storage.ListByJob(ctx, jobID)
}
