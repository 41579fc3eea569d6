// -----------------------------------------------------------------------
// Storage Interfaces - Persistence contracts for the research core
// -----------------------------------------------------------------------

package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/praedium/internal/models"
)

// Sentinel errors shared by all storage implementations
var (
	// ErrNotFound - the requested record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrPropertyBusy - another job already holds the property claim
	ErrPropertyBusy = errors.New("another job is in progress for this property")
)

// PropertyStorage - interface for research property persistence
type PropertyStorage interface {
	Upsert(ctx context.Context, property *models.ResearchProperty) error
	GetByID(ctx context.Context, id string) (*models.ResearchProperty, error)
	GetByStableKey(ctx context.Context, stableKey string) (*models.ResearchProperty, error)
	List(ctx context.Context, limit int) ([]*models.ResearchProperty, error)
	Count(ctx context.Context) (int, error)
}

// JobStorage - interface for research job persistence
type JobStorage interface {
	Save(ctx context.Context, job *models.ResearchJob) error
	GetByID(ctx context.Context, id string) (*models.ResearchJob, error)
	ListByProperty(ctx context.Context, propertyID string) ([]*models.ResearchJob, error)
	LatestCompletedForProperty(ctx context.Context, propertyID string) (*models.ResearchJob, error)

	// Claim transitions a pending job to in_progress, guaranteeing at most
	// one in_progress job per property. Returns the claimed job, or an
	// error when another job holds the property.
	Claim(ctx context.Context, jobID string) (*models.ResearchJob, error)

	Count(ctx context.Context) (int, error)
}

// EvidenceStorage - interface for content-addressed evidence persistence
type EvidenceStorage interface {
	// PersistBatch commits a worker's evidence batch atomically. Records
	// whose hash already exists are replaced in place: the stored ID and
	// insertion sequence are preserved while job binding, confidence,
	// excerpt and captured_at are overwritten.
	PersistBatch(ctx context.Context, items []*models.EvidenceItem) error

	GetByHash(ctx context.Context, hash string) (*models.EvidenceItem, error)
	ListByJob(ctx context.Context, jobID string) ([]*models.EvidenceItem, error)
	ListByProperty(ctx context.Context, propertyID string) ([]*models.EvidenceItem, error)
	CountByJob(ctx context.Context, jobID string) (int, error)
}

// CompStorage - interface for comparable persistence. Replace operations
// are the only write path: each worker run rewrites its job's rows.
type CompStorage interface {
	ReplaceSalesForJob(ctx context.Context, jobID string, comps []*models.CompSale) error
	ReplaceRentalsForJob(ctx context.Context, jobID string, comps []*models.CompRental) error
	ListSalesByJob(ctx context.Context, jobID string) ([]*models.CompSale, error)
	ListRentalsByJob(ctx context.Context, jobID string) ([]*models.CompRental, error)
}

// ValuationStorage - interface for underwriting, risk and dossier rows.
// One row per job for each; replaced on rerun.
type ValuationStorage interface {
	ReplaceUnderwriting(ctx context.Context, u *models.Underwriting) error
	GetUnderwriting(ctx context.Context, jobID string) (*models.Underwriting, error)

	ReplaceRiskScore(ctx context.Context, r *models.RiskScore) error
	GetRiskScore(ctx context.Context, jobID string) (*models.RiskScore, error)

	ReplaceDossier(ctx context.Context, d *models.Dossier) error
	GetDossier(ctx context.Context, jobID string) (*models.Dossier, error)
}

// WorkerRunStorage - interface for worker telemetry rows
type WorkerRunStorage interface {
	Save(ctx context.Context, run *models.WorkerRun) error
	ListByJob(ctx context.Context, jobID string) ([]*models.WorkerRun, error)
	CountByJob(ctx context.Context, jobID string) (int, error)
}

// CRMStorage - interface for internal CRM records
type CRMStorage interface {
	SaveProperty(ctx context.Context, property *models.CRMProperty) error
	GetProperty(ctx context.Context, id string) (*models.CRMProperty, error)

	// ListCandidates returns CRM properties filtered by state and city.
	// Empty filter values match everything; limit caps the scan.
	ListCandidates(ctx context.Context, state, city string, limit int) ([]*models.CRMProperty, error)

	SaveSkipTrace(ctx context.Context, record *models.SkipTraceRecord) error
	LatestSkipTrace(ctx context.Context, crmPropertyID string) (*models.SkipTraceRecord, error)

	SaveZillow(ctx context.Context, record *models.ZillowRecord) error
	LatestZillow(ctx context.Context, crmPropertyID string) (*models.ZillowRecord, error)

	CountProperties(ctx context.Context) (int, error)
}

// StorageManager - composite interface for all storage operations
type StorageManager interface {
	Properties() PropertyStorage
	Jobs() JobStorage
	Evidence() EvidenceStorage
	Comps() CompStorage
	Valuations() ValuationStorage
	WorkerRuns() WorkerRunStorage
	CRM() CRMStorage
	DB() interface{}
	Close() error
}
