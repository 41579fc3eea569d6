package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/praedium/internal/common"
	"github.com/ternarybob/praedium/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db         *BadgerDB
	properties interfaces.PropertyStorage
	jobs       interfaces.JobStorage
	evidence   interfaces.EvidenceStorage
	comps      interfaces.CompStorage
	valuations interfaces.ValuationStorage
	workerRuns interfaces.WorkerRunStorage
	crm        interfaces.CRMStorage
	logger     arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:         db,
		properties: NewPropertyStorage(db, logger),
		jobs:       NewJobStorage(db, logger),
		evidence:   NewEvidenceStorage(db, logger),
		comps:      NewCompStorage(db, logger),
		valuations: NewValuationStorage(db, logger),
		workerRuns: NewWorkerRunStorage(db, logger),
		crm:        NewCRMStorage(db, logger),
		logger:     logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// Properties returns the research property storage interface
func (m *Manager) Properties() interfaces.PropertyStorage {
	return m.properties
}

// Jobs returns the research job storage interface
func (m *Manager) Jobs() interfaces.JobStorage {
	return m.jobs
}

// Evidence returns the evidence storage interface
func (m *Manager) Evidence() interfaces.EvidenceStorage {
	return m.evidence
}

// Comps returns the comparable storage interface
func (m *Manager) Comps() interfaces.CompStorage {
	return m.comps
}

// Valuations returns the valuation storage interface
func (m *Manager) Valuations() interfaces.ValuationStorage {
	return m.valuations
}

// WorkerRuns returns the worker run storage interface
func (m *Manager) WorkerRuns() interfaces.WorkerRunStorage {
	return m.workerRuns
}

// CRM returns the CRM storage interface
func (m *Manager) CRM() interfaces.CRMStorage {
	return m.crm
}

// DB returns the underlying database connection
func (m *Manager) DB() interface{} {
	if m.db != nil {
		return m.db.Store()
	}
	return nil
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
