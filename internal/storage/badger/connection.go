package badger

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/praedium/internal/common"
	"github.com/timshannon/badgerhold/v4"

	badgerdb "github.com/dgraph-io/badger/v4"
)

// Sequence key prefixes for insertion-ordered records
const (
	evidenceSeqKey  = "seq:evidence"
	workerRunSeqKey = "seq:worker_run"
	seqBandwidth    = 64
)

// BadgerDB manages the Badger database connection
type BadgerDB struct {
	store       *badgerhold.Store
	logger      arbor.ILogger
	config      *common.BadgerConfig
	evidenceSeq *badgerdb.Sequence
	runSeq      *badgerdb.Sequence
}

// NewBadgerDB creates a new Badger database connection
func NewBadgerDB(logger arbor.ILogger, config *common.BadgerConfig) (*BadgerDB, error) {
	// If reset_on_startup is enabled, delete the existing database
	if config.ResetOnStartup {
		if _, err := os.Stat(config.Path); err == nil {
			logger.Debug().Str("path", config.Path).Msg("Deleting existing database (reset_on_startup=true)")
			if err := os.RemoveAll(config.Path); err != nil {
				logger.Warn().Err(err).Str("path", config.Path).Msg("Failed to delete database directory")
			}
		}
	}

	// Ensure the directory exists
	dir := filepath.Dir(config.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	logger.Debug().Str("path", config.Path).Msg("Opening Badger database connection")

	options := badgerhold.DefaultOptions
	options.Dir = config.Path
	options.ValueDir = config.Path
	options.Logger = nil // Disable default badger logger to use arbor

	store, err := badgerhold.Open(options)
	if err != nil {
		logger.Fatal().Err(err).Str("path", config.Path).Msg("BadgerDB: Failed to open database")
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	// Badger sequences back the insertion ordering of evidence and worker runs
	evidenceSeq, err := store.Badger().GetSequence([]byte(evidenceSeqKey), seqBandwidth)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to open evidence sequence: %w", err)
	}

	runSeq, err := store.Badger().GetSequence([]byte(workerRunSeqKey), seqBandwidth)
	if err != nil {
		evidenceSeq.Release()
		store.Close()
		return nil, fmt.Errorf("failed to open worker run sequence: %w", err)
	}

	logger.Debug().Str("path", config.Path).Msg("Badger database initialized")

	return &BadgerDB{
		store:       store,
		logger:      logger,
		config:      config,
		evidenceSeq: evidenceSeq,
		runSeq:      runSeq,
	}, nil
}

// Store returns the underlying badgerhold store
func (b *BadgerDB) Store() *badgerhold.Store {
	return b.store
}

// NextEvidenceSeq returns the next evidence insertion sequence number.
// Numbers start at 1 so zero always means unassigned.
func (b *BadgerDB) NextEvidenceSeq() (uint64, error) {
	n, err := b.evidenceSeq.Next()
	if err != nil {
		return 0, err
	}
	return n + 1, nil
}

// NextRunSeq returns the next worker run insertion sequence number.
// Numbers start at 1 so zero always means unassigned.
func (b *BadgerDB) NextRunSeq() (uint64, error) {
	n, err := b.runSeq.Next()
	if err != nil {
		return 0, err
	}
	return n + 1, nil
}

// Close closes the database connection
func (b *BadgerDB) Close() error {
	if b.store == nil {
		return nil
	}
	if b.evidenceSeq != nil {
		if err := b.evidenceSeq.Release(); err != nil {
			b.logger.Warn().Err(err).Msg("Failed to release evidence sequence")
		}
	}
	if b.runSeq != nil {
		if err := b.runSeq.Release(); err != nil {
			b.logger.Warn().Err(err).Msg("Failed to release worker run sequence")
		}
	}
	return b.store.Close()
}
