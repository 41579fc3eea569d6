package badger

import (
	"context"
	"errors"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
)

const defaultGCInterval = 5 * time.Minute

// RunGC runs the Badger value log garbage collector on an interval until the
// context is cancelled. Intended to be started once from the serve loop.
func (m *Manager) RunGC(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultGCInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.logger.Debug().Str("interval", interval.String()).Msg("Badger GC loop started")

	for {
		select {
		case <-ctx.Done():
			m.logger.Debug().Msg("Badger GC loop stopped")
			return
		case <-ticker.C:
			m.collectValueLog()
		}
	}
}

// collectValueLog reclaims value log space until badger reports nothing left
// to rewrite
func (m *Manager) collectValueLog() {
	for {
		err := m.db.Store().Badger().RunValueLogGC(0.5)
		if err != nil {
			if !errors.Is(err, badgerdb.ErrNoRewrite) {
				m.logger.Warn().Err(err).Msg("Badger value log GC failed")
			}
			return
		}
	}
}
