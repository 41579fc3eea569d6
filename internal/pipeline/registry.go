// -----------------------------------------------------------------------
// Worker Registry - Name-keyed lookup of registered workers
// -----------------------------------------------------------------------

package pipeline

import (
	"fmt"

	"github.com/ternarybob/arbor"
)

// Registry maps worker names to implementations. A worker registered
// under an existing name replaces it.
type Registry struct {
	workers map[string]Worker
	logger  arbor.ILogger
}

// NewRegistry creates an empty worker registry
func NewRegistry(logger arbor.ILogger) *Registry {
	return &Registry{
		workers: make(map[string]Worker),
		logger:  logger,
	}
}

// Register adds a worker under its declared name
func (r *Registry) Register(worker Worker) {
	if worker == nil {
		return
	}
	r.workers[worker.Name()] = worker
	r.logger.Debug().Str("worker", worker.Name()).Msg("Registered worker")
}

// Get returns the worker for a name, or an error when none is registered
func (r *Registry) Get(name string) (Worker, error) {
	worker, exists := r.workers[name]
	if !exists {
		return nil, fmt.Errorf("no worker registered for name: %s", name)
	}
	return worker, nil
}

// Has reports whether a worker is registered for the name
func (r *Registry) Has(name string) bool {
	_, exists := r.workers[name]
	return exists
}
