// -----------------------------------------------------------------------
// Job Context - Per-job state shared across workers in one execution
// -----------------------------------------------------------------------

package pipeline

import (
	"sync"

	"github.com/ternarybob/praedium/internal/models"
)

// JobContext carries the job, its property and the shared context map
// through one pipeline execution. Workers read freely; only the runner
// writes, after a worker completes, so siblings in a batch never race
// on publishes they depend on.
type JobContext struct {
	Job         *models.ResearchJob
	Property    *models.ResearchProperty
	Assumptions *models.Assumptions

	mu       sync.RWMutex
	shared   map[string]map[string]interface{}
	webCalls int
}

// NewJobContext creates the execution context for one job run
func NewJobContext(job *models.ResearchJob, property *models.ResearchProperty, assumptions *models.Assumptions) *JobContext {
	return &JobContext{
		Job:         job,
		Property:    property,
		Assumptions: assumptions,
		shared:      make(map[string]map[string]interface{}),
	}
}

// Shared returns the published data of an upstream worker, or nil when
// that worker has not completed.
func (jc *JobContext) Shared(name string) map[string]interface{} {
	jc.mu.RLock()
	defer jc.mu.RUnlock()
	return jc.shared[name]
}

// SharedAll returns a snapshot of every published payload keyed by
// worker name.
func (jc *JobContext) SharedAll() map[string]map[string]interface{} {
	jc.mu.RLock()
	defer jc.mu.RUnlock()

	out := make(map[string]map[string]interface{}, len(jc.shared))
	for name, data := range jc.shared {
		out[name] = data
	}
	return out
}

// Profile returns the property profile published by the geocode worker,
// or nil before it has run.
func (jc *JobContext) Profile() *models.PropertyProfile {
	data := jc.Shared(WorkerNormalizeGeocode)
	if data == nil {
		return nil
	}
	profile, _ := data["property_profile"].(*models.PropertyProfile)
	return profile
}

// CRMPropertyID returns the matched CRM property id published by the
// geocode worker, or empty when no match was found.
func (jc *JobContext) CRMPropertyID() string {
	data := jc.Shared(WorkerNormalizeGeocode)
	if data == nil {
		return ""
	}
	id, _ := data["crm_property_id"].(string)
	return id
}

// WebCallTotal returns the cumulative web calls across completed workers
func (jc *JobContext) WebCallTotal() int {
	jc.mu.RLock()
	defer jc.mu.RUnlock()
	return jc.webCalls
}

// publish merges a completed worker's data under its name and adds its
// web calls to the job total. Runner-only.
func (jc *JobContext) publish(name string, data map[string]interface{}, webCalls int) {
	jc.mu.Lock()
	defer jc.mu.Unlock()
	if data != nil {
		jc.shared[name] = data
	}
	jc.webCalls += webCalls
}
