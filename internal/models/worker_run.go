// -----------------------------------------------------------------------
// Worker Run - Per-job, per-worker execution telemetry
// -----------------------------------------------------------------------

package models

import (
	"encoding/json"
	"time"
)

// WorkerRunStatus is the terminal status of one worker execution
type WorkerRunStatus string

const (
	// WorkerRunSuccess completed with no errors
	WorkerRunSuccess WorkerRunStatus = "success"
	// WorkerRunPartial completed but reported non-fatal errors
	WorkerRunPartial WorkerRunStatus = "partial"
	// WorkerRunFailed timed out or panicked
	WorkerRunFailed WorkerRunStatus = "failed"
)

// Unknown is a data gap a worker chose to surface rather than guess at
type Unknown struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// WorkerRun records one worker execution within a job. A row is written
// for every execution regardless of outcome; the set of rows for a job is
// its execution audit trail.
type WorkerRun struct {
	ID         string          `json:"id"`
	Seq        uint64          `json:"-" badgerhold:"index"` // insertion order across the store
	JobID      string          `json:"job_id" badgerhold:"index"`
	WorkerName string          `json:"worker_name"`
	Status     WorkerRunStatus `json:"status"`
	RuntimeMs  int64           `json:"runtime_ms"`
	CostUSD    float64         `json:"cost_usd"`
	WebCalls   int             `json:"web_calls"`
	Data       json.RawMessage `json:"data,omitempty"` // worker payload, JSON-encoded
	Unknowns   []Unknown       `json:"unknowns"`
	Errors     []string        `json:"errors"`
	StartedAt  time.Time       `json:"started_at"`
}

// Summary reduces the run to the envelope view (payload omitted)
func (r *WorkerRun) Summary() WorkerRunSummary {
	unknowns := r.Unknowns
	if unknowns == nil {
		unknowns = []Unknown{}
	}
	errors := r.Errors
	if errors == nil {
		errors = []string{}
	}
	return WorkerRunSummary{
		WorkerName: r.WorkerName,
		Status:     r.Status,
		RuntimeMs:  r.RuntimeMs,
		CostUSD:    r.CostUSD,
		WebCalls:   r.WebCalls,
		Unknowns:   unknowns,
		Errors:     errors,
	}
}

// WorkerRunSummary is the telemetry view included in the output envelope
type WorkerRunSummary struct {
	WorkerName string          `json:"worker_name"`
	Status     WorkerRunStatus `json:"status"`
	RuntimeMs  int64           `json:"runtime_ms"`
	CostUSD    float64         `json:"cost_usd"`
	WebCalls   int             `json:"web_calls"`
	Unknowns   []Unknown       `json:"unknowns"`
	Errors     []string        `json:"errors"`
}
