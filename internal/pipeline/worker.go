// -----------------------------------------------------------------------
// Worker Contract - One research capability behind a uniform interface
// -----------------------------------------------------------------------

package pipeline

import (
	"context"

	"github.com/ternarybob/praedium/internal/models"
)

// Result is what a worker returns on normal completion. Data must be
// JSON-encodable; the runtime treats it as opaque when persisting.
type Result struct {
	Data     map[string]interface{}
	Unknowns []models.Unknown
	Errors   []string
	Evidence []models.EvidenceDraft
	WebCalls int
	CostUSD  float64
}

// Worker is one unit of research work. Implementations hold their own
// adapters and storage references; the runner supplies the per-job
// context and enforces the execution envelope (timeout, telemetry,
// evidence persistence).
//
// Run returning an error marks the run failed. Non-fatal issues belong
// in Result.Errors, which marks the run partial instead.
type Worker interface {
	Name() string
	Run(ctx context.Context, jc *JobContext) (*Result, error)
}
