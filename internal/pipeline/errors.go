// -----------------------------------------------------------------------
// Pipeline Errors - Job-fatal error kinds raised by the supervisor
// -----------------------------------------------------------------------

package pipeline

import "errors"

// Job-fatal errors. Worker-scoped failures (timeout, panic, degraded
// adapter) never surface here; they are recorded on the WorkerRun and
// the pipeline continues.
var (
	// ErrInputInvalid - malformed research input, raised synchronously
	ErrInputInvalid = errors.New("input invalid")

	// ErrEnrichmentGateFailed - enrichment required but missing or stale
	ErrEnrichmentGateFailed = errors.New("enrichment gate failed")

	// ErrBudgetExceeded - cumulative web calls surpassed max_web_calls
	ErrBudgetExceeded = errors.New("web call budget exceeded")

	// ErrUnresolvedDependencies - worker graph has a cycle or missing prereq
	ErrUnresolvedDependencies = errors.New("unresolved worker dependencies")
)
