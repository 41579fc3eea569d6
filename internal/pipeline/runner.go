// -----------------------------------------------------------------------
// Worker Runner - Execution envelope around a single worker
//
// The runner owns the per-worker timeout, status assignment, telemetry
// row, evidence persistence and shared-context publication. Workers
// never touch any of these themselves.
// -----------------------------------------------------------------------

package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/praedium/internal/common"
	"github.com/ternarybob/praedium/internal/interfaces"
	"github.com/ternarybob/praedium/internal/models"
	"github.com/ternarybob/praedium/internal/services/evidence"
)

// Runner executes workers under the envelope contract
type Runner struct {
	storage  interfaces.StorageManager
	evidence *evidence.Service
	events   interfaces.EventService
	logger   arbor.ILogger
}

// NewRunner creates a worker runner
func NewRunner(storage interfaces.StorageManager, evidenceSvc *evidence.Service, events interfaces.EventService, logger arbor.ILogger) *Runner {
	return &Runner{
		storage:  storage,
		evidence: evidenceSvc,
		events:   events,
		logger:   logger,
	}
}

// workerOutcome carries a worker's return across the timeout boundary
type workerOutcome struct {
	result *Result
	err    error
}

// Execute runs one worker to completion or timeout and always writes a
// WorkerRun row. On success it persists the worker's evidence drafts and
// publishes its data into the shared context.
func (r *Runner) Execute(ctx context.Context, jc *JobContext, worker Worker) *models.WorkerRun {
	timeoutSeconds := jc.Job.Limits.TimeoutSecondsPerStep
	started := time.Now().UTC()

	run := &models.WorkerRun{
		ID:         common.NewRunID(),
		JobID:      jc.Job.ID,
		WorkerName: worker.Name(),
		Unknowns:   []models.Unknown{},
		Errors:     []string{},
		StartedAt:  started,
	}

	r.publishEvent(interfaces.EventWorkerStarted, map[string]interface{}{
		"job_id": jc.Job.ID,
		"worker": worker.Name(),
	})

	runCtx, cancel := context.WithTimeout(ctx, jc.Job.Limits.StepTimeout())
	defer cancel()

	done := make(chan workerOutcome, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- workerOutcome{err: fmt.Errorf("%v", rec)}
			}
		}()
		result, err := worker.Run(runCtx, jc)
		done <- workerOutcome{result: result, err: err}
	}()

	var result *Result
	select {
	case <-runCtx.Done():
		// expiry cancels the worker's in-flight requests through runCtx
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			run.Status = models.WorkerRunFailed
			run.Errors = []string{fmt.Sprintf("Worker timed out after %ds", timeoutSeconds)}
		} else {
			run.Status = models.WorkerRunFailed
			run.Errors = []string{runCtx.Err().Error()}
		}
	case outcome := <-done:
		if outcome.err != nil {
			run.Status = models.WorkerRunFailed
			// a worker returning the expired context's error is still a timeout
			if errors.Is(outcome.err, context.DeadlineExceeded) {
				run.Errors = []string{fmt.Sprintf("Worker timed out after %ds", timeoutSeconds)}
			} else {
				run.Errors = []string{outcome.err.Error()}
			}
			break
		}
		result = outcome.result
		r.fillRun(run, result)
	}

	run.RuntimeMs = time.Since(started).Milliseconds()

	if err := r.storage.WorkerRuns().Save(ctx, run); err != nil {
		r.logger.Error().Err(err).
			Str("job_id", jc.Job.ID).
			Str("worker", worker.Name()).
			Msg("Failed to persist worker run")
	}

	if result != nil {
		if len(result.Evidence) > 0 {
			if _, err := r.evidence.PersistDrafts(ctx, jc.Job.ID, jc.Job.ResearchPropertyID, result.Evidence); err != nil {
				r.logger.Error().Err(err).
					Str("job_id", jc.Job.ID).
					Str("worker", worker.Name()).
					Msg("Failed to persist evidence drafts")
			}
		}
		jc.publish(worker.Name(), result.Data, result.WebCalls)
	}

	r.logger.Info().
		Str("job_id", jc.Job.ID).
		Str("worker", worker.Name()).
		Str("status", string(run.Status)).
		Int64("runtime_ms", run.RuntimeMs).
		Int("web_calls", run.WebCalls).
		Msg("Worker finished")

	r.publishEvent(interfaces.EventWorkerCompleted, map[string]interface{}{
		"job_id": jc.Job.ID,
		"worker": worker.Name(),
		"status": string(run.Status),
	})

	return run
}

// fillRun stamps a completed worker's result onto its telemetry row
func (r *Runner) fillRun(run *models.WorkerRun, result *Result) {
	if result == nil {
		run.Status = models.WorkerRunSuccess
		return
	}

	if len(result.Errors) > 0 {
		run.Status = models.WorkerRunPartial
		run.Errors = result.Errors
	} else {
		run.Status = models.WorkerRunSuccess
	}
	if result.Unknowns != nil {
		run.Unknowns = result.Unknowns
	}
	run.WebCalls = result.WebCalls
	run.CostUSD = result.CostUSD

	if result.Data != nil {
		encoded, err := json.Marshal(result.Data)
		if err != nil {
			r.logger.Warn().Err(err).
				Str("worker", run.WorkerName).
				Msg("Worker data not JSON-encodable, dropping payload")
		} else {
			run.Data = encoded
		}
	}
}

func (r *Runner) publishEvent(eventType interfaces.EventType, payload map[string]interface{}) {
	if r.events == nil {
		return
	}
	_ = r.events.Publish(context.Background(), interfaces.Event{
		Type:    eventType,
		Payload: payload,
	})
}
