// -----------------------------------------------------------------------
// Scheduler - Dependency-aware worker dispatch
//
// Two dispatch modes share the same envelope. Pipeline mode walks the
// specs in declared order one worker at a time. Orchestrated mode runs
// readiness-batched waves: every worker whose dependencies have
// completed is eligible, batches preserve declared order, and a barrier
// separates waves. The web-call budget is re-checked at every dispatch
// boundary, so a single worker may overshoot before the overrun is
// detected.
// -----------------------------------------------------------------------

package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/praedium/internal/common"
	"github.com/ternarybob/praedium/internal/interfaces"
	"github.com/ternarybob/praedium/internal/models"
)

// Execution pairs a scheduled worker with its telemetry row
type Execution struct {
	Name string
	Run  *models.WorkerRun
}

// Scheduler dispatches workers through the runner envelope
type Scheduler struct {
	registry *Registry
	runner   *Runner
	storage  interfaces.StorageManager
	logger   arbor.ILogger
}

// NewScheduler creates a scheduler over a worker registry
func NewScheduler(registry *Registry, runner *Runner, storage interfaces.StorageManager, logger arbor.ILogger) *Scheduler {
	return &Scheduler{
		registry: registry,
		runner:   runner,
		storage:  storage,
		logger:   logger,
	}
}

// Run dispatches the given specs in the job's execution mode
func (s *Scheduler) Run(ctx context.Context, jc *JobContext, specs []AgentSpec) ([]Execution, error) {
	if jc.Job.Mode() == models.ExecutionModeOrchestrated {
		return s.runGraph(ctx, jc, specs)
	}
	return s.runSequence(ctx, jc, specs)
}

// runSequence executes specs one at a time in declared order
func (s *Scheduler) runSequence(ctx context.Context, jc *JobContext, specs []AgentSpec) ([]Execution, error) {
	executions := make([]Execution, 0, len(specs))

	for _, spec := range specs {
		if len(executions) >= jc.Job.Limits.MaxSteps {
			break
		}

		worker, err := s.registry.Get(spec.Name)
		if err != nil {
			return executions, err
		}

		s.reportProgress(ctx, jc, spec.Name, len(executions), len(specs))
		run := s.runner.Execute(ctx, jc, worker)
		executions = append(executions, Execution{Name: spec.Name, Run: run})

		if err := s.checkBudget(jc); err != nil {
			return executions, err
		}
	}

	return executions, nil
}

// runGraph executes specs in readiness-batched parallel waves
func (s *Scheduler) runGraph(ctx context.Context, jc *JobContext, specs []AgentSpec) ([]Execution, error) {
	deps := make(map[string][]string, len(specs))
	pending := make([]string, 0, len(specs))
	for _, spec := range specs {
		deps[spec.Name] = spec.Deps
		pending = append(pending, spec.Name)
	}

	completed := make(map[string]bool, len(specs))
	executions := make([]Execution, 0, len(specs))

	maxParallel := jc.Job.Limits.MaxParallelAgents
	if maxParallel < 1 {
		maxParallel = 1
	}

	for len(pending) > 0 && len(executions) < jc.Job.Limits.MaxSteps {
		ready := make([]string, 0, len(pending))
		for _, name := range pending {
			if depsSatisfied(deps[name], completed) {
				ready = append(ready, name)
			}
		}
		if len(ready) == 0 {
			return executions, fmt.Errorf("%w: workers %s can never run", ErrUnresolvedDependencies, strings.Join(pending, ", "))
		}

		batchSize := maxParallel
		if len(ready) < batchSize {
			batchSize = len(ready)
		}
		if remaining := jc.Job.Limits.MaxSteps - len(executions); remaining < batchSize {
			batchSize = remaining
		}
		batch := ready[:batchSize]

		s.reportProgress(ctx, jc, strings.Join(batch, ","), len(executions), len(specs))

		runs := make([]*models.WorkerRun, len(batch))
		var wg sync.WaitGroup
		for i, name := range batch {
			worker, err := s.registry.Get(name)
			if err != nil {
				return executions, err
			}
			wg.Add(1)
			idx, w := i, worker
			common.SafeGo(s.logger, "worker_"+name, func() {
				defer wg.Done()
				runs[idx] = s.runner.Execute(ctx, jc, w)
			})
		}
		wg.Wait()

		for i, name := range batch {
			completed[name] = true
			pending = removeName(pending, name)
			executions = append(executions, Execution{Name: name, Run: runs[i]})
		}

		if err := s.checkBudget(jc); err != nil {
			return executions, err
		}
	}

	return executions, nil
}

// checkBudget fails the job once accumulated web calls exceed the limit
func (s *Scheduler) checkBudget(jc *JobContext) error {
	total := jc.WebCallTotal()
	if total > jc.Job.Limits.MaxWebCalls {
		return fmt.Errorf("%w: exceeded web call limit (%d > %d)", ErrBudgetExceeded, total, jc.Job.Limits.MaxWebCalls)
	}
	return nil
}

// reportProgress stamps the in-flight step onto the job row
func (s *Scheduler) reportProgress(ctx context.Context, jc *JobContext, step string, done, total int) {
	if total <= 0 {
		return
	}
	progress := done * 100 / total
	if progress > 99 {
		progress = 99
	}
	jc.Job.UpdateStep(step, progress)
	if err := s.storage.Jobs().Save(ctx, jc.Job); err != nil {
		s.logger.Warn().Err(err).Str("job_id", jc.Job.ID).Msg("Failed to save job progress")
	}
}

func depsSatisfied(deps []string, completed map[string]bool) bool {
	for _, dep := range deps {
		if !completed[dep] {
			return false
		}
	}
	return true
}

func removeName(names []string, target string) []string {
	out := names[:0]
	for _, name := range names {
		if name != target {
			out = append(out, name)
		}
	}
	return out
}
