// -----------------------------------------------------------------------
// Supervisor - Job lifecycle from input to output envelope
//
// The supervisor owns everything outside worker execution: input
// validation, property identity, the enrichment gate, job claiming,
// dispatch, terminal status transitions and output assembly. Workers
// never see job rows; the supervisor never sees adapter calls.
// -----------------------------------------------------------------------

package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/praedium/internal/common"
	"github.com/ternarybob/praedium/internal/interfaces"
	"github.com/ternarybob/praedium/internal/models"
	"github.com/ternarybob/praedium/internal/services/address"
	"github.com/ternarybob/praedium/internal/services/crm"
)

// Supervisor coordinates research jobs end to end
type Supervisor struct {
	storage   interfaces.StorageManager
	crm       *crm.Service
	scheduler *Scheduler
	assembler *Assembler
	events    interfaces.EventService
	logger    arbor.ILogger
}

// NewSupervisor creates a job supervisor
func NewSupervisor(storage interfaces.StorageManager, crmSvc *crm.Service, scheduler *Scheduler, assembler *Assembler, events interfaces.EventService, logger arbor.ILogger) *Supervisor {
	return &Supervisor{
		storage:   storage,
		crm:       crmSvc,
		scheduler: scheduler,
		assembler: assembler,
		events:    events,
		logger:    logger,
	}
}

// CreateJob validates the input, upserts the property identity and writes
// a pending job row. Unrecognized assumption keys become job warnings.
func (s *Supervisor) CreateJob(ctx context.Context, input *models.ResearchInput) (*models.ResearchJob, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input is required", ErrInputInvalid)
	}
	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputInvalid, err)
	}
	input.ApplyDefaults()

	_, warnings, err := models.ParseAssumptions(input.Assumptions)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputInvalid, err)
	}

	property, err := s.resolveProperty(ctx, input)
	if err != nil {
		return nil, err
	}

	job := models.NewResearchJob(
		common.NewJobID(),
		common.NewTraceID(),
		property.ID,
		models.ParseStrategy(input.Strategy),
		input.Assumptions,
		*input.Limits,
	)
	job.Warnings = warnings

	if err := s.storage.Jobs().Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	s.logger.Info().
		Str("job_id", job.ID).
		Str("property_id", property.ID).
		Str("strategy", string(job.Strategy)).
		Str("mode", string(job.Mode())).
		Msg("Research job created")

	s.publishStatus(job)
	return job, nil
}

// resolveProperty finds or creates the property row for an input address.
// The stable key dedupes re-submissions of the same address; location
// fields backfill onto an existing row when the input carries them.
func (s *Supervisor) resolveProperty(ctx context.Context, input *models.ResearchInput) (*models.ResearchProperty, error) {
	stableKey := address.StableKey(input.Address, input.City, input.State, input.Zip, input.APN)
	normalized := address.NormalizeAddress(input.Address, input.City, input.State, input.Zip)

	property, err := s.storage.Properties().GetByStableKey(ctx, stableKey)
	if errors.Is(err, interfaces.ErrNotFound) {
		property = models.NewResearchProperty(common.NewPropertyID(), stableKey, input.Address, normalized)
	} else if err != nil {
		return nil, fmt.Errorf("failed to look up property: %w", err)
	}

	if input.City != "" {
		property.City = input.City
	}
	if code := address.NormalizeState(input.State); code != "" {
		property.State = code
	}
	if input.Zip != "" {
		property.Zip = input.Zip
	}
	if input.APN != "" {
		property.APN = input.APN
	}
	property.Touch()

	if err := s.storage.Properties().Upsert(ctx, property); err != nil {
		return nil, fmt.Errorf("failed to upsert property: %w", err)
	}
	return property, nil
}

// RunJob claims a pending job and drives it to a terminal status. The
// returned error is the job-fatal cause when the job failed; worker-level
// failures surface only in the run rows and never fail the job.
func (s *Supervisor) RunJob(ctx context.Context, jobID string) (*models.ResearchJob, error) {
	// Claim persists the pending -> in_progress transition atomically
	job, err := s.storage.Jobs().Claim(ctx, jobID)
	if err != nil {
		return nil, err
	}
	s.publishStatus(job)

	property, err := s.storage.Properties().GetByID(ctx, job.ResearchPropertyID)
	if err != nil {
		return s.failJob(ctx, job, fmt.Errorf("failed to load property: %w", err))
	}

	assumptions, _, err := models.ParseAssumptions(job.Assumptions)
	if err != nil {
		return s.failJob(ctx, job, fmt.Errorf("%w: %v", ErrInputInvalid, err))
	}

	jc := NewJobContext(job, property, assumptions)
	if err := s.executePipeline(ctx, jc); err != nil {
		return s.failJob(ctx, job, err)
	}

	output, err := s.assembler.Assemble(ctx, job)
	if err != nil {
		return s.failJob(ctx, job, fmt.Errorf("failed to assemble output: %w", err))
	}
	encoded, err := json.Marshal(output)
	if err != nil {
		return s.failJob(ctx, job, fmt.Errorf("failed to encode output: %w", err))
	}

	job.MarkCompleted(encoded)
	if err := s.storage.Jobs().Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save completed job: %w", err)
	}

	s.logger.Info().
		Str("job_id", job.ID).
		Int("web_calls", jc.WebCallTotal()).
		Msg("Research job completed")

	s.publishStatus(job)
	s.publishEvent(interfaces.EventJobCompleted, map[string]interface{}{
		"job_id": job.ID,
		"status": string(job.Status),
	})
	return job, nil
}

// RunSync creates a job and runs it to completion in the caller's
// goroutine. The returned job is terminal; fetch the output envelope with
// GetFullOutput or read it from the job's Results.
func (s *Supervisor) RunSync(ctx context.Context, input *models.ResearchInput) (*models.ResearchJob, error) {
	job, err := s.CreateJob(ctx, input)
	if err != nil {
		return nil, err
	}
	return s.RunJob(ctx, job.ID)
}

// GetJob returns a job's current state by id.
func (s *Supervisor) GetJob(ctx context.Context, jobID string) (*models.ResearchJob, error) {
	return s.storage.Jobs().GetByID(ctx, jobID)
}

// failJob marks the job failed and persists it, preserving any partial
// side effects already written by completed workers
func (s *Supervisor) failJob(ctx context.Context, job *models.ResearchJob, cause error) (*models.ResearchJob, error) {
	job.MarkFailed(cause.Error())
	if err := s.storage.Jobs().Save(ctx, job); err != nil {
		s.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to save failed job")
	}

	s.logger.Warn().
		Str("job_id", job.ID).
		Str("error", cause.Error()).
		Msg("Research job failed")

	s.publishStatus(job)
	s.publishEvent(interfaces.EventJobCompleted, map[string]interface{}{
		"job_id": job.ID,
		"status": string(job.Status),
	})
	return job, cause
}

// executePipeline runs the enrichment gate and dispatches the worker
// graph for the job's mode
func (s *Supervisor) executePipeline(ctx context.Context, jc *JobContext) error {
	if err := s.checkEnrichmentGate(ctx, jc); err != nil {
		return err
	}

	specs := BuildSpecs(jc.Job.Limits.ExecutionMode, jc.Assumptions.ExtraAgents, jc.Job.Limits.MaxSteps)
	executions, err := s.scheduler.Run(ctx, jc, specs)

	s.logger.Info().
		Str("job_id", jc.Job.ID).
		Int("executions", len(executions)).
		Int("web_calls", jc.WebCallTotal()).
		Msg("Pipeline finished")
	return err
}

// checkEnrichmentGate blocks execution when the job demands enriched CRM
// data and the property's enrichment is incomplete or stale
func (s *Supervisor) checkEnrichmentGate(ctx context.Context, jc *JobContext) error {
	if !jc.Assumptions.RequireEnrichedData {
		return nil
	}

	match, err := s.crm.Lookup(ctx, jc.Property.RawAddress, jc.Property.City, jc.Property.State)
	if err != nil {
		return fmt.Errorf("%w: crm lookup failed: %v", ErrEnrichmentGateFailed, err)
	}

	status := crm.ComputeEnrichmentStatus(jc.Assumptions, match, time.Now().UTC())
	if !status.IsEnriched {
		return fmt.Errorf("%w: property enrichment requirements not met (missing: %s)",
			ErrEnrichmentGateFailed, strings.Join(status.Missing, ", "))
	}
	if status.IsFresh != nil && !*status.IsFresh {
		age := 0.0
		if status.AgeHours != nil {
			age = *status.AgeHours
		}
		maxAge := 0.0
		if status.MaxAgeHours != nil {
			maxAge = *status.MaxAgeHours
		}
		return fmt.Errorf("%w: property enrichment is stale (age_hours=%.0f, max_age_hours=%.0f)",
			ErrEnrichmentGateFailed, age, maxAge)
	}
	return nil
}

// GetFullOutput assembles the output envelope for a property's job. An
// empty jobID selects the property's latest completed job; nil output
// with nil error means no completed job exists yet.
func (s *Supervisor) GetFullOutput(ctx context.Context, propertyID, jobID string) (*models.ResearchOutput, error) {
	var job *models.ResearchJob
	var err error

	if jobID == "" {
		job, err = s.storage.Jobs().LatestCompletedForProperty(ctx, propertyID)
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
	} else {
		job, err = s.storage.Jobs().GetByID(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if job.ResearchPropertyID != propertyID {
			return nil, fmt.Errorf("job %s does not belong to property %s", jobID, propertyID)
		}
	}

	return s.assembler.Assemble(ctx, job)
}

// GetEnrichmentStatus reports enrichment completeness and freshness for a
// property without running a job. A non-positive maxAgeHours applies the
// default freshness horizon.
func (s *Supervisor) GetEnrichmentStatus(ctx context.Context, propertyID string, maxAgeHours int) (*models.EnrichmentStatus, error) {
	property, err := s.storage.Properties().GetByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	match, err := s.crm.Lookup(ctx, property.RawAddress, property.City, property.State)
	if err != nil {
		return nil, err
	}

	assumptions := &models.Assumptions{RequireEnrichedData: true}
	if maxAgeHours > 0 {
		assumptions.EnrichedMaxAgeHours = &maxAgeHours
	}
	return crm.ComputeEnrichmentStatus(assumptions, match, time.Now().UTC()), nil
}

func (s *Supervisor) publishStatus(job *models.ResearchJob) {
	s.publishEvent(interfaces.EventJobStatusChange, map[string]interface{}{
		"job_id": job.ID,
		"status": string(job.Status),
	})
}

func (s *Supervisor) publishEvent(eventType interfaces.EventType, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	_ = s.events.Publish(context.Background(), interfaces.Event{
		Type:    eventType,
		Payload: payload,
	})
}
