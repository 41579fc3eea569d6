// -----------------------------------------------------------------------
// Research Job - One execution of the research pipeline
// -----------------------------------------------------------------------

package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// JobStatus represents the lifecycle state of a research job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Strategy is the investment framing the research is underwritten against
type Strategy string

const (
	StrategyFlip      Strategy = "flip"
	StrategyRental    Strategy = "rental"
	StrategyWholesale Strategy = "wholesale"
)

// ParseStrategy maps a raw string onto a known strategy, defaulting to
// wholesale for empty or unrecognized input.
func ParseStrategy(s string) Strategy {
	switch Strategy(s) {
	case StrategyFlip, StrategyRental, StrategyWholesale:
		return Strategy(s)
	default:
		return StrategyWholesale
	}
}

// ExecutionMode selects how the worker graph is scheduled
type ExecutionMode string

const (
	// ExecutionModePipeline runs the nine core workers in a fixed linear order
	ExecutionModePipeline ExecutionMode = "pipeline"
	// ExecutionModeOrchestrated runs the full dependency graph with batched parallelism
	ExecutionModeOrchestrated ExecutionMode = "orchestrated"
)

// JobLimits caps pipeline resource consumption for one job
type JobLimits struct {
	MaxSteps              int    `json:"max_steps"`
	MaxWebCalls           int    `json:"max_web_calls"`
	TimeoutSecondsPerStep int    `json:"timeout_seconds_per_step"`
	MaxParallelAgents     int    `json:"max_parallel_agents"`
	ExecutionMode         string `json:"execution_mode"`
}

// DefaultJobLimits returns the stock limits applied when the caller does
// not provide any.
func DefaultJobLimits() JobLimits {
	return JobLimits{
		MaxSteps:              9,
		MaxWebCalls:           30,
		TimeoutSecondsPerStep: 20,
		MaxParallelAgents:     1,
		ExecutionMode:         string(ExecutionModePipeline),
	}
}

// StepTimeout returns the per-worker deadline as a duration
func (l JobLimits) StepTimeout() time.Duration {
	if l.TimeoutSecondsPerStep <= 0 {
		return 20 * time.Second
	}
	return time.Duration(l.TimeoutSecondsPerStep) * time.Second
}

// ResearchJob represents one execution of the pipeline against a property.
//
// Job State Lifecycle:
//  1. pending     - created, not yet claimed by the supervisor
//  2. in_progress - claimed; at most one per property at a time
//  3. completed / failed - terminal, immutable
type ResearchJob struct {
	// Core identification
	ID                 string `json:"id"`
	TraceID            string `json:"trace_id"` // 16-hex log correlation ID
	ResearchPropertyID string `json:"research_property_id" badgerhold:"index"`

	// Execution state
	Status      JobStatus `json:"status" badgerhold:"index"`
	Progress    int       `json:"progress"` // 0-100
	CurrentStep string    `json:"current_step,omitempty"`

	// Strategy and knobs (immutable snapshot at creation time)
	Strategy    Strategy               `json:"strategy"`
	Assumptions map[string]interface{} `json:"assumptions"`
	Limits      JobLimits              `json:"limits"`

	// Outcome
	Results      json.RawMessage `json:"results,omitempty"` // final output envelope
	ErrorMessage string          `json:"error_message,omitempty"`
	Warnings     []string        `json:"warnings,omitempty"` // unrecognized assumption keys etc.

	// Timestamps
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewResearchJob creates a pending job for a property
func NewResearchJob(id, traceID, propertyID string, strategy Strategy, assumptions map[string]interface{}, limits JobLimits) *ResearchJob {
	if assumptions == nil {
		assumptions = make(map[string]interface{})
	}
	return &ResearchJob{
		ID:                 id,
		TraceID:            traceID,
		ResearchPropertyID: propertyID,
		Status:             JobStatusPending,
		Progress:           0,
		Strategy:           strategy,
		Assumptions:        assumptions,
		Limits:             limits,
		CreatedAt:          time.Now(),
	}
}

// Validate validates the research job
func (j *ResearchJob) Validate() error {
	if j.ID == "" {
		return fmt.Errorf("job ID is required")
	}
	if j.ResearchPropertyID == "" {
		return fmt.Errorf("job property ID is required")
	}
	if j.Strategy == "" {
		return fmt.Errorf("job strategy is required")
	}
	if j.Assumptions == nil {
		return fmt.Errorf("job assumptions cannot be nil")
	}
	if j.Progress < 0 || j.Progress > 100 {
		return fmt.Errorf("job progress must be within 0-100")
	}
	return nil
}

// MarkStarted moves the job to in_progress
func (j *ResearchJob) MarkStarted() {
	j.Status = JobStatusInProgress
	now := time.Now()
	j.StartedAt = &now
}

// MarkCompleted marks the job as completed with its final results
func (j *ResearchJob) MarkCompleted(results json.RawMessage) {
	j.Status = JobStatusCompleted
	j.Results = results
	j.Progress = 100
	j.CurrentStep = ""
	now := time.Now()
	j.CompletedAt = &now
}

// MarkFailed marks the job as failed with an error message
func (j *ResearchJob) MarkFailed(errorMsg string) {
	j.Status = JobStatusFailed
	j.ErrorMessage = errorMsg
	now := time.Now()
	j.CompletedAt = &now
}

// UpdateStep records pipeline position for status reads
func (j *ResearchJob) UpdateStep(step string, progress int) {
	j.CurrentStep = step
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	j.Progress = progress
}

// IsTerminal returns true if the job is in a terminal state
func (j *ResearchJob) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// GetAssumptionString retrieves a string value from assumptions
func (j *ResearchJob) GetAssumptionString(key string) (string, bool) {
	val, ok := j.Assumptions[key]
	if !ok {
		return "", false
	}
	str, ok := val.(string)
	return str, ok
}

// GetAssumptionInt retrieves an int value from assumptions
func (j *ResearchJob) GetAssumptionInt(key string) (int, bool) {
	val, ok := j.Assumptions[key]
	if !ok {
		return 0, false
	}

	// Handle both int and float64 (JSON unmarshaling converts numbers to float64)
	switch v := val.(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// GetAssumptionFloat retrieves a float value from assumptions
func (j *ResearchJob) GetAssumptionFloat(key string) (float64, bool) {
	val, ok := j.Assumptions[key]
	if !ok {
		return 0, false
	}

	switch v := val.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// GetAssumptionBool retrieves a bool value from assumptions
func (j *ResearchJob) GetAssumptionBool(key string) (bool, bool) {
	val, ok := j.Assumptions[key]
	if !ok {
		return false, false
	}
	b, ok := val.(bool)
	return b, ok
}

// GetAssumptionStringSlice retrieves a string slice from assumptions
func (j *ResearchJob) GetAssumptionStringSlice(key string) ([]string, bool) {
	val, ok := j.Assumptions[key]
	if !ok {
		return nil, false
	}

	// Handle []interface{} from JSON unmarshaling
	switch v := val.(type) {
	case []string:
		return v, true
	case []interface{}:
		result := make([]string, len(v))
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, false
			}
			result[i] = str
		}
		return result, true
	default:
		return nil, false
	}
}

// Mode returns the execution mode from limits, defaulting to pipeline
func (j *ResearchJob) Mode() ExecutionMode {
	if j.Limits.ExecutionMode == string(ExecutionModeOrchestrated) {
		return ExecutionModeOrchestrated
	}
	return ExecutionModePipeline
}
