// -----------------------------------------------------------------------
// Refresh Scheduler - Cron-driven re-research of configured properties
// -----------------------------------------------------------------------

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/praedium/internal/common"
	"github.com/ternarybob/praedium/internal/interfaces"
	"github.com/ternarybob/praedium/internal/models"
)

// JobRunner is the slice of the supervisor the scheduler drives
type JobRunner interface {
	RunSync(ctx context.Context, input *models.ResearchInput) (*models.ResearchJob, error)
}

// entry tracks one registered refresh definition and its run history
type entry struct {
	definition common.RefreshDefinition
	cronID     cron.EntryID
	lastRun    *time.Time
	lastJobID  string
	lastError  string
	isRunning  bool
}

// EntryStatus is a read-only snapshot of a scheduled definition
type EntryStatus struct {
	Name      string     `json:"name"`
	Schedule  string     `json:"schedule"`
	Address   string     `json:"address"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	NextRun   *time.Time `json:"next_run,omitempty"`
	LastJobID string     `json:"last_job_id,omitempty"`
	LastError string     `json:"last_error,omitempty"`
	IsRunning bool       `json:"is_running"`
}

// Service re-runs research for configured addresses on a cron schedule.
// A tick is skipped when the property already has a job in progress or
// the previous tick for the same definition has not finished.
type Service struct {
	runner  JobRunner
	cron    *cron.Cron
	logger  arbor.ILogger
	mu      sync.Mutex // protects entries
	entries map[string]*entry
	running bool
}

// NewService creates a refresh scheduler
func NewService(runner JobRunner, logger arbor.ILogger) *Service {
	return &Service{
		runner:  runner,
		cron:    cron.New(),
		logger:  logger,
		entries: make(map[string]*entry),
	}
}

// Register adds a refresh definition to the schedule. Definitions must be
// registered before Start.
func (s *Service) Register(def common.RefreshDefinition) error {
	if def.Schedule == "" {
		return fmt.Errorf("refresh definition %q has no schedule", def.Name)
	}
	if def.Address == "" {
		return fmt.Errorf("refresh definition %q has no address", def.Name)
	}

	name := def.Name
	if name == "" {
		name = def.Address
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("refresh definition %q already registered", name)
	}

	e := &entry{definition: def}
	cronID, err := s.cron.AddFunc(def.Schedule, func() { s.runEntry(name) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q for definition %q: %w", def.Schedule, name, err)
	}
	e.cronID = cronID
	s.entries[name] = e

	s.logger.Info().
		Str("definition", name).
		Str("schedule", def.Schedule).
		Str("address", def.Address).
		Msg("Refresh definition registered")
	return nil
}

// Start begins firing registered definitions
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	s.cron.Start()
	s.running = true
	s.logger.Info().Int("definitions", len(s.entries)).Msg("Refresh scheduler started")
	return nil
}

// Stop halts the cron loop and waits for in-flight runs to finish
func (s *Service) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info().Msg("Refresh scheduler stopped")
	return nil
}

// Status returns a snapshot of every registered definition
func (s *Service) Status() []EntryStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make([]EntryStatus, 0, len(s.entries))
	for name, e := range s.entries {
		status := EntryStatus{
			Name:      name,
			Schedule:  e.definition.Schedule,
			Address:   e.definition.Address,
			LastRun:   e.lastRun,
			LastJobID: e.lastJobID,
			LastError: e.lastError,
			IsRunning: e.isRunning,
		}
		if cronEntry := s.cron.Entry(e.cronID); !cronEntry.Next.IsZero() {
			next := cronEntry.Next
			status.NextRun = &next
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// runEntry executes one definition tick in the cron goroutine
func (s *Service) runEntry(name string) {
	s.mu.Lock()
	e, ok := s.entries[name]
	if !ok || e.isRunning {
		s.mu.Unlock()
		if ok {
			s.logger.Warn().Str("definition", name).Msg("Previous refresh still running, skipping tick")
		}
		return
	}
	e.isRunning = true
	def := e.definition
	s.mu.Unlock()

	started := time.Now().UTC()
	job, err := s.runner.RunSync(context.Background(), &models.ResearchInput{
		Address:  def.Address,
		City:     def.City,
		State:    def.State,
		Zip:      def.Zip,
		Strategy: def.Strategy,
		Mode:     def.Mode,
	})

	s.mu.Lock()
	e.isRunning = false
	e.lastRun = &started
	switch {
	case errors.Is(err, interfaces.ErrPropertyBusy):
		// Another job holds the property; the next tick retries
		e.lastError = ""
		s.logger.Info().Str("definition", name).Msg("Property busy, refresh skipped")
	case err != nil:
		e.lastError = err.Error()
		s.logger.Warn().Str("definition", name).Err(err).Msg("Scheduled refresh failed")
	default:
		e.lastError = ""
		e.lastJobID = job.ID
		s.logger.Info().
			Str("definition", name).
			Str("job_id", job.ID).
			Str("status", string(job.Status)).
			Msg("Scheduled refresh completed")
	}
	s.mu.Unlock()
}
