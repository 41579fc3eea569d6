package scheduler

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/praedium/internal/common"
	"github.com/ternarybob/praedium/internal/interfaces"
	"github.com/ternarybob/praedium/internal/models"
)

type fakeRunner struct {
	mu     sync.Mutex
	inputs []*models.ResearchInput
	err    error
}

func (f *fakeRunner) RunSync(ctx context.Context, input *models.ResearchInput) (*models.ResearchJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	return &models.ResearchJob{ID: "job-1", Status: models.JobStatusCompleted}, nil
}

func TestRegister_RejectsIncompleteDefinitions(t *testing.T) {
	svc := NewService(&fakeRunner{}, arbor.NewLogger())

	err := svc.Register(common.RefreshDefinition{Name: "no-schedule", Address: "1 Elm St"})
	assert.Error(t, err)

	err = svc.Register(common.RefreshDefinition{Name: "no-address", Schedule: "@hourly"})
	assert.Error(t, err)

	err = svc.Register(common.RefreshDefinition{Name: "bad-cron", Schedule: "not a cron", Address: "1 Elm St"})
	assert.Error(t, err)
}

func TestRegister_RejectsDuplicateNames(t *testing.T) {
	svc := NewService(&fakeRunner{}, arbor.NewLogger())

	def := common.RefreshDefinition{Name: "weekly", Schedule: "@weekly", Address: "1 Elm St"}
	require.NoError(t, svc.Register(def))
	assert.Error(t, svc.Register(def))
}

func TestRunEntry_RecordsLastJob(t *testing.T) {
	runner := &fakeRunner{}
	svc := NewService(runner, arbor.NewLogger())
	require.NoError(t, svc.Register(common.RefreshDefinition{
		Name:     "newark",
		Schedule: "@daily",
		Address:  "123 Main St",
		City:     "Newark",
		State:    "NJ",
		Strategy: "wholesale",
	}))

	svc.runEntry("newark")

	require.Len(t, runner.inputs, 1)
	assert.Equal(t, "123 Main St", runner.inputs[0].Address)
	assert.Equal(t, "wholesale", runner.inputs[0].Strategy)

	statuses := svc.Status()
	require.Len(t, statuses, 1)
	assert.Equal(t, "job-1", statuses[0].LastJobID)
	assert.Empty(t, statuses[0].LastError)
	assert.NotNil(t, statuses[0].LastRun)
	assert.False(t, statuses[0].IsRunning)
}

func TestRunEntry_BusyPropertySkipsWithoutError(t *testing.T) {
	runner := &fakeRunner{err: fmt.Errorf("claim: %w", interfaces.ErrPropertyBusy)}
	svc := NewService(runner, arbor.NewLogger())
	require.NoError(t, svc.Register(common.RefreshDefinition{
		Name: "busy", Schedule: "@daily", Address: "9 Oak Ave",
	}))

	svc.runEntry("busy")

	statuses := svc.Status()
	require.Len(t, statuses, 1)
	assert.Empty(t, statuses[0].LastError)
	assert.Empty(t, statuses[0].LastJobID)
}

func TestRunEntry_FailureRecorded(t *testing.T) {
	runner := &fakeRunner{err: fmt.Errorf("geocoder unavailable")}
	svc := NewService(runner, arbor.NewLogger())
	require.NoError(t, svc.Register(common.RefreshDefinition{
		Name: "failing", Schedule: "@daily", Address: "9 Oak Ave",
	}))

	svc.runEntry("failing")

	statuses := svc.Status()
	require.Len(t, statuses, 1)
	assert.Contains(t, statuses[0].LastError, "geocoder unavailable")
}

func TestStartStop(t *testing.T) {
	svc := NewService(&fakeRunner{}, arbor.NewLogger())
	require.NoError(t, svc.Register(common.RefreshDefinition{
		Name: "weekly", Schedule: "@weekly", Address: "1 Elm St",
	}))

	require.NoError(t, svc.Start())
	assert.Error(t, svc.Start())

	statuses := svc.Status()
	require.Len(t, statuses, 1)
	assert.NotNil(t, statuses[0].NextRun)

	require.NoError(t, svc.Stop())
	require.NoError(t, svc.Stop())
}
