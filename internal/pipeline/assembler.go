// -----------------------------------------------------------------------
// Output Assembler - Builds the canonical result envelope for a job
//
// The envelope is assembled purely from persisted rows, never from
// in-memory pipeline state, so it is reproducible for any stored job.
// -----------------------------------------------------------------------

package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/praedium/internal/interfaces"
	"github.com/ternarybob/praedium/internal/models"
)

// Assembler builds ResearchOutput envelopes from storage
type Assembler struct {
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

// NewAssembler creates an output assembler
func NewAssembler(storage interfaces.StorageManager, logger arbor.ILogger) *Assembler {
	return &Assembler{storage: storage, logger: logger}
}

// Assemble builds the full output envelope for a job from persisted rows
func (a *Assembler) Assemble(ctx context.Context, job *models.ResearchJob) (*models.ResearchOutput, error) {
	property, err := a.storage.Properties().GetByID(ctx, job.ResearchPropertyID)
	if err != nil {
		return nil, err
	}

	output := &models.ResearchOutput{
		PropertyProfile: property.LatestProfile,
		Evidence:        []models.EvidenceItem{},
		CompsSales:      []models.CompSale{},
		CompsRentals:    []models.CompRental{},
		WorkerRuns:      []models.WorkerRunSummary{},
	}

	evidence, err := a.storage.Evidence().ListByJob(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	for _, item := range evidence {
		output.Evidence = append(output.Evidence, *item)
	}

	sales, err := a.storage.Comps().ListSalesByJob(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(sales, func(i, j int) bool {
		return sales[i].SimilarityScore > sales[j].SimilarityScore
	})
	for _, comp := range sales {
		output.CompsSales = append(output.CompsSales, *comp)
	}

	rentals, err := a.storage.Comps().ListRentalsByJob(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rentals, func(i, j int) bool {
		return rentals[i].SimilarityScore > rentals[j].SimilarityScore
	})
	for _, comp := range rentals {
		output.CompsRentals = append(output.CompsRentals, *comp)
	}

	if underwrite, err := a.storage.Valuations().GetUnderwriting(ctx, job.ID); err == nil {
		output.Underwrite = underwrite
	} else if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, err
	}

	if risk, err := a.storage.Valuations().GetRiskScore(ctx, job.ID); err == nil {
		output.RiskScore = risk
	} else if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, err
	}

	if dossier, err := a.storage.Valuations().GetDossier(ctx, job.ID); err == nil {
		output.Dossier = &models.DossierView{Markdown: dossier.Markdown}
	} else if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, err
	}

	runs, err := a.storage.WorkerRuns().ListByJob(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	for _, run := range runs {
		output.WorkerRuns = append(output.WorkerRuns, run.Summary())
		a.extractPayload(output, run)
	}

	return output, nil
}

// extractPayload lifts selected worker payloads into the envelope
func (a *Assembler) extractPayload(output *models.ResearchOutput, run *models.WorkerRun) {
	if run.Status == models.WorkerRunFailed || len(run.Data) == 0 {
		return
	}

	lift := run.WorkerName == WorkerNeighborhoodIntel ||
		run.WorkerName == WorkerFloodZone ||
		isExtensiveWorker(run.WorkerName)
	if !lift {
		return
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(run.Data, &payload); err != nil {
		a.logger.Warn().Err(err).
			Str("worker", run.WorkerName).
			Msg("Worker payload not decodable, omitting from output")
		return
	}

	switch {
	case run.WorkerName == WorkerNeighborhoodIntel:
		output.NeighborhoodIntel = payload
	case run.WorkerName == WorkerFloodZone:
		output.FloodZone = payload
	default:
		if output.Extensive == nil {
			output.Extensive = make(map[string]map[string]interface{})
		}
		output.Extensive[run.WorkerName] = payload
	}
}

func isExtensiveWorker(name string) bool {
	for _, extensive := range ExtensiveWorkers {
		if extensive == name {
			return true
		}
	}
	return false
}
