// -----------------------------------------------------------------------
// Dossier Worker - Final memo assembly
//
// Gathers every persisted artifact plus the shared worker payloads and
// writes the job's dossier row. The narrative path is best-effort; the
// structured document is the deterministic fallback and the ground
// truth for reproducibility.
// -----------------------------------------------------------------------

package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/praedium/internal/common"
	"github.com/ternarybob/praedium/internal/interfaces"
	"github.com/ternarybob/praedium/internal/models"
	"github.com/ternarybob/praedium/internal/pipeline"
	"github.com/ternarybob/praedium/internal/services/dossier"
)

// DossierWorker writes the research memo for a job
type DossierWorker struct {
	narrative interfaces.NarrativeLLM
	storage   interfaces.StorageManager
	logger    arbor.ILogger
}

// NewDossierWorker creates the dossier_writer worker
func NewDossierWorker(narrative interfaces.NarrativeLLM, storage interfaces.StorageManager, logger arbor.ILogger) *DossierWorker {
	return &DossierWorker{
		narrative: narrative,
		storage:   storage,
		logger:    logger,
	}
}

func (w *DossierWorker) Name() string { return pipeline.WorkerDossierWriter }

func (w *DossierWorker) Run(ctx context.Context, jc *pipeline.JobContext) (*pipeline.Result, error) {
	result := &pipeline.Result{
		Unknowns: []models.Unknown{},
		Errors:   []string{},
		Evidence: []models.EvidenceDraft{},
	}

	data := w.gather(ctx, jc, result)
	markdown, citations, usedNarrative := w.compose(ctx, jc, data, result)

	record := &models.Dossier{
		ID:        common.NewDossierID(),
		JobID:     jc.Job.ID,
		Markdown:  markdown,
		Citations: citations,
		CreatedAt: time.Now().UTC(),
	}
	if err := w.storage.Valuations().ReplaceDossier(ctx, record); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to persist dossier: %v", err))
	}

	result.Evidence = append(result.Evidence, models.EvidenceDraft{
		Category:   "dossier",
		Claim:      "Investment dossier compiled",
		SourceURL:  "internal://dossier/" + jc.Job.ID,
		Confidence: 1.0,
	})

	result.Data = map[string]interface{}{
		"markdown_length": len(markdown),
		"citation_count":  len(citations),
		"narrative":       usedNarrative,
	}
	return result, nil
}

// gather loads every input the dossier renders from persisted rows and
// the shared context
func (w *DossierWorker) gather(ctx context.Context, jc *pipeline.JobContext, result *pipeline.Result) dossier.Data {
	data := dossier.Data{
		Property: jc.Property,
		Profile:  jc.Profile(),
		Strategy: jc.Job.Strategy,
		Sections: jc.SharedAll(),
	}

	var err error
	if data.SalesComps, err = w.storage.Comps().ListSalesByJob(ctx, jc.Job.ID); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to load sales comps: %v", err))
	}
	if data.RentalComps, err = w.storage.Comps().ListRentalsByJob(ctx, jc.Job.ID); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to load rental comps: %v", err))
	}
	if data.Evidence, err = w.storage.Evidence().ListByJob(ctx, jc.Job.ID); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to load evidence: %v", err))
	}

	if data.Underwrite, err = w.storage.Valuations().GetUnderwriting(ctx, jc.Job.ID); err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to load underwriting: %v", err))
	}
	if data.Risk, err = w.storage.Valuations().GetRiskScore(ctx, jc.Job.ID); err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to load risk score: %v", err))
	}

	return data
}

// compose tries the narrative path and falls back to the deterministic
// structured document
func (w *DossierWorker) compose(ctx context.Context, jc *pipeline.JobContext, data dossier.Data, result *pipeline.Result) (string, []models.Citation, bool) {
	if w.narrative != nil && w.narrative.IsAvailable() {
		text, err := w.narrative.Generate(ctx, dossier.Prompt(&data), 0)
		if err == nil && text != "" {
			markdown := dossier.WithNarrative(text, &data)
			return markdown, dossier.NarrativeCitations(markdown, data.Evidence), true
		}
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("narrative generation failed: %v", err))
		} else {
			result.Errors = append(result.Errors, "narrative generation returned empty text")
		}
		w.logger.Warn().
			Str("job_id", jc.Job.ID).
			Str("model", w.narrative.ModelName()).
			Msg("Narrative unavailable, using structured dossier")
	}

	return dossier.Structured(&data), dossier.StructuredCitations(data.Evidence), false
}
