// -----------------------------------------------------------------------
// Underwriting Worker - Valuation, offer math and risk scoring
//
// Consumes the persisted comp rows and the published profile, never the
// raw candidate pools. Writes one underwriting row and one risk row per
// job, replacing any prior run.
// -----------------------------------------------------------------------

package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/praedium/internal/common"
	"github.com/ternarybob/praedium/internal/interfaces"
	"github.com/ternarybob/praedium/internal/models"
	"github.com/ternarybob/praedium/internal/pipeline"
	"github.com/ternarybob/praedium/internal/services/underwriting"
)

// UnderwriteWorker computes valuation and risk for a job
type UnderwriteWorker struct {
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

// NewUnderwriteWorker creates the underwriting worker
func NewUnderwriteWorker(storage interfaces.StorageManager, logger arbor.ILogger) *UnderwriteWorker {
	return &UnderwriteWorker{storage: storage, logger: logger}
}

func (w *UnderwriteWorker) Name() string { return pipeline.WorkerUnderwriting }

func (w *UnderwriteWorker) Run(ctx context.Context, jc *pipeline.JobContext) (*pipeline.Result, error) {
	result := &pipeline.Result{
		Unknowns: []models.Unknown{},
		Errors:   []string{},
		Evidence: []models.EvidenceDraft{},
	}

	profile := jc.Profile()

	prices, rents := w.loadCompSignals(ctx, jc.Job.ID, result)
	if len(prices) == 0 {
		result.Unknowns = append(result.Unknowns, models.Unknown{Field: "arv", Reason: "no comparable sale prices"})
	}
	if len(rents) == 0 {
		result.Unknowns = append(result.Unknowns, models.Unknown{Field: "rent_estimate", Reason: "no comparable rents"})
	}

	var sqft *float64
	if profile != nil {
		sqft = profile.ParcelFacts.Sqft
	}
	if sqft == nil || *sqft <= 0 {
		result.Unknowns = append(result.Unknowns, models.Unknown{Field: "rehab_estimated_range", Reason: "no square footage on profile"})
	}

	record := underwriting.Compute(underwriting.Inputs{
		Strategy:     jc.Job.Strategy,
		RehabTier:    models.RehabTier(jc.Assumptions.RehabTier),
		SalePrices:   prices,
		Rents:        rents,
		Sqft:         sqft,
		Fees:         w.buildFees(jc),
		TargetMargin: floatOrZero(jc.Assumptions.TargetMargin),
	})
	record.ID = common.NewUnderwritingID()
	record.JobID = jc.Job.ID
	record.CreatedAt = time.Now().UTC()

	if err := w.storage.Valuations().ReplaceUnderwriting(ctx, record); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to persist underwriting: %v", err))
	}

	risk := w.computeRisk(ctx, jc, profile, record, len(prices), len(rents), len(result.Unknowns))
	if err := w.storage.Valuations().ReplaceRiskScore(ctx, risk); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to persist risk score: %v", err))
	}

	result.Evidence = append(result.Evidence, models.EvidenceDraft{
		Category:   "underwriting",
		Claim:      underwritingClaim(record),
		SourceURL:  "internal://underwriting/" + jc.Job.ID,
		Confidence: 1.0,
	})

	result.Data = map[string]interface{}{
		"arv_base":        floatValue(record.ARVEstimate.Base),
		"rent_base":       floatValue(record.RentEstimate.Base),
		"offer_base":      floatValue(record.OfferRecommendation.Base),
		"rehab_tier":      string(record.RehabTier),
		"title_risk":      risk.TitleRisk,
		"data_confidence": risk.DataConfidence,
	}
	return result, nil
}

// loadCompSignals extracts priced signals from the job's persisted comps
func (w *UnderwriteWorker) loadCompSignals(ctx context.Context, jobID string, result *pipeline.Result) ([]float64, []float64) {
	var prices, rents []float64

	sales, err := w.storage.Comps().ListSalesByJob(ctx, jobID)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to load sales comps: %v", err))
	}
	for _, comp := range sales {
		if comp.SalePrice != nil && *comp.SalePrice > 0 {
			prices = append(prices, *comp.SalePrice)
		}
	}

	rentals, err := w.storage.Comps().ListRentalsByJob(ctx, jobID)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to load rental comps: %v", err))
	}
	for _, comp := range rentals {
		if comp.Rent != nil && *comp.Rent > 0 {
			rents = append(rents, *comp.Rent)
		}
	}

	return prices, rents
}

// buildFees layers assumption overrides over the strategy's stock schedule
func (w *UnderwriteWorker) buildFees(jc *pipeline.JobContext) underwriting.FeeConfig {
	fees := underwriting.DefaultFees(jc.Job.Strategy)
	a := jc.Assumptions

	if a.ClosingCost != nil {
		fees.ClosingCost = *a.ClosingCost
	}
	if a.HoldingCost != nil {
		fees.HoldingCost = *a.HoldingCost
	}
	if a.AssignmentFee != nil {
		fees.AssignmentFee = *a.AssignmentFee
	}
	if a.MiscFee != nil {
		fees.MiscFee = *a.MiscFee
	}
	return fees
}

// computeRisk gathers evidence statistics and valuation signals for the
// risk scorer
func (w *UnderwriteWorker) computeRisk(ctx context.Context, jc *pipeline.JobContext, profile *models.PropertyProfile, record *models.Underwriting, salesCount, rentalCount, unknownCount int) *models.RiskScore {
	inputs := underwriting.RiskInputs{
		UnknownCount:      unknownCount,
		SalesCompCount:    salesCount,
		RentalCompCount:   rentalCount,
		ARVBase:           record.ARVEstimate.Base,
		RentBase:          record.RentEstimate.Base,
		ConflictThreshold: floatOrZero(jc.Assumptions.ValuationConflictThreshold),
	}

	if items, err := w.storage.Evidence().ListByJob(ctx, jc.Job.ID); err == nil {
		inputs.EvidenceCount = len(items)
		if len(items) > 0 {
			sum := 0.0
			for _, item := range items {
				sum += item.Confidence
			}
			mean := sum / float64(len(items))
			inputs.MeanConfidence = &mean
		}
	} else {
		w.logger.Warn().Err(err).Str("job_id", jc.Job.ID).Msg("Failed to load evidence for risk scoring")
	}

	if profile != nil {
		inputs.OwnerNames = profile.OwnerNames
		inputs.Zestimate = assessedValue(profile, "zestimate")
		inputs.RentZestimate = assessedValue(profile, "rent_zestimate")
	}

	risk := underwriting.ComputeRisk(inputs)
	risk.ID = common.NewRiskScoreID()
	risk.JobID = jc.Job.ID
	risk.CreatedAt = time.Now().UTC()
	return risk
}

// underwritingClaim summarizes the record for the evidence trail
func underwritingClaim(record *models.Underwriting) string {
	if record.ARVEstimate.Base != nil && record.OfferRecommendation.Base != nil {
		return fmt.Sprintf("Underwriting: ARV base $%.0f, recommended offer $%.0f",
			*record.ARVEstimate.Base, *record.OfferRecommendation.Base)
	}
	if record.ARVEstimate.Base != nil {
		return fmt.Sprintf("Underwriting: ARV base $%.0f, no offer derivable", *record.ARVEstimate.Base)
	}
	return "Underwriting: insufficient comp data for ARV"
}

// assessedValue reads a numeric assessed-values entry off the profile
func assessedValue(profile *models.PropertyProfile, key string) *float64 {
	if profile.AssessedValues == nil {
		return nil
	}
	switch v := profile.AssessedValues[key].(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	}
	return nil
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func floatValue(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
