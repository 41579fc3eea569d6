// -----------------------------------------------------------------------
// Research Output - Canonical result envelope assembled per job
// -----------------------------------------------------------------------

package models

// DossierView is the dossier slice of the output envelope
type DossierView struct {
	Markdown string `json:"markdown"`
}

// ResearchOutput is the canonical envelope returned for a completed job.
// Field order mirrors the assembly order: profile, provenance,
// comparables, valuation, risk, per-worker payloads, narrative, telemetry.
type ResearchOutput struct {
	PropertyProfile *PropertyProfile `json:"property_profile"`
	Evidence        []EvidenceItem   `json:"evidence"`
	CompsSales      []CompSale       `json:"comps_sales"`
	CompsRentals    []CompRental     `json:"comps_rentals"`
	Underwrite      *Underwriting    `json:"underwrite"`
	RiskScore       *RiskScore       `json:"risk_score"`

	// Optional per-worker payloads extracted from WorkerRun data
	NeighborhoodIntel map[string]interface{}            `json:"neighborhood_intel,omitempty"`
	FloodZone         map[string]interface{}            `json:"flood_zone,omitempty"`
	Extensive         map[string]map[string]interface{} `json:"extensive,omitempty"`

	Dossier    *DossierView       `json:"dossier"`
	WorkerRuns []WorkerRunSummary `json:"worker_runs"`
}
