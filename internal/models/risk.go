// -----------------------------------------------------------------------
// Risk Score - Per-job risk and data-confidence record
// -----------------------------------------------------------------------

package models

import "time"

// Compliance flags raised by the risk synthesizer
const (
	FlagOwnerNotVerified        = "owner_not_verified"
	FlagInsufficientSalesComps  = "insufficient_sales_comps"
	FlagInsufficientRentalComps = "insufficient_rental_comps"
	FlagValuationConflictComps  = "valuation_conflict_zestimate_vs_comps"
	FlagRentConflictComps       = "rent_conflict_zestimate_vs_comps"
)

// RiskScore captures title risk and data confidence for one job.
// One row per job, overwritten on rerun.
type RiskScore struct {
	ID              string    `json:"id"`
	JobID           string    `json:"job_id" badgerhold:"index"`
	TitleRisk       float64   `json:"title_risk"`       // [0,1]
	DataConfidence  float64   `json:"data_confidence"`  // [0,1]
	ComplianceFlags []string  `json:"compliance_flags"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
