package common

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// NewJobID generates a unique research job ID with the "job_" prefix
// Format: job_<uuid>
func NewJobID() string {
	return "job_" + uuid.New().String()
}

// NewPropertyID generates a unique property ID with the "prop_" prefix
func NewPropertyID() string {
	return "prop_" + uuid.New().String()
}

// NewEvidenceID generates a unique evidence record ID with the "ev_" prefix
func NewEvidenceID() string {
	return "ev_" + uuid.New().String()
}

// NewRunID generates a unique worker run ID with the "run_" prefix
func NewRunID() string {
	return "run_" + uuid.New().String()
}

// NewCompID generates a unique comparable ID with the "comp_" prefix
func NewCompID() string {
	return "comp_" + uuid.New().String()
}

// NewCRMPropertyID generates a unique CRM property ID with the "crm_" prefix
func NewCRMPropertyID() string {
	return "crm_" + uuid.New().String()
}

// NewSkipTraceID generates a unique skip trace record ID
func NewSkipTraceID() string {
	return "skip_" + uuid.New().String()
}

// NewZillowID generates a unique Zillow enrichment record ID
func NewZillowID() string {
	return "zil_" + uuid.New().String()
}

// NewUnderwritingID generates a unique underwriting record ID
func NewUnderwritingID() string {
	return "uw_" + uuid.New().String()
}

// NewRiskScoreID generates a unique risk score record ID
func NewRiskScoreID() string {
	return "risk_" + uuid.New().String()
}

// NewDossierID generates a unique dossier record ID
func NewDossierID() string {
	return "dos_" + uuid.New().String()
}

// NewTraceID generates a short hex trace ID for log correlation.
// Format: 16 lowercase hex characters.
func NewTraceID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		// uuid fallback keeps the 16-char shape
		return uuid.New().String()[:16]
	}
	return hex.EncodeToString(b)
}
