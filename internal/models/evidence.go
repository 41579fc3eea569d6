// -----------------------------------------------------------------------
// Evidence - Content-addressed provenance records
// -----------------------------------------------------------------------

package models

import (
	"fmt"
	"time"
)

// EvidenceDraft is the unsaved form of an evidence record as emitted by a
// worker. The store computes the content hash and resolves insert-vs-replace.
type EvidenceDraft struct {
	Category   string  `json:"category"`
	Claim      string  `json:"claim"`
	SourceURL  string  `json:"source_url"`
	RawExcerpt string  `json:"raw_excerpt,omitempty"`
	Confidence float64 `json:"confidence"`
}

// EvidenceItem is an atomic provenance record backing a claim.
//
// Hash is the SHA-256 of the lowercased, trimmed (category | claim |
// source_url | raw_excerpt) and is unique across the store: emitting a
// draft whose hash already exists replaces the stored record in place,
// rebinding it to the emitting job and refreshing captured_at.
type EvidenceItem struct {
	ID                 string    `json:"id"`
	Seq                uint64    `json:"-" badgerhold:"index"` // insertion order, stable across rebinds
	JobID              string    `json:"job_id" badgerhold:"index"`
	ResearchPropertyID string    `json:"property_id" badgerhold:"index"`
	Category           string    `json:"category"`
	Claim              string    `json:"claim"`
	SourceURL          string    `json:"source_url"`
	CapturedAt         time.Time `json:"captured_at"`
	RawExcerpt         string    `json:"raw_excerpt,omitempty"`
	Confidence         float64   `json:"confidence"`
	Hash               string    `json:"hash" badgerhold:"unique"`
}

// Validate validates the evidence item
func (e *EvidenceItem) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("evidence ID is required")
	}
	if e.Category == "" {
		return fmt.Errorf("evidence category is required")
	}
	if e.Claim == "" {
		return fmt.Errorf("evidence claim is required")
	}
	if e.Hash == "" {
		return fmt.Errorf("evidence hash is required")
	}
	if e.Confidence < 0 || e.Confidence > 1 {
		return fmt.Errorf("evidence confidence must be within [0,1], got %f", e.Confidence)
	}
	return nil
}
