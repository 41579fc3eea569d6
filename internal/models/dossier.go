// -----------------------------------------------------------------------
// Dossier - Per-job narrative memo with evidence citations
// -----------------------------------------------------------------------

package models

import "time"

// Citation links a dossier claim back to an evidence record. EvidenceID
// is empty for narrative links that could not be matched to stored
// evidence.
type Citation struct {
	EvidenceID string `json:"evidence_id"`
	SourceURL  string `json:"source_url"`
}

// Dossier is the per-job narrative memo. One row per job, replaced when
// the dossier worker reruns.
type Dossier struct {
	ID        string     `json:"id"`
	JobID     string     `json:"job_id" badgerhold:"index"`
	Markdown  string     `json:"markdown"`
	Citations []Citation `json:"citations"`
	CreatedAt time.Time  `json:"created_at"`
}
