// -----------------------------------------------------------------------
// Search Workers - Category-templated web research
//
// One generic worker covers public records, permits, neighborhood intel
// and subdivision research. Hits are sorted by source quality so the
// evidence trail and the dossier lead with the most trustworthy sources.
// An empty result set is a valid outcome, not an error.
// -----------------------------------------------------------------------

package workers

import (
	"context"
	"fmt"
	"sort"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/praedium/internal/interfaces"
	"github.com/ternarybob/praedium/internal/models"
	"github.com/ternarybob/praedium/internal/pipeline"
	"github.com/ternarybob/praedium/internal/services/evidence"
)

// searchMaxResults caps one search call
const searchMaxResults = 8

// SearchWorker runs one category-templated web search per job
type SearchWorker struct {
	name     string
	category string
	template string // one %s, substituted with the full subject address
	search   interfaces.SearchProvider
	logger   arbor.ILogger
}

// NewPublicRecordsWorker searches assessor and county record sources
func NewPublicRecordsWorker(search interfaces.SearchProvider, logger arbor.ILogger) *SearchWorker {
	return &SearchWorker{
		name:     pipeline.WorkerPublicRecords,
		category: "public_records",
		template: "%s property records assessor parcel owner",
		search:   search,
		logger:   logger,
	}
}

// NewPermitsWorker searches building permit and code violation sources
func NewPermitsWorker(search interfaces.SearchProvider, logger arbor.ILogger) *SearchWorker {
	return &SearchWorker{
		name:     pipeline.WorkerPermitsViolations,
		category: "permits",
		template: "%s building permits code violations",
		search:   search,
		logger:   logger,
	}
}

// NewNeighborhoodWorker searches area market and livability signals
func NewNeighborhoodWorker(search interfaces.SearchProvider, logger arbor.ILogger) *SearchWorker {
	return &SearchWorker{
		name:     pipeline.WorkerNeighborhoodIntel,
		category: "neighborhood",
		template: "%s neighborhood crime rate schools market trends",
		search:   search,
		logger:   logger,
	}
}

// NewSubdivisionWorker searches lot-split and rezoning feasibility
// signals. The job's subdivision_goal assumption augments the query.
func NewSubdivisionWorker(search interfaces.SearchProvider, logger arbor.ILogger) *SearchWorker {
	return &SearchWorker{
		name:     pipeline.WorkerSubdivisionResearch,
		category: "subdivision",
		template: "%s subdivision lot split zoning requirements",
		search:   search,
		logger:   logger,
	}
}

func (w *SearchWorker) Name() string { return w.name }

func (w *SearchWorker) Run(ctx context.Context, jc *pipeline.JobContext) (*pipeline.Result, error) {
	query := fmt.Sprintf(w.template, fullAddress(jc.Property))
	if w.name == pipeline.WorkerSubdivisionResearch && jc.Assumptions.SubdivisionGoal != "" {
		query += " " + jc.Assumptions.SubdivisionGoal
	}

	result := &pipeline.Result{
		Unknowns: []models.Unknown{},
		Errors:   []string{},
		Evidence: []models.EvidenceDraft{},
	}

	if w.search == nil || !w.search.IsConfigured() {
		result.Unknowns = append(result.Unknowns, models.Unknown{Field: "hits", Reason: "search provider not configured"})
		result.Data = searchPayload(query, nil)
		return result, nil
	}

	hits, err := w.search.Search(ctx, query, searchMaxResults, false)
	result.WebCalls++
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("search failed: %v", err))
	}
	if len(hits) == 0 && err == nil {
		result.Unknowns = append(result.Unknowns, models.Unknown{Field: "hits", Reason: "no search results"})
	}

	scored := make([]scoredHit, 0, len(hits))
	for _, hit := range hits {
		scored = append(scored, scoredHit{
			hit:     hit,
			quality: evidence.SourceQuality(hit.URL, w.category),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].quality > scored[j].quality
	})

	normalized := make([]map[string]interface{}, 0, len(scored))
	for _, s := range scored {
		normalized = append(normalized, map[string]interface{}{
			"title":          s.hit.Title,
			"url":            s.hit.URL,
			"snippet":        s.hit.Snippet,
			"source_quality": s.quality,
		})

		claim := s.hit.Title
		if claim == "" {
			claim = s.hit.URL
		}
		if claim == "" {
			continue
		}
		result.Evidence = append(result.Evidence, models.EvidenceDraft{
			Category:   w.category,
			Claim:      claim,
			SourceURL:  s.hit.URL,
			RawExcerpt: s.hit.Snippet,
			Confidence: s.quality,
		})
	}

	result.Data = searchPayload(query, normalized)
	return result, nil
}

type scoredHit struct {
	hit     interfaces.SearchHit
	quality float64
}

func searchPayload(query string, hits []map[string]interface{}) map[string]interface{} {
	if hits == nil {
		hits = []map[string]interface{}{}
	}
	return map[string]interface{}{
		"query":     query,
		"hits":      hits,
		"hit_count": len(hits),
	}
}
