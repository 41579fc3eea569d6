// -----------------------------------------------------------------------
// Web Search - Gemini GoogleSearch-grounded search provider
// -----------------------------------------------------------------------

package websearch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/praedium/internal/common"
	"github.com/ternarybob/praedium/internal/interfaces"
	"google.golang.org/genai"
)

const (
	defaultTimeout    = 2 * time.Minute
	defaultMaxResults = 8
	snippetMaxLen     = 500
)

// Service implements SearchProvider using the Gemini SDK with GoogleSearch
// grounding. One Search call issues one grounded generation request; the
// grounding chunks become the normalized hits.
type Service struct {
	searchConfig *common.SearchConfig
	geminiConfig *common.GeminiConfig
	fetcher      interfaces.PageFetcher
	eventService interfaces.EventService
	logger       arbor.ILogger
	client       *genai.Client
	timeout      time.Duration
	rateLimit    time.Duration

	mu          sync.Mutex
	lastRequest time.Time // For rate limiting; guarded because jobs share one adapter
}

// NewService creates a grounded search provider. When grounded search is
// not enabled or no Gemini API key is present, the null provider is
// returned instead so callers never hold a nil SearchProvider.
func NewService(
	config *common.Config,
	fetcher interfaces.PageFetcher,
	eventService interfaces.EventService,
	logger arbor.ILogger,
) (interfaces.SearchProvider, error) {
	if config.Search.Mode != "grounded" || config.Gemini.APIKey == "" {
		logger.Info().Str("mode", config.Search.Mode).Msg("Grounded search disabled, using null provider")
		return NewNullSearch(logger), nil
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  config.Gemini.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	timeout, err := time.ParseDuration(config.Gemini.Timeout)
	if err != nil || timeout <= 0 {
		timeout = defaultTimeout
	}
	rateLimit, err := time.ParseDuration(config.Gemini.RateLimit)
	if err != nil || rateLimit < 0 {
		rateLimit = 0
	}

	logger.Info().
		Str("model", config.Gemini.Model).
		Dur("timeout", timeout).
		Msg("Grounded search provider initialized")

	return &Service{
		searchConfig: &config.Search,
		geminiConfig: &config.Gemini,
		fetcher:      fetcher,
		eventService: eventService,
		logger:       logger,
		client:       client,
		timeout:      timeout,
		rateLimit:    rateLimit,
	}, nil
}

// Name identifies the provider in logs and worker output
func (s *Service) Name() string {
	return "gemini_grounded"
}

// IsConfigured reports whether grounded search can be performed
func (s *Service) IsConfigured() bool {
	return s.client != nil
}

// Search executes one grounded query and returns normalized hits. When
// includeText is set, page text is fetched for each hit with bounded
// concurrency; fetch failures leave Text empty and are only logged.
func (s *Service) Search(ctx context.Context, query string, maxResults int, includeText bool) ([]interfaces.SearchHit, error) {
	if !s.IsConfigured() {
		return nil, fmt.Errorf("grounded search is not configured")
	}
	if maxResults <= 0 {
		maxResults = s.searchConfig.MaxResults
	}
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s.waitForRateLimit()

	searchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// Configure search tool
	searchTool := &genai.Tool{GoogleSearch: &genai.GoogleSearch{}}
	config := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{searchTool},
	}

	prompt := fmt.Sprintf(`You are a real estate research assistant. Search the web for the query below.
Report concrete facts with prices, dates, addresses, and property details.
Include all relevant URLs from your search.

Query: %s`, query)

	s.logger.Debug().Str("query", query).Msg("Executing grounded web search")
	s.publishEvent("web_search_started", map[string]interface{}{"query": query})

	resp, err := s.client.Models.GenerateContent(
		searchCtx,
		s.geminiConfig.Model,
		[]*genai.Content{
			genai.NewContentFromText(prompt, genai.RoleUser),
		},
		config,
	)
	if err != nil {
		s.publishEvent("web_search_failed", map[string]interface{}{"query": query, "error": err.Error()})
		return nil, fmt.Errorf("grounded search failed: %w", err)
	}

	hits := s.extractHits(resp, maxResults)

	if includeText && s.fetcher != nil {
		s.attachText(ctx, hits)
	}

	s.logger.Info().
		Str("query", query).
		Int("hits", len(hits)).
		Msg("Grounded web search completed")
	s.publishEvent("web_search_completed", map[string]interface{}{"query": query, "hits": len(hits)})

	return hits, nil
}

// extractHits maps grounding chunks to search hits. Snippets come from the
// grounding support segments that cite each chunk.
func (s *Service) extractHits(resp *genai.GenerateContentResponse, maxResults int) []interfaces.SearchHit {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}

	candidate := resp.Candidates[0]
	if candidate.GroundingMetadata == nil {
		return nil
	}
	gm := candidate.GroundingMetadata

	hits := make([]interfaces.SearchHit, 0, len(gm.GroundingChunks))
	for _, chunk := range gm.GroundingChunks {
		if chunk.Web == nil || chunk.Web.URI == "" {
			continue
		}
		hits = append(hits, interfaces.SearchHit{
			Title: chunk.Web.Title,
			URL:   chunk.Web.URI,
		})
	}

	// Attach the text segments that ground each chunk as its snippet
	for _, support := range gm.GroundingSupports {
		if support.Segment == nil || support.Segment.Text == "" {
			continue
		}
		for _, idx := range support.GroundingChunkIndices {
			i := int(idx)
			if i < 0 || i >= len(hits) {
				continue
			}
			if hits[i].Snippet != "" {
				hits[i].Snippet += " "
			}
			hits[i].Snippet += support.Segment.Text
			if len(hits[i].Snippet) > snippetMaxLen {
				hits[i].Snippet = hits[i].Snippet[:snippetMaxLen]
			}
		}
	}

	if len(hits) > maxResults {
		hits = hits[:maxResults]
	}
	return hits
}

// attachText fetches page text for each hit with bounded concurrency
func (s *Service) attachText(ctx context.Context, hits []interfaces.SearchHit) {
	concurrency := s.searchConfig.FetchConcurrency
	if concurrency <= 0 {
		concurrency = 3
	}

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	for i := range hits {
		if hits[i].URL == "" {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		hit := &hits[i]
		common.SafeGo(s.logger, "fetchHitText", func() {
			defer wg.Done()
			defer func() { <-sem }()

			text, err := s.fetcher.FetchText(ctx, hit.URL)
			if err != nil {
				s.logger.Warn().Err(err).Str("url", hit.URL).Msg("Page fetch failed")
				return
			}
			hit.Text = text
		})
	}
	wg.Wait()
}

// waitForRateLimit enforces the minimum interval between API requests
func (s *Service) waitForRateLimit() {
	if s.rateLimit <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lastRequest.IsZero() {
		elapsed := time.Since(s.lastRequest)
		if elapsed < s.rateLimit {
			waitTime := s.rateLimit - elapsed
			s.logger.Debug().
				Dur("wait_time", waitTime).
				Msg("Rate limiting: waiting before next API call")
			time.Sleep(waitTime)
		}
	}
	s.lastRequest = time.Now()
}

// publishEvent publishes an event via the event service
func (s *Service) publishEvent(eventType string, data map[string]interface{}) {
	if s.eventService == nil {
		return
	}

	data["timestamp"] = time.Now().Format(time.RFC3339)
	event := interfaces.Event{
		Type:    interfaces.EventType(eventType),
		Payload: data,
	}
	if err := s.eventService.Publish(context.Background(), event); err != nil {
		s.logger.Warn().
			Err(err).
			Str("event_type", eventType).
			Msg("Failed to publish event")
	}
}
