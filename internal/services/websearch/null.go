package websearch

import (
	"context"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/praedium/internal/interfaces"
)

// NullSearch is the provider wired when grounded search is disabled.
// Workers see it as unconfigured and record an unknown instead of calling.
type NullSearch struct {
	logger arbor.ILogger
}

// NewNullSearch creates the disabled search provider
func NewNullSearch(logger arbor.ILogger) *NullSearch {
	return &NullSearch{logger: logger}
}

// Name identifies the provider in logs and worker output
func (n *NullSearch) Name() string {
	return "null"
}

// IsConfigured always reports false
func (n *NullSearch) IsConfigured() bool {
	return false
}

// Search returns no hits. Callers that respect IsConfigured never reach
// this; the debug log catches the ones that do not.
func (n *NullSearch) Search(ctx context.Context, query string, maxResults int, includeText bool) ([]interfaces.SearchHit, error) {
	n.logger.Debug().Str("query", query).Msg("Search skipped: provider disabled")
	return []interfaces.SearchHit{}, nil
}
