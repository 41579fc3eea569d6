// -----------------------------------------------------------------------
// Dossier Citations - Bind memo links back to stored evidence
// -----------------------------------------------------------------------

package dossier

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/ternarybob/praedium/internal/models"
)

// StructuredCitations cites every evidence item that carries a source
// URL, preserving store order. Used for the fallback dossier, which
// embeds the full evidence table rather than inline links.
func StructuredCitations(evidence []*models.EvidenceItem) []models.Citation {
	citations := make([]models.Citation, 0, len(evidence))
	for _, item := range evidence {
		if item.SourceURL == "" {
			continue
		}
		citations = append(citations, models.Citation{EvidenceID: item.ID, SourceURL: item.SourceURL})
	}
	return citations
}

// NarrativeCitations extracts markdown links from model prose and binds
// each to the evidence item sharing its URL. Links are deduplicated in
// order of first appearance; a link with no matching evidence keeps an
// empty evidence id.
func NarrativeCitations(markdown string, evidence []*models.EvidenceItem) []models.Citation {
	source := []byte(markdown)
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(source))

	// First item wins when several evidence rows share a URL.
	byURL := make(map[string]string, len(evidence))
	for _, item := range evidence {
		if item.SourceURL == "" {
			continue
		}
		if _, exists := byURL[item.SourceURL]; !exists {
			byURL[item.SourceURL] = item.ID
		}
	}

	seen := map[string]bool{}
	citations := []models.Citation{}
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		var dest string
		switch node := n.(type) {
		case *ast.Link:
			dest = string(node.Destination)
		case *ast.AutoLink:
			dest = string(node.URL(source))
		}
		if dest == "" || seen[dest] {
			return ast.WalkContinue, nil
		}
		seen[dest] = true
		citations = append(citations, models.Citation{EvidenceID: byURL[dest], SourceURL: dest})
		return ast.WalkContinue, nil
	})
	return citations
}
