package dossier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/praedium/internal/models"
)

func TestStructuredCitations(t *testing.T) {
	evidence := []*models.EvidenceItem{
		{ID: "ev-1", SourceURL: "https://geocode.maps.co/search"},
		{ID: "ev-2", SourceURL: ""},
		{ID: "ev-3", SourceURL: "internal://crm/p-2"},
	}

	citations := StructuredCitations(evidence)
	require.Len(t, citations, 2)
	assert.Equal(t, models.Citation{EvidenceID: "ev-1", SourceURL: "https://geocode.maps.co/search"}, citations[0])
	assert.Equal(t, models.Citation{EvidenceID: "ev-3", SourceURL: "internal://crm/p-2"}, citations[1])
}

func TestStructuredCitations_Empty(t *testing.T) {
	assert.Empty(t, StructuredCitations(nil))
}

func TestNarrativeCitations(t *testing.T) {
	markdown := "The [comp at 12 Elm St](https://www.zillow.com/homedetails/12-elm) anchors the ARV.\n\n" +
		"Flood data: <https://hazards.fema.gov/gis/nfhl>\n\n" +
		"See [the same comp again](https://www.zillow.com/homedetails/12-elm) for detail."
	evidence := []*models.EvidenceItem{
		{ID: "ev-9", SourceURL: "https://www.zillow.com/homedetails/12-elm"},
	}

	citations := NarrativeCitations(markdown, evidence)
	require.Len(t, citations, 2)

	// matched link binds to its evidence row, repeat link deduplicated
	assert.Equal(t, "ev-9", citations[0].EvidenceID)
	assert.Equal(t, "https://www.zillow.com/homedetails/12-elm", citations[0].SourceURL)

	// autolink with no stored evidence keeps an empty id
	assert.Equal(t, "", citations[1].EvidenceID)
	assert.Equal(t, "https://hazards.fema.gov/gis/nfhl", citations[1].SourceURL)
}

func TestNarrativeCitations_NoLinks(t *testing.T) {
	citations := NarrativeCitations("Plain prose without any links.", nil)
	assert.Empty(t, citations)
}

func TestNarrativeCitations_FirstEvidenceWins(t *testing.T) {
	markdown := "[comp](https://www.zillow.com/homedetails/12-elm)"
	evidence := []*models.EvidenceItem{
		{ID: "ev-1", SourceURL: "https://www.zillow.com/homedetails/12-elm"},
		{ID: "ev-2", SourceURL: "https://www.zillow.com/homedetails/12-elm"},
	}

	citations := NarrativeCitations(markdown, evidence)
	require.Len(t, citations, 1)
	assert.Equal(t, "ev-1", citations[0].EvidenceID)
}
