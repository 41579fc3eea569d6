package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func specNames(specs []AgentSpec) []string {
	names := make([]string, 0, len(specs))
	for _, spec := range specs {
		names = append(names, spec.Name)
	}
	return names
}

func specByName(t *testing.T, specs []AgentSpec, name string) AgentSpec {
	t.Helper()
	for _, spec := range specs {
		if spec.Name == name {
			return spec
		}
	}
	t.Fatalf("spec %s not found", name)
	return AgentSpec{}
}

func TestCoreSpecs_OrderAndGraph(t *testing.T) {
	specs := CoreSpecs()

	require.Len(t, specs, 9)
	assert.Equal(t, []string{
		WorkerNormalizeGeocode,
		WorkerPublicRecords,
		WorkerPermitsViolations,
		WorkerCompsSales,
		WorkerCompsRentals,
		WorkerNeighborhoodIntel,
		WorkerFloodZone,
		WorkerUnderwriting,
		WorkerDossierWriter,
	}, specNames(specs))

	assert.Empty(t, specs[0].Deps)
	assert.Equal(t, []string{WorkerNormalizeGeocode}, specByName(t, specs, WorkerPublicRecords).Deps)
	assert.Equal(t, []string{WorkerNormalizeGeocode, WorkerCompsSales, WorkerCompsRentals},
		specByName(t, specs, WorkerUnderwriting).Deps)

	// the dossier waits on every other core worker
	assert.Len(t, specByName(t, specs, WorkerDossierWriter).Deps, 8)
}

func TestBuildSpecs_PipelineIgnoresExtras(t *testing.T) {
	specs := BuildSpecs("pipeline", []string{ExtraAgentExtensive, ExtraAgentSubdivision}, 30)

	require.Len(t, specs, 9)
	assert.NotContains(t, specNames(specs), WorkerSubdivisionResearch)
	assert.NotContains(t, specNames(specs), WorkerEPAEnvironmental)
}

func TestBuildSpecs_OrchestratedExtensive(t *testing.T) {
	specs := BuildSpecs("orchestrated", []string{ExtraAgentExtensive}, 25)

	require.Len(t, specs, 20)

	names := specNames(specs)
	assert.Equal(t, WorkerNormalizeGeocode, names[0])
	assert.Equal(t, WorkerDossierWriter, names[len(names)-1])
	assert.Equal(t, WorkerUnderwriting, names[len(names)-2])

	// every extensive worker hangs off the geocode and feeds the dossier
	dossier := specByName(t, specs, WorkerDossierWriter)
	require.Len(t, dossier.Deps, 19)
	for _, name := range ExtensiveWorkers {
		extra := specByName(t, specs, name)
		assert.Equal(t, []string{WorkerNormalizeGeocode}, extra.Deps)
		assert.Contains(t, dossier.Deps, name)
	}
}

func TestBuildSpecs_SubdivisionToken(t *testing.T) {
	specs := BuildSpecs("orchestrated", []string{ExtraAgentSubdivision}, 20)

	require.Len(t, specs, 10)
	subdivision := specByName(t, specs, WorkerSubdivisionResearch)
	assert.Equal(t, []string{WorkerNormalizeGeocode}, subdivision.Deps)
	assert.Contains(t, specByName(t, specs, WorkerDossierWriter).Deps, WorkerSubdivisionResearch)
}

func TestBuildSpecs_SubdivisionPrecedesExtensive(t *testing.T) {
	specs := BuildSpecs("orchestrated", []string{ExtraAgentExtensive, ExtraAgentSubdivision}, 30)

	require.Len(t, specs, 21)
	names := specNames(specs)

	subdivisionAt, epaAt := -1, -1
	for i, name := range names {
		switch name {
		case WorkerSubdivisionResearch:
			subdivisionAt = i
		case WorkerEPAEnvironmental:
			epaAt = i
		}
	}
	require.NotEqual(t, -1, subdivisionAt)
	require.NotEqual(t, -1, epaAt)
	assert.Less(t, subdivisionAt, epaAt)
}

func TestBuildSpecs_DuplicateTokens(t *testing.T) {
	specs := BuildSpecs("orchestrated", []string{ExtraAgentExtensive, ExtraAgentExtensive}, 30)
	assert.Len(t, specs, 20)
}

func TestBuildSpecs_NoRoomSuppressesExtras(t *testing.T) {
	specs := BuildSpecs("orchestrated", []string{ExtraAgentExtensive}, 9)

	require.Len(t, specs, 9)
	assert.NotContains(t, specNames(specs), WorkerEPAEnvironmental)
}

func TestBuildSpecs_MaxStepsTruncatesAndPrunes(t *testing.T) {
	specs := BuildSpecs("pipeline", nil, 3)

	require.Len(t, specs, 3)
	assert.Equal(t, []string{
		WorkerNormalizeGeocode,
		WorkerPublicRecords,
		WorkerPermitsViolations,
	}, specNames(specs))

	scheduled := map[string]bool{}
	for _, spec := range specs {
		scheduled[spec.Name] = true
	}
	for _, spec := range specs {
		for _, dep := range spec.Deps {
			assert.True(t, scheduled[dep], "spec %s depends on unscheduled %s", spec.Name, dep)
		}
	}
}
