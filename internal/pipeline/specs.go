// -----------------------------------------------------------------------
// Agent Specs - Worker names, dependency graph and mode selection
// -----------------------------------------------------------------------

package pipeline

// Canonical worker names. The pipeline mode runs the nine core workers
// in this declaration order; orchestrated mode schedules them by
// dependency.
const (
	WorkerNormalizeGeocode    = "normalize_geocode"
	WorkerPublicRecords       = "public_records"
	WorkerPermitsViolations   = "permits_violations"
	WorkerCompsSales          = "comps_sales"
	WorkerCompsRentals        = "comps_rentals"
	WorkerNeighborhoodIntel   = "neighborhood_intel"
	WorkerFloodZone           = "flood_zone"
	WorkerUnderwriting        = "underwriting"
	WorkerDossierWriter       = "dossier_writer"
	WorkerSubdivisionResearch = "subdivision_research"
)

// Environmental and listing-data worker names
const (
	WorkerEPAEnvironmental = "epa_environmental"
	WorkerWildfireHazard   = "wildfire_hazard"
	WorkerHUDOpportunity   = "hud_opportunity"
	WorkerWetlands         = "wetlands"
	WorkerHistoricPlaces   = "historic_places"
	WorkerSeismicHazard    = "seismic_hazard"
	WorkerSchoolDistrict   = "school_district"
	WorkerUSRealEstate     = "us_real_estate"
	WorkerWalkScore        = "walk_score"
	WorkerRedfin           = "redfin"
	WorkerRentCast         = "rentcast"
)

// ExtensiveWorkers lists the environmental and listing-data workers the
// "extensive" extra-agents token adds, in scheduling order. Each depends
// on normalize_geocode and feeds dossier_writer.
var ExtensiveWorkers = []string{
	WorkerEPAEnvironmental,
	WorkerWildfireHazard,
	WorkerHUDOpportunity,
	WorkerWetlands,
	WorkerHistoricPlaces,
	WorkerSeismicHazard,
	WorkerSchoolDistrict,
	WorkerUSRealEstate,
	WorkerWalkScore,
	WorkerRedfin,
	WorkerRentCast,
}

// Extra-agent tokens accepted in assumptions.extra_agents
const (
	ExtraAgentSubdivision = WorkerSubdivisionResearch
	ExtraAgentExtensive   = "extensive"
)

// AgentSpec names one schedulable worker and its dependencies
type AgentSpec struct {
	Name string
	Deps []string
}

// CoreSpecs returns the nine core workers in pipeline order with their
// orchestration dependencies.
func CoreSpecs() []AgentSpec {
	geocode := []string{WorkerNormalizeGeocode}
	return []AgentSpec{
		{Name: WorkerNormalizeGeocode},
		{Name: WorkerPublicRecords, Deps: geocode},
		{Name: WorkerPermitsViolations, Deps: geocode},
		{Name: WorkerCompsSales, Deps: geocode},
		{Name: WorkerCompsRentals, Deps: geocode},
		{Name: WorkerNeighborhoodIntel, Deps: geocode},
		{Name: WorkerFloodZone, Deps: geocode},
		{Name: WorkerUnderwriting, Deps: []string{WorkerNormalizeGeocode, WorkerCompsSales, WorkerCompsRentals}},
		{Name: WorkerDossierWriter, Deps: []string{
			WorkerNormalizeGeocode, WorkerPublicRecords, WorkerPermitsViolations,
			WorkerCompsSales, WorkerCompsRentals, WorkerNeighborhoodIntel,
			WorkerFloodZone, WorkerUnderwriting,
		}},
	}
}

// BuildSpecs produces the scheduled worker list for a job. Extra agents
// apply in orchestrated mode only and are suppressed when max_steps has
// no room beyond the core set. Dependencies on workers that did not make
// the schedule are pruned so the graph stays solvable.
func BuildSpecs(mode string, extraAgents []string, maxSteps int) []AgentSpec {
	core := CoreSpecs()

	requested := make(map[string]bool, len(extraAgents))
	for _, token := range extraAgents {
		requested[token] = true
	}

	specs := core
	if mode == "orchestrated" && maxSteps > len(core) {
		var extras []AgentSpec
		if requested[ExtraAgentSubdivision] {
			extras = append(extras, AgentSpec{Name: WorkerSubdivisionResearch, Deps: []string{WorkerNormalizeGeocode}})
		}
		if requested[ExtraAgentExtensive] {
			for _, name := range ExtensiveWorkers {
				extras = append(extras, AgentSpec{Name: name, Deps: []string{WorkerNormalizeGeocode}})
			}
		}

		if len(extras) > 0 {
			// extras slot in after the core fan-out, before underwriting,
			// so the dossier still runs last
			specs = make([]AgentSpec, 0, len(core)+len(extras))
			specs = append(specs, core[:len(core)-2]...)
			specs = append(specs, extras...)
			specs = append(specs, core[len(core)-2:]...)

			dossierDeps := append([]string{}, core[len(core)-1].Deps...)
			for _, extra := range extras {
				dossierDeps = append(dossierDeps, extra.Name)
			}
			specs[len(specs)-1].Deps = dossierDeps
		}
	}

	if maxSteps > 0 && maxSteps < len(specs) {
		specs = specs[:maxSteps]
	}

	return pruneDeps(specs)
}

// pruneDeps drops dependency references to workers outside the schedule
func pruneDeps(specs []AgentSpec) []AgentSpec {
	scheduled := make(map[string]bool, len(specs))
	for _, spec := range specs {
		scheduled[spec.Name] = true
	}

	out := make([]AgentSpec, len(specs))
	for i, spec := range specs {
		kept := make([]string, 0, len(spec.Deps))
		for _, dep := range spec.Deps {
			if scheduled[dep] {
				kept = append(kept, dep)
			}
		}
		out[i] = AgentSpec{Name: spec.Name, Deps: kept}
	}
	return out
}
