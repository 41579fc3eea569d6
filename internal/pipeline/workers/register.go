// -----------------------------------------------------------------------
// Worker Registration - Builds the full worker fleet
// -----------------------------------------------------------------------

package workers

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/praedium/internal/interfaces"
	"github.com/ternarybob/praedium/internal/pipeline"
	"github.com/ternarybob/praedium/internal/services/comps"
	"github.com/ternarybob/praedium/internal/services/crm"
)

// Deps carries the adapters and services the worker fleet is built from.
// Nil adapters are valid; the workers that depend on them degrade.
type Deps struct {
	Geocoder  interfaces.Geocoder
	Search    interfaces.SearchProvider
	GIS       interfaces.GISLookups
	Narrative interfaces.NarrativeLLM
	CRM       *crm.Service
	Comps     *comps.Service
	Storage   interfaces.StorageManager
	Logger    arbor.ILogger
}

// RegisterAll builds every worker the scheduler can name and registers
// it with the registry
func RegisterAll(registry *pipeline.Registry, deps Deps) {
	fleet := []pipeline.Worker{
		NewGeocodeWorker(deps.Geocoder, deps.CRM, deps.Storage, deps.Logger),
		NewPublicRecordsWorker(deps.Search, deps.Logger),
		NewPermitsWorker(deps.Search, deps.Logger),
		NewSalesCompsWorker(deps.Comps, deps.Storage, deps.Logger),
		NewRentalCompsWorker(deps.Comps, deps.Storage, deps.Logger),
		NewNeighborhoodWorker(deps.Search, deps.Logger),
		NewFloodZoneWorker(deps.GIS, deps.Logger),
		NewUnderwriteWorker(deps.Storage, deps.Logger),
		NewDossierWorker(deps.Narrative, deps.Storage, deps.Logger),

		NewSubdivisionWorker(deps.Search, deps.Logger),
		NewEPAWorker(deps.GIS, deps.Logger),
		NewWildfireWorker(deps.GIS, deps.Logger),
		NewHUDWorker(deps.GIS, deps.Logger),
		NewWetlandsWorker(deps.GIS, deps.Logger),
		NewHistoricPlacesWorker(deps.GIS, deps.Logger),
		NewSeismicWorker(deps.GIS, deps.Logger),
		NewSchoolDistrictWorker(deps.GIS, deps.Logger),
		NewUSRealEstateWorker(deps.GIS, deps.Logger),
		NewWalkScoreWorker(deps.GIS, deps.Logger),
		NewRedfinWorker(deps.GIS, deps.Logger),
		NewRentCastWorker(deps.GIS, deps.Logger),
	}

	for _, worker := range fleet {
		registry.Register(worker)
	}
}
