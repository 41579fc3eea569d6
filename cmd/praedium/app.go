// -----------------------------------------------------------------------
// Application wiring - adapters, services and the pipeline supervisor
// -----------------------------------------------------------------------

package main

import (
	"fmt"

	"github.com/ternarybob/praedium/internal/interfaces"
	"github.com/ternarybob/praedium/internal/pipeline"
	"github.com/ternarybob/praedium/internal/pipeline/workers"
	"github.com/ternarybob/praedium/internal/services/comps"
	"github.com/ternarybob/praedium/internal/services/crm"
	"github.com/ternarybob/praedium/internal/services/events"
	"github.com/ternarybob/praedium/internal/services/evidence"
	"github.com/ternarybob/praedium/internal/services/geocoder"
	"github.com/ternarybob/praedium/internal/services/gis"
	"github.com/ternarybob/praedium/internal/services/narrative"
	"github.com/ternarybob/praedium/internal/services/webfetch"
	"github.com/ternarybob/praedium/internal/services/websearch"
	storagebadger "github.com/ternarybob/praedium/internal/storage/badger"
)

// application holds every wired component for one process
type application struct {
	storage    interfaces.StorageManager
	events     interfaces.EventService
	crm        *crm.Service
	supervisor *pipeline.Supervisor
	fetcher    *webfetch.Service
}

// newApplication wires storage, adapters, the worker fleet and the
// supervisor from the loaded configuration
func newApplication() (*application, error) {
	storage, err := storagebadger.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	eventService := events.NewService(logger)
	if err := events.SubscribeLoggerToAllEvents(eventService, logger); err != nil {
		logger.Warn().Err(err).Msg("Failed to subscribe event logger")
	}

	fetcher := webfetch.NewService(&config.Fetch, logger)
	search, err := websearch.NewService(config, fetcher, eventService, logger)
	if err != nil {
		_ = storage.Close()
		return nil, fmt.Errorf("failed to initialize search provider: %w", err)
	}

	gisClient := gis.NewClient(&config.GIS, logger)
	crmSvc := crm.NewService(storage.CRM(), logger)

	registry := pipeline.NewRegistry(logger)
	workers.RegisterAll(registry, workers.Deps{
		Geocoder:  geocoder.NewService(&config.Geocoder, eventService, logger),
		Search:    search,
		GIS:       gis.NewLookups(gisClient, &config.GIS, logger),
		Narrative: narrative.NewService(config, logger),
		CRM:       crmSvc,
		Comps:     comps.NewService(storage.CRM(), search, logger),
		Storage:   storage,
		Logger:    logger,
	})

	runner := pipeline.NewRunner(storage, evidence.NewService(storage.Evidence(), logger), eventService, logger)
	scheduler := pipeline.NewScheduler(registry, runner, storage, logger)
	assembler := pipeline.NewAssembler(storage, logger)
	supervisor := pipeline.NewSupervisor(storage, crmSvc, scheduler, assembler, eventService, logger)

	return &application{
		storage:    storage,
		events:     eventService,
		crm:        crmSvc,
		supervisor: supervisor,
		fetcher:    fetcher,
	}, nil
}

// close releases every held resource in reverse wiring order
func (a *application) close() {
	a.fetcher.Close()
	if err := a.events.Close(); err != nil {
		logger.Warn().Err(err).Msg("Event service close failed")
	}
	if err := a.storage.Close(); err != nil {
		logger.Warn().Err(err).Msg("Storage close failed")
	}
}
