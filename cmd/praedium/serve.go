// -----------------------------------------------------------------------
// serve command - refresh scheduler + storage maintenance loops
// -----------------------------------------------------------------------

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/praedium/internal/services/scheduler"
	storagebadger "github.com/ternarybob/praedium/internal/storage/badger"
)

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	_ = fs.Parse(args)

	app, err := newApplication()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}
	defer app.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Value-log GC only matters for a long-lived process
	if manager, ok := app.storage.(*storagebadger.Manager); ok {
		go manager.RunGC(ctx, config.GCIntervalDuration())
	}

	refreshSvc := scheduler.NewService(app.supervisor, logger)
	registered := 0
	for _, def := range config.Refresh {
		if err := refreshSvc.Register(def); err != nil {
			logger.Warn().Err(err).Str("definition", def.Name).Msg("Skipping refresh definition")
			continue
		}
		registered++
	}

	if config.Scheduler.Enabled && registered > 0 {
		if err := refreshSvc.Start(); err != nil {
			logger.Fatal().Err(err).Msg("Failed to start refresh scheduler")
			os.Exit(1)
		}
		defer func() { _ = refreshSvc.Stop() }()
	} else {
		logger.Info().
			Bool("enabled", config.Scheduler.Enabled).
			Int("definitions", registered).
			Msg("Refresh scheduler idle")
	}

	logger.Info().Msg("Praedium running - Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("Interrupt signal received, shutting down")
}
