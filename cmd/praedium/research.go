// -----------------------------------------------------------------------
// research command - run one job synchronously and print the envelope
// -----------------------------------------------------------------------

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ternarybob/praedium/internal/models"
)

// assumeFlags collects repeated -assume key=value pairs
type assumeFlags map[string]interface{}

func (a assumeFlags) String() string {
	return fmt.Sprintf("%v", map[string]interface{}(a))
}

func (a assumeFlags) Set(value string) error {
	key, raw, found := strings.Cut(value, "=")
	if !found || key == "" {
		return fmt.Errorf("assumption must be key=value, got %q", value)
	}
	a[key] = coerceAssumption(raw)
	return nil
}

// coerceAssumption maps flag strings onto the types ParseAssumptions
// expects: bools, numbers, comma lists, else plain strings
func coerceAssumption(raw string) interface{} {
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if strings.Contains(raw, ",") {
		parts := strings.Split(raw, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return raw
}

func runResearch(args []string) {
	fs := flag.NewFlagSet("research", flag.ExitOnError)
	addr := fs.String("address", "", "Street address to research (required)")
	city := fs.String("city", "", "City")
	state := fs.String("state", "", "State (2-letter code or full name)")
	zip := fs.String("zip", "", "ZIP code")
	apn := fs.String("apn", "", "Assessor's parcel number")
	strategy := fs.String("strategy", "", "Investment strategy: wholesale, flip or rental (default: wholesale)")
	mode := fs.String("mode", "", "Execution mode: pipeline or orchestrated (default: pipeline)")
	maxSteps := fs.Int("max-steps", 0, "Maximum worker executions (overrides config)")
	maxWebCalls := fs.Int("max-web-calls", 0, "Cumulative web call budget (overrides config)")
	maxParallel := fs.Int("max-parallel", 0, "Concurrent workers per batch (overrides config)")
	pretty := fs.Bool("pretty", true, "Indent the output JSON")
	assumptions := assumeFlags{}
	fs.Var(assumptions, "assume", "Assumption key=value (can be specified multiple times)")
	_ = fs.Parse(args)

	if *addr == "" {
		fmt.Fprintln(os.Stderr, "research: -address is required")
		fs.Usage()
		os.Exit(2)
	}

	app, err := newApplication()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}
	defer app.close()

	limits := models.DefaultJobLimits()
	limits.TimeoutSecondsPerStep = int(config.WorkerTimeoutDuration().Seconds())
	if config.Pipeline.MaxSteps > 0 {
		limits.MaxSteps = config.Pipeline.MaxSteps
	}
	if config.Pipeline.MaxWebCalls > 0 {
		limits.MaxWebCalls = config.Pipeline.MaxWebCalls
	}
	if config.Pipeline.MaxParallelAgents > 0 {
		limits.MaxParallelAgents = config.Pipeline.MaxParallelAgents
	}
	if *maxSteps > 0 {
		limits.MaxSteps = *maxSteps
	}
	if *maxWebCalls > 0 {
		limits.MaxWebCalls = *maxWebCalls
	}
	if *maxParallel > 0 {
		limits.MaxParallelAgents = *maxParallel
	}

	input := &models.ResearchInput{
		Address:     *addr,
		City:        *city,
		State:       *state,
		Zip:         *zip,
		APN:         *apn,
		Strategy:    *strategy,
		Mode:        *mode,
		Assumptions: assumptions,
		Limits:      &limits,
	}

	job, err := app.supervisor.RunSync(context.Background(), input)
	if err != nil {
		logger.Error().Err(err).Msg("Research job failed")
		if job == nil {
			os.Exit(1)
		}
	}

	output, err := app.supervisor.GetFullOutput(context.Background(), job.ResearchPropertyID, job.ID)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to assemble output")
		os.Exit(1)
	}

	var encoded []byte
	if *pretty {
		encoded, err = json.MarshalIndent(output, "", "  ")
	} else {
		encoded, err = json.Marshal(output)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to encode output")
		os.Exit(1)
	}
	fmt.Println(string(encoded))

	if job.Status == models.JobStatusFailed {
		os.Exit(1)
	}
}
