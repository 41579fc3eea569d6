// -----------------------------------------------------------------------
// test-data command - seed CRM fixtures for local development
// -----------------------------------------------------------------------

package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/ternarybob/praedium/internal/models"
)

func runTestData(args []string) {
	fs := flag.NewFlagSet("test-data", flag.ExitOnError)
	_ = fs.Parse(args)

	app, err := newApplication()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}
	defer app.close()

	ctx := context.Background()
	now := time.Now().UTC()

	// Target parcel with full enrichment: CRM match, owner skip trace and
	// a Zillow snapshot, so enrichment-gated jobs pass out of the box.
	target, err := app.crm.SeedProperty(ctx, &models.CRMProperty{
		Address:   "123 Main St",
		City:      "Newark",
		State:     "NJ",
		Zip:       "07102",
		APN:       "0703-00123",
		Sqft:      fptr(1450),
		LotSqft:   fptr(3100),
		Beds:      iptr(3),
		Baths:     fptr(1.5),
		YearBuilt: iptr(1952),
		Zoning:    "R-2",
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to seed target property")
		os.Exit(1)
	}

	if _, err := app.crm.SeedSkipTrace(ctx, target.ID, []string{"Maria Alvarez"}, "PO Box 410, Newark, NJ 07101", now.Add(-36*time.Hour)); err != nil {
		logger.Fatal().Err(err).Msg("Failed to seed skip trace")
		os.Exit(1)
	}

	if _, err := app.crm.SeedZillow(ctx, &models.ZillowRecord{
		CRMPropertyID:    target.ID,
		Zestimate:        fptr(415000),
		RentZestimate:    fptr(2450),
		TaxAssessedValue: fptr(298000),
		TaxAnnual:        fptr(9400),
		TaxStatus:        "current",
		PriceHistory: []models.PriceHistoryEvent{
			{Date: tptr(now.AddDate(-4, 0, 0)), Event: "sold", Price: fptr(310000), SourceURL: "https://www.zillow.com/homedetails/123-main-st"},
			{Date: tptr(now.AddDate(-4, -2, 0)), Event: "listed", Price: fptr(325000), SourceURL: "https://www.zillow.com/homedetails/123-main-st"},
		},
		UpdatedAt: now.Add(-12 * time.Hour),
	}); err != nil {
		logger.Fatal().Err(err).Msg("Failed to seed Zillow enrichment")
		os.Exit(1)
	}

	// Recently sold neighbors for the sales comp pool
	sales := []models.CRMProperty{
		{Address: "127 Main St", Zip: "07102", Sqft: fptr(1400), Beds: iptr(3), Baths: fptr(1.5), YearBuilt: iptr(1950), LastSaleDate: tptr(now.AddDate(0, -2, 0)), LastSalePrice: fptr(400000)},
		{Address: "98 Spruce St", Zip: "07102", Sqft: fptr(1500), Beds: iptr(3), Baths: fptr(2), YearBuilt: iptr(1948), LastSaleDate: tptr(now.AddDate(0, -4, 0)), LastSalePrice: fptr(420000)},
		{Address: "15 Court St", Zip: "07102", Sqft: fptr(1550), Beds: iptr(4), Baths: fptr(2), YearBuilt: iptr(1955), LastSaleDate: tptr(now.AddDate(0, -6, 0)), LastSalePrice: fptr(440000)},
	}
	for i := range sales {
		sales[i].City = "Newark"
		sales[i].State = "NJ"
		sales[i].CreatedAt = now
		sales[i].UpdatedAt = now
		if _, err := app.crm.SeedProperty(ctx, &sales[i]); err != nil {
			logger.Fatal().Err(err).Str("address", sales[i].Address).Msg("Failed to seed sales comp")
			os.Exit(1)
		}
	}

	// Neighbors with rent signals for the rental comp pool
	rentals := []struct {
		property models.CRMProperty
		rent     float64
	}{
		{models.CRMProperty{Address: "131 Main St", Zip: "07102", Sqft: fptr(1380), Beds: iptr(3), Baths: fptr(1)}, 2300},
		{models.CRMProperty{Address: "44 Academy St", Zip: "07102", Sqft: fptr(1520), Beds: iptr(3), Baths: fptr(2)}, 2550},
	}
	for i := range rentals {
		rentals[i].property.City = "Newark"
		rentals[i].property.State = "NJ"
		rentals[i].property.CreatedAt = now
		rentals[i].property.UpdatedAt = now
		seeded, err := app.crm.SeedProperty(ctx, &rentals[i].property)
		if err != nil {
			logger.Fatal().Err(err).Str("address", rentals[i].property.Address).Msg("Failed to seed rental comp")
			os.Exit(1)
		}
		if _, err := app.crm.SeedZillow(ctx, &models.ZillowRecord{
			CRMPropertyID: seeded.ID,
			RentZestimate: fptr(rentals[i].rent),
			UpdatedAt:     now,
		}); err != nil {
			logger.Fatal().Err(err).Str("address", rentals[i].property.Address).Msg("Failed to seed rental signal")
			os.Exit(1)
		}
	}

	logger.Info().
		Str("target", "123 Main St, Newark, NJ 07102").
		Int("sales_comps", len(sales)).
		Int("rental_comps", len(rentals)).
		Msg("CRM fixtures seeded")
}

func fptr(v float64) *float64 { return &v }

func iptr(v int) *int { return &v }

func tptr(v time.Time) *time.Time { return &v }
