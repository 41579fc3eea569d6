package comps

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var extractToday = time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC)

func TestExtractRows_Sales(t *testing.T) {
	text := `Recently sold: 123 Main St, Newark, NJ 07102 sold for $420,000 on June 3, 2026.
3 bds 2 ba 1,540 sqft single family home in a quiet block.`

	rows := ExtractRows(text, KindSales, nil, extractToday)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "123 Main St, Newark, NJ 07102", row.Address)
	assert.Equal(t, "Newark", row.City)
	assert.Equal(t, "NJ", row.State)
	assert.Equal(t, "07102", row.Zip)
	require.NotNil(t, row.Price)
	assert.Equal(t, 420000.0, *row.Price)
	require.NotNil(t, row.Date)
	assert.Equal(t, time.Date(2026, time.June, 3, 0, 0, 0, 0, time.UTC), *row.Date)
	require.NotNil(t, row.Sqft)
	assert.Equal(t, 1540.0, *row.Sqft)
	require.NotNil(t, row.Beds)
	assert.Equal(t, 3, *row.Beds)
	require.NotNil(t, row.Baths)
	assert.Equal(t, 2.0, *row.Baths)
}

func TestExtractRows_RentalsPreferMonthlyAmount(t *testing.T) {
	text := `For rent: 55 Oak Ave, Newark, NJ 07104 listed at $2,200/mo, deposit $4,400. 2 bds 1 ba. 12 days on Zillow.`

	rows := ExtractRows(text, KindRentals, nil, extractToday)
	require.Len(t, rows, 1)

	row := rows[0]
	require.NotNil(t, row.Price)
	assert.Equal(t, 2200.0, *row.Price)
	require.NotNil(t, row.Date)
	assert.Equal(t, extractToday.AddDate(0, 0, -12), *row.Date)
}

func TestExtractRows_SalesIgnoresRentScaleAmounts(t *testing.T) {
	text := `Sold: 9 Pine Rd, Trenton, NJ 08608 with taxes of $4,100 and price $380,000, May 2, 2026.`

	rows := ExtractRows(text, KindSales, nil, extractToday)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].Price)
	assert.Equal(t, 380000.0, *rows[0].Price)
}

func TestExtractRows_RejectsRowsWithoutPriceOrDate(t *testing.T) {
	t.Run("No price", func(t *testing.T) {
		text := `Listing: 77 Elm St, Camden, NJ 08102 sold on June 3, 2026. 3 bds.`
		assert.Empty(t, ExtractRows(text, KindSales, nil, extractToday))
	})

	t.Run("No date", func(t *testing.T) {
		text := `Listing: 77 Elm St, Camden, NJ 08102 priced at $310,000. 3 bds.`
		assert.Empty(t, ExtractRows(text, KindSales, nil, extractToday))
	})

	t.Run("No date falls back to published date", func(t *testing.T) {
		published := time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)
		text := `Listing: 77 Elm St, Camden, NJ 08102 priced at $310,000. 3 bds.`
		rows := ExtractRows(text, KindSales, &published, extractToday)
		require.Len(t, rows, 1)
		require.NotNil(t, rows[0].Date)
		assert.Equal(t, published, *rows[0].Date)
	})
}

func TestExtractRows_MultipleAddresses(t *testing.T) {
	text := `12 First St, Newark, NJ 07102 sold $400,000 June 1, 2026. ` +
		`34 Second St, Newark, NJ 07102 sold $410,000 June 8, 2026. ` +
		`56 Third St, Newark, NJ 07102 sold $430,000 June 20, 2026.`

	rows := ExtractRows(text, KindSales, nil, extractToday)
	assert.Len(t, rows, 3)
}

func TestExtractRows_EmptyText(t *testing.T) {
	assert.Empty(t, ExtractRows("", KindSales, nil, extractToday))
	assert.Empty(t, ExtractRows("   ", KindRentals, nil, extractToday))
}
