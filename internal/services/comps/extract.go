// -----------------------------------------------------------------------
// Comp Extraction - Pull candidate rows out of raw search hit text
// -----------------------------------------------------------------------

package comps

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// maxAddressMatches caps how many addresses one hit may contribute
	maxAddressMatches = 40
	// contextWindow is how many characters around an address are parsed
	contextWindow = 260
	// maxRentDollars rejects sale-scale numbers from the rent parser
	maxRentDollars = 15000
	// minSaleDollars rejects rent-scale numbers from the sale parser
	minSaleDollars = 50000
)

var (
	// addressPattern matches "123 Main St, Newark, NJ 07102" shapes with
	// the street, city, state and zip captured
	addressPattern = regexp.MustCompile(`(\d{1,6}\s+[A-Za-z0-9 .#-]+),\s*([A-Za-z .-]+),\s*([A-Z]{2})\s*(\d{5})`)

	dollarPattern = regexp.MustCompile(`\$([0-9][0-9,]*)`)
	rentPattern   = regexp.MustCompile(`(?i)\$([0-9][0-9,]*)\s*/\s*mo`)
	bedsPattern   = regexp.MustCompile(`(?i)(\d{1,2})\s*(bds?|beds?)`)
	bathsPattern  = regexp.MustCompile(`(?i)(\d{1,2}(?:\.\d+)?)\s*(ba|baths?)`)
	sqftPattern   = regexp.MustCompile(`(?i)([0-9][0-9,]{2,})\s*(sq ?ft|sqft)`)

	daysOnPattern    = regexp.MustCompile(`(?i)(\d+)\s+days on zillow`)
	monthDatePattern = regexp.MustCompile(`(?i)(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{1,2}),?\s+(\d{4})`)
)

var monthsByName = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

// ExtractedRow is one candidate parsed out of listing text
type ExtractedRow struct {
	Address string
	City    string
	State   string
	Zip     string
	Price   *float64
	Date    *time.Time
	Sqft    *float64
	Beds    *int
	Baths   *float64
}

// ExtractRows scans hit text for address-anchored listing fragments and
// parses price, layout and date out of the surrounding window. Rows missing
// a price or date are dropped.
func ExtractRows(text string, kind Kind, publishedDate *time.Time, today time.Time) []ExtractedRow {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	matches := addressPattern.FindAllStringSubmatchIndex(text, maxAddressMatches)
	rows := make([]ExtractedRow, 0, len(matches))

	for _, m := range matches {
		start, end := m[0], m[1]
		winStart := start - contextWindow
		if winStart < 0 {
			winStart = 0
		}
		winEnd := end + contextWindow
		if winEnd > len(text) {
			winEnd = len(text)
		}
		window := text[winStart:winEnd]

		row := ExtractedRow{
			Address: strings.TrimSpace(text[start:end]),
			City:    strings.TrimSpace(text[m[4]:m[5]]),
			State:   strings.TrimSpace(text[m[6]:m[7]]),
			Zip:     strings.TrimSpace(text[m[8]:m[9]]),
		}

		row.Price = parsePrice(window, kind)
		row.Date = parseDate(window, publishedDate, today)
		row.Sqft = parseSqft(window)
		row.Beds = parseBeds(window)
		row.Baths = parseBaths(window)

		if row.Price == nil || row.Date == nil {
			continue
		}
		rows = append(rows, row)
	}

	return rows
}

// parsePrice reads a dollar figure appropriate for the comp kind. Rentals
// prefer an explicit "/mo" amount; sales take the first sale-scale amount.
func parsePrice(window string, kind Kind) *float64 {
	if kind == KindRentals {
		if m := rentPattern.FindStringSubmatch(window); m != nil {
			if v, ok := parseDollars(m[1]); ok && v <= maxRentDollars {
				return &v
			}
		}
		for _, m := range dollarPattern.FindAllStringSubmatch(window, -1) {
			if v, ok := parseDollars(m[1]); ok && v <= maxRentDollars {
				return &v
			}
		}
		return nil
	}

	for _, m := range dollarPattern.FindAllStringSubmatch(window, -1) {
		if v, ok := parseDollars(m[1]); ok && v >= minSaleDollars {
			return &v
		}
	}
	return nil
}

// parseDate resolves the listing date: "N days on zillow" wins, then an
// explicit month-name date, then the hit's published date.
func parseDate(window string, publishedDate *time.Time, today time.Time) *time.Time {
	if m := daysOnPattern.FindStringSubmatch(window); m != nil {
		if days, err := strconv.Atoi(m[1]); err == nil {
			d := today.AddDate(0, 0, -days)
			return &d
		}
	}
	if m := monthDatePattern.FindStringSubmatch(window); m != nil {
		month := monthsByName[strings.ToLower(m[1])]
		day, dayErr := strconv.Atoi(m[2])
		year, yearErr := strconv.Atoi(m[3])
		if dayErr == nil && yearErr == nil && day >= 1 && day <= 31 {
			d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	return publishedDate
}

func parseSqft(window string) *float64 {
	if m := sqftPattern.FindStringSubmatch(window); m != nil {
		if v, ok := parseDollars(m[1]); ok {
			return &v
		}
	}
	return nil
}

func parseBeds(window string) *int {
	if m := bedsPattern.FindStringSubmatch(window); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			return &v
		}
	}
	return nil
}

func parseBaths(window string) *float64 {
	if m := bathsPattern.FindStringSubmatch(window); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return &v
		}
	}
	return nil
}

// parseDollars strips thousands separators and parses the number
func parseDollars(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
