// -----------------------------------------------------------------------
// Address Normalizer - Canonical address strings and US state codes
// -----------------------------------------------------------------------

package address

import (
	"regexp"
	"strings"
)

// stateCodes maps lowercased full state names to two-letter postal codes
var stateCodes = map[string]string{
	"alabama":              "AL",
	"alaska":               "AK",
	"arizona":              "AZ",
	"arkansas":             "AR",
	"california":           "CA",
	"colorado":             "CO",
	"connecticut":          "CT",
	"delaware":             "DE",
	"district of columbia": "DC",
	"florida":              "FL",
	"georgia":              "GA",
	"hawaii":               "HI",
	"idaho":                "ID",
	"illinois":             "IL",
	"indiana":              "IN",
	"iowa":                 "IA",
	"kansas":               "KS",
	"kentucky":             "KY",
	"louisiana":            "LA",
	"maine":                "ME",
	"maryland":             "MD",
	"massachusetts":        "MA",
	"michigan":             "MI",
	"minnesota":            "MN",
	"mississippi":          "MS",
	"missouri":             "MO",
	"montana":              "MT",
	"nebraska":             "NE",
	"nevada":               "NV",
	"new hampshire":        "NH",
	"new jersey":           "NJ",
	"new mexico":           "NM",
	"new york":             "NY",
	"north carolina":       "NC",
	"north dakota":         "ND",
	"ohio":                 "OH",
	"oklahoma":             "OK",
	"oregon":               "OR",
	"pennsylvania":         "PA",
	"puerto rico":          "PR",
	"rhode island":         "RI",
	"south carolina":       "SC",
	"south dakota":         "SD",
	"tennessee":            "TN",
	"texas":                "TX",
	"utah":                 "UT",
	"vermont":              "VT",
	"virginia":             "VA",
	"washington":           "WA",
	"west virginia":        "WV",
	"wisconsin":            "WI",
	"wyoming":              "WY",
}

var (
	nonAddressChars = regexp.MustCompile(`[^A-Za-z0-9\s#-]`)
	whitespaceRuns  = regexp.MustCompile(`\s+`)
)

// cleanPart lowercases an address component, strips punctuation besides
// "#" and "-", and collapses whitespace runs
func cleanPart(s string) string {
	s = strings.ToLower(s)
	s = nonAddressChars.ReplaceAllString(s, " ")
	s = whitespaceRuns.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NormalizeState resolves a state name or code to its two-letter postal
// code. Returns "" when the value cannot be resolved.
func NormalizeState(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if len(s) == 2 && isLetters(s) {
		return strings.ToUpper(s)
	}
	key := whitespaceRuns.ReplaceAllString(strings.ToLower(s), " ")
	if code, ok := stateCodes[key]; ok {
		return code
	}
	return ""
}

// NormalizeAddress canonicalizes address components into a single string.
// Each part is cleaned independently, the state resolves to its postal
// code where possible, and non-empty parts join with ", ".
func NormalizeAddress(raw, city, state, zip string) string {
	parts := make([]string, 0, 4)
	if p := cleanPart(raw); p != "" {
		parts = append(parts, p)
	}
	if p := cleanPart(city); p != "" {
		parts = append(parts, p)
	}
	if code := NormalizeState(state); code != "" {
		parts = append(parts, code)
	} else if p := cleanPart(state); p != "" {
		parts = append(parts, p)
	}
	if p := cleanPart(zip); p != "" {
		parts = append(parts, p)
	}
	return strings.Join(parts, ", ")
}

func isLetters(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return len(s) > 0
}
