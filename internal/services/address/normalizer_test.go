package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		city     string
		state    string
		zip      string
		expected string
	}{
		{
			name:     "Full address with state name",
			raw:      "123 Main St.",
			city:     "Newark",
			state:    "New Jersey",
			zip:      "07102",
			expected: "123 main st, newark, NJ, 07102",
		},
		{
			name:     "Two letter state code",
			raw:      "456 Oak Ave",
			city:     "Trenton",
			state:    "nj",
			zip:      "08608",
			expected: "456 oak ave, trenton, NJ, 08608",
		},
		{
			name:     "Punctuation stripped except hash and dash",
			raw:      "789 Elm St, Apt #4-B!",
			city:     "Camden",
			state:    "NJ",
			zip:      "08102",
			expected: "789 elm st apt #4-b, camden, NJ, 08102",
		},
		{
			name:     "Whitespace collapsed",
			raw:      "  10   Pine    Rd  ",
			city:     "",
			state:    "",
			zip:      "",
			expected: "10 pine rd",
		},
		{
			name:     "Unknown state kept as cleaned text",
			raw:      "5 River Way",
			city:     "Springfield",
			state:    "Nowhere Land",
			zip:      "00000",
			expected: "5 river way, springfield, nowhere land, 00000",
		},
		{
			name:     "Empty parts skipped",
			raw:      "22 Hill St",
			city:     "",
			state:    "PA",
			zip:      "",
			expected: "22 hill st, PA",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeAddress(tt.raw, tt.city, tt.state, tt.zip)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestNormalizeState(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Full name", input: "New Jersey", expected: "NJ"},
		{name: "Full name lowercase", input: "california", expected: "CA"},
		{name: "Full name extra spaces", input: "  new   york ", expected: "NY"},
		{name: "Code lowercase", input: "tx", expected: "TX"},
		{name: "Code uppercase", input: "FL", expected: "FL"},
		{name: "Unknown name", input: "Atlantis", expected: ""},
		{name: "Digits not a code", input: "07", expected: ""},
		{name: "Empty", input: "", expected: ""},
		{name: "District of Columbia", input: "District of Columbia", expected: "DC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeState(tt.input))
		})
	}
}

func TestStableKey(t *testing.T) {
	key1 := StableKey("123 Main St", "Newark", "NJ", "07102", "012-345-678")
	key2 := StableKey("123  MAIN st.", "Newark", "New Jersey", "07102", "012-345-678")
	key3 := StableKey("123 Main St", "Newark", "NJ", "07102", "999-999-999")

	assert.Len(t, key1, 64)
	assert.Equal(t, key1, key2, "equivalent addresses must share a stable key")
	assert.NotEqual(t, key1, key3, "different APNs must produce different keys")
}

func TestEvidenceHash(t *testing.T) {
	h1 := EvidenceHash("public_records", "Owner is Jane Doe", "https://tax.nj.gov/x", "excerpt")
	h2 := EvidenceHash("  Public_Records ", "OWNER IS JANE DOE", "https://tax.nj.gov/x", " Excerpt ")
	h3 := EvidenceHash("public_records", "Owner is Jane Doe", "https://tax.nj.gov/y", "excerpt")

	assert.Len(t, h1, 64)
	assert.Equal(t, h1, h2, "hash must ignore case and surrounding whitespace")
	assert.NotEqual(t, h1, h3, "different source urls must produce different hashes")
}
