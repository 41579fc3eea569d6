package address

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// StableKey derives the deterministic dedupe key for a property from its
// normalized address and APN
func StableKey(raw, city, state, zip, apn string) string {
	payload := NormalizeAddress(raw, city, state, zip) + "|" + strings.ToLower(apn)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// EvidenceHash derives the content hash of an evidence record from its four
// identity fields, each lowercased and trimmed
func EvidenceHash(category, claim, sourceURL, rawExcerpt string) string {
	parts := []string{category, claim, sourceURL, rawExcerpt}
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
