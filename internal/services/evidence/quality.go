// -----------------------------------------------------------------------
// Source Quality - Trust weighting for evidence and comp source URLs
// -----------------------------------------------------------------------

package evidence

import (
	"net/url"
	"strings"
)

// highTrustHosts are authoritative record sources
var highTrustHosts = []string{
	"tax.nj.gov",
	"countyoffice.org",
	"arcgis.com",
	"esri.com",
}

// mediumTrustHosts are commercial listing portals
var mediumTrustHosts = []string{
	"realtor.com",
	"redfin.com",
	"zillow.com",
	"trulia.com",
	"loopnet.com",
	"crexi.com",
}

// recordCategories fall back to a middling score when the host is unknown,
// since records workers often cite obscure county portals
var recordCategories = map[string]bool{
	"public_records": true,
	"permits":        true,
	"subdivision":    true,
}

// SourceQuality scores how much a source URL can be trusted, in [0,1].
// Pure and deterministic; shared by the comp ranker and risk scorer.
func SourceQuality(rawURL, category string) float64 {
	if strings.TrimSpace(rawURL) == "" {
		return 0.25
	}
	if strings.HasPrefix(strings.ToLower(rawURL), "internal://") {
		return 0.95
	}

	host := hostOf(rawURL)
	if host == "" {
		return 0.25
	}

	if strings.HasSuffix(host, ".gov") || matchesHost(host, highTrustHosts) {
		return 0.95
	}
	if matchesHost(host, mediumTrustHosts) {
		return 0.70
	}
	if recordCategories[category] {
		return 0.45
	}
	return 0.50
}

// hostOf extracts the lowercased host, stripping a leading "www."
func hostOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// matchesHost reports whether host equals or is a subdomain of any entry
func matchesHost(host string, entries []string) bool {
	for _, entry := range entries {
		if host == entry || strings.HasSuffix(host, "."+entry) {
			return true
		}
	}
	return false
}
