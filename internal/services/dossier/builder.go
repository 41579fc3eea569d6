// -----------------------------------------------------------------------
// Dossier Builder - Deterministic memo assembly from research results
// -----------------------------------------------------------------------

package dossier

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/praedium/internal/models"
)

// Data is everything the builder consumes. Any field may be nil or
// empty; the corresponding section is simply omitted.
type Data struct {
	Property    *models.ResearchProperty
	Profile     *models.PropertyProfile
	Strategy    models.Strategy
	SalesComps  []*models.CompSale
	RentalComps []*models.CompRental
	Underwrite  *models.Underwriting
	Risk        *models.RiskScore
	Evidence    []*models.EvidenceItem
	// Sections holds per-worker result payloads keyed by worker name.
	Sections map[string]map[string]interface{}
}

const appendixDivider = "\n\n---\n\n## Raw Data Appendix\n\n"

// Summary renders the labelled data sections without title or appendix.
// It is the body the narrative prompt embeds.
func Summary(data *Data) string {
	return strings.Join(sections(data), "\n\n")
}

// Prompt wraps the summary in the fixed investor-memo request sent to
// the narrative model.
func Prompt(data *Data) string {
	var sb strings.Builder
	sb.WriteString("Write an investor memo for the property research below.\n")
	sb.WriteString(fmt.Sprintf("Investment strategy: %s.\n\n", data.Strategy))
	sb.WriteString("Cover a short thesis, the property itself, valuation and offer guidance, ")
	sb.WriteString("risks and unknowns, and a clear recommendation. Keep it under 600 words. ")
	sb.WriteString("Cite sources as markdown links where URLs appear in the data.\n\n")
	sb.WriteString("Research data:\n\n")
	sb.WriteString(Summary(data))
	return sb.String()
}

// Structured composes the fallback dossier used when no narrative model
// is available. Identical inputs produce identical bytes.
func Structured(data *Data) string {
	var sb strings.Builder
	sb.WriteString("# Investment Research Dossier\n\n")
	if data.Profile != nil && data.Profile.NormalizedAddress != "" {
		sb.WriteString("**Property:** " + data.Profile.NormalizedAddress + "\n")
	} else if data.Property != nil {
		sb.WriteString("**Property:** " + data.Property.NormalizedAddress + "\n")
	}
	sb.WriteString("**Strategy:** " + string(data.Strategy) + "\n\n")

	body := sections(data)
	if len(body) == 0 {
		sb.WriteString("No research data available.")
	} else {
		sb.WriteString(strings.Join(body, "\n\n"))
	}
	sb.WriteString(appendixDivider)
	sb.WriteString(Appendix(data))
	return sb.String()
}

// WithNarrative appends the raw data appendix to model-generated prose.
func WithNarrative(narrative string, data *Data) string {
	return strings.TrimSpace(narrative) + appendixDivider + Appendix(data)
}

// Appendix renders the comps and evidence tables carried by every
// dossier variant.
func Appendix(data *Data) string {
	parts := []string{}
	if table := salesTable(data.SalesComps); table != "" {
		parts = append(parts, "### Sales Comps\n\n"+table)
	}
	if table := rentalsTable(data.RentalComps); table != "" {
		parts = append(parts, "### Rental Comps\n\n"+table)
	}
	if table := evidenceTable(data.Evidence); table != "" {
		parts = append(parts, "### Evidence\n\n"+table)
	}
	if len(parts) == 0 {
		return "No raw data captured."
	}
	return strings.Join(parts, "\n\n")
}

// sections builds every populated section in the fixed report order.
func sections(data *Data) []string {
	out := []string{}
	add := func(title, body string) {
		if body != "" {
			out = append(out, "## "+title+"\n\n"+body)
		}
	}
	add("Property Details", propertySection(data.Profile))
	add("Ownership", ownerSection(data.Profile))
	add("Valuation Signals", valuationSection(data.Profile))
	add("Sales Comparables", salesCompsSection(data.SalesComps))
	add("Rental Comparables", rentalCompsSection(data.RentalComps))
	add("Underwriting", underwritingSection(data.Underwrite))
	add("Risk", riskSection(data.Risk))
	add("Flood Zone", lookupSection(data.Sections["flood_zone"]))
	add("Neighborhood", searchSection(data.Sections["neighborhood_intel"]))
	add("Public Records", searchSection(data.Sections["public_records"]))
	add("Permits and Violations", searchSection(data.Sections["permits_violations"]))
	add("Subdivision Potential", searchSection(data.Sections["subdivision_research"]))
	add("Environmental Facilities", lookupSection(data.Sections["epa_environmental"]))
	add("Wildfire Hazard", lookupSection(data.Sections["wildfire_hazard"]))
	add("Opportunity Zone", lookupSection(data.Sections["hud_opportunity"]))
	add("Wetlands", lookupSection(data.Sections["wetlands"]))
	add("Historic Places", lookupSection(data.Sections["historic_places"]))
	add("Seismic Design", lookupSection(data.Sections["seismic_hazard"]))
	add("School District", lookupSection(data.Sections["school_district"]))
	add("Walkability", lookupSection(data.Sections["walk_score"]))
	add("Redfin", listingSection(data.Sections["redfin"]))
	add("RentCast", lookupSection(data.Sections["rentcast"]))
	add("US Real Estate", listingSection(data.Sections["us_real_estate"]))
	return out
}

func propertySection(profile *models.PropertyProfile) string {
	if profile == nil {
		return ""
	}
	lines := []string{}
	if profile.NormalizedAddress != "" {
		lines = append(lines, "- Address: "+profile.NormalizedAddress)
	}
	if profile.APN != "" {
		lines = append(lines, "- APN: "+profile.APN)
	}
	facts := profile.ParcelFacts
	if facts.Beds != nil {
		lines = append(lines, fmt.Sprintf("- Beds: %d", *facts.Beds))
	}
	if facts.Baths != nil {
		lines = append(lines, "- Baths: "+trimFloat(*facts.Baths))
	}
	if facts.Sqft != nil {
		lines = append(lines, "- Square feet: "+trimFloat(*facts.Sqft))
	}
	if facts.LotSqft != nil {
		lines = append(lines, "- Lot square feet: "+trimFloat(*facts.LotSqft))
	}
	if facts.YearBuilt != nil {
		lines = append(lines, fmt.Sprintf("- Year built: %d", *facts.YearBuilt))
	}
	if profile.Zoning != "" {
		lines = append(lines, "- Zoning: "+profile.Zoning)
	}
	if profile.Geo.Lat != nil && profile.Geo.Lng != nil {
		lines = append(lines, fmt.Sprintf("- Coordinates: %.6f, %.6f", *profile.Geo.Lat, *profile.Geo.Lng))
	}
	return strings.Join(lines, "\n")
}

func ownerSection(profile *models.PropertyProfile) string {
	if profile == nil {
		return ""
	}
	lines := []string{}
	if len(profile.OwnerNames) > 0 {
		lines = append(lines, "- Owner: "+strings.Join(profile.OwnerNames, ", "))
	}
	if profile.MailingAddress != "" {
		lines = append(lines, "- Mailing address: "+profile.MailingAddress)
	}
	return strings.Join(lines, "\n")
}

func valuationSection(profile *models.PropertyProfile) string {
	if profile == nil {
		return ""
	}
	lines := []string{}
	if v, ok := assessedFloat(profile.AssessedValues, "zestimate"); ok {
		lines = append(lines, "- Zestimate: "+formatMoney(v))
	}
	if v, ok := assessedFloat(profile.AssessedValues, "rent_zestimate"); ok {
		lines = append(lines, "- Rent Zestimate: "+formatMoney(v)+"/mo")
	}
	if v, ok := assessedFloat(profile.AssessedValues, "tax_assessed_value"); ok {
		lines = append(lines, "- Tax assessed value: "+formatMoney(v))
	}
	if v, ok := assessedFloat(profile.AssessedValues, "tax_annual"); ok {
		lines = append(lines, "- Annual tax: "+formatMoney(v))
	}
	if profile.TaxStatus != "" {
		lines = append(lines, "- Tax status: "+profile.TaxStatus)
	}
	if len(profile.TransactionHistory) > 0 {
		lines = append(lines, fmt.Sprintf("- Transaction history events: %d", len(profile.TransactionHistory)))
	}
	return strings.Join(lines, "\n")
}

func salesCompsSection(comps []*models.CompSale) string {
	if len(comps) == 0 {
		return ""
	}
	prices := []float64{}
	for _, comp := range comps {
		if comp.SalePrice != nil {
			prices = append(prices, *comp.SalePrice)
		}
	}
	lines := []string{fmt.Sprintf("- Selected comps: %d", len(comps))}
	if len(prices) > 0 {
		lines = append(lines, "- Price range: "+formatMoney(minOf(prices))+" to "+formatMoney(maxOf(prices)))
		lines = append(lines, "- Mean price: "+formatMoney(meanOf(prices)))
	}
	top := comps[0]
	lines = append(lines, fmt.Sprintf("- Closest match: %s (similarity %.2f)", top.Address, top.SimilarityScore))
	return strings.Join(lines, "\n")
}

func rentalCompsSection(comps []*models.CompRental) string {
	if len(comps) == 0 {
		return ""
	}
	rents := []float64{}
	for _, comp := range comps {
		if comp.Rent != nil {
			rents = append(rents, *comp.Rent)
		}
	}
	lines := []string{fmt.Sprintf("- Selected comps: %d", len(comps))}
	if len(rents) > 0 {
		lines = append(lines, "- Rent range: "+formatMoney(minOf(rents))+" to "+formatMoney(maxOf(rents))+"/mo")
		lines = append(lines, "- Mean rent: "+formatMoney(meanOf(rents))+"/mo")
	}
	top := comps[0]
	lines = append(lines, fmt.Sprintf("- Closest match: %s (similarity %.2f)", top.Address, top.SimilarityScore))
	return strings.Join(lines, "\n")
}

func underwritingSection(u *models.Underwriting) string {
	if u == nil {
		return ""
	}
	lines := []string{}
	if line := estimateLine("ARV", u.ARVEstimate, ""); line != "" {
		lines = append(lines, line)
	}
	if line := estimateLine("Monthly rent", u.RentEstimate, "/mo"); line != "" {
		lines = append(lines, line)
	}
	lines = append(lines, "- Rehab tier: "+string(u.RehabTier))
	if line := estimateLine("Rehab cost", u.RehabRange, ""); line != "" {
		lines = append(lines, line)
	}
	lines = append(lines, "- Fees total: "+formatMoney(u.Fees.Total))
	if line := estimateLine("Recommended offer", u.OfferRecommendation, ""); line != "" {
		lines = append(lines, line)
	}
	for _, row := range u.Sensitivity {
		if row.ARV != nil && row.Offer != nil {
			lines = append(lines, fmt.Sprintf("- Sensitivity %s: ARV %s, offer %s",
				row.Scenario, formatMoney(*row.ARV), formatMoney(*row.Offer)))
		}
	}
	return strings.Join(lines, "\n")
}

func estimateLine(label string, e models.Estimate, suffix string) string {
	if e.Base == nil {
		return ""
	}
	line := fmt.Sprintf("- %s: %s%s", label, formatMoney(*e.Base), suffix)
	if e.Low != nil && e.High != nil {
		line += fmt.Sprintf(" (range %s to %s)", formatMoney(*e.Low), formatMoney(*e.High))
	}
	return line
}

func riskSection(risk *models.RiskScore) string {
	if risk == nil {
		return ""
	}
	lines := []string{
		fmt.Sprintf("- Title risk: %.2f", risk.TitleRisk),
		fmt.Sprintf("- Data confidence: %.2f", risk.DataConfidence),
	}
	if len(risk.ComplianceFlags) > 0 {
		lines = append(lines, "- Flags: "+strings.Join(risk.ComplianceFlags, ", "))
	}
	if risk.Notes != "" {
		lines = append(lines, "- Notes: "+risk.Notes)
	}
	return strings.Join(lines, "\n")
}

// searchSection renders a web search payload: the query plus up to
// three top hits as markdown links.
func searchSection(payload map[string]interface{}) string {
	if len(payload) == 0 {
		return ""
	}
	lines := []string{}
	if query, ok := payload["query"].(string); ok && query != "" {
		lines = append(lines, "- Query: "+query)
	}
	for i, hit := range hitMaps(payload["hits"]) {
		if i >= 3 {
			break
		}
		title, _ := hit["title"].(string)
		dest, _ := hit["url"].(string)
		if title == "" {
			title = dest
		}
		if title == "" {
			continue
		}
		if dest != "" {
			lines = append(lines, fmt.Sprintf("- [%s](%s)", title, dest))
		} else {
			lines = append(lines, "- "+title)
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n")
}

// lookupSection renders a flat lookup payload as sorted key/value
// bullets. Sorted keys keep the output stable across runs.
func lookupSection(payload map[string]interface{}) string {
	if len(payload) == 0 {
		return ""
	}
	return strings.Join(scalarLines(payload, 12), "\n")
}

// listingSection unwraps the "data" envelope carried by listing APIs
// before rendering.
func listingSection(payload map[string]interface{}) string {
	if len(payload) == 0 {
		return ""
	}
	if inner, ok := payload["data"].(map[string]interface{}); ok {
		payload = inner
	}
	return strings.Join(scalarLines(payload, 12), "\n")
}

// scalarLines renders the scalar and string-list fields of a payload as
// sorted bullets, skipping nested structures and the source marker.
func scalarLines(payload map[string]interface{}, max int) []string {
	keys := make([]string, 0, len(payload))
	for key := range payload {
		if key == "source" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := []string{}
	for _, key := range keys {
		if len(lines) >= max {
			break
		}
		label := strings.ReplaceAll(key, "_", " ")
		switch v := payload[key].(type) {
		case string:
			if v != "" {
				lines = append(lines, fmt.Sprintf("- %s: %s", label, v))
			}
		case bool:
			lines = append(lines, fmt.Sprintf("- %s: %t", label, v))
		case int:
			lines = append(lines, fmt.Sprintf("- %s: %d", label, v))
		case float64:
			lines = append(lines, fmt.Sprintf("- %s: %s", label, trimFloat(v)))
		case []string:
			if len(v) > 0 {
				lines = append(lines, fmt.Sprintf("- %s: %s", label, strings.Join(v, ", ")))
			}
		case []interface{}:
			if joined := joinStrings(v); joined != "" {
				lines = append(lines, fmt.Sprintf("- %s: %s", label, joined))
			}
		}
	}
	return lines
}

// ----------------------------------------------------------------------
// Appendix tables
// ----------------------------------------------------------------------

func salesTable(comps []*models.CompSale) string {
	if len(comps) == 0 {
		return ""
	}
	rows := []string{
		"| Address | Price | Date | Sqft | Beds | Baths | Similarity | Source |",
		"|---|---|---|---|---|---|---|---|",
	}
	for _, comp := range comps {
		rows = append(rows, fmt.Sprintf("| %s | %s | %s | %s | %s | %s | %.2f | %s |",
			escapeCell(comp.Address),
			moneyCell(comp.SalePrice),
			dateCell(comp.SaleDate),
			floatCell(comp.Sqft),
			intCell(comp.Beds),
			floatCell(comp.Baths),
			comp.SimilarityScore,
			sourceCell(comp.SourceURL)))
	}
	return strings.Join(rows, "\n")
}

func rentalsTable(comps []*models.CompRental) string {
	if len(comps) == 0 {
		return ""
	}
	rows := []string{
		"| Address | Rent | Listed | Sqft | Beds | Baths | Similarity | Source |",
		"|---|---|---|---|---|---|---|---|",
	}
	for _, comp := range comps {
		rows = append(rows, fmt.Sprintf("| %s | %s | %s | %s | %s | %s | %.2f | %s |",
			escapeCell(comp.Address),
			moneyCell(comp.Rent),
			dateCell(comp.DateListed),
			floatCell(comp.Sqft),
			intCell(comp.Beds),
			floatCell(comp.Baths),
			comp.SimilarityScore,
			sourceCell(comp.SourceURL)))
	}
	return strings.Join(rows, "\n")
}

func evidenceTable(evidence []*models.EvidenceItem) string {
	if len(evidence) == 0 {
		return ""
	}
	rows := []string{
		"| Category | Claim | Confidence | Source |",
		"|---|---|---|---|",
	}
	for _, item := range evidence {
		rows = append(rows, fmt.Sprintf("| %s | %s | %.2f | %s |",
			escapeCell(item.Category),
			escapeCell(truncate(item.Claim, 100)),
			item.Confidence,
			sourceCell(item.SourceURL)))
	}
	return strings.Join(rows, "\n")
}

// ----------------------------------------------------------------------
// Formatting helpers
// ----------------------------------------------------------------------

// formatMoney renders a dollar amount with comma grouping and cents,
// e.g. 420000 becomes $420,000.00.
func formatMoney(v float64) string {
	negative := v < 0
	if negative {
		v = -v
	}
	whole := fmt.Sprintf("%.2f", v)
	dot := strings.Index(whole, ".")
	intPart, fracPart := whole[:dot], whole[dot:]

	var grouped strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(digit)
	}
	out := "$" + grouped.String() + fracPart
	if negative {
		out = "-" + out
	}
	return out
}

// trimFloat renders a float without trailing zeros.
func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func moneyCell(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return formatMoney(*v)
}

func floatCell(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return trimFloat(*v)
}

func intCell(v *int) string {
	if v == nil {
		return "n/a"
	}
	return strconv.Itoa(*v)
}

func dateCell(v *time.Time) string {
	if v == nil {
		return "n/a"
	}
	return v.Format("2006-01-02")
}

// sourceCell shortens a source URL to its host for table rendering.
func sourceCell(raw string) string {
	if raw == "" {
		return "n/a"
	}
	if parsed, err := url.Parse(raw); err == nil && parsed.Host != "" {
		host := strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
		if parsed.Scheme == "internal" {
			return "internal"
		}
		return host
	}
	if strings.HasPrefix(raw, "internal://") {
		return "internal"
	}
	return truncate(raw, 40)
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func assessedFloat(values map[string]interface{}, key string) (float64, bool) {
	if values == nil {
		return 0, false
	}
	switch v := values[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

func hitMaps(raw interface{}) []map[string]interface{} {
	switch v := raw.(type) {
	case []map[string]interface{}:
		return v
	case []interface{}:
		out := make([]map[string]interface{}, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]interface{}); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

func joinStrings(items []interface{}) string {
	parts := []string{}
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

func minOf(values []float64) float64 {
	out := values[0]
	for _, v := range values[1:] {
		if v < out {
			out = v
		}
	}
	return out
}

func maxOf(values []float64) float64 {
	out := values[0]
	for _, v := range values[1:] {
		if v > out {
			out = v
		}
	}
	return out
}

func meanOf(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
