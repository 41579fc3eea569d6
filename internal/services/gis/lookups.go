// -----------------------------------------------------------------------
// GIS Lookups - Typed catalog of public environmental and listing sources
// -----------------------------------------------------------------------

package gis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/praedium/internal/common"
	"github.com/ternarybob/praedium/internal/interfaces"
)

const maxListedNames = 5

// endpoints holds the catalog URLs so tests can point individual
// lookups at a local server.
type endpoints struct {
	floodZone    string
	epaFRS       string
	wildfire     string
	hudZones     string
	wetlands     string
	historic     string
	seismic      string
	schools      string
	walkScore    string
	usRealEstate string
	redfin       string
	rentcast     string
}

func defaultEndpoints() endpoints {
	return endpoints{
		floodZone:    "https://hazards.fema.gov/arcgis/rest/services/public/NFHL/MapServer/28/query",
		epaFRS:       "https://frs-public.epa.gov/ords/frs_public2/frs_rest_services.get_facilities",
		wildfire:     "https://apps.fs.usda.gov/arcx/rest/services/RDW_Wildfire/RMRS_WildfireHazardPotential_classified/MapServer/0/query",
		hudZones:     "https://services.arcgis.com/VTyQ9soqVukalItT/arcgis/rest/services/Opportunity_Zones/FeatureServer/0/query",
		wetlands:     "https://fwsprimary.wim.usgs.gov/server/rest/services/Wetlands/MapServer/0/query",
		historic:     "https://mapservices.nps.gov/arcgis/rest/services/cultural_resources/nrhp_locations/MapServer/0/query",
		seismic:      "https://earthquake.usgs.gov/ws/designmaps/asce7-16.json",
		schools:      "https://nces.ed.gov/opengis/rest/services/K12_School_Districts/EDGE_ADMINDIST_SCHOOLDISTRICT_TL/MapServer/0/query",
		walkScore:    "https://api.walkscore.com/score",
		usRealEstate: "https://us-real-estate.p.rapidapi.com/v2/pro/property-details",
		redfin:       "https://redfin-com-data.p.rapidapi.com/properties/auto-complete",
		rentcast:     "https://realty-mole-property-api.p.rapidapi.com/rentalPrice",
	}
}

// Lookups is the typed catalog of public-source lookups backing the
// environmental and listing-data workers. Every method returns a
// normalized partial payload; an empty map means the source had nothing
// usable for the location.
type Lookups struct {
	client interfaces.GISClient
	config *common.GISConfig
	logger arbor.ILogger
	urls   endpoints
}

// NewLookups creates the lookup catalog over a GIS client.
func NewLookups(client interfaces.GISClient, config *common.GISConfig, logger arbor.ILogger) *Lookups {
	if config == nil {
		config = &common.GISConfig{}
	}
	return &Lookups{
		client: client,
		config: config,
		logger: logger,
		urls:   defaultEndpoints(),
	}
}

// FloodZone queries the FEMA National Flood Hazard Layer at a point.
// No intersecting polygon means the area is unmapped, not zone X.
func (l *Lookups) FloodZone(ctx context.Context, lat, lng float64) (map[string]interface{}, error) {
	payload, err := l.client.Get(ctx, l.urls.floodZone, arcgisPoint(lat, lng, "FLD_ZONE,ZONE_SUBTY,SFHA_TF"))
	if err != nil {
		return nil, err
	}

	attrs := arcgisAttributes(payload)
	if len(attrs) == 0 {
		return map[string]interface{}{}, nil
	}

	first := attrs[0]
	result := map[string]interface{}{
		"flood_zone": attrString(first, "FLD_ZONE"),
		"is_sfha":    strings.EqualFold(attrString(first, "SFHA_TF"), "T"),
		"source":     "fema_nfhl",
	}
	if subtype := attrString(first, "ZONE_SUBTY"); subtype != "" {
		result["zone_subtype"] = subtype
	}
	return result, nil
}

// EPAFacilities lists regulated facilities within radiusMi of a point
// from the EPA Facility Registry Service. Zero facilities is a finding,
// not missing data.
func (l *Lookups) EPAFacilities(ctx context.Context, lat, lng, radiusMi float64) (map[string]interface{}, error) {
	payload, err := l.client.Get(ctx, l.urls.epaFRS, map[string]string{
		"latitude83":    formatCoord(lat),
		"longitude83":   formatCoord(lng),
		"search_radius": strconv.FormatFloat(radiusMi, 'f', -1, 64),
		"output":        "JSON",
	})
	if err != nil {
		return nil, err
	}

	results, ok := payload["Results"].(map[string]interface{})
	if !ok {
		return map[string]interface{}{}, nil
	}

	names := frsFacilityNames(results)
	listed := names
	if len(listed) > maxListedNames {
		listed = listed[:maxListedNames]
	}

	return map[string]interface{}{
		"facility_count": len(names),
		"facilities":     listed,
		"radius_mi":      radiusMi,
		"source":         "epa_frs",
	}, nil
}

// WildfireHazard reads the USFS Wildfire Hazard Potential class at a
// point.
func (l *Lookups) WildfireHazard(ctx context.Context, lat, lng float64) (map[string]interface{}, error) {
	payload, err := l.client.Get(ctx, l.urls.wildfire, arcgisPoint(lat, lng, "*"))
	if err != nil {
		return nil, err
	}

	attrs := arcgisAttributes(payload)
	if len(attrs) == 0 {
		return map[string]interface{}{}, nil
	}

	first := attrs[0]
	result := map[string]interface{}{"source": "usfs_whp"}
	if class, ok := attrFloat(first, "WHP", "GRIDCODE", "Value"); ok {
		result["hazard_class"] = int(class)
		result["hazard_label"] = whpLabel(int(class))
	}
	if label := attrString(first, "CLASSDESC", "ClassName"); label != "" {
		result["hazard_label"] = label
	}
	if len(result) == 1 {
		return map[string]interface{}{}, nil
	}
	return result, nil
}

// HUDOpportunity checks whether a point falls inside a designated
// opportunity zone. No intersecting tract means not in a zone.
func (l *Lookups) HUDOpportunity(ctx context.Context, lat, lng float64) (map[string]interface{}, error) {
	payload, err := l.client.Get(ctx, l.urls.hudZones, arcgisPoint(lat, lng, "GEOID10,STATE,COUNTY"))
	if err != nil {
		return nil, err
	}

	attrs := arcgisAttributes(payload)
	if len(attrs) == 0 {
		return map[string]interface{}{
			"in_opportunity_zone": false,
			"source":              "hud_opportunity_zones",
		}, nil
	}

	result := map[string]interface{}{
		"in_opportunity_zone": true,
		"source":              "hud_opportunity_zones",
	}
	if tract := attrString(attrs[0], "GEOID10", "GEOID"); tract != "" {
		result["tract_geoid"] = tract
	}
	return result, nil
}

// Wetlands checks the USFWS National Wetlands Inventory at a point.
func (l *Lookups) Wetlands(ctx context.Context, lat, lng float64) (map[string]interface{}, error) {
	payload, err := l.client.Get(ctx, l.urls.wetlands, arcgisPoint(lat, lng, "ATTRIBUTE,WETLAND_TYPE"))
	if err != nil {
		return nil, err
	}

	attrs := arcgisAttributes(payload)
	if len(attrs) == 0 {
		return map[string]interface{}{
			"wetlands_present": false,
			"source":           "usfws_nwi",
		}, nil
	}

	seen := map[string]bool{}
	types := []string{}
	for _, attr := range attrs {
		wetlandType := attrString(attr, "WETLAND_TYPE", "ATTRIBUTE")
		if wetlandType == "" || seen[wetlandType] {
			continue
		}
		seen[wetlandType] = true
		types = append(types, wetlandType)
	}
	if len(types) > maxListedNames {
		types = types[:maxListedNames]
	}

	return map[string]interface{}{
		"wetlands_present": true,
		"wetland_count":    len(attrs),
		"wetland_types":    types,
		"source":           "usfws_nwi",
	}, nil
}

// HistoricPlaces checks the National Register of Historic Places at a
// point.
func (l *Lookups) HistoricPlaces(ctx context.Context, lat, lng float64) (map[string]interface{}, error) {
	payload, err := l.client.Get(ctx, l.urls.historic, arcgisPoint(lat, lng, "RESNAME,NRIS_Refnum"))
	if err != nil {
		return nil, err
	}

	attrs := arcgisAttributes(payload)
	if len(attrs) == 0 {
		return map[string]interface{}{
			"in_historic_place": false,
			"source":            "nps_nrhp",
		}, nil
	}

	result := map[string]interface{}{
		"in_historic_place": true,
		"source":            "nps_nrhp",
	}
	if name := attrString(attrs[0], "RESNAME"); name != "" {
		result["place_name"] = name
	}
	if ref := attrString(attrs[0], "NRIS_Refnum"); ref != "" {
		result["nris_refnum"] = ref
	}
	return result, nil
}

// SeismicHazard reads ASCE 7-16 design values from the USGS design
// maps service.
func (l *Lookups) SeismicHazard(ctx context.Context, lat, lng float64) (map[string]interface{}, error) {
	payload, err := l.client.Get(ctx, l.urls.seismic, map[string]string{
		"latitude":     formatCoord(lat),
		"longitude":    formatCoord(lng),
		"riskCategory": "II",
		"siteClass":    "D",
		"title":        "praedium",
	})
	if err != nil {
		return nil, err
	}

	response, ok := payload["response"].(map[string]interface{})
	if !ok {
		return map[string]interface{}{}, nil
	}
	data, ok := response["data"].(map[string]interface{})
	if !ok {
		return map[string]interface{}{}, nil
	}

	result := map[string]interface{}{"source": "usgs_designmaps"}
	for _, key := range []string{"ss", "s1", "sds", "sd1"} {
		if value, ok := data[key].(float64); ok {
			result[key] = value
		}
	}
	if category, ok := data["sdcs"].(string); ok && category != "" {
		result["design_category"] = category
	}
	if len(result) == 1 {
		return map[string]interface{}{}, nil
	}
	return result, nil
}

// SchoolDistrict resolves the NCES school district containing a point.
func (l *Lookups) SchoolDistrict(ctx context.Context, lat, lng float64) (map[string]interface{}, error) {
	payload, err := l.client.Get(ctx, l.urls.schools, arcgisPoint(lat, lng, "NAME,GEOID"))
	if err != nil {
		return nil, err
	}

	attrs := arcgisAttributes(payload)
	if len(attrs) == 0 {
		return map[string]interface{}{}, nil
	}

	result := map[string]interface{}{"source": "nces_edge"}
	if name := attrString(attrs[0], "NAME"); name != "" {
		result["district_name"] = name
	}
	if geoid := attrString(attrs[0], "GEOID"); geoid != "" {
		result["district_geoid"] = geoid
	}
	if len(result) == 1 {
		return map[string]interface{}{}, nil
	}
	return result, nil
}

// HasWalkScoreKey reports whether the Walk Score API key is set
func (l *Lookups) HasWalkScoreKey() bool { return l.config.WalkScoreAPIKey != "" }

// HasRapidAPIKey reports whether the shared RapidAPI key is set
func (l *Lookups) HasRapidAPIKey() bool { return l.config.RapidAPIKey != "" }

// WalkScore fetches walk/transit/bike scores. Skipped without an API
// key.
func (l *Lookups) WalkScore(ctx context.Context, address string, lat, lng float64) (map[string]interface{}, error) {
	if l.config.WalkScoreAPIKey == "" {
		l.logger.Debug().Msg("Walk Score lookup skipped: no API key")
		return map[string]interface{}{}, nil
	}

	payload, err := l.client.Get(ctx, l.urls.walkScore, map[string]string{
		"format":  "json",
		"address": address,
		"lat":     formatCoord(lat),
		"lon":     formatCoord(lng),
		"transit": "1",
		"bike":    "1",
		"wskey":   l.config.WalkScoreAPIKey,
	})
	if err != nil {
		return nil, err
	}

	// Status 1 is the only "score available" reply; 2 means still
	// calculating.
	if status, _ := payload["status"].(float64); status != 1 {
		return map[string]interface{}{}, nil
	}

	result := map[string]interface{}{"source": "walkscore"}
	if score, ok := payload["walkscore"].(float64); ok {
		result["walk_score"] = int(score)
	}
	if description, ok := payload["description"].(string); ok && description != "" {
		result["description"] = description
	}
	if transit, ok := payload["transit"].(map[string]interface{}); ok {
		if score, ok := transit["score"].(float64); ok {
			result["transit_score"] = int(score)
		}
	}
	if bike, ok := payload["bike"].(map[string]interface{}); ok {
		if score, ok := bike["score"].(float64); ok {
			result["bike_score"] = int(score)
		}
	}
	return result, nil
}

// USRealEstate fetches property details from the us-real-estate
// RapidAPI host. Skipped without a RapidAPI key.
func (l *Lookups) USRealEstate(ctx context.Context, address, city, state, zip string) (map[string]interface{}, error) {
	if l.config.RapidAPIKey == "" {
		l.logger.Debug().Msg("US Real Estate lookup skipped: no RapidAPI key")
		return map[string]interface{}{}, nil
	}

	payload, err := l.client.Get(ctx, l.urls.usRealEstate, map[string]string{
		"address": fullAddress(address, city, state, zip),
	})
	if err != nil {
		return nil, err
	}
	return listingResult("us_real_estate", payload), nil
}

// Redfin looks up the address on the Redfin RapidAPI host. Skipped
// without a RapidAPI key.
func (l *Lookups) Redfin(ctx context.Context, address, city, state, zip string) (map[string]interface{}, error) {
	if l.config.RapidAPIKey == "" {
		l.logger.Debug().Msg("Redfin lookup skipped: no RapidAPI key")
		return map[string]interface{}{}, nil
	}

	payload, err := l.client.Get(ctx, l.urls.redfin, map[string]string{
		"location": fullAddress(address, city, state, zip),
	})
	if err != nil {
		return nil, err
	}
	return listingResult("redfin", payload), nil
}

// RentCast fetches a rental estimate from the RentCast (Realty Mole)
// RapidAPI host. Skipped without a RapidAPI key.
func (l *Lookups) RentCast(ctx context.Context, address, city, state, zip string) (map[string]interface{}, error) {
	if l.config.RapidAPIKey == "" {
		l.logger.Debug().Msg("RentCast lookup skipped: no RapidAPI key")
		return map[string]interface{}{}, nil
	}

	payload, err := l.client.Get(ctx, l.urls.rentcast, map[string]string{
		"address": fullAddress(address, city, state, zip),
	})
	if err != nil {
		return nil, err
	}

	result := map[string]interface{}{"source": "rentcast"}
	if rent, ok := payload["rent"].(float64); ok {
		result["rent_estimate"] = rent
	}
	if low, ok := payload["rentRangeLow"].(float64); ok {
		result["rent_range_low"] = low
	}
	if high, ok := payload["rentRangeHigh"].(float64); ok {
		result["rent_range_high"] = high
	}
	if len(result) == 1 {
		return map[string]interface{}{}, nil
	}
	return result, nil
}

// arcgisPoint builds the standard point-intersection query params
// shared by the ArcGIS feature layers.
func arcgisPoint(lat, lng float64, outFields string) map[string]string {
	return map[string]string{
		"geometry":       fmt.Sprintf("%s,%s", formatCoord(lng), formatCoord(lat)),
		"geometryType":   "esriGeometryPoint",
		"inSR":           "4326",
		"spatialRel":     "esriSpatialRelIntersects",
		"outFields":      outFields,
		"returnGeometry": "false",
		"f":              "json",
	}
}

// arcgisAttributes pulls the attribute maps out of a feature reply.
func arcgisAttributes(payload map[string]interface{}) []map[string]interface{} {
	raw, ok := payload["features"].([]interface{})
	if !ok {
		return nil
	}

	out := make([]map[string]interface{}, 0, len(raw))
	for _, item := range raw {
		feature, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if attrs, ok := feature["attributes"].(map[string]interface{}); ok {
			out = append(out, attrs)
		}
	}
	return out
}

func frsFacilityNames(results map[string]interface{}) []string {
	raw, ok := results["FRSFacility"].([]interface{})
	if !ok {
		return nil
	}

	names := []string{}
	for _, item := range raw {
		facility, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if name, ok := facility["FacilityName"].(string); ok && name != "" {
			names = append(names, name)
		}
	}
	return names
}

// listingResult wraps a RapidAPI listing payload, unwrapping the
// conventional "data" envelope when present.
func listingResult(source string, payload map[string]interface{}) map[string]interface{} {
	if len(payload) == 0 {
		return map[string]interface{}{}
	}

	result := map[string]interface{}{"source": source}
	if data, ok := payload["data"]; ok {
		result["data"] = data
	} else {
		result["data"] = payload
	}
	return result
}

func attrString(attrs map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if value, ok := attrs[key].(string); ok && value != "" {
			return value
		}
	}
	return ""
}

func attrFloat(attrs map[string]interface{}, keys ...string) (float64, bool) {
	for _, key := range keys {
		if value, ok := attrs[key].(float64); ok {
			return value, true
		}
	}
	return 0, false
}

func whpLabel(class int) string {
	switch class {
	case 1:
		return "very low"
	case 2:
		return "low"
	case 3:
		return "moderate"
	case 4:
		return "high"
	case 5:
		return "very high"
	default:
		return "unknown"
	}
}

func formatCoord(value float64) string {
	return strconv.FormatFloat(value, 'f', 6, 64)
}

func fullAddress(address, city, state, zip string) string {
	parts := []string{}
	for _, part := range []string{address, city, state} {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	joined := strings.Join(parts, ", ")
	if trimmed := strings.TrimSpace(zip); trimmed != "" {
		if joined != "" {
			joined += " " + trimmed
		} else {
			joined = trimmed
		}
	}
	return joined
}
