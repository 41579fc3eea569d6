package geocoder

// AutocompleteResponse represents the Places Autocomplete API response
type AutocompleteResponse struct {
	Predictions  []Prediction `json:"predictions"`
	Status       string       `json:"status"`
	ErrorMessage string       `json:"error_message,omitempty"`
}

// Prediction represents a single autocomplete suggestion
type Prediction struct {
	Description string `json:"description"`
	PlaceID     string `json:"place_id"`
}

// DetailsResponse represents the Place Details API response
type DetailsResponse struct {
	Result       *PlaceDetail `json:"result,omitempty"`
	Status       string       `json:"status"`
	ErrorMessage string       `json:"error_message,omitempty"`
}

// PlaceDetail carries the detail fields requested for a place
type PlaceDetail struct {
	FormattedAddress  string             `json:"formatted_address,omitempty"`
	Geometry          *Geometry          `json:"geometry,omitempty"`
	AddressComponents []AddressComponent `json:"address_components,omitempty"`
}

// AddressComponent represents one structured address part
type AddressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

// Geometry represents the geometry information of a place
type Geometry struct {
	Location *LatLng `json:"location,omitempty"`
}

// LatLng represents a geographic coordinate
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
