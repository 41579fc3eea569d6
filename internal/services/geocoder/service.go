package geocoder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/praedium/internal/common"
	"github.com/ternarybob/praedium/internal/interfaces"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/place"

// Service implements the Geocoder interface against the Google Places API
type Service struct {
	config       *common.GeocoderConfig
	eventService interfaces.EventService
	logger       arbor.ILogger
	apiKey       string
	baseURL      string
	httpClient   *http.Client

	mu          sync.Mutex
	lastRequest time.Time // For rate limiting; guarded because jobs share one adapter
}

// NewService creates a new geocoder service instance
func NewService(
	config *common.GeocoderConfig,
	eventService interfaces.EventService,
	logger arbor.ILogger,
) interfaces.Geocoder {
	return &Service{
		config:       config,
		eventService: eventService,
		logger:       logger,
		apiKey:       config.APIKey,
		baseURL:      defaultBaseURL,
		httpClient: &http.Client{
			Timeout: config.RequestTimeout,
		},
		lastRequest: time.Time{},
	}
}

// IsConfigured reports whether an API key is present
func (s *Service) IsConfigured() bool {
	return s.apiKey != ""
}

// Autocomplete resolves free-text input to candidate places. The first
// candidate is the provider's best interpretation of the address.
func (s *Service) Autocomplete(ctx context.Context, text, country string) ([]interfaces.GeocodeCandidate, error) {
	if !s.IsConfigured() {
		return nil, fmt.Errorf("geocoder is not configured")
	}

	s.waitForRateLimit()

	apiURL := s.baseURL + "/autocomplete/json"
	params := url.Values{}
	params.Set("input", text)
	params.Set("types", "address")
	if country != "" {
		params.Set("components", "country:"+strings.ToLower(country))
	}
	params.Set("key", s.apiKey)

	fullURL := fmt.Sprintf("%s?%s", apiURL, params.Encode())

	// Redact API key in logs
	logURL := fmt.Sprintf("%s?input=%s&key=***REDACTED***", apiURL, url.QueryEscape(text))
	s.logger.Debug().Str("url", logURL).Msg("Calling Places Autocomplete API")

	var apiResp AutocompleteResponse
	if err := s.getJSON(ctx, fullURL, &apiResp); err != nil {
		s.publishEvent("geocode_autocomplete_failed", map[string]interface{}{
			"input": text,
			"error": err.Error(),
		})
		return nil, err
	}

	if apiResp.Status != "OK" && apiResp.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("API error: %s - %s", apiResp.Status, apiResp.ErrorMessage)
	}

	maxCandidates := s.config.MaxCandidates
	if maxCandidates > 0 && len(apiResp.Predictions) > maxCandidates {
		apiResp.Predictions = apiResp.Predictions[:maxCandidates]
	}

	candidates := make([]interfaces.GeocodeCandidate, len(apiResp.Predictions))
	for i, prediction := range apiResp.Predictions {
		candidates[i] = interfaces.GeocodeCandidate{
			PlaceID:     prediction.PlaceID,
			Description: prediction.Description,
		}
	}

	s.logger.Debug().
		Str("input", text).
		Int("candidates", len(candidates)).
		Str("status", apiResp.Status).
		Msg("Places Autocomplete completed")

	return candidates, nil
}

// Details resolves a place ID to its formatted address, city, state, zip
// and coordinates. Returns (nil, nil) when the place cannot be resolved.
func (s *Service) Details(ctx context.Context, placeID string) (*interfaces.GeocodeDetails, error) {
	if !s.IsConfigured() {
		return nil, fmt.Errorf("geocoder is not configured")
	}

	s.waitForRateLimit()

	apiURL := s.baseURL + "/details/json"
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", "formatted_address,geometry,address_component")
	params.Set("key", s.apiKey)

	fullURL := fmt.Sprintf("%s?%s", apiURL, params.Encode())

	logURL := fmt.Sprintf("%s?place_id=%s&key=***REDACTED***", apiURL, url.QueryEscape(placeID))
	s.logger.Debug().Str("url", logURL).Msg("Calling Place Details API")

	var apiResp DetailsResponse
	if err := s.getJSON(ctx, fullURL, &apiResp); err != nil {
		s.publishEvent("geocode_details_failed", map[string]interface{}{
			"place_id": placeID,
			"error":    err.Error(),
		})
		return nil, err
	}

	switch apiResp.Status {
	case "OK":
	case "ZERO_RESULTS", "NOT_FOUND":
		s.logger.Debug().Str("place_id", placeID).Str("status", apiResp.Status).Msg("Place could not be resolved")
		return nil, nil
	default:
		return nil, fmt.Errorf("API error: %s - %s", apiResp.Status, apiResp.ErrorMessage)
	}

	if apiResp.Result == nil {
		return nil, nil
	}

	details := &interfaces.GeocodeDetails{
		FormattedAddress: apiResp.Result.FormattedAddress,
	}
	if apiResp.Result.Geometry != nil && apiResp.Result.Geometry.Location != nil {
		details.Lat = apiResp.Result.Geometry.Location.Lat
		details.Lng = apiResp.Result.Geometry.Location.Lng
	}

	for _, component := range apiResp.Result.AddressComponents {
		for _, componentType := range component.Types {
			switch componentType {
			case "locality", "postal_town":
				if details.City == "" {
					details.City = component.LongName
				}
			case "sublocality_level_1":
				if details.City == "" {
					details.City = component.LongName
				}
			case "administrative_area_level_1":
				details.State = component.ShortName
			case "postal_code":
				details.Zip = component.LongName
			}
		}
	}

	s.logger.Debug().
		Str("place_id", placeID).
		Str("city", details.City).
		Str("state", details.State).
		Msg("Place Details completed")

	return details, nil
}

// getJSON performs a context-aware GET and decodes the JSON body
func (s *Service) getJSON(ctx context.Context, fullURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call Places API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("Places API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode API response: %w", err)
	}
	return nil
}

// waitForRateLimit enforces the minimum interval between API requests
func (s *Service) waitForRateLimit() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lastRequest.IsZero() {
		elapsed := time.Since(s.lastRequest)
		if elapsed < s.config.RateLimit {
			waitTime := s.config.RateLimit - elapsed
			s.logger.Debug().
				Dur("wait_time", waitTime).
				Msg("Rate limiting: waiting before next API call")
			time.Sleep(waitTime)
		}
	}
	s.lastRequest = time.Now()
}

// publishEvent publishes an event via the event service
func (s *Service) publishEvent(eventType string, data map[string]interface{}) {
	if s.eventService == nil {
		return
	}

	data["timestamp"] = time.Now().Format(time.RFC3339)
	event := interfaces.Event{
		Type:    interfaces.EventType(eventType),
		Payload: data,
	}
	if err := s.eventService.Publish(context.Background(), event); err != nil {
		s.logger.Warn().
			Err(err).
			Str("event_type", eventType).
			Msg("Failed to publish event")
	}
}
