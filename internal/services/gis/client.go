// -----------------------------------------------------------------------
// GIS Client - Rate-limited, breaker-wrapped JSON GET for public sources
// -----------------------------------------------------------------------

package gis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/praedium/internal/common"
)

const (
	defaultRateLimit       = 500 * time.Millisecond
	defaultRequestTimeout  = 20 * time.Second
	defaultBreakerFails    = 5
	defaultBreakerCooldown = 30 * time.Second
)

// ErrDegraded marks a source whose circuit is open. Workers report the
// lookup as skipped instead of failing the step.
var ErrDegraded = errors.New("gis source degraded")

// APIError is a non-2xx reply from a GIS endpoint.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("GIS API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// Client performs parameterized JSON GETs against public GIS endpoints.
// Requests share one rate limiter; each host gets its own circuit
// breaker so a dead source does not block the rest of the catalog.
type Client struct {
	config     *common.GISConfig
	logger     arbor.ILogger
	httpClient *http.Client
	limiter    *rate.Limiter
	maxFails   uint32
	cooldown   time.Duration

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewClient creates a GIS client from configuration, applying defaults
// for any unset duration or threshold.
func NewClient(config *common.GISConfig, logger arbor.ILogger) *Client {
	if config == nil {
		config = &common.GISConfig{}
	}

	interval, err := time.ParseDuration(config.RateLimit)
	if err != nil || interval <= 0 {
		interval = defaultRateLimit
	}
	timeout, err := time.ParseDuration(config.RequestTimeout)
	if err != nil || timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	cooldown, err := time.ParseDuration(config.BreakerCooldown)
	if err != nil || cooldown <= 0 {
		cooldown = defaultBreakerCooldown
	}

	maxFails := config.BreakerMaxFails
	if maxFails <= 0 {
		maxFails = defaultBreakerFails
	}

	return &Client{
		config:     config,
		logger:     logger,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Every(interval), 1),
		maxFails:   uint32(maxFails),
		cooldown:   cooldown,
		breakers:   make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Get fetches a JSON document from baseURL with the given query params.
func (c *Client) Get(ctx context.Context, baseURL string, params map[string]string) (map[string]interface{}, error) {
	host := hostOf(baseURL)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := c.breakerFor(host).Execute(func() (interface{}, error) {
		return c.get(ctx, baseURL, params)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %s", ErrDegraded, host)
		}
		return nil, err
	}

	return result.(map[string]interface{}), nil
}

func (c *Client) get(ctx context.Context, baseURL string, params map[string]string) (map[string]interface{}, error) {
	values := url.Values{}
	for key, value := range params {
		values.Set(key, value)
	}

	reqURL := baseURL
	if encoded := values.Encode(); encoded != "" {
		reqURL = baseURL + "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	c.setAuthHeaders(req)

	c.logger.Debug().
		Str("url", baseURL).
		Msg("GIS request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Endpoint:   baseURL,
		}
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return result, nil
}

// setAuthHeaders applies host-specific auth. RapidAPI hosts
// authenticate by header rather than query param.
func (c *Client) setAuthHeaders(req *http.Request) {
	host := req.URL.Hostname()
	if strings.HasSuffix(host, ".p.rapidapi.com") && c.config.RapidAPIKey != "" {
		req.Header.Set("X-RapidAPI-Key", c.config.RapidAPIKey)
		req.Header.Set("X-RapidAPI-Host", host)
	}
}

// breakerFor returns the host's breaker, creating it on first use.
func (c *Client) breakerFor(host string) *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	if breaker, ok := c.breakers[host]; ok {
		return breaker
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    host,
		Timeout: c.cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= c.maxFails
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn().
				Str("host", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("GIS breaker state change")
		},
	})
	c.breakers[host] = breaker
	return breaker
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return parsed.Host
}
