package gis

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/praedium/internal/common"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(&common.GISConfig{
		RateLimit:       "1ns",
		RequestTimeout:  "5s",
		BreakerMaxFails: 2,
		BreakerCooldown: "1h",
		RapidAPIKey:     "rapid-key",
	}, arbor.NewLogger())
	return client, server
}

func TestGet(t *testing.T) {
	var gotQuery, gotAccept string
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"features": [], "count": 3}`))
	})

	payload, err := client.Get(context.Background(), server.URL, map[string]string{"f": "json", "inSR": "4326"})
	require.NoError(t, err)
	assert.Equal(t, 3.0, payload["count"])
	assert.Contains(t, gotQuery, "f=json")
	assert.Contains(t, gotQuery, "inSR=4326")
	assert.Equal(t, "application/json", gotAccept)
}

func TestGet_NoParams(t *testing.T) {
	var gotQuery string
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := client.Get(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Empty(t, gotQuery)
}

func TestGet_HTTPError(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	})

	_, err := client.Get(context.Background(), server.URL, nil)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "upstream broken")
}

func TestGet_DecodeError(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	_, err := client.Get(context.Background(), server.URL, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestGet_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	requests := 0
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.Error(w, "down", http.StatusInternalServerError)
	})

	for i := 0; i < 2; i++ {
		_, err := client.Get(context.Background(), server.URL, nil)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrDegraded)
	}

	// Circuit is open now; the endpoint must not be hit again.
	_, err := client.Get(context.Background(), server.URL, nil)
	require.ErrorIs(t, err, ErrDegraded)
	assert.Equal(t, 2, requests)
}

func TestGet_BreakerIsPerHost(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	t.Cleanup(failing.Close)

	client, healthy := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok": true}`))
	})

	for i := 0; i < 3; i++ {
		_, err := client.Get(context.Background(), failing.URL, nil)
		require.Error(t, err)
	}
	_, err := client.Get(context.Background(), failing.URL, nil)
	require.ErrorIs(t, err, ErrDegraded)

	payload, err := client.Get(context.Background(), healthy.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, true, payload["ok"])
}

func TestSetAuthHeaders(t *testing.T) {
	client := NewClient(&common.GISConfig{RapidAPIKey: "rapid-key"}, arbor.NewLogger())

	rapid := httptest.NewRequest(http.MethodGet, "https://us-real-estate.p.rapidapi.com/v2/pro/property-details", nil)
	client.setAuthHeaders(rapid)
	assert.Equal(t, "rapid-key", rapid.Header.Get("X-RapidAPI-Key"))
	assert.Equal(t, "us-real-estate.p.rapidapi.com", rapid.Header.Get("X-RapidAPI-Host"))

	public := httptest.NewRequest(http.MethodGet, "https://hazards.fema.gov/arcgis/rest/services/public/NFHL/MapServer/28/query", nil)
	client.setAuthHeaders(public)
	assert.Empty(t, public.Header.Get("X-RapidAPI-Key"))

	unkeyed := NewClient(&common.GISConfig{}, arbor.NewLogger())
	bare := httptest.NewRequest(http.MethodGet, "https://us-real-estate.p.rapidapi.com/v2/pro/property-details", nil)
	unkeyed.setAuthHeaders(bare)
	assert.Empty(t, bare.Header.Get("X-RapidAPI-Key"))
}
