package places_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jerrywen2005/travel-journal/internal/places"
)

func autocompleteHandler(t *testing.T, status string, preds []map[string]string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "geocode", r.URL.Query().Get("types"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":      status,
			"predictions": preds,
		})
	}
}

func TestAutocomplete_OK(t *testing.T) {
	srv := httptest.NewServer(autocompleteHandler(t, "OK", []map[string]string{
		{"place_id": "p1", "description": "Paris, France"},
		{"place_id": "p2", "description": "Paris, TX, USA"},
	}))
	defer srv.Close()

	c := places.NewClientWithURLs(srv.URL, srv.URL, "test-key")
	got, err := c.Autocomplete(context.Background(), "par", "")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "p1", got[0].PlaceID)
	assert.Equal(t, "Paris, France", got[0].Description)
}

func TestAutocomplete_ZeroResultsIsEmptyNotError(t *testing.T) {
	srv := httptest.NewServer(autocompleteHandler(t, "ZERO_RESULTS", nil))
	defer srv.Close()

	c := places.NewClientWithURLs(srv.URL, srv.URL, "test-key")
	got, err := c.Autocomplete(context.Background(), "zzzzz", "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAutocomplete_SessionTokenForwarded(t *testing.T) {
	var gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.URL.Query().Get("sessiontoken")
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "OK"})
	}))
	defer srv.Close()

	c := places.NewClientWithURLs(srv.URL, srv.URL, "test-key")
	_, err := c.Autocomplete(context.Background(), "par", "tok-123")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", gotToken)
}

func TestAutocomplete_RequestDenied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":        "REQUEST_DENIED",
			"error_message": "key revoked",
		})
	}))
	defer srv.Close()

	c := places.NewClientWithURLs(srv.URL, srv.URL, "test-key")
	_, err := c.Autocomplete(context.Background(), "par", "")
	require.Error(t, err)

	var serr *places.StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "REQUEST_DENIED", serr.Status)
}

func detailsPayload() map[string]any {
	return map[string]any{
		"status": "OK",
		"result": map[string]any{
			"place_id": "abc",
			"name":     "Louvre",
			"address_components": []map[string]any{
				{"long_name": "Paris", "short_name": "Paris", "types": []string{"locality", "political"}},
				{"long_name": "France", "short_name": "fr", "types": []string{"country", "political"}},
			},
			"geometry": map[string]any{
				"location": map[string]any{"lat": 48.86, "lng": 2.33},
			},
		},
	}
}

func TestDetails_MapsFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abc", r.URL.Query().Get("place_id"))
		_ = json.NewEncoder(w).Encode(detailsPayload())
	}))
	defer srv.Close()

	c := places.NewClientWithURLs(srv.URL, srv.URL, "test-key")
	d, err := c.Details(context.Background(), "abc")
	require.NoError(t, err)

	assert.Equal(t, "abc", d.PlaceExternalID)
	assert.Equal(t, "Louvre", d.Title)
	assert.Equal(t, "FR", d.CountryCode, "country short name must be uppercased")
	assert.Equal(t, "Paris", d.City)
	assert.Equal(t, 48.86, d.Latitude)
	assert.Equal(t, 2.33, d.Longitude)
}

func TestDetails_CityFallsBackToAdminArea(t *testing.T) {
	payload := detailsPayload()
	payload["result"].(map[string]any)["address_components"] = []map[string]any{
		{"long_name": "Île-de-France", "short_name": "IDF", "types": []string{"administrative_area_level_1"}},
		{"long_name": "France", "short_name": "FR", "types": []string{"country"}},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer srv.Close()

	c := places.NewClientWithURLs(srv.URL, srv.URL, "test-key")
	d, err := c.Details(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "Île-de-France", d.City)
}

func TestDetails_NotFoundStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "NOT_FOUND"})
	}))
	defer srv.Close()

	c := places.NewClientWithURLs(srv.URL, srv.URL, "test-key")
	_, err := c.Details(context.Background(), "missing")
	var serr *places.StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "NOT_FOUND", serr.Status)
}
