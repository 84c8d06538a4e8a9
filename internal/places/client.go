// Package places wraps the Google Places web service: autocomplete
// predictions and place-detail lookups, mapped onto the travel-record fields.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const httpTimeout = 10 * time.Second

const (
	autocompleteDefaultURL = "https://maps.googleapis.com/maps/api/place/autocomplete/json"
	detailsDefaultURL      = "https://maps.googleapis.com/maps/api/place/details/json"
)

// Suggestion is one autocomplete prediction, trimmed to what the UI needs.
type Suggestion struct {
	PlaceID     string `json:"place_id"`
	Description string `json:"description"`
}

// Details is a resolved place mapped to travel-record fields. CountryCode
// and City may be empty when Google has no address component for them.
type Details struct {
	PlaceExternalID string  `json:"place_external_id"`
	Title           string  `json:"title"`
	CountryCode     string  `json:"country_code,omitempty"`
	City            string  `json:"city,omitempty"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
}

// StatusError reports a non-OK status from the Places service.
type StatusError struct {
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return "places: status " + e.Status
	}
	return "places: status " + e.Status + ": " + e.Message
}

// Client calls the Places service with one API key.
type Client struct {
	apiKey          string
	autocompleteURL string
	detailsURL      string
	client          *http.Client
}

// NewClient constructs a Client with the given API key and production URLs.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:          apiKey,
		autocompleteURL: autocompleteDefaultURL,
		detailsURL:      detailsDefaultURL,
		client:          &http.Client{Timeout: httpTimeout},
	}
}

// NewClientWithURLs constructs a Client pointing at custom base URLs (for tests).
func NewClientWithURLs(autocompleteURL, detailsURL, apiKey string) *Client {
	return &Client{
		apiKey:          apiKey,
		autocompleteURL: autocompleteURL,
		detailsURL:      detailsURL,
		client:          &http.Client{Timeout: httpTimeout},
	}
}

// doGet performs a GET request and decodes the JSON response into dst.
func (c *Client) doGet(ctx context.Context, rawURL string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request for %s: %w", rawURL, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s returned status %d", rawURL, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response from %s: %w", rawURL, err)
	}

	return nil
}

type autocompleteResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Predictions  []struct {
		PlaceID     string `json:"place_id"`
		Description string `json:"description"`
	} `json:"predictions"`
}

// Autocomplete returns geocode predictions for the query. sessionToken groups
// keystrokes of one search for Google's billing and may be empty.
func (c *Client) Autocomplete(ctx context.Context, query, sessionToken string) ([]Suggestion, error) {
	params := url.Values{}
	params.Set("input", query)
	params.Set("types", "geocode")
	params.Set("key", c.apiKey)
	if sessionToken != "" {
		params.Set("sessiontoken", sessionToken)
	}

	var raw autocompleteResponse
	if err := c.doGet(ctx, c.autocompleteURL+"?"+params.Encode(), &raw); err != nil {
		return nil, fmt.Errorf("places autocomplete for %q: %w", query, err)
	}

	if raw.Status != "OK" && raw.Status != "ZERO_RESULTS" {
		return nil, &StatusError{Status: raw.Status, Message: raw.ErrorMessage}
	}

	out := make([]Suggestion, 0, len(raw.Predictions))
	for _, p := range raw.Predictions {
		out = append(out, Suggestion{PlaceID: p.PlaceID, Description: p.Description})
	}
	return out, nil
}

type addressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

type detailsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Result       struct {
		PlaceID           string             `json:"place_id"`
		Name              string             `json:"name"`
		AddressComponents []addressComponent `json:"address_components"`
		Geometry          struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"result"`
}

// componentFor returns the named component value, short form when asked.
func componentFor(comps []addressComponent, typ string, short bool) string {
	for _, c := range comps {
		for _, t := range c.Types {
			if t == typ {
				if short {
					return c.ShortName
				}
				return c.LongName
			}
		}
	}
	return ""
}

// Details resolves a place id into record-ready fields. The city falls back
// through locality, postal town, then administrative areas.
func (c *Client) Details(ctx context.Context, placeID string) (*Details, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", "address_component,geometry,name,place_id")
	params.Set("key", c.apiKey)

	var raw detailsResponse
	if err := c.doGet(ctx, c.detailsURL+"?"+params.Encode(), &raw); err != nil {
		return nil, fmt.Errorf("places details for %s: %w", placeID, err)
	}

	if raw.Status != "OK" {
		return nil, &StatusError{Status: raw.Status, Message: raw.ErrorMessage}
	}

	comps := raw.Result.AddressComponents

	city := componentFor(comps, "locality", false)
	if city == "" {
		city = componentFor(comps, "postal_town", false)
	}
	if city == "" {
		city = componentFor(comps, "administrative_area_level_2", false)
	}
	if city == "" {
		city = componentFor(comps, "administrative_area_level_1", false)
	}

	return &Details{
		PlaceExternalID: raw.Result.PlaceID,
		Title:           raw.Result.Name,
		CountryCode:     strings.ToUpper(componentFor(comps, "country", true)),
		City:            city,
		Latitude:        raw.Result.Geometry.Location.Lat,
		Longitude:       raw.Result.Geometry.Location.Lng,
	}, nil
}
