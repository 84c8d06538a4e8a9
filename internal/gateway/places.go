package gateway

import (
	"context"
	"net/url"
	"sync"

	"github.com/google/uuid"

	"github.com/jerrywen2005/travel-journal/internal/record"
)

// Places talks to the place lookup endpoints. A session token groups
// autocomplete keystrokes with the details call that resolves them, and is
// rotated after each resolution.
type Places struct {
	client *Client

	mu      sync.Mutex
	session string
}

// NewPlaces returns a Places gateway over the shared client.
func NewPlaces(client *Client) *Places {
	return &Places{client: client}
}

func (g *Places) sessionToken() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.session == "" {
		g.session = uuid.NewString()
	}
	return g.session
}

func (g *Places) rotateSession() {
	g.mu.Lock()
	g.session = ""
	g.mu.Unlock()
}

// Autocomplete returns suggestions for a partial query.
func (g *Places) Autocomplete(ctx context.Context, query string) ([]record.PlaceSuggestion, error) {
	values := url.Values{}
	values.Set("q", query)
	values.Set("session_token", g.sessionToken())

	var suggestions []record.PlaceSuggestion
	if err := g.client.get(ctx, "/api/v1/places/autocomplete", values, &suggestions); err != nil {
		return nil, err
	}
	return suggestions, nil
}

// Details resolves a suggestion to full place details and closes the
// current autocomplete session.
func (g *Places) Details(ctx context.Context, placeID string) (*record.PlaceDetails, error) {
	values := url.Values{}
	values.Set("place_id", placeID)

	var details record.PlaceDetails
	if err := g.client.get(ctx, "/api/v1/places/details", values, &details); err != nil {
		return nil, err
	}
	g.rotateSession()
	return &details, nil
}
