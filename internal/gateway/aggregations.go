package gateway

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/jerrywen2005/travel-journal/internal/record"
)

// Aggregations talks to the insight endpoints.
type Aggregations struct {
	client *Client
}

// NewAggregations returns an Aggregations gateway over the shared client.
func NewAggregations(client *Client) *Aggregations {
	return &Aggregations{client: client}
}

// AvgRatingByCountry returns per-country rating averages.
func (g *Aggregations) AvgRatingByCountry(ctx context.Context) ([]record.AvgRating, error) {
	var out []record.AvgRating
	if err := g.client.get(ctx, "/api/v1/aggregations/avg-rating-by-country", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TopDestinationPerMonth returns the best-rated record of each month.
func (g *Aggregations) TopDestinationPerMonth(ctx context.Context) ([]record.TopDestination, error) {
	var out []record.TopDestination
	if err := g.client.get(ctx, "/api/v1/aggregations/top-destination-per-month", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Insights bundles both aggregation views.
type Insights struct {
	AvgRatings      []record.AvgRating
	TopDestinations []record.TopDestination
}

// FetchInsights loads both views concurrently and fails on the first error.
func (g *Aggregations) FetchInsights(ctx context.Context) (*Insights, error) {
	var insights Insights

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		out, err := g.AvgRatingByCountry(ctx)
		if err != nil {
			return err
		}
		insights.AvgRatings = out
		return nil
	})
	eg.Go(func() error {
		out, err := g.TopDestinationPerMonth(ctx)
		if err != nil {
			return err
		}
		insights.TopDestinations = out
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return &insights, nil
}
