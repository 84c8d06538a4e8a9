package api

import (
	"context"

	"github.com/jerrywen2005/travel-journal/internal/places"
	"github.com/jerrywen2005/travel-journal/internal/record"
	"github.com/jerrywen2005/travel-journal/internal/storage"
)

// RecordStore defines the record and photo persistence needed by handlers.
type RecordStore interface {
	CreateRecord(ctx context.Context, userID int64, d record.Draft, weatherSummary string) (*record.TravelRecord, error)
	GetRecord(ctx context.Context, userID, id int64) (*record.TravelRecord, error)
	UpdateRecord(ctx context.Context, userID, id int64, p record.Patch) (*record.TravelRecord, error)
	DeleteRecord(ctx context.Context, userID, id int64) (bool, error)
	SearchRecords(ctx context.Context, userID int64, f storage.Filters) ([]record.TravelRecord, int, error)
	ReplacePhoto(ctx context.Context, recordID int64, filePath, contentType string, sizeBytes int64) (*record.Photo, error)
	GetPhoto(ctx context.Context, recordID int64) (*record.Photo, error)
	DeletePhoto(ctx context.Context, recordID, photoID int64) (bool, error)
}

// UserStore defines the account operations needed by the auth handlers.
type UserStore interface {
	CreateUser(ctx context.Context, email, name, passwordHash string) (*storage.User, error)
	GetUserByEmail(ctx context.Context, email string) (*storage.User, error)
}

// AggregationStore defines the insight queries needed by handlers.
type AggregationStore interface {
	AvgRatingByCountry(ctx context.Context, userID int64) ([]record.AvgRating, error)
	TopDestinationPerMonth(ctx context.Context, userID int64) ([]record.TopDestination, error)
}

// Cache defines the caching operations needed by handlers.
type Cache interface {
	GetPlaceDetails(ctx context.Context, placeID string) (*record.PlaceDetails, error)
	SetPlaceDetails(ctx context.Context, placeID string, d *record.PlaceDetails) error
	GetAvgRatings(ctx context.Context, userID int64) ([]record.AvgRating, error)
	SetAvgRatings(ctx context.Context, userID int64, out []record.AvgRating) error
	GetTopDestinations(ctx context.Context, userID int64) ([]record.TopDestination, error)
	SetTopDestinations(ctx context.Context, userID int64, out []record.TopDestination) error
	InvalidateAggregations(ctx context.Context, userID int64) error
}

// PlaceDirectory defines the upstream place lookups proxied by handlers.
type PlaceDirectory interface {
	Autocomplete(ctx context.Context, query, sessionToken string) ([]places.Suggestion, error)
	Details(ctx context.Context, placeID string) (*places.Details, error)
}

// WeatherSource supplies the weather summary attached to new records.
type WeatherSource interface {
	Summary(ctx context.Context, lat, lon float64) (string, error)
}

// TokenIssuer signs access tokens at login.
type TokenIssuer interface {
	Issue(userID int64, email string) (string, error)
}

// TokenVerifier validates bearer tokens in the auth middleware.
type TokenVerifier interface {
	Verify(token string) (int64, error)
}
