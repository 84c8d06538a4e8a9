package record

import "time"

// DestinationType classifies what kind of place a travel record describes.
type DestinationType string

const (
	TypeCity       DestinationType = "city"
	TypeNature     DestinationType = "nature"
	TypeBeach      DestinationType = "beach"
	TypeMuseum     DestinationType = "museum"
	TypePark       DestinationType = "park"
	TypeMountain   DestinationType = "mountain"
	TypeDesert     DestinationType = "desert"
	TypeHistorical DestinationType = "historical"
	TypeFood       DestinationType = "food"
	TypeOther      DestinationType = "other"
)

// destinationTypes is the closed set of valid DestinationType values.
var destinationTypes = map[DestinationType]bool{
	TypeCity: true, TypeNature: true, TypeBeach: true, TypeMuseum: true,
	TypePark: true, TypeMountain: true, TypeDesert: true, TypeHistorical: true,
	TypeFood: true, TypeOther: true,
}

// Valid reports whether t is one of the known destination types.
func (t DestinationType) Valid() bool { return destinationTypes[t] }

// Photo is the single image attached to a travel record. At most one photo
// exists per record; uploading a new one replaces it, deleting the record
// removes it.
type Photo struct {
	ID          int64  `json:"id"`
	FilePath    string `json:"file_path"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

// TravelRecord is a visited destination as stored by the server.
type TravelRecord struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	Title           string          `json:"title"`
	Notes           string          `json:"notes,omitempty"`
	CountryCode     string          `json:"country_code"`
	Region          string          `json:"region,omitempty"`
	City            string          `json:"city,omitempty"`
	Latitude        float64         `json:"latitude"`
	Longitude       float64         `json:"longitude"`
	DestinationType DestinationType `json:"destination_type"`
	Rating          int             `json:"rating"`
	VisitedAt       time.Time       `json:"visited_at"`
	PlaceExternalID string          `json:"place_external_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       *time.Time      `json:"updated_at,omitempty"`
	WeatherSummary  string          `json:"weather_summary,omitempty"`
	Photo           *Photo          `json:"photo,omitempty"`
}

// RecordsPage is a windowed view over a user's travel records.
type RecordsPage struct {
	Items  []TravelRecord `json:"items"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// Patch carries the optional fields of a partial update. Nil means
// "leave unchanged".
type Patch struct {
	Title           *string          `json:"title,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
	CountryCode     *string          `json:"country_code,omitempty"`
	Region          *string          `json:"region,omitempty"`
	City            *string          `json:"city,omitempty"`
	Latitude        *float64         `json:"latitude,omitempty"`
	Longitude       *float64         `json:"longitude,omitempty"`
	DestinationType *DestinationType `json:"destination_type,omitempty"`
	Rating          *int             `json:"rating,omitempty"`
	VisitedAt       *time.Time       `json:"visited_at,omitempty"`
	PlaceExternalID *string          `json:"place_external_id,omitempty"`
}

// PlaceSuggestion is one autocomplete prediction. It lives only for the
// duration of a query.
type PlaceSuggestion struct {
	PlaceID     string `json:"place_id"`
	Description string `json:"description"`
}

// PlaceDetails is a resolved suggestion, ready to patch a draft with.
type PlaceDetails struct {
	PlaceExternalID string  `json:"place_external_id"`
	Title           string  `json:"title"`
	CountryCode     string  `json:"country_code,omitempty"`
	City            string  `json:"city,omitempty"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
}

// AvgRating is the average rating over one country.
type AvgRating struct {
	Key       string  `json:"key"`
	AvgRating float64 `json:"avg_rating"`
	Count     int     `json:"count"`
}

// TopDestination is the highest-rated record of one calendar month.
type TopDestination struct {
	Month       time.Time `json:"month"`
	RecordID    int64     `json:"record_id"`
	Title       string    `json:"title"`
	Rating      int       `json:"rating"`
	City        string    `json:"city,omitempty"`
	CountryCode string    `json:"country_code"`
}
