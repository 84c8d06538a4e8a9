package record

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var iso2Pattern = regexp.MustCompile(`^[A-Z]{2}$`)

// Draft mirrors the writable fields of a TravelRecord. It doubles as the
// create payload on the wire and as the editor's working copy on the client.
type Draft struct {
	Title           string          `json:"title" validate:"required,max=140"`
	Notes           string          `json:"notes,omitempty"`
	CountryCode     string          `json:"country_code" validate:"required,len=2,alpha,uppercase"`
	Region          string          `json:"region,omitempty"`
	City            string          `json:"city,omitempty" validate:"max=100"`
	Latitude        float64         `json:"latitude" validate:"latitude"`
	Longitude       float64         `json:"longitude" validate:"longitude"`
	DestinationType DestinationType `json:"destination_type" validate:"required,oneof=city nature beach museum park mountain desert historical food other"`
	Rating          int             `json:"rating" validate:"required,min=1,max=5"`
	VisitedAt       time.Time       `json:"visited_at" validate:"required"`
	PlaceExternalID string          `json:"place_external_id,omitempty" validate:"max=128"`
}

var validate = newValidator()

// newValidator builds a validator that reports field names from json tags.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// ValidationErrors maps a field name to a human-readable violation.
// It blocks submission locally and is never sent to the network.
type ValidationErrors map[string]string

func (e ValidationErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Normalize prepares a draft for submission: trims free-text fields,
// uppercases the country code, and pins visited_at to UTC.
func (d *Draft) Normalize() {
	d.Title = strings.TrimSpace(d.Title)
	d.Notes = strings.TrimSpace(d.Notes)
	d.CountryCode = strings.ToUpper(strings.TrimSpace(d.CountryCode))
	d.Region = strings.TrimSpace(d.Region)
	d.City = strings.TrimSpace(d.City)
	d.PlaceExternalID = strings.TrimSpace(d.PlaceExternalID)
	if !d.VisitedAt.IsZero() {
		d.VisitedAt = d.VisitedAt.UTC()
	}
}

// Validate checks the draft against the field rules: title required and at
// most 140 chars, country code matching ^[A-Z]{2}$, coordinates in range,
// rating 1-5, visited_at present. Returns ValidationErrors on violation.
func (d Draft) Validate() error {
	err := validate.Struct(d)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validating draft: %w", err)
	}

	out := make(ValidationErrors, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = messageFor(fe)
	}
	return out
}

// messageFor translates a validator tag into a short user-facing message.
func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "len", "alpha", "uppercase":
		return "must be a two-letter uppercase country code"
	case "latitude":
		return "must be between -90 and 90"
	case "longitude":
		return "must be between -180 and 180"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}

// Validate checks only the fields a partial update actually sets.
func (p Patch) Validate() error {
	out := ValidationErrors{}

	if p.Title != nil && (*p.Title == "" || len(*p.Title) > 140) {
		out["title"] = "must be 1-140 characters"
	}
	if p.CountryCode != nil && !iso2Pattern.MatchString(*p.CountryCode) {
		out["country_code"] = "must be a two-letter uppercase country code"
	}
	if p.Latitude != nil && (*p.Latitude < -90 || *p.Latitude > 90) {
		out["latitude"] = "must be between -90 and 90"
	}
	if p.Longitude != nil && (*p.Longitude < -180 || *p.Longitude > 180) {
		out["longitude"] = "must be between -180 and 180"
	}
	if p.Rating != nil && (*p.Rating < 1 || *p.Rating > 5) {
		out["rating"] = "must be between 1 and 5"
	}
	if p.DestinationType != nil && !p.DestinationType.Valid() {
		out["destination_type"] = "is not a known destination type"
	}
	if p.City != nil && len(*p.City) > 100 {
		out["city"] = "must be at most 100"
	}
	if p.PlaceExternalID != nil && len(*p.PlaceExternalID) > 128 {
		out["place_external_id"] = "must be at most 128"
	}
	if p.VisitedAt != nil && p.VisitedAt.IsZero() {
		out["visited_at"] = "is required"
	}

	if len(out) > 0 {
		return out
	}
	return nil
}

// DefaultDraft returns a create-mode draft: destination type city, rating 5,
// visited now, coordinates at the origin.
func DefaultDraft(now time.Time) Draft {
	return Draft{
		CountryCode:     "US",
		DestinationType: TypeCity,
		Rating:          5,
		VisitedAt:       now.UTC(),
	}
}

// DraftFrom copies the writable fields of an existing record into a draft.
// No validation happens here: a record with out-of-range values loads as-is
// so the user can correct it, and the next Save rejects it if still invalid.
func DraftFrom(r TravelRecord) Draft {
	return Draft{
		Title:           r.Title,
		Notes:           r.Notes,
		CountryCode:     r.CountryCode,
		Region:          r.Region,
		City:            r.City,
		Latitude:        r.Latitude,
		Longitude:       r.Longitude,
		DestinationType: r.DestinationType,
		Rating:          r.Rating,
		VisitedAt:       r.VisitedAt,
		PlaceExternalID: r.PlaceExternalID,
	}
}
