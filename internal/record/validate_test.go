package record_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jerrywen2005/travel-journal/internal/record"
)

func validDraft() record.Draft {
	return record.Draft{
		Title:           "Louvre",
		CountryCode:     "FR",
		City:            "Paris",
		Latitude:        48.86,
		Longitude:       2.33,
		DestinationType: record.TypeMuseum,
		Rating:          4,
		VisitedAt:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestDraft_Validate_OK(t *testing.T) {
	d := validDraft()
	require.NoError(t, d.Validate())
}

func TestDraft_Validate_Violations(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*record.Draft)
		field  string
	}{
		{"missing title", func(d *record.Draft) { d.Title = "" }, "title"},
		{"title too long", func(d *record.Draft) { d.Title = string(make([]byte, 141)) }, "title"},
		{"lowercase country", func(d *record.Draft) { d.CountryCode = "fr" }, "country_code"},
		{"three-letter country", func(d *record.Draft) { d.CountryCode = "FRA" }, "country_code"},
		{"digit country", func(d *record.Draft) { d.CountryCode = "F1" }, "country_code"},
		{"latitude out of range", func(d *record.Draft) { d.Latitude = 91 }, "latitude"},
		{"longitude out of range", func(d *record.Draft) { d.Longitude = -181 }, "longitude"},
		{"rating zero", func(d *record.Draft) { d.Rating = 0 }, "rating"},
		{"rating six", func(d *record.Draft) { d.Rating = 6 }, "rating"},
		{"missing visited_at", func(d *record.Draft) { d.VisitedAt = time.Time{} }, "visited_at"},
		{"unknown destination type", func(d *record.Draft) { d.DestinationType = "volcano" }, "destination_type"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := validDraft()
			tc.mutate(&d)

			err := d.Validate()
			require.Error(t, err)

			verrs, ok := err.(record.ValidationErrors)
			require.True(t, ok, "expected ValidationErrors, got %T", err)
			assert.Contains(t, verrs, tc.field)
		})
	}
}

func TestDraft_Normalize_UppercasesCountryCode(t *testing.T) {
	d := validDraft()
	d.CountryCode = "us"

	// Lowercase input fails as-is; normalization fixes it before submission.
	require.Error(t, d.Validate())
	d.Normalize()
	assert.Equal(t, "US", d.CountryCode)
	require.NoError(t, d.Validate())
}

func TestDraft_Normalize_TrimsAndPinsUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	d := validDraft()
	d.Title = "  Louvre  "
	d.City = " Paris "
	d.VisitedAt = time.Date(2025, 6, 1, 14, 0, 0, 0, loc)

	d.Normalize()

	assert.Equal(t, "Louvre", d.Title)
	assert.Equal(t, "Paris", d.City)
	assert.Equal(t, time.UTC, d.VisitedAt.Location())
	assert.Equal(t, 12, d.VisitedAt.Hour())
}

func TestDefaultDraft(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	d := record.DefaultDraft(now)

	assert.Equal(t, record.TypeCity, d.DestinationType)
	assert.Equal(t, 5, d.Rating)
	assert.Equal(t, now, d.VisitedAt)
	assert.Zero(t, d.Latitude)
	assert.Zero(t, d.Longitude)
}

func TestDraftFrom_CopiesWritableFieldsOnly(t *testing.T) {
	r := record.TravelRecord{
		ID:              7,
		UserID:          1,
		Title:           "Sahara trek",
		CountryCode:     "MA",
		Latitude:        31.1,
		Longitude:       -4.0,
		DestinationType: record.TypeDesert,
		Rating:          9, // pre-existing bad data loads untouched
		VisitedAt:       time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		CreatedAt:       time.Now(),
	}

	d := record.DraftFrom(r)

	assert.Equal(t, "Sahara trek", d.Title)
	assert.Equal(t, 9, d.Rating)
	require.Error(t, d.Validate(), "bad data must still be rejected on save")
}
