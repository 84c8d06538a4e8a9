package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"github.com/jerrywen2005/travel-journal/internal/record"
)

// ListQuery narrows and pages a records listing.
type ListQuery struct {
	Query           string
	CountryCode     string
	DestinationType string
	MinRating       int
	OrderBy         string
	Limit           int
	Offset          int
}

// Records talks to the travel records endpoints.
type Records struct {
	client *Client
}

// NewRecords returns a Records gateway over the shared client.
func NewRecords(client *Client) *Records {
	return &Records{client: client}
}

// List fetches one page of records matching q.
func (g *Records) List(ctx context.Context, q ListQuery) (*record.RecordsPage, error) {
	values := url.Values{}
	if q.Query != "" {
		values.Set("q", q.Query)
	}
	if q.CountryCode != "" {
		values.Set("country_code", q.CountryCode)
	}
	if q.DestinationType != "" {
		values.Set("dest_type", q.DestinationType)
	}
	if q.MinRating > 0 {
		values.Set("rating_min", strconv.Itoa(q.MinRating))
	}
	if q.OrderBy != "" {
		values.Set("order_by", q.OrderBy)
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		values.Set("offset", strconv.Itoa(q.Offset))
	}

	var page record.RecordsPage
	if err := g.client.get(ctx, "/api/v1/records", values, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Get fetches a single record by id.
func (g *Records) Get(ctx context.Context, id int64) (*record.TravelRecord, error) {
	var rec record.TravelRecord
	if err := g.client.get(ctx, fmt.Sprintf("/api/v1/records/%d", id), nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Create submits a new record draft.
func (g *Records) Create(ctx context.Context, d record.Draft) (*record.TravelRecord, error) {
	var rec record.TravelRecord
	if err := g.client.send(ctx, http.MethodPost, "/api/v1/records", d, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Update applies a partial update to an existing record.
func (g *Records) Update(ctx context.Context, id int64, p record.Patch) (*record.TravelRecord, error) {
	var rec record.TravelRecord
	if err := g.client.send(ctx, http.MethodPatch, fmt.Sprintf("/api/v1/records/%d", id), p, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Remove deletes a record.
func (g *Records) Remove(ctx context.Context, id int64) error {
	return g.client.send(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/records/%d", id), nil, nil)
}

// UploadPhoto sends a photo as multipart form data. filename decides the
// form part name only; the server renames by content hash.
func (g *Records) UploadPhoto(ctx context.Context, recordID int64, filename, contentType string, data io.Reader) (*record.Photo, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		return nil, fmt.Errorf("creating form part: %w", err)
	}
	if _, err := io.Copy(part, data); err != nil {
		return nil, fmt.Errorf("copying photo data: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart writer: %w", err)
	}

	var photo record.Photo
	path := fmt.Sprintf("/api/v1/records/%d/photos", recordID)
	if err := g.client.upload(ctx, http.MethodPost, path, mw.FormDataContentType(), &buf, &photo); err != nil {
		return nil, err
	}
	return &photo, nil
}

// ListPhotos returns the record's photos. At most one element today.
func (g *Records) ListPhotos(ctx context.Context, recordID int64) ([]record.Photo, error) {
	var photos []record.Photo
	if err := g.client.get(ctx, fmt.Sprintf("/api/v1/records/%d/photos", recordID), nil, &photos); err != nil {
		return nil, err
	}
	return photos, nil
}

// DeletePhoto removes one photo from a record.
func (g *Records) DeletePhoto(ctx context.Context, recordID, photoID int64) error {
	path := fmt.Sprintf("/api/v1/records/%d/photos/%d", recordID, photoID)
	return g.client.send(ctx, http.MethodDelete, path, nil, nil)
}
