package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jerrywen2005/travel-journal/internal/record"
	"github.com/jerrywen2005/travel-journal/internal/storage"
)

// pathID parses the named int64 path parameter, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, name string, fallback int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func queryTime(r *http.Request, name string) time.Time {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

// filtersFrom maps the listing query string onto storage filters. Limit is
// clamped to 1..200 as the original API did.
func filtersFrom(r *http.Request) storage.Filters {
	q := r.URL.Query()

	limit := queryInt(r, "limit", 20)
	if limit < 1 {
		limit = 1
	}
	if limit > 200 {
		limit = 200
	}

	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	return storage.Filters{
		Query:       q.Get("q"),
		CountryCode: q.Get("country_code"),
		Region:      q.Get("region"),
		City:        q.Get("city"),
		DestType:    record.DestinationType(q.Get("dest_type")),
		RatingMin:   queryInt(r, "rating_min", 0),
		RatingMax:   queryInt(r, "rating_max", 0),
		DateFrom:    queryTime(r, "date_from"),
		DateTo:      queryTime(r, "date_to"),
		OrderBy:     q.Get("order_by"),
		Limit:       limit,
		Offset:      offset,
	}
}

// ListRecords handles GET /api/v1/records.
func (h *Handlers) ListRecords(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	f := filtersFrom(r)

	items, total, err := h.records.SearchRecords(r.Context(), userID, f)
	if err != nil {
		h.log.Error("record search failed", "user_id", userID, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, record.RecordsPage{
		Items:  items,
		Total:  total,
		Limit:  f.Limit,
		Offset: f.Offset,
	})
}

// GetRecord handles GET /api/v1/records/{id}.
func (h *Handlers) GetRecord(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	rec, err := h.records.GetRecord(r.Context(), userID, id)
	if err != nil {
		h.log.Error("record get failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// CreateRecord handles POST /api/v1/records.
func (h *Handlers) CreateRecord(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())

	var d record.Draft
	if err := decodeBody(r, &d); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	d.Normalize()
	if err := d.Validate(); err != nil {
		if verrs, ok := asValidation(err); ok {
			writeValidation(w, verrs)
			return
		}
		h.log.Error("draft validation errored", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	// Best effort: a failed weather lookup never blocks the create.
	summary, err := h.weather.Summary(r.Context(), d.Latitude, d.Longitude)
	if err != nil {
		h.log.Warn("weather summary failed", "err", err)
		summary = ""
	}

	rec, err := h.records.CreateRecord(r.Context(), userID, d, summary)
	if err != nil {
		h.log.Error("record create failed", "user_id", userID, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := h.cache.InvalidateAggregations(r.Context(), userID); err != nil {
		h.log.Warn("aggregation invalidate failed", "user_id", userID, "err", err)
	}

	writeJSON(w, http.StatusCreated, rec)
}

// UpdateRecord handles PATCH /api/v1/records/{id}.
func (h *Handlers) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var p record.Patch
	if err := decodeBody(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if err := p.Validate(); err != nil {
		if verrs, ok := asValidation(err); ok {
			writeValidation(w, verrs)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid patch")
		return
	}

	rec, err := h.records.UpdateRecord(r.Context(), userID, id, p)
	if err != nil {
		h.log.Error("record update failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}

	if err := h.cache.InvalidateAggregations(r.Context(), userID); err != nil {
		h.log.Warn("aggregation invalidate failed", "user_id", userID, "err", err)
	}

	writeJSON(w, http.StatusOK, rec)
}

// DeleteRecord handles DELETE /api/v1/records/{id}.
func (h *Handlers) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	deleted, err := h.records.DeleteRecord(r.Context(), userID, id)
	if err != nil {
		h.log.Error("record delete failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}

	if err := h.cache.InvalidateAggregations(r.Context(), userID); err != nil {
		h.log.Warn("aggregation invalidate failed", "user_id", userID, "err", err)
	}

	w.WriteHeader(http.StatusNoContent)
}
