package api

import (
	"errors"
	"net/http"

	"github.com/jerrywen2005/travel-journal/internal/places"
	"github.com/jerrywen2005/travel-journal/internal/record"
)

// Autocomplete handles GET /api/v1/places/autocomplete.
func (h *Handlers) Autocomplete(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	suggestions, err := h.places.Autocomplete(r.Context(), q, r.URL.Query().Get("session_token"))
	if err != nil {
		var serr *places.StatusError
		if errors.As(err, &serr) {
			h.log.Warn("places autocomplete rejected", "status", serr.Status)
			writeError(w, http.StatusBadRequest, serr.Error())
			return
		}
		h.log.Error("places autocomplete failed", "err", err)
		writeError(w, http.StatusBadGateway, "place lookup unavailable")
		return
	}

	out := make([]record.PlaceSuggestion, 0, len(suggestions))
	for _, s := range suggestions {
		out = append(out, record.PlaceSuggestion{PlaceID: s.PlaceID, Description: s.Description})
	}
	writeJSON(w, http.StatusOK, out)
}

// PlaceDetails handles GET /api/v1/places/details. Resolved places are cached
// by place id since they essentially never change.
func (h *Handlers) PlaceDetails(w http.ResponseWriter, r *http.Request) {
	placeID := r.URL.Query().Get("place_id")
	if placeID == "" {
		writeError(w, http.StatusBadRequest, "place_id is required")
		return
	}

	cached, err := h.cache.GetPlaceDetails(r.Context(), placeID)
	if err != nil {
		h.log.Warn("place details cache get failed", "place_id", placeID, "err", err)
	}
	if cached != nil {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	d, err := h.places.Details(r.Context(), placeID)
	if err != nil {
		var serr *places.StatusError
		if errors.As(err, &serr) {
			if serr.Status == "NOT_FOUND" || serr.Status == "ZERO_RESULTS" {
				writeError(w, http.StatusNotFound, "place not found")
				return
			}
			writeError(w, http.StatusBadRequest, serr.Error())
			return
		}
		h.log.Error("places details failed", "place_id", placeID, "err", err)
		writeError(w, http.StatusBadGateway, "place lookup unavailable")
		return
	}

	details := &record.PlaceDetails{
		PlaceExternalID: d.PlaceExternalID,
		Title:           d.Title,
		CountryCode:     d.CountryCode,
		City:            d.City,
		Latitude:        d.Latitude,
		Longitude:       d.Longitude,
	}

	if err := h.cache.SetPlaceDetails(r.Context(), placeID, details); err != nil {
		h.log.Warn("place details cache set failed", "place_id", placeID, "err", err)
	}

	writeJSON(w, http.StatusOK, details)
}
