package api

import "net/http"

// AvgRatingByCountry handles GET /api/v1/aggregations/avg-rating-by-country.
// Cache hit → return. Otherwise compute, cache, return.
func (h *Handlers) AvgRatingByCountry(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())

	cached, err := h.cache.GetAvgRatings(r.Context(), userID)
	if err != nil {
		h.log.Warn("avg rating cache get failed", "user_id", userID, "err", err)
	}
	if cached != nil {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	out, err := h.aggs.AvgRatingByCountry(r.Context(), userID)
	if err != nil {
		h.log.Error("avg rating aggregation failed", "user_id", userID, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := h.cache.SetAvgRatings(r.Context(), userID, out); err != nil {
		h.log.Warn("avg rating cache set failed", "user_id", userID, "err", err)
	}

	writeJSON(w, http.StatusOK, out)
}

// TopDestinationPerMonth handles GET /api/v1/aggregations/top-destination-per-month.
func (h *Handlers) TopDestinationPerMonth(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())

	cached, err := h.cache.GetTopDestinations(r.Context(), userID)
	if err != nil {
		h.log.Warn("top destination cache get failed", "user_id", userID, "err", err)
	}
	if cached != nil {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	out, err := h.aggs.TopDestinationPerMonth(r.Context(), userID)
	if err != nil {
		h.log.Error("top destination aggregation failed", "user_id", userID, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := h.cache.SetTopDestinations(r.Context(), userID, out); err != nil {
		h.log.Warn("top destination cache set failed", "user_id", userID, "err", err)
	}

	writeJSON(w, http.StatusOK, out)
}
