package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the Chi router. Health, metrics, and the auth endpoints
// are open; everything else requires a bearer token. Rate limiting is applied
// globally: 120 requests per minute per IP.
func NewRouter(handlers *Handlers, tokens TokenVerifier, db dbPinger, redisClient redisPinger, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(Metrics)
	r.Use(httprate.LimitByIP(120, time.Minute))

	r.Get("/api/v1/health", HealthHandlerFunc(db, redisClient, log))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/api/v1/auth/signup", handlers.Signup)
	r.Post("/api/v1/auth/login", handlers.Login)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(tokens))

		r.Get("/api/v1/records", handlers.ListRecords)
		r.Post("/api/v1/records", handlers.CreateRecord)
		r.Get("/api/v1/records/{id}", handlers.GetRecord)
		r.Patch("/api/v1/records/{id}", handlers.UpdateRecord)
		r.Delete("/api/v1/records/{id}", handlers.DeleteRecord)

		r.Post("/api/v1/records/{id}/photos", handlers.UploadPhoto)
		r.Get("/api/v1/records/{id}/photos", handlers.ListPhotos)
		r.Delete("/api/v1/records/{id}/photos/{photoID}", handlers.DeletePhoto)

		r.Get("/api/v1/places/autocomplete", handlers.Autocomplete)
		r.Get("/api/v1/places/details", handlers.PlaceDetails)

		r.Get("/api/v1/aggregations/avg-rating-by-country", handlers.AvgRatingByCountry)
		r.Get("/api/v1/aggregations/top-destination-per-month", handlers.TopDestinationPerMonth)
	})

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)
