package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jerrywen2005/travel-journal/internal/record"
)

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	records  RecordStore
	users    UserStore
	aggs     AggregationStore
	cache    Cache
	places   PlaceDirectory
	weather  WeatherSource
	tokens   TokenIssuer
	mediaDir string
	log      *slog.Logger
}

// NewHandlers constructs Handlers with all required dependencies. mediaDir is
// where uploaded photos land.
func NewHandlers(records RecordStore, users UserStore, aggs AggregationStore, cache Cache,
	places PlaceDirectory, weather WeatherSource, tokens TokenIssuer, mediaDir string, log *slog.Logger) *Handlers {
	return &Handlers{
		records:  records,
		users:    users,
		aggs:     aggs,
		cache:    cache,
		places:   places,
		weather:  weather,
		tokens:   tokens,
		mediaDir: mediaDir,
		log:      log,
	}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeValidation renders field-level violations as a 400.
func writeValidation(w http.ResponseWriter, verrs record.ValidationErrors) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":  "validation failed",
		"fields": verrs,
	})
}

// decodeBody strictly decodes a JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}

// asValidation extracts ValidationErrors from err, if that is what it is.
func asValidation(err error) (record.ValidationErrors, bool) {
	var verrs record.ValidationErrors
	ok := errors.As(err, &verrs)
	return verrs, ok
}

// HealthHandlerFunc pings the DB and Redis; 200 when both answer, 503 otherwise.
type dbPinger interface {
	Ping(ctx context.Context) error
}

type redisPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlerFunc returns an http.HandlerFunc that checks db and redis connectivity.
func HealthHandlerFunc(db dbPinger, redis redisPinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		dbStatus := "ok"
		redisStatus := "ok"

		if err := db.Ping(ctx); err != nil {
			log.Error("health check: db ping failed", "err", err)
			dbStatus = "error"
			status = http.StatusServiceUnavailable
		}

		if err := redis.Ping(ctx); err != nil {
			log.Error("health check: redis ping failed", "err", err)
			redisStatus = "error"
			status = http.StatusServiceUnavailable
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}

		writeJSON(w, status, map[string]string{
			"status": overall,
			"db":     dbStatus,
			"redis":  redisStatus,
		})
	}
}
