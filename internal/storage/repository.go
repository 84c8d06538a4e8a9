package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jerrywen2005/travel-journal/internal/record"
)

// Querier abstracts the subset of pgxpool.Pool used by Repository.
// This allows injection of a mock in tests.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ErrDuplicateEmail is returned by CreateUser when the email is taken.
var ErrDuplicateEmail = errors.New("email already registered")

// psql builds queries with $n placeholders for PostgreSQL.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repository provides database access for users, travel records, photos,
// and aggregations.
type Repository struct {
	q Querier
}

// NewRepository constructs a Repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{q: pool}
}

// NewRepositoryWithQuerier constructs a Repository with a custom Querier (for tests).
func NewRepositoryWithQuerier(q Querier) *Repository {
	return &Repository{q: q}
}

// ---- users ----

// User is an account row. PasswordHash never leaves the server.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

// CreateUser inserts a new account. Returns ErrDuplicateEmail when the
// email already exists.
func (r *Repository) CreateUser(ctx context.Context, email, name, passwordHash string) (*User, error) {
	const q = `
		INSERT INTO users (email, name, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	u := User{Email: email, Name: name, PasswordHash: passwordHash}
	err := r.q.QueryRow(ctx, q, email, name, passwordHash).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("inserting user %s: %w", email, err)
	}

	return &u, nil
}

// GetUserByEmail returns nil, nil when no account matches.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	const q = `
		SELECT id, email, name, password_hash, created_at
		FROM users
		WHERE email = $1
	`

	var u User
	err := r.q.QueryRow(ctx, q, email).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying user by email: %w", err)
	}

	return &u, nil
}

// ---- travel records ----

// Filters narrows and orders a record listing. Zero values mean "no filter".
type Filters struct {
	Query       string
	CountryCode string
	Region      string
	City        string
	DestType    record.DestinationType
	RatingMin   int
	RatingMax   int
	DateFrom    time.Time
	DateTo      time.Time
	OrderBy     string // "field:asc|desc", default visited_at:desc
	Limit       int
	Offset      int
}

// sortColumns is the closed set of fields a listing may be ordered by.
var sortColumns = map[string]string{
	"visited_at":   "r.visited_at",
	"rating":       "r.rating",
	"title":        "r.title",
	"created_at":   "r.created_at",
	"country_code": "r.country_code",
	"city":         "r.city",
}

// orderClause parses an "field:dir" token against the sort whitelist,
// falling back to visited_at descending.
func orderClause(orderBy string) string {
	field, dir, _ := strings.Cut(orderBy, ":")
	col, ok := sortColumns[field]
	if !ok {
		col = "r.visited_at"
		dir = "desc"
	}
	if strings.EqualFold(dir, "asc") {
		return col + " ASC"
	}
	return col + " DESC"
}

const recordColumns = `r.id, r.user_id, r.title, COALESCE(r.notes, ''), r.country_code,
	COALESCE(r.region, ''), COALESCE(r.city, ''), r.latitude, r.longitude,
	r.destination_type, r.rating, r.visited_at, COALESCE(r.place_external_id, ''),
	COALESCE(r.weather_summary, ''), r.created_at, r.updated_at,
	p.id, p.file_path, p.content_type, p.size_bytes`

// scanRecord reads one joined record+photo row.
func scanRecord(row pgx.Row) (*record.TravelRecord, error) {
	var rec record.TravelRecord
	var photoID, photoSize *int64
	var photoPath, photoCType *string

	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.Title, &rec.Notes, &rec.CountryCode,
		&rec.Region, &rec.City, &rec.Latitude, &rec.Longitude,
		&rec.DestinationType, &rec.Rating, &rec.VisitedAt, &rec.PlaceExternalID,
		&rec.WeatherSummary, &rec.CreatedAt, &rec.UpdatedAt,
		&photoID, &photoPath, &photoCType, &photoSize,
	)
	if err != nil {
		return nil, err
	}

	if photoID != nil {
		rec.Photo = &record.Photo{
			ID:          *photoID,
			FilePath:    *photoPath,
			ContentType: *photoCType,
			SizeBytes:   *photoSize,
		}
	}
	return &rec, nil
}

// nullStr maps an empty optional string to SQL NULL.
func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// CreateRecord inserts a record for the user and returns it with identity
// and timestamps assigned. weatherSummary may be empty.
func (r *Repository) CreateRecord(ctx context.Context, userID int64, d record.Draft, weatherSummary string) (*record.TravelRecord, error) {
	const q = `
		INSERT INTO travel_records
			(user_id, title, notes, country_code, region, city, latitude, longitude,
			 destination_type, rating, visited_at, place_external_id, weather_summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at
	`

	rec := record.TravelRecord{
		UserID:          userID,
		Title:           d.Title,
		Notes:           d.Notes,
		CountryCode:     d.CountryCode,
		Region:          d.Region,
		City:            d.City,
		Latitude:        d.Latitude,
		Longitude:       d.Longitude,
		DestinationType: d.DestinationType,
		Rating:          d.Rating,
		VisitedAt:       d.VisitedAt,
		PlaceExternalID: d.PlaceExternalID,
		WeatherSummary:  weatherSummary,
	}

	err := r.q.QueryRow(ctx, q,
		userID, d.Title, nullStr(d.Notes), d.CountryCode, nullStr(d.Region),
		nullStr(d.City), d.Latitude, d.Longitude, string(d.DestinationType),
		d.Rating, d.VisitedAt, nullStr(d.PlaceExternalID), nullStr(weatherSummary),
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting travel record: %w", err)
	}

	return &rec, nil
}

// GetRecord retrieves one record owned by the user, with its photo if any.
// Returns nil, nil when not found.
func (r *Repository) GetRecord(ctx context.Context, userID, id int64) (*record.TravelRecord, error) {
	q := `
		SELECT ` + recordColumns + `
		FROM travel_records r
		LEFT JOIN photos p ON p.record_id = r.id
		WHERE r.id = $1 AND r.user_id = $2
	`

	rec, err := scanRecord(r.q.QueryRow(ctx, q, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying travel record %d: %w", id, err)
	}

	return rec, nil
}

// UpdateRecord applies a partial update. Only non-nil patch fields change;
// updated_at is stamped. Returns nil, nil when the record does not exist.
func (r *Repository) UpdateRecord(ctx context.Context, userID, id int64, p record.Patch) (*record.TravelRecord, error) {
	b := psql.Update("travel_records").
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id, "user_id": userID})

	if p.Title != nil {
		b = b.Set("title", *p.Title)
	}
	if p.Notes != nil {
		b = b.Set("notes", nullStr(*p.Notes))
	}
	if p.CountryCode != nil {
		b = b.Set("country_code", strings.ToUpper(*p.CountryCode))
	}
	if p.Region != nil {
		b = b.Set("region", nullStr(*p.Region))
	}
	if p.City != nil {
		b = b.Set("city", nullStr(*p.City))
	}
	if p.Latitude != nil {
		b = b.Set("latitude", *p.Latitude)
	}
	if p.Longitude != nil {
		b = b.Set("longitude", *p.Longitude)
	}
	if p.DestinationType != nil {
		b = b.Set("destination_type", string(*p.DestinationType))
	}
	if p.Rating != nil {
		b = b.Set("rating", *p.Rating)
	}
	if p.VisitedAt != nil {
		b = b.Set("visited_at", *p.VisitedAt)
	}
	if p.PlaceExternalID != nil {
		b = b.Set("place_external_id", nullStr(*p.PlaceExternalID))
	}

	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building update for record %d: %w", id, err)
	}

	tag, err := r.q.Exec(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("updating travel record %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, nil
	}

	return r.GetRecord(ctx, userID, id)
}

// DeleteRecord removes a record (and its photo via cascade). Reports whether
// a row was deleted.
func (r *Repository) DeleteRecord(ctx context.Context, userID, id int64) (bool, error) {
	const q = `DELETE FROM travel_records WHERE id = $1 AND user_id = $2`

	tag, err := r.q.Exec(ctx, q, id, userID)
	if err != nil {
		return false, fmt.Errorf("deleting travel record %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// applyFilters adds the optional WHERE conditions shared by the listing and
// its count query.
func applyFilters(b sq.SelectBuilder, userID int64, f Filters) sq.SelectBuilder {
	b = b.Where(sq.Eq{"r.user_id": userID})

	if f.Query != "" {
		like := "%" + strings.ToLower(f.Query) + "%"
		b = b.Where(sq.Or{
			sq.Like{"LOWER(r.title)": like},
			sq.Like{"LOWER(r.notes)": like},
			sq.Like{"LOWER(r.city)": like},
			sq.Like{"LOWER(r.region)": like},
		})
	}
	if f.CountryCode != "" {
		b = b.Where(sq.Eq{"r.country_code": f.CountryCode})
	}
	if f.Region != "" {
		b = b.Where(sq.Eq{"r.region": f.Region})
	}
	if f.City != "" {
		b = b.Where(sq.Eq{"r.city": f.City})
	}
	if f.DestType != "" {
		b = b.Where(sq.Eq{"r.destination_type": string(f.DestType)})
	}
	if f.RatingMin > 0 {
		b = b.Where(sq.GtOrEq{"r.rating": f.RatingMin})
	}
	if f.RatingMax > 0 {
		b = b.Where(sq.LtOrEq{"r.rating": f.RatingMax})
	}
	if !f.DateFrom.IsZero() {
		b = b.Where(sq.GtOrEq{"r.visited_at": f.DateFrom})
	}
	if !f.DateTo.IsZero() {
		b = b.Where(sq.LtOrEq{"r.visited_at": f.DateTo})
	}

	return b
}

// SearchRecords returns one page of the user's records plus the total count
// matching the filters.
func (r *Repository) SearchRecords(ctx context.Context, userID int64, f Filters) ([]record.TravelRecord, int, error) {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	listSQL, listArgs, err := applyFilters(
		psql.Select(recordColumns).
			From("travel_records r").
			LeftJoin("photos p ON p.record_id = r.id"),
		userID, f,
	).
		OrderBy(orderClause(f.OrderBy)).
		Limit(uint64(f.Limit)).
		Offset(uint64(f.Offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building record search: %w", err)
	}

	rows, err := r.q.Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("searching travel records: %w", err)
	}
	defer rows.Close()

	items := []record.TravelRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning travel record row: %w", err)
		}
		items = append(items, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating travel record rows: %w", err)
	}

	countSQL, countArgs, err := applyFilters(
		psql.Select("COUNT(*)").From("travel_records r"),
		userID, f,
	).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building record count: %w", err)
	}

	var total int
	if err := r.q.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting travel records: %w", err)
	}

	return items, total, nil
}

// ---- photos ----

// ReplacePhoto attaches a photo to a record, replacing any existing one.
func (r *Repository) ReplacePhoto(ctx context.Context, recordID int64, filePath, contentType string, sizeBytes int64) (*record.Photo, error) {
	const q = `
		INSERT INTO photos (record_id, file_path, content_type, size_bytes)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (record_id) DO UPDATE
		SET file_path    = EXCLUDED.file_path,
		    content_type = EXCLUDED.content_type,
		    size_bytes   = EXCLUDED.size_bytes
		RETURNING id
	`

	p := record.Photo{FilePath: filePath, ContentType: contentType, SizeBytes: sizeBytes}
	if err := r.q.QueryRow(ctx, q, recordID, filePath, contentType, sizeBytes).Scan(&p.ID); err != nil {
		return nil, fmt.Errorf("replacing photo for record %d: %w", recordID, err)
	}

	return &p, nil
}

// GetPhoto returns the record's photo, or nil, nil when it has none.
func (r *Repository) GetPhoto(ctx context.Context, recordID int64) (*record.Photo, error) {
	const q = `
		SELECT id, file_path, content_type, size_bytes
		FROM photos
		WHERE record_id = $1
	`

	var p record.Photo
	err := r.q.QueryRow(ctx, q, recordID).Scan(&p.ID, &p.FilePath, &p.ContentType, &p.SizeBytes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying photo for record %d: %w", recordID, err)
	}

	return &p, nil
}

// DeletePhoto removes one photo of a record. Reports whether a row was deleted.
func (r *Repository) DeletePhoto(ctx context.Context, recordID, photoID int64) (bool, error) {
	const q = `DELETE FROM photos WHERE id = $1 AND record_id = $2`

	tag, err := r.q.Exec(ctx, q, photoID, recordID)
	if err != nil {
		return false, fmt.Errorf("deleting photo %d: %w", photoID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// ---- aggregations ----

// AvgRatingByCountry computes the average rating and record count per country.
func (r *Repository) AvgRatingByCountry(ctx context.Context, userID int64) ([]record.AvgRating, error) {
	const q = `
		SELECT country_code, AVG(rating)::float8, COUNT(id)
		FROM travel_records
		WHERE user_id = $1
		GROUP BY country_code
		ORDER BY country_code
	`

	rows, err := r.q.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("querying avg rating by country: %w", err)
	}
	defer rows.Close()

	out := []record.AvgRating{}
	for rows.Next() {
		var a record.AvgRating
		if err := rows.Scan(&a.Key, &a.AvgRating, &a.Count); err != nil {
			return nil, fmt.Errorf("scanning avg rating row: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating avg rating rows: %w", err)
	}

	return out, nil
}

// TopDestinationPerMonth picks, for each calendar month, the record ranked
// first by rating, then recency, then id.
func (r *Repository) TopDestinationPerMonth(ctx context.Context, userID int64) ([]record.TopDestination, error) {
	const q = `
		WITH ranked AS (
			SELECT date_trunc('month', visited_at) AS month,
			       id, title, rating, COALESCE(city, '') AS city, country_code,
			       ROW_NUMBER() OVER (
			           PARTITION BY date_trunc('month', visited_at)
			           ORDER BY rating DESC, visited_at DESC, id DESC
			       ) AS rn
			FROM travel_records
			WHERE user_id = $1
		)
		SELECT month, id, title, rating, city, country_code
		FROM ranked
		WHERE rn = 1
		ORDER BY month ASC
	`

	rows, err := r.q.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("querying top destination per month: %w", err)
	}
	defer rows.Close()

	out := []record.TopDestination{}
	for rows.Next() {
		var t record.TopDestination
		if err := rows.Scan(&t.Month, &t.RecordID, &t.Title, &t.Rating, &t.City, &t.CountryCode); err != nil {
			return nil, fmt.Errorf("scanning top destination row: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating top destination rows: %w", err)
	}

	return out, nil
}
