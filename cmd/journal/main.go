// Command journal is the terminal client for the travel journal server.
// It keeps the access token under the user config dir and drives the same
// editor controllers a graphical frontend would.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/jerrywen2005/travel-journal/internal/editor"
	"github.com/jerrywen2005/travel-journal/internal/gateway"
	"github.com/jerrywen2005/travel-journal/internal/record"
	"github.com/jerrywen2005/travel-journal/internal/tokenstore"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := run(log, os.Args[1:]); err != nil {
		log.Error("command failed", "err", err)
		os.Exit(1)
	}
}

const usage = `usage: journal <command> [flags]

commands:
  signup     create an account
  login      log in and store the access token
  logout     forget the stored token
  list       list journal entries
  show       show one entry
  add        create an entry
  edit       update an entry
  remove     delete an entry
  photo      attach a photo to an entry
  search     look up a place by name
  insights   show rating aggregations
`

func run(log *slog.Logger, args []string) error {
	_ = godotenv.Load()

	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("missing command")
	}

	baseURL := getEnv("JOURNAL_SERVER_URL", "http://localhost:8080")

	store, err := defaultTokenStore()
	if err != nil {
		return err
	}

	client := gateway.NewClient(baseURL, storeTokenSource{store})
	records := gateway.NewRecords(client)
	placesGW := gateway.NewPlaces(client)
	aggs := gateway.NewAggregations(client)
	authGW := gateway.NewAuth(gateway.NewClient(baseURL, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	app := &app{
		records: records,
		places:  placesGW,
		aggs:    aggs,
		auth:    authGW,
		tokens:  store,
		log:     log,
	}

	switch cmd, rest := args[0], args[1:]; cmd {
	case "signup":
		return app.signup(ctx, rest)
	case "login":
		return app.login(ctx, rest)
	case "logout":
		return app.tokens.Remove()
	case "list":
		return app.list(ctx, rest)
	case "show":
		return app.show(ctx, rest)
	case "add":
		return app.add(ctx, rest)
	case "edit":
		return app.edit(ctx, rest)
	case "remove":
		return app.remove(ctx, rest)
	case "photo":
		return app.photo(ctx, rest)
	case "search":
		return app.search(ctx, rest)
	case "insights":
		return app.insights(ctx, rest)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

type app struct {
	records *gateway.Records
	places  *gateway.Places
	aggs    *gateway.Aggregations
	auth    *gateway.Auth
	tokens  tokenstore.Store
	log     *slog.Logger
}

// storeTokenSource reads the bearer token from the token store on every
// request, so a re-login takes effect without restarting.
type storeTokenSource struct {
	store tokenstore.Store
}

func (s storeTokenSource) Token() string {
	tok, err := s.store.Get()
	if err != nil {
		return ""
	}
	return tok
}

func defaultTokenStore() (tokenstore.Store, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("locating config dir: %w", err)
	}
	return tokenstore.NewFileStore(filepath.Join(dir, "travel-journal", "token")), nil
}

// stdinConfirmer asks on the terminal before destructive actions.
type stdinConfirmer struct{}

func (stdinConfirmer) Confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// noopRefresher satisfies the editor in one-shot CLI mode, where the next
// listing is a fresh process anyway.
type noopRefresher struct{}

func (noopRefresher) Refresh() {}

func (a *app) signup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	name := fs.String("name", "", "display name")
	password := fs.String("password", "", "password, at least 8 characters")
	if err := fs.Parse(args); err != nil {
		return err
	}

	creds := gateway.Credentials{Email: *email, Name: *name, Password: *password}
	if err := a.auth.Signup(ctx, creds); err != nil {
		return err
	}
	fmt.Println("account created, now run: journal login")
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	session, err := a.auth.Login(ctx, gateway.Credentials{Email: *email, Password: *password})
	if err != nil {
		return err
	}
	if err := a.tokens.Set(session.AccessToken); err != nil {
		return err
	}
	fmt.Println("logged in")
	return nil
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	sortKey := fs.String("sort", "", "sort key: visited_at, rating, title, country_code, created_at")
	query := fs.String("q", "", "free text filter")
	page := fs.Int("page", 1, "page number")
	if err := fs.Parse(args); err != nil {
		return err
	}

	list := editor.NewRecordList(a.records)
	if *query != "" {
		if err := list.SetQuery(ctx, *query); err != nil {
			return err
		}
	}
	if *sortKey != "" {
		if err := list.SetSort(ctx, *sortKey); err != nil {
			return err
		}
	}
	for p := 1; p < *page; p++ {
		if err := list.NextPage(ctx); err != nil {
			return err
		}
	}
	if st := list.State(); st.Items == nil && st.Err == nil {
		if err := list.Refresh(ctx); err != nil {
			return err
		}
	}

	st := list.State()
	fmt.Printf("%-6s %-30s %-4s %-6s %-12s %s\n", "ID", "TITLE", "CC", "RATING", "TYPE", "VISITED")
	for _, rec := range st.Items {
		fmt.Printf("%-6d %-30s %-4s %-6d %-12s %s\n",
			rec.ID, truncate(rec.Title, 30), rec.CountryCode, rec.Rating,
			rec.DestinationType, rec.VisitedAt.Format("2006-01-02"))
	}
	fmt.Printf("%d of %d entries (sorted by %s:%s)\n", len(st.Items), st.Total, st.SortKey, st.SortDir)
	return nil
}

func (a *app) show(ctx context.Context, args []string) error {
	id, err := argID(args)
	if err != nil {
		return err
	}

	rec, err := a.records.Get(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("#%d %s\n", rec.ID, rec.Title)
	fmt.Printf("  %s, %s (%s)  %.4f,%.4f\n", rec.City, rec.CountryCode, rec.DestinationType, rec.Latitude, rec.Longitude)
	fmt.Printf("  rating %d/5, visited %s\n", rec.Rating, rec.VisitedAt.Format("2006-01-02"))
	if rec.WeatherSummary != "" {
		fmt.Printf("  weather: %s\n", rec.WeatherSummary)
	}
	if rec.Notes != "" {
		fmt.Printf("  %s\n", rec.Notes)
	}
	if rec.Photo != nil {
		fmt.Printf("  photo: %s (%d bytes)\n", rec.Photo.FilePath, rec.Photo.SizeBytes)
	}
	return nil
}

// draftFlags binds the entry fields shared by add and edit.
func draftFlags(fs *flag.FlagSet, d *record.Draft) {
	fs.StringVar(&d.Title, "title", d.Title, "entry title")
	fs.StringVar(&d.Notes, "notes", d.Notes, "free-form notes")
	fs.StringVar(&d.CountryCode, "country", d.CountryCode, "ISO 3166-1 alpha-2 country code")
	fs.StringVar(&d.City, "city", d.City, "city name")
	fs.Float64Var(&d.Latitude, "lat", d.Latitude, "latitude")
	fs.Float64Var(&d.Longitude, "lon", d.Longitude, "longitude")
	fs.IntVar(&d.Rating, "rating", d.Rating, "rating 1-5")
}

func (a *app) add(ctx context.Context, args []string) error {
	entry := editor.NewEntry(a.records, a.places, noopRefresher{}, stdinConfirmer{}, nil)
	entry.StartCreate()
	d := entry.State().Draft

	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	draftFlags(fs, &d)
	destType := fs.String("type", string(d.DestinationType), "destination type")
	visited := fs.String("visited", "", "visit date, YYYY-MM-DD")
	placeID := fs.String("place", "", "place id from journal search")
	if err := fs.Parse(args); err != nil {
		return err
	}

	d.DestinationType = record.DestinationType(*destType)
	if *visited != "" {
		t, err := time.Parse("2006-01-02", *visited)
		if err != nil {
			return fmt.Errorf("parsing -visited: %w", err)
		}
		d.VisitedAt = t
	}
	entry.SetDraft(d)

	if *placeID != "" {
		if err := entry.PickSuggestion(ctx, record.PlaceSuggestion{PlaceID: *placeID}); err != nil {
			return err
		}
	}

	if err := entry.Save(ctx); err != nil {
		return saveError(err)
	}
	fmt.Println("entry saved")
	return nil
}

func (a *app) edit(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: journal edit <id> [flags]")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("bad entry id %q", args[0])
	}

	rec, err := a.records.Get(ctx, id)
	if err != nil {
		return err
	}

	entry := editor.NewEntry(a.records, a.places, noopRefresher{}, stdinConfirmer{}, nil)
	entry.StartEdit(rec)
	d := entry.State().Draft

	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	draftFlags(fs, &d)
	destType := fs.String("type", string(d.DestinationType), "destination type")
	visited := fs.String("visited", "", "visit date, YYYY-MM-DD")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	d.DestinationType = record.DestinationType(*destType)
	if *visited != "" {
		t, err := time.Parse("2006-01-02", *visited)
		if err != nil {
			return fmt.Errorf("parsing -visited: %w", err)
		}
		d.VisitedAt = t
	}
	entry.SetDraft(d)

	if err := entry.Save(ctx); err != nil {
		return saveError(err)
	}
	fmt.Println("entry updated")
	return nil
}

func (a *app) remove(ctx context.Context, args []string) error {
	id, err := argID(args)
	if err != nil {
		return err
	}

	rec, err := a.records.Get(ctx, id)
	if err != nil {
		return err
	}

	entry := editor.NewEntry(a.records, a.places, noopRefresher{}, stdinConfirmer{}, nil)
	if err := entry.Remove(ctx, rec.ID, rec.Title); err != nil {
		return err
	}
	return nil
}

func (a *app) photo(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("photo", flag.ContinueOnError)
	file := fs.String("file", "", "path to a jpeg, png, or webp file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	id, err := argID(rest)
	if err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("usage: journal photo -file <path> <id>")
	}

	f, err := os.Open(*file)
	if err != nil {
		return err
	}
	defer f.Close()

	ctype := contentTypeFor(*file)
	if ctype == "" {
		return fmt.Errorf("unsupported photo type %q", filepath.Ext(*file))
	}

	photo, err := a.records.UploadPhoto(ctx, id, filepath.Base(*file), ctype, f)
	if err != nil {
		return err
	}
	fmt.Printf("photo attached (%d bytes)\n", photo.SizeBytes)
	return nil
}

func (a *app) search(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: journal search <query>")
	}
	query := strings.Join(args, " ")

	suggestions, err := a.places.Autocomplete(ctx, query)
	if err != nil {
		return err
	}
	if len(suggestions) == 0 {
		fmt.Println("no matches")
		return nil
	}
	for _, s := range suggestions {
		fmt.Printf("%-30s %s\n", s.PlaceID, s.Description)
	}
	fmt.Println("use the id with: journal add -place <id>")
	return nil
}

func (a *app) insights(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("insights", flag.ContinueOnError)
	sortKey := fs.String("sort", "", "sort key for the monthly table: month, rating")
	if err := fs.Parse(args); err != nil {
		return err
	}

	avg, err := a.aggs.AvgRatingByCountry(ctx)
	if err != nil {
		return err
	}
	fmt.Println("average rating by country:")
	for _, row := range avg {
		fmt.Printf("  %-4s %.2f (%d entries)\n", row.Key, row.AvgRating, row.Count)
	}

	table := editor.NewList(topDestinationFetch(a.aggs), []string{"month", "rating"}, "month")
	if *sortKey != "" {
		if err := table.SetSort(ctx, *sortKey); err != nil {
			return err
		}
	} else if err := table.Refresh(ctx); err != nil {
		return err
	}

	fmt.Println("best entry per month:")
	for _, row := range table.State().Items {
		fmt.Printf("  %s  %s (%d/5)\n", row.Month.Format("2006-01"), row.Title, row.Rating)
	}
	return nil
}

// topDestinationFetch adapts the aggregation endpoint, which returns the
// whole view at once, to the list controller by sorting and paging client
// side.
func topDestinationFetch(aggs *gateway.Aggregations) editor.Fetch[record.TopDestination] {
	return func(ctx context.Context, q gateway.ListQuery) ([]record.TopDestination, int, error) {
		rows, err := aggs.TopDestinationPerMonth(ctx)
		if err != nil {
			return nil, 0, err
		}

		key, dir, _ := strings.Cut(q.OrderBy, ":")
		sort.SliceStable(rows, func(i, j int) bool {
			var less bool
			switch key {
			case "rating":
				less = rows[i].Rating < rows[j].Rating
			default:
				less = rows[i].Month.Before(rows[j].Month)
			}
			if dir == "desc" {
				return !less
			}
			return less
		})

		total := len(rows)
		if q.Offset >= total {
			return nil, total, nil
		}
		end := total
		if q.Limit > 0 && q.Offset+q.Limit < end {
			end = q.Offset + q.Limit
		}
		return rows[q.Offset:end], total, nil
	}
}

func argID(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("missing entry id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad entry id %q", args[0])
	}
	return id, nil
}

// saveError flattens validation failures into one readable message.
func saveError(err error) error {
	var verrs record.ValidationErrors
	if ok := asValidationErrors(err, &verrs); ok {
		return fmt.Errorf("entry not saved: %s", verrs.Error())
	}
	return err
}

func asValidationErrors(err error, out *record.ValidationErrors) bool {
	v, ok := err.(record.ValidationErrors)
	if ok {
		*out = v
	}
	return ok
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
