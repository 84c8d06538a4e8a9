// Package editor holds the controllers behind the journal UI: the entry
// editor with its phase machine and place search, and the sortable record
// list. Controllers block on their context and publish state snapshots to
// subscribers; callers decide the concurrency.
package editor

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/jerrywen2005/travel-journal/internal/gateway"
	"github.com/jerrywen2005/travel-journal/internal/mapview"
	"github.com/jerrywen2005/travel-journal/internal/record"
)

// Phase is the editor's lifecycle state.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseCreating Phase = "creating"
	PhaseEditing  Phase = "editing"
	PhaseSaving   Phase = "saving"
)

// State is an immutable snapshot of the editor. Subscribers receive a copy;
// mutating it has no effect on the controller.
type State struct {
	Phase       Phase
	Draft       record.Draft
	EditingID   int64
	Query       string
	Suggestions []record.PlaceSuggestion
	FieldErrors map[string]string
	Err         error
}

// RecordWriter is what the editor needs from the records gateway.
type RecordWriter interface {
	Create(ctx context.Context, d record.Draft) (*record.TravelRecord, error)
	Update(ctx context.Context, id int64, p record.Patch) (*record.TravelRecord, error)
	Remove(ctx context.Context, id int64) error
	UploadPhoto(ctx context.Context, recordID int64, filename, contentType string, data io.Reader) (*record.Photo, error)
}

// PlaceSearcher is what the editor needs from the places gateway.
type PlaceSearcher interface {
	Autocomplete(ctx context.Context, query string) ([]record.PlaceSuggestion, error)
	Details(ctx context.Context, placeID string) (*record.PlaceDetails, error)
}

// Refresher is notified after any write so dependent views can reload.
type Refresher interface {
	Refresh()
}

// Confirmer guards destructive actions. Remove proceeds only when Confirm
// returns true.
type Confirmer interface {
	Confirm(prompt string) bool
}

// Entry is the entry editor controller. All methods are safe for
// concurrent use.
type Entry struct {
	records   RecordWriter
	places    PlaceSearcher
	refresher Refresher
	confirmer Confirmer
	mapWidget *mapview.Widget
	now       func() time.Time

	mu         sync.Mutex
	state      State
	searchGen  uint64
	subscriber func(State)
}

// NewEntry wires an entry editor. mapWidget may be nil when no map is shown.
func NewEntry(records RecordWriter, places PlaceSearcher, refresher Refresher,
	confirmer Confirmer, mapWidget *mapview.Widget) *Entry {
	e := &Entry{
		records:   records,
		places:    places,
		refresher: refresher,
		confirmer: confirmer,
		mapWidget: mapWidget,
		now:       time.Now,
		state:     State{Phase: PhaseIdle},
	}
	if mapWidget != nil {
		mapWidget.OnMarkerMove(e.OnMapMove)
	}
	return e
}

// WithClock replaces the time source, for tests.
func (e *Entry) WithClock(now func() time.Time) *Entry {
	e.now = now
	return e
}

// Subscribe registers the state callback. The current state is delivered
// immediately, then after every change.
func (e *Entry) Subscribe(fn func(State)) {
	e.mu.Lock()
	e.subscriber = fn
	snap := e.snapshotLocked()
	e.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}

// State returns the current snapshot.
func (e *Entry) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Entry) snapshotLocked() State {
	snap := e.state
	snap.Suggestions = append([]record.PlaceSuggestion(nil), e.state.Suggestions...)
	if e.state.FieldErrors != nil {
		snap.FieldErrors = make(map[string]string, len(e.state.FieldErrors))
		for k, v := range e.state.FieldErrors {
			snap.FieldErrors[k] = v
		}
	}
	return snap
}

// notifyLocked snapshots under the caller's lock and delivers outside it.
func (e *Entry) notifyLocked() func() {
	fn := e.subscriber
	if fn == nil {
		return func() {}
	}
	snap := e.snapshotLocked()
	return func() { fn(snap) }
}

// StartCreate opens a fresh draft with defaults and moves to the creating
// phase.
func (e *Entry) StartCreate() {
	e.mu.Lock()
	e.state = State{
		Phase: PhaseCreating,
		Draft: record.DefaultDraft(e.now()),
	}
	e.searchGen++
	notify := e.notifyLocked()
	e.mu.Unlock()

	e.syncMap()
	notify()
}

// StartEdit loads rec into the editor as-is. Out-of-range values stay
// visible so the user can see what needs fixing; validation happens on save.
func (e *Entry) StartEdit(rec *record.TravelRecord) {
	e.mu.Lock()
	e.state = State{
		Phase:     PhaseEditing,
		Draft:     record.DraftFrom(*rec),
		EditingID: rec.ID,
	}
	e.searchGen++
	notify := e.notifyLocked()
	e.mu.Unlock()

	e.syncMap()
	notify()
}

// SetDraft replaces the working draft, keeping phase and editing target.
func (e *Entry) SetDraft(d record.Draft) {
	e.mu.Lock()
	e.state.Draft = d
	notify := e.notifyLocked()
	e.mu.Unlock()

	e.syncMap()
	notify()
}

// OnSearchInput reacts to a keystroke in the place search box. Queries
// shorter than two characters clear the suggestions without a lookup.
// Responses arriving after a newer query are discarded.
func (e *Entry) OnSearchInput(ctx context.Context, query string) error {
	e.mu.Lock()
	e.state.Query = query
	query = strings.TrimSpace(query)
	e.searchGen++
	gen := e.searchGen
	if len(query) < 2 {
		e.state.Suggestions = nil
		notify := e.notifyLocked()
		e.mu.Unlock()
		notify()
		return nil
	}
	e.mu.Unlock()

	suggestions, err := e.places.Autocomplete(ctx, query)

	e.mu.Lock()
	if gen != e.searchGen {
		e.mu.Unlock()
		return nil // a newer query owns the suggestion list
	}
	if err != nil {
		e.state.Suggestions = nil
		notify := e.notifyLocked()
		e.mu.Unlock()
		notify()
		return err
	}
	e.state.Suggestions = suggestions
	notify := e.notifyLocked()
	e.mu.Unlock()
	notify()
	return nil
}

// PickSuggestion resolves a suggestion and patches the draft in one step.
// The place's title and country win over whatever the draft held; a place
// without a title leaves the draft title alone, a place without a country
// sets US. The search box takes the suggestion's description.
func (e *Entry) PickSuggestion(ctx context.Context, s record.PlaceSuggestion) error {
	details, err := e.places.Details(ctx, s.PlaceID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	d := &e.state.Draft
	d.City = details.City
	d.Latitude = details.Latitude
	d.Longitude = details.Longitude
	d.PlaceExternalID = details.PlaceExternalID
	if details.Title != "" {
		d.Title = details.Title
	}
	country := details.CountryCode
	if country == "" {
		country = "US"
	}
	d.CountryCode = strings.ToUpper(country)
	e.state.Query = s.Description
	e.state.Suggestions = nil
	e.searchGen++
	notify := e.notifyLocked()
	e.mu.Unlock()

	e.syncMap()
	notify()
	return nil
}

// OnMapMove updates the draft coordinates from a marker move.
func (e *Entry) OnMapMove(pos mapview.Coords) {
	e.mu.Lock()
	e.state.Draft.Latitude = pos.Lat
	e.state.Draft.Longitude = pos.Lon
	notify := e.notifyLocked()
	e.mu.Unlock()
	notify()
}

func (e *Entry) syncMap() {
	if e.mapWidget == nil {
		return
	}
	e.mu.Lock()
	pos := mapview.Coords{Lat: e.state.Draft.Latitude, Lon: e.state.Draft.Longitude}
	e.mu.Unlock()
	e.mapWidget.SetCoords(pos)
}

// Save normalizes and validates the draft, then creates or updates
// depending on the phase. While a save is in flight further calls return
// immediately. On success the editor resets to idle and the refresher runs
// exactly once; on failure the draft and phase survive untouched.
func (e *Entry) Save(ctx context.Context) error {
	e.mu.Lock()
	if e.state.Phase == PhaseSaving {
		e.mu.Unlock()
		return nil
	}
	if e.state.Phase != PhaseCreating && e.state.Phase != PhaseEditing {
		e.mu.Unlock()
		return errors.New("nothing to save")
	}

	prevPhase := e.state.Phase
	editingID := e.state.EditingID

	draft := e.state.Draft
	draft.Normalize()
	if err := draft.Validate(); err != nil {
		var verrs record.ValidationErrors
		if errors.As(err, &verrs) {
			e.state.FieldErrors = verrs
		}
		e.state.Err = err
		notify := e.notifyLocked()
		e.mu.Unlock()
		notify()
		return err
	}

	e.state.Draft = draft
	e.state.Phase = PhaseSaving
	e.state.FieldErrors = nil
	e.state.Err = nil
	notify := e.notifyLocked()
	e.mu.Unlock()
	notify()

	var err error
	if prevPhase == PhaseCreating {
		_, err = e.records.Create(ctx, draft)
	} else {
		_, err = e.records.Update(ctx, editingID, patchFrom(draft))
	}

	e.mu.Lock()
	if err != nil {
		e.state.Phase = prevPhase
		e.state.Err = err
		var apiErr *gateway.APIError
		if errors.As(err, &apiErr) && apiErr.IsValidation() {
			e.state.FieldErrors = apiErr.Fields
		}
		notify := e.notifyLocked()
		e.mu.Unlock()
		notify()
		return err
	}

	e.state = State{Phase: PhaseIdle, Draft: record.DefaultDraft(e.now())}
	notify = e.notifyLocked()
	e.mu.Unlock()
	notify()

	e.refresher.Refresh()
	return nil
}

// patchFrom turns a full draft into a patch carrying every field. Updates
// go through the partial-update endpoint so concurrent edits of other
// fields are not clobbered by zero values.
func patchFrom(d record.Draft) record.Patch {
	p := record.Patch{
		Title:           &d.Title,
		CountryCode:     &d.CountryCode,
		Latitude:        &d.Latitude,
		Longitude:       &d.Longitude,
		DestinationType: &d.DestinationType,
		Rating:          &d.Rating,
		VisitedAt:       &d.VisitedAt,
	}
	if d.City != "" {
		p.City = &d.City
	}
	if d.Notes != "" {
		p.Notes = &d.Notes
	}
	if d.Region != "" {
		p.Region = &d.Region
	}
	if d.PlaceExternalID != "" {
		p.PlaceExternalID = &d.PlaceExternalID
	}
	return p
}

// Remove deletes a record after confirmation. Declining the prompt is not
// an error. Removing the record currently being edited resets the editor.
func (e *Entry) Remove(ctx context.Context, id int64, title string) error {
	if !e.confirmer.Confirm("Delete \"" + title + "\"?") {
		return nil
	}

	if err := e.records.Remove(ctx, id); err != nil {
		return err
	}

	e.mu.Lock()
	var notify func()
	if e.state.EditingID == id && e.state.Phase == PhaseEditing {
		e.state = State{Phase: PhaseIdle, Draft: record.DefaultDraft(e.now())}
		notify = e.notifyLocked()
	} else {
		notify = func() {}
	}
	e.mu.Unlock()
	notify()

	e.refresher.Refresh()
	return nil
}

// UploadPhoto attaches a photo to the record being edited.
func (e *Entry) UploadPhoto(ctx context.Context, filename, contentType string, data io.Reader) (*record.Photo, error) {
	e.mu.Lock()
	if e.state.Phase != PhaseEditing {
		e.mu.Unlock()
		return nil, errors.New("no record open for editing")
	}
	id := e.state.EditingID
	e.mu.Unlock()

	photo, err := e.records.UploadPhoto(ctx, id, filename, contentType, data)
	if err != nil {
		return nil, err
	}
	e.refresher.Refresh()
	return photo, nil
}
