// Package mapview drives an embeddable map through a rendering engine.
// The widget owns mount/unmount bookkeeping so callers cannot double-init
// the engine or poke it after teardown.
package mapview

import "sync"

// Coords is a latitude/longitude pair.
type Coords struct {
	Lat float64
	Lon float64
}

// Engine is the rendering backend the widget drives. Implementations wrap
// whatever actually draws tiles; tests use a recording fake.
type Engine interface {
	// Init creates the underlying map at the given center and zoom.
	Init(center Coords, zoom int) error
	SetView(center Coords, zoom int)
	SetMarker(pos Coords)
	// InvalidateSize tells the engine its container dimensions changed and
	// tiles must be re-laid-out.
	InvalidateSize()
	// OnClick registers the click handler. Passing nil clears it.
	OnClick(fn func(Coords))
	// Remove destroys the map and releases engine resources.
	Remove()
}

const defaultZoom = 10

// Widget is a mountable map with a single draggable marker. All methods are
// safe for concurrent use.
type Widget struct {
	engine Engine

	mu      sync.Mutex
	mounted bool
	coords  Coords
	zoom    int
	onMove  func(Coords)
}

// NewWidget returns an unmounted widget over engine.
func NewWidget(engine Engine) *Widget {
	return &Widget{engine: engine, zoom: defaultZoom}
}

// OnMarkerMove registers the callback fired when the user clicks a new
// position. Must be called before Mount to catch every move.
func (w *Widget) OnMarkerMove(fn func(Coords)) {
	w.mu.Lock()
	w.onMove = fn
	w.mu.Unlock()
}

// Mount initializes the engine at start. Mounting an already mounted widget
// is a no-op. The engine size is invalidated right after init because the
// container may have been laid out while the map was hidden.
func (w *Widget) Mount(start Coords) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.mounted {
		return nil
	}

	if err := w.engine.Init(start, w.zoom); err != nil {
		return err
	}
	w.coords = start
	w.mounted = true

	w.engine.SetMarker(start)
	w.engine.OnClick(w.handleClick)
	w.engine.InvalidateSize()
	return nil
}

func (w *Widget) handleClick(pos Coords) {
	w.mu.Lock()
	if !w.mounted {
		w.mu.Unlock()
		return
	}
	w.coords = pos
	fn := w.onMove
	w.mu.Unlock()

	w.engine.SetMarker(pos)
	if fn != nil {
		fn(pos)
	}
}

// SetCoords moves the view and marker to pos. The widget keeps its own copy
// of pos and never aliases caller memory.
func (w *Widget) SetCoords(pos Coords) {
	w.mu.Lock()
	if !w.mounted {
		w.coords = pos
		w.mu.Unlock()
		return
	}
	w.coords = pos
	zoom := w.zoom
	w.mu.Unlock()

	w.engine.SetView(pos, zoom)
	w.engine.SetMarker(pos)
}

// Coords returns the marker's current position.
func (w *Widget) Coords() Coords {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.coords
}

// HandleResize must be called when the widget's container changes size.
// Does nothing while unmounted.
func (w *Widget) HandleResize() {
	w.mu.Lock()
	mounted := w.mounted
	w.mu.Unlock()

	if mounted {
		w.engine.InvalidateSize()
	}
}

// Mounted reports whether the widget currently drives a live engine.
func (w *Widget) Mounted() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mounted
}

// Unmount tears the engine down. Calling it repeatedly, or before Mount,
// is safe.
func (w *Widget) Unmount() {
	w.mu.Lock()
	if !w.mounted {
		w.mu.Unlock()
		return
	}
	w.mounted = false
	w.mu.Unlock()

	w.engine.OnClick(nil)
	w.engine.Remove()
}
