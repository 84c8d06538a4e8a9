package mapview_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jerrywen2005/travel-journal/internal/mapview"
)

// fakeEngine records every call in order.
type fakeEngine struct {
	calls   []string
	clickFn func(mapview.Coords)
	initErr error
}

func (f *fakeEngine) Init(center mapview.Coords, zoom int) error {
	if f.initErr != nil {
		return f.initErr
	}
	f.calls = append(f.calls, fmt.Sprintf("init(%.2f,%.2f,z%d)", center.Lat, center.Lon, zoom))
	return nil
}

func (f *fakeEngine) SetView(center mapview.Coords, zoom int) {
	f.calls = append(f.calls, fmt.Sprintf("view(%.2f,%.2f,z%d)", center.Lat, center.Lon, zoom))
}

func (f *fakeEngine) SetMarker(pos mapview.Coords) {
	f.calls = append(f.calls, fmt.Sprintf("marker(%.2f,%.2f)", pos.Lat, pos.Lon))
}

func (f *fakeEngine) InvalidateSize() {
	f.calls = append(f.calls, "invalidate")
}

func (f *fakeEngine) OnClick(fn func(mapview.Coords)) {
	f.clickFn = fn
	if fn == nil {
		f.calls = append(f.calls, "onclick(nil)")
	} else {
		f.calls = append(f.calls, "onclick")
	}
}

func (f *fakeEngine) Remove() {
	f.calls = append(f.calls, "remove")
}

func (f *fakeEngine) click(pos mapview.Coords) {
	if f.clickFn != nil {
		f.clickFn(pos)
	}
}

func TestMount_InitializesAndInvalidatesSize(t *testing.T) {
	engine := &fakeEngine{}
	w := mapview.NewWidget(engine)

	require.NoError(t, w.Mount(mapview.Coords{Lat: 48.86, Lon: 2.33}))

	assert.Equal(t, []string{
		"init(48.86,2.33,z10)",
		"marker(48.86,2.33)",
		"onclick",
		"invalidate",
	}, engine.calls)
	assert.True(t, w.Mounted())
}

func TestMount_Twice(t *testing.T) {
	engine := &fakeEngine{}
	w := mapview.NewWidget(engine)

	require.NoError(t, w.Mount(mapview.Coords{}))
	before := len(engine.calls)
	require.NoError(t, w.Mount(mapview.Coords{Lat: 1}))

	assert.Equal(t, before, len(engine.calls), "second mount must not touch the engine")
}

func TestMount_InitError(t *testing.T) {
	engine := &fakeEngine{initErr: fmt.Errorf("no container")}
	w := mapview.NewWidget(engine)

	require.Error(t, w.Mount(mapview.Coords{}))
	assert.False(t, w.Mounted())
}

func TestSetCoords_MovesViewAndMarker(t *testing.T) {
	engine := &fakeEngine{}
	w := mapview.NewWidget(engine)
	require.NoError(t, w.Mount(mapview.Coords{}))
	engine.calls = nil

	pos := mapview.Coords{Lat: 35.68, Lon: 139.69}
	w.SetCoords(pos)

	assert.Equal(t, []string{"view(35.68,139.69,z10)", "marker(35.68,139.69)"}, engine.calls)
	assert.Equal(t, pos, w.Coords())

	// mutating the caller's value after the fact must not leak in
	pos.Lat = -90
	assert.Equal(t, 35.68, w.Coords().Lat)
}

func TestSetCoords_BeforeMountOnlyStores(t *testing.T) {
	engine := &fakeEngine{}
	w := mapview.NewWidget(engine)

	w.SetCoords(mapview.Coords{Lat: 1, Lon: 2})

	assert.Empty(t, engine.calls)
	assert.Equal(t, mapview.Coords{Lat: 1, Lon: 2}, w.Coords())
}

func TestHandleResize(t *testing.T) {
	engine := &fakeEngine{}
	w := mapview.NewWidget(engine)

	w.HandleResize()
	assert.Empty(t, engine.calls, "resize before mount is a no-op")

	require.NoError(t, w.Mount(mapview.Coords{}))
	engine.calls = nil

	w.HandleResize()
	assert.Equal(t, []string{"invalidate"}, engine.calls)
}

func TestClick_MovesMarkerAndNotifies(t *testing.T) {
	engine := &fakeEngine{}
	w := mapview.NewWidget(engine)

	var moved []mapview.Coords
	w.OnMarkerMove(func(pos mapview.Coords) { moved = append(moved, pos) })
	require.NoError(t, w.Mount(mapview.Coords{}))
	engine.calls = nil

	engine.click(mapview.Coords{Lat: 51.5, Lon: -0.13})

	assert.Equal(t, []string{"marker(51.50,-0.13)"}, engine.calls)
	require.Len(t, moved, 1)
	assert.Equal(t, 51.5, moved[0].Lat)
	assert.Equal(t, 51.5, w.Coords().Lat)
}

func TestUnmount_Idempotent(t *testing.T) {
	engine := &fakeEngine{}
	w := mapview.NewWidget(engine)

	w.Unmount()
	assert.Empty(t, engine.calls, "unmount before mount is a no-op")

	require.NoError(t, w.Mount(mapview.Coords{}))
	engine.calls = nil

	w.Unmount()
	assert.Equal(t, []string{"onclick(nil)", "remove"}, engine.calls)

	w.Unmount()
	assert.Equal(t, []string{"onclick(nil)", "remove"}, engine.calls, "second unmount must not touch the engine")
}

func TestClick_AfterUnmountIgnored(t *testing.T) {
	engine := &fakeEngine{}
	w := mapview.NewWidget(engine)

	var moved int
	w.OnMarkerMove(func(mapview.Coords) { moved++ })
	require.NoError(t, w.Mount(mapview.Coords{}))

	fn := engine.clickFn
	w.Unmount()
	fn(mapview.Coords{Lat: 1}) // stale handler invocation

	assert.Zero(t, moved)
}
