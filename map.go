package vectormap

import (
	"math"
	"time"

	"github.com/tilerender/vectormap/batch"
	"github.com/tilerender/vectormap/camera"
	"github.com/tilerender/vectormap/frame"
	"github.com/tilerender/vectormap/label"
	"github.com/tilerender/vectormap/tilecoord"
	"github.com/tilerender/vectormap/tiledata"
	"github.com/tilerender/vectormap/tilestore"
)

// Options configures a Map. Zero values fall back to the defaults
// documented on each field.
type Options struct {
	// Fetcher retrieves raw MVT tile payloads; required.
	Fetcher tilestore.Fetcher

	// ViewportW and ViewportH are the initial viewport size in pixels.
	// If zero, defaults to 1024x768.
	ViewportW, ViewportH float64

	// MinZoom and MaxZoom bound the camera's zoom range. Defaults to
	// 0 and 18.
	MinZoom, MaxZoom float64

	// TileBuffer is the number of extra tiles planned beyond the exact
	// viewport on every side. Defaults to 1.
	TileBuffer int

	// Allowlist restricts which MVT layers are decoded; nil keeps all.
	Allowlist []string

	// TTL is how long a Ready tile survives outside the viewport before
	// Prune evicts it. Defaults to 2 minutes.
	TTL time.Duration

	// FetchConcurrency bounds in-flight tile fetches. Defaults to 8.
	FetchConcurrency int64

	// MaxCacheEntries bounds the tile store's backing LRU. Defaults to 4096.
	MaxCacheEntries int

	// LayerColors seeds per-layer fill colors.
	LayerColors map[string]batch.RGBA

	// Atlas supplies glyph UVs for the label engine. Defaults to a
	// procedural 16-column ASCII atlas.
	Atlas label.Atlas

	// MaxLabelsProcessed bounds labels considered per frame. Defaults to 2000.
	MaxLabelsProcessed int

	// Clock lets tests control tile age; defaults to the system clock.
	Clock tilestore.Clock
}

// Map is the top-level entry point: it owns the camera, tile store,
// frame driver, layer batcher, and label engine, and exposes the input
// and per-frame render surface a host binds to a GPU context.
type Map struct {
	camera  *camera.Camera
	store   *tilestore.Store
	driver  *frame.Driver
	batcher *batch.Batcher
	labels  *label.Engine
}

// NewMap constructs a Map. Fetcher must be supplied; everything else has
// a documented default.
func NewMap(opts Options) (*Map, error) {
	w, h := opts.ViewportW, opts.ViewportH
	if w == 0 {
		w = 1024
	}
	if h == 0 {
		h = 768
	}
	maxZoom := opts.MaxZoom
	if maxZoom == 0 {
		maxZoom = 18
	}
	tileBuffer := opts.TileBuffer
	if tileBuffer == 0 {
		tileBuffer = 1
	}
	maxLabels := opts.MaxLabelsProcessed
	if maxLabels == 0 {
		maxLabels = 2000
	}
	atlas := opts.Atlas
	if atlas == nil {
		atlas = label.NewASCIIAtlas(16)
	}

	store, err := tilestore.New(tilestore.Options{
		Fetcher:          opts.Fetcher,
		Clock:            opts.Clock,
		MaxEntries:       opts.MaxCacheEntries,
		TTL:              opts.TTL,
		FetchConcurrency: opts.FetchConcurrency,
		Allowlist:        opts.Allowlist,
	})
	if err != nil {
		return nil, err
	}

	cam := camera.New(w, h, opts.MinZoom, maxZoom)

	driver := frame.New(cam, store, tileBuffer, int(math.Floor(maxZoom)))

	batcher := batch.New()
	for layer, color := range opts.LayerColors {
		batcher.SetLayerColor(layer, color)
	}

	labelEngine := label.New(atlas)
	labelEngine.MaxLabels = maxLabels

	// Populate the initial viewport immediately: OnPan/OnZoom/
	// OnRotateOrPitch all require an input event to reach the tile store,
	// so without this a Map shown before any user interaction would
	// never fetch a single tile.
	driver.PlanNow(time.Now())

	return &Map{camera: cam, store: store, driver: driver, batcher: batcher, labels: labelEngine}, nil
}

// Pan shifts the camera by a screen-pixel delta, planning immediately.
func (m *Map) Pan(dxPixels, dyPixels float64) {
	m.driver.OnPan(dxPixels, dyPixels, time.Now())
}

// ZoomAt zooms around the given screen anchor, planning immediately if
// the change is large enough (see package frame).
func (m *Map) ZoomAt(delta, sx, sy float64) {
	m.driver.OnZoom(delta, sx, sy, time.Now())
}

// RotateAndTilt applies bearing/pitch deltas, deferring tile planning
// until interaction stops.
func (m *Map) RotateAndTilt(deltaBearing, deltaPitch float64) {
	m.driver.OnRotateOrPitch(deltaBearing, deltaPitch, time.Now())
}

// Resize updates the viewport size after a host window resize.
func (m *Map) Resize(w, h float64) {
	m.camera.Resize(w, h)
}

// SetLayerColor sets a layer's fill color for subsequent Render calls.
func (m *Map) SetLayerColor(layer string, color batch.RGBA) {
	m.batcher.SetLayerColor(layer, color)
}

// DisableLayer excludes a layer from rendering entirely.
func (m *Map) DisableLayer(layer string, disabled bool) {
	m.batcher.DisableLayer(layer, disabled)
}

// Render advances the debounce timer, resolves the currently renderable
// tile set, and builds this frame's layer draw calls and label geometry.
// Call once per frame.
func (m *Map) Render() ([]batch.DrawCall, label.Result) {
	now := time.Now()
	m.driver.Tick(now)

	tiles := m.renderableTiles()
	draws := m.batcher.Build(tiles, m.camera)
	labels := m.labels.Build(tiles, m.camera)
	return draws, labels
}

// Camera exposes the underlying camera for read-only inspection (e.g. a
// host computing HUD overlays); mutate only through Pan/ZoomAt/RotateAndTilt.
func (m *Map) Camera() *camera.Camera {
	return m.camera
}

func (m *Map) renderableTiles() []*tiledata.Tile {
	minLng, minLat, maxLng, maxLat := m.camera.Bounds()
	bbox := tilecoord.BBox{MinLng: minLng, MinLat: minLat, MaxLng: maxLng, MaxLat: maxLat}
	z := int(math.Floor(m.camera.Zoom))
	if z > m.driver.MaxTileZoom {
		z = m.driver.MaxTileZoom
	}
	if z < 0 {
		z = 0
	}
	viewportTiles := tilecoord.Span(bbox, z, m.driver.TileBuffer)
	return m.store.RenderableTiles(viewportTiles)
}
