// Package batch aggregates per-tile feature sets into per-frame,
// per-layer draw calls (spec.md C8): one global layer paint order, three
// kind buckets per layer (polygon, line, point), indices re-offset into
// a single vertex buffer per bucket, and a monotonically increasing
// depth uniform used only to let specific layers opt into a stacking
// offset — map layers are never depth-tested against each other.
package batch

import (
	"github.com/tilerender/vectormap/camera"
	"github.com/tilerender/vectormap/tilecoord"
	"github.com/tilerender/vectormap/tiledata"
)

// GlobalLayerOrder is the fixed bottom-to-top paint order. Any layer not
// listed here is drawn after all of these, in the stable order it was
// first encountered.
var GlobalLayerOrder = []string{
	"background", "landcover", "park", "landuse", "water",
	"boundary", "transportation", "building", "housenumber", "label",
}

const depthStep = 1.0 / 4096.0

// RGBA is a premultiplied-unassumed fill color; the batcher does not
// premultiply, per spec.md's blending note (src_alpha, one_minus_src_alpha).
type RGBA [4]float32

// DrawCall is one indexed draw: a single (layer, kind) bucket's vertices
// already baked camera-relative (via camera.RelativeXY) and downcast to
// float32, ready for GPU upload paired with ViewProjectionRelative32.
type DrawCall struct {
	Layer    string
	Kind     tiledata.GeomKind
	Vertices [][2]float32
	Indices  []uint32
	Color    RGBA
	Depth    float32
}

// Batcher holds the per-layer fill colors and enabled/disabled state. It
// owns no tile data itself — Build takes a frame's renderable tiles as a
// borrowed slice and returns entirely new DrawCall slices.
type Batcher struct {
	colors   map[string]RGBA
	disabled map[string]bool
}

func New() *Batcher {
	return &Batcher{
		colors:   make(map[string]RGBA),
		disabled: make(map[string]bool),
	}
}

// SetLayerColor sets the fill color used for a layer's draw calls.
func (b *Batcher) SetLayerColor(layer string, color RGBA) {
	b.colors[layer] = color
}

// DisableLayer excludes a layer from Build's output entirely (a
// supplemented feature beyond the distilled spec — see SPEC_FULL.md §4.13).
func (b *Batcher) DisableLayer(layer string, disabled bool) {
	b.disabled[layer] = disabled
}

// Build aggregates renderable tiles into ordered draw calls. tiles is
// borrowed: Build never retains a reference to it or to any FeatureSet
// within it past the call (per spec.md §9's borrow-vs-retain design note).
func (b *Batcher) Build(tiles []*tiledata.Tile, cam *camera.Camera) []DrawCall {
	order := layerOrder(tiles)

	var calls []DrawCall
	depth := float32(0)
	for _, layer := range order {
		if b.disabled[layer] {
			continue
		}
		color := b.colors[layer]
		// Tie-break within a layer: polygon, then line, then point.
		for _, kind := range []tiledata.GeomKind{tiledata.KindPolygon, tiledata.KindLine, tiledata.KindPoint} {
			dc, ok := buildBucket(tiles, cam, layer, kind, color, depth)
			if ok {
				calls = append(calls, dc)
			}
		}
		depth += depthStep
	}
	return calls
}

// layerOrder returns GlobalLayerOrder followed by any extra layer names
// found in tiles, in first-seen order, deduplicated.
func layerOrder(tiles []*tiledata.Tile) []string {
	known := make(map[string]bool, len(GlobalLayerOrder))
	for _, l := range GlobalLayerOrder {
		known[l] = true
	}

	var extra []string
	seenExtra := make(map[string]bool)
	for _, tile := range tiles {
		for _, fs := range tile.FeatureSets {
			if known[fs.Layer] || seenExtra[fs.Layer] {
				continue
			}
			seenExtra[fs.Layer] = true
			extra = append(extra, fs.Layer)
		}
	}
	return append(append([]string{}, GlobalLayerOrder...), extra...)
}

func buildBucket(tiles []*tiledata.Tile, cam *camera.Camera, layer string, kind tiledata.GeomKind, color RGBA, depth float32) (DrawCall, bool) {
	var vertices [][2]float32
	var indices []uint32

	for _, tile := range tiles {
		coord := tilecoord.Coord{X: tile.X, Y: tile.Y, Z: tile.Z}
		for _, fs := range tile.FeatureSets {
			if fs.Layer != layer || fs.Kind != kind {
				continue
			}
			base := uint32(len(vertices))
			for _, v := range fs.Vertices {
				mx, my := coord.ToMercator(float64(v[0]), float64(v[1]))
				rx, ry := cam.RelativeXY(mx, my)
				vertices = append(vertices, [2]float32{float32(rx), float32(ry)})
			}
			for _, idx := range fs.Indices {
				indices = append(indices, base+idx)
			}
		}
	}

	if len(vertices) == 0 {
		return DrawCall{}, false
	}
	return DrawCall{
		Layer: layer, Kind: kind,
		Vertices: vertices, Indices: indices,
		Color: color, Depth: depth,
	}, true
}
