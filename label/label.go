// Package label implements the label engine (spec.md C9): priority sort,
// screen-space collision-grid placement, and glyph quad emission under
// an orthographic pixel-space overlay.
package label

import (
	"sort"

	"github.com/tilerender/vectormap/camera"
	"github.com/tilerender/vectormap/tilecoord"
	"github.com/tilerender/vectormap/tiledata"
)

const (
	defaultGridW    = 120
	defaultGridH    = 100
	defaultMaxLabel = 2000
	screenMargin    = 20
	alphaDiscard    = 0.1
)

// Vertex is one glyph-quad vertex: screen-space position (pixels) plus
// atlas UV.
type Vertex struct {
	Pos [2]float32
	UV  [2]float32
}

// Result is a frame's emitted label geometry. Positions are screen pixels
// (an orthographic pixel-space overlay); AlphaDiscardThreshold is the
// atlas alpha cutoff for sampling these quads.
type Result struct {
	Vertices []Vertex
	Indices  []uint32
}

// AlphaDiscardThreshold is the fragment-path cutoff callers should apply
// when sampling the atlas for these quads.
const AlphaDiscardThreshold = alphaDiscard

// Engine sorts, places, and emits label geometry. It caches the last
// frame's Result and only rebuilds when the camera state or renderable
// tile set changed (spec.md §4.9 Caching).
type Engine struct {
	Atlas     Atlas
	GridW     int
	GridH     int
	MaxLabels int

	lastSnapshot snapshot
	lastResult   Result
	hasCache     bool
}

func New(atlas Atlas) *Engine {
	return &Engine{
		Atlas:     atlas,
		GridW:     defaultGridW,
		GridH:     defaultGridH,
		MaxLabels: defaultMaxLabel,
	}
}

type snapshot struct {
	mx, my, zoom, bearing, pitch, w, h float64
	tileKeys                          string
}

func cameraSnapshot(cam *camera.Camera, tiles []*tiledata.Tile) snapshot {
	keys := make([]byte, 0, len(tiles)*16)
	for _, t := range tiles {
		k := tilecoord.Coord{X: t.X, Y: t.Y, Z: t.Z}.Key()
		keys = append(keys, k...)
		keys = append(keys, ';')
	}
	return snapshot{
		mx: cam.MX, my: cam.MY, zoom: cam.Zoom, bearing: cam.Bearing, pitch: cam.Pitch,
		w: cam.ViewportW, h: cam.ViewportH,
		tileKeys: string(keys),
	}
}

// Build projects and places labels for one frame, returning a freshly
// allocated Result the first time, or the cached one when the camera and
// tile set are unchanged from the previous call.
func (e *Engine) Build(tiles []*tiledata.Tile, cam *camera.Camera) Result {
	snap := cameraSnapshot(cam, tiles)
	if e.hasCache && snap == e.lastSnapshot {
		return e.lastResult
	}

	labels := collectLabels(tiles)
	sort.SliceStable(labels, func(i, j int) bool {
		return labels[i].label.Priority > labels[j].label.Priority
	})

	gridW, gridH := e.gridSize()
	occupied := make([]bool, gridW*gridH)

	var result Result
	processed := 0
	maxLabels := e.MaxLabels
	if maxLabels <= 0 {
		maxLabels = defaultMaxLabel
	}

	for _, pl := range labels {
		if processed >= maxLabels {
			break
		}
		processed++

		sx, sy := cam.WorldToScreen(pl.mx, pl.my)
		if !onScreen(sx, sy, cam.ViewportW, cam.ViewportH) {
			continue
		}

		width := float32(len(pl.label.Text)) * fixedAdvance
		height := float32(glyphHeight)
		left := float32(sx) - width/2
		top := float32(sy) - height/2

		cx0, cy0, cx1, cy1 := cellRange(left, top, width, height, cam.ViewportW, cam.ViewportH, gridW, gridH)
		if collides(occupied, gridW, cx0, cy0, cx1, cy1) {
			continue
		}
		mark(occupied, gridW, cx0, cy0, cx1, cy1)

		emitText(&result, e.Atlas, pl.label.Text, left, top, height)
	}

	e.lastSnapshot = snap
	e.lastResult = result
	e.hasCache = true
	return result
}

func (e *Engine) gridSize() (int, int) {
	w, h := e.GridW, e.GridH
	if w <= 0 {
		w = defaultGridW
	}
	if h <= 0 {
		h = defaultGridH
	}
	return w, h
}

type placedLabel struct {
	label  tiledata.LabelInfo
	mx, my float64
}

func collectLabels(tiles []*tiledata.Tile) []placedLabel {
	var out []placedLabel
	for _, tile := range tiles {
		coord := tilecoord.Coord{X: tile.X, Y: tile.Y, Z: tile.Z}
		for _, l := range tile.Labels {
			mx, my := coord.ToMercator(l.X, l.Y)
			out = append(out, placedLabel{label: l, mx: mx, my: my})
		}
	}
	return out
}

func onScreen(sx, sy, w, h float64) bool {
	if isInfOrNaN(sx) || isInfOrNaN(sy) {
		return false
	}
	return sx >= -screenMargin && sx <= w+screenMargin && sy >= -screenMargin && sy <= h+screenMargin
}

func isInfOrNaN(v float64) bool {
	return v != v || v > 1e300 || v < -1e300
}

func cellRange(left, top, width, height float32, viewW, viewH float64, gridW, gridH int) (x0, y0, x1, y1 int) {
	cellW := float32(viewW) / float32(gridW)
	cellH := float32(viewH) / float32(gridH)

	x0 = clampInt(int(left/cellW), 0, gridW-1)
	x1 = clampInt(int((left+width)/cellW), 0, gridW-1)
	y0 = clampInt(int(top/cellH), 0, gridH-1)
	y1 = clampInt(int((top+height)/cellH), 0, gridH-1)
	return
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func collides(occupied []bool, gridW, x0, y0, x1, y1 int) bool {
	for y := y0; y <= y1; y++ {
		row := y * gridW
		for x := x0; x <= x1; x++ {
			if occupied[row+x] {
				return true
			}
		}
	}
	return false
}

func mark(occupied []bool, gridW, x0, y0, x1, y1 int) {
	for y := y0; y <= y1; y++ {
		row := y * gridW
		for x := x0; x <= x1; x++ {
			occupied[row+x] = true
		}
	}
}

func emitText(result *Result, atlas Atlas, text string, left, top, height float32) {
	cursor := left
	for _, r := range text {
		gi, ok := atlas.Glyph(r)
		if !ok {
			cursor += fixedAdvance
			continue
		}
		base := uint32(len(result.Vertices))
		result.Vertices = append(result.Vertices,
			Vertex{Pos: [2]float32{cursor, top}, UV: [2]float32{gi.U0, gi.V0}},
			Vertex{Pos: [2]float32{cursor + fixedAdvance, top}, UV: [2]float32{gi.U1, gi.V0}},
			Vertex{Pos: [2]float32{cursor, top + height}, UV: [2]float32{gi.U0, gi.V1}},
			Vertex{Pos: [2]float32{cursor + fixedAdvance, top + height}, UV: [2]float32{gi.U1, gi.V1}},
		)
		result.Indices = append(result.Indices,
			base, base+1, base+2,
			base+2, base+1, base+3,
		)
		cursor += gi.Advance
	}
}
