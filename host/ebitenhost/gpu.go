// Package ebitenhost is the windowing/input/GPU binding layer (spec.md's
// "out of scope, specified only by its interface to the core"): it drives
// an Ebitengine game loop, turns mouse/keyboard events into Map input
// calls, and submits the per-frame draw calls and label geometry Map
// returns as DrawTriangles32 batches.
package ebitenhost

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/tilerender/vectormap/batch"
	"github.com/tilerender/vectormap/camera"
	"github.com/tilerender/vectormap/label"
)

// whitePixel is a 1x1 opaque white image, the source image for polygon and
// line fills (which carry their own per-vertex color and no texture).
var whitePixel *ebiten.Image

func init() {
	whitePixel = ebiten.NewImage(1, 1)
	whitePixel.Fill(color.White)
}

// drawOptionsFor selects the compositing mode for a draw call. Both fills
// and labels use source-over blending; premultiplied selects premultiplied
// color scaling (the label pass). No fragment discard is applied:
// Ebitengine's DrawTriangles32 has no discard hook, so
// label.AlphaDiscardThreshold is not enforced by this binding.
func drawOptionsFor(premultiplied bool) *ebiten.DrawTrianglesOptions {
	var opt ebiten.DrawTrianglesOptions
	opt.Blend = ebiten.BlendSourceOver
	if premultiplied {
		opt.ColorScaleMode = ebiten.ColorScaleModePremultipliedAlpha
	}
	return &opt
}

// SubmitDrawCalls converts one frame's layer draw calls into Ebitengine
// vertices and issues one DrawTriangles32 call per bucket, in the order
// Build already established (spec.md's deterministic paint order without
// a depth buffer — submission order here, not a z-buffer).
//
// dc.Vertices are camera-relative world-pixel offsets (camera.RelativeXY),
// not yet run through the view/perspective matrix: with no shader stage
// to do that multiply-and-divide per vertex on-device, this binding does
// it here on the CPU via cam.ProjectRelative, once per vertex per frame.
func SubmitDrawCalls(screen *ebiten.Image, draws []batch.DrawCall, cam *camera.Camera) {
	opt := drawOptionsFor(false)
	var verts []ebiten.Vertex
	for _, dc := range draws {
		verts = growVerts(verts, len(dc.Vertices))
		for _, p := range dc.Vertices {
			sx, sy := cam.ProjectRelative(float64(p[0]), float64(p[1]))
			verts = append(verts, ebiten.Vertex{
				DstX: float32(sx), DstY: float32(sy),
				SrcX: 0, SrcY: 0,
				ColorR: dc.Color[0], ColorG: dc.Color[1], ColorB: dc.Color[2], ColorA: dc.Color[3],
			})
		}
		if len(verts) == 0 || len(dc.Indices) == 0 {
			continue
		}
		screen.DrawTriangles32(verts, dc.Indices, whitePixel, opt)
	}
}

func growVerts(buf []ebiten.Vertex, n int) []ebiten.Vertex {
	if cap(buf) < n {
		return make([]ebiten.Vertex, 0, n)
	}
	return buf[:0]
}

// SubmitLabels draws one frame's glyph quads against the given atlas
// image. Callers are expected to have built atlasImage from the same
// Atlas passed to vectormap.Options.Atlas (e.g. via BuildASCIIAtlasImage).
func SubmitLabels(screen *ebiten.Image, atlasImage *ebiten.Image, result label.Result) {
	if atlasImage == nil || len(result.Vertices) == 0 {
		return
	}
	verts := make([]ebiten.Vertex, len(result.Vertices))
	bounds := atlasImage.Bounds()
	w, h := float32(bounds.Dx()), float32(bounds.Dy())
	for i, v := range result.Vertices {
		verts[i] = ebiten.Vertex{
			DstX: v.Pos[0], DstY: v.Pos[1],
			SrcX: v.UV[0] * w, SrcY: v.UV[1] * h,
			ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1,
		}
	}
	screen.DrawTriangles32(verts, result.Indices, atlasImage, drawOptionsFor(true))
}
