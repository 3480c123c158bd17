package ebitenhost

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/tilerender/vectormap/label"
)

const (
	atlasCellPx = 16 // must match the fixed cell size implied by label.NewASCIIAtlas's layout
	asciiFirst  = 32
	asciiLast   = 126
)

// BuildASCIIAtlasImage rasterizes the printable ASCII range with
// basicfont.Face7x13 into the same columns x rows grid layout
// label.NewASCIIAtlas uses, so the UVs label.Engine computes line up with
// this image's glyph cells. Returns both the image and the Atlas to pass
// as vectormap.Options.Atlas.
func BuildASCIIAtlasImage(columns int) (*ebiten.Image, *label.ASCIIAtlas) {
	if columns <= 0 {
		columns = 16
	}
	rows := (asciiLast - asciiFirst + 1 + columns - 1) / columns

	w := columns * atlasCellPx
	h := rows * atlasCellPx
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(rgba, rgba.Bounds(), image.Transparent, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	drawer := &font.Drawer{
		Dst:  rgba,
		Src:  image.NewUniform(color.White),
		Face: face,
	}

	for r := asciiFirst; r <= asciiLast; r++ {
		idx := r - asciiFirst
		col := idx % columns
		row := idx / columns
		cellX := col * atlasCellPx
		cellY := row * atlasCellPx
		// Baseline near the bottom of the cell, matching glyphHeight=14.
		drawer.Dot = fixed.Point26_6{
			X: fixed.I(cellX + 1),
			Y: fixed.I(cellY + atlasCellPx - 3),
		}
		drawer.DrawString(string(rune(r)))
	}

	img := ebiten.NewImageFromImage(rgba)
	return img, label.NewASCIIAtlas(columns)
}
