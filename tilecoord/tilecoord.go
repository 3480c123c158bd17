// Package tilecoord implements slippy-map (x,y,z) tile addressing: lookup
// from a geographic point, parent/child quadtree relationships, and the
// lng/lat bounding box a tile covers.
package tilecoord

import (
	"fmt"
	"math"
)

// Coord is an integer tile address. Invariants: Z >= 0, 0 <= X,Y < 2^Z.
type Coord struct {
	X, Y, Z int
}

// BBox is an axis-aligned lng/lat rectangle.
type BBox struct {
	MinLng, MinLat, MaxLng, MaxLat float64
}

// FromLngLat returns the tile containing (lng,lat) at zoom z, using the
// standard slippy-map formula. X/Y are clamped into [0, 2^z-1].
func FromLngLat(lng, lat float64, z int) Coord {
	n := math.Exp2(float64(z))
	latRad := lat * math.Pi / 180

	x := int(math.Floor((lng + 180) / 360 * n))
	y := int(math.Floor((1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2 * n))

	return Coord{X: clamp(x, 0, int(n)-1), Y: clamp(y, 0, int(n)-1), Z: z}
}

// Key returns the canonical "x/y/z" cache key for this coordinate.
func (c Coord) Key() string {
	return fmt.Sprintf("%d/%d/%d", c.X, c.Y, c.Z)
}

// Parent returns the tile one zoom level up that contains c. Undefined
// when c.Z == 0.
func (c Coord) Parent() Coord {
	return Coord{X: c.X / 2, Y: c.Y / 2, Z: c.Z - 1}
}

// Children returns the four tiles one zoom level down covering c's area.
func (c Coord) Children() [4]Coord {
	return [4]Coord{
		{X: 2 * c.X, Y: 2 * c.Y, Z: c.Z + 1},
		{X: 2*c.X + 1, Y: 2 * c.Y, Z: c.Z + 1},
		{X: 2 * c.X, Y: 2*c.Y + 1, Z: c.Z + 1},
		{X: 2*c.X + 1, Y: 2*c.Y + 1, Z: c.Z + 1},
	}
}

// Ancestors returns c's parent, grandparent, ... up to and including z=0,
// nearest first.
func (c Coord) Ancestors() []Coord {
	out := make([]Coord, 0, c.Z)
	cur := c
	for cur.Z > 0 {
		cur = cur.Parent()
		out = append(out, cur)
	}
	return out
}

// ToBBox returns the lng/lat rectangle this tile covers. MaxLng uses x+1;
// MaxLat uses y (not y+1) because Mercator y increases southward.
func (c Coord) ToBBox() BBox {
	n := math.Exp2(float64(c.Z))

	minLng := float64(c.X)/n*360 - 180
	maxLng := float64(c.X+1)/n*360 - 180
	maxLat := tileYToLat(float64(c.Y), n)
	minLat := tileYToLat(float64(c.Y+1), n)

	return BBox{MinLng: minLng, MinLat: minLat, MaxLng: maxLng, MaxLat: maxLat}
}

func tileYToLat(y, n float64) float64 {
	a := math.Pi - 2*math.Pi*y/n
	return 180 / math.Pi * math.Atan(0.5*(math.Exp(a)-math.Exp(-a)))
}

// Span enumerates the rectangular set of tiles at zoom z covering bbox,
// expanded by buffer tiles on every side, clamped to the valid [0,2^z) range.
func Span(bbox BBox, z, buffer int) []Coord {
	if z < 0 {
		return nil
	}
	n := int(math.Exp2(float64(z)))

	minC := FromLngLat(bbox.MinLng, bbox.MaxLat, z)
	maxC := FromLngLat(bbox.MaxLng, bbox.MinLat, z)

	x0 := clamp(minC.X-buffer, 0, n-1)
	x1 := clamp(maxC.X+buffer, 0, n-1)
	y0 := clamp(minC.Y-buffer, 0, n-1)
	y1 := clamp(maxC.Y+buffer, 0, n-1)

	out := make([]Coord, 0, (x1-x0+1)*(y1-y0+1))
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			out = append(out, Coord{X: x, Y: y, Z: z})
		}
	}
	return out
}

// ToMercator converts a tile-local coordinate (u,v in [0,1], the space MVT
// geometry is decoded into) to global mercator space.
func (c Coord) ToMercator(u, v float64) (mx, my float64) {
	n := math.Exp2(float64(c.Z))
	return (float64(c.X) + u) / n, (float64(c.Y) + v) / n
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
