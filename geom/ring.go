// Package geom turns the raw rings produced by the MVT parser into
// draw-ready vertex/index arrays: polygon tessellation, line segment
// expansion, and point pass-through. See DESIGN.md for why tessellation
// is hand-written rather than library-backed.
package geom

// Point is a 2D coordinate in whatever space the caller is working in
// (this package is used both in tile-local [0,1] and, in tests, in plain
// integer-ish coordinates).
type Point struct {
	X, Y float64
}

// Ring is an ordered, not-necessarily-closed sequence of points bounding
// (or approximating) a polygon region or forming a polyline.
type Ring []Point

// dupEps is the distance (in the same units as the ring's points) below
// which two consecutive points are considered duplicates.
const dupEps = 1e-9

// CleanRing removes consecutive duplicate points (within dupEps), drops a
// closing point that duplicates the first, and reports ok=false if fewer
// than 3 distinct points remain (for polygons) — callers doing line
// cleanup should accept 2-point results directly via dedupConsecutive.
func CleanRing(in Ring) (out Ring, ok bool) {
	deduped := dedupConsecutive(in)

	if len(deduped) > 1 && closeEnough(deduped[0], deduped[len(deduped)-1]) {
		deduped = deduped[:len(deduped)-1]
	}

	if len(deduped) < 3 {
		return nil, false
	}
	return deduped, true
}

// CleanLine removes consecutive duplicate points. A line needs only 2
// surviving points to be drawable.
func CleanLine(in Ring) (out Ring, ok bool) {
	deduped := dedupConsecutive(in)
	return deduped, len(deduped) >= 2
}

func dedupConsecutive(in Ring) Ring {
	if len(in) == 0 {
		return nil
	}
	out := make(Ring, 0, len(in))
	out = append(out, in[0])
	for i := 1; i < len(in); i++ {
		if !closeEnough(in[i], out[len(out)-1]) {
			out = append(out, in[i])
		}
	}
	return out
}

func closeEnough(a, b Point) bool {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx+dy*dy < dupEps*dupEps
}

// signedArea computes twice the shoelace-formula signed area. Its sign
// (not magnitude) distinguishes a ring's winding direction, which this
// package uses to tell exterior shells from holes (see Tessellate).
func signedArea(r Ring) float64 {
	var sum float64
	n := len(r)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += r[i].X*r[j].Y - r[j].X*r[i].Y
	}
	return sum
}
