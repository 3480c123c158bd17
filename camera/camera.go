// Package camera implements the double-precision view/projection math
// (spec.md C7): mercator-center pan and anchor-invariant zoom, the
// world/view/perspective matrix stack, and screen↔world ray-plane
// intersection. Every computation here is float64; callers downcast to
// float32 only at the point of GPU upload (ViewProjectionMatrix32), never
// earlier — doing the pan/zoom math in float32 causes visible vertex
// jitter at high zoom levels.
package camera

import (
	"math"

	"github.com/tilerender/vectormap/mercator"
)

const (
	tileSize   = 512 // pixels per tile at zoom 0, matching world_size = 512 * 2^zoom
	maxPitch   = 60  // degrees; strictly less than 90
	fovDegrees = 60
	nearPlane  = 0.1
)

// Camera holds the mercator-space view state. The frame driver is the
// sole mutator (spec.md §3 ownership note); everything else only reads
// through Pan/ZoomAt/ScreenToWorld/WorldToScreen/Bounds.
type Camera struct {
	MX, MY  float64 // mercator center, each in [0,1]
	Zoom    float64
	Bearing float64 // degrees, normalized to [0,360)
	Pitch   float64 // degrees, clamped to [0,60]

	ViewportW, ViewportH float64
	MinZoom, MaxZoom     float64

	vp         mat4
	vpInv      mat4
	vpRelative mat4 // View * Projection only, paired with RelativeXY-baked vertices
	dirty      bool
}

// New creates a Camera centered on the middle of the mercator square
// (0.5,0.5), i.e. lng/lat (0,0), at the given viewport size and zoom
// range.
func New(viewportW, viewportH, minZoom, maxZoom float64) *Camera {
	return &Camera{
		MX: 0.5, MY: 0.5,
		Zoom:      minZoom,
		ViewportW: viewportW, ViewportH: viewportH,
		MinZoom: minZoom, MaxZoom: maxZoom,
		dirty: true,
	}
}

func (c *Camera) worldSize() float64 {
	return tileSize * math.Exp2(c.Zoom)
}

// altitude is chosen so that at the camera's current zoom level the
// screen pixel scale matches the mercator pixel scale (1:1), per
// spec.md's MVP formulation.
func (c *Camera) altitude() float64 {
	return (c.ViewportH / 2) / math.Tan(30*math.Pi/180)
}

// Pan shifts the mercator center by a screen-pixel delta. Dragging the
// surface down moves the camera up (mercator Y decreases) — both axes
// use the same subtraction; the convention lives entirely in how the
// frame driver computes dx/dy from pointer motion.
func (c *Camera) Pan(dxPixels, dyPixels float64) {
	ws := c.worldSize()
	c.MX -= dxPixels / ws
	c.MY -= dyPixels / ws
	c.markDirty()
}

// ZoomAt zooms by delta, keeping the mercator point under (sx,sy)
// invariant: that point projects back to the same screen position after
// the zoom as it did before.
func (c *Camera) ZoomAt(delta, sx, sy float64) {
	beforeX, beforeY := c.ScreenToWorld(sx, sy)

	c.Zoom = clampf(c.Zoom+delta, c.MinZoom, c.MaxZoom)
	c.markDirty()

	afterX, afterY := c.ScreenToWorld(sx, sy)
	c.MX += beforeX - afterX
	c.MY += beforeY - afterY
	c.markDirty()
}

// Rotate adds deltaDegrees to the bearing, normalized into [0,360).
func (c *Camera) Rotate(deltaDegrees float64) {
	b := math.Mod(c.Bearing+deltaDegrees, 360)
	if b < 0 {
		b += 360
	}
	c.Bearing = b
	c.markDirty()
}

// Tilt adds deltaDegrees to the pitch, clamped to [0,60].
func (c *Camera) Tilt(deltaDegrees float64) {
	c.Pitch = clampf(c.Pitch+deltaDegrees, 0, maxPitch)
	c.markDirty()
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (c *Camera) markDirty() { c.dirty = true }

// Resize updates the viewport dimensions (e.g. on a host window resize).
func (c *Camera) Resize(w, h float64) {
	c.ViewportW, c.ViewportH = w, h
	c.markDirty()
}

// recompute rebuilds the cached view-projection matrix and its inverse
// when dirty. M = World · View · Projection (row-vector convention; see
// mat4.go).
func (c *Camera) recompute() {
	if !c.dirty {
		return
	}
	ws := c.worldSize()
	alt := c.altitude()
	aspect := c.ViewportW / c.ViewportH
	if aspect <= 0 {
		aspect = 1
	}

	world := translate(-c.MX, -c.MY, 0).mul(scale3(ws, -ws, 1))
	view := rotateZ(c.Bearing * math.Pi / 180).
		mul(rotateX(-c.Pitch * math.Pi / 180)).
		mul(translate(0, 0, -alt))
	proj := perspective(fovDegrees*math.Pi/180, aspect, nearPlane, 100*alt)

	c.vpRelative = view.mul(proj)
	c.vp = world.mul(c.vpRelative)
	if inv, ok := c.vp.invert(); ok {
		c.vpInv = inv
	} else {
		c.vpInv = identity()
	}
	c.dirty = false
}

// ViewProjectionMatrix returns the current double-precision MVP matrix
// as 16 row-major floats.
func (c *Camera) ViewProjectionMatrix() [16]float64 {
	c.recompute()
	return [16]float64(c.vp)
}

// ViewProjectionMatrix32 is the float32 downcast of ViewProjectionMatrix.
// It includes World, so its translation row holds MX/MY scaled by the
// world size and it pairs with absolute mercator vertices; both lose
// precision in float32 at high zoom. For float32 vertex data use
// RelativeXY with ViewProjectionRelative32 instead.
func (c *Camera) ViewProjectionMatrix32() [16]float32 {
	m := c.ViewProjectionMatrix()
	var out [16]float32
	for i, v := range m {
		out[i] = float32(v)
	}
	return out
}

// RelativeXY converts a mercator point into camera-relative, Y-flipped,
// pixel-scale coordinates — exactly the World transform's math, done in
// double precision so the subtraction of two near-equal mercator values
// happens before the multiply by world size. The result is small enough
// to downcast to float32 without the jitter a raw mercator value would
// cause (spec.md §4.7's numerical policy). Pair with
// ViewProjectionRelative(32) as the uniform, not ViewProjectionMatrix,
// since World has already been baked in here.
func (c *Camera) RelativeXY(mx, my float64) (x, y float64) {
	c.recompute()
	ws := c.worldSize()
	return (mx - c.MX) * ws, (my - c.MY) * -ws
}

// ViewProjectionRelative returns View*Projection only (no World), the
// uniform to pair with vertices baked through RelativeXY.
func (c *Camera) ViewProjectionRelative() [16]float64 {
	c.recompute()
	return [16]float64(c.vpRelative)
}

// ViewProjectionRelative32 is the float32 downcast of
// ViewProjectionRelative, safe because it carries no absolute mercator
// magnitude.
func (c *Camera) ViewProjectionRelative32() [16]float32 {
	m := c.ViewProjectionRelative()
	var out [16]float32
	for i, v := range m {
		out[i] = float32(v)
	}
	return out
}

// ScreenToWorld unprojects a screen-space point onto the mercator z=0
// plane via double-precision ray-plane intersection. Degenerate cases
// (ray parallel to the plane) return the current camera center.
func (c *Camera) ScreenToWorld(sx, sy float64) (mx, my float64) {
	c.recompute()

	nx := (sx/c.ViewportW)*2 - 1
	ny := 1 - (sy/c.ViewportH)*2

	near := perspectiveDivide(c.vpInv.transformRow([4]float64{nx, ny, -1, 1}))
	far := perspectiveDivide(c.vpInv.transformRow([4]float64{nx, ny, 1, 1}))

	denom := far[2] - near[2]
	if math.Abs(denom) < 1e-12 {
		return c.MX, c.MY
	}
	t := (0 - near[2]) / denom
	return near[0] + t*(far[0]-near[0]), near[1] + t*(far[1]-near[1])
}

func perspectiveDivide(v [4]float64) [4]float64 {
	if v[3] == 0 {
		return v
	}
	return [4]float64{v[0] / v[3], v[1] / v[3], v[2] / v[3], 1}
}

// ProjectRelative finishes the job RelativeXY/ViewProjectionRelative split
// in two: it applies View*Projection to an already camera-relative point
// (as produced by RelativeXY) and returns the final screen-pixel position.
// A GPU binding with real vertex-shader support would instead upload
// ViewProjectionRelative32 as a uniform and do this per vertex on-device;
// a binding with no shader stage (spec.md's GPU layer is an external
// collaborator and may be this thin) can call ProjectRelative on the CPU
// per vertex instead, at the cost of doing the divide once per vertex
// per frame rather than on-device.
func (c *Camera) ProjectRelative(rx, ry float64) (sx, sy float64) {
	c.recompute()
	clip := c.vpRelative.transformRow([4]float64{rx, ry, 0, 1})
	if math.Abs(clip[3]) < 1e-9 {
		return math.Inf(1), math.Inf(1)
	}
	ndcX := clip[0] / clip[3]
	ndcY := clip[1] / clip[3]
	return (ndcX + 1) / 2 * c.ViewportW, (1 - ndcY) / 2 * c.ViewportH
}

// WorldToScreen projects a mercator point to screen space using the same
// MVP. Returns the off-screen sentinel (+Inf, +Inf) when w is too close
// to zero to divide by (point on or behind the camera plane).
func (c *Camera) WorldToScreen(mx, my float64) (sx, sy float64) {
	c.recompute()
	clip := c.vp.transformRow([4]float64{mx, my, 0, 1})
	if clip[3] < 1e-9 {
		return math.Inf(1), math.Inf(1)
	}
	ndcX := clip[0] / clip[3]
	ndcY := clip[1] / clip[3]
	return (ndcX + 1) / 2 * c.ViewportW, (1 - ndcY) / 2 * c.ViewportH
}

// Bounds returns an over-approximating lng/lat rectangle enclosing the
// on-screen footprint, used to drive tile-store planning. Exactness is
// not required (spec.md §4.7). Eight screen samples (corners and edge
// midpoints) are unprojected with ScreenToWorld and all of them are used;
// a degenerate sample contributes the camera center, as ScreenToWorld
// returns it. The result is widened by a fixed mercator margin and
// clamped to the world; there is no separate whole-world fallback.
func (c *Camera) Bounds() (minLng, minLat, maxLng, maxLat float64) {
	c.recompute()

	samples := [][2]float64{
		{0, 0}, {c.ViewportW, 0}, {c.ViewportW, c.ViewportH}, {0, c.ViewportH},
		{c.ViewportW / 2, 0}, {c.ViewportW / 2, c.ViewportH},
		{0, c.ViewportH / 2}, {c.ViewportW, c.ViewportH / 2},
	}

	first := true
	var minMX, minMY, maxMX, maxMY float64
	for _, s := range samples {
		mx, my := c.ScreenToWorld(s[0], s[1])
		if first {
			minMX, maxMX, minMY, maxMY = mx, mx, my, my
			first = false
			continue
		}
		minMX, maxMX = math.Min(minMX, mx), math.Max(maxMX, mx)
		minMY, maxMY = math.Min(minMY, my), math.Max(maxMY, my)
	}

	// Over-approximate with a margin; mercator space wraps at [0,1] so
	// clamp rather than wrap.
	const margin = 0.02
	minMX, maxMX = clampf(minMX-margin, 0, 1), clampf(maxMX+margin, 0, 1)
	minMY, maxMY = clampf(minMY-margin, 0, 1), clampf(maxMY+margin, 0, 1)

	minLng, maxLat = mercatorToLngLat(minMX, minMY)
	maxLng, minLat = mercatorToLngLat(maxMX, maxMY)
	return minLng, minLat, maxLng, maxLat
}

// mercatorToLngLat converts a global mercator unit-square point (as used
// by tilecoord.Coord.ToMercator) back to lng/lat.
func mercatorToLngLat(mx, my float64) (lng, lat float64) {
	return mercator.ToLngLat(mercator.Point{X: mx, Y: my})
}
