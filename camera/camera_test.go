package camera

import (
	"math"
	"testing"

	"github.com/tilerender/vectormap/mercator"
)

func TestZoomAtKeepsAnchorInvariant(t *testing.T) {
	cam := New(1024, 768, 0, 20)
	p := mercator.FromLngLat(0, 0)
	cam.MX, cam.MY = p.X, p.Y
	cam.Zoom = 5
	cam.markDirty()

	beforeX, beforeY := cam.ScreenToWorld(100, 200)

	cam.ZoomAt(1.0, 100, 200)

	sx, sy := cam.WorldToScreen(beforeX, beforeY)
	if math.Abs(sx-100) > 0.5 || math.Abs(sy-200) > 0.5 {
		t.Errorf("anchor drifted to (%.3f,%.3f), want within 0.5px of (100,200)", sx, sy)
	}
}

func TestZoomClampsToRange(t *testing.T) {
	cam := New(800, 600, 2, 10)
	cam.Zoom = 9.5
	cam.markDirty()
	cam.ZoomAt(5, 400, 300)
	if cam.Zoom != 10 {
		t.Errorf("Zoom = %v, want clamped to 10", cam.Zoom)
	}
}

func TestPanMovesCenterOppositeDragDirection(t *testing.T) {
	cam := New(800, 600, 0, 20)
	cam.MX, cam.MY = 0.5, 0.5
	startX, startY := cam.MX, cam.MY

	cam.Pan(100, 50)

	if cam.MX >= startX {
		t.Errorf("MX = %v, want less than %v after positive dx pan", cam.MX, startX)
	}
	if cam.MY >= startY {
		t.Errorf("MY = %v, want less than %v after positive dy pan", cam.MY, startY)
	}
}

func TestScreenToWorldRoundTripsThroughWorldToScreen(t *testing.T) {
	cam := New(1024, 768, 0, 20)
	cam.MX, cam.MY = 0.5, 0.5
	cam.Zoom = 8
	cam.markDirty()

	mx, my := cam.ScreenToWorld(512, 384)
	sx, sy := cam.WorldToScreen(mx, my)
	if math.Abs(sx-512) > 0.01 || math.Abs(sy-384) > 0.01 {
		t.Errorf("round trip = (%.4f,%.4f), want (512,384)", sx, sy)
	}
}

func TestBoundsOverApproximatesAroundCenter(t *testing.T) {
	cam := New(800, 600, 0, 20)
	cam.MX, cam.MY = 0.5, 0.5
	cam.Zoom = 4
	cam.markDirty()

	minLng, minLat, maxLng, maxLat := cam.Bounds()
	if minLng >= 0 || maxLng <= 0 {
		t.Errorf("bounds (%v,%v) should straddle lng=0", minLng, maxLng)
	}
	if minLat >= 0 || maxLat <= 0 {
		t.Errorf("bounds (%v,%v) should straddle lat=0", minLat, maxLat)
	}
}

func TestBoundsStaysFiniteForOverheadView(t *testing.T) {
	cam := New(800, 600, 0, 20)
	cam.Pitch = 0 // overhead view never degenerates; this asserts bounds stays finite
	cam.markDirty()

	minLng, minLat, maxLng, maxLat := cam.Bounds()
	if math.IsNaN(minLng) || math.IsInf(minLng, 0) || math.IsNaN(maxLat) || math.IsInf(maxLat, 0) {
		t.Errorf("bounds must stay finite, got (%v,%v,%v,%v)", minLng, minLat, maxLng, maxLat)
	}
}

func TestRelativeXYMatchesFullWorldToScreen(t *testing.T) {
	cam := New(1024, 768, 0, 20)
	cam.MX, cam.MY = 0.5, 0.5
	cam.Zoom = 8
	cam.markDirty()

	mx, my := 0.501, 0.503
	wantSX, wantSY := cam.WorldToScreen(mx, my)

	rx, ry := cam.RelativeXY(mx, my)
	vp := cam.ViewProjectionRelative()
	clip := mat4(vp).transformRow([4]float64{rx, ry, 0, 1})
	gotSX := (clip[0]/clip[3] + 1) / 2 * cam.ViewportW
	gotSY := (1 - clip[1]/clip[3]) / 2 * cam.ViewportH

	if math.Abs(gotSX-wantSX) > 0.01 || math.Abs(gotSY-wantSY) > 0.01 {
		t.Errorf("relative-path screen = (%.4f,%.4f), want (%.4f,%.4f)", gotSX, gotSY, wantSX, wantSY)
	}
}

func TestBearingRotationDoesNotChangeWorldSize(t *testing.T) {
	cam := New(800, 600, 0, 20)
	cam.Zoom = 6
	before := cam.worldSize()
	cam.Bearing = 45
	cam.markDirty()
	if cam.worldSize() != before {
		t.Error("worldSize must depend only on zoom, not bearing")
	}
}
