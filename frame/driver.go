// Package frame implements the frame driver (spec.md C10): the main loop
// that turns input events into Camera mutations and debounces how
// quickly those mutations trigger tile-store (re)planning. Panning and
// large zoom changes plan immediately; bearing and pitch changes plan
// only after a 500ms quiet period, since rotating/tilting shifts tile
// bboxes far less than translating.
package frame

import (
	"context"
	"math"
	"time"

	"github.com/tilerender/vectormap/camera"
	"github.com/tilerender/vectormap/tilecoord"
)

// State is the debounce state machine's current stage.
type State uint8

const (
	StateIdle State = iota
	StateInteracting
	StateDebouncing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInteracting:
		return "interacting"
	case StateDebouncing:
		return "debouncing"
	default:
		return "unknown"
	}
}

const (
	debounceWindow    = 500 * time.Millisecond
	zoomPlanThreshold = 0.5
)

// Planner is the subset of tilestore.Store the driver depends on,
// kept as an interface so the driver's debounce logic is testable
// without spinning up a real store.
type Planner interface {
	Plan(ctx context.Context, viewport tilecoord.BBox, z, buffer int)
}

// Driver owns the Camera and drives tile-store planning in response to
// camera mutations. It is the exclusive mutator of Camera (spec.md §3).
type Driver struct {
	Camera *camera.Camera
	Store  Planner

	TileBuffer  int
	MaxTileZoom int

	state    State
	deadline time.Time
	pending  bool

	lastPlanMX, lastPlanMY, lastPlanZoom float64
	havePlanned                          bool

	planCount int // test/diagnostic hook: number of Plan calls issued
}

func New(cam *camera.Camera, store Planner, tileBuffer, maxTileZoom int) *Driver {
	return &Driver{Camera: cam, Store: store, TileBuffer: tileBuffer, MaxTileZoom: maxTileZoom}
}

// State returns the current debounce stage.
func (d *Driver) State() State { return d.state }

// PlanCount returns how many times Plan has actually been dispatched,
// for tests asserting the debounce scenario's "0 during tumble, 1 after".
func (d *Driver) PlanCount() int { return d.planCount }

// OnPan applies a pixel-space pan and plans immediately.
func (d *Driver) OnPan(dxPixels, dyPixels float64, now time.Time) {
	d.Camera.Pan(dxPixels, dyPixels)
	d.cancelDebounce()
	d.state = StateInteracting
	d.planNow(now)
	d.state = StateIdle
}

// OnZoom applies an anchored zoom. It plans immediately if the zoom
// changed by more than zoomPlanThreshold levels or the center moved by
// more than half a tile width since the last plan.
func (d *Driver) OnZoom(delta, sx, sy float64, now time.Time) {
	d.Camera.ZoomAt(delta, sx, sy)
	d.cancelDebounce()
	d.state = StateInteracting

	if !d.havePlanned || d.qualifiesForImmediatePlan() {
		d.planNow(now)
	}
	d.state = StateIdle
}

func (d *Driver) qualifiesForImmediatePlan() bool {
	zoomDelta := math.Abs(d.Camera.Zoom - d.lastPlanZoom)
	if zoomDelta > zoomPlanThreshold {
		return true
	}
	halfTile := 0.5 / math.Exp2(math.Floor(d.Camera.Zoom))
	dist := math.Hypot(d.Camera.MX-d.lastPlanMX, d.Camera.MY-d.lastPlanMY)
	return dist > halfTile
}

// OnRotateOrPitch applies a bearing and/or pitch delta and defers
// planning by the debounce window; any further call before the window
// elapses resets the timer (Tick only fires once the quiet period is
// observed).
func (d *Driver) OnRotateOrPitch(deltaBearing, deltaPitch float64, now time.Time) {
	d.state = StateInteracting
	if deltaBearing != 0 {
		d.Camera.Rotate(deltaBearing)
	}
	if deltaPitch != 0 {
		d.Camera.Tilt(deltaPitch)
	}
	d.pending = true
	d.deadline = now.Add(debounceWindow)
	d.state = StateDebouncing
}

// Tick must be called once per frame with the current time; it fires the
// deferred plan once the debounce window has elapsed with no further
// rotate/pitch events.
func (d *Driver) Tick(now time.Time) {
	if !d.pending {
		return
	}
	if now.Before(d.deadline) {
		return
	}
	d.pending = false
	d.planNow(now)
	d.state = StateIdle
}

// PlanNow issues an immediate Plan dispatch for the camera's current
// viewport, bypassing the debounce state machine entirely. The host calls
// this once, right after construction, to populate the initial viewport:
// OnPan/OnZoom/OnRotateOrPitch all require an actual input event to reach
// planNow, so without this a freshly built Driver never fetches anything
// until the user moves the map.
func (d *Driver) PlanNow(now time.Time) {
	d.planNow(now)
}

func (d *Driver) cancelDebounce() {
	d.pending = false
}

func (d *Driver) planNow(now time.Time) {
	minLng, minLat, maxLng, maxLat := d.Camera.Bounds()
	bbox := tilecoord.BBox{MinLng: minLng, MinLat: minLat, MaxLng: maxLng, MaxLat: maxLat}

	z := int(math.Floor(d.Camera.Zoom))
	if z > d.MaxTileZoom {
		z = d.MaxTileZoom
	}
	if z < 0 {
		z = 0
	}

	d.Store.Plan(context.Background(), bbox, z, d.TileBuffer)
	d.planCount++

	d.lastPlanMX, d.lastPlanMY, d.lastPlanZoom = d.Camera.MX, d.Camera.MY, d.Camera.Zoom
	d.havePlanned = true
}
