package ebitenhost

import (
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	vectormap "github.com/tilerender/vectormap"
)

// Game implements ebiten.Game, translating mouse drag/wheel/keyboard
// input into Map calls and submitting the resulting draw calls and label
// geometry each frame.
type Game struct {
	Map *vectormap.Map

	// AtlasImage backs the label pass's glyph UVs; nil disables labels.
	AtlasImage *ebiten.Image

	ShowDebugOverlay bool

	// Debug enables per-frame timing lines on stderr (see frameStats).
	Debug bool
	// ScreenshotDir is where Screenshot-queued PNGs are written; defaults
	// to "screenshots".
	ScreenshotDir string

	w, h            int
	dragging        bool
	lastMX, lastMY  int
	screenshotQueue []string
}

// NewGame wraps a Map in an ebiten.Game, sizing the viewport to w x h.
func NewGame(m *vectormap.Map, w, h int) *Game {
	return &Game{Map: m, w: w, h: h}
}

func (g *Game) Update() error {
	mx, my := ebiten.CursorPosition()

	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if g.dragging {
			g.Map.Pan(float64(mx-g.lastMX), float64(my-g.lastMY))
		}
		g.dragging = true
		g.lastMX, g.lastMY = mx, my
	} else {
		g.dragging = false
	}

	_, wheelY := ebiten.Wheel()
	if wheelY != 0 {
		g.Map.ZoomAt(wheelY*0.25, float64(mx), float64(my))
	}

	var deltaBearing, deltaPitch float64
	if ebiten.IsKeyPressed(ebiten.KeyQ) {
		deltaBearing -= 1.5
	}
	if ebiten.IsKeyPressed(ebiten.KeyE) {
		deltaBearing += 1.5
	}
	if ebiten.IsKeyPressed(ebiten.KeyW) {
		deltaPitch -= 1
	}
	if ebiten.IsKeyPressed(ebiten.KeyS) {
		deltaPitch += 1
	}
	if deltaBearing != 0 || deltaPitch != 0 {
		g.Map.RotateAndTilt(deltaBearing, deltaPitch)
	}

	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 18, G: 18, B: 22, A: 255})

	renderStart := time.Now()
	draws, labels := g.Map.Render()
	renderTime := time.Since(renderStart)

	submitStart := time.Now()
	SubmitDrawCalls(screen, draws, g.Map.Camera())
	if g.AtlasImage != nil {
		SubmitLabels(screen, g.AtlasImage, labels)
	}
	submitTime := time.Since(submitStart)

	g.debugLog(frameStats{
		renderTime: renderTime, submitTime: submitTime,
		drawCalls: len(draws), labelVerts: len(labels.Vertices),
	})

	if g.ShowDebugOverlay {
		ebitenutil.DebugPrint(screen, "drag to pan, wheel to zoom, q/e bearing, w/s pitch")
	}

	g.flushScreenshots(screen)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if g.w == 0 || g.h == 0 {
		return outsideWidth, outsideHeight
	}
	return g.w, g.h
}
