package ebitenhost

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// frameStats holds per-frame timing and draw-call metrics, printed to
// stderr when Game.Debug is set. Adapted from the teacher's debugStats
// (debug.go), which timed scene traversal/sort/batch/submit; here the
// phases are Map.Render's tile resolution+batch+label build and this
// binding's GPU submission.
type frameStats struct {
	renderTime time.Duration
	submitTime time.Duration
	drawCalls  int
	labelVerts int
}

func (g *Game) debugLog(stats frameStats) {
	if !g.Debug {
		return
	}
	total := stats.renderTime + stats.submitTime
	fmt.Fprintf(os.Stderr, "[vectormapd] render: %v | submit: %v | total: %v | draw calls: %d | label verts: %d\n",
		stats.renderTime, stats.submitTime, total, stats.drawCalls, stats.labelVerts)
}

// Screenshot queues a labeled screenshot to be captured at the end of the
// current Draw call, written as a timestamped PNG under ScreenshotDir.
func (g *Game) Screenshot(label string) {
	g.screenshotQueue = append(g.screenshotQueue, label)
}

func (g *Game) flushScreenshots(screen *ebiten.Image) {
	if len(g.screenshotQueue) == 0 {
		return
	}
	dir := g.ScreenshotDir
	if dir == "" {
		dir = "screenshots"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "[vectormapd] screenshot: mkdir %s: %v\n", dir, err)
		g.screenshotQueue = g.screenshotQueue[:0]
		return
	}

	bounds := screen.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	pixels := make([]byte, 4*w*h)
	screen.ReadPixels(pixels)

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(pixels); i += 4 {
		r, gg, b, a := pixels[i], pixels[i+1], pixels[i+2], pixels[i+3]
		if a > 0 && a < 255 {
			r = uint8(min(int(r)*255/int(a), 255))
			gg = uint8(min(int(gg)*255/int(a), 255))
			b = uint8(min(int(b)*255/int(a), 255))
		}
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = r, gg, b, a
	}

	stamp := time.Now().Format("20060102_150405")
	for _, label := range g.screenshotQueue {
		path := fmt.Sprintf("%s/%s_%s.png", dir, stamp, sanitizeLabel(label))
		if err := writePNG(path, img); err != nil {
			fmt.Fprintf(os.Stderr, "[vectormapd] screenshot: %v\n", err)
		}
	}
	g.screenshotQueue = g.screenshotQueue[:0]
}

func writePNG(path string, img *image.NRGBA) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
