// Command vectormapd is the demo host binary: it wires an HTTP tile
// fetcher and an Ebitengine window around the vectormap core, and offers
// a headless benchmark mode for exercising the fetch/decode/batch
// pipeline without opening a window.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/cobra"

	vectormap "github.com/tilerender/vectormap"
	"github.com/tilerender/vectormap/host/ebitenhost"
	"github.com/tilerender/vectormap/mercator"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var debug bool

	root := &cobra.Command{
		Use:   "vectormapd",
		Short: "vectormapd renders a live vector-tile map",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			vectormap.SetDebug(debug)
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable verbose tile/batch diagnostics")

	root.AddCommand(newServeCmd(), newBenchCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var (
		tileURL           string
		width, height     int
		lon, lat          float64
		zoom               float64
		showDebugOverlay  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "open a window and render the map interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			atlasImage, atlas := ebitenhost.BuildASCIIAtlasImage(16)

			m, err := vectormap.NewMap(vectormap.Options{
				Fetcher:   ebitenhost.NewHTTPFetcher(tileURL),
				Clock:     ebitenhost.SystemClock{},
				ViewportW: float64(width),
				ViewportH: float64(height),
				MinZoom:   0,
				MaxZoom:   18,
				Atlas:     atlas,
			})
			if err != nil {
				return fmt.Errorf("vectormapd: %w", err)
			}

			cam := m.Camera()
			cam.MX, cam.MY = lonLatToCenter(lon, lat)
			cam.Zoom = zoom

			game := ebitenhost.NewGame(m, width, height)
			game.AtlasImage = atlasImage
			game.ShowDebugOverlay = showDebugOverlay

			ebiten.SetWindowSize(width, height)
			ebiten.SetWindowTitle("vectormapd")
			return ebiten.RunGame(game)
		},
	}

	cmd.Flags().StringVar(&tileURL, "tile-url", "https://example.com/tiles/{z}/{x}/{y}.mvt", "tile server URL template")
	cmd.Flags().IntVar(&width, "width", 1024, "window width")
	cmd.Flags().IntVar(&height, "height", 768, "window height")
	cmd.Flags().Float64Var(&lon, "lon", 0, "initial center longitude")
	cmd.Flags().Float64Var(&lat, "lat", 0, "initial center latitude")
	cmd.Flags().Float64Var(&zoom, "zoom", 2, "initial zoom level")
	cmd.Flags().BoolVar(&showDebugOverlay, "overlay", true, "show the input-help debug overlay")
	return cmd
}

func newBenchCmd() *cobra.Command {
	var (
		tileURL  string
		z        int
		frames   int
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "headlessly plan/fetch/batch a fixed viewport and report timing",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := vectormap.NewMap(vectormap.Options{
				Fetcher: ebitenhost.NewHTTPFetcher(tileURL),
				Clock:   ebitenhost.SystemClock{},
			})
			if err != nil {
				return fmt.Errorf("vectormapd: %w", err)
			}
			m.Camera().Zoom = float64(z)

			start := time.Now()
			var totalDraws, totalLabelVerts int
			for i := 0; i < frames; i++ {
				draws, labels := m.Render()
				totalDraws += len(draws)
				totalLabelVerts += len(labels.Vertices)
				time.Sleep(16 * time.Millisecond)
			}
			elapsed := time.Since(start)

			fmt.Printf("frames=%d elapsed=%s avg_draws=%.1f avg_label_verts=%.1f\n",
				frames, elapsed, float64(totalDraws)/float64(frames), float64(totalLabelVerts)/float64(frames))
			return nil
		},
	}

	cmd.Flags().StringVar(&tileURL, "tile-url", "https://example.com/tiles/{z}/{x}/{y}.mvt", "tile server URL template")
	cmd.Flags().IntVar(&z, "zoom", 10, "zoom level to benchmark at")
	cmd.Flags().IntVar(&frames, "frames", 60, "number of frames to simulate")
	return cmd
}

// lonLatToCenter is a thin convenience so serve's --lon/--lat flags speak
// geographic coordinates; it reuses the core's lng/lat to mercator
// projection.
func lonLatToCenter(lon, lat float64) (mx, my float64) {
	p := mercator.FromLngLat(lon, lat)
	return p.X, p.Y
}
