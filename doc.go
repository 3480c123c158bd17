// Package vectormap renders Mapbox Vector Tile data as a real-time,
// pannable, zoomable, rotatable/pitchable map: mercator projection,
// slippy-map tile addressing, protobuf/MVT decoding, polygon
// tessellation, a tile cache with bounded-concurrency fetch, a
// double-precision camera, a layer batcher, and a label engine with
// collision avoidance.
//
// # Quick start
//
//	m, err := vectormap.NewMap(vectormap.Options{
//		Fetcher:   myFetcher, // implements tilestore.Fetcher
//		ViewportW: 1024, ViewportH: 768,
//		MinZoom: 0, MaxZoom: 18,
//	})
//	// on input:
//	m.Pan(dx, dy)
//	m.ZoomAt(delta, sx, sy)
//	// once per frame:
//	draws, labels := m.Render()
//
// Render returns draw calls and label geometry borrowed for one frame; a
// host binds these to a GPU context (see package host/ebitenhost for the
// Ebitengine binding).
package vectormap
