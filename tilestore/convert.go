package tilestore

import (
	"log"

	"github.com/tilerender/vectormap/geom"
	"github.com/tilerender/vectormap/mvt"
	"github.com/tilerender/vectormap/tiledata"
)

// convertFeatures groups raw MVT features by (layer, kind) and runs each
// group through the geometry converter (C5): ring cleaning, polygon
// tessellation, line segment expansion, point pass-through. Failures are
// logged and skipped per spec.md §7 — a malformed ring or a tessellator
// failure never aborts the whole tile.
func convertFeatures(features []mvt.RawFeature) []tiledata.FeatureSet {
	type groupKey struct {
		layer string
		kind  tiledata.GeomKind
	}
	groups := make(map[groupKey][]geom.Ring)
	order := make([]groupKey, 0, 8)

	for _, f := range features {
		key := groupKey{layer: f.Layer, kind: f.Kind}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], f.Rings...)
	}

	sets := make([]tiledata.FeatureSet, 0, len(order))
	for _, key := range order {
		fs, ok := convertGroup(key.layer, key.kind, groups[key])
		if ok {
			sets = append(sets, fs)
		}
	}
	return sets
}

func convertGroup(layer string, kind tiledata.GeomKind, rings []geom.Ring) (tiledata.FeatureSet, bool) {
	switch kind {
	case tiledata.KindPolygon:
		return convertPolygons(layer, rings)
	case tiledata.KindLine:
		return convertLines(layer, rings)
	case tiledata.KindPoint:
		return convertPoints(layer, rings)
	default:
		return tiledata.FeatureSet{}, false
	}
}

func convertPolygons(layer string, rings []geom.Ring) (tiledata.FeatureSet, bool) {
	cleaned := make([]geom.Ring, 0, len(rings))
	for _, r := range rings {
		if c, ok := geom.CleanRing(r); ok {
			cleaned = append(cleaned, c)
		}
	}
	if len(cleaned) == 0 {
		return tiledata.FeatureSet{}, false
	}

	verts, indices, err := geom.Tessellate(cleaned, nil)
	if err != nil {
		logf("tilestore: tessellation failed for layer %q: %v", layer, err)
		return tiledata.FeatureSet{}, false
	}
	if len(verts) == 0 {
		return tiledata.FeatureSet{}, false
	}

	return tiledata.FeatureSet{
		Layer:    layer,
		Kind:     tiledata.KindPolygon,
		Vertices: toFloat32Pairs(verts),
		Indices:  indices,
	}, true
}

func convertLines(layer string, rings []geom.Ring) (tiledata.FeatureSet, bool) {
	var vertices [][2]float32
	var indices []uint32

	for _, r := range rings {
		cleaned, ok := geom.CleanLine(r)
		if !ok {
			continue
		}
		verts, idx := geom.BuildLine(cleaned)
		base := uint32(len(vertices))
		vertices = append(vertices, toFloat32Pairs(verts)...)
		for _, i := range idx {
			indices = append(indices, base+i)
		}
	}
	if len(vertices) == 0 {
		return tiledata.FeatureSet{}, false
	}
	return tiledata.FeatureSet{Layer: layer, Kind: tiledata.KindLine, Vertices: vertices, Indices: indices}, true
}

func convertPoints(layer string, rings []geom.Ring) (tiledata.FeatureSet, bool) {
	var vertices [][2]float32
	for _, r := range rings {
		if len(r) == 0 {
			continue
		}
		vertices = append(vertices, [2]float32{float32(r[0].X), float32(r[0].Y)})
	}
	if len(vertices) == 0 {
		return tiledata.FeatureSet{}, false
	}
	return tiledata.FeatureSet{Layer: layer, Kind: tiledata.KindPoint, Vertices: vertices}, true
}

func toFloat32Pairs(pts []geom.Point) [][2]float32 {
	out := make([][2]float32, len(pts))
	for i, p := range pts {
		out[i] = [2]float32{float32(p.X), float32(p.Y)}
	}
	return out
}

var debugEnabled bool

// SetDebug toggles package-wide diagnostic logging for fetch errors,
// malformed tiles, and tessellator failures (all "logged, not fatal" per
// spec.md §7). Rings dropped by ring cleaning are skipped without a log
// line. Mirrors the teacher's package-level debug flag
// (willow's globalDebug in atlas.go) rather than pulling in a structured
// logging library.
func SetDebug(enabled bool) {
	debugEnabled = enabled
}

func logf(format string, args ...any) {
	if debugEnabled {
		log.Printf(format, args...)
	}
}
