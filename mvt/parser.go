// Package mvt decodes a Mapbox Vector Tile payload into raw per-layer
// geometry rings and point labels, in tile-local [0,1] coordinates. It
// hand-rolls the protobuf traversal (via package pbf) rather than using a
// generated-code protobuf runtime, because the decode itself — layer/
// feature/geometry-command-stream parsing — is the deliverable this
// package exists to build (see SPEC_FULL.md §3).
package mvt

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/tilerender/vectormap/geom"
	"github.com/tilerender/vectormap/pbf"
	"github.com/tilerender/vectormap/tiledata"
)

// gzipMagic is the two-byte gzip header MVT payloads are optionally
// wrapped in.
var gzipMagic = [2]byte{0x1F, 0x8B}

const defaultExtent = 4096

// labelLayers maps a layer name to the attribute keys (checked in order)
// that hold display text for a point label in that layer, and the fixed
// priority used when no rank attribute is present.
var labelLayers = map[string]struct {
	textKeys    []string
	rankKey     string
	basePriority float64
}{
	"place":       {textKeys: []string{"name"}, rankKey: "scalerank", basePriority: 100},
	"housenumber": {textKeys: []string{"housenumber", "name"}, rankKey: "", basePriority: 10},
}

// Layer is one decoded MVT layer: its raw features, not yet tessellated.
type Layer struct {
	Name     string
	Extent   uint32
	Features []RawFeature
}

// RawFeature is a single decoded feature: rings in tile-local [0,1]
// space, ready for geom.CleanRing/Tessellate/BuildLine.
type RawFeature struct {
	Layer string
	Kind  tiledata.GeomKind
	Rings []geom.Ring
	Tags  map[string]any
}

// Result is everything Parse produces for one tile payload.
type Result struct {
	Features []RawFeature
	Labels   []tiledata.LabelInfo
}

// Parse decodes an MVT tile payload (gunzipping first if it starts with
// the gzip magic bytes). Only layers present in allowlist are retained;
// others are skipped without parsing their features. A malformed varint
// or truncated length-delimited field aborts the whole parse — the caller
// should treat the tile as Failed.
func Parse(data []byte, allowlist map[string]bool) (Result, error) {
	if len(data) >= 2 && data[0] == gzipMagic[0] && data[1] == gzipMagic[1] {
		decompressed, err := gunzip(data)
		if err != nil {
			return Result{}, fmt.Errorf("mvt: decompress: %w", err)
		}
		data = decompressed
	}

	r := pbf.NewReader(data)
	var result Result

	for {
		tag, wt, ok, err := r.NextField()
		if err != nil {
			return Result{}, fmt.Errorf("mvt: %w", err)
		}
		if !ok {
			break
		}
		if tag != 3 { // Tile.layers = 3
			if err := r.Skip(wt); err != nil {
				return Result{}, fmt.Errorf("mvt: %w", err)
			}
			continue
		}

		layerBytes, err := r.ReadBytes()
		if err != nil {
			return Result{}, fmt.Errorf("mvt: %w", err)
		}

		name, err := peekLayerName(layerBytes)
		if err != nil {
			return Result{}, fmt.Errorf("mvt: %w", err)
		}
		if allowlist != nil && !allowlist[name] {
			continue
		}

		layer, err := parseLayer(layerBytes)
		if err != nil {
			return Result{}, fmt.Errorf("mvt: layer %q: %w", name, err)
		}

		for _, f := range layer.Features {
			result.Features = append(result.Features, f)
			if label, ok := extractLabel(layer.Name, layer.Extent, f); ok {
				result.Labels = append(result.Labels, label)
			}
		}
	}

	return result, nil
}

// peekLayerName scans a layer's encoded bytes just far enough to recover
// its name (tag 1), without parsing features. Used to honor the layer
// allowlist before doing any heavier work.
func peekLayerName(layerBytes []byte) (string, error) {
	r := pbf.NewReader(layerBytes)
	for {
		tag, wt, ok, err := r.NextField()
		if err != nil {
			return "", err
		}
		if !ok {
			return "", nil
		}
		if tag == 1 {
			return r.ReadString()
		}
		if err := r.Skip(wt); err != nil {
			return "", err
		}
	}
}

func parseLayer(layerBytes []byte) (Layer, error) {
	r := pbf.NewReader(layerBytes)

	layer := Layer{Extent: defaultExtent}
	var keys []string
	var values []any
	var wireFeatures []featureWire

	for {
		tag, wt, ok, err := r.NextField()
		if err != nil {
			return Layer{}, err
		}
		if !ok {
			break
		}
		switch tag {
		case 1: // name
			layer.Name, err = r.ReadString()
		case 2: // features
			fb, ferr := r.ReadBytes()
			if ferr != nil {
				err = ferr
				break
			}
			wf, ferr := parseFeatureWire(fb)
			if ferr != nil {
				err = ferr
				break
			}
			wireFeatures = append(wireFeatures, wf)
		case 3: // keys
			var k string
			k, err = r.ReadString()
			keys = append(keys, k)
		case 4: // values
			vb, verr := r.ReadBytes()
			if verr != nil {
				err = verr
				break
			}
			v, verr := decodeValue(vb)
			if verr != nil {
				err = verr
				break
			}
			values = append(values, v)
		case 5: // extent
			var e uint64
			e, err = r.ReadVarint()
			layer.Extent = uint32(e)
		default:
			err = r.Skip(wt)
		}
		if err != nil {
			return Layer{}, err
		}
	}

	for _, wf := range wireFeatures {
		kind, ok := geomTypeToKind(wf.typ)
		if !ok {
			continue // unknown geometry type: skip feature, not fatal
		}
		rings := decodeGeometry(wf.geom)
		normalized := normalizeRings(rings, layer.Extent)

		result := RawFeature{
			Layer: layer.Name,
			Kind:  kind,
			Rings: normalized,
			Tags:  tagsToMap(wf.tags, keys, values),
		}
		layer.Features = append(layer.Features, result)
	}

	return layer, nil
}

type featureWire struct {
	tags []uint32
	typ  uint32
	geom []uint32
}

func parseFeatureWire(data []byte) (featureWire, error) {
	r := pbf.NewReader(data)
	var fw featureWire

	for {
		tag, wt, ok, err := r.NextField()
		if err != nil {
			return fw, err
		}
		if !ok {
			return fw, nil
		}
		switch tag {
		case 2: // tags, packed uint32
			vals, err := readPackedVarints(r, wt)
			if err != nil {
				return fw, err
			}
			fw.tags = vals
		case 3: // type
			v, err := r.ReadVarint()
			if err != nil {
				return fw, err
			}
			fw.typ = uint32(v)
		case 4: // geometry, packed uint32
			vals, err := readPackedVarints(r, wt)
			if err != nil {
				return fw, err
			}
			fw.geom = vals
		default:
			if err := r.Skip(wt); err != nil {
				return fw, err
			}
		}
	}
}

// readPackedVarints reads either a packed (length-delimited) or
// non-packed (repeated varint field) encoding of a repeated uint32 field.
func readPackedVarints(r *pbf.Reader, wt pbf.WireType) ([]uint32, error) {
	if wt == pbf.WireBytes {
		b, err := r.ReadBytes()
		if err != nil {
			return nil, err
		}
		sub := pbf.NewReader(b)
		var out []uint32
		for sub.Len() > 0 {
			v, err := sub.ReadVarint()
			if err != nil {
				return nil, err
			}
			out = append(out, uint32(v))
		}
		return out, nil
	}
	v, err := r.ReadVarint()
	if err != nil {
		return nil, err
	}
	return []uint32{uint32(v)}, nil
}

func geomTypeToKind(t uint32) (tiledata.GeomKind, bool) {
	switch t {
	case 1:
		return tiledata.KindPoint, true
	case 2:
		return tiledata.KindLine, true
	case 3:
		return tiledata.KindPolygon, true
	default:
		return 0, false
	}
}

// normalizeRings divides tile-pixel cursor coordinates by extent,
// yielding tile-local [0,1] coordinates.
func normalizeRings(rings []geom.Ring, extent uint32) []geom.Ring {
	if extent == 0 {
		extent = defaultExtent
	}
	e := float64(extent)
	out := make([]geom.Ring, len(rings))
	for i, ring := range rings {
		normalized := make(geom.Ring, len(ring))
		for j, p := range ring {
			normalized[j] = geom.Point{X: p.X / e, Y: p.Y / e}
		}
		out[i] = normalized
	}
	return out
}

func tagsToMap(tags []uint32, keys []string, values []any) map[string]any {
	if len(tags) == 0 {
		return nil
	}
	out := make(map[string]any, len(tags)/2)
	for i := 0; i+1 < len(tags); i += 2 {
		ki, vi := int(tags[i]), int(tags[i+1])
		if ki < 0 || ki >= len(keys) || vi < 0 || vi >= len(values) {
			continue
		}
		out[keys[ki]] = values[vi]
	}
	return out
}

// extractLabel builds a LabelInfo for point features in a designated
// label layer that carry a name/housenumber attribute (spec.md §4.4).
func extractLabel(layerName string, extent uint32, f RawFeature) (tiledata.LabelInfo, bool) {
	if f.Kind != tiledata.KindPoint || len(f.Rings) == 0 || len(f.Rings[0]) == 0 {
		return tiledata.LabelInfo{}, false
	}
	cfg, ok := labelLayers[layerName]
	if !ok {
		return tiledata.LabelInfo{}, false
	}

	var text string
	for _, key := range cfg.textKeys {
		if v, ok := f.Tags[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				text = s
				break
			}
		}
	}
	if text == "" {
		return tiledata.LabelInfo{}, false
	}

	priority := cfg.basePriority
	if cfg.rankKey != "" {
		if v, ok := f.Tags[cfg.rankKey]; ok {
			if rank, ok := numericValue(v); ok {
				// Lower rank number means more important in most place
				// hierarchies; invert so higher priority sorts first.
				priority = cfg.basePriority - rank
			}
		}
	}

	p := f.Rings[0][0]
	return tiledata.LabelInfo{
		Text:     text,
		X:        p.X,
		Y:        p.Y,
		Layer:    layerName,
		Priority: priority,
	}, true
}

func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func gunzip(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
