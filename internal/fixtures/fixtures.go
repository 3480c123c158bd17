// Package fixtures builds synthetic MVT tile payloads for tests, using
// paulmach/orb to describe geometry in tile-local pixel space instead of
// hand-writing command-stream integers. It targets the same wire format
// mvt.Parse decodes: encoding here is independent of, not shared with,
// the hand-rolled protobuf encoder under test in package mvt.
package fixtures

import (
	"strconv"

	"github.com/paulmach/orb"
)

const (
	geomTypePoint   = 1
	geomTypeLine    = 2
	geomTypePolygon = 3

	cmdMoveTo    = 1
	cmdLineTo    = 2
	cmdClosePath = 7
)

// Layer describes one MVT layer's features for Tile to encode.
type Layer struct {
	Name     string
	Extent   uint32
	Polygons []orb.Ring
	Lines    []orb.LineString
	Points   []orb.Point
	// Labels, when non-empty, are encoded as point features tagged
	// name=<string> in an additional feature per label (§4.9's label source).
	Labels []Label
}

// Label is a named point feature in a "place" or "housenumber" layer (the
// only layer names mvt.Parse recognizes as label sources). ScaleRank, when
// non-zero, is encoded as the "scalerank" attribute the parser uses to
// bias placement priority; zero leaves it unset.
type Label struct {
	Text      string
	X, Y      float64
	ScaleRank int64
}

// Tile encodes a full MVT tile payload (uncompressed) from the given
// layers, using extent 4096 as the default when a layer leaves Extent
// zero.
func Tile(layers ...Layer) []byte {
	var buf []byte
	for _, l := range layers {
		buf = appendBytes(buf, 3, encodeLayer(l))
	}
	return buf
}

func encodeLayer(l Layer) []byte {
	extent := l.Extent
	if extent == 0 {
		extent = 4096
	}

	var buf []byte
	buf = appendString(buf, 1, l.Name)

	// Key table: "name" at index 0, "scalerank" at index 1 (only emitted
	// if some label actually uses it). Value table dedups by encoded form.
	keys := []string{"name"}
	valueIndex := map[string]uint32{}
	var values [][]byte

	internValue := func(encoded []byte, dedupKey string) uint32 {
		if idx, ok := valueIndex[dedupKey]; ok {
			return idx
		}
		idx := uint32(len(values))
		valueIndex[dedupKey] = idx
		values = append(values, encoded)
		return idx
	}

	scalerankKeyIdx := uint32(0)
	haveScaleRank := false
	for _, label := range l.Labels {
		if label.ScaleRank != 0 && !haveScaleRank {
			keys = append(keys, "scalerank")
			scalerankKeyIdx = uint32(len(keys) - 1)
			haveScaleRank = true
		}
	}

	for _, ring := range l.Polygons {
		cmds := encodeRing(ring, extent)
		buf = appendBytes(buf, 2, encodeFeature(nil, geomTypePolygon, cmds))
	}
	for _, line := range l.Lines {
		cmds := encodeLine(line, extent)
		buf = appendBytes(buf, 2, encodeFeature(nil, geomTypeLine, cmds))
	}
	for _, pt := range l.Points {
		cmds := encodePoint(pt, extent)
		buf = appendBytes(buf, 2, encodeFeature(nil, geomTypePoint, cmds))
	}
	for _, label := range l.Labels {
		nameValIdx := internValue(encodeStringValue(label.Text), "s:"+label.Text)
		cmds := encodePoint(orb.Point{label.X, label.Y}, extent)
		tags := []uint32{0, nameValIdx}
		if label.ScaleRank != 0 {
			rankValIdx := internValue(encodeIntValue(label.ScaleRank), "i:"+strconv.FormatInt(label.ScaleRank, 10))
			tags = append(tags, scalerankKeyIdx, rankValIdx)
		}
		buf = appendBytes(buf, 2, encodeFeature(tags, geomTypePoint, cmds))
	}

	for _, k := range keys {
		buf = appendString(buf, 3, k)
	}
	for _, v := range values {
		buf = appendBytes(buf, 4, v)
	}
	buf = appendVarintField(buf, 5, uint64(extent))
	return buf
}

func encodeFeature(tags []uint32, geomType uint32, cmds []uint32) []byte {
	var buf []byte
	if len(tags) > 0 {
		buf = appendPackedVarints(buf, 2, tags)
	}
	buf = appendVarintField(buf, 3, uint64(geomType))
	buf = appendPackedVarints(buf, 4, cmds)
	return buf
}

// encodeRing emits MoveTo+LineTo(n-1)+ClosePath for a closed ring, scaling
// [0,1] orb coordinates to [0,extent] tile pixel space.
func encodeRing(ring orb.Ring, extent uint32) []uint32 {
	pts := ring
	if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	return encodeClosedPath(pts, extent)
}

func encodeClosedPath(pts []orb.Point, extent uint32) []uint32 {
	cmds := make([]uint32, 0, 3+len(pts)*2)
	var px, py int32
	for i, p := range pts {
		x, y := scale(p, extent)
		dx, dy := x-px, y-py
		if i == 0 {
			cmds = append(cmds, cmdHeader(cmdMoveTo, 1), zigzag(dx), zigzag(dy))
		} else {
			if i == 1 {
				cmds = append(cmds, cmdHeader(cmdLineTo, uint32(len(pts)-1)))
			}
			cmds = append(cmds, zigzag(dx), zigzag(dy))
		}
		px, py = x, y
	}
	cmds = append(cmds, cmdHeader(cmdClosePath, 1))
	return cmds
}

func encodeLine(line orb.LineString, extent uint32) []uint32 {
	pts := []orb.Point(line)
	cmds := make([]uint32, 0, 3+len(pts)*2)
	var px, py int32
	for i, p := range pts {
		x, y := scale(p, extent)
		dx, dy := x-px, y-py
		if i == 0 {
			cmds = append(cmds, cmdHeader(cmdMoveTo, 1), zigzag(dx), zigzag(dy))
		} else {
			if i == 1 {
				cmds = append(cmds, cmdHeader(cmdLineTo, uint32(len(pts)-1)))
			}
			cmds = append(cmds, zigzag(dx), zigzag(dy))
		}
		px, py = x, y
	}
	return cmds
}

func encodePoint(p orb.Point, extent uint32) []uint32 {
	x, y := scale(p, extent)
	return []uint32{cmdHeader(cmdMoveTo, 1), zigzag(x), zigzag(y)}
}

// scale maps an orb.Point in [0,1] unit-square space to integer tile
// pixel coordinates in [0,extent].
func scale(p orb.Point, extent uint32) (int32, int32) {
	return int32(p.X() * float64(extent)), int32(p.Y() * float64(extent))
}

func cmdHeader(id, count uint32) uint32 {
	return id | (count << 3)
}

func zigzag(v int32) uint32 {
	return uint32((v << 1) ^ (v >> 31))
}

func encodeStringValue(s string) []byte {
	return appendString(nil, 1, s)
}

// encodeIntValue encodes a Value message with its int_value (field 4) set.
func encodeIntValue(v int64) []byte {
	return appendVarintField(nil, 4, uint64(v))
}

// --- minimal protobuf wire encoder, independent of package mvt's test-only one ---

func appendTag(buf []byte, fieldNum int, wt byte) []byte {
	return appendVarint(buf, uint64(fieldNum)<<3|uint64(wt))
}

func appendVarint(buf []byte, v uint64) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}

func appendString(buf []byte, fieldNum int, s string) []byte {
	buf = appendTag(buf, fieldNum, 2)
	buf = appendVarint(buf, uint64(len(s)))
	return append(buf, s...)
}

func appendBytes(buf []byte, fieldNum int, b []byte) []byte {
	buf = appendTag(buf, fieldNum, 2)
	buf = appendVarint(buf, uint64(len(b)))
	return append(buf, b...)
}

func appendVarintField(buf []byte, fieldNum int, v uint64) []byte {
	buf = appendTag(buf, fieldNum, 0)
	return appendVarint(buf, v)
}

func appendPackedVarints(buf []byte, fieldNum int, vals []uint32) []byte {
	var inner []byte
	for _, v := range vals {
		inner = appendVarint(inner, uint64(v))
	}
	return appendBytes(buf, fieldNum, inner)
}
