package mvt

import "github.com/tilerender/vectormap/geom"

const (
	cmdMoveTo    = 1
	cmdLineTo    = 2
	cmdClosePath = 7
)

// decodeGeometry interprets a packed MVT geometry command stream (spec.md
// §4.4): a sequence of varints where the low 3 bits of each command
// varint are the command id and the remaining bits are a repeat count.
// MoveTo and LineTo each consume 2 zigzag deltas per repetition and
// accumulate into a running cursor; ClosePath appends a copy of the
// ring's first point. Cursor coordinates are tile-local pixels (before
// the /extent normalization normalizeRings performs).
func decodeGeometry(cmds []uint32) []geom.Ring {
	var rings []geom.Ring
	var cur geom.Ring
	var cx, cy int64

	i := 0
	for i < len(cmds) {
		cmdInt := cmds[i]
		i++
		id := cmdInt & 0x7
		count := cmdInt >> 3

		switch id {
		case cmdMoveTo:
			if len(cur) > 0 {
				rings = append(rings, cur)
			}
			cur = make(geom.Ring, 0, count)
			for n := uint32(0); n < count && i+1 < len(cmds); n++ {
				dx := zigzagDecode(cmds[i])
				dy := zigzagDecode(cmds[i+1])
				i += 2
				cx += dx
				cy += dy
				cur = append(cur, geom.Point{X: float64(cx), Y: float64(cy)})
			}
		case cmdLineTo:
			for n := uint32(0); n < count && i+1 < len(cmds); n++ {
				dx := zigzagDecode(cmds[i])
				dy := zigzagDecode(cmds[i+1])
				i += 2
				cx += dx
				cy += dy
				cur = append(cur, geom.Point{X: float64(cx), Y: float64(cy)})
			}
		case cmdClosePath:
			if len(cur) > 0 {
				cur = append(cur, cur[0])
			}
			// ClosePath carries no parameters; count is typically 1 and
			// consumes nothing further.
		default:
			// Unknown command: abort this feature's geometry rather than
			// mis-parse the remaining stream.
			if len(cur) > 0 {
				rings = append(rings, cur)
			}
			return rings
		}
	}
	if len(cur) > 0 {
		rings = append(rings, cur)
	}
	return rings
}

func zigzagDecode(v uint32) int64 {
	return int64(v>>1) ^ -int64(v&1)
}
