package geom

// BuildLine emits an ordered sequence of distinct points and a
// GL_LINES-style index list: consecutive pairs (i, i+1) per segment. The
// ring must already be cleaned (CleanLine).
func BuildLine(line Ring) (vertices []Point, indices []uint32) {
	vertices = make([]Point, len(line))
	copy(vertices, line)

	indices = make([]uint32, 0, (len(line)-1)*2)
	for i := 0; i < len(line)-1; i++ {
		indices = append(indices, uint32(i), uint32(i+1))
	}
	return vertices, indices
}

// BuildPoint emits the single vertex for a point feature.
func BuildPoint(p Point) []Point {
	return []Point{p}
}
