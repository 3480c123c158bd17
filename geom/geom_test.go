package geom

import "testing"

func TestCleanRingDropsDuplicatesAndClose(t *testing.T) {
	// spec.md scenario 3: [[0,0],[1,0],[1,0],[1,1],[0,0]] -> one triangle
	// of 3 unique vertices.
	in := Ring{{0, 0}, {1, 0}, {1, 0}, {1, 1}, {0, 0}}
	out, ok := CleanRing(in)
	if !ok {
		t.Fatal("CleanRing() reported not ok")
	}
	if len(out) != 3 {
		t.Fatalf("len(out) = %d, want 3", len(out))
	}
}

func TestCleanRingTooFewPoints(t *testing.T) {
	in := Ring{{0, 0}, {0, 0}, {1, 1}}
	_, ok := CleanRing(in)
	if ok {
		t.Fatal("expected CleanRing to reject a degenerate 2-point ring")
	}
}

func TestTessellateSingleTriangle(t *testing.T) {
	ring := Ring{{0, 0}, {1, 0}, {1, 1}}
	verts, indices, err := Tessellate([]Ring{ring}, nil)
	if err != nil {
		t.Fatalf("Tessellate() err=%v", err)
	}
	if len(verts) != 3 {
		t.Fatalf("len(verts) = %d, want 3", len(verts))
	}
	if len(indices) != 3 {
		t.Fatalf("len(indices) = %d, want 3", len(indices))
	}
	for _, i := range indices {
		if int(i) >= len(verts) {
			t.Fatalf("index %d out of bounds (vertex count %d)", i, len(verts))
		}
	}
}

func TestTessellateSquareWithHole(t *testing.T) {
	outer := Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	// Opposite winding from outer so it's classified as a hole.
	hole := Ring{{4, 4}, {4, 6}, {6, 6}, {6, 4}}

	verts, indices, err := Tessellate([]Ring{outer, hole}, nil)
	if err != nil {
		t.Fatalf("Tessellate() err=%v", err)
	}
	if len(indices)%3 != 0 {
		t.Fatalf("index count %d not a multiple of 3", len(indices))
	}
	if len(indices) == 0 {
		t.Fatal("expected triangles for square-with-hole")
	}
	for _, i := range indices {
		if int(i) >= len(verts) {
			t.Fatalf("index %d out of bounds (vertex count %d)", i, len(verts))
		}
	}
}

func TestTessellateMultiPolygon(t *testing.T) {
	a := Ring{{0, 0}, {1, 0}, {1, 1}}
	b := Ring{{5, 5}, {6, 5}, {6, 6}}
	verts, indices, err := Tessellate([]Ring{a, b}, nil)
	if err != nil {
		t.Fatalf("Tessellate() err=%v", err)
	}
	if len(verts) != 6 {
		t.Fatalf("len(verts) = %d, want 6 (two disjoint triangles)", len(verts))
	}
	if len(indices) != 6 {
		t.Fatalf("len(indices) = %d, want 6", len(indices))
	}
}

func TestTessellateBowtieSelfIntersectionSplitsIntoTwoTriangles(t *testing.T) {
	// A bowtie: edges (10,0)-(0,10) and (10,10)-(0,0) cross at (5,5).
	// Even-odd fill paints both lobes; ear clipping alone finds no valid
	// ear on a self-intersecting ring and would report
	// ErrTessellationFailed without the self-intersection split.
	ring := Ring{{0, 0}, {10, 0}, {0, 10}, {10, 10}}
	verts, indices, err := Tessellate([]Ring{ring}, nil)
	if err != nil {
		t.Fatalf("Tessellate() err=%v, want self-intersection tolerated", err)
	}
	if len(indices) != 6 {
		t.Fatalf("len(indices) = %d, want 6 (two triangles)", len(indices))
	}
	for _, i := range indices {
		if int(i) >= len(verts) {
			t.Fatalf("index %d out of bounds (vertex count %d)", i, len(verts))
		}
	}

	var sawCrossing bool
	for _, v := range verts {
		if v == (Point{X: 5, Y: 5}) {
			sawCrossing = true
		}
	}
	if !sawCrossing {
		t.Error("expected the synthesized crossing point (5,5) in the vertex pool")
	}
}

func TestCleanLineAllowsTwoPoints(t *testing.T) {
	out, ok := CleanLine(Ring{{0, 0}, {0, 0}, {1, 1}})
	if !ok {
		t.Fatal("CleanLine() reported not ok for valid 2-point line")
	}
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
}
