package pbf

import "testing"

func TestNextFieldTagAndWireType(t *testing.T) {
	// field 1, wire type 2 (length-delimited) -> tag<<3|wt = 1<<3|2 = 0x0A
	buf := []byte{0x0A, 0x03, 'a', 'b', 'c'}
	r := NewReader(buf)

	tag, wt, ok, err := r.NextField()
	if err != nil || !ok {
		t.Fatalf("NextField() err=%v ok=%v", err, ok)
	}
	if tag != 1 || wt != WireBytes {
		t.Fatalf("tag=%d wt=%d, want 1,%d", tag, wt, WireBytes)
	}

	s, err := r.ReadString()
	if err != nil || s != "abc" {
		t.Fatalf("ReadString() = %q, %v", s, err)
	}

	_, _, ok, err = r.NextField()
	if err != nil || ok {
		t.Fatalf("expected end of stream, got ok=%v err=%v", ok, err)
	}
}

func TestZigZagDecode(t *testing.T) {
	cases := []struct {
		encoded uint64
		want    int64
	}{
		{0, 0},
		{1, -1},
		{2, 1},
		{3, -2},
		{4, 2},
	}
	for _, c := range cases {
		var buf []byte
		buf = appendVarint(buf, c.encoded)
		r := NewReader(buf)
		got, err := r.ReadZigZag()
		if err != nil {
			t.Fatalf("ReadZigZag() err=%v", err)
		}
		if got != c.want {
			t.Errorf("zigzag(%d) = %d, want %d", c.encoded, got, c.want)
		}
	}
}

func TestTruncatedBytesField(t *testing.T) {
	// Claims a 10-byte string but only 2 bytes follow.
	buf := []byte{0x0A, 0x0A, 'a', 'b'}
	r := NewReader(buf)
	if _, _, _, err := r.NextField(); err != nil {
		t.Fatalf("NextField() err=%v", err)
	}
	if _, err := r.ReadBytes(); err != ErrTruncated {
		t.Errorf("ReadBytes() err = %v, want ErrTruncated", err)
	}
}

func TestSkipUnknownField(t *testing.T) {
	// field 1 varint value 150, then field 2 bytes "hi"
	buf := []byte{0x08, 0x96, 0x01, 0x12, 0x02, 'h', 'i'}
	r := NewReader(buf)

	tag, wt, ok, _ := r.NextField()
	if tag != 1 || wt != WireVarint || !ok {
		t.Fatalf("first field unexpected: %d %d %v", tag, wt, ok)
	}
	if err := r.Skip(wt); err != nil {
		t.Fatalf("Skip() err=%v", err)
	}

	tag, wt, ok, _ = r.NextField()
	if tag != 2 || wt != WireBytes || !ok {
		t.Fatalf("second field unexpected: %d %d %v", tag, wt, ok)
	}
	s, err := r.ReadString()
	if err != nil || s != "hi" {
		t.Fatalf("ReadString() = %q, %v", s, err)
	}
}

func TestGeometryCommandStreamVector(t *testing.T) {
	// From spec.md scenario 4: 09 03 05 12 04 06 0F decodes a MoveTo then a
	// LineTo. cmd_id = low 3 bits, count = remaining bits.
	buf := []byte{0x09, 0x03, 0x05, 0x12, 0x04, 0x06, 0x0F}
	r := NewReader(buf)

	cmdInt, err := r.ReadVarint()
	if err != nil {
		t.Fatalf("ReadVarint() err=%v", err)
	}
	cmdID := cmdInt & 0x7
	count := cmdInt >> 3
	if cmdID != 1 || count != 1 {
		t.Fatalf("first command = (id=%d,count=%d), want (1,1)", cmdID, count)
	}

	dx, _ := r.ReadZigZag()
	dy, _ := r.ReadZigZag()
	if dx != -2 || dy != -3 {
		t.Fatalf("MoveTo delta = (%d,%d), want (-2,-3)", dx, dy)
	}

	cmdInt, _ = r.ReadVarint()
	cmdID = cmdInt & 0x7
	count = cmdInt >> 3
	if cmdID != 2 || count != 2 {
		t.Fatalf("second command = (id=%d,count=%d), want (2,2)", cmdID, count)
	}
}

func appendVarint(buf []byte, v uint64) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}
