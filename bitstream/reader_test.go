package bitstream

import "testing"

func TestReadBits(t *testing.T) {
	// 0b10110101, 0b00000001 little-endian: first byte's LSB read first.
	r := NewReader([]byte{0xB5, 0x01})

	cases := []struct {
		n    uint
		want uint64
	}{
		{4, 0x5},
		{4, 0xB},
		{8, 0x01},
	}

	for _, c := range cases {
		got, err := r.ReadBits(c.n)
		if err != nil {
			t.Fatalf("ReadBits(%d): unexpected error: %v", c.n, err)
		}
		if got != c.want {
			t.Errorf("ReadBits(%d): expected %#x, got %#x", c.n, c.want, got)
		}
	}

	if r.BitsLeft() != 0 {
		t.Errorf("expected 0 bits left, got %d", r.BitsLeft())
	}
}

func TestReadBitsOverflow(t *testing.T) {
	r := NewReader([]byte{0x01})
	if _, err := r.ReadBits(16); err == nil {
		t.Error("expected an overflow error reading past the buffer end")
	}
}

func TestReadBitsSigned(t *testing.T) {
	cases := []struct {
		raw  byte
		bits uint
		want int64
	}{
		{0x0F, 4, -1}, // all bits set, 4-bit two's complement
		{0x07, 4, 7},
		{0x08, 4, -8},
	}

	for _, c := range cases {
		r := NewReader([]byte{c.raw})
		got, err := r.ReadBitsSigned(c.bits)
		if err != nil {
			t.Fatalf("ReadBitsSigned: unexpected error: %v", err)
		}
		if got != c.want {
			t.Errorf("ReadBitsSigned(%#x, %d): expected %d, got %d", c.raw, c.bits, c.want, got)
		}
	}
}

func TestReadString(t *testing.T) {
	r := NewReader([]byte("hello\x00trailing"))
	got, err := r.ReadString()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello" {
		t.Errorf("expected %q, got %q", "hello", got)
	}
}

func TestReadTextMalformed(t *testing.T) {
	// 0xFF is never valid as a lone UTF-8 lead byte.
	r := NewReader([]byte{'o', 'k', 0xFF, 0})
	value, raw, valid, err := r.ReadText()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if valid {
		t.Errorf("expected malformed UTF-8 to be reported invalid, got valid=%q", value)
	}
	if len(raw) != 3 {
		t.Errorf("expected 3 raw bytes preserved, got %d", len(raw))
	}
}

func TestVarInt32(t *testing.T) {
	// 300 encoded as a base-128 varint: 0xAC, 0x02.
	r := NewReader([]byte{0xAC, 0x02})
	got, err := r.VarInt32()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 300 {
		t.Errorf("expected 300, got %d", got)
	}
}

func TestReadSubStream(t *testing.T) {
	r := NewReader([]byte{0xFF, 0x00, 0xFF})
	sub, err := r.ReadSubStream(8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.Len() != 8 {
		t.Errorf("expected substream of 8 bits, got %d", sub.Len())
	}
	v, err := sub.ReadBits(8)
	if err != nil || v != 0xFF {
		t.Errorf("expected substream byte 0xFF, got %#x (err=%v)", v, err)
	}
	// Parent cursor should have advanced past the substream.
	v2, err := r.ReadBits(8)
	if err != nil || v2 != 0x00 {
		t.Errorf("expected parent's next byte 0x00, got %#x (err=%v)", v2, err)
	}
}

func TestBitsForCount(t *testing.T) {
	cases := []struct {
		n    int
		want uint
	}{
		{0, 0},
		{1, 1},
		{2, 2},
		{3, 2},
		{4, 3},
		{255, 8},
	}
	for _, c := range cases {
		if got := BitsForCount(c.n); got != c.want {
			t.Errorf("BitsForCount(%d): expected %d, got %d", c.n, c.want, got)
		}
	}
}
