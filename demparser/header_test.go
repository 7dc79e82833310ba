package demparser

import (
	"testing"

	"github.com/icza/tf2rep/dem"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := &dem.Header{
		Magic:           dem.HeaderMagic,
		DemoProtocol:    4,
		NetworkProtocol: 24,
		Server:          "127.0.0.1:27015",
		Nick:            "recorder",
		Map:             "cp_badlands",
		Game:            "tf",
		PlaybackSeconds: 123.456,
		Ticks:           8000,
		Frames:          8000,
		SignonLength:    4096,
	}

	buf := writeHeader(h)
	if len(buf) != dem.HeaderSize {
		t.Fatalf("expected %d bytes, got %d", dem.HeaderSize, len(buf))
	}

	got, err := parseHeader(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if *got != *h {
		t.Errorf("round-trip mismatch:\n got: %+v\nwant: %+v", *got, *h)
	}
}

func TestParseHeaderBadMagic(t *testing.T) {
	h := &dem.Header{Magic: "NOTADEMO"}
	buf := writeHeader(h)
	copy(buf[offMagic:], "NOTADEMO")

	if _, err := parseHeader(buf); err == nil {
		t.Error("expected an error for a bad magic value")
	}
}

func TestParseHeaderTooShort(t *testing.T) {
	if _, err := parseHeader(make([]byte, 10)); err == nil {
		t.Error("expected an error for a too-short buffer")
	}
}

func TestCString(t *testing.T) {
	cases := []struct {
		in   []byte
		want string
	}{
		{[]byte("abc\x00\x00\x00"), "abc"},
		{[]byte("abc"), "abc"},
		{[]byte{0, 0, 0}, ""},
	}
	for _, c := range cases {
		if got := cString(c.in); got != c.want {
			t.Errorf("cString(%q): expected %q, got %q", c.in, c.want, got)
		}
	}
}
