package wire

import (
	"testing"

	"github.com/variousdemeanors/pi-mcp2515/internal/domain"
)

func TestDecodeKnownBytes(t *testing.T) {
	// 45.5 = 0x42360000, 12.25 = 0x41440000, little-endian on the wire.
	data := []byte{
		0x00, 0x00, 0x36, 0x42, // ChannelA = 45.5
		0x00, 0x00, 0x44, 0x41, // ChannelB = 12.25
		0xe8, 0x03, 0x00, 0x00, // SentMillis = 1000
		0x07, 0x00, 0x00, 0x00, // Seq = 7
	}

	s, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.ChannelA != 45.5 || s.ChannelB != 12.25 {
		t.Fatalf("unexpected channels: %+v", s)
	}
	if s.SentMillis != 1000 || s.Seq != 7 {
		t.Fatalf("unexpected header fields: %+v", s)
	}
}

func TestDecodeRejectsWrongSize(t *testing.T) {
	for _, n := range []int{0, RecordSize - 3, RecordSize - 1, RecordSize + 1, 2 * RecordSize} {
		if _, err := Decode(make([]byte, n)); err != ErrSizeMismatch {
			t.Fatalf("len=%d: expected ErrSizeMismatch, got %v", n, err)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := domain.Sample{ChannelA: -3.5, ChannelB: 187.75, SentMillis: 4294967295, Seq: 1}

	out, err := Decode(Encode(in))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: got %+v want %+v", out, in)
	}
}
