package wire

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/variousdemeanors/pi-mcp2515/internal/domain"
)

// Record layout, little-endian, matching the transmitter struct exactly:
//   ChannelA (float32) | ChannelB (float32) | SentMillis (uint32) | Seq (uint32)
const RecordSize = 16

// ErrSizeMismatch is returned for frames whose length is not exactly RecordSize.
// Such frames are dropped wholesale; no partial decode is attempted.
var ErrSizeMismatch = errors.New("wire: frame size mismatch")

// Decode parses a raw frame into a Sample. Any 4-byte bit pattern decodes to a
// float value; the decoder performs no range or finiteness validation.
func Decode(data []byte) (domain.Sample, error) {
	if len(data) != RecordSize {
		return domain.Sample{}, ErrSizeMismatch
	}
	return domain.Sample{
		ChannelA:   float64(math.Float32frombits(binary.LittleEndian.Uint32(data[0:4]))),
		ChannelB:   float64(math.Float32frombits(binary.LittleEndian.Uint32(data[4:8]))),
		SentMillis: binary.LittleEndian.Uint32(data[8:12]),
		Seq:        binary.LittleEndian.Uint32(data[12:16]),
	}, nil
}

// Encode serializes a Sample into the on-air record format. Used by bench
// sources and tests; the radio transmitter produces the same layout.
func Encode(s domain.Sample) []byte {
	data := make([]byte, RecordSize)
	binary.LittleEndian.PutUint32(data[0:4], math.Float32bits(float32(s.ChannelA)))
	binary.LittleEndian.PutUint32(data[4:8], math.Float32bits(float32(s.ChannelB)))
	binary.LittleEndian.PutUint32(data[8:12], s.SentMillis)
	binary.LittleEndian.PutUint32(data[12:16], s.Seq)
	return data
}
