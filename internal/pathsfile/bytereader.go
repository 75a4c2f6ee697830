package pathsfile

import (
	"encoding/binary"
	"math"

	"github.com/jdfr/multires/internal/errkind"
)

// byteReader is a tiny cursor over an in-memory payload buffer, used by
// decodePayload to pull fixed-width fields without an io.Reader's
// allocation overhead per call.
type byteReader struct {
	buf []byte
	pos int
}

func newByteReader(buf []byte) *byteReader { return &byteReader{buf: buf} }

func (b *byteReader) i64() (int64, error) {
	if b.pos+8 > len(b.buf) {
		return 0, errkind.New(errkind.Io, "short read decoding int64 payload field")
	}
	v := int64(binary.LittleEndian.Uint64(b.buf[b.pos:]))
	b.pos += 8
	return v, nil
}

func (b *byteReader) f64() (float64, error) {
	if b.pos+8 > len(b.buf) {
		return 0, errkind.New(errkind.Io, "short read decoding float64 payload field")
	}
	bits := binary.LittleEndian.Uint64(b.buf[b.pos:])
	b.pos += 8
	return math.Float64frombits(bits), nil
}
