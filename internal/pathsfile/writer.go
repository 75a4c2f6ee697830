package pathsfile

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/jdfr/multires/internal/errkind"
)

// Writer serializes a FileHeader followed by a stream of SliceRecords to
// w, per spec.md §6. w must support Seek (via the Seeker interface) if the
// caller wants FinalizeNumRecords to patch the count in place; otherwise
// the caller must track and write numRecords up front.
type Writer struct {
	w          io.Writer
	header     FileHeader
	numRecords int64
}

// NewWriter writes header immediately and returns a Writer ready to accept
// SliceRecords via WriteRecord.
func NewWriter(w io.Writer, header FileHeader) (*Writer, error) {
	if err := writeHeader(w, header); err != nil {
		return nil, err
	}
	return &Writer{w: w, header: header}, nil
}

func writeHeader(w io.Writer, h FileHeader) error {
	if _, err := w.Write(magic[:]); err != nil {
		return errkind.Wrap(errkind.Io, err, "writing magic")
	}
	if err := binary.Write(w, binary.LittleEndian, h.Version); err != nil {
		return errkind.Wrap(errkind.Io, err, "writing version")
	}
	if err := writeI64(w, int64(len(h.Tools))); err != nil {
		return err
	}
	useSched := int64(0)
	if h.UseSched {
		useSched = 1
	}
	if err := writeI64(w, useSched); err != nil {
		return err
	}
	for _, t := range h.Tools {
		if err := writeF64(w, t.RadiusX); err != nil {
			return err
		}
		if h.UseSched {
			if err := writeF64(w, t.RadiusZ); err != nil {
				return err
			}
			if err := writeF64(w, t.ZHeight); err != nil {
				return err
			}
			if err := writeF64(w, t.ZApplicationPoint); err != nil {
				return err
			}
		}
	}
	return writeI64(w, h.NumRecords)
}

// WriteRecord encodes and appends one SliceRecord, per spec.md §6's
// SliceRecord framing: totalSize/headerSize are computed from the encoded
// payload, never trusted from the caller.
func (wr *Writer) WriteRecord(rec SliceRecord) error {
	payload, err := encodePayload(rec)
	if err != nil {
		return err
	}

	var hdr bytes.Buffer
	// headerSize: totalSize(8) + headerSize(8) + type(8) + ntool(8) +
	// z(8) + saveFormat(8) + scaling(8) = 56 bytes.
	const headerSize = 56
	totalSize := int64(headerSize) + int64(len(payload))

	if err := writeI64(&hdr, totalSize); err != nil {
		return err
	}
	if err := writeI64(&hdr, headerSize); err != nil {
		return err
	}
	if err := writeI64(&hdr, int64(rec.Type)); err != nil {
		return err
	}
	if err := writeI64(&hdr, rec.NTool); err != nil {
		return err
	}
	if err := writeF64(&hdr, rec.Z); err != nil {
		return err
	}
	if err := writeI64(&hdr, int64(rec.SaveFormat)); err != nil {
		return err
	}
	if err := writeF64(&hdr, rec.Scaling); err != nil {
		return err
	}

	if _, err := wr.w.Write(hdr.Bytes()); err != nil {
		return errkind.Wrap(errkind.Io, err, "writing slice record header")
	}
	if _, err := wr.w.Write(payload); err != nil {
		return errkind.Wrap(errkind.Io, err, "writing slice record payload")
	}
	wr.numRecords++
	return nil
}

// NumRecords reports how many records have been written so far.
func (wr *Writer) NumRecords() int64 { return wr.numRecords }

// FinalizeNumRecords seeks back to the numRecords field's offset and
// rewrites it with the true count, per spec.md §6's "numRecords field may
// be re-written after the stream is finalized by seeking back to its
// offset."
func FinalizeNumRecords(ws io.WriteSeeker, header FileHeader, count int64) error {
	offset := header.NumRecordsOffset()
	if _, err := ws.Seek(offset, io.SeekStart); err != nil {
		return errkind.Wrap(errkind.Io, err, "seeking to numRecords offset")
	}
	return writeI64(ws, count)
}

func encodePayload(rec SliceRecord) ([]byte, error) {
	var buf bytes.Buffer
	switch rec.SaveFormat {
	case FormatInt64Clipper:
		if err := writeI64(&buf, int64(len(rec.Paths))); err != nil {
			return nil, err
		}
		for _, p := range rec.Paths {
			if err := writeI64(&buf, int64(len(p))); err != nil {
				return nil, err
			}
			for _, pt := range p {
				if err := writeI64(&buf, pt.X); err != nil {
					return nil, err
				}
				if err := writeI64(&buf, pt.Y); err != nil {
					return nil, err
				}
			}
		}
	case FormatDouble2D:
		if err := writeI64(&buf, int64(len(rec.Paths))); err != nil {
			return nil, err
		}
		for _, p := range rec.Paths {
			if err := writeI64(&buf, int64(len(p))); err != nil {
				return nil, err
			}
			for _, pt := range p {
				if err := writeF64(&buf, float64(pt.X)); err != nil {
					return nil, err
				}
				if err := writeF64(&buf, float64(pt.Y)); err != nil {
					return nil, err
				}
			}
		}
	case FormatDouble3D:
		if err := writeI64(&buf, int64(len(rec.Paths3D))); err != nil {
			return nil, err
		}
		for _, p := range rec.Paths3D {
			if err := writeI64(&buf, int64(len(p))); err != nil {
				return nil, err
			}
			for _, pt := range p {
				if err := writeF64(&buf, pt.X); err != nil {
					return nil, err
				}
				if err := writeF64(&buf, pt.Y); err != nil {
					return nil, err
				}
				if err := writeF64(&buf, pt.Z); err != nil {
					return nil, err
				}
			}
		}
	default:
		return nil, errkind.New(errkind.Io, "unsupported saveFormat %d", rec.SaveFormat)
	}
	return buf.Bytes(), nil
}

func writeI64(w io.Writer, v int64) error {
	if err := binary.Write(w, binary.LittleEndian, v); err != nil {
		return errkind.Wrap(errkind.Io, err, "writing int64")
	}
	return nil
}

func writeF64(w io.Writer, v float64) error {
	if err := binary.Write(w, binary.LittleEndian, v); err != nil {
		return errkind.Wrap(errkind.Io, err, "writing float64")
	}
	return nil
}
