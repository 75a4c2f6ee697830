package pathsfile

import (
	"encoding/binary"
	"io"

	"github.com/jdfr/multires/internal/errkind"
	"github.com/jdfr/multires/internal/geom"
)

// Reader reads a FileHeader followed by SliceRecords from r, per
// spec.md §6.
type Reader struct {
	r      io.Reader
	Header FileHeader
}

// NewReader reads and validates the FileHeader (magic, version), per
// spec.md §7's IoError "magic mismatch; unsupported version".
func NewReader(r io.Reader) (*Reader, error) {
	header, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	return &Reader{r: r, Header: header}, nil
}

const supportedVersion = 0

func readHeader(r io.Reader) (FileHeader, error) {
	var gotMagic [4]byte
	if err := readFull(r, gotMagic[:]); err != nil {
		return FileHeader{}, err
	}
	if gotMagic != magic {
		return FileHeader{}, errkind.New(errkind.Io, "bad magic: got %q, want %q", gotMagic, magic)
	}
	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return FileHeader{}, errkind.Wrap(errkind.Io, err, "reading version")
	}
	if version != supportedVersion {
		return FileHeader{}, errkind.New(errkind.Io, "unsupported paths-file version %d", version)
	}

	numTools, err := readI64(r)
	if err != nil {
		return FileHeader{}, err
	}
	useSchedRaw, err := readI64(r)
	if err != nil {
		return FileHeader{}, err
	}
	useSched := useSchedRaw != 0

	tools := make([]ToolHeader, numTools)
	for i := range tools {
		tools[i].RadiusX, err = readF64(r)
		if err != nil {
			return FileHeader{}, err
		}
		if useSched {
			if tools[i].RadiusZ, err = readF64(r); err != nil {
				return FileHeader{}, err
			}
			if tools[i].ZHeight, err = readF64(r); err != nil {
				return FileHeader{}, err
			}
			if tools[i].ZApplicationPoint, err = readF64(r); err != nil {
				return FileHeader{}, err
			}
		}
	}

	numRecords, err := readI64(r)
	if err != nil {
		return FileHeader{}, err
	}

	return FileHeader{Version: version, UseSched: useSched, Tools: tools, NumRecords: numRecords}, nil
}

// ReadRecord reads one SliceRecord, per spec.md §6's framing. Returns
// io.EOF once the stream is exhausted.
func (rd *Reader) ReadRecord() (SliceRecord, error) {
	totalSize, err := readI64(rd.r)
	if err != nil {
		return SliceRecord{}, err
	}
	headerSize, err := readI64(rd.r)
	if err != nil {
		return SliceRecord{}, err
	}
	typ, err := readI64(rd.r)
	if err != nil {
		return SliceRecord{}, err
	}
	ntool, err := readI64(rd.r)
	if err != nil {
		return SliceRecord{}, err
	}
	z, err := readF64(rd.r)
	if err != nil {
		return SliceRecord{}, err
	}
	saveFormat, err := readI64(rd.r)
	if err != nil {
		return SliceRecord{}, err
	}
	scaling, err := readF64(rd.r)
	if err != nil {
		return SliceRecord{}, err
	}

	payloadSize := totalSize - headerSize
	if payloadSize < 0 {
		return SliceRecord{}, errkind.New(errkind.Io, "negative payload size: totalSize=%d headerSize=%d", totalSize, headerSize)
	}
	payload := make([]byte, payloadSize)
	if err := readFull(rd.r, payload); err != nil {
		return SliceRecord{}, err
	}

	rec := SliceRecord{
		Type: RecordType(typ), NTool: ntool, Z: z,
		SaveFormat: SaveFormat(saveFormat), Scaling: scaling,
	}
	if err := decodePayload(&rec, payload); err != nil {
		return SliceRecord{}, err
	}
	return rec, nil
}

// ReadAll reads every remaining SliceRecord until EOF.
func (rd *Reader) ReadAll() ([]SliceRecord, error) {
	var out []SliceRecord
	for {
		rec, err := rd.ReadRecord()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}

func decodePayload(rec *SliceRecord, payload []byte) error {
	br := newByteReader(payload)
	switch rec.SaveFormat {
	case FormatInt64Clipper:
		numPaths, err := br.i64()
		if err != nil {
			return err
		}
		rec.Paths = make(geom.PolygonSet, numPaths)
		for i := range rec.Paths {
			numPoints, err := br.i64()
			if err != nil {
				return err
			}
			path := make(geom.Path, numPoints)
			for j := range path {
				x, err := br.i64()
				if err != nil {
					return err
				}
				y, err := br.i64()
				if err != nil {
					return err
				}
				path[j] = geom.Point{X: x, Y: y}
			}
			rec.Paths[i] = path
		}
	case FormatDouble2D:
		numPaths, err := br.i64()
		if err != nil {
			return err
		}
		rec.Paths = make(geom.PolygonSet, numPaths)
		for i := range rec.Paths {
			numPoints, err := br.i64()
			if err != nil {
				return err
			}
			path := make(geom.Path, numPoints)
			for j := range path {
				x, err := br.f64()
				if err != nil {
					return err
				}
				y, err := br.f64()
				if err != nil {
					return err
				}
				path[j] = geom.Point{X: int64(x), Y: int64(y)}
			}
			rec.Paths[i] = path
		}
	case FormatDouble3D:
		numPaths, err := br.i64()
		if err != nil {
			return err
		}
		rec.Paths3D = make([][]Point3D, numPaths)
		for i := range rec.Paths3D {
			numPoints, err := br.i64()
			if err != nil {
				return err
			}
			path := make([]Point3D, numPoints)
			for j := range path {
				x, err := br.f64()
				if err != nil {
					return err
				}
				y, err := br.f64()
				if err != nil {
					return err
				}
				z, err := br.f64()
				if err != nil {
					return err
				}
				path[j] = Point3D{X: x, Y: y, Z: z}
			}
			rec.Paths3D[i] = path
		}
	default:
		return errkind.New(errkind.Io, "unsupported saveFormat %d", rec.SaveFormat)
	}
	return nil
}

func readFull(r io.Reader, buf []byte) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.EOF && len(buf) > 0 {
			return io.EOF
		}
		return errkind.Wrap(errkind.Io, err, "short read (expected %d bytes)", len(buf))
	}
	return nil
}

func readI64(r io.Reader) (int64, error) {
	var v int64
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		if err == io.EOF {
			return 0, io.EOF
		}
		return 0, errkind.Wrap(errkind.Io, err, "reading int64")
	}
	return v, nil
}

func readF64(r io.Reader) (float64, error) {
	var v float64
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return 0, errkind.Wrap(errkind.Io, err, "reading float64")
	}
	return v, nil
}
