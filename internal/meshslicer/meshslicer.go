// Package meshslicer is the client side of the mesh-slicer subprocess
// protocol of spec.md §6: the core spawns a helper process and exchanges
// Z requests for raw clipper-path cross-sections over two blocking,
// length-prefixed byte pipes, per spec.md §5's "two synchronous
// byte-pipes" concurrency model.
//
// Grounded on original_source/interfaces/subprocess.cpp/slicermanager.cpp.
package meshslicer

import (
	"encoding/binary"
	"io"
	"os/exec"

	"github.com/rs/zerolog/log"

	"github.com/jdfr/multires/internal/errkind"
	"github.com/jdfr/multires/internal/geom"
)

// Bounds is the child's reported mesh bounding box and internal/mesh
// scaling factor, per spec.md §6's seven-float64 response preamble.
type Bounds struct {
	MinX, MaxX, MinY, MaxY, MinZ, MaxZ float64
	ScalingFactor                      float64
}

// Options configures how the helper is spawned, per spec.md §6's
// "arguments containing a repair flag, an incremental flag, and the mesh
// filename on the command line."
type Options struct {
	MeshFile          string
	Repair            bool
	Incremental       bool
	RepairOnDemand    bool // if true, the child reports needRepair first
	ExecutablePath    string
}

// Client drives one mesh-slicer subprocess for the lifetime of a run.
type Client struct {
	cmd     *exec.Cmd
	toChild io.WriteCloser
	fromChild io.ReadCloser
	opts    Options
}

// Start spawns the helper process and wires its stdin/stdout as the
// request/response pipes, per spec.md §6.
func Start(opts Options) (*Client, error) {
	args := []string{}
	if opts.Repair {
		args = append(args, "--repair")
	}
	if opts.Incremental {
		args = append(args, "--incremental")
	}
	args = append(args, opts.MeshFile)

	exe := opts.ExecutablePath
	if exe == "" {
		exe = "meshslicer"
	}
	cmd := exec.Command(exe, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errkind.Wrap(errkind.Slicer, err, "opening mesh-slicer stdin pipe")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errkind.Wrap(errkind.Slicer, err, "opening mesh-slicer stdout pipe")
	}
	if err := cmd.Start(); err != nil {
		return nil, errkind.Wrap(errkind.Slicer, err, "spawning mesh-slicer subprocess")
	}
	log.Info().Str("exe", exe).Strs("args", args).Msg("spawned mesh-slicer subprocess")
	return &Client{cmd: cmd, toChild: stdin, fromChild: stdout, opts: opts}, nil
}

// RequestSlices sends the numZ + Z-values request, per spec.md §6's
// "Request (parent → child)".
func (c *Client) RequestSlices(zs []float64) error {
	if err := writeI64(c.toChild, int64(len(zs))); err != nil {
		return errkind.Wrap(errkind.Io, err, "writing numZ to mesh-slicer")
	}
	for _, z := range zs {
		if err := writeF64(c.toChild, z); err != nil {
			return errkind.Wrap(errkind.Io, err, "writing Z value to mesh-slicer")
		}
	}
	return nil
}

// ReadResponse reads needRepair (if RepairOnDemand), the bounds preamble,
// then numZ length-prefixed clipper paths, per spec.md §6's "Response
// (child → parent)".
func (c *Client) ReadResponse(numZ int) (needRepair bool, bounds Bounds, slices []geom.PolygonSet, err error) {
	if c.opts.RepairOnDemand {
		v, rerr := readI64(c.fromChild)
		if rerr != nil {
			return false, Bounds{}, nil, errkind.Wrap(errkind.Slicer, rerr, "reading needRepair flag")
		}
		needRepair = v != 0
	}

	bounds, err = readBounds(c.fromChild)
	if err != nil {
		return needRepair, Bounds{}, nil, err
	}

	slices = make([]geom.PolygonSet, numZ)
	for i := 0; i < numZ; i++ {
		ps, err := readClipperPaths(c.fromChild)
		if err != nil {
			return needRepair, bounds, slices, errkind.Wrap(errkind.Slicer, err, "reading cross-section %d", i)
		}
		slices[i] = ps
	}
	return needRepair, bounds, slices, nil
}

// Close sends a termination signal to the subprocess and reaps it, per
// spec.md §5's cooperative-cancellation model.
func (c *Client) Close() error {
	c.toChild.Close()
	c.fromChild.Close()
	if c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
	}
	return c.cmd.Wait()
}

func readBounds(r io.Reader) (Bounds, error) {
	vals := make([]float64, 7)
	for i := range vals {
		v, err := readF64(r)
		if err != nil {
			return Bounds{}, errkind.Wrap(errkind.Slicer, err, "reading bounds field %d", i)
		}
		vals[i] = v
	}
	return Bounds{
		MinX: vals[0], MaxX: vals[1], MinY: vals[2], MaxY: vals[3],
		MinZ: vals[4], MaxZ: vals[5], ScalingFactor: vals[6],
	}, nil
}

// readClipperPaths decodes one length-prefixed clipper-paths payload,
// exactly the saveFormat=0 encoding of spec.md §6.
func readClipperPaths(r io.Reader) (geom.PolygonSet, error) {
	numPaths, err := readI64(r)
	if err != nil {
		return nil, err
	}
	out := make(geom.PolygonSet, numPaths)
	for i := range out {
		numPoints, err := readI64(r)
		if err != nil {
			return nil, err
		}
		path := make(geom.Path, numPoints)
		for j := range path {
			x, err := readI64(r)
			if err != nil {
				return nil, err
			}
			y, err := readI64(r)
			if err != nil {
				return nil, err
			}
			path[j] = geom.Point{X: x, Y: y}
		}
		out[i] = path
	}
	return out, nil
}

func writeI64(w io.Writer, v int64) error { return binary.Write(w, binary.LittleEndian, v) }
func writeF64(w io.Writer, v float64) error { return binary.Write(w, binary.LittleEndian, v) }

func readI64(r io.Reader) (int64, error) {
	var v int64
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}
func readF64(r io.Reader) (float64, error) {
	var v float64
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}
