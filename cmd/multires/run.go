package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/jdfr/multires/internal/config"
	"github.com/jdfr/multires/internal/errkind"
	"github.com/jdfr/multires/internal/meshslicer"
	"github.com/jdfr/multires/internal/pathsfile"
	"github.com/jdfr/multires/internal/scheduler"
	dxfwriter "github.com/jdfr/multires/internal/writers/dxf"
)

// runPlan is the top-level driver of spec.md §2's data flow: load
// configuration, spawn the mesh-slicer, build the schedule, pump raw
// slices through it, and stream every finished ResultSingleTool to the
// paths-file (and optionally a DXF dump).
func runPlan(o *cliOverrides) error {
	ms, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	applyOverrides(ms, o)
	if err := ms.Validate(); err != nil {
		return err
	}

	sched, err := scheduler.NewScheduler(ms, o.zMin, o.zMax)
	if err != nil {
		return err
	}
	log.Info().Int("inputs", len(sched.Input)).Int("rawSlices", len(sched.RM.RawZs)).Msg("schedule built")

	if o.meshFile != "" {
		client, err := meshslicer.Start(meshslicer.Options{
			MeshFile:       o.meshFile,
			Repair:         o.meshRepair,
			Incremental:    o.meshIncremental,
			ExecutablePath: o.meshExe,
		})
		if err != nil {
			return err
		}
		defer client.Close()

		if err := client.RequestSlices(sched.RM.RawZs); err != nil {
			return err
		}
		_, _, slices, err := client.ReadResponse(len(sched.RM.RawZs))
		if err != nil {
			return err
		}
		for _, s := range slices {
			sched.DeliverRawSlice(s)
		}
	}

	out, err := os.Create(o.outPath)
	if err != nil {
		return errkind.Wrap(errkind.Io, err, "creating output paths-file %s", o.outPath)
	}
	defer out.Close()

	header := buildFileHeader(ms)
	writer, err := pathsfile.NewWriter(out, header)
	if err != nil {
		return err
	}

	var dxfw *dxfwriter.Writer
	if o.dumpDXF != "" {
		dxfw, err = dxfwriter.New()
		if err != nil {
			return err
		}
	}

	if err := sched.ComputeNextInputSlices(); err != nil {
		return err
	}
	for {
		rst, ok := sched.GiveNextOutputSlice()
		if !ok {
			break
		}
		if err := writeResult(writer, dxfw, rst, ms.Global.AlsoContours); err != nil {
			return err
		}
		if err := sched.ComputeNextInputSlices(); err != nil {
			return err
		}
	}

	if err := pathsfile.FinalizeNumRecords(out, header, writer.NumRecords()); err != nil {
		return err
	}
	if dxfw != nil {
		if err := dxfw.SaveAs(o.dumpDXF); err != nil {
			return err
		}
	}

	log.Info().Int64("records", writer.NumRecords()).Msg("paths-file written")
	return nil
}

func buildFileHeader(ms *config.MultiSpec) pathsfile.FileHeader {
	tools := make([]pathsfile.ToolHeader, len(ms.Processes))
	for i, p := range ms.Processes {
		tools[i].RadiusX = float64(p.Radius)
		if p.Profile != nil {
			tools[i].RadiusZ = p.Profile.SemiHeight()
			tools[i].ZHeight = p.Profile.SliceHeight()
			tools[i].ZApplicationPoint = p.Profile.ApplicationPoint()
		}
	}
	return pathsfile.FileHeader{Version: 0, UseSched: ms.Global.UseScheduler, Tools: tools}
}

func writeResult(w *pathsfile.Writer, dxfw *dxfwriter.Writer, rst *scheduler.ResultSingleTool, alsoContours bool) error {
	if rst.HasErr {
		return rst.Err
	}
	records := []pathsfile.SliceRecord{
		{Type: pathsfile.RecordToolpath, NTool: int64(rst.NTool), Z: rst.Z, SaveFormat: pathsfile.FormatInt64Clipper, Scaling: 1, Paths: rst.Toolpaths},
	}
	if alsoContours {
		records = append(records, pathsfile.SliceRecord{
			Type: pathsfile.RecordProcessedContour, NTool: int64(rst.NTool), Z: rst.Z,
			SaveFormat: pathsfile.FormatInt64Clipper, Scaling: 1, Paths: rst.Contours,
		})
	}
	if len(rst.InfillingAreas) > 0 {
		records = append(records, pathsfile.SliceRecord{
			Type: pathsfile.RecordToolpathInfilling, NTool: int64(rst.NTool), Z: rst.Z,
			SaveFormat: pathsfile.FormatInt64Clipper, Scaling: 1, Paths: rst.InfillingAreas,
		})
	}
	for _, rec := range records {
		if err := w.WriteRecord(rec); err != nil {
			return err
		}
		if dxfw != nil {
			if err := dxfw.AddRecord(rec); err != nil {
				return err
			}
		}
	}
	return nil
}
