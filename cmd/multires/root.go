package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jdfr/multires/internal/config"
)

// cliOverrides captures the global flags spec.md §6 documents as CLI
// switches; they layer on top of whatever --config loaded, letting a
// script override one knob without forking the YAML file.
type cliOverrides struct {
	configPath string
	outPath    string
	dumpDXF    string

	meshExe         string
	meshFile        string
	meshRepair      bool
	meshIncremental bool

	zMin, zMax float64

	logLevel  string
	logFormat string

	saveContours     bool
	correctInput     bool
	motionPlanner    bool
	subtractiveBox   bool
	verticalCorrect  bool
	slicingUniform   bool
	slicingScheduler bool
	slicingManual    bool
	addsub           bool
}

func newRootCmd() *cobra.Command {
	o := &cliOverrides{}

	cmd := &cobra.Command{
		Use:   "multires",
		Short: "Multi-resolution toolpath planner for layered fabrication",
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(o.logLevel, o.logFormat)
			return runPlan(o)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&o.configPath, "config", "", "path to the YAML job configuration (required)")
	flags.StringVar(&o.outPath, "out", "", "path to write the paths-file (required)")
	flags.StringVar(&o.dumpDXF, "dump-dxf", "", "optional path to also dump every record as a DXF drawing")

	flags.StringVar(&o.meshExe, "mesh-slicer-exe", "", "mesh-slicer subprocess executable (default: \"meshslicer\" on PATH)")
	flags.StringVar(&o.meshFile, "mesh-file", "", "input mesh file handed to the mesh-slicer subprocess")
	flags.BoolVar(&o.meshRepair, "mesh-repair", false, "ask the mesh-slicer subprocess to repair the mesh before slicing")
	flags.BoolVar(&o.meshIncremental, "mesh-incremental", false, "ask the mesh-slicer subprocess to slice incrementally")

	flags.Float64Var(&o.zMin, "z-min", 0, "lower Z bound of the slicing range")
	flags.Float64Var(&o.zMax, "z-max", 0, "upper Z bound of the slicing range (required)")

	flags.StringVar(&o.logLevel, "log-level", "info", "trace|debug|info|warn|error")
	flags.StringVar(&o.logFormat, "log-format", "console", "console|json")

	flags.BoolVar(&o.saveContours, "save-contours", false, "also emit processed-contour records, not just toolpaths")
	flags.BoolVar(&o.correctInput, "correct-input", false, "set the configuration's correct-input flag (no correction pass reads it)")
	flags.BoolVar(&o.motionPlanner, "motion-planner", false, "run the motion planner on each slice's toolpaths (overhang-aware when support contours exist)")
	flags.BoolVar(&o.subtractiveBox, "subtractive-box-mode", false, "clamp subtractive output to the configured outer limit box")
	flags.BoolVar(&o.verticalCorrect, "vertical-correction", false, "avoid vertical overwriting between interleaved processes")
	flags.BoolVar(&o.slicingUniform, "slicing-uniform", false, "force uniform-Z scheduling regardless of the config file")
	flags.BoolVar(&o.slicingScheduler, "slicing-scheduler", false, "force auto-interleaved scheduling regardless of the config file")
	flags.BoolVar(&o.slicingManual, "slicing-manual", false, "force the manual schedule from the config file")
	flags.BoolVar(&o.addsub, "addsub", false, "enable mixed additive/subtractive accumulation")

	cmd.MarkFlagRequired("config")
	cmd.MarkFlagRequired("out")
	cmd.MarkFlagRequired("z-max")

	return cmd
}

func setupLogging(level, format string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}

// applyOverrides layers the documented CLI switches onto a loaded
// MultiSpec, per spec.md §6's "CLI surface" note that flags override the
// corresponding configuration-file setting.
func applyOverrides(ms *config.MultiSpec, o *cliOverrides) {
	g := &ms.Global
	if o.saveContours {
		g.AlsoContours = true
	}
	if o.correctInput {
		g.Correct = true
	}
	if o.motionPlanner {
		g.ApplyMotionPlanner = true
	}
	if o.subtractiveBox {
		g.SubstractiveOuter = true
	}
	if o.verticalCorrect {
		g.AvoidVerticalOverwriting = true
	}
	if o.addsub {
		g.AddSubWorkflowMode = true
	}
	switch {
	case o.slicingUniform:
		g.SchedMode = config.SchedulerUniform
	case o.slicingScheduler:
		g.SchedMode = config.SchedulerAuto
	case o.slicingManual:
		g.SchedMode = config.SchedulerManual
	}
}
