package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jdfr/multires/internal/config"
)

func TestApplyOverridesSetsSchedulerMode(t *testing.T) {
	ms := &config.MultiSpec{Global: config.GlobalSpec{SchedMode: config.SchedulerUniform}}
	applyOverrides(ms, &cliOverrides{slicingManual: true, addsub: true})
	require.Equal(t, config.SchedulerManual, ms.Global.SchedMode)
	require.True(t, ms.Global.AddSubWorkflowMode)
}

func TestBuildFileHeaderCarriesToolRadii(t *testing.T) {
	ms := &config.MultiSpec{Processes: []config.ProcessSpec{{Radius: 500}, {Radius: 100}}}
	header := buildFileHeader(ms)
	require.Len(t, header.Tools, 2)
	require.Equal(t, 500.0, header.Tools[0].RadiusX)
	require.Equal(t, 100.0, header.Tools[1].RadiusX)
}
