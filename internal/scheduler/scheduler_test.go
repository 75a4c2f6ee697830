package scheduler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jdfr/multires/internal/config"
	"github.com/jdfr/multires/internal/geom"
)

func squareSlice(side int64) geom.PolygonSet {
	return geom.PolygonSet{{
		{X: 0, Y: 0}, {X: side, Y: 0}, {X: side, Y: side}, {X: 0, Y: side},
	}}
}

// TestUniformScheduleDrivesOutputs grounds spec.md §8's "Scheduler" testable
// invariant: released output indices are strictly increasing, and every
// slice becomes available after its raw slice is delivered.
func TestUniformScheduleDrivesOutputs(t *testing.T) {
	proc := config.ProcessSpec{Radius: 50, GridStep: 5}
	proc.Derive()
	spec := &config.MultiSpec{
		Processes: []config.ProcessSpec{proc},
		Global: config.GlobalSpec{
			SchedMode: config.SchedulerUniform, ZUniformStep: 10, ZEpsilon: 0.1,
			SliceUpwards: true,
		},
	}

	sched, err := NewScheduler(spec, 0, 20)
	require.NoError(t, err)
	require.Len(t, sched.Input, 3) // z = 0, 10, 20

	for range sched.RM.RawZs {
		sched.DeliverRawSlice(squareSlice(1000))
		require.NoError(t, sched.ComputeNextInputSlices())
	}

	last := -1
	for {
		rst, ok := sched.GiveNextOutputSlice()
		if !ok {
			break
		}
		require.Greater(t, sched.OutputIdx-1, last)
		last = sched.OutputIdx - 1
		require.NotNil(t, rst)
	}
	require.Equal(t, len(sched.Output)-1, last)
}

// TestScheduleInterleaving grounds spec.md §8 scenario 5: two tools with
// sliceHeight 100 (coarse) and 25 (fine); the recursive schedule starts
// with the coarse tool at zmin.
func TestScheduleInterleaving(t *testing.T) {
	coarse := config.ProcessSpec{Radius: 50, GridStep: 5, Profile: config.ConstantProfile{Radius: 50, Semiheight: 50, Slh: 100}}
	fine := config.ProcessSpec{Radius: 10, GridStep: 1, Profile: config.ConstantProfile{Radius: 10, Semiheight: 12, Slh: 25}}
	coarse.Derive()
	fine.Derive()
	spec := &config.MultiSpec{
		Processes: []config.ProcessSpec{coarse, fine},
		Global:    config.GlobalSpec{SchedMode: config.SchedulerAuto, ZEpsilon: 0.1, SliceUpwards: true},
	}

	inputs, err := BuildSchedule(spec, 0, 300)
	require.NoError(t, err)
	require.NotEmpty(t, inputs)
	require.Equal(t, 0, inputs[0].NTool)
	require.InDelta(t, 0.0, inputs[0].Z, 1e-9)
}
