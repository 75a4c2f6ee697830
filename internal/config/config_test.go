package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveComputesSubstepAndSafestep(t *testing.T) {
	p := &ProcessSpec{Radius: 500, GridStep: 100}
	p.Derive()
	require.Equal(t, 50.0, p.SubStep)
	require.InDelta(t, 52.5, p.DilateStep, 1e-9)
	require.Equal(t, 500.0, p.MaxDist) // radius dominates safestep here
}

func TestValidateRejectsNonDecreasingFactors(t *testing.T) {
	ms := &MultiSpec{Processes: []ProcessSpec{{MedialAxisFactors: []float64{0.5, 0.6}}}}
	require.Error(t, ms.Validate())
}

func TestValidateAcceptsStrictlyDecreasingFactors(t *testing.T) {
	ms := &MultiSpec{Processes: []ProcessSpec{{MedialAxisFactors: []float64{0.9, 0.5, 0.1}}}}
	require.NoError(t, ms.Validate())
}

func TestLoadYAMLConfig(t *testing.T) {
	content := `
schedulerMode: uniform
useScheduler: true
processes:
  - radius: 500
    gridStep: 100
    profile:
      kind: constant
      radius: 500
      semiHeight: 50
      sliceHeight: 100
`
	path := filepath.Join(t.TempDir(), "job.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	ms, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, SchedulerUniform, ms.Global.SchedMode)
	require.Len(t, ms.Processes, 1)
	require.Equal(t, int64(500), ms.Processes[0].Radius)
	require.NotNil(t, ms.Processes[0].Profile)
}

func TestExpandResponseFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "args.txt")
	require.NoError(t, os.WriteFile(path, []byte("--foo bar\n--baz"), 0o644))

	out, err := ExpandResponseFiles([]string{"--config", "x", "@" + path}, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"--config", "x", "--foo", "bar", "--baz"}, out)
}
