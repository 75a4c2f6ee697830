// Command multires is the CLI front-end for the multi-resolution
// toolpath planner of spec.md §6: it reads a YAML configuration, drives
// the mesh-slicer subprocess for raw cross-sections, runs those through
// the scheduler, and writes the resulting contours/toolpaths to a
// paths-file (and optionally a debug DXF dump).
package main

import (
	"fmt"
	"os"

	"github.com/jdfr/multires/internal/config"
)

func main() {
	args, err := config.ExpandResponseFiles(os.Args[1:], 0)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	root := newRootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
