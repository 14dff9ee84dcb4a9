// Copyright 2024 Scott Lawson scottlawsonbc@gmail.com. All rights reserved.

// Command reconstructcli loads a scene fixture, solves it, and prints a
// diagnostic summary. It is the worked example spec.md §6 implies a library
// of this shape wants: a thin driver over package reconstruct, not a
// reimplementation of it.
//
// Scene fixtures are plain JSON encodings of scene.Scene. Every type that
// hangs off it (WorldPoint, Viewpoint, Constraint, and so on) is an
// ordinary struct of exported fields, so encoding/json round-trips a Scene
// with no custom (Un)MarshalJSON and no interface-type registry: Constraint
// is already a flat tagged sum (Kind plus one field group per variant), so
// the registry phys/json.go needs for its open set of Shape/Material
// implementations has nothing to do here.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/scottlawsonbc/reconstruct"
	"github.com/scottlawsonbc/reconstruct/diagnostic"
	"github.com/scottlawsonbc/reconstruct/scene"
	"gopkg.in/yaml.v3"
)

// cliOptions is the YAML-facing mirror of reconstruct.Options. Only the
// fields meaningful from a command line are exposed; AbortFlag and
// LockedCameras are programmatic-only and have no flag/YAML surface.
type cliOptions struct {
	MaxIterations      int     `yaml:"max_iterations"`
	Tolerance          float64 `yaml:"tolerance"`
	DampingInitial     float64 `yaml:"damping_initial"`
	OptimizeIntrinsics bool    `yaml:"optimize_intrinsics"`
	Verbose            bool    `yaml:"verbose"`
	RobustKernel       bool    `yaml:"robust_kernel"`
	HuberDelta         float64 `yaml:"huber_delta"`
}

func (c cliOptions) toReconstruct() reconstruct.Options {
	opt := reconstruct.DefaultOptions()
	if c.MaxIterations != 0 {
		opt.MaxIterations = c.MaxIterations
	}
	if c.Tolerance != 0 {
		opt.Tolerance = c.Tolerance
	}
	if c.DampingInitial != 0 {
		opt.DampingInitial = c.DampingInitial
	}
	if c.HuberDelta != 0 {
		opt.HuberDelta = c.HuberDelta
	}
	opt.OptimizeIntrinsics = c.OptimizeIntrinsics
	opt.Verbose = c.Verbose
	opt.RobustKernel = c.RobustKernel
	return opt
}

func loadScene(path string) (*scene.Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene file: %w", err)
	}
	s := scene.New()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse scene JSON: %w", err)
	}
	return s, nil
}

func loadOptions(path string) (cliOptions, error) {
	var c cliOptions
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read options file: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parse options YAML: %w", err)
	}
	return c, nil
}

func main() {
	scenePath := flag.String("scene", "", "path to a scene fixture (JSON)")
	optionsPath := flag.String("options", "", "path to a solver options file (YAML), optional")
	outPath := flag.String("out", "", "path to write the solved scene (JSON), optional")
	verbose := flag.Bool("verbose", false, "log each pipeline stage")
	flag.Parse()

	if *scenePath == "" {
		log.Fatal("reconstructcli: -scene is required")
	}

	s, err := loadScene(*scenePath)
	if err != nil {
		log.Fatalf("reconstructcli: %v", err)
	}

	cliOpt, err := loadOptions(*optionsPath)
	if err != nil {
		log.Fatalf("reconstructcli: %v", err)
	}
	opt := cliOpt.toReconstruct()
	if *verbose {
		opt.Verbose = true
	}

	sess, err := reconstruct.NewSession(s, opt, nil)
	if err != nil {
		log.Fatalf("reconstructcli: %v", err)
	}

	result, err := sess.Solve(context.Background())
	if err != nil {
		log.Fatalf("reconstructcli: solve failed: %v", err)
	}

	for _, line := range result.Log {
		fmt.Println(line)
	}
	printReport(result.Diagnostics)

	if *outPath != "" {
		if err := writeScene(*outPath, s); err != nil {
			log.Fatalf("reconstructcli: %v", err)
		}
	}
}

func printReport(r *diagnostic.Report) {
	fmt.Printf("converged=%v iterations=%d final_residual=%g\n", r.Converged, r.Iterations, r.FinalResidual)
	if len(r.CamerasFailed) > 0 {
		fmt.Printf("cameras failed to initialize: %v\n", r.CamerasFailed)
	}
	if len(r.UnreliableCameras) > 0 {
		fmt.Printf("unreliable cameras: %v\n", r.UnreliableCameras)
	}
	if len(r.IsolatedPoints) > 0 {
		fmt.Printf("isolated points: %v\n", r.IsolatedPoints)
	}
	if len(r.CheiralityViolations) > 0 {
		fmt.Printf("cheirality violations: %d\n", len(r.CheiralityViolations))
	}
	worst := r.MostSevere()
	fmt.Printf("constraints: %d evaluated, most severe=%s\n", len(r.ConstraintResiduals), worst)
	for _, cr := range r.ConstraintResiduals {
		if cr.Severity == diagnostic.SeverityNone {
			continue
		}
		fmt.Printf("  %s %s: residual=%g relative=%.4f severity=%s\n", cr.ID, cr.Kind, cr.Residual, cr.Relative, cr.Severity)
	}
}

func writeScene(path string, s *scene.Scene) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal solved scene: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write solved scene: %w", err)
	}
	return nil
}
