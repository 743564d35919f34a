// Package cmd wires the optimizer pipeline (package optimize) to a
// command-line surface. It is thin glue: flag parsing, program
// loading, and result printing, with no optimizer semantics of its
// own.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/stencil-opt/stencil-opt/config"
	"github.com/stencil-opt/stencil-opt/optimize"
	"github.com/stencil-opt/stencil-opt/schedule"
	"github.com/stencil-opt/stencil-opt/solver"
	"github.com/stencil-opt/stencil-opt/stencil"
)

var (
	flagOptimize bool
	flagExplore  bool
	flagAuto     bool
	flagMin      bool
	flagMax      bool
	flagGenerate bool
	flagBuild    bool
	flagParse    string
	flagFolder   string
	flagLogLevel string
	flagSolver   string
)

var rootCmd = &cobra.Command{
	Use:   "stencil-opt",
	Short: "Auto-tuning compiler for 3D iterative stencil programs",
	RunE:  runRoot,
}

// Execute runs the root command and exits 2 on flag parse failure,
// distinguishing flag-parse failures (exit 2) from pipeline failures
// (exit 1).
func Execute() {
	rootCmd.SilenceUsage = true
	rootCmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		logrus.Errorf("stencil-opt: flag error: %v", err)
		os.Exit(2)
		return err
	})
	if err := rootCmd.Execute(); err != nil {
		logrus.Errorf("stencil-opt: %v", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.Flags()
	flags.BoolVarP(&flagOptimize, "optimize", "o", false, "run the optimizer once per loaded program")
	flags.BoolVarP(&flagExplore, "explore", "e", false, "sweep the optimizer over every requested variant")
	flags.BoolVarP(&flagAuto, "auto", "a", false, "include the auto (free-fusion) variant")
	flags.BoolVarP(&flagMin, "min", "m", false, "include the min variant (every stencil its own group)")
	flags.BoolVarP(&flagMax, "max", "x", false, "include the max variant (fusion left fully free)")
	flags.BoolVarP(&flagGenerate, "generate", "g", false, "delegate to the out-of-scope code generator")
	flags.BoolVarP(&flagBuild, "build", "b", false, "delegate to the out-of-scope build driver")
	flags.StringVarP(&flagParse, "parse", "p", "", "load a single Program definition from this YAML file")
	flags.StringVarP(&flagFolder, "folder", "f", "", "load every *.yaml Program definition from this directory")
	flags.StringVar(&flagLogLevel, "log", "info", "log level (debug, info, warn, error)")
	flags.StringVar(&flagSolver, "solver", "cplex", "external MILP solver binary name")
}

func runRoot(cmd *cobra.Command, args []string) error {
	level, err := logrus.ParseLevel(flagLogLevel)
	if err != nil {
		logrus.Fatalf("stencil-opt: invalid log level %q", flagLogLevel)
	}
	logrus.SetLevel(level)

	if flagGenerate {
		logrus.Infof("stencil-opt: -g/--generate requested; code generation is out of scope, no-op")
	}
	if flagBuild {
		logrus.Infof("stencil-opt: -b/--build requested; the build driver is out of scope, no-op")
	}

	programs, err := loadPrograms()
	if err != nil {
		return err
	}
	if len(programs) == 0 {
		return fmt.Errorf("stencil-opt: no program given; pass -p/--parse <file> or -f/--folder <dir>")
	}

	variants := selectedVariants()
	driver := &solver.CPLEX{Binary: flagSolver}

	if flagExplore {
		results, err := optimize.Explore(programs, variants, driver)
		if err != nil {
			return err
		}
		for _, r := range results {
			printResult(r)
		}
		return nil
	}

	// -o/--optimize (or no explicit action flag) runs each program once
	// per selected variant, matching the original driver's single-shot
	// mode.
	for _, p := range programs {
		for _, v := range variants {
			r, err := optimize.Run(p, v, driver)
			if err != nil {
				return err
			}
			printResult(r)
		}
	}
	return nil
}

// selectedVariants reports which optimize.Variant values the caller
// asked for via -a/-m/-x, defaulting to VariantAuto when none are set.
func selectedVariants() []optimize.Variant {
	var variants []optimize.Variant
	if flagAuto {
		variants = append(variants, optimize.VariantAuto)
	}
	if flagMin {
		variants = append(variants, optimize.VariantMin)
	}
	if flagMax {
		variants = append(variants, optimize.VariantMax)
	}
	if len(variants) == 0 {
		variants = append(variants, optimize.VariantAuto)
	}
	return variants
}

// loadPrograms resolves -p/--parse and -f/--folder into a list of
// loaded Program values, in deterministic (sorted) order.
func loadPrograms() ([]*stencil.Program, error) {
	var programs []*stencil.Program

	if flagParse != "" {
		p, err := config.Load(flagParse)
		if err != nil {
			return nil, err
		}
		programs = append(programs, p)
	}

	if flagFolder != "" {
		matches, err := filepath.Glob(filepath.Join(flagFolder, "*.yaml"))
		if err != nil {
			return nil, fmt.Errorf("stencil-opt: globbing %q: %w", flagFolder, err)
		}
		sort.Strings(matches)
		for _, path := range matches {
			p, err := config.Load(path)
			if err != nil {
				return nil, err
			}
			programs = append(programs, p)
		}
	}

	return programs, nil
}

// printResult logs a one-line summary of a single (program, variant)
// optimization outcome, matching the original driver's terse
// stdout-via-log reporting of objective and group count.
func printResult(r optimize.Result) {
	if !r.Found {
		logrus.Warnf("%s/%s: no solution found", r.Program.Name, r.Variant)
		return
	}
	comp, put, wait := 0, 0, 0
	for _, e := range r.Events {
		switch e.Type {
		case schedule.COMP:
			comp++
		case schedule.PUT:
			put++
		case schedule.WAIT:
			wait++
		}
	}
	logrus.Infof("%s/%s: objective=%.3f groups=%d events(comp=%d put=%d wait=%d)",
		r.Program.Name, r.Variant, r.Plan.Objective, len(r.Plan.Groups), comp, put, wait)
}
