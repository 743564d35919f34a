// Package solver drives an external MILP solver process over the LP
// text emitted by package milp, and parses its solution file back into
// an assignment.
package solver

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/stencil-opt/stencil-opt/plan"
)

// Result is one solver run's outcome. Found distinguishes "the solver
// ran and proved infeasibility" (Found false, err nil) from "the solver
// couldn't be invoked at all" (err non-nil); a missing solution is an
// observable plan-less outcome, not a fatal configuration error.
type Result struct {
	Assignment plan.Assignment
	Objective  float64
	Found      bool
}

// Driver finds an assignment of MILP variable values minimizing the
// given LP-format program text. optimize.Run depends on this interface
// rather than CPLEX directly so pipeline stages can be tested against a
// fake.
type Driver interface {
	Drive(lp string) (Result, error)
}

// CPLEX drives the `cplex` interactive CLI over stdin, matching the
// original program's Popen(["cplex"], stdin=PIPE) invocation.
type CPLEX struct {
	// WorkDir holds the intermediate .lp/.sol files; defaults to the
	// OS temp dir when empty.
	WorkDir string
	// Binary names the solver executable; defaults to "cplex".
	Binary string
}

var _ Driver = (*CPLEX)(nil)

// Drive writes lp to a scratch .lp file, replaces any "- -" double
// negative left by the encoder's own textual assembly, invokes the
// solver, and parses back its .sol XML. The stale .sol from a previous
// run is removed first so a solver crash can't resurrect an old result.
func (c *CPLEX) Drive(lp string) (Result, error) {
	dir := c.WorkDir
	if dir == "" {
		dir = os.TempDir()
	}
	binary := c.Binary
	if binary == "" {
		binary = "cplex"
	}

	base := filepath.Join(dir, "stencil-opt")
	lpPath := base + ".lp"
	solPath := base + ".sol"

	cleaned := strings.ReplaceAll(lp, "- -", "+ ")
	if err := os.WriteFile(lpPath, []byte(cleaned), 0o644); err != nil {
		return Result{}, fmt.Errorf("solver: writing lp file: %w", err)
	}

	if err := os.Remove(solPath); err != nil && !os.IsNotExist(err) {
		return Result{}, fmt.Errorf("solver: removing stale solution file: %w", err)
	}

	cmd := exec.Command(binary)
	cmd.Stdin = strings.NewReader(fmt.Sprintf("read %s\nmipopt\nwrite %s\nquit\n", lpPath, solPath))
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	logrus.Infof("solver: invoking %s on %s", binary, lpPath)
	if err := cmd.Run(); err != nil {
		return Result{}, fmt.Errorf("solver: running %s: %w: %s", binary, err, stderr.String())
	}

	result, err := ParseSolution(solPath)
	if err != nil {
		return Result{}, err
	}
	if !result.Found {
		logrus.Warnf("solver: %s produced no solution file; treating as infeasible", binary)
	}
	return result, nil
}

// solutionXML mirrors the subset of CPLEX's .sol schema parsed by the
// original's xml.dom.minidom walk: a header carrying the objective
// value, and a flat list of (name,value) variables.
type solutionXML struct {
	XMLName xml.Name `xml:"CPLEXSolution"`
	Header  struct {
		ObjectiveValue string `xml:"objectiveValue,attr"`
	} `xml:"header"`
	Variables []struct {
		Name  string `xml:"name,attr"`
		Value string `xml:"value,attr"`
	} `xml:"variables>variable"`
}

// ParseSolution reads a CPLEX .sol file, rounding every variable value
// to the nearest integer, matching parse_lp's round(float(value)). A
// missing file is reported as Result{Found: false} with a nil error.
func ParseSolution(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Found: false}, nil
		}
		return Result{}, fmt.Errorf("solver: reading solution file: %w", err)
	}

	var sol solutionXML
	if err := xml.Unmarshal(data, &sol); err != nil {
		return Result{}, fmt.Errorf("solver: parsing solution xml: %w", err)
	}

	objective, err := strconv.ParseFloat(sol.Header.ObjectiveValue, 64)
	if err != nil {
		return Result{}, fmt.Errorf("solver: parsing objective value %q: %w", sol.Header.ObjectiveValue, err)
	}

	assignment := make(plan.Assignment, len(sol.Variables))
	for _, v := range sol.Variables {
		f, err := strconv.ParseFloat(v.Value, 64)
		if err != nil {
			return Result{}, fmt.Errorf("solver: parsing value of variable %q: %w", v.Name, err)
		}
		assignment[v.Name] = int(math.Round(f))
	}

	return Result{Assignment: assignment, Objective: objective, Found: true}, nil
}
