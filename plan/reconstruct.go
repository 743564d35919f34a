package plan

import (
	"errors"
	"fmt"

	"github.com/stencil-opt/stencil-opt/stencil"
)

// ErrGroupTileMismatch is returned when two stencils assigned to the
// same group disagree on tile counts: every stencil in a group must
// share one (n_x,n_y,n_z).
var ErrGroupTileMismatch = errors.New("plan: stencils sharing a group disagree on tile counts")

// Assignment is the solver's reported (variable name -> rounded integer
// value) map.
type Assignment map[string]int

// axisVarName and groupVarName reproduce the MILP encoder's variable
// naming convention (milp/names.go): '%' is a literal character to the
// LP-file grammar, not Go syntax, so the same textual convention is
// reproduced here rather than imported, matching how the solve and
// parse sides each hard-code the convention independently.
func groupVarName(i int) string         { return fmt.Sprintf("g%%%d", i) }
func axisVarName(axis string, i int) string { return fmt.Sprintf("n%%%s%d", axis, i) }

var axisNames = [3]string{"x", "y", "z"}

// Reconstruct rebuilds groups and per-group tile counts from the
// solver's variable assignment:
//  1. read g_i for each stencil to form the group index list;
//  2. read (n_x_i,n_y_i,n_z_i) to form per-subgroup tile counts,
//     asserting stencils sharing a group agree;
//  3. wrap groups into the two-level tiling tree.
func Reconstruct(p *stencil.Program, assignment Assignment, objective float64) (*Plan, error) {
	n := len(p.Sequence)
	if n == 0 {
		return nil, fmt.Errorf("plan: empty sequence")
	}

	indexes := make([]int, n)
	maxIndex := 0
	for i := range p.Sequence {
		v, ok := assignment[groupVarName(i)]
		if !ok {
			return nil, fmt.Errorf("plan: missing group assignment for position %d", i)
		}
		indexes[i] = v
		if v > maxIndex {
			maxIndex = v
		}
	}

	groups := make([]*Group, maxIndex+1)
	for idx := range groups {
		groups[idx] = &Group{ID: idx, Subgroups: []*Subgroup{{ID: idx}}}
	}
	for i, name := range p.Sequence {
		sub := groups[indexes[i]].Subgroups[0]
		sub.Stencils = append(sub.Stencils, name)

		nx, err := readTileCount(assignment, i)
		if err != nil {
			return nil, err
		}
		if sub.NX == 0 && sub.NY == 0 && sub.NZ == 0 {
			sub.NX, sub.NY, sub.NZ = nx[0], nx[1], nx[2]
		} else if sub.NX != nx[0] || sub.NY != nx[1] || sub.NZ != nx[2] {
			return nil, fmt.Errorf("plan: stencil %q: %w", name, ErrGroupTileMismatch)
		}
	}

	return &Plan{
		Tiling:    [3]int{1, 1, 1},
		Groups:    groups,
		Objective: objective,
	}, nil
}

func readTileCount(assignment Assignment, i int) ([3]int, error) {
	var out [3]int
	for axis := 0; axis < 3; axis++ {
		v, ok := assignment[axisVarName(axisNames[axis], i)]
		if !ok {
			return out, fmt.Errorf("plan: missing tile count %s for position %d", axisNames[axis], i)
		}
		out[axis] = v
	}
	return out, nil
}
