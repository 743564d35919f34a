package plan

import (
	"testing"

	"github.com/stencil-opt/stencil-opt/stencil"
)

func twoStencilProgram() *stencil.Program {
	p := &stencil.Program{
		Name: "pair",
		Stencils: map[string]*stencil.Stencil{
			"A": {Name: "A", Body: "in(i-1,j,k) + in(i+1,j,k)"},
			"B": {Name: "B", Body: "A(i,j-1,k) + A(i,j+1,k)"},
		},
		Outputs:   []string{"B"},
		Constants: []string{"in"},
		Domain:    [3]int{32, 32, 16},
		Halo:      [3]int{3, 3, 3},
		Machine:   stencil.MachineSpec{Cores: 8, CacheCapacity: 1 << 20},
	}
	if err := stencil.Analyze(p); err != nil {
		panic(err)
	}
	p.Sequence = []string{"A", "B"}
	return p
}

func TestReconstructSingleGroup(t *testing.T) {
	p := twoStencilProgram()
	assignment := Assignment{
		"g%0": 0, "g%1": 0,
		"n%x0": 2, "n%y0": 2, "n%z0": 1,
		"n%x1": 2, "n%y1": 2, "n%z1": 1,
	}

	pl, err := Reconstruct(p, assignment, 12.5)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	if len(pl.Groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(pl.Groups))
	}
	sub := pl.Groups[0].Subgroups[0]
	if got := sub.Stencils; len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Errorf("expected group to contain [A B], got %v", got)
	}
	if sub.NX != 2 || sub.NY != 2 || sub.NZ != 1 {
		t.Errorf("expected tile counts (2,2,1), got (%d,%d,%d)", sub.NX, sub.NY, sub.NZ)
	}
	if pl.Objective != 12.5 {
		t.Errorf("expected objective 12.5, got %v", pl.Objective)
	}
}

func TestReconstructTwoGroups(t *testing.T) {
	p := twoStencilProgram()
	assignment := Assignment{
		"g%0": 0, "g%1": 1,
		"n%x0": 1, "n%y0": 1, "n%z0": 1,
		"n%x1": 4, "n%y1": 4, "n%z1": 2,
	}

	pl, err := Reconstruct(p, assignment, 20)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	if len(pl.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(pl.Groups))
	}
	if pl.Groups[0].Subgroups[0].Stencils[0] != "A" {
		t.Errorf("expected group 0 to contain A")
	}
	if pl.Groups[1].Subgroups[0].Stencils[0] != "B" {
		t.Errorf("expected group 1 to contain B")
	}
}

func TestReconstructDetectsTileMismatch(t *testing.T) {
	p := twoStencilProgram()
	assignment := Assignment{
		"g%0": 0, "g%1": 0,
		"n%x0": 2, "n%y0": 2, "n%z0": 1,
		"n%x1": 3, "n%y1": 2, "n%z1": 1,
	}
	if _, err := Reconstruct(p, assignment, 1); err == nil {
		t.Error("expected ErrGroupTileMismatch, got nil")
	}
}

func TestReconstructRejectsMissingAssignment(t *testing.T) {
	p := twoStencilProgram()
	assignment := Assignment{"g%0": 0}
	if _, err := Reconstruct(p, assignment, 1); err == nil {
		t.Error("expected error for missing assignment, got nil")
	}
}
