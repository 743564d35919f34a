package milp

import (
	"strings"
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
		MemoryCoeffs: stencil.MemoryCoeffs{
			RWBody: 1, STBody: 1, RWPeel: 2, STPeel: 2,
		},
		CacheCoeffs: stencil.CacheCoeffs{Body: 1, Peel: 2},
		Overlap:     0.5,
		Slack:       stencil.Slack{Size: 0.1, Cores: 0.1},
	}
	if err := stencil.Analyze(p); err != nil {
		panic(err)
	}
	p.Sequence = []string{"A", "B"}
	return p
}

func TestEncodeProducesWellFormedLP(t *testing.T) {
	p := twoStencilProgram()
	u := stencil.ComputeUtilization(p)

	out, err := NewEncoder(p, u).Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	for _, section := range []string{"Minimize\n", "Subject To\n", "General\n", "Binary\n", "End\n"} {
		if !strings.Contains(out, section) {
			t.Errorf("missing section %q in output", section)
		}
	}
	if strings.Contains(out, "- -") {
		t.Errorf("unresolved double-negative in output:\n%s", out)
	}
	if !strings.Contains(out, "g%0") {
		t.Errorf("expected group variable g%%0 in output")
	}
	if !strings.Contains(out, "t%0") || !strings.Contains(out, "t%1") {
		t.Errorf("expected objective time terms t%%0 and t%%1 in output")
	}
}

func TestEncodeRejectsEmptySequence(t *testing.T) {
	p := twoStencilProgram()
	p.Sequence = nil
	u := stencil.ComputeUtilization(p)
	if _, err := NewEncoder(p, u).Encode(); err == nil {
		t.Error("expected error for empty sequence, got nil")
	}
}

func TestEncodeAppliesGroupPin(t *testing.T) {
	p := twoStencilProgram()
	p.Constraints.GroupPins = []stencil.GroupPin{{Stencil: "B", Group: 2}}
	u := stencil.ComputeUtilization(p)

	out, err := NewEncoder(p, u).Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(out, "g%1 = 2") {
		t.Errorf("expected pinned group constraint for B (position 1), got:\n%s", out)
	}
}

func TestEncodeAppliesTileBound(t *testing.T) {
	p := twoStencilProgram()
	p.Constraints.TileBounds = []stencil.TileBound{{Stencil: "A", Axis: stencil.AxisX, Value: 3}}
	u := stencil.ComputeUtilization(p)

	out, err := NewEncoder(p, u).Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(out, "n%x0 >= 4") {
		t.Errorf("expected tile bound n%%x0 >= 4 for A (position 0), got:\n%s", out)
	}
}

func TestLinearizeDigitProductSumsWeightedPartials(t *testing.T) {
	e := &Encoder{}
	b := newBuilder()
	total := e.linearizeDigitProduct(b, "test", "a%0", []string{"bit0", "bit1"}, 10)
	if total != "test_total" {
		t.Errorf("total = %q, want test_total", total)
	}
	if _, ok := b.general["test_total"]; !ok {
		t.Errorf("expected test_total declared general")
	}
	rendered := b.render([]string{"test_total"})
	if !strings.Contains(rendered, "test_p0") || !strings.Contains(rendered, "test_p1") {
		t.Errorf("expected per-bit partials in rendered output:\n%s", rendered)
	}
}
