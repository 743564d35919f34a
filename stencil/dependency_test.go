package stencil

import "testing"

func sevenPointProgram() *Program {
	body := "res = in(i-1,j,k) + in(i+1,j,k) + in(i,j-1,k) + in(i,j+1,k) + in(i,j,k-1) + in(i,j,k+1) - 6.0*in(i,j,k)"
	return &Program{
		Name: "single",
		Stencils: map[string]*Stencil{
			"S": {Name: "S", Body: body},
		},
		Outputs: []string{"S"},
		Halo:    [3]int{3, 3, 3},
		Domain:  [3]int{64, 64, 60},
	}
}

func TestAnalyzeComputesBBoxAndFetches(t *testing.T) {
	p := sevenPointProgram()
	if err := Analyze(p); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	s := p.Stencils["S"]
	box, ok := s.BBox["in"]
	if !ok {
		t.Fatalf("expected bbox for array 'in', got %v", s.BBox)
	}
	want := Box{X: Range{-1, 1}, Y: Range{-1, 1}, Z: Range{-1, 1}}
	if box != want {
		t.Errorf("bbox = %+v, want %+v", box, want)
	}
	if s.Fetches != 1+7 {
		t.Errorf("fetches = %d, want %d", s.Fetches, 8)
	}
}

func TestAnalyzeRejectsEmptySubdomain(t *testing.T) {
	p := &Program{
		Stencils: map[string]*Stencil{
			"S": {Name: "S", Body: "res = in(i,j,k)"},
		},
		Halo:   [3]int{3, 3, 3},
		Domain: [3]int{64, 0, 60},
	}
	if err := Analyze(p); err == nil {
		t.Fatal("expected empty subdomain error, got nil")
	}
}

func TestAnalyzeRejectsHaloOverflow(t *testing.T) {
	p := &Program{
		Stencils: map[string]*Stencil{
			"S": {Name: "S", Body: "res = in(i+4,j,k)"},
		},
		Halo:   [3]int{3, 3, 3},
		Domain: [3]int{64, 64, 60},
	}
	if err := Analyze(p); err == nil {
		t.Fatal("expected halo overflow error, got nil")
	}
}

func TestStencilInputsExcludesExternalConstants(t *testing.T) {
	p := &Program{
		Stencils: map[string]*Stencil{
			"A": {Name: "A", Body: "res = k(i,j,k)"},
			"B": {Name: "B", Body: "res = A(i,j,k) + k(i,j,k)"},
		},
		Constants: []string{"k"},
		Halo:      [3]int{3, 3, 3},
		Domain:    [3]int{64, 64, 60},
	}
	if err := Analyze(p); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	got := p.Stencils["B"].StencilInputs(p)
	if len(got) != 1 || got[0] != "A" {
		t.Errorf("StencilInputs(B) = %v, want [A]", got)
	}
}
