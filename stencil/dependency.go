package stencil

import (
	"errors"
	"fmt"
)

// ErrHaloOverflow is returned when a stencil's access bounding box
// exceeds the program's configured halo widths.
var ErrHaloOverflow = errors.New("stencil: access offset exceeds halo width")

// ErrEmptySubdomain is returned when a program's domain extent is not
// strictly positive along some axis: per §3's invariant
// "(X + NX0 - 1) // NX0 > 0", a non-positive domain extent can only
// ever produce an empty subdomain, at every nesting level.
var ErrEmptySubdomain = errors.New("stencil: domain extent produces an empty subdomain")

// Analyze parses s.Body and derives Accesses, BBox, and Fetches for
// every stencil in the program, after checking that the domain itself
// admits at least one non-empty subdomain.
func Analyze(p *Program) error {
	for axis, extent := range p.Domain {
		if extent <= 0 {
			return fmt.Errorf("stencil: axis %q: %w", Axis(axis), ErrEmptySubdomain)
		}
	}
	for _, s := range p.Stencils {
		s.Accesses = ParseAccesses(s.Body)
		s.BBox = make(map[string]Box, len(s.Accesses))
		fetches := 1 // the stencil's own write
		for array, offsets := range s.Accesses {
			box := BoxFromOffsets(offsets)
			s.BBox[array] = box
			fetches += len(offsets)
			if err := CheckHaloWidth(box, p.Halo); err != nil {
				return fmt.Errorf("stencil %q array %q: %w", s.Name, array, err)
			}
		}
		s.Fetches = fetches
	}
	return nil
}

// CheckHaloWidth reports ErrHaloOverflow if b's axis widths exceed the
// program's configured halo widths. Reused both for per-stencil access
// boxes (Analyze) and for redundant-compute boxes propagated across a
// group (plan.ComputeHalo), since both are "access box vs halo budget"
// checks.
func CheckHaloWidth(b Box, halo [3]int) error {
	if absMax(b.X) > halo[0] || absMax(b.Y) > halo[1] || absMax(b.Z) > halo[2] {
		return ErrHaloOverflow
	}
	return nil
}

func absMax(r Range) int {
	lo, hi := r.Low, r.High
	if lo < 0 {
		lo = -lo
	}
	if hi < 0 {
		hi = -hi
	}
	return max(lo, hi)
}

// Inputs returns the names of arrays referenced (read) by s, excluding
// its own name.
func (s *Stencil) Inputs() []string {
	names := make([]string, 0, len(s.Accesses))
	for name := range s.Accesses {
		if name == s.Name {
			continue
		}
		names = append(names, name)
	}
	return names
}

// StencilInputs returns the subset of s.Inputs() that are themselves
// stencils in p (as opposed to external constants): anything not in
// p.Stencils is classified external.
func (s *Stencil) StencilInputs(p *Program) []string {
	var out []string
	for _, in := range s.Inputs() {
		if p.IsStencil(in) {
			out = append(out, in)
		}
	}
	return out
}
