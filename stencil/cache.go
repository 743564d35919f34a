package stencil

import "gonum.org/v1/gonum/mat"

// Utilization holds the per-stencil, per-prefix-start cache-utilization
// lower bound: Utilization.At(h, l) is the cardinality of the union of
// access sets of stencils at sequence positions l..h, for
// l <= h. It is backed by a lower-triangular matrix indexed by sequence
// position, since that is the shape the quantity naturally has.
type Utilization struct {
	table *mat.Dense
	n     int
}

// At returns utilization[sequence[h]][l], valid for 0 <= l <= h < n.
func (u *Utilization) At(h, l int) int {
	return int(u.table.At(h, l))
}

// ComputeUtilization computes the cache-utilization table over p's
// sequence: for each stencil S at position h and each position l <= h,
// the cardinality of
// the union of access sets of stencils at positions l..h, where each
// stencil's access set is {its inputs} union {itself}.
func ComputeUtilization(p *Program) *Utilization {
	n := len(p.Sequence)
	table := mat.NewDense(n, n, nil)

	accessSets := make([]map[string]struct{}, n)
	for i, name := range p.Sequence {
		s := p.Stencils[name]
		set := make(map[string]struct{}, len(s.Accesses)+1)
		set[name] = struct{}{}
		for _, in := range s.Inputs() {
			set[in] = struct{}{}
		}
		accessSets[i] = set
	}

	for h := 0; h < n; h++ {
		union := make(map[string]struct{})
		for l := h; l >= 0; l-- {
			for name := range accessSets[l] {
				union[name] = struct{}{}
			}
			table.Set(h, l, float64(len(union)))
		}
	}

	return &Utilization{table: table, n: n}
}
