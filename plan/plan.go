// Package plan holds the Plan data model and reconstructs it from a
// solver's variable assignment, then derives its dataflow and halo
// geometry.
package plan

import "github.com/stencil-opt/stencil-opt/stencil"

// Plan is the tiled execution plan produced by the optimizer.
type Plan struct {
	// Tiling is the level-0 tiling (NX0,NY0,NZ0); always (1,1,1) in
	// this system — a single outer subdomain per process.
	Tiling [3]int

	Groups []*Group

	// Objective is the solver's reported cost, in milliseconds.
	Objective float64

	// Inputs, Outputs, Temporaries are the program-level data-flow sets
	// of the whole tiling tree, computed by ComputeDataflow.
	Inputs      []string
	Outputs     []string
	Temporaries []string
}

// Group is a set of stencils fused into one loop nest. It holds a
// nested list of subgroups sharing the group's tile geometry.
type Group struct {
	ID int

	Subgroups []*Subgroup

	Inputs      []string
	Outputs     []string
	Temporaries []string

	// Loops gives each member stencil's redundant-compute bounding box,
	// aggregated across the group's subgroups.
	Loops map[string]stencil.Box

	// Halos gives, per group output, the outer/inner halo-exchange
	// ranges; empty halos are dropped.
	Halos map[string]stencil.Halo
}

// Subgroup is a cache tile within a Group: a tile geometry (NX,NY,NZ)
// and the ordered list of stencils it fuses.
type Subgroup struct {
	ID int

	NX, NY, NZ int

	// Stencils is the ordered list of stencil names fused into this
	// subgroup, in sequence order.
	Stencils []string

	Inputs      []string
	Outputs     []string
	Temporaries []string

	Loops map[string]stencil.Box
	Halos map[string]stencil.Halo
}

// HasWork reports whether the group has any redundant-compute loops to
// execute — used by the Scheduler to decide whether to emit a COMP
// event. The prepended dummy root group is the only group with an
// empty Loops map.
func (g *Group) HasWork() bool {
	return len(g.Loops) > 0
}

// HasHalos reports whether the group requires any halo exchange.
func (g *Group) HasHalos() bool {
	return len(g.Halos) > 0
}
