package plan

import (
	"fmt"

	"github.com/stencil-opt/stencil-opt/stencil"
)

var zeroBox = stencil.Box{}

// ComputeHalo computes, per group, the redundant-compute bounding box of
// every member stencil (Loops) and the halo-exchange ranges for every
// group output (Halos), then prepends a dummy root group capturing the
// plan's external halo requirements and renumbers every group/subgroup
// ID sequentially across the whole plan. Must run after ComputeDataflow.
// Mirrors compute_boundaries/analyze_boundary.
func ComputeHalo(p *stencil.Program, pl *Plan) error {
	dependencies0 := seedDependencies(p.Outputs)

	for g := len(pl.Groups) - 1; g >= 0; g-- {
		group := pl.Groups[g]
		dependencies1 := seedDependencies(group.Outputs)

		for s := len(group.Subgroups) - 1; s >= 0; s-- {
			sub := group.Subgroups[s]
			pairs := make([]stencilOffsetPair, len(sub.Stencils))
			for k, name := range sub.Stencils {
				pairs[k] = stencilOffsetPair{Name: name, BBox: p.Stencils[name].BBox}
			}
			var err error
			sub.Loops, sub.Halos, dependencies1, err = analyzeBoundary(p, pairs, sub.Inputs, sub.Outputs, dependencies1)
			if err != nil {
				return fmt.Errorf("plan: subgroup %d: %w", sub.ID, err)
			}
		}

		var groupPairs []stencilOffsetPair
		for _, sub := range group.Subgroups {
			for _, name := range sub.Stencils {
				groupPairs = append(groupPairs, stencilOffsetPair{Name: name, BBox: p.Stencils[name].BBox})
			}
		}
		var err error
		group.Loops, group.Halos, dependencies0, err = analyzeBoundary(p, groupPairs, group.Inputs, group.Outputs, dependencies0)
		if err != nil {
			return fmt.Errorf("plan: group %d: %w", group.ID, err)
		}
	}

	dummy := &Group{Loops: map[string]stencil.Box{}, Halos: map[string]stencil.Halo{}}
	for _, name := range pl.Inputs {
		box, ok := dependencies0[name]
		if !ok {
			box = zeroBox
		}
		halo := stencil.ComputeHalo(box, zeroBox)
		if !halo.Empty() {
			dummy.Halos[name] = halo
		}
	}
	pl.Groups = append([]*Group{dummy}, pl.Groups...)

	renumberIDs(pl)
	return nil
}

// stencilOffsetPair is one stencil's name and per-array access boxes, as
// analyzed by stencil.Analyze.
type stencilOffsetPair struct {
	Name string
	BBox map[string]stencil.Box
}

// analyzeBoundary implements analyze_boundary: starting from a fresh
// accesses map seeded at a zero box for every declared output, walk
// members in reverse, growing each referenced array's redundant-compute
// box outward by the member's own box summed with its writer's box.
// Returns the per-member Loops, the non-empty Halos for outputs, and the
// updated dependency map threaded to the caller's own (outer) level.
func analyzeBoundary(p *stencil.Program, members []stencilOffsetPair, inputs, outputs []string, dependencies map[string]stencil.Box) (map[string]stencil.Box, map[string]stencil.Halo, map[string]stencil.Box, error) {
	accesses := map[string]stencil.Box{}
	for _, out := range outputs {
		accesses[out] = zeroBox
	}

	for i := len(members) - 1; i >= 0; i-- {
		m := members[i]
		writerBox, ok := accesses[m.Name]
		if !ok {
			writerBox = zeroBox
		}
		for name, offset := range m.BBox {
			contribution := stencil.Sum(offset, writerBox)
			if existing, ok := accesses[name]; ok {
				accesses[name] = stencil.OutwardMax(existing, contribution)
			} else {
				accesses[name] = contribution
			}
		}
	}

	for name, box := range accesses {
		if err := stencil.CheckHaloWidth(box, p.Halo); err != nil {
			return nil, nil, nil, fmt.Errorf("array %q: %w", name, err)
		}
	}

	loops := make(map[string]stencil.Box, len(members))
	for _, m := range members {
		loops[m.Name] = accesses[m.Name]
	}

	halos := map[string]stencil.Halo{}
	for _, out := range outputs {
		remote, ok := dependencies[out]
		if !ok {
			remote = zeroBox
		}
		halo := stencil.ComputeHalo(remote, accesses[out])
		if !halo.Empty() {
			halos[out] = halo
		}
	}

	next := cloneBoxMap(dependencies)
	for _, in := range inputs {
		local := accesses[in]
		if existing, ok := next[in]; ok {
			next[in] = stencil.OutwardMax(existing, local)
		} else {
			next[in] = local
		}
	}

	return loops, halos, next, nil
}

func seedDependencies(names []string) map[string]stencil.Box {
	out := make(map[string]stencil.Box, len(names))
	for _, n := range names {
		out[n] = zeroBox
	}
	return out
}

func cloneBoxMap(m map[string]stencil.Box) map[string]stencil.Box {
	out := make(map[string]stencil.Box, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// renumberIDs assigns sequential IDs to groups (0..) and, independently,
// to subgroups (0..) across the whole plan, matching compute_boundaries'
// global identifier0/identifier1 counters.
func renumberIDs(pl *Plan) {
	subID := 0
	for gi, group := range pl.Groups {
		group.ID = gi
		for _, sub := range group.Subgroups {
			sub.ID = subID
			subID++
		}
	}
}
