package plan

import (
	"sort"

	"github.com/stencil-opt/stencil-opt/stencil"
)

// flowPair is one local write's reads/writes contribution to a
// (sub)group's data-flow classification.
type flowPair struct {
	Reads  []string
	Writes []string
}

// ComputeDataflow computes, bottom-up, each subgroup's and group's
// inputs/outputs/temporaries, then the plan-level sets over the whole
// tiling tree. The walk runs groups and subgroups in reverse sequence
// order, threading a dependency set seeded by p.Outputs: a local write
// is classified OUTPUT if it is in the current dependency set, else
// TEMP; INPUTS are local reads that are neither. Must run before
// ComputeHalo, which needs to know which accessed names are group
// outputs.
func ComputeDataflow(p *stencil.Program, pl *Plan) {
	dependencies0 := newNameSet(p.Outputs)

	for g := len(pl.Groups) - 1; g >= 0; g-- {
		group := pl.Groups[g]
		dependencies1 := cloneNameSet(dependencies0)

		for s := len(group.Subgroups) - 1; s >= 0; s-- {
			sub := group.Subgroups[s]
			pairs := make([]flowPair, len(sub.Stencils))
			for k, name := range sub.Stencils {
				pairs[k] = flowPair{Reads: p.Stencils[name].Inputs(), Writes: []string{name}}
			}
			ins, outs, temps, next := analyzeDataflow(pairs, dependencies1)
			sub.Inputs, sub.Outputs, sub.Temporaries = ins, outs, temps
			dependencies1 = next
		}

		pairs0 := make([]flowPair, len(group.Subgroups))
		for k, sub := range group.Subgroups {
			pairs0[k] = flowPair{Reads: sub.Inputs, Writes: sub.Outputs}
		}
		ins0, outs0, temps0, next0 := analyzeDataflow(pairs0, dependencies0)
		group.Inputs, group.Outputs, group.Temporaries = ins0, outs0, temps0
		dependencies0 = next0
	}

	pairsTop := make([]flowPair, len(pl.Groups))
	for k, group := range pl.Groups {
		pairsTop[k] = flowPair{Reads: group.Inputs, Writes: group.Outputs}
	}
	ins, outs, temps, _ := analyzeDataflow(pairsTop, newNameSet(p.Outputs))
	pl.Inputs, pl.Outputs, pl.Temporaries = ins, outs, temps
}

func analyzeDataflow(pairs []flowPair, dependencies map[string]struct{}) (inputs, outputs, temps []string, next map[string]struct{}) {
	local := map[string]struct{}{}
	outs := map[string]struct{}{}
	temp := map[string]struct{}{}
	for _, pr := range pairs {
		for _, r := range pr.Reads {
			local[r] = struct{}{}
		}
		for _, w := range pr.Writes {
			if _, ok := dependencies[w]; ok {
				outs[w] = struct{}{}
			} else {
				temp[w] = struct{}{}
			}
		}
	}
	ins := map[string]struct{}{}
	for name := range local {
		if _, ok := outs[name]; ok {
			continue
		}
		if _, ok := temp[name]; ok {
			continue
		}
		ins[name] = struct{}{}
	}
	next = cloneNameSet(dependencies)
	for name := range ins {
		next[name] = struct{}{}
	}
	return sortedNames(ins), sortedNames(outs), sortedNames(temp), next
}

func newNameSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

func cloneNameSet(set map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(set))
	for k := range set {
		out[k] = struct{}{}
	}
	return out
}

func sortedNames(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
