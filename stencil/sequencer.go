package stencil

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/katalvlaran/lvlath/core"
	"github.com/katalvlaran/lvlath/dfs"
)

// ErrSequenceNotPermutation and ErrSequenceViolatesDeps are the fatal
// configuration violations for a supplied or derived sequence.
var (
	ErrSequenceNotPermutation = errors.New("stencil: sequence is not a permutation of the stencil set")
	ErrSequenceViolatesDeps   = errors.New("stencil: sequence violates a stencil dependency")
)

// SequenceKey seeds the deterministic random sequencing draw. Two calls
// to DeriveSequence with the same key and program produce identical
// sequences.
type SequenceKey int64

// DeriveSequence fills p.Sequence if absent by repeatedly picking
// uniformly at random a stencil whose every stencil-input already lies
// in the accumulated prefix, then verifies the result (supplied or
// derived) against Verify.
func DeriveSequence(p *Program, key SequenceKey) error {
	if len(p.Sequence) == 0 {
		seq, err := randomTopologicalOrder(p, key)
		if err != nil {
			return err
		}
		p.Sequence = seq
	}
	return Verify(p)
}

func randomTopologicalOrder(p *Program, key SequenceKey) ([]string, error) {
	names := p.StencilNames()
	sort.Strings(names) // deterministic base ordering before random draws
	rng := rand.New(rand.NewSource(int64(key)))

	placed := make(map[string]bool, len(names))
	sequence := make([]string, 0, len(names))

	for len(sequence) < len(names) {
		var candidates []string
		for _, name := range names {
			if placed[name] {
				continue
			}
			if readyToPlace(p, name, placed) {
				candidates = append(candidates, name)
			}
		}
		if len(candidates) == 0 {
			// Every remaining stencil has an unplaced stencil-input:
			// the dependency graph has a cycle.
			return nil, fmt.Errorf("stencil: %w", ErrSequenceViolatesDeps)
		}
		pick := candidates[rng.Intn(len(candidates))]
		sequence = append(sequence, pick)
		placed[pick] = true
	}

	if err := validateDAG(p); err != nil {
		return nil, err
	}
	return sequence, nil
}

func readyToPlace(p *Program, name string, placed map[string]bool) bool {
	s := p.Stencils[name]
	for _, in := range s.StencilInputs(p) {
		if !placed[in] {
			return false
		}
	}
	return true
}

// validateDAG builds the stencil producer/consumer graph with
// lvlath/core and runs a topological sort over it with lvlath/dfs as an
// independent cycle check, so a derived sequence is never accepted over
// a graph lvlath itself would reject.
func validateDAG(p *Program) error {
	g := core.NewGraph(core.WithDirected(true))
	for name := range p.Stencils {
		if err := g.AddVertex(name); err != nil {
			return fmt.Errorf("stencil: building dependency graph: %w", err)
		}
	}
	for name, s := range p.Stencils {
		for _, in := range s.StencilInputs(p) {
			if _, err := g.AddEdge(in, name, 0); err != nil {
				return fmt.Errorf("stencil: building dependency graph: %w", err)
			}
		}
	}
	if _, err := dfs.TopologicalSort(g); err != nil {
		if errors.Is(err, dfs.ErrCycleDetected) {
			return fmt.Errorf("stencil: %w", ErrSequenceViolatesDeps)
		}
		return fmt.Errorf("stencil: validating dependency graph: %w", err)
	}
	return nil
}

// Verify checks that p.Sequence is a permutation of the stencil set and
// that every stencil's stencil-inputs appear strictly earlier.
func Verify(p *Program) error {
	names := p.StencilNames()
	if len(p.Sequence) != len(names) {
		return ErrSequenceNotPermutation
	}
	position := make(map[string]int, len(p.Sequence))
	seen := make(map[string]bool, len(p.Sequence))
	for i, name := range p.Sequence {
		if !p.IsStencil(name) || seen[name] {
			return ErrSequenceNotPermutation
		}
		seen[name] = true
		position[name] = i
	}
	if len(seen) != len(names) {
		return ErrSequenceNotPermutation
	}
	for i, name := range p.Sequence {
		s := p.Stencils[name]
		for _, in := range s.StencilInputs(p) {
			if position[in] >= i {
				return fmt.Errorf("stencil %q depends on %q: %w", name, in, ErrSequenceViolatesDeps)
			}
		}
	}
	return nil
}

// Position returns a name->index map for a sequence, used by downstream
// components that need O(1) "does X precede Y" lookups.
func Position(sequence []string) map[string]int {
	pos := make(map[string]int, len(sequence))
	for i, name := range sequence {
		pos[name] = i
	}
	return pos
}
