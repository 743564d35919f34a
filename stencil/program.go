// Package stencil defines the stencil/program data model and the
// first three optimizer stages: access parsing, dependency analysis,
// and sequencing.
package stencil

import "fmt"

// Stencil is a named operator over a 3D grid.
type Stencil struct {
	Name string `yaml:"name"`

	// Body is an opaque operator expression, used only to extract
	// grid accesses here; downstream codegen interprets it further.
	Body string `yaml:"body"`

	// Accesses maps a referenced array name to the set of (di,dj,dk)
	// offsets at which the stencil reads or writes it. Filled by Analyze
	// (via ParseAccesses).
	Accesses map[string]map[Offset]struct{} `yaml:"-"`

	// BBox is the per-array bounding box of Accesses. Filled by Analyze.
	BBox map[string]Box `yaml:"-"`

	// Fetches is 1 (write) + the number of distinct input offsets.
	// Filled by Analyze.
	Fetches int `yaml:"-"`
}

// Offset is a signed 3D grid displacement.
type Offset struct {
	DI, DJ, DK int
}

// Axis is the canonical dimension ordering used throughout the optimizer.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return fmt.Sprintf("axis(%d)", int(a))
	}
}

// MachineSpec describes the target machine: core count and last-level
// cache capacity in bytes.
type MachineSpec struct {
	Cores         int   `yaml:"cores"`
	CacheCapacity int64 `yaml:"cache_capacity_bytes"`
}

// MemoryCoeffs are the four signed seconds-per-byte×streamwidth
// coefficients driving the memory-time formulas.
type MemoryCoeffs struct {
	RWBody float64 `yaml:"rw_body"`
	STBody float64 `yaml:"st_body"`
	RWPeel float64 `yaml:"rw_peel"`
	STPeel float64 `yaml:"st_peel"`
}

// CacheCoeffs are the two cache-time coefficients.
type CacheCoeffs struct {
	Body float64 `yaml:"body"`
	Peel float64 `yaml:"peel"`
}

// Slack bounds tolerated enlargement of the tiled domain (Size) and
// tolerated idle-slot fraction across cores (Cores), both in [0,1].
type Slack struct {
	Size  float64 `yaml:"size"`
	Cores float64 `yaml:"cores"`
}

// TileBound is an externally supplied per-axis tile-count bound for one
// stencil. A positive value v means n_d >= v+1; a negative value means
// n_d <= -v-1.
type TileBound struct {
	Stencil string `yaml:"stencil"`
	Axis    Axis   `yaml:"axis"`
	Value   int    `yaml:"value"`
}

// GroupPin forces a stencil into a specific (externally chosen) group.
type GroupPin struct {
	Stencil string `yaml:"stencil"`
	Group   int    `yaml:"group"`
}

// Constraints holds optional caller-supplied pins and bounds.
type Constraints struct {
	GroupPins  []GroupPin  `yaml:"group_pins"`
	TileBounds []TileBound `yaml:"tile_bounds"`
}

// UnmarshalYAML lets Axis be written as "x"/"y"/"z" in config files
// instead of its integer encoding.
func (a *Axis) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	switch s {
	case "x":
		*a = AxisX
	case "y":
		*a = AxisY
	case "z":
		*a = AxisZ
	default:
		return fmt.Errorf("stencil: unknown axis %q", s)
	}
	return nil
}

// SizeOfValue is the fixed internal constant: bytes per grid
// element (double precision).
const SizeOfValue = 8

// DefaultHalo is the default halo width applied when a Program omits one.
var DefaultHalo = [3]int{3, 3, 3}

// Program is the optimizer's top-level immutable input (except that
// Sequence may be filled in by the Sequencer when absent).
type Program struct {
	Name string `yaml:"name"`

	Stencils map[string]*Stencil `yaml:"stencils"`

	// Outputs lists stencil names that must be materialized, in any order.
	Outputs []string `yaml:"outputs"`

	// Constants names externally supplied input arrays, never written
	// by any stencil.
	Constants []string `yaml:"constants"`

	Domain [3]int `yaml:"domain"` // (X,Y,Z)
	Halo   [3]int `yaml:"halo"`   // (HX,HY,HZ)

	Machine      MachineSpec  `yaml:"machine"`
	MemoryCoeffs MemoryCoeffs `yaml:"memory_coeffs"`
	CacheCoeffs  CacheCoeffs  `yaml:"cache_coeffs"`

	// Overlap is the fraction of memory/cache time hidden when both
	// are active, in [0,1].
	Overlap float64 `yaml:"overlap"`

	Slack Slack `yaml:"slack"`

	Constraints Constraints `yaml:"constraints"`

	// Sequence is the total order of stencil names consistent with
	// dependencies. May be supplied by the caller; derived otherwise.
	Sequence []string `yaml:"sequence"`
}

// StencilNames returns the program's stencil names, in map-iteration
// order is unspecified; callers needing determinism should sort.
func (p *Program) StencilNames() []string {
	names := make([]string, 0, len(p.Stencils))
	for name := range p.Stencils {
		names = append(names, name)
	}
	return names
}

// IsStencil reports whether name refers to a stencil in the program
// (as opposed to an external constant or other collaborator's array).
func (p *Program) IsStencil(name string) bool {
	_, ok := p.Stencils[name]
	return ok
}
