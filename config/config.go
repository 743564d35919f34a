// Package config loads a Program definition from a YAML document. It
// follows a Load/SetDefaults lifecycle: strict parsing followed by a
// defaulting pass, kept separate from the optimizer core.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/stencil-opt/stencil-opt/stencil"
)

// Load reads and parses a Program definition from path, then applies
// defaults (halo widths default to 3 on each axis) and fills in each
// Stencil's Name from its map key.
func Load(path string) (*stencil.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading program: %w", err)
	}

	var p stencil.Program
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&p); err != nil {
		return nil, fmt.Errorf("config: parsing program: %w", err)
	}

	SetDefaults(&p)
	return &p, nil
}

// SetDefaults fills in fields a YAML document is allowed to omit: each
// Stencil's Name (from its map key, since YAML map values don't carry
// their key), the default halo width, and SizeOfValue's fixed constant
// is left to stencil.SizeOfValue rather than configured.
func SetDefaults(p *stencil.Program) {
	for name, s := range p.Stencils {
		if s.Name == "" {
			s.Name = name
		}
	}
	if p.Halo == ([3]int{}) {
		p.Halo = stencil.DefaultHalo
	}
}
