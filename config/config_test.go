package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempYAML(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "program.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing temp yaml: %v", err)
	}
	return path
}

const minimalProgram = `
name: pair
stencils:
  A:
    body: "in(i-1,j,k) + in(i+1,j,k)"
  B:
    body: "A(i,j-1,k) + A(i,j+1,k)"
outputs: [B]
constants: [in]
domain: [32, 32, 16]
machine:
  cores: 8
  cache_capacity_bytes: 1048576
memory_coeffs:
  rw_body: 1
  st_body: 1
  rw_peel: 2
  st_peel: 2
cache_coeffs:
  body: 1
  peel: 2
overlap: 0.5
slack:
  size: 0.1
  cores: 0.1
`

func TestLoadFillsStencilNamesFromMapKeys(t *testing.T) {
	path := writeTempYAML(t, minimalProgram)
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Stencils["A"].Name != "A" || p.Stencils["B"].Name != "B" {
		t.Errorf("expected stencil names filled from map keys, got %q, %q", p.Stencils["A"].Name, p.Stencils["B"].Name)
	}
}

func TestLoadAppliesDefaultHalo(t *testing.T) {
	path := writeTempYAML(t, minimalProgram)
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Halo != [3]int{3, 3, 3} {
		t.Errorf("expected default halo (3,3,3), got %v", p.Halo)
	}
}

func TestLoadPreservesExplicitHalo(t *testing.T) {
	path := writeTempYAML(t, minimalProgram+"\nhalo: [2, 2, 2]\n")
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Halo != [3]int{2, 2, 2} {
		t.Errorf("expected explicit halo (2,2,2) to survive defaulting, got %v", p.Halo)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeTempYAML(t, minimalProgram+"\nbogus_field: 1\n")
	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown field, got nil")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/program.yaml"); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}
