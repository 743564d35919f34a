// Package testutil provides shared golden-file test infrastructure:
// comparing small deterministic text renderings (parsed access sets,
// emitted LP fragments) against a checked-in expectation file.
package testutil

import (
	"os"
	"testing"
)

// AssertGolden compares got against the contents of the golden file at
// path. Set STENCIL_OPT_UPDATE_GOLDEN=1 to rewrite the golden file with
// got instead of comparing, the way one regenerates a fixture after an
// intentional behavior change.
func AssertGolden(t *testing.T, path string, got string) {
	t.Helper()

	if os.Getenv("STENCIL_OPT_UPDATE_GOLDEN") != "" {
		if err := os.WriteFile(path, []byte(got), 0o644); err != nil {
			t.Fatalf("testutil: writing golden file %q: %v", path, err)
		}
		return
	}

	want, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("testutil: reading golden file %q: %v", path, err)
	}
	if string(want) != got {
		t.Errorf("testutil: %q mismatch:\n--- want ---\n%s\n--- got ---\n%s", path, want, got)
	}
}
