package stencil

import (
	"regexp"
	"strconv"
	"strings"
)

// accessPattern matches identifier(i[±d], j[±d], k[±d]) accesses.
// Each coordinate is an axis letter optionally followed by a
// signed single decimal digit; a missing offset means 0.
var accessPattern = regexp.MustCompile(
	`(\w+)\(` +
		`\s*i+(\s*[+-]\s*\d)?\s*,` +
		`\s*j+(\s*[+-]\s*\d)?\s*,` +
		`\s*k+(\s*[+-]\s*\d)?\s*\)`,
)

// ParseAccesses extracts the (array, offset) access tuples from an
// opaque stencil body. Malformed access expressions are silently
// ignored (the grammar only matches well-formed ones); this never
// fails.
//
// The historical "k88" spelling is folded to "k8" before offset
// extraction: both name the same external constant array, never a
// semantically distinct one.
func ParseAccesses(body string) map[string]map[Offset]struct{} {
	accesses := make(map[string]map[Offset]struct{})
	for _, m := range accessPattern.FindAllStringSubmatch(body, -1) {
		name := normalizeArrayName(m[1])
		off := Offset{
			DI: parseSignedDigit(m[2]),
			DJ: parseSignedDigit(m[3]),
			DK: parseSignedDigit(m[4]),
		}
		set, ok := accesses[name]
		if !ok {
			set = make(map[Offset]struct{})
			accesses[name] = set
		}
		set[off] = struct{}{}
	}
	return accesses
}

func normalizeArrayName(name string) string {
	if name == "k88" {
		return "k8"
	}
	return name
}

// parseSignedDigit parses a matched offset group like " +1" or "-2"
// into its integer value; an empty group means 0.
func parseSignedDigit(group string) int {
	group = strings.ReplaceAll(group, " ", "")
	if group == "" {
		return 0
	}
	v, err := strconv.Atoi(group)
	if err != nil {
		// Unreachable given the regex's fixed grammar, but malformed
		// input is never fatal: treat as no offset.
		return 0
	}
	return v
}
