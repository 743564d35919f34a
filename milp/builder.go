package milp

import (
	"fmt"
	"sort"
	"strings"
)

// builder assembles the textual LP program: a Minimize section, a
// Subject To section of linear (in)equalities, and General/Binary
// declaration sections, in the classic LP file grammar.
type builder struct {
	constraints strings.Builder
	general     map[string]struct{}
	binary      map[string]struct{}
	nextLabel   int
}

func newBuilder() *builder {
	return &builder{
		general: make(map[string]struct{}),
		binary:  make(map[string]struct{}),
	}
}

func (b *builder) label() string {
	b.nextLabel++
	return fmt.Sprintf("c%d", b.nextLabel)
}

// lef emits "expr <= rhs".
func (b *builder) lef(expr string, rhs float64) {
	fmt.Fprintf(&b.constraints, "%s: %s <= %g\n", b.label(), expr, rhs)
}

// gef emits "expr >= rhs".
func (b *builder) gef(expr string, rhs float64) {
	fmt.Fprintf(&b.constraints, "%s: %s >= %g\n", b.label(), expr, rhs)
}

// eqf emits "expr = rhs".
func (b *builder) eqf(expr string, rhs float64) {
	fmt.Fprintf(&b.constraints, "%s: %s = %g\n", b.label(), expr, rhs)
}

// eqDef emits "name - (term1 + term2 + ...) = 0", defining name as the
// sum of terms.
func (b *builder) eqDef(name string, terms []string) {
	if len(terms) == 0 {
		b.eqf(name, 0)
		return
	}
	b.declareGeneral(name)
	b.eqf(fmt.Sprintf("%s - %s", name, strings.Join(terms, " - ")), 0)
}

func (b *builder) declareGeneral(name string) {
	b.general[name] = struct{}{}
}

func (b *builder) declareBinary(name string) {
	b.binary[name] = struct{}{}
}

// render produces the final LP text with a "- -" -> "+ " post-pass:
// the emission logic above can produce textual double-negatives (e.g.
// subtracting a negative coefficient term), and a cheap textual
// fix-up is applied once at the end rather than tracked through every
// call site.
func (b *builder) render(objectiveTerms []string) string {
	var out strings.Builder

	out.WriteString("Minimize\n")
	out.WriteString(" obj: " + strings.Join(objectiveTerms, " + ") + "\n")

	out.WriteString("Subject To\n")
	out.WriteString(b.constraints.String())

	if len(b.general) > 0 {
		out.WriteString("General\n")
		for _, name := range sortedKeys(b.general) {
			fmt.Fprintf(&out, " %s\n", name)
		}
	}

	if len(b.binary) > 0 {
		out.WriteString("Binary\n")
		for _, name := range sortedKeys(b.binary) {
			fmt.Fprintf(&out, " %s\n", name)
		}
	}

	out.WriteString("End\n")

	return strings.ReplaceAll(out.String(), "- -", "+ ")
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
