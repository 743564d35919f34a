package milp

import "fmt"

// linearizeProduct emits the standard integer×binary big-M
// linearization for y = a*x: given a continuous (or integer) term
// named aTerm bounded above by limit, and a binary variable xBit, it
// constrains a fresh product variable yVar such that yVar == aTerm
// when xBit == 1 and yVar == 0 when xBit == 0:
//
//	y <= limit * x
//	y <= a
//	y >= a - limit*(1 - x)   i.e.   y - a - limit*x >= -limit
//
// This pattern recurs at least four times (tile-count products,
// tile-size products, and the peel-multiplier products below); this is
// the single shared helper.
func (e *Encoder) linearizeProduct(b *builder, yVar, aTerm, xBit string, limit float64) {
	b.lef(fmt.Sprintf("%s - %g %s", yVar, limit, xBit), 0)
	b.lef(fmt.Sprintf("%s - %s", yVar, aTerm), 0)
	b.gef(fmt.Sprintf("%s - %s - %g %s", yVar, aTerm, limit, xBit), -limit)
}

// linearizeDigitProduct expands a*x where x is represented as a binary
// digit expansion x = sum_b 2^b * xBit_b (tile counts), producing one
// product variable per digit and a final variable equal to their
// weighted sum. It returns the name of that final sum variable.
func (e *Encoder) linearizeDigitProduct(b *builder, prefix, aTerm string, digitBits []string, limit float64) string {
	sumTerms := make([]string, 0, len(digitBits))
	for bit, xBit := range digitBits {
		weight := float64(int(1) << uint(bit))
		partial := fmt.Sprintf("%s_p%d", prefix, bit)
		e.linearizeProduct(b, partial, aTerm, xBit, limit)
		sumTerms = append(sumTerms, fmt.Sprintf("%g %s", weight, partial))
	}
	total := prefix + "_total"
	b.eqDef(total, sumTerms)
	return total
}
