package milp

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/stencil-opt/stencil-opt/stencil"
)

// Encoder holds the state needed to emit the full LP text for a
// sequenced program.
type Encoder struct {
	p    *stencil.Program
	util *stencil.Utilization
	pos  map[string]int
	b    *builder

	digits [3]int // number of binary digits per axis, indexed by stencil.Axis
}

// NewEncoder prepares an Encoder for p, whose Sequence and per-stencil
// analysis (Accesses/BBox/Fetches) must already be populated.
func NewEncoder(p *stencil.Program, util *stencil.Utilization) *Encoder {
	e := &Encoder{
		p:    p,
		util: util,
		pos:  stencil.Position(p.Sequence),
		b:    newBuilder(),
	}
	for axis := 0; axis < 3; axis++ {
		e.digits[axis] = digitCount(p.Domain[axis])
	}
	return e
}

func digitCount(extent int) int {
	if extent <= 1 {
		return 1
	}
	return int(math.Floor(math.Log2(float64(extent)))) + 1
}

// Encode emits the complete LP program text.
func (e *Encoder) Encode() (string, error) {
	n := len(e.p.Sequence)
	if n == 0 {
		return "", fmt.Errorf("milp: empty sequence")
	}

	objTerms := e.encodeObjectiveTerms(n)
	e.encodeGroupIndices(n)
	tileSums := e.encodeTileDigits(n)
	tileCounts := e.encodeTileProducts(n, tileSums)
	e.encodeTileSizes(n, tileSums)
	e.encodeCoreUtilization(n, tileCounts)
	e.encodeGroupEquality(n, tileSums)
	rw, s := e.encodeMemoryOps(n)
	ePeel := e.encodePeelExtents(n)
	aFetch := e.encodeBoundaryFetches(n, ePeel)
	boundaryMults := e.encodeBoundaryMultiplies(n, tileSums, rw, s, ePeel, aFetch)
	e.encodeFootprint(n)
	e.encodeTimeFormulas(n, rw, s, boundaryMults)
	e.encodeExternalConstraints(n, tileSums)

	return e.b.render(objTerms), nil
}

// encodeObjectiveTerms emits Σ t_i + k·Σ n_xyz_i, where
// k = 6·(RW_BODY + ST_BODY).
func (e *Encoder) encodeObjectiveTerms(n int) []string {
	k := floats.Sum([]float64{
		6 * e.p.MemoryCoeffs.RWBody,
		6 * e.p.MemoryCoeffs.STBody,
	})
	terms := make([]string, 0, 2*n)
	for i := 0; i < n; i++ {
		terms = append(terms, tVar(i))
		terms = append(terms, fmt.Sprintf("%g %s", k, nxyzVar(i)))
	}
	return terms
}

// encodeGroupIndices emits the g_i integer declarations and the
// g_l#h binaries forced to 1 whenever g_h != g_l.
func (e *Encoder) encodeGroupIndices(n int) {
	e.b.declareGeneral(gVar(0))
	e.b.eqf(gVar(0), 0)
	for i := 1; i < n; i++ {
		e.b.declareGeneral(gVar(i))
		e.b.gef(fmt.Sprintf("%s - %s", gVar(i), gVar(i-1)), 0)
		e.b.lef(fmt.Sprintf("%s - %s", gVar(i), gVar(i-1)), 1)
	}
	for h := 0; h < n; h++ {
		for l := 0; l < h; l++ {
			e.b.declareBinary(gPairVar(l, h))
			e.b.lef(fmt.Sprintf("%d %s + %s - %s", -n, gPairVar(l, h), gVar(h), gVar(l)), 0)
		}
	}
}

// tileDigitSet holds the per-stencil, per-axis binary digit variable
// names n%d_i_b; the sum variable n%d_i = Σ 2^b n%d_i_b is named by nVar.
type tileDigitSet struct {
	bits [3][]string // per axis, per bit
}

// encodeTileDigits declares the binary digit expansion of each
// stencil's per-axis tile count and bounds 1 <= n_d_i <= D_d.
func (e *Encoder) encodeTileDigits(n int) []tileDigitSet {
	sets := make([]tileDigitSet, n)
	for i := 0; i < n; i++ {
		var set tileDigitSet
		for axis := 0; axis < 3; axis++ {
			axisName := axisNames[axis]
			digits := e.digits[axis]
			bits := make([]string, digits)
			terms := make([]string, digits)
			for bit := 0; bit < digits; bit++ {
				v := nDigitVar(axisName, i, bit)
				e.b.declareBinary(v)
				bits[bit] = v
				terms[bit] = fmt.Sprintf("%g %s", float64(int(1)<<uint(bit)), v)
			}
			set.bits[axis] = bits
			e.b.declareGeneral(nVar(axisName, i))
			e.b.eqf(nVar(axisName, i)+" - "+joinTerms(terms), 0)
			e.b.gef(nVar(axisName, i), 1)
			e.b.lef(nVar(axisName, i), float64(e.p.Domain[axis]))
		}
		sets[i] = set
	}
	return sets
}

func joinTerms(terms []string) string {
	out := terms[0]
	for _, t := range terms[1:] {
		out += " - " + t
	}
	return out
}

// scaledTerm renders "coef var" for use inside joinTerms: every term it
// produces ends up fully subtracted by joinTerms, never partially so.
func scaledTerm(coef float64, v string) string {
	return fmt.Sprintf("%g %s", coef, v)
}

// encodeTileProducts derives n_xy_i = n_x_i * n_y_i and
// n_xyz_i = n_xy_i * n_z_i via the shared digit-product linearization.
func (e *Encoder) encodeTileProducts(n int, sets []tileDigitSet) [][3]string {
	counts := make([][3]string, n) // per stencil: {n_x, n_y, n_z} variable names (aliases into sets)
	for i := 0; i < n; i++ {
		dx, dy, dz := e.p.Domain[0], e.p.Domain[1], e.p.Domain[2]

		nxy := e.linearizeDigitProduct(e.b, nxyVar(i)+"_enc", nVar("x", i), sets[i].bits[1], float64(dx*dy))
		e.b.declareGeneral(nxyVar(i))
		e.b.eqf(nxyVar(i)+" - "+nxy, 0)

		nxyz := e.linearizeDigitProduct(e.b, nxyzVar(i)+"_enc", nxyVar(i), sets[i].bits[2], float64(dx*dy*dz))
		e.b.declareGeneral(nxyzVar(i))
		e.b.eqf(nxyzVar(i)+" - "+nxyz, 0)

		counts[i] = [3]string{nVar("x", i), nVar("y", i), nVar("z", i)}
	}
	return counts
}

// encodeTileSizes derives d_d_i = n_d_i * y_d_i, constrained so the
// effective tiled domain may exceed the requested one by at most
// slack.Size.
func (e *Encoder) encodeTileSizes(n int, sets []tileDigitSet) {
	for i := 0; i < n; i++ {
		for axis := 0; axis < 3; axis++ {
			axisName := axisNames[axis]
			extent := e.p.Domain[axis]
			e.b.declareGeneral(yVar(axisName, i))

			d := e.linearizeDigitProduct(e.b, dVar(axisName, i)+"_enc", yVar(axisName, i), sets[i].bits[axis], float64(extent*extent))
			e.b.declareGeneral(dVar(axisName, i))
			e.b.eqf(dVar(axisName, i)+" - "+d, 0)

			e.b.gef(dVar(axisName, i), float64(extent))
			e.b.lef(fmt.Sprintf("%g %s", 1-e.p.Slack.Size, dVar(axisName, i)), float64(extent))
		}
	}
}

// encodeCoreUtilization bounds every group's tile count against the
// machine's core count, tolerating at most slack.Cores idle-slot
// fraction.
func (e *Encoder) encodeCoreUtilization(n int, _ [][3]string) {
	cores := float64(e.p.Machine.Cores)
	for i := 0; i < n; i++ {
		e.b.declareGeneral(xVar(i))
		e.b.lef(fmt.Sprintf("%g %s - %s", (1-e.p.Slack.Cores)*cores, xVar(i), nxyzVar(i)), 0)
		e.b.lef(fmt.Sprintf("%s - %g %s", nxyzVar(i), cores, xVar(i)), 0)
		e.b.gef(nxyzVar(i), cores)
	}
}

// encodeGroupEquality forces digit equality between consecutive
// positions unless the group changes.
func (e *Encoder) encodeGroupEquality(n int, sets []tileDigitSet) {
	for h := 1; h < n; h++ {
		l := h - 1
		for axis := 0; axis < 3; axis++ {
			for bit := range sets[h].bits[axis] {
				hv, lv := sets[h].bits[axis][bit], sets[l].bits[axis][bit]
				e.b.gef(fmt.Sprintf("%s - %s + %s - %s", hv, lv, gVar(h), gVar(l)), 0)
				e.b.lef(fmt.Sprintf("%s - %s + %s - %s", hv, lv, gVar(h), gVar(l)), 0)
			}
		}
	}
}

// lastTouch returns the greatest position < before at which array is
// either produced (position's stencil name == array) or consumed
// (array appears in that stencil's inputs): the most recent
// earlier occurrence, whether as producer or consumer.
func (e *Encoder) lastTouch(array string, before int) (int, bool) {
	for q := before - 1; q >= 0; q-- {
		name := e.p.Sequence[q]
		if name == array {
			return q, true
		}
		s := e.p.Stencils[name]
		if _, ok := s.Accesses[array]; ok {
			return q, true
		}
	}
	return 0, false
}

// lastConsumer returns the greatest position > after at which array is
// consumed, used by the writer-flag constraint.
func (e *Encoder) lastConsumer(array string, after int) (int, bool) {
	best, found := -1, false
	for q := after + 1; q < len(e.p.Sequence); q++ {
		name := e.p.Sequence[q]
		s := e.p.Stencils[name]
		if _, ok := s.Accesses[array]; ok {
			best, found = q, true
		}
	}
	return best, found
}

// encodeMemoryOps counts reads (r_i), writes (w_i), combined traffic
// (rw_i) and stream counts (s_i).
func (e *Encoder) encodeMemoryOps(n int) (rw, s []string) {
	rw = make([]string, n)
	s = make([]string, n)
	for i := 0; i < n; i++ {
		name := e.p.Sequence[i]
		st := e.p.Stencils[name]
		inputs := st.Inputs()
		sort.Strings(inputs)

		rTerms := make([]string, 0, len(inputs))
		for _, a := range inputs {
			rVarName := rVar(i, a)
			e.b.declareBinary(rVarName)
			if last, ok := e.lastTouch(a, i); ok {
				e.b.gef(fmt.Sprintf("%s - %s", rVarName, gPairVar(last, i)), 0)
			} else {
				e.b.eqf(rVarName, 1)
			}
			rTerms = append(rTerms, rVarName)
		}
		e.b.declareGeneral(rSumVar(i))
		e.b.eqf(rSumVar(i)+" - "+joinTerms(orZero(rTerms)), 0)

		e.b.declareBinary(wVar(i))
		isOutput := containsName(e.p.Outputs, name)
		if isOutput {
			e.b.eqf(wVar(i), 1)
		} else if last, ok := e.lastConsumer(name, i); ok {
			e.b.gef(fmt.Sprintf("%s - %s", wVar(i), gPairVar(i, last)), 0)
		}

		e.b.declareGeneral(rwVar(i))
		e.b.gef(fmt.Sprintf("%g %s - %s - %s", float64(len(inputs)+1), rwVar(i), rSumVar(i), wVar(i)), 0)

		e.b.declareGeneral(sVar(i))
		e.b.gef(fmt.Sprintf("%s - %s - %s", sVar(i), rSumVar(i), wVar(i)), 0)

		rw[i] = rwVar(i)
		s[i] = sVar(i)
	}
	return rw, s
}

func orZero(terms []string) []string {
	if len(terms) == 0 {
		return []string{"0"}
	}
	return terms
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// peelExtents holds the per-stencil, per-axis redundant-compute extent
// variables (e_d_i, split by dm/dp direction and summed).
type peelExtents struct {
	axis [3]string // e_d_i, summed dm+dp
}

// encodePeelExtents propagates redundant-compute boundary boxes
// backwards from consumer to producer along every dependency edge
// (the redundant-compute peel extents).
func (e *Encoder) encodePeelExtents(n int) []peelExtents {
	out := make([]peelExtents, n)
	for i := 0; i < n; i++ {
		for axis := 0; axis < 3; axis++ {
			axisName := axisNames[axis]
			for _, dir := range []string{"dm", "dp"} {
				v := eVar(axisName, dir, i)
				e.b.declareGeneral(v)
				e.b.gef(v, 0)
			}
		}
	}

	for c := 0; c < n; c++ {
		consumer := e.p.Stencils[e.p.Sequence[c]]
		for _, producerName := range consumer.StencilInputs(e.p) {
			p := e.pos[producerName]
			box, ok := consumer.BBox[producerName]
			if !ok {
				continue
			}
			ranges := [3]stencil.Range{box.X, box.Y, box.Z}
			for axis := 0; axis < 3; axis++ {
				axisName := axisNames[axis]
				haloBudget := float64(e.p.Halo[axis])
				if lo := -ranges[axis].Low; lo > 0 {
					e.encodePeelEdge(axisName, "dm", p, c, float64(lo), haloBudget)
				}
				if hi := ranges[axis].High; hi > 0 {
					e.encodePeelEdge(axisName, "dp", p, c, float64(hi), haloBudget)
				}
			}
		}
	}

	for i := 0; i < n; i++ {
		for axis := 0; axis < 3; axis++ {
			axisName := axisNames[axis]
			e.b.declareGeneral(eAxisVar(axisName, i))
			e.b.eqf(fmt.Sprintf("%s - %s - %s", eAxisVar(axisName, i), eVar(axisName, "dm", i), eVar(axisName, "dp", i)), 0)
			out[i].axis[axis] = eAxisVar(axisName, i)
		}
	}
	return out
}

// encodePeelEdge emits e_d_dir_p - e_d_dir_c + H_d·g_c - H_d·g_p >= |off|.
func (e *Encoder) encodePeelEdge(axisName, dir string, p, c int, off, haloBudget float64) {
	e.b.gef(fmt.Sprintf("%s - %s + %g %s - %g %s",
		eVar(axisName, dir, p), eVar(axisName, dir, c), haloBudget, gVar(c), haloBudget, gVar(p)), off)
}

// encodeBoundaryFetches tightens per-access boundary-fetch variables
// (a_d_dir_i_a) and sums them into r_d_i, the per-access boundary
// fetch total. Each input array's boundary fetch is propagated with the
// same monotone, halo-bounded rule as the peel extents above, since an
// array's boundary requirement can never exceed the stencil's own
// redundant-compute extent along that axis/direction.
func (e *Encoder) encodeBoundaryFetches(n int, peel []peelExtents) [][3]string {
	rAxis := make([][3]string, n)
	for i := 0; i < n; i++ {
		name := e.p.Sequence[i]
		st := e.p.Stencils[name]
		inputs := st.Inputs()
		sort.Strings(inputs)

		for axis := 0; axis < 3; axis++ {
			axisName := axisNames[axis]
			terms := make([]string, 0, 2*len(inputs))
			for _, a := range inputs {
				for _, dir := range []string{"dm", "dp"} {
					v := aVar(axisName, dir, i, a)
					e.b.declareGeneral(v)
					e.b.gef(v, 0)
					// Bounded by the stencil's own same-axis/direction
					// redundant-compute extent; a halo budget slackens
					// the bound once the access crosses a group
					// boundary, per the e_d_dir propagation rule.
					last, ok := e.lastTouch(a, i)
					if !ok {
						e.b.eqf(v+" - "+eVar(axisName, dir, i), 0)
					} else {
						haloBudget := float64(e.p.Halo[axis])
						e.b.lef(fmt.Sprintf("%s - %s - %g %s", v, eVar(axisName, dir, i), haloBudget, gPairVar(last, i)), 0)
					}
					terms = append(terms, v)
				}
			}
			e.b.declareGeneral(rAxisVar(axisName, i))
			e.b.eqf(rAxisVar(axisName, i)+" - "+joinTerms(orZero(terms)), 0)
			rAxis[i][axis] = rAxisVar(axisName, i)
		}
	}
	return rAxis
}

// boundaryMultiplies holds, per stencil and axis, the tile-count
// products of e (peel extent), rw, and s, each multiplied by the
// group's tile counts.
type boundaryMultiplies struct {
	e  [3]string
	rw [3]string
	s  [3]string
}

func (e *Encoder) encodeBoundaryMultiplies(n int, sets []tileDigitSet, rw, s []string, peel []peelExtents, _ [][3]string) []boundaryMultiplies {
	out := make([]boundaryMultiplies, n)
	for i := 0; i < n; i++ {
		for axis := 0; axis < 3; axis++ {
			axisName := axisNames[axis]
			limit := float64(e.p.Domain[axis])

			eTerm := peel[i].axis[axis]
			eMult := e.linearizeDigitProduct(e.b, boundaryMultVar("e", axisName, i)+"_enc", eTerm, sets[i].bits[axis], limit)
			e.b.declareGeneral(boundaryMultVar("e", axisName, i))
			e.b.eqf(boundaryMultVar("e", axisName, i)+" - "+eMult, 0)
			out[i].e[axis] = boundaryMultVar("e", axisName, i)

			rwMult := e.linearizeDigitProduct(e.b, boundaryMultVar("rw", axisName, i)+"_enc", rw[i], sets[i].bits[axis], 1)
			e.b.declareGeneral(boundaryMultVar("rw", axisName, i))
			e.b.eqf(boundaryMultVar("rw", axisName, i)+" - "+rwMult, 0)
			out[i].rw[axis] = boundaryMultVar("rw", axisName, i)

			sMult := e.linearizeDigitProduct(e.b, boundaryMultVar("s", axisName, i)+"_enc", s[i], sets[i].bits[axis], float64(2*len(e.p.Stencils)+2))
			e.b.declareGeneral(boundaryMultVar("s", axisName, i))
			e.b.eqf(boundaryMultVar("s", axisName, i)+" - "+sMult, 0)
			out[i].s[axis] = boundaryMultVar("s", axisName, i)
		}
	}
	return out
}

// encodeFootprint bounds the cache-footprint variable f_i against the
// cache-utilization table and the machine's cache capacity.
func (e *Encoder) encodeFootprint(n int) {
	for h := 0; h < n; h++ {
		e.b.declareGeneral(fVar(h))
		e.b.gef(fmt.Sprintf("%s - %g", fVar(h), float64(e.util.At(h, h))), 0)
		for l := 0; l < h; l++ {
			// f_h >= u*(1-(g_h-g_l))  <=>  f_h + u*g_h - u*g_l >= u:
			// binding (f_h >= u) when h,l share a group (g_h==g_l),
			// slack growing with every group boundary crossed between them.
			term := float64(e.util.At(h, l))
			e.b.gef(fmt.Sprintf("%s + %g %s - %g %s", fVar(h), term, gVar(h), term, gVar(l)), term)
		}
	}

	tx, ty, tz := float64(e.p.Domain[0]), float64(e.p.Domain[1]), float64(e.p.Domain[2])
	volume := tx * ty * tz
	capacityPerValue := float64(e.p.Machine.CacheCapacity) / float64(stencil.SizeOfValue)
	for i := 0; i < n; i++ {
		e.b.gef(fmt.Sprintf("%g %s - %g %s", capacityPerValue, nxyzVar(i), volume, fVar(i)), 0)
	}
}

// encodeTimeFormulas derives the memory/cache body and peel time terms
// and combines them into t_i, the time per stencil. Per the open
// question, TX/TY/TZ are the program's full domain extents, not the
// solved tile sizes, preserved verbatim.
func (e *Encoder) encodeTimeFormulas(n int, rw, s []string, mult []boundaryMultiplies) {
	tx, ty, tz := float64(e.p.Domain[0]), float64(e.p.Domain[1]), float64(e.p.Domain[2])
	mem := e.p.MemoryCoeffs
	cache := e.p.CacheCoeffs

	for i := 0; i < n; i++ {
		fetches := float64(e.p.Stencils[e.p.Sequence[i]].Fetches)
		cBody := fetches * cache.Body
		cPeel := fetches * cache.Peel

		bm := bmVar(i)
		e.b.declareGeneral(bm)
		bodyMemTerms := []string{
			scaledTerm(mem.RWBody*tx*ty*tz, rw[i]),
			scaledTerm(mem.RWBody*ty*tz, mult[i].rw[0]),
			scaledTerm(mem.RWBody*tx*tz, mult[i].rw[1]),
			scaledTerm(mem.RWBody*tx*ty, mult[i].rw[2]),
			scaledTerm(mem.STBody*tx*ty*tz, s[i]),
			scaledTerm(mem.STBody*ty*tz, mult[i].s[0]),
			scaledTerm(mem.STBody*tx*tz, mult[i].s[1]),
			scaledTerm(mem.STBody*tx*ty, mult[i].s[2]),
		}
		e.b.gef(bm+" - "+joinTerms(bodyMemTerms), 0)

		bc := bcVar(i)
		e.b.declareGeneral(bc)
		bodyCacheTerms := []string{
			scaledTerm(cBody*ty*tz, mult[i].e[0]),
			scaledTerm(cBody*tx*tz, mult[i].e[1]),
			scaledTerm(cBody*tx*ty, mult[i].e[2]),
		}
		e.b.gef(bc+" - "+joinTerms(bodyCacheTerms), cBody*tx*ty*tz)

		body := bVar(i)
		e.b.declareGeneral(body)
		e.b.gef(fmt.Sprintf("%s - %s", body, bm), 0)
		e.b.gef(fmt.Sprintf("%s - %s", body, bc), 0)

		pm := pmVar(i)
		e.b.declareGeneral(pm)
		peelMemTerms := []string{
			scaledTerm(mem.RWPeel*ty*tz, rw[i]),
			scaledTerm(mem.RWPeel*ty, mult[i].rw[2]),
			scaledTerm(mem.RWPeel*tz, mult[i].rw[1]),
			scaledTerm(mem.STPeel*ty*tz, s[i]),
			scaledTerm(mem.STPeel*ty, mult[i].s[2]),
			scaledTerm(mem.STPeel*tz, mult[i].s[1]),
		}
		e.b.gef(pm+" - "+joinTerms(peelMemTerms), 0)

		pc := pcVar(i)
		e.b.declareGeneral(pc)
		peelCacheTerms := []string{
			scaledTerm(cPeel*ty, mult[i].e[2]),
			scaledTerm(cPeel*tz, mult[i].e[1]),
		}
		e.b.gef(pc+" - "+joinTerms(peelCacheTerms), cPeel*ty*tz)

		peelCombined := pVar(i)
		e.b.declareGeneral(peelCombined)
		e.b.gef(fmt.Sprintf("%s - %s", peelCombined, pm), 0)
		e.b.gef(fmt.Sprintf("%s - %s", peelCombined, pc), 0)

		// p_n_i = p_i * n_x_i.
		pn := e.linearizeDigitProduct(e.b, pnVar(i)+"_enc", peelCombined, e.nxBitsFor(i), float64(2*len(e.p.Stencils)+2))
		e.b.declareGeneral(pnVar(i))
		e.b.eqf(pnVar(i)+" - "+pn, 0)

		overlap := e.p.Overlap
		tTerm := tVar(i)
		e.b.declareGeneral(tTerm)
		e.b.eqf(fmt.Sprintf("%s - %g %s - %g %s - %g %s - %s", tTerm, overlap, body, 1-overlap, bm, 1-overlap, bc, pnVar(i)), 0)
	}
}

// nxBitsFor recovers the binary-digit variable names for n_x_i. The
// digit sets are regenerated by name rather than threaded through every
// call, since MILP variable names are the encoder's stable interface.
func (e *Encoder) nxBitsFor(i int) []string {
	digits := e.digits[0]
	bits := make([]string, digits)
	for b := 0; b < digits; b++ {
		bits[b] = nDigitVar("x", i, b)
	}
	return bits
}

// encodeExternalConstraints applies caller-supplied group pins and
// tile-count bounds (externally supplied constraints).
func (e *Encoder) encodeExternalConstraints(n int, _ []tileDigitSet) {
	for _, pin := range e.p.Constraints.GroupPins {
		i, ok := e.pos[pin.Stencil]
		if !ok {
			continue
		}
		e.b.eqf(gVar(i), float64(pin.Group))
	}
	for _, bound := range e.p.Constraints.TileBounds {
		i, ok := e.pos[bound.Stencil]
		if !ok {
			continue
		}
		axisName := axisNames[bound.Axis]
		if bound.Value >= 0 {
			e.b.gef(nVar(axisName, i), float64(bound.Value+1))
		} else {
			e.b.lef(nVar(axisName, i), float64(-bound.Value-1))
		}
	}
}
