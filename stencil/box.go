package stencil

// Range is an inclusive (low,high) endpoint pair along one axis.
type Range struct {
	Low, High int
}

// Box is a 3-axis bounding box of (di,dj,dk) offsets.
type Box struct {
	X, Y, Z Range
}

// BoxFromOffsets computes the bounding box of a set of offsets.
func BoxFromOffsets(offsets map[Offset]struct{}) Box {
	first := true
	var b Box
	for o := range offsets {
		if first {
			b = Box{
				X: Range{o.DI, o.DI},
				Y: Range{o.DJ, o.DJ},
				Z: Range{o.DK, o.DK},
			}
			first = false
			continue
		}
		b.X = extend(b.X, o.DI)
		b.Y = extend(b.Y, o.DJ)
		b.Z = extend(b.Z, o.DK)
	}
	return b
}

func extend(r Range, v int) Range {
	if v < r.Low {
		r.Low = v
	}
	if v > r.High {
		r.High = v
	}
	return r
}

// Sum is componentwise addition of corresponding endpoints.
func Sum(a, b Box) Box {
	return Box{
		X: Range{a.X.Low + b.X.Low, a.X.High + b.X.High},
		Y: Range{a.Y.Low + b.Y.Low, a.Y.High + b.Y.High},
		Z: Range{a.Z.Low + b.Z.Low, a.Z.High + b.Z.High},
	}
}

// outwardMaxEndpoint and outwardMinEndpoint implement the endpoint rule
// shared by OutwardMax/OutwardMin: given two endpoint values, sum them; if
// the sum is <= 0 pick one direction, else the other.
func outwardMaxEndpoint(a, b int) int {
	if a+b <= 0 {
		return min(a, b)
	}
	return max(a, b)
}

func outwardMinEndpoint(a, b int) int {
	if a+b <= 0 {
		return max(a, b)
	}
	return min(a, b)
}

// OutwardMax grows a box "outward": per endpoint pair, if the endpoints
// sum to <= 0 take the min (push further negative), else take the max
// (push further positive).
func OutwardMax(a, b Box) Box {
	return Box{
		X: Range{outwardMaxEndpoint(a.X.Low, b.X.Low), outwardMaxEndpoint(a.X.High, b.X.High)},
		Y: Range{outwardMaxEndpoint(a.Y.Low, b.Y.Low), outwardMaxEndpoint(a.Y.High, b.Y.High)},
		Z: Range{outwardMaxEndpoint(a.Z.Low, b.Z.Low), outwardMaxEndpoint(a.Z.High, b.Z.High)},
	}
}

// OutwardMin is the dual of OutwardMax: it pulls the box inward.
func OutwardMin(a, b Box) Box {
	return Box{
		X: Range{outwardMinEndpoint(a.X.Low, b.X.Low), outwardMinEndpoint(a.X.High, b.X.High)},
		Y: Range{outwardMinEndpoint(a.Y.Low, b.Y.Low), outwardMinEndpoint(a.Y.High, b.Y.High)},
		Z: Range{outwardMinEndpoint(a.Z.Low, b.Z.Low), outwardMinEndpoint(a.Z.High, b.Z.High)},
	}
}

// Halo describes the outer (required) and inner (redundantly computable)
// ranges of a halo exchange along each axis.
type Halo struct {
	OX, IX Range
	OY, IY Range
	OZ, IZ Range
}

// ComputeHalo returns the halo between a remote requirement box and a
// locally computable box.
func ComputeHalo(remote, local Box) Halo {
	inner := OutwardMin(remote, local)
	return Halo{
		OX: remote.X, IX: inner.X,
		OY: remote.Y, IY: inner.Y,
		OZ: remote.Z, IZ: inner.Z,
	}
}

// Empty reports whether a halo is empty: on every axis the outer range
// does not exceed the inner range.
func (h Halo) Empty() bool {
	axisEmpty := func(o, i Range) bool {
		return o.Low-i.Low >= 0 && o.High-i.High <= 0
	}
	return axisEmpty(h.OX, h.IX) && axisEmpty(h.OY, h.IY) && axisEmpty(h.OZ, h.IZ)
}
