package stencil

import "testing"

func zeroBox() Box {
	return Box{}
}

func TestSumOfZeroBoxesIsZeroBox(t *testing.T) {
	got := Sum(zeroBox(), zeroBox())
	if got != zeroBox() {
		t.Errorf("Sum(zero, zero) = %+v, want zero box", got)
	}
}

func TestOutwardMaxIdempotent(t *testing.T) {
	b := Box{X: Range{-2, 1}, Y: Range{0, 3}, Z: Range{-1, -1}}
	got := OutwardMax(b, b)
	if got != b {
		t.Errorf("OutwardMax(b, b) = %+v, want %+v", got, b)
	}
}

func TestOutwardMinIdempotent(t *testing.T) {
	b := Box{X: Range{-2, 1}, Y: Range{0, 3}, Z: Range{-1, -1}}
	got := OutwardMin(b, b)
	if got != b {
		t.Errorf("OutwardMin(b, b) = %+v, want %+v", got, b)
	}
}

func TestOutwardMaxGrowsOutward(t *testing.T) {
	// endpoints summing to <= 0 take the min (more negative); summing
	// to > 0 take the max (more positive).
	a := Box{X: Range{-1, 2}}
	b := Box{X: Range{-3, 1}}
	got := OutwardMax(a, b)
	want := Range{-3, 2} // low: -1+-3=-4<=0 -> min(-1,-3)=-3; high: 2+1=3>0 -> max(2,1)=2
	if got.X != want {
		t.Errorf("OutwardMax X = %+v, want %+v", got.X, want)
	}
}

func TestComputeHaloEmpty(t *testing.T) {
	remote := Box{X: Range{-1, 1}, Y: Range{-1, 1}, Z: Range{-1, 1}}
	local := Box{X: Range{-2, 2}, Y: Range{-2, 2}, Z: Range{-2, 2}}
	h := ComputeHalo(remote, local)
	if !h.Empty() {
		t.Errorf("expected empty halo when local fully covers remote, got %+v", h)
	}
}

func TestComputeHaloNonEmpty(t *testing.T) {
	remote := Box{X: Range{-2, 2}, Y: Range{-2, 2}, Z: Range{-2, 2}}
	local := Box{X: Range{-1, 1}, Y: Range{-1, 1}, Z: Range{-1, 1}}
	h := ComputeHalo(remote, local)
	if h.Empty() {
		t.Errorf("expected non-empty halo when remote exceeds local, got %+v", h)
	}
}

func TestBoxFromOffsets(t *testing.T) {
	offsets := map[Offset]struct{}{
		{DI: -1, DJ: 0, DK: 0}: {},
		{DI: 1, DJ: 0, DK: 0}:  {},
		{DI: 0, DJ: -1, DK: 0}: {},
		{DI: 0, DJ: 1, DK: 0}:  {},
		{DI: 0, DJ: 0, DK: -1}: {},
		{DI: 0, DJ: 0, DK: 1}:  {},
	}
	got := BoxFromOffsets(offsets)
	want := Box{X: Range{-1, 1}, Y: Range{-1, 1}, Z: Range{-1, 1}}
	if got != want {
		t.Errorf("BoxFromOffsets = %+v, want %+v", got, want)
	}
}
