package stencil

import "testing"

func TestParseAccessesBasic(t *testing.T) {
	body := "res = in(i-1,j,k) + in(i+1,j,k) + in(i,j-1,k) + in(i,j+1,k) + in(i,j,k-1) + in(i,j,k+1) - 6.0*in(i,j,k)"
	got := ParseAccesses(body)
	in, ok := got["in"]
	if !ok {
		t.Fatalf("expected access to array %q, got %v", "in", got)
	}
	want := map[Offset]struct{}{
		{DI: -1}: {}, {DI: 1}: {}, {DJ: -1}: {}, {DJ: 1}: {}, {DK: -1}: {}, {DK: 1}: {}, {}: {},
	}
	if len(in) != len(want) {
		t.Fatalf("got %d distinct offsets, want %d: %v", len(in), len(want), in)
	}
	for o := range want {
		if _, ok := in[o]; !ok {
			t.Errorf("missing offset %+v in parsed accesses %v", o, in)
		}
	}
}

func TestParseAccessesMissingOffsetIsZero(t *testing.T) {
	got := ParseAccesses("res = a(i,j,k)")
	a := got["a"]
	if _, ok := a[Offset{}]; !ok || len(a) != 1 {
		t.Errorf("expected single zero offset, got %v", a)
	}
}

func TestParseAccessesIgnoresMalformed(t *testing.T) {
	got := ParseAccesses("res = not_an_access(1,2,3) + a(i,j,k)")
	if _, ok := got["not_an_access"]; ok {
		t.Errorf("expected malformed access to be ignored, got %v", got)
	}
	if _, ok := got["a"]; !ok {
		t.Errorf("expected well-formed access to array a to be recognized")
	}
}

func TestParseAccessesK88FoldsToK8(t *testing.T) {
	got := ParseAccesses("res = k88(i,j,k) + k8(i+1,j,k)")
	k8, ok := got["k8"]
	if !ok {
		t.Fatalf("expected k88 to fold into k8, got %v", got)
	}
	if _, ok := got["k88"]; ok {
		t.Errorf("k88 should not appear as its own key")
	}
	if len(k8) != 2 {
		t.Errorf("expected both k88(i,j,k) and k8(i+1,j,k) offsets merged, got %v", k8)
	}
}

func TestParseAccessesRoundTrip(t *testing.T) {
	// Parsing a printed form of an offset set should yield identical offsets.
	offsets := map[Offset]struct{}{{DI: -1}: {}, {DJ: 1}: {}, {DK: -2}: {}}
	body := ""
	for o := range offsets {
		body += offsetExpr("a", o) + " + "
	}
	got := ParseAccesses(body)["a"]
	if len(got) != len(offsets) {
		t.Fatalf("round-trip: got %d offsets, want %d", len(got), len(offsets))
	}
	for o := range offsets {
		if _, ok := got[o]; !ok {
			t.Errorf("round-trip: missing offset %+v", o)
		}
	}
}

func offsetExpr(array string, o Offset) string {
	fmt := func(axis string, d int) string {
		if d == 0 {
			return axis
		}
		if d > 0 {
			return axis + "+" + itoa(d)
		}
		return axis + itoa(d)
	}
	return array + "(" + fmt("i", o.DI) + "," + fmt("j", o.DJ) + "," + fmt("k", o.DK) + ")"
}

func itoa(v int) string {
	if v < 0 {
		return "-" + itoa(-v)
	}
	return string(rune('0' + v))
}
