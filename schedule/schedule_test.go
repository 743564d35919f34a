package schedule

import (
	"testing"

	"github.com/stencil-opt/stencil-opt/plan"
	"github.com/stencil-opt/stencil-opt/stencil"
)

func workGroup(id int, work, halo bool) *plan.Group {
	g := &plan.Group{ID: id, Loops: map[string]stencil.Box{}, Halos: map[string]stencil.Halo{}}
	if work {
		g.Loops["x"] = stencil.Box{}
	}
	if halo {
		g.Halos["x"] = stencil.Halo{}
	}
	return g
}

func types(events []Event) []EventType {
	out := make([]EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func TestComputeDefersWaitByOneSlot(t *testing.T) {
	// groups 0 and 2 have halos, group 1 does not.
	// PUT(0), WAIT(0), COMP(1), COMP(2), PUT(2) — group 0's WAIT is
	// drained from the slot before group 1's own COMP runs, and group 0's
	// PUT is not waited on until group 1 is reached.
	pl := &plan.Plan{Groups: []*plan.Group{
		workGroup(0, false, true),
		workGroup(1, true, false),
		workGroup(2, true, true),
	}}

	got := Compute(pl)
	wantTypes := []EventType{PUT, WAIT, COMP, COMP, PUT}
	gotTypes := types(got)
	if len(gotTypes) != len(wantTypes) {
		t.Fatalf("schedule = %v, want %v", gotTypes, wantTypes)
	}
	for i := range wantTypes {
		if gotTypes[i] != wantTypes[i] {
			t.Errorf("event %d: got %v, want %v", i, gotTypes[i], wantTypes[i])
		}
	}
	// the WAIT belongs to the group that issued the matching PUT.
	if got[1].Group.ID != 0 {
		t.Errorf("expected WAIT to reference group 0, got group %d", got[1].Group.ID)
	}
	if got[2].Group.ID != 1 {
		t.Errorf("expected COMP to reference group 1, got group %d", got[2].Group.ID)
	}
}

func TestComputeSkipsNoOpGroups(t *testing.T) {
	pl := &plan.Plan{Groups: []*plan.Group{
		workGroup(0, false, false),
		workGroup(1, true, true),
	}}

	got := Compute(pl)
	wantTypes := []EventType{COMP, PUT}
	gotTypes := types(got)
	if len(gotTypes) != len(wantTypes) {
		t.Fatalf("schedule = %v, want %v", gotTypes, wantTypes)
	}
	for i := range wantTypes {
		if gotTypes[i] != wantTypes[i] {
			t.Errorf("event %d: got %v, want %v", i, gotTypes[i], wantTypes[i])
		}
	}
}

func TestComputeTrailingWaitIsDropped(t *testing.T) {
	pl := &plan.Plan{Groups: []*plan.Group{
		workGroup(0, true, true),
	}}
	got := Compute(pl)
	if len(got) != 2 || got[0].Type != COMP || got[1].Type != PUT {
		t.Errorf("expected [COMP, PUT] with no trailing WAIT emitted, got %v", types(got))
	}
}
