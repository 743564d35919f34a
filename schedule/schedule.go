// Package schedule computes the single-slot pipelined event order for a
// tiled execution plan.
package schedule

import "github.com/stencil-opt/stencil-opt/plan"

// EventType identifies one step of the emitted schedule.
type EventType int

const (
	// COMP runs a group's redundant-compute loops over its tile.
	COMP EventType = iota
	// PUT issues a non-blocking halo exchange for a group's outputs.
	PUT
	// WAIT blocks until a previously issued PUT has completed.
	WAIT
)

func (t EventType) String() string {
	switch t {
	case COMP:
		return "COMP"
	case PUT:
		return "PUT"
	case WAIT:
		return "WAIT"
	default:
		return "UNKNOWN"
	}
}

// Event is one scheduled step, tied to the group that originated it.
type Event struct {
	Type  EventType
	Group *plan.Group
}

// fifoSlot holds at most one pending WAIT, modeling the single-deep
// pipelining of halo exchanges: a group's PUT need not be waited on
// until the next group is reached.
type fifoSlot struct {
	event *Event
	set   bool
}

func (f *fifoSlot) push(e *Event) {
	f.event, f.set = e, true
}

func (f *fifoSlot) pop() *Event {
	e := f.event
	f.event, f.set = nil, false
	return e
}

// Compute derives the schedule for pl: for every group in order, drain
// the pending WAIT slot (if any), then emit a COMP if the group has
// redundant-compute work, then either emit a PUT and refill the slot
// with its matching WAIT, or refill the slot with nothing if the group
// needs no halo exchange. The one-deep pipeline's overlap comes from
// the slot itself, not from reordering WAIT past COMP: a PUT issued by
// group g is only waited on when group g+1 is reached, so g's WAIT,
// drained at g+1, still precedes g+1's own COMP in program order.
func Compute(pl *plan.Plan) []Event {
	var schedule []Event
	slot := fifoSlot{}
	// seed with an empty slot, matching deque([None]).
	slot.push(nil)

	for _, group := range pl.Groups {
		if wait := slot.pop(); wait != nil {
			schedule = append(schedule, *wait)
		}

		if group.HasWork() {
			schedule = append(schedule, Event{Type: COMP, Group: group})
		}

		if group.HasHalos() {
			schedule = append(schedule, Event{Type: PUT, Group: group})
			slot.push(&Event{Type: WAIT, Group: group})
		} else {
			slot.push(nil)
		}
	}

	return schedule
}
