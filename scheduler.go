// scheduler.go - cycle-accurate event scheduler for the Saturn hardware graph

package saturn

import (
	"container/heap"
	"fmt"
)

// CallbackID identifies a scheduled event so it can be cancelled. A
// cancelled event's handler is simply never invoked; the slot is dropped
// from the heap lazily when it would otherwise fire (see schedEvent.valid).
type CallbackID uint64

// SchedHandler runs when a scheduled event's cycle is reached. It may
// schedule further events (e.g. a timer re-arming itself).
type SchedHandler func(payload any)

// schedEvent is one entry in the event heap.
type schedEvent struct {
	cycle   uint64
	seq     uint64 // insertion order, breaks cycle ties FIFO
	id      CallbackID
	handler SchedHandler
	payload any
	valid   bool
}

// schedHeap implements container/heap.Interface ordered by (cycle, seq).
type schedHeap []*schedEvent

func (h schedHeap) Len() int { return len(h) }
func (h schedHeap) Less(i, j int) bool {
	if h[i].cycle != h[j].cycle {
		return h[i].cycle < h[j].cycle
	}
	return h[i].seq < h[j].seq
}
func (h schedHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *schedHeap) Push(x any)   { *h = append(*h, x.(*schedEvent)) }
func (h *schedHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Scheduler owns the master cycle counter for the currently running CPU
// and the min-heap of future hardware events (spec.md §3 Scheduler Event
// Queue, §4.1 Scheduler). No blocking operations occur here; CPU stepping
// is driven by a caller-supplied step function.
type Scheduler struct {
	cycle   uint64
	nextSeq uint64
	nextID  CallbackID
	events  schedHeap
	byID    map[CallbackID]*schedEvent
}

// NewScheduler creates an empty scheduler at cycle 0.
func NewScheduler() *Scheduler {
	return &Scheduler{byID: make(map[CallbackID]*schedEvent)}
}

// Cycle returns the current master cycle count.
func (s *Scheduler) Cycle() uint64 { return s.cycle }

// ScheduleAt inserts a future event. Inserting an event with cycle less
// than the current cycle is a programming error (spec.md §3 invariant).
func (s *Scheduler) ScheduleAt(cycle uint64, handler SchedHandler, payload any) CallbackID {
	if cycle < s.cycle {
		panic(fmt.Sprintf("scheduler: event cycle %d precedes current cycle %d", cycle, s.cycle))
	}
	s.nextID++
	id := s.nextID
	ev := &schedEvent{cycle: cycle, seq: s.nextSeq, id: id, handler: handler, payload: payload, valid: true}
	s.nextSeq++
	heap.Push(&s.events, ev)
	s.byID[id] = ev
	return id
}

// Cancel invalidates a previously scheduled event. The handler will not
// run when its cycle is reached.
func (s *Scheduler) Cancel(id CallbackID) {
	if ev, ok := s.byID[id]; ok {
		ev.valid = false
		delete(s.byID, id)
	}
}

// AdvanceBy moves the master cycle counter forward without dispatching
// events; used by components that account cycles directly (e.g. the
// interpreter between scheduler checkpoints).
func (s *Scheduler) AdvanceBy(cycles uint64) {
	s.cycle += cycles
}

// RunUntil pops and dispatches every event whose cycle is <= target,
// advancing the cycle counter to target afterwards. Events with equal
// cycle values fire in FIFO insertion order (stable heap via seq).
func (s *Scheduler) RunUntil(target uint64, step func(budget uint64)) {
	for s.events.Len() > 0 && s.events[0].cycle <= target {
		ev := heap.Pop(&s.events).(*schedEvent)
		delete(s.byID, ev.id)
		if !ev.valid {
			continue
		}
		if ev.cycle > s.cycle {
			if step != nil {
				step(ev.cycle - s.cycle)
			}
			s.cycle = ev.cycle
		}
		ev.handler(ev.payload)
	}
	if target > s.cycle {
		if step != nil {
			step(target - s.cycle)
		}
		s.cycle = target
	}
}

// RunUntilVBlank repeatedly pops the earliest event whose cycle is <=
// vblankCycle, invoking its handler (which may schedule further events),
// stepping the CPU up to min(next-event, vblankCycle) between pops. This
// is spec.md §4.1's run_until_vblank contract, parameterized by the
// caller-computed absolute cycle of the next VBlank.
func (s *Scheduler) RunUntilVBlank(vblankCycle uint64, step func(budget uint64)) {
	s.RunUntil(vblankCycle, step)
}

// PendingCount reports the number of live (non-cancelled) events still in
// the heap; used by tests and diagnostics.
func (s *Scheduler) PendingCount() int {
	n := 0
	for _, ev := range s.events {
		if ev.valid {
			n++
		}
	}
	return n
}
