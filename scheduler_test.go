// scheduler_test.go - tests for the cycle-accurate event scheduler

package saturn

import "testing"

func TestSchedulerFIFOOnTie(t *testing.T) {
	s := NewScheduler()
	var order []int
	s.ScheduleAt(100, func(p any) { order = append(order, p.(int)) }, 1)
	s.ScheduleAt(100, func(p any) { order = append(order, p.(int)) }, 2)
	s.ScheduleAt(100, func(p any) { order = append(order, p.(int)) }, 3)

	s.RunUntil(100, nil)

	want := []int{1, 2, 3}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}

func TestSchedulerCancelSkipsHandler(t *testing.T) {
	s := NewScheduler()
	fired := false
	id := s.ScheduleAt(50, func(any) { fired = true }, nil)
	s.Cancel(id)
	s.RunUntil(50, nil)
	if fired {
		t.Fatal("cancelled event fired")
	}
}

func TestSchedulerPanicsOnPastCycle(t *testing.T) {
	s := NewScheduler()
	s.AdvanceBy(1000)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic scheduling an event in the past")
		}
	}()
	s.ScheduleAt(10, func(any) {}, nil)
}

func TestSchedulerStepBudgetMatchesEventGaps(t *testing.T) {
	s := NewScheduler()
	var steps []uint64
	step := func(budget uint64) { steps = append(steps, budget) }

	s.ScheduleAt(30, func(any) {}, nil)
	s.ScheduleAt(70, func(any) {}, nil)
	s.RunUntil(100, step)

	want := []uint64{30, 40, 30}
	if len(steps) != len(want) {
		t.Fatalf("got %v want %v", steps, want)
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Fatalf("got %v want %v", steps, want)
		}
	}
}

func TestSchedulerOrderingAcrossMultipleRuns(t *testing.T) {
	s := NewScheduler()
	s.ScheduleAt(10, func(any) {}, nil)
	s.RunUntil(10, nil)
	if s.Cycle() != 10 {
		t.Fatalf("cycle = %d, want 10", s.Cycle())
	}
	s.ScheduleAt(20, func(any) {}, nil)
	s.RunUntil(20, nil)
	if s.Cycle() != 20 {
		t.Fatalf("cycle = %d, want 20", s.Cycle())
	}
}
