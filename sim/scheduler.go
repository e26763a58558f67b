package sim

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// EventQueue implements heap.Interface with deterministic ordering.
// Order by: timestamp → sequence number (insertion order).
type EventQueue []Event

func (eq EventQueue) Len() int { return len(eq) }

func (eq EventQueue) Less(i, j int) bool {
	if eq[i].Timestamp() != eq[j].Timestamp() {
		return eq[i].Timestamp() < eq[j].Timestamp()
	}
	return eq[i].Seq() < eq[j].Seq()
}

func (eq EventQueue) Swap(i, j int) { eq[i], eq[j] = eq[j], eq[i] }

func (eq *EventQueue) Push(x any) {
	*eq = append(*eq, x.(Event))
}

func (eq *EventQueue) Pop() any {
	old := *eq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*eq = old[0 : n-1]
	return item
}

// Observer is notified after every executed event. Used to check invariants.
type Observer func(s *Scheduler, ev Event)

// Scheduler is the event clock of one Race Run.
// It holds simulated time and the queue of pending resumptions.
//
// Thread-safety: NOT thread-safe. Exactly one continuation executes at a time.
type Scheduler struct {
	now      float64
	queue    EventQueue
	nextSeq  uint64
	executed int
	observer Observer
}

// NewScheduler creates a scheduler with the clock at zero.
func NewScheduler() *Scheduler {
	return &Scheduler{queue: make(EventQueue, 0)}
}

// Now returns the current simulated time.
func (s *Scheduler) Now() float64 { return s.now }

// Pending returns the number of events waiting in the queue.
func (s *Scheduler) Pending() int { return len(s.queue) }

// Executed returns the number of events executed so far.
func (s *Scheduler) Executed() int { return s.executed }

// SetObserver installs a hook called after each executed event.
func (s *Scheduler) SetObserver(o Observer) { s.observer = o }

// Schedule enqueues a resumption of p at now + delay.
func (s *Scheduler) Schedule(delay float64, p Process) {
	if delay < 0 || math.IsNaN(delay) || math.IsInf(delay, 0) {
		panic(fmt.Sprintf("invalid schedule delay %v at t=%v", delay, s.now))
	}
	s.nextSeq++
	heap.Push(&s.queue, &ResumeEvent{
		baseEvent: baseEvent{time: s.now + delay, seq: s.nextSeq},
		Process:   p,
	})
}

// Run pops events in (time, sequence) order until the queue is empty and
// returns the number of events executed.
func (s *Scheduler) Run() int {
	for len(s.queue) > 0 {
		ev := heap.Pop(&s.queue).(Event)
		if ev.Timestamp() < s.now {
			panic(fmt.Sprintf("clock went backwards: %v < %v", ev.Timestamp(), s.now))
		}
		s.now = ev.Timestamp()
		logrus.Tracef("[t=%.3f] executing %T seq=%d", s.now, ev, ev.Seq())
		ev.Execute(s)
		s.executed++
		if s.observer != nil {
			s.observer(s, ev)
		}
	}
	return s.executed
}
