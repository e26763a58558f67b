package sim

// Event defines the interface for all simulation events.
// Each event has a wake time, a per-scheduler sequence number used as the
// deterministic tie-breaker, and an Execute method that advances simulation state.
type Event interface {
	Timestamp() float64
	Seq() uint64
	Execute(*Scheduler)
}

// Process is a suspendable unit of work driven by the Scheduler.
// Resume is called when the process' wake time is reached; it runs until the
// process schedules its next resumption or finishes.
type Process interface {
	Resume(*Scheduler)
}

// baseEvent provides the common event fields.
type baseEvent struct {
	time float64
	seq  uint64
}

func (e *baseEvent) Timestamp() float64 { return e.time }
func (e *baseEvent) Seq() uint64        { return e.seq }

// ResumeEvent wakes a suspended Process.
type ResumeEvent struct {
	baseEvent
	Process Process
}

// Execute resumes the process.
func (e *ResumeEvent) Execute(s *Scheduler) {
	e.Process.Resume(s)
}
