// Package sim provides the discrete-event race simulation engine.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - scheduler.go: the event clock and the (time, sequence) ordered event queue
//   - runner.go: the per-runner state machine (travel, station usage, drop-out)
//   - race.go: one Race Run, from resource table construction to the final result
//
// # Architecture
//
// A Race Run owns exactly one Scheduler, one Station→Service resource table and
// one set of runners. Runners are explicit state machines: every suspension
// (travel time, service duration) is a Schedule call with the runner itself as
// the continuation, and the scheduler resumes it when simulated time reaches the
// wake time. Execution inside a run is single-threaded, so resource state needs
// no locking; acquisition is still a single check-and-decrement step.
//
// Sub-packages:
//   - sim/harness/: Monte-Carlo repetition over weather days and budget scenarios
//   - sim/trace/: race trace recording (stops, services, denials, drop-outs)
//   - sim/results/: SQLite persistence of harness outputs
//
// All randomness flows through PartitionedRNG, so two runs with the same
// configuration and SimulationKey produce bit-identical runner paces and stop times.
package sim
