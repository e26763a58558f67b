package sim

import (
	"github.com/sirupsen/logrus"

	"github.com/Beanavil/marathon-sim/sim/trace"
)

// RunnerState is the observable lifecycle state of a runner.
type RunnerState string

const (
	RunnerTraveling  RunnerState = "TRAVELING"
	RunnerAtStation  RunnerState = "AT_STATION"
	RunnerFinished   RunnerState = "FINISHED"
	RunnerDroppedOut RunnerState = "DROPPED_OUT" // absorbing; the runner still travels to keep its schedule
)

// Drop-out reasons.
const (
	DropReasonPace      = "pace"
	DropReasonUnmetNeed = "unmet_need"
)

// runnerPhase is the resume point of the runner's state machine.
type runnerPhase int

const (
	phaseStart   runnerPhase = iota // first resumption at t=0
	phaseArrive                     // travel to the next checkpoint elapsed
	phaseServing                    // a service duration elapsed
	phaseDone
)

// raceEnv is the state shared by every runner of one Race Run.
type raceEnv struct {
	cutoff       float64
	weatherDelta float64
	services     []string // sorted; necessity update order
	threshold    Sampler
	needIncrease map[string]Sampler
	trace        *trace.RaceTrace
}

// Runner is one runner's process: an explicit state machine resumed by the
// Scheduler at every travel and service-duration suspension.
type Runner struct {
	ID       int
	BasePace float64

	pace        float64
	necessities map[string]float64
	stations    []*Station
	next        int // index of the next checkpoint to visit
	stopTimes   []float64
	state       RunnerState
	dropped     bool
	dropReason  string
	finishTime  float64

	env *raceEnv

	// continuation of the station protocol
	phase    runnerPhase
	station  *Station
	wanted   []string
	serving  []*ServiceResource
	serveIdx int
}

func newRunner(id int, basePace float64, stations []*Station, env *raceEnv) *Runner {
	necessities := make(map[string]float64, len(env.services))
	for _, name := range env.services {
		necessities[name] = 0
	}
	return &Runner{
		ID:          id,
		BasePace:    basePace,
		pace:        basePace,
		necessities: necessities,
		stations:    stations,
		stopTimes:   make([]float64, 0),
		state:       RunnerTraveling,
		env:         env,
		phase:       phaseStart,
	}
}

// Pace returns the current pace (time per km).
func (r *Runner) Pace() float64 { return r.pace }

// Necessity returns the current necessity level for a service.
func (r *Runner) Necessity(service string) float64 { return r.necessities[service] }

// StopTimes returns the simulated times at which the runner stopped at a station.
func (r *Runner) StopTimes() []float64 { return r.stopTimes }

// Dropped reports whether the runner has dropped out.
func (r *Runner) Dropped() bool { return r.dropped }

// DropReason returns why the runner dropped out, or "" if it did not.
func (r *Runner) DropReason() string { return r.dropReason }

// State returns the runner's lifecycle state.
func (r *Runner) State() RunnerState { return r.state }

// FinishTime returns the simulated time the runner passed its last checkpoint.
func (r *Runner) FinishTime() float64 { return r.finishTime }

// RemainingCheckpoints returns the distances still to visit, in race order.
func (r *Runner) RemainingCheckpoints() []float64 {
	kms := make([]float64, 0, len(r.stations)-r.next)
	for _, st := range r.stations[r.next:] {
		kms = append(kms, st.KM)
	}
	return kms
}

// Resume advances the state machine to its next suspension point.
func (r *Runner) Resume(s *Scheduler) {
	switch r.phase {
	case phaseStart:
		r.depart(s)
	case phaseArrive:
		r.arrive(s)
	case phaseServing:
		r.finishService(s)
	default:
		logrus.Warnf("runner %d resumed after finishing at t=%.3f", r.ID, s.Now())
	}
}

// depart suspends the runner for the travel time to the next checkpoint.
// Travel time uses the absolute checkpoint distance, not the distance since
// the previous checkpoint.
func (r *Runner) depart(s *Scheduler) {
	if r.next >= len(r.stations) {
		r.finish(s)
		return
	}
	km := r.stations[r.next].KM
	if !r.dropped {
		r.state = RunnerTraveling
	}
	r.phase = phaseArrive
	s.Schedule(r.pace*km, r)
}

func (r *Runner) arrive(s *Scheduler) {
	st := r.stations[r.next]
	if r.dropped || r.pace >= r.env.cutoff {
		if !r.dropped {
			r.drop(s, st.KM, DropReasonPace)
		}
		r.next++
		r.depart(s)
		return
	}
	r.state = RunnerAtStation
	r.station = st
	r.useStation(s)
}

// useStation decides which services the runner wants, acquires the free
// ones and starts serving them one after another.
func (r *Runner) useStation(s *Scheduler) {
	st := r.station
	thresholds := make([]float64, len(st.Services))
	for i := range st.Services {
		thresholds[i] = r.env.threshold.Sample()
	}

	r.wanted = r.wanted[:0]
	r.serving = r.serving[:0]
	for i, name := range st.Services {
		if !(r.necessities[name] > thresholds[i]) {
			continue
		}
		r.wanted = append(r.wanted, name)
		res := st.Resource(name)
		if res != nil && res.TryAcquire() {
			r.serving = append(r.serving, res)
			continue
		}
		logrus.Debugf("[t=%.3f] runner %d wants %s at km %v but none is free", s.Now(), r.ID, name, st.KM)
		r.env.trace.RecordDenial(trace.DenialRecord{
			RunnerID: r.ID, Service: name, KM: st.KM, Clock: s.Now(), Necessity: r.necessities[name],
		})
	}

	if len(r.serving) > 0 {
		r.stopTimes = append(r.stopTimes, s.Now())
		names := make([]string, len(r.serving))
		for i, res := range r.serving {
			names[i] = res.Name
		}
		r.env.trace.RecordStop(trace.StopRecord{RunnerID: r.ID, Clock: s.Now(), KM: st.KM, Services: names})
	}

	r.serveIdx = 0
	r.serveNext(s)
}

func (r *Runner) serveNext(s *Scheduler) {
	if r.serveIdx >= len(r.serving) {
		r.leaveStation(s)
		return
	}
	r.phase = phaseServing
	s.Schedule(r.serving[r.serveIdx].ServiceDuration(), r)
}

func (r *Runner) finishService(s *Scheduler) {
	res := r.serving[r.serveIdx]
	d := res.ServiceDuration()
	penalty := d / r.station.KM
	r.necessities[res.Name] = 0
	r.pace += penalty
	res.Release()
	r.env.trace.RecordService(trace.ServiceRecord{
		RunnerID: r.ID, Service: res.Name, KM: r.station.KM, Start: s.Now() - d, End: s.Now(), PacePenalty: penalty,
	})
	logrus.Debugf("[t=%.3f] runner %d used %s at km %v (pace +%.3f)", s.Now(), r.ID, res.Name, r.station.KM, penalty)
	r.serveIdx++
	r.serveNext(s)
}

// leaveStation applies the unmet-need rule, then the weather and necessity
// updates, and departs for the next checkpoint.
func (r *Runner) leaveStation(s *Scheduler) {
	km := r.station.KM
	for _, name := range r.wanted {
		if r.necessities[name] >= MaxNecessity {
			r.pace = r.env.cutoff
			r.drop(s, km, DropReasonUnmetNeed+":"+name)
			break
		}
	}
	if !r.dropped {
		r.state = RunnerTraveling
		r.updatePace()
		r.updateNecessities()
	}
	r.station = nil
	r.next++
	r.depart(s)
}

// updatePace applies the day's weather delta. A cooling day may lower the
// pace, but never below zero.
func (r *Runner) updatePace() {
	r.pace += r.env.weatherDelta
	if r.pace < 0 {
		logrus.Debugf("clamping negative pace %.3f of runner %d to 0", r.pace, r.ID)
		r.pace = 0
	}
}

func (r *Runner) updateNecessities() {
	for _, name := range r.env.services {
		r.necessities[name] = min(r.necessities[name]+r.env.needIncrease[name].Sample(), MaxNecessity)
	}
}

func (r *Runner) drop(s *Scheduler, km float64, reason string) {
	r.dropped = true
	r.dropReason = reason
	r.state = RunnerDroppedOut
	r.env.trace.RecordDrop(trace.DropRecord{RunnerID: r.ID, KM: km, Clock: s.Now(), Pace: r.pace, Reason: reason})
	logrus.Debugf("[t=%.3f] runner %d dropped out at km %v (%s, pace %.3f)", s.Now(), r.ID, km, reason, r.pace)
}

// finish ends the race at the last checkpoint. A runner whose pace reached
// the cutoff after its last check drops out here instead of finishing.
func (r *Runner) finish(s *Scheduler) {
	r.phase = phaseDone
	r.finishTime = s.Now()
	if !r.dropped && r.pace >= r.env.cutoff {
		km := 0.0
		if n := len(r.stations); n > 0 {
			km = r.stations[n-1].KM
		}
		r.drop(s, km, DropReasonPace)
	}
	if !r.dropped {
		r.state = RunnerFinished
	}
}
