package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/Beanavil/marathon-sim/sim/trace"
)

// Race is one Race Run: one (weather day, scenario, repetition) combination.
// It owns its scheduler, resource table and runners; nothing is shared with
// other runs, so independent runs may execute on different goroutines.
type Race struct {
	Config   *RaceConfig
	Day      WeatherDay
	Scenario Scenario
	Key      SimulationKey

	Scheduler *Scheduler
	Stations  []*Station
	Runners   []*Runner
	Trace     *trace.RaceTrace

	rng    *PartitionedRNG
	hasRun bool
}

// RaceResult is the terminal state of a Race Run.
type RaceResult struct {
	Day      WeatherDay
	Scenario Scenario
	Key      SimulationKey
	Runners  []*Runner
	Stations []*Station
	Duration float64 // simulated time of the last event
	Events   int
}

// NewRace builds the Station→Service resource table and the runners for one run.
// The configuration is validated first. tr may be nil.
func NewRace(cfg *RaceConfig, day WeatherDay, scenario Scenario, key SimulationKey, tr *trace.RaceTrace) (*Race, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	delta, err := cfg.WeatherModel.PaceDelta(day.State)
	if err != nil {
		return nil, configErrorf("weather", "day %s: %v", day.Date.Format(DateLayout), err)
	}

	r := &Race{
		Config:    cfg,
		Day:       day,
		Scenario:  scenario,
		Key:       key,
		Scheduler: NewScheduler(),
		Trace:     tr,
		rng:       NewPartitionedRNG(key),
	}

	if err := r.assignServicesToStations(); err != nil {
		return nil, err
	}

	env := &raceEnv{
		cutoff:       cfg.CutoffPace(),
		weatherDelta: delta,
		services:     cfg.ServiceNames(),
		threshold:    NewUniform(cfg.Threshold(), r.rng.ForSubsystem(SubsystemThreshold)),
		needIncrease: make(map[string]Sampler, len(cfg.Services)),
		trace:        tr,
	}
	necessityRNG := r.rng.ForSubsystem(SubsystemNecessity)
	for _, name := range env.services {
		env.needIncrease[name] = NewUniform(*cfg.Services[name].NeedIncrease, necessityRNG)
	}

	r.populateRunners(env)
	return r, nil
}

func (r *Race) assignServicesToStations() error {
	durationRNG := r.rng.ForSubsystem(SubsystemDuration)
	r.Stations = make([]*Station, 0, len(r.Config.Stations))
	for _, spec := range r.Config.Stations {
		st := &Station{
			KM:        spec.KM,
			Services:  append([]string(nil), spec.Services...),
			Resources: make(map[string]*ServiceResource, len(spec.Services)),
		}
		for _, name := range spec.Services {
			svc, ok := r.Config.Services[name]
			if !ok {
				return configErrorf("stations", "km %v references undefined service %q", spec.KM, name)
			}
			capacity := ScaledCapacity(r.Config.BaseCapacity(spec, name), r.Scenario.Multiplier)
			if capacity < 0 {
				return configErrorf("scenarios", "%q yields negative capacity %d for %s at km %v",
					r.Scenario.Name, capacity, name, spec.KM)
			}
			duration := NewClampedNormal(*svc.Duration, durationRNG, name+" duration").Sample()
			st.Resources[name] = NewServiceResource(name, spec.KM, capacity, svc.Reusable, duration)
		}
		r.Stations = append(r.Stations, st)
	}
	return nil
}

func (r *Race) populateRunners(env *raceEnv) {
	paces := NewClampedNormal(*r.Config.BasePace, r.rng.ForSubsystem(SubsystemPace), "base pace")
	r.Runners = make([]*Runner, 0, r.Config.NumRunners)
	for i := 0; i < r.Config.NumRunners; i++ {
		runner := newRunner(i, paces.Sample(), r.Stations, env)
		r.Runners = append(r.Runners, runner)
		r.Scheduler.Schedule(0, runner)
	}
}

// Run drives the scheduler to completion and returns the result.
// Panics if called more than once.
func (r *Race) Run() *RaceResult {
	if r.hasRun {
		panic("Race.Run() called more than once")
	}
	r.hasRun = true
	logrus.Debugf("race %s/%s: %d runners, %d stations, key=%d",
		r.Day.Date.Format(DateLayout), r.Scenario.Name, len(r.Runners), len(r.Stations), r.Key)
	events := r.Scheduler.Run()
	for _, runner := range r.Runners {
		if runner.phase != phaseDone {
			panic(fmt.Sprintf("runner %d stalled at checkpoint %d", runner.ID, runner.next))
		}
	}
	return &RaceResult{
		Day:      r.Day,
		Scenario: r.Scenario,
		Key:      r.Key,
		Runners:  r.Runners,
		Stations: r.Stations,
		Duration: r.Scheduler.Now(),
		Events:   events,
	}
}

// RunRace builds and runs one Race Run.
func RunRace(cfg *RaceConfig, day WeatherDay, scenario Scenario, key SimulationKey, tr *trace.RaceTrace) (*RaceResult, error) {
	race, err := NewRace(cfg, day, scenario, key, tr)
	if err != nil {
		return nil, err
	}
	return race.Run(), nil
}

// Resources returns the Station→Service resource table keyed by checkpoint km.
func (res *RaceResult) Resources() map[float64]map[string]*ServiceResource {
	table := make(map[float64]map[string]*ServiceResource, len(res.Stations))
	for _, st := range res.Stations {
		table[st.KM] = st.Resources
	}
	return table
}

// FinalPaces returns every runner's final pace in runner order.
func (res *RaceResult) FinalPaces() []float64 {
	paces := make([]float64, len(res.Runners))
	for i, runner := range res.Runners {
		paces[i] = runner.Pace()
	}
	return paces
}

// MeanPace returns the mean final pace across all runners.
func (res *RaceResult) MeanPace() (float64, error) {
	if len(res.Runners) == 0 {
		return 0, ErrNoRunners
	}
	return stat.Mean(res.FinalPaces(), nil), nil
}

// DroppedCount returns the number of runners that dropped out.
func (res *RaceResult) DroppedCount() int {
	n := 0
	for _, runner := range res.Runners {
		if runner.Dropped() {
			n++
		}
	}
	return n
}

// FinishedCount returns the number of runners that finished without dropping out.
func (res *RaceResult) FinishedCount() int {
	return len(res.Runners) - res.DroppedCount()
}
