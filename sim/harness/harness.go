// Package harness repeats Race Runs across weather days, budget scenarios and
// repetitions, and aggregates the mean final pace per day and scenario.
package harness

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Beanavil/marathon-sim/sim"
)

// Config controls one Monte-Carlo experiment.
type Config struct {
	Race        *sim.RaceConfig
	Days        []sim.WeatherDay
	Scenarios   []sim.Scenario // nil = every scenario in Race
	Repetitions int
	Seed        int64
	Workers     int // <= 0 = GOMAXPROCS
}

// RunRecord is the outcome of one Race Run.
type RunRecord struct {
	ID         uuid.UUID
	Scenario   string
	Repetition int
	DayIndex   int
	Date       time.Time
	Key        sim.SimulationKey
	MeanPace   float64
	Runners    int
	Finished   int
	Dropped    int
}

// job is one (scenario, repetition, day) combination.
type job struct {
	idx        int
	scenario   sim.Scenario
	repetition int
	dayIndex   int
}

type jobResult struct {
	record RunRecord
	err    error
}

// Harness runs a Monte-Carlo experiment. Runs are independent: each owns its
// scheduler, resource table, runners and RNG streams, and its SimulationKey is
// derived from the master seed and the job coordinates only. Results are
// therefore identical for any worker count.
type Harness struct {
	cfg Config
}

// New validates the configuration and weather series before any run starts.
func New(cfg Config) (*Harness, error) {
	if cfg.Race == nil {
		return nil, errors.New("harness: race config is nil")
	}
	if err := cfg.Race.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Race.WeatherModel.ValidateDays(cfg.Days); err != nil {
		return nil, err
	}
	if cfg.Repetitions < 0 {
		return nil, &sim.ConfigError{Field: "repetitions", Reason: fmt.Sprintf("must be non-negative, got %d", cfg.Repetitions)}
	}
	if cfg.Scenarios == nil {
		cfg.Scenarios = cfg.Race.Scenarios
	}
	if len(cfg.Scenarios) == 0 {
		return nil, &sim.ConfigError{Field: "scenarios", Reason: "no scenario selected"}
	}
	for _, s := range cfg.Scenarios {
		if s.Multiplier < 0 {
			return nil, &sim.ConfigError{Field: "scenarios", Reason: fmt.Sprintf("%q has negative multiplier %v", s.Name, s.Multiplier)}
		}
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	return &Harness{cfg: cfg}, nil
}

// Config returns the effective configuration (defaults applied).
func (h *Harness) Config() Config { return h.cfg }

func (h *Harness) jobs() []job {
	jobs := make([]job, 0, len(h.cfg.Scenarios)*h.cfg.Repetitions*len(h.cfg.Days))
	for _, s := range h.cfg.Scenarios {
		for rep := 0; rep < h.cfg.Repetitions; rep++ {
			for d := range h.cfg.Days {
				jobs = append(jobs, job{idx: len(jobs), scenario: s, repetition: rep, dayIndex: d})
			}
		}
	}
	return jobs
}

// Run executes every Race Run and aggregates them per scenario.
//
// Scenarios that cannot be aggregated are left out of the report; their
// *sim.AggregationError values are returned joined, alongside the report for
// the scenarios that succeeded. A cancelled context returns ctx.Err() and no report.
func (h *Harness) Run(ctx context.Context) (*Report, error) {
	jobs := h.jobs()
	results := make([]jobResult, len(jobs))
	master := sim.NewSimulationKey(h.cfg.Seed)

	logrus.Infof("Starting Monte-Carlo: %d scenarios x %d repetitions x %d days = %d runs on %d workers",
		len(h.cfg.Scenarios), h.cfg.Repetitions, len(h.cfg.Days), len(jobs), h.cfg.Workers)

	jobCh := make(chan job)
	var wg sync.WaitGroup
	workers := min(h.cfg.Workers, max(len(jobs), 1))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				results[j.idx] = h.runOne(master, j)
			}
		}()
	}

dispatch:
	for _, j := range jobs {
		select {
		case jobCh <- j:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobCh)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &Report{
		Seed:        h.cfg.Seed,
		Repetitions: h.cfg.Repetitions,
		Records:     make([]RunRecord, 0, len(results)),
	}
	var errs []error
	byScenario := make(map[string][]jobResult, len(h.cfg.Scenarios))
	for i, res := range results {
		byScenario[jobs[i].scenario.Name] = append(byScenario[jobs[i].scenario.Name], res)
		if res.err == nil {
			report.Records = append(report.Records, res.record)
		}
	}
	for _, s := range h.cfg.Scenarios {
		summary, err := aggregate(s, h.cfg.Days, h.cfg.Repetitions, byScenario[s.Name])
		if err != nil {
			logrus.Warnf("scenario %s: %v", s.Name, err)
			errs = append(errs, err)
			continue
		}
		logrus.Infof("scenario %s: best day %s (%.3f), best month %s",
			s.Name, summary.BestDay.Date.Format(sim.DateLayout), summary.BestDay.MeanPace, summary.BestMonth.Label())
		report.Summaries = append(report.Summaries, *summary)
	}
	return report, errors.Join(errs...)
}

func (h *Harness) runOne(master sim.SimulationKey, j job) jobResult {
	day := h.cfg.Days[j.dayIndex]
	key := master.RunKey(j.scenario.Name, j.repetition, j.dayIndex)
	record := RunRecord{
		ID:         uuid.Must(uuid.NewV7()),
		Scenario:   j.scenario.Name,
		Repetition: j.repetition,
		DayIndex:   j.dayIndex,
		Date:       day.Date,
		Key:        key,
	}
	res, err := sim.RunRace(h.cfg.Race, day, j.scenario, key, nil)
	if err != nil {
		return jobResult{record: record, err: err}
	}
	mean, err := res.MeanPace()
	if err != nil {
		return jobResult{record: record, err: err}
	}
	record.MeanPace = mean
	record.Runners = len(res.Runners)
	record.Finished = res.FinishedCount()
	record.Dropped = res.DroppedCount()
	logrus.Debugf("run %s/%d/%s: mean pace %.3f, %d dropped",
		j.scenario.Name, j.repetition, day.Date.Format(sim.DateLayout), mean, record.Dropped)
	return jobResult{record: record}
}
