package sim

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// ServiceSpec describes one support service offered at stations.
type ServiceSpec struct {
	Capacity     int        `yaml:"capacity"`      // base capacity per station, before the scenario multiplier
	Reusable     bool       `yaml:"reusable"`      // slot returns to the pool once the service duration elapses
	NeedIncrease *RangeSpec  `yaml:"need_increase"` // necessity gained between checkpoints; required
	Duration     *NormalSpec `yaml:"duration"`      // service time, drawn once per resource instance; required
}

// StationSpec is a checkpoint and the services offered there.
type StationSpec struct {
	KM                float64        `yaml:"km"`
	Services          []string       `yaml:"services"`
	CapacityOverrides map[string]int `yaml:"capacity_overrides,omitempty"` // per-station base capacity
}

// Scenario is a named capacity multiplier applied to every base capacity.
type Scenario struct {
	Name       string  `yaml:"name"`
	Multiplier float64 `yaml:"multiplier"`
}

// RaceConfig is the immutable configuration of a race. It is loaded once and
// passed explicitly into every Race Run; nothing in the engine mutates it.
type RaceConfig struct {
	NumRunners     int                    `yaml:"num_runners"`
	RaceDistance   float64                `yaml:"race_distance"`
	CutoffDistance float64                `yaml:"cutoff_distance"`
	BasePace       *NormalSpec            `yaml:"base_pace"`
	NeedThreshold  *RangeSpec             `yaml:"need_threshold,omitempty"` // nil = [0,100]
	Repetitions    int                    `yaml:"repetitions"`
	Seed           int64                  `yaml:"seed"`
	Services       map[string]ServiceSpec `yaml:"services"`
	Stations       []StationSpec          `yaml:"stations"`
	WeatherModel   WeatherTable           `yaml:"weather_model"`
	Scenarios      []Scenario             `yaml:"scenarios"`
}

// MaxNecessity is the upper bound of every necessity level.
const MaxNecessity = 100.0

var defaultNeedThreshold = RangeSpec{Low: 0, High: MaxNecessity}

// LoadRaceConfig reads, strictly decodes and validates a YAML race configuration.
func LoadRaceConfig(path string) (*RaceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading race config: %w", err)
	}
	cfg, err := ParseRaceConfig(data)
	if err != nil {
		return nil, fmt.Errorf("race config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseRaceConfig decodes YAML with strict field checking (typos are errors)
// and validates the result.
func ParseRaceConfig(data []byte) (*RaceConfig, error) {
	var cfg RaceConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing race config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// CutoffPace is the pace at or above which a runner is considered dropped.
func (c *RaceConfig) CutoffPace() float64 {
	return c.CutoffDistance / c.RaceDistance
}

// Threshold returns the want-threshold range, defaulting to [0,100].
func (c *RaceConfig) Threshold() RangeSpec {
	if c.NeedThreshold == nil {
		return defaultNeedThreshold
	}
	return *c.NeedThreshold
}

// ServiceNames returns the configured service names in sorted order.
func (c *RaceConfig) ServiceNames() []string {
	names := make([]string, 0, len(c.Services))
	for name := range c.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Scenario looks up a scenario by name.
func (c *RaceConfig) Scenario(name string) (Scenario, bool) {
	for _, s := range c.Scenarios {
		if s.Name == name {
			return s, true
		}
	}
	return Scenario{}, false
}

// BaseCapacity returns the capacity of service at station before the scenario multiplier.
func (c *RaceConfig) BaseCapacity(station StationSpec, service string) int {
	if override, ok := station.CapacityOverrides[service]; ok {
		return override
	}
	return c.Services[service].Capacity
}

// ScaledCapacity applies a scenario multiplier to a base capacity, rounding down.
func ScaledCapacity(base int, multiplier float64) int {
	return int(math.Floor(float64(base) * multiplier))
}

// Validate checks every field and returns all problems joined together.
func (c *RaceConfig) Validate() error {
	var errs []error
	add := func(field, format string, args ...any) {
		errs = append(errs, configErrorf(field, format, args...))
	}

	if c.NumRunners < 0 {
		add("num_runners", "must be non-negative, got %d", c.NumRunners)
	}
	if !(c.RaceDistance > 0) {
		add("race_distance", "must be positive, got %v", c.RaceDistance)
	}
	if !(c.CutoffDistance > 0) {
		add("cutoff_distance", "must be positive, got %v", c.CutoffDistance)
	}
	if c.BasePace == nil {
		add("base_pace", "missing distribution parameters")
	} else if c.BasePace.StdDev < 0 {
		add("base_pace.stddev", "must be non-negative, got %v", c.BasePace.StdDev)
	}
	if c.NeedThreshold != nil {
		validateRange(add, "need_threshold", *c.NeedThreshold)
	}
	if c.Repetitions < 0 {
		add("repetitions", "must be non-negative, got %d", c.Repetitions)
	}

	for _, name := range c.ServiceNames() {
		svc := c.Services[name]
		field := "services." + name
		if svc.Capacity < 0 {
			add(field+".capacity", "must be non-negative, got %d", svc.Capacity)
		}
		if svc.NeedIncrease == nil {
			add(field+".need_increase", "missing distribution parameters")
		} else {
			validateRange(add, field+".need_increase", *svc.NeedIncrease)
		}
		if svc.Duration == nil {
			add(field+".duration", "missing distribution parameters")
		} else if svc.Duration.StdDev < 0 {
			add(field+".duration.stddev", "must be non-negative, got %v", svc.Duration.StdDev)
		}
	}

	seenKM := make(map[float64]bool)
	for i, st := range c.Stations {
		field := fmt.Sprintf("stations[%d]", i)
		if !(st.KM > 0) {
			add(field+".km", "must be positive, got %v", st.KM)
		}
		if seenKM[st.KM] {
			add(field+".km", "duplicate checkpoint at km %v", st.KM)
		}
		seenKM[st.KM] = true
		seenSvc := make(map[string]bool)
		for _, name := range st.Services {
			if _, ok := c.Services[name]; !ok {
				add(field+".services", "references undefined service %q", name)
			}
			if seenSvc[name] {
				add(field+".services", "service %q listed twice", name)
			}
			seenSvc[name] = true
		}
		for name, capacity := range st.CapacityOverrides {
			if !seenSvc[name] {
				add(field+".capacity_overrides", "service %q is not offered at this station", name)
			}
			if capacity < 0 {
				add(field+".capacity_overrides."+name, "must be non-negative, got %d", capacity)
			}
		}
	}

	for _, dim := range WeatherDimensions {
		if len(c.WeatherModel[dim]) == 0 {
			add("weather_model."+string(dim), "no levels defined")
		}
	}
	for dim := range c.WeatherModel {
		if dim != Temperature && dim != Humidity && dim != Wind {
			add("weather_model", "unknown dimension %q", dim)
		}
	}

	if len(c.Scenarios) == 0 {
		add("scenarios", "at least one scenario is required")
	}
	seenScenario := make(map[string]bool)
	for i, s := range c.Scenarios {
		field := fmt.Sprintf("scenarios[%d]", i)
		if s.Name == "" {
			add(field+".name", "must not be empty")
		}
		if seenScenario[s.Name] {
			add(field+".name", "duplicate scenario %q", s.Name)
		}
		seenScenario[s.Name] = true
		if s.Multiplier < 0 || math.IsNaN(s.Multiplier) || math.IsInf(s.Multiplier, 0) {
			add(field+".multiplier", "must be finite and non-negative, got %v", s.Multiplier)
		}
	}

	return errors.Join(errs...)
}

func validateRange(add func(string, string, ...any), field string, r RangeSpec) {
	if r.Low > r.High {
		add(field, "low %v exceeds high %v", r.Low, r.High)
	}
	if r.Low < 0 || r.High > MaxNecessity {
		add(field, "must lie within [0,%v], got [%v,%v]", MaxNecessity, r.Low, r.High)
	}
}
