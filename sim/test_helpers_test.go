package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Beanavil/marathon-sim/sim/internal/testutil"
	"github.com/Beanavil/marathon-sim/sim/trace"
)

// calmDay is a weather day whose levels all map to a zero pace delta in
// deterministicConfig.
var calmDay = WeatherDay{
	Date:  time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	State: WeatherState{Temperature: "mild", Humidity: "dry", Wind: "calm"},
}

// deterministicConfig returns a race with no randomness left: fixed base
// pace, threshold forced to 0 and no weather effect. Race distance 10 and
// cutoff distance 100 give a cutoff pace of 10.
func deterministicConfig(runners int, pace float64, services map[string]ServiceSpec, stations ...StationSpec) *RaceConfig {
	if services == nil {
		services = map[string]ServiceSpec{}
	}
	return &RaceConfig{
		NumRunners:     runners,
		RaceDistance:   10,
		CutoffDistance: 100,
		BasePace:       &NormalSpec{Mean: pace, StdDev: 0},
		NeedThreshold:  &RangeSpec{Low: 0, High: 0},
		Repetitions:    1,
		Seed:           1,
		Services:       services,
		Stations:       stations,
		WeatherModel: WeatherTable{
			Temperature: {"mild": 0, "hot": 6, "cool": -6},
			Humidity:    {"dry": 0},
			Wind:        {"calm": 0},
		},
		Scenarios: []Scenario{{Name: "base", Multiplier: 1}},
	}
}

// fixedService is a service with a fixed duration and a fixed necessity
// increase per checkpoint.
func fixedService(capacity int, reusable bool, increase, duration float64) ServiceSpec {
	return ServiceSpec{
		Capacity:     capacity,
		Reusable:     reusable,
		NeedIncrease: &RangeSpec{Low: increase, High: increase},
		Duration:     &NormalSpec{Mean: duration, StdDev: 0},
	}
}

// mustRace builds a traced race or fails the test.
func mustRace(t *testing.T, cfg *RaceConfig, day WeatherDay, key SimulationKey) *Race {
	t.Helper()
	require.NoError(t, cfg.Validate())
	race, err := NewRace(cfg, day, cfg.Scenarios[0], key, trace.NewRaceTrace(trace.TraceLevelEvents))
	require.NoError(t, err)
	return race
}

// fixtureConfig parses the shared marathon fixture.
func fixtureConfig(t *testing.T) *RaceConfig {
	t.Helper()
	cfg, err := ParseRaceConfig([]byte(testutil.MarathonYAML))
	require.NoError(t, err)
	return cfg
}

// fixtureDays parses the shared weather fixture.
func fixtureDays(t *testing.T) []WeatherDay {
	t.Helper()
	path := testutil.WriteTempFile(t, "weather.csv", testutil.WeatherCSV)
	days, err := LoadWeatherSeries(path)
	require.NoError(t, err)
	return days
}
