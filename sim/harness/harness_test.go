package harness

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Beanavil/marathon-sim/sim"
	"github.com/Beanavil/marathon-sim/sim/internal/testutil"
)

func loadFixture(t *testing.T, raceYAML, weatherCSV string) (*sim.RaceConfig, []sim.WeatherDay) {
	t.Helper()
	cfg, err := sim.ParseRaceConfig([]byte(raceYAML))
	require.NoError(t, err)
	days, err := sim.ParseWeatherSeries(strings.NewReader(weatherCSV))
	require.NoError(t, err)
	return cfg, days
}

func mustRun(t *testing.T, cfg Config) *Report {
	t.Helper()
	h, err := New(cfg)
	require.NoError(t, err)
	report, err := h.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, report)
	return report
}

func TestHarness_TinyRace_GoldenReport(t *testing.T) {
	// GIVEN a race whose every outcome is known in advance
	race, days := loadFixture(t, testutil.TinyRaceYAML, testutil.TinyWeatherCSV)

	// WHEN the experiment runs
	report := mustRun(t, Config{Race: race, Days: days, Repetitions: race.Repetitions, Seed: race.Seed, Workers: 3})

	// THEN the rendered report matches the golden file
	var buf bytes.Buffer
	require.NoError(t, report.WriteText(&buf))
	g := goldie.New(t)
	g.Assert(t, "tiny_report", buf.Bytes())
}

func TestHarness_TinyRace_BestDayAndMonth(t *testing.T) {
	race, days := loadFixture(t, testutil.TinyRaceYAML, testutil.TinyWeatherCSV)
	report := mustRun(t, Config{Race: race, Days: days, Repetitions: 2, Seed: 7})

	base, ok := report.Summary("base")
	require.True(t, ok)
	require.Len(t, base.Days, 3)
	assert.InDelta(t, 6.2, base.Days[0].MeanPace, 1e-9)
	assert.InDelta(t, 5.2, base.Days[1].MeanPace, 1e-9)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), base.BestDay.Date)
	assert.Equal(t, "2024-04", base.BestMonth.Label())
	assert.Equal(t, 2, base.BestMonth.Days)
	assert.Equal(t, 0.0, base.DropRate)
	testutil.AssertFloat64Equal(t, "base mean pace", (6.2+5.2+6.2)/3, base.MeanPace, 1e-9)

	// THEN ties resolve to the earliest day and month
	closed, ok := report.Summary("closed")
	require.True(t, ok)
	assert.Equal(t, days[0].Date, closed.BestDay.Date)
	assert.Equal(t, "2024-03", closed.BestMonth.Label())
	assert.Equal(t, 1.0, closed.DropRate)
	assert.Equal(t, race.CutoffPace(), closed.MeanPace)

	assert.Len(t, report.Records, 12)
}

func TestHarness_ResultsIndependentOfWorkerCount(t *testing.T) {
	// GIVEN the randomized fixture
	race, days := loadFixture(t, testutil.MarathonYAML, testutil.WeatherCSV)
	cfg := Config{Race: race, Days: days, Repetitions: 2, Seed: 99}

	// WHEN run sequentially and in parallel
	cfg.Workers = 1
	sequential := mustRun(t, cfg)
	cfg.Workers = 8
	parallel := mustRun(t, cfg)

	// THEN every aggregate and every run outcome is identical
	assert.Equal(t, sequential.Summaries, parallel.Summaries)
	require.Equal(t, len(sequential.Records), len(parallel.Records))
	for i := range sequential.Records {
		a, b := sequential.Records[i], parallel.Records[i]
		assert.Equal(t, a.Key, b.Key)
		assert.Equal(t, a.MeanPace, b.MeanPace, "record %d", i)
		assert.Equal(t, a.Dropped, b.Dropped, "record %d", i)
	}
}

func TestHarness_DifferentSeedsDiffer(t *testing.T) {
	race, days := loadFixture(t, testutil.MarathonYAML, testutil.WeatherCSV)
	a := mustRun(t, Config{Race: race, Days: days, Repetitions: 1, Seed: 1})
	b := mustRun(t, Config{Race: race, Days: days, Repetitions: 1, Seed: 2})

	assert.NotEqual(t, a.Summaries[0].Days, b.Summaries[0].Days)
}

func TestHarness_ZeroRepetitions_AggregationErrorPerScenario(t *testing.T) {
	// GIVEN no repetitions at all
	race, days := loadFixture(t, testutil.TinyRaceYAML, testutil.TinyWeatherCSV)
	h, err := New(Config{Race: race, Days: days, Repetitions: 0, Seed: 7})
	require.NoError(t, err)

	// WHEN run
	report, err := h.Run(context.Background())

	// THEN each scenario reports an AggregationError and nothing is aggregated
	require.Error(t, err)
	require.NotNil(t, report)
	assert.Empty(t, report.Summaries)
	var aggErr *sim.AggregationError
	require.True(t, errors.As(err, &aggErr))
	assert.ErrorIs(t, err, sim.ErrNoRunners)
	assert.Contains(t, err.Error(), `"base"`)
	assert.Contains(t, err.Error(), `"closed"`)
}

func TestHarness_NoRunners_AggregationErrorNamesTheDay(t *testing.T) {
	race, days := loadFixture(t, testutil.TinyRaceYAML, testutil.TinyWeatherCSV)
	race.NumRunners = 0
	h, err := New(Config{Race: race, Days: days, Repetitions: 1, Seed: 7})
	require.NoError(t, err)

	report, err := h.Run(context.Background())

	var aggErr *sim.AggregationError
	require.True(t, errors.As(err, &aggErr))
	assert.Equal(t, days[0].Date, aggErr.Date)
	assert.ErrorIs(t, err, sim.ErrNoRunners)
	assert.Empty(t, report.Records)
}

func TestHarness_ScenarioSubset(t *testing.T) {
	race, days := loadFixture(t, testutil.TinyRaceYAML, testutil.TinyWeatherCSV)
	closed, _ := race.Scenario("closed")

	report := mustRun(t, Config{Race: race, Days: days, Scenarios: []sim.Scenario{closed}, Repetitions: 1, Seed: 7})

	require.Len(t, report.Summaries, 1)
	assert.Equal(t, "closed", report.Summaries[0].Scenario.Name)
	_, ok := report.Summary("base")
	assert.False(t, ok)
}

func TestHarness_CancelledContext(t *testing.T) {
	race, days := loadFixture(t, testutil.MarathonYAML, testutil.WeatherCSV)
	h, err := New(Config{Race: race, Days: days, Repetitions: 5, Seed: 1, Workers: 2})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := h.Run(ctx)

	assert.Nil(t, report)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_RejectsInvalidInputs(t *testing.T) {
	race, days := loadFixture(t, testutil.TinyRaceYAML, testutil.TinyWeatherCSV)

	t.Run("nil race", func(t *testing.T) {
		_, err := New(Config{Days: days})
		assert.Error(t, err)
	})
	t.Run("unknown weather level", func(t *testing.T) {
		bad := append([]sim.WeatherDay(nil), days...)
		bad[1].State = sim.WeatherState{sim.Temperature: "tropical", sim.Humidity: "low", sim.Wind: "calm"}
		_, err := New(Config{Race: race, Days: bad, Repetitions: 1})
		var cfgErr *sim.ConfigError
		assert.True(t, errors.As(err, &cfgErr))
	})
	t.Run("negative repetitions", func(t *testing.T) {
		_, err := New(Config{Race: race, Days: days, Repetitions: -1})
		assert.ErrorContains(t, err, "repetitions")
	})
	t.Run("negative multiplier", func(t *testing.T) {
		_, err := New(Config{Race: race, Days: days, Repetitions: 1, Scenarios: []sim.Scenario{{Name: "x", Multiplier: -0.5}}})
		assert.ErrorContains(t, err, "negative multiplier")
	})
	t.Run("workers default", func(t *testing.T) {
		h, err := New(Config{Race: race, Days: days, Repetitions: 1})
		require.NoError(t, err)
		assert.Positive(t, h.Config().Workers)
		assert.Len(t, h.Config().Scenarios, 2)
	})
}
