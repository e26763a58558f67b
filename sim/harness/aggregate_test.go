package harness

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Beanavil/marathon-sim/sim"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBestDay_FirstMinimumWins(t *testing.T) {
	days := []DayAggregate{
		{Date: date(2024, 3, 1), MeanPace: 7},
		{Date: date(2024, 3, 2), MeanPace: 6},
		{Date: date(2024, 3, 3), MeanPace: 6},
	}
	assert.Equal(t, date(2024, 3, 2), bestDay(days).Date)
}

func TestBestMonth_AveragesDailyAggregates(t *testing.T) {
	// GIVEN March with one excellent day and April consistently good
	days := []DayAggregate{
		{Date: date(2024, 3, 30), MeanPace: 5},
		{Date: date(2024, 3, 31), MeanPace: 9},
		{Date: date(2024, 4, 1), MeanPace: 6},
		{Date: date(2024, 4, 2), MeanPace: 6.5},
	}

	// WHEN the best month is picked
	best := bestMonth(days)

	// THEN April wins on its mean (6.25 < 7) despite March holding the best day
	assert.Equal(t, 2024, best.Year)
	assert.Equal(t, time.April, best.Month)
	assert.InDelta(t, 6.25, best.MeanPace, 1e-12)
	assert.Equal(t, 2, best.Days)
	assert.Equal(t, "2024-04", best.Label())
}

func TestBestMonth_SameMonthDifferentYears(t *testing.T) {
	days := []DayAggregate{
		{Date: date(2023, 4, 1), MeanPace: 6},
		{Date: date(2024, 4, 1), MeanPace: 5},
	}
	assert.Equal(t, "2024-04", bestMonth(days).Label())
}

func TestMonthAggregate_Label_Zero(t *testing.T) {
	assert.Equal(t, "-", MonthAggregate{}.Label())
}

func TestAggregate_FailedRun_FailsScenario(t *testing.T) {
	days := []sim.WeatherDay{{Date: date(2024, 4, 1)}}
	cause := errors.New("boom")
	results := []jobResult{
		{record: RunRecord{DayIndex: 0, Date: days[0].Date, Repetition: 0, MeanPace: 6}},
		{record: RunRecord{DayIndex: 0, Date: days[0].Date, Repetition: 1}, err: cause},
	}

	_, err := aggregate(sim.Scenario{Name: "s"}, days, 2, results)

	var aggErr *sim.AggregationError
	require.True(t, errors.As(err, &aggErr))
	assert.Equal(t, "s", aggErr.Scenario)
	assert.Equal(t, days[0].Date, aggErr.Date)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "repetition 1 failed")
}

func TestAggregate_MeanAcrossRepetitionsAndDropRate(t *testing.T) {
	days := []sim.WeatherDay{{Date: date(2024, 4, 1)}, {Date: date(2024, 4, 2)}}
	results := []jobResult{
		{record: RunRecord{DayIndex: 0, MeanPace: 6, Runners: 10, Dropped: 1}},
		{record: RunRecord{DayIndex: 1, MeanPace: 8, Runners: 10, Dropped: 3}},
		{record: RunRecord{DayIndex: 0, MeanPace: 7, Runners: 10, Dropped: 0}},
		{record: RunRecord{DayIndex: 1, MeanPace: 9, Runners: 10, Dropped: 0}},
	}

	summary, err := aggregate(sim.Scenario{Name: "s", Multiplier: 1}, days, 2, results)
	require.NoError(t, err)

	assert.Equal(t, 6.5, summary.Days[0].MeanPace)
	assert.Equal(t, 8.5, summary.Days[1].MeanPace)
	assert.Equal(t, 7.5, summary.MeanPace)
	assert.InDelta(t, 0.1, summary.DropRate, 1e-12)
	assert.Equal(t, days[0].Date, summary.BestDay.Date)
}
