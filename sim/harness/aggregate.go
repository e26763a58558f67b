package harness

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/Beanavil/marathon-sim/sim"
)

// DayAggregate is the mean pace of one day averaged across repetitions.
type DayAggregate struct {
	Date     time.Time
	MeanPace float64
}

// MonthAggregate is the mean of the daily aggregates of one calendar month.
type MonthAggregate struct {
	Year     int
	Month    time.Month
	MeanPace float64
	Days     int
}

// Label formats the month as YYYY-MM.
func (m MonthAggregate) Label() string {
	if m.Year == 0 {
		return "-"
	}
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// ScenarioSummary is the aggregate series of one budget scenario.
type ScenarioSummary struct {
	Scenario  sim.Scenario
	Days      []DayAggregate // in weather-series order
	BestDay   DayAggregate
	BestMonth MonthAggregate
	MeanPace  float64 // mean of the daily aggregates
	DropRate  float64 // dropped runners / total runners across all runs
}

// aggregate averages one scenario's runs per day. Any failed run, or a day
// without completed runs, fails the whole scenario.
func aggregate(s sim.Scenario, days []sim.WeatherDay, repetitions int, results []jobResult) (*ScenarioSummary, error) {
	if repetitions == 0 || len(days) == 0 {
		return nil, &sim.AggregationError{Scenario: s.Name, Reason: "zero completed runs", Err: sim.ErrNoRunners}
	}

	perDay := make([][]float64, len(days))
	runners, dropped := 0, 0
	for _, res := range results {
		if res.err != nil {
			return nil, &sim.AggregationError{
				Scenario: s.Name,
				Date:     res.record.Date,
				Reason:   fmt.Sprintf("repetition %d failed", res.record.Repetition),
				Err:      res.err,
			}
		}
		perDay[res.record.DayIndex] = append(perDay[res.record.DayIndex], res.record.MeanPace)
		runners += res.record.Runners
		dropped += res.record.Dropped
	}

	summary := &ScenarioSummary{Scenario: s, Days: make([]DayAggregate, len(days))}
	series := make([]float64, len(days))
	for i, day := range days {
		if len(perDay[i]) == 0 {
			return nil, &sim.AggregationError{Scenario: s.Name, Date: day.Date, Reason: "zero completed runs", Err: sim.ErrNoRunners}
		}
		series[i] = stat.Mean(perDay[i], nil)
		summary.Days[i] = DayAggregate{Date: day.Date, MeanPace: series[i]}
	}

	summary.MeanPace = stat.Mean(series, nil)
	summary.BestDay = bestDay(summary.Days)
	summary.BestMonth = bestMonth(summary.Days)
	if runners > 0 {
		summary.DropRate = float64(dropped) / float64(runners)
	}
	return summary, nil
}

// bestDay returns the day with the minimum pace; the first one on ties.
func bestDay(days []DayAggregate) DayAggregate {
	best := days[0]
	for _, d := range days[1:] {
		if d.MeanPace < best.MeanPace {
			best = d
		}
	}
	return best
}

// bestMonth returns the calendar month with the minimum mean daily pace;
// the first one in series order on ties.
func bestMonth(days []DayAggregate) MonthAggregate {
	type monthKey struct {
		year  int
		month time.Month
	}
	var order []monthKey
	paces := make(map[monthKey][]float64)
	for _, d := range days {
		k := monthKey{d.Date.Year(), d.Date.Month()}
		if _, ok := paces[k]; !ok {
			order = append(order, k)
		}
		paces[k] = append(paces[k], d.MeanPace)
	}

	var best MonthAggregate
	for i, k := range order {
		m := MonthAggregate{Year: k.year, Month: k.month, MeanPace: stat.Mean(paces[k], nil), Days: len(paces[k])}
		if i == 0 || m.MeanPace < best.MeanPace {
			best = m
		}
	}
	return best
}
