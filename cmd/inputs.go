package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Beanavil/marathon-sim/sim"
)

// loadInputs reads the race configuration and the weather series, and checks
// the series against the weather model. Any failure is fatal.
func loadInputs() (*sim.RaceConfig, []sim.WeatherDay) {
	cfg, err := sim.LoadRaceConfig(configPath)
	if err != nil {
		logrus.Fatalf("Failed to load race config: %v", err)
	}
	days, err := sim.LoadWeatherSeries(weatherPath)
	if err != nil {
		logrus.Fatalf("Failed to load weather series: %v", err)
	}
	if err := cfg.WeatherModel.ValidateDays(days); err != nil {
		logrus.Fatalf("Weather series does not match the weather model: %v", err)
	}
	logrus.Infof("Loaded %d stations, %d services, %d scenarios, %d weather days",
		len(cfg.Stations), len(cfg.Services), len(cfg.Scenarios), len(days))
	return cfg, days
}

// selectScenarios returns the named scenarios in the order given, or nil
// (meaning all) when names is empty.
func selectScenarios(cfg *sim.RaceConfig, names []string) ([]sim.Scenario, error) {
	if len(names) == 0 {
		return nil, nil
	}
	selected := make([]sim.Scenario, 0, len(names))
	for _, name := range names {
		s, ok := cfg.Scenario(name)
		if !ok {
			return nil, fmt.Errorf("unknown scenario %q", name)
		}
		selected = append(selected, s)
	}
	return selected, nil
}

// findDay returns the weather day with the given date, or the first day when date is empty.
func findDay(days []sim.WeatherDay, date string) (sim.WeatherDay, error) {
	if len(days) == 0 {
		return sim.WeatherDay{}, fmt.Errorf("weather series is empty")
	}
	if date == "" {
		return days[0], nil
	}
	for _, d := range days {
		if d.Date.Format(sim.DateLayout) == date {
			return d, nil
		}
	}
	return sim.WeatherDay{}, fmt.Errorf("no weather data for %s", date)
}
