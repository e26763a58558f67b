// Package testutil provides shared test infrastructure for the race simulator.
// It holds configuration fixtures and assertion helpers used across the
// sim/, sim/harness/ and sim/results/ test packages. It does not import sim/.
package testutil

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

// MarathonYAML is a small but complete race configuration with randomness
// everywhere: base paces, service durations, necessity increases, thresholds.
const MarathonYAML = `
num_runners: 60
race_distance: 42.195
cutoff_distance: 1200
base_pace: {mean: 6.0, stddev: 0.8}
repetitions: 3
seed: 42
services:
  water:   {capacity: 20, reusable: false, need_increase: {low: 10, high: 40}, duration: {mean: 0.5, stddev: 0.2}}
  food:    {capacity: 10, reusable: false, need_increase: {low: 5,  high: 20}, duration: {mean: 1.0, stddev: 0.3}}
  medical: {capacity: 2,  reusable: true,  need_increase: {low: 0,  high: 5},  duration: {mean: 8.0, stddev: 2.0}}
  restroom: {capacity: 3, reusable: true,  need_increase: {low: 5,  high: 25}, duration: {mean: 3.0, stddev: 1.0}}
stations:
  - {km: 5,  services: [water]}
  - {km: 10, services: [water, restroom]}
  - {km: 15, services: [water, food]}
  - {km: 21, services: [water, medical, restroom]}
  - {km: 30, services: [water, food, restroom]}
  - {km: 40, services: [water, medical]}
weather_model:
  temperature: {low: 0, mid: 0.05, high: 0.2}
  humidity:    {low: 0, high: 0.1}
  wind:        {calm: 0, windy: 0.08}
scenarios:
  - {name: tight,    multiplier: 0.25}
  - {name: adjusted, multiplier: 1.0}
  - {name: slack,    multiplier: 4.0}
`

// WeatherCSV is a weather series spanning two months for MarathonYAML.
const WeatherCSV = `date,temperature,humidity,wind
2024-03-30,high,high,windy
2024-03-31,mid,low,calm
2024-04-01,low,low,calm
2024-04-02,mid,high,windy
`

// WriteTempFile writes content to name inside a per-test temp dir and returns the path.
func WriteTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// TinyRaceYAML has no randomness left: one runner at pace 5, a water slot at
// km 10 it always wants, and hot weather adding 0.5 per checkpoint. Its
// outcomes can be worked out by hand: final pace 5.2 on low days and 6.2 on
// high days, or the cutoff pace 10 when the "closed" scenario removes the slot.
const TinyRaceYAML = `
num_runners: 1
race_distance: 10
cutoff_distance: 100
base_pace: {mean: 5, stddev: 0}
need_threshold: {low: 0, high: 0}
repetitions: 2
seed: 7
services:
  water: {capacity: 1, reusable: false, need_increase: {low: 100, high: 100}, duration: {mean: 2, stddev: 0}}
stations:
  - {km: 5, services: []}
  - {km: 10, services: [water]}
weather_model:
  temperature: {low: 0, high: 0.5}
  humidity:    {low: 0}
  wind:        {calm: 0}
scenarios:
  - {name: base,   multiplier: 1}
  - {name: closed, multiplier: 0}
`

// TinyWeatherCSV is the weather series for TinyRaceYAML.
const TinyWeatherCSV = `date,temperature,humidity,wind
2024-03-31,high,low,calm
2024-04-01,low,low,calm
2024-04-02,high,low,calm
`
