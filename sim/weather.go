package sim

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// DateLayout is the date format of the weather series.
const DateLayout = "2006-01-02"

// WeatherDimension names one axis of the weather model.
type WeatherDimension string

const (
	Temperature WeatherDimension = "temperature"
	Humidity    WeatherDimension = "humidity"
	Wind        WeatherDimension = "wind"
)

// WeatherDimensions lists every dimension in a fixed order.
var WeatherDimensions = []WeatherDimension{Temperature, Humidity, Wind}

// WeatherTable maps each dimension's level to an additive pace delta.
type WeatherTable map[WeatherDimension]map[string]float64

// WeatherState is one day's level for each weather dimension.
type WeatherState map[WeatherDimension]string

// WeatherDay is one row of the weather series.
type WeatherDay struct {
	Date  time.Time
	State WeatherState
}

// PaceDelta returns the sum of the per-dimension deltas for the given state.
func (t WeatherTable) PaceDelta(state WeatherState) (float64, error) {
	total := 0.0
	for _, dim := range WeatherDimensions {
		level, ok := state[dim]
		if !ok {
			return 0, fmt.Errorf("weather state missing %s", dim)
		}
		delta, ok := t[dim][level]
		if !ok {
			return 0, fmt.Errorf("unknown %s level %q", dim, level)
		}
		total += delta
	}
	return total, nil
}

// ValidateDays checks every day of the series against the table. Dates must
// be unique: aggregates are keyed by date.
func (t WeatherTable) ValidateDays(days []WeatherDay) error {
	var errs []error
	seen := make(map[string]int, len(days))
	for i, d := range days {
		field := fmt.Sprintf("weather[%d] (%s)", i, d.Date.Format(DateLayout))
		if _, err := t.PaceDelta(d.State); err != nil {
			errs = append(errs, configErrorf(field, "%v", err))
		}
		if first, ok := seen[d.Date.Format(DateLayout)]; ok {
			errs = append(errs, configErrorf(field, "duplicate date, first seen at weather[%d]", first))
			continue
		}
		seen[d.Date.Format(DateLayout)] = i
	}
	return errors.Join(errs...)
}

// LoadWeatherSeries reads a date,temperature,humidity,wind CSV file.
// A leading header row is skipped if its first field is "date".
func LoadWeatherSeries(path string) ([]WeatherDay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading weather series: %w", err)
	}
	defer f.Close()
	days, err := ParseWeatherSeries(f)
	if err != nil {
		return nil, fmt.Errorf("parsing weather series %s: %w", path, err)
	}
	return days, nil
}

// ParseWeatherSeries parses the weather CSV format from r.
func ParseWeatherSeries(r io.Reader) ([]WeatherDay, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 4
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	var days []WeatherDay
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "date") {
			continue
		}
		date, err := time.Parse(DateLayout, strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", line, err)
		}
		days = append(days, WeatherDay{
			Date: date,
			State: WeatherState{
				Temperature: strings.TrimSpace(rec[1]),
				Humidity:    strings.TrimSpace(rec[2]),
				Wind:        strings.TrimSpace(rec[3]),
			},
		})
	}
	return days, nil
}
