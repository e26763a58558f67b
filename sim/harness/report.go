package harness

import (
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Beanavil/marathon-sim/sim"
)

// Report is the outcome of a Monte-Carlo experiment.
type Report struct {
	Seed        int64
	Repetitions int
	Records     []RunRecord       // successful runs, in job order
	Summaries   []ScenarioSummary // scenarios that aggregated, in configured order
}

// Summary returns the summary of the named scenario.
func (r *Report) Summary(name string) (ScenarioSummary, bool) {
	for _, s := range r.Summaries {
		if s.Scenario.Name == name {
			return s, true
		}
	}
	return ScenarioSummary{}, false
}

// WriteText renders the report for humans. Numbers use English grouping.
func (r *Report) WriteText(w io.Writer) error {
	p := message.NewPrinter(language.English)
	ew := &errWriter{w: w}

	ew.printf(p, "=== Monte-Carlo Summary ===\n")
	ew.printf(p, "Seed        : %d\n", r.Seed)
	ew.printf(p, "Repetitions : %d\n", r.Repetitions)
	ew.printf(p, "Runs        : %d\n", len(r.Records))
	for _, s := range r.Summaries {
		ew.printf(p, "\nScenario %s (x%.2f)\n", s.Scenario.Name, s.Scenario.Multiplier)
		for _, d := range s.Days {
			ew.printf(p, "  %s  %.2f\n", d.Date.Format(sim.DateLayout), d.MeanPace)
		}
		ew.printf(p, "  best day   : %s (%.2f)\n", s.BestDay.Date.Format(sim.DateLayout), s.BestDay.MeanPace)
		ew.printf(p, "  best month : %s (%.2f)\n", s.BestMonth.Label(), s.BestMonth.MeanPace)
		ew.printf(p, "  mean pace  : %.2f\n", s.MeanPace)
		ew.printf(p, "  drop rate  : %.1f%%\n", s.DropRate*100)
	}
	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(p *message.Printer, format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = p.Fprintf(ew.w, format, args...)
}
