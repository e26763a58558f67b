package cmd

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Beanavil/marathon-sim/sim"
	"github.com/Beanavil/marathon-sim/sim/trace"
)

var (
	// CLI flags for a single race
	raceDay      string // Weather day (YYYY-MM-DD); first day when empty
	raceScenario string // Scenario name; first scenario when empty
	raceSeed     int64  // Seed of the single run
	traceLevel   string // Trace verbosity
	showRunners  bool   // Print per-runner detail
)

// raceCmd runs one Race Run and prints per-runner and per-station detail
var raceCmd = &cobra.Command{
	Use:   "race",
	Short: "Run a single race for one weather day and scenario",
	Run: func(cmd *cobra.Command, args []string) {
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid trace level: %s", traceLevel)
		}
		cfg, days := loadInputs()
		day, err := findDay(days, raceDay)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		scenario := cfg.Scenarios[0]
		if raceScenario != "" {
			s, ok := cfg.Scenario(raceScenario)
			if !ok {
				logrus.Fatalf("Unknown scenario %q", raceScenario)
			}
			scenario = s
		}

		var tr *trace.RaceTrace
		if trace.TraceLevel(traceLevel) == trace.TraceLevelEvents {
			tr = trace.NewRaceTrace(trace.TraceLevelEvents)
		}
		res, err := sim.RunRace(cfg, day, scenario, sim.NewSimulationKey(raceSeed), tr)
		if err != nil {
			logrus.Fatalf("Race failed: %v", err)
		}
		printRace(res, tr)
	},
}

func printRace(res *sim.RaceResult, tr *trace.RaceTrace) {
	p := message.NewPrinter(language.English)
	mean, err := res.MeanPace()
	if err != nil {
		logrus.Warnf("%v", err)
	}
	p.Printf("=== Race %s / %s ===\n", res.Day.Date.Format(sim.DateLayout), res.Scenario.Name)
	p.Printf("Runners        : %d\n", len(res.Runners))
	p.Printf("Finished       : %d\n", res.FinishedCount())
	p.Printf("Dropped        : %d\n", res.DroppedCount())
	p.Printf("Mean pace      : %.2f\n", mean)
	p.Printf("Simulated time : %.1f\n", res.Duration)
	p.Printf("Events         : %d\n", res.Events)

	fmt.Println("\n=== Stations ===")
	for _, st := range res.Stations {
		for _, name := range st.Services {
			r := st.Resource(name)
			p.Printf("km %-6v %-10s cap %-4d used %-5d denied %-5d duration %.1f\n",
				st.KM, name, r.Capacity(), r.Acquisitions(), r.Denials(), r.ServiceDuration())
		}
	}

	if tr != nil {
		s := trace.Summarize(tr)
		fmt.Println("\n=== Trace ===")
		p.Printf("Stops          : %d\n", s.TotalStops)
		p.Printf("Service uses   : %d (mean %.1f)\n", s.TotalServices, s.MeanStopTime)
		p.Printf("Denials        : %d\n", s.TotalDenials)
		p.Printf("Busiest km     : %v\n", s.BusiestStationKM)
		reasons := make([]string, 0, len(s.DropsByReason))
		for reason := range s.DropsByReason {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			p.Printf("Drops %-20s: %d\n", reason, s.DropsByReason[reason])
		}
	}

	if showRunners {
		fmt.Println("\n=== Runners ===")
		for _, r := range res.Runners {
			p.Printf("%5d  base %.1f  final %.1f  dropped %-5v  stops %v\n",
				r.ID, r.BasePace, r.Pace(), r.Dropped(), r.StopTimes())
		}
	}
}

func init() {
	raceCmd.Flags().StringVar(&raceDay, "day", "", "Weather day YYYY-MM-DD (default: first day of the series)")
	raceCmd.Flags().StringVar(&raceScenario, "scenario", "", "Scenario name (default: first configured scenario)")
	raceCmd.Flags().Int64Var(&raceSeed, "seed", 42, "Seed for the race")
	raceCmd.Flags().StringVar(&traceLevel, "trace", "none", "Trace level (none, events)")
	raceCmd.Flags().BoolVar(&showRunners, "runners", false, "Print per-runner detail")
}
