package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Beanavil/marathon-sim/sim"
	"github.com/Beanavil/marathon-sim/sim/harness"
	"github.com/Beanavil/marathon-sim/sim/results"
)

var (
	// CLI flags shared by every command
	configPath  string // Race configuration YAML
	weatherPath string // Weather series CSV
	logLevel    string // Log verbosity level

	// CLI flags for the Monte-Carlo run
	seed        int64    // Master seed (overrides config when set)
	repetitions int      // Repetitions per scenario (overrides config when set)
	scenarios   []string // Restrict to these scenarios
	workers     int      // Parallel Race Runs
	resultsDB   string   // Optional SQLite results database
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "marathon-sim",
	Short: "Discrete-event road race simulator with Monte-Carlo scenario analysis",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// runCmd executes the Monte-Carlo harness over every scenario and weather day
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the Monte-Carlo race simulation",
	Run: func(cmd *cobra.Command, args []string) {
		if code := runMonteCarlo(cmd); code != 0 {
			os.Exit(code)
		}
	},
}

// runMonteCarlo runs the harness and returns the process exit code: 2 when
// some scenario could not be aggregated. Returning instead of exiting lets the
// deferred signal and database cleanup run.
func runMonteCarlo(cmd *cobra.Command) int {
	cfg, days := loadInputs()

	hcfg := harness.Config{
		Race:        cfg,
		Days:        days,
		Repetitions: cfg.Repetitions,
		Seed:        cfg.Seed,
		Workers:     workers,
	}
	if cmd.Flags().Changed("seed") {
		hcfg.Seed = seed
	}
	if cmd.Flags().Changed("repetitions") {
		hcfg.Repetitions = repetitions
	}
	selected, err := selectScenarios(cfg, scenarios)
	if err != nil {
		logrus.Fatalf("%v", err)
	}
	hcfg.Scenarios = selected

	h, err := harness.New(hcfg)
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	startTime := time.Now()
	report, runErr := h.Run(ctx)
	if report == nil {
		logrus.Fatalf("Simulation aborted: %v", runErr)
	}
	var aggErr *sim.AggregationError
	if errors.As(runErr, &aggErr) {
		logrus.Errorf("Some scenarios could not be aggregated: %v", runErr)
	}

	if err := report.WriteText(os.Stdout); err != nil {
		logrus.Fatalf("Writing report: %v", err)
	}

	if resultsDB != "" {
		store, err := results.Open(resultsDB)
		if err != nil {
			logrus.Fatalf("Opening results database: %v", err)
		}
		defer store.Close()
		if err := store.SaveReport(ctx, report); err != nil {
			logrus.Fatalf("Saving results: %v", err)
		}
		logrus.Infof("Saved %d runs to %s", len(report.Records), resultsDB)
	}

	logrus.Infof("Simulation complete in %s.", time.Since(startTime).Round(time.Millisecond))
	if runErr != nil {
		return 2
	}
	return 0
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "examples/marathon.yaml", "Race configuration YAML")
	rootCmd.PersistentFlags().StringVar(&weatherPath, "weather", "examples/weather.csv", "Weather series CSV (date,temperature,humidity,wind)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	runCmd.Flags().Int64Var(&seed, "seed", 42, "Master seed (overrides the config seed)")
	runCmd.Flags().IntVar(&repetitions, "repetitions", 1, "Repetitions per scenario (overrides the config value)")
	runCmd.Flags().StringSliceVar(&scenarios, "scenario", nil, "Only run these scenarios (repeatable)")
	runCmd.Flags().IntVar(&workers, "workers", 0, "Parallel race runs (0 = GOMAXPROCS)")
	runCmd.Flags().StringVar(&resultsDB, "results-db", "", "Store run records and aggregates in this SQLite database")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(raceCmd)
	rootCmd.AddCommand(validateCmd)
}
