package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Beanavil/marathon-sim/sim"
)

// validateCmd loads and validates the inputs without running anything
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the race configuration and weather series",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, days := loadInputs()
		for _, s := range cfg.Scenarios {
			for _, st := range cfg.Stations {
				for _, name := range st.Services {
					if c := sim.ScaledCapacity(cfg.BaseCapacity(st, name), s.Multiplier); c == 0 {
						logrus.Warnf("scenario %s: %s at km %v has zero capacity", s.Name, name, st.KM)
					}
				}
			}
		}
		fmt.Printf("OK: %d stations, %d services, %d scenarios, %d weather days, cutoff pace %.2f\n",
			len(cfg.Stations), len(cfg.Services), len(cfg.Scenarios), len(days), cfg.CutoffPace())
	},
}
