package trace

// TraceSummary aggregates statistics from a RaceTrace.
type TraceSummary struct {
	TotalStops       int
	TotalServices    int
	TotalDenials     int
	TotalDrops       int
	MeanStopTime     float64        // mean service time per service use
	ServiceUses      map[string]int // service name → completed uses
	ServiceDenials   map[string]int // service name → denials
	DropsByReason    map[string]int
	BusiestStationKM float64 // station with the most stops; 0 if none
}

// Summarize computes aggregate statistics from a RaceTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(rt *RaceTrace) *TraceSummary {
	summary := &TraceSummary{
		ServiceUses:    make(map[string]int),
		ServiceDenials: make(map[string]int),
		DropsByReason:  make(map[string]int),
	}
	if rt == nil {
		return summary
	}

	summary.TotalStops = len(rt.Stops)
	stopsByKM := make(map[float64]int)
	for _, s := range rt.Stops {
		stopsByKM[s.KM]++
		n := stopsByKM[s.KM]
		best := stopsByKM[summary.BusiestStationKM]
		if n > best || (n == best && s.KM < summary.BusiestStationKM) {
			summary.BusiestStationKM = s.KM
		}
	}

	if len(rt.Services) > 0 {
		total := 0.0
		for _, s := range rt.Services {
			summary.ServiceUses[s.Service]++
			total += s.End - s.Start
		}
		summary.TotalServices = len(rt.Services)
		summary.MeanStopTime = total / float64(len(rt.Services))
	}

	for _, d := range rt.Denials {
		summary.ServiceDenials[d.Service]++
	}
	summary.TotalDenials = len(rt.Denials)

	for _, d := range rt.Drops {
		summary.DropsByReason[d.Reason]++
	}
	summary.TotalDrops = len(rt.Drops)

	return summary
}
