// Package trace provides race-trace recording for station and drop-out analysis.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// StopRecord captures a runner stopping at a station to use at least one service.
type StopRecord struct {
	RunnerID int
	Clock    float64
	KM       float64
	Services []string // services acquired, in processing order
}

// ServiceRecord captures one completed service use.
type ServiceRecord struct {
	RunnerID    int
	Service     string
	KM          float64
	Start       float64
	End         float64
	PacePenalty float64 // pace increase caused by the stop
}

// DenialRecord captures a wanted service that had no free slot.
type DenialRecord struct {
	RunnerID  int
	Service   string
	KM        float64
	Clock     float64
	Necessity float64
}

// DropRecord captures a runner dropping out.
type DropRecord struct {
	RunnerID int
	KM       float64
	Clock    float64
	Pace     float64
	Reason   string
}
