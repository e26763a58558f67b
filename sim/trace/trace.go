package trace

// TraceLevel controls the verbosity of race tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelEvents captures stops, service uses, denials and drop-outs.
	TraceLevelEvents TraceLevel = "events"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:   true,
	TraceLevelEvents: true,
	"":               true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// RaceTrace collects records during one Race Run.
// A nil *RaceTrace is valid and records nothing.
type RaceTrace struct {
	Level    TraceLevel
	Stops    []StopRecord
	Services []ServiceRecord
	Denials  []DenialRecord
	Drops    []DropRecord
}

// NewRaceTrace creates a RaceTrace ready for recording.
func NewRaceTrace(level TraceLevel) *RaceTrace {
	return &RaceTrace{
		Level:    level,
		Stops:    make([]StopRecord, 0),
		Services: make([]ServiceRecord, 0),
		Denials:  make([]DenialRecord, 0),
		Drops:    make([]DropRecord, 0),
	}
}

func (rt *RaceTrace) enabled() bool {
	return rt != nil && rt.Level == TraceLevelEvents
}

// RecordStop appends a stop record.
func (rt *RaceTrace) RecordStop(record StopRecord) {
	if rt.enabled() {
		rt.Stops = append(rt.Stops, record)
	}
}

// RecordService appends a service record.
func (rt *RaceTrace) RecordService(record ServiceRecord) {
	if rt.enabled() {
		rt.Services = append(rt.Services, record)
	}
}

// RecordDenial appends a denial record.
func (rt *RaceTrace) RecordDenial(record DenialRecord) {
	if rt.enabled() {
		rt.Denials = append(rt.Denials, record)
	}
}

// RecordDrop appends a drop-out record.
func (rt *RaceTrace) RecordDrop(record DropRecord) {
	if rt.enabled() {
		rt.Drops = append(rt.Drops, record)
	}
}
