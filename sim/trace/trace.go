package trace

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures every dispatch, pause, preemption, demotion and finish.
	TraceLevelDecisions TraceLevel = "decisions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SchedulingTrace collects decision records during a simulation.
type SchedulingTrace struct {
	Config    TraceConfig
	Decisions []DecisionRecord
}

// NewSchedulingTrace creates a SchedulingTrace ready for recording.
func NewSchedulingTrace(config TraceConfig) *SchedulingTrace {
	return &SchedulingTrace{
		Config:    config,
		Decisions: make([]DecisionRecord, 0),
	}
}

// Record appends a decision record. Records are dropped when the level is none.
func (st *SchedulingTrace) Record(record DecisionRecord) {
	if st.Config.Level != TraceLevelDecisions {
		return
	}
	st.Decisions = append(st.Decisions, record)
}

// ForPID returns the decisions concerning pid, in recording order.
func (st *SchedulingTrace) ForPID(pid int) []DecisionRecord {
	var out []DecisionRecord
	for _, d := range st.Decisions {
		if d.PID == pid {
			out = append(out, d)
		}
	}
	return out
}
