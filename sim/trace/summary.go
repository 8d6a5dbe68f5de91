package trace

// TraceSummary aggregates statistics from a SchedulingTrace.
type TraceSummary struct {
	TotalDecisions int
	Dispatches     int
	Pauses         int
	Preemptions    int
	Demotions      int
	Finishes       int
	// ContextSwitchesPerPID counts dispatches per pid.
	ContextSwitchesPerPID map[int]int
	MaxContextSwitches    int
}

// Summarize computes aggregate statistics from a SchedulingTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SchedulingTrace) *TraceSummary {
	summary := &TraceSummary{
		ContextSwitchesPerPID: make(map[int]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalDecisions = len(st.Decisions)
	for _, d := range st.Decisions {
		switch d.Kind {
		case KindDispatch:
			summary.Dispatches++
			summary.ContextSwitchesPerPID[d.PID]++
		case KindPause:
			summary.Pauses++
		case KindPreempt:
			summary.Preemptions++
		case KindDemote:
			summary.Demotions++
		case KindFinish:
			summary.Finishes++
		}
	}
	for _, n := range summary.ContextSwitchesPerPID {
		if n > summary.MaxContextSwitches {
			summary.MaxContextSwitches = n
		}
	}
	return summary
}
