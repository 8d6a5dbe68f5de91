// Package trace provides decision-trace recording for scheduler analysis.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// DecisionKind names one kind of scheduling decision.
type DecisionKind string

const (
	KindDispatch DecisionKind = "dispatch" // waiting process placed on a slot
	KindPause    DecisionKind = "pause"    // slice expired
	KindPreempt  DecisionKind = "preempt"  // evicted in favour of Other
	KindDemote   DecisionKind = "demote"   // feedback queue level increased
	KindFinish   DecisionKind = "finish"   // remaining CPU time reached zero
)

// DecisionRecord captures a single scheduling decision.
type DecisionRecord struct {
	Tick   int64
	Kind   DecisionKind
	PID    int
	Other  int    // contender pid for KindPreempt, -1 otherwise
	Detail string // free-form, e.g. "queue 0 -> 1"
}
