// Defines the process model: the immutable ProcessRecord, the simulation-local
// ScheduledProcess wrapper with its timeline, and the per-policy extension state.

package sim

import (
	"fmt"
)

// ProcessState is one entry kind in a process timeline.
//
// Legal path: created -> started_running -> running (repeated)
// -> optionally (paused -> started_running -> running ...)* -> finished.
type ProcessState string

const (
	StateCreated        ProcessState = "created"
	StateStartedRunning ProcessState = "started_running"
	StateRunning        ProcessState = "running"
	StatePaused         ProcessState = "paused"
	StateFinished       ProcessState = "finished"
)

// DefaultProcessName is used when an arrival carries no name.
const DefaultProcessName = "EMPTY_NAME"

// ProcessSpec holds the caller-supplied attributes of a process, before a pid is assigned.
type ProcessSpec struct {
	Name           string
	CPUTime        int64 // total CPU demand in ticks, must be positive
	StaticPriority int   // larger = more important
	IsUserTask     bool
}

// ProcessRecord is the immutable description of one task. Schedulers may read
// TotalCPUTime only where their algorithm is defined in terms of demand.
type ProcessRecord struct {
	PID            int
	Name           string
	TotalCPUTime   int64
	StaticPriority int
	IsUserTask     bool
}

func (r ProcessRecord) String() string {
	return fmt.Sprintf("Process: (PID: %d, Name: %s, CPU: %d, Prio: %d)", r.PID, r.Name, r.TotalCPUTime, r.StaticPriority)
}

// TimelineEvent is one (tick, state) pair.
type TimelineEvent struct {
	Tick  int64
	State ProcessState
}

// ScheduledProcess wraps a ProcessRecord with the mutable state of one simulation run.
// Remaining and the timeline are written only by the Environment; Ext is owned by
// the scheduler that created it.
type ScheduledProcess struct {
	Record    *ProcessRecord
	Remaining int64           // CPU ticks still needed, reaches 0 exactly once
	Timeline  []TimelineEvent // append-only, non-decreasing in Tick
	Ext       Extension       // scheduler-private fields, fixed shape after Wrap

	createdAt int64
	ranTicks  int64
}

func newScheduledProcess(rec *ProcessRecord, ext Extension) *ScheduledProcess {
	if ext == nil {
		ext = NoExtension{}
	}
	return &ScheduledProcess{
		Record:    rec,
		Remaining: rec.TotalCPUTime,
		Ext:       ext,
	}
}

// PID is shorthand for Record.PID.
func (p *ScheduledProcess) PID() int { return p.Record.PID }

// CreatedAt returns the tick of the created event.
func (p *ScheduledProcess) CreatedAt() int64 { return p.createdAt }

// RanTicks returns the number of running events recorded so far.
func (p *ScheduledProcess) RanTicks() int64 { return p.ranTicks }

func (p *ScheduledProcess) record(tick int64, state ProcessState) {
	switch state {
	case StateCreated:
		p.createdAt = tick
	case StateRunning:
		p.ranTicks++
	}
	p.Timeline = append(p.Timeline, TimelineEvent{Tick: tick, State: state})
}

// StateTicks returns the ticks of every timeline entry in the given state, in order.
func (p *ScheduledProcess) StateTicks(state ProcessState) []int64 {
	var ticks []int64
	for _, ev := range p.Timeline {
		if ev.State == state {
			ticks = append(ticks, ev.Tick)
		}
	}
	return ticks
}

// FirstTick returns the tick of the first entry in the given state.
func (p *ScheduledProcess) FirstTick(state ProcessState) (int64, bool) {
	for _, ev := range p.Timeline {
		if ev.State == state {
			return ev.Tick, true
		}
	}
	return 0, false
}

// LastState returns the state of the final timeline entry, or "" for an empty timeline.
func (p *ScheduledProcess) LastState() ProcessState {
	if len(p.Timeline) == 0 {
		return ""
	}
	return p.Timeline[len(p.Timeline)-1].State
}

// ProcessMetrics are the per-process lifecycle measures.
type ProcessMetrics struct {
	TAT     int64   `json:"tat"`      // first finished - first created
	TATNorm float64 `json:"tat_norm"` // TAT / total CPU demand
	RT      int64   `json:"rt"`       // first started_running - first created
	RTNorm  float64 `json:"rt_norm"`  // RT / total CPU demand
}

// ComputeMetrics derives turnaround and response time from the timeline.
// The timeline must end in StateFinished.
func (p *ScheduledProcess) ComputeMetrics() (ProcessMetrics, error) {
	if p.LastState() != StateFinished {
		return ProcessMetrics{}, fmt.Errorf("%w: pid %d timeline ends in %q, not %q",
			ErrInvariantViolation, p.PID(), p.LastState(), StateFinished)
	}
	created, _ := p.FirstTick(StateCreated)
	finished, _ := p.FirstTick(StateFinished)
	started, ok := p.FirstTick(StateStartedRunning)
	if !ok {
		return ProcessMetrics{}, fmt.Errorf("%w: pid %d finished without being started",
			ErrInvariantViolation, p.PID())
	}
	total := float64(p.Record.TotalCPUTime)
	tat := finished - created
	rt := started - created
	return ProcessMetrics{
		TAT:     tat,
		TATNorm: float64(tat) / total,
		RT:      rt,
		RTNorm:  float64(rt) / total,
	}, nil
}

// Extension is the closed set of scheduler-private per-process states.
// A scheduler picks one variant in Wrap and never reshapes it.
type Extension interface {
	extension()
}

// NoExtension is used by FCFS, SJF and HRRF.
type NoExtension struct{}

// SliceState is used by RR and SP.
type SliceState struct {
	SliceCounter int
}

// PriorityState is used by DP and DPMQ.
type PriorityState struct {
	SliceCounter    int
	DynamicPriority float64
}

// FeedbackState is used by MFQ and SPMFQ.
type FeedbackState struct {
	QueueIndex   int
	SliceCounter int
}

// MixedFeedbackState is used by MPMFQ.
type MixedFeedbackState struct {
	QueueIndex      int
	SliceCounter    int
	DynamicPriority float64
}

func (NoExtension) extension()         {}
func (*SliceState) extension()         {}
func (*PriorityState) extension()      {}
func (*FeedbackState) extension()      {}
func (*MixedFeedbackState) extension() {}
