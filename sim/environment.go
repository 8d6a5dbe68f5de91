// sim/environment.go
package sim

import (
	"fmt"

	"github.com/emirpasic/gods/sets/treeset"

	"github.com/procsched/procsched/sim/trace"
)

// pendingArrival is an admission dated in the future, activated when the clock reaches it.
type pendingArrival struct {
	rec *ProcessRecord
	at  int64
}

// Environment is the virtual machine the schedulers act on. It owns the partition of
// processes into active and completed, the set of pids occupying execution slots,
// and the global tick counter.
//
// Invariants: running ⊆ active, |running| <= NumThreads, active ∩ completed = ∅,
// and a pid moves active -> completed exactly once.
//
// Thread-safety: NOT thread-safe. Owned by a single simulation loop.
type Environment struct {
	scheduler Scheduler
	nThreads  int
	tick      int64

	active      map[int]*ScheduledProcess
	activeOrder []int // admission order
	completed   map[int]*ScheduledProcess
	doneOrder   []int // completion order
	running     *treeset.Set

	pending     []pendingArrival
	nextPID     int
	lastArrival int64

	trace     *trace.SchedulingTrace
	violation error
}

// NewEnvironment creates an empty Environment at tick 0 driven by the given scheduler.
// The scheduler is Reset: an instance serves one Environment at a time.
func NewEnvironment(scheduler Scheduler, nThreads int) (*Environment, error) {
	if scheduler == nil {
		return nil, fmt.Errorf("%w: scheduler must not be nil", ErrInvalidConfiguration)
	}
	if nThreads <= 0 {
		return nil, fmt.Errorf("%w: n_threads must be positive, got %d", ErrInvalidConfiguration, nThreads)
	}
	scheduler.Reset()
	return &Environment{
		scheduler: scheduler,
		nThreads:  nThreads,
		active:    make(map[int]*ScheduledProcess),
		completed: make(map[int]*ScheduledProcess),
		running:   treeset.NewWithIntComparator(),
	}, nil
}

// SetTrace attaches a decision trace. A nil trace disables recording.
func (e *Environment) SetTrace(st *trace.SchedulingTrace) {
	e.trace = st
}

// Admit registers a new process arriving at atTick and returns its pid.
// Pids come from a monotonically increasing counter and are never reused.
// An arrival dated at the current tick is activated immediately; a later one is
// held and activated at the start of that tick. Arrival ticks must be non-decreasing
// across calls and never precede the current tick.
func (e *Environment) Admit(spec ProcessSpec, atTick int64) (int, error) {
	if atTick < e.tick {
		return 0, fmt.Errorf("%w: arrival at tick %d precedes current tick %d", ErrOutOfOrderArrival, atTick, e.tick)
	}
	if atTick < e.lastArrival {
		return 0, fmt.Errorf("%w: arrival at tick %d precedes previous arrival at tick %d", ErrOutOfOrderArrival, atTick, e.lastArrival)
	}
	if spec.CPUTime <= 0 {
		return 0, fmt.Errorf("%w: cpu time must be positive, got %d", ErrInvalidConfiguration, spec.CPUTime)
	}
	name := spec.Name
	if name == "" {
		name = DefaultProcessName
	}
	rec := &ProcessRecord{
		PID:            e.nextPID,
		Name:           name,
		TotalCPUTime:   spec.CPUTime,
		StaticPriority: spec.StaticPriority,
		IsUserTask:     spec.IsUserTask,
	}
	e.nextPID++
	e.lastArrival = atTick

	if atTick == e.tick {
		e.activate(rec)
	} else {
		e.pending = append(e.pending, pendingArrival{rec: rec, at: atTick})
	}
	return rec.PID, nil
}

func (e *Environment) activate(rec *ProcessRecord) {
	p := newScheduledProcess(rec, e.scheduler.Wrap(rec))
	p.record(e.tick, StateCreated)
	e.active[rec.PID] = p
	e.activeOrder = append(e.activeOrder, rec.PID)
}

func (e *Environment) activatePending() {
	n := 0
	for n < len(e.pending) && e.pending[n].at <= e.tick {
		e.activate(e.pending[n].rec)
		n++
	}
	e.pending = e.pending[n:]
}

// Tick advances the simulation by one time unit:
//  1. pending arrivals due at this tick are activated;
//  2. the scheduler decides slot occupancy, including any preemption;
//  3. every running process consumes one unit of CPU time, and processes that
//     reach zero are retired to completed with a finished event at tick+1;
//  4. the clock advances.
//
// An ErrInvariantViolation is sticky: every later call returns it.
func (e *Environment) Tick() error {
	if e.nThreads <= 0 {
		return fmt.Errorf("%w: n_threads must be positive, got %d", ErrInvalidConfiguration, e.nThreads)
	}
	if e.violation != nil {
		return e.violation
	}

	e.activatePending()
	e.scheduler.Schedule(e)
	if e.violation != nil {
		return e.violation
	}
	if e.running.Size() > e.nThreads {
		e.fail("tick %d: %d processes running on %d slots", e.tick, e.running.Size(), e.nThreads)
		return e.violation
	}

	var finished []int
	for _, v := range e.running.Values() {
		pid := v.(int)
		p := e.active[pid]
		p.Remaining--
		p.record(e.tick, StateRunning)
		if p.Remaining <= 0 {
			finished = append(finished, pid)
		}
	}
	for _, pid := range finished {
		e.retire(pid)
	}
	if e.violation != nil {
		return e.violation
	}

	e.tick++
	return nil
}

func (e *Environment) retire(pid int) {
	p := e.active[pid]
	e.running.Remove(pid)
	delete(e.active, pid)
	e.activeOrder = removePID(e.activeOrder, pid)
	if _, dup := e.completed[pid]; dup {
		e.fail("pid %d completed twice", pid)
		return
	}
	p.record(e.tick+1, StateFinished)
	e.completed[pid] = p
	e.doneOrder = append(e.doneOrder, pid)
	e.recordDecision(trace.KindFinish, pid, -1, "")
}

// Dispatch places an active, waiting process on a free slot and records a
// started_running event. Capacity is checked once the scheduler returns.
func (e *Environment) Dispatch(pid int) {
	p, ok := e.active[pid]
	switch {
	case !ok:
		e.fail("dispatch of inactive pid %d", pid)
	case e.running.Contains(pid):
		e.fail("pid %d dispatched twice", pid)
	case p.Remaining <= 0:
		e.fail("dispatch of pid %d with no remaining cpu time", pid)
	default:
		e.running.Add(pid)
		p.record(e.tick, StateStartedRunning)
		e.recordDecision(trace.KindDispatch, pid, -1, "")
	}
}

// Pause takes a running process off its slot and records a paused event.
func (e *Environment) Pause(pid int) {
	e.pause(pid, trace.KindPause, -1)
}

// Preempt pauses victim so that contender can take its slot. The caller dispatches
// the contender.
func (e *Environment) Preempt(victim, contender int) {
	e.pause(victim, trace.KindPreempt, contender)
}

func (e *Environment) pause(pid int, kind trace.DecisionKind, other int) {
	if !e.running.Contains(pid) {
		e.fail("pause of pid %d which is not running", pid)
		return
	}
	e.running.Remove(pid)
	e.active[pid].record(e.tick, StatePaused)
	e.recordDecision(kind, pid, other, "")
}

// RecordDemotion notes a feedback-queue demotion in the decision trace.
func (e *Environment) RecordDemotion(pid, from, to int) {
	e.recordDecision(trace.KindDemote, pid, -1, fmt.Sprintf("queue %d -> %d", from, to))
}

func (e *Environment) recordDecision(kind trace.DecisionKind, pid, other int, detail string) {
	if e.trace == nil {
		return
	}
	e.trace.Record(trace.DecisionRecord{
		Tick:   e.tick,
		Kind:   kind,
		PID:    pid,
		Other:  other,
		Detail: detail,
	})
}

func (e *Environment) fail(format string, args ...any) {
	if e.violation == nil {
		e.violation = fmt.Errorf("%w: "+format, append([]any{ErrInvariantViolation}, args...)...)
	}
}

// NumThreads returns the number of execution slots.
func (e *Environment) NumThreads() int { return e.nThreads }

// CurrentTick returns the global tick counter.
func (e *Environment) CurrentTick() int64 { return e.tick }

// FreeSlots returns the number of unoccupied execution slots.
func (e *Environment) FreeSlots() int { return e.nThreads - e.running.Size() }

// IsRunning reports whether pid occupies a slot.
func (e *Environment) IsRunning(pid int) bool { return e.running.Contains(pid) }

// IsActive reports whether pid has been admitted and not yet completed.
func (e *Environment) IsActive(pid int) bool {
	_, ok := e.active[pid]
	return ok
}

// Process returns the active process with the given pid, or nil.
func (e *Environment) Process(pid int) *ScheduledProcess { return e.active[pid] }

// ActiveIDs returns the active pids in admission order.
func (e *Environment) ActiveIDs() []int {
	return append([]int(nil), e.activeOrder...)
}

// ActiveProcesses returns the active processes in admission order.
func (e *Environment) ActiveProcesses() []*ScheduledProcess {
	out := make([]*ScheduledProcess, len(e.activeOrder))
	for i, pid := range e.activeOrder {
		out[i] = e.active[pid]
	}
	return out
}

// RunningIDs returns the pids occupying slots, ascending.
func (e *Environment) RunningIDs() []int {
	out := make([]int, 0, e.running.Size())
	for _, v := range e.running.Values() {
		out = append(out, v.(int))
	}
	return out
}

// CompletedProcesses returns finished processes in completion order.
func (e *Environment) CompletedProcesses() []*ScheduledProcess {
	out := make([]*ScheduledProcess, len(e.doneOrder))
	for i, pid := range e.doneOrder {
		out[i] = e.completed[pid]
	}
	return out
}

// PendingCount returns the number of admitted arrivals not yet activated.
func (e *Environment) PendingCount() int { return len(e.pending) }

// Idle reports whether nothing is active and nothing is pending.
func (e *Environment) Idle() bool { return len(e.active) == 0 && len(e.pending) == 0 }

func removePID(pids []int, pid int) []int {
	for i, p := range pids {
		if p == pid {
			return append(pids[:i], pids[i+1:]...)
		}
	}
	return pids
}
