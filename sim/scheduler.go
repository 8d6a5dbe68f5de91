package sim

import (
	"fmt"
	"math"
	"sort"
)

// Scheduler decides, tick by tick, which active processes occupy the Environment's
// execution slots. Schedule runs synchronously inside Environment.Tick, before any
// CPU time is consumed, and must leave at most NumThreads processes running.
//
// Implementations sort candidates with sort.SliceStable and explicit tie-break keys
// so that identical inputs always produce identical timelines.
type Scheduler interface {
	// Name returns the registry name of the policy.
	Name() string
	// Wrap returns the policy-private extension for a newly admitted process.
	Wrap(rec *ProcessRecord) Extension
	// Schedule admits, preempts or requeues processes for the upcoming tick.
	Schedule(env *Environment)
	// ScheduleTimes returns the number of dispatches since construction or Reset.
	ScheduleTimes() int
	// Reset zeroes counters and drops all per-run state.
	Reset()
}

// SchedulerParams holds every tunable of every policy. Each policy reads only its own
// fields; DefaultSchedulerParams fills the values a policy uses when none are given.
type SchedulerParams struct {
	Preemptive         bool    // sjf
	TimeSlice          int     // rr
	MinTimeSlice       int     // sp, dp, dpmq
	TimeSliceIncrement int     // sp, dp, dpmq
	BaseTimeSlice      int     // mfq, spmfq, mpmfq
	NQueues            int     // mfq, spmfq, mpmfq
	MinExp             float64 // spmfq, mpmfq
	ExpIncrement       float64 // spmfq, mpmfq
}

// maxQueues bounds NQueues so that MFQ slice lengths stay representable.
const maxQueues = 30

type schedulerEntry struct {
	name        string
	description string
	defaults    SchedulerParams
	validate    func(SchedulerParams) error
	build       func(SchedulerParams) Scheduler
}

// schedulerTable is the registry of policies, in presentation order.
var schedulerTable = []schedulerEntry{
	{
		name:        "fcfs",
		description: "First-Come First-Served",
		build:       func(SchedulerParams) Scheduler { return NewFCFSScheduler() },
	},
	{
		name:        "sjf",
		description: "Shortest Job First",
		build:       func(p SchedulerParams) Scheduler { return NewSJFScheduler(p.Preemptive) },
	},
	{
		name:        "sjf-preemptive",
		description: "Shortest Job First, preemptive",
		defaults:    SchedulerParams{Preemptive: true},
		build:       func(SchedulerParams) Scheduler { return NewSJFScheduler(true) },
	},
	{
		name:        "hrrf",
		description: "Highest Response Ratio First",
		build:       func(SchedulerParams) Scheduler { return NewHRRFScheduler() },
	},
	{
		name:        "rr",
		description: "Round-Robin",
		defaults:    SchedulerParams{TimeSlice: 5},
		validate:    validateRR,
		build:       func(p SchedulerParams) Scheduler { return NewRRScheduler(p.TimeSlice) },
	},
	{
		name:        "sp",
		description: "Static Priority, time-sliced",
		defaults:    SchedulerParams{MinTimeSlice: 1, TimeSliceIncrement: 1},
		validate:    validatePrioritySlices,
		build:       func(p SchedulerParams) Scheduler { return NewSPScheduler(p.MinTimeSlice, p.TimeSliceIncrement) },
	},
	{
		name:        "dp",
		description: "Dynamic Priority",
		defaults:    SchedulerParams{MinTimeSlice: 1, TimeSliceIncrement: 1},
		validate:    validatePrioritySlices,
		build:       func(p SchedulerParams) Scheduler { return NewDPScheduler(p.MinTimeSlice, p.TimeSliceIncrement) },
	},
	{
		name:        "dpmq",
		description: "Dynamic Priority Multi-level Queue",
		defaults:    SchedulerParams{MinTimeSlice: 1, TimeSliceIncrement: 1},
		validate:    validatePrioritySlices,
		build:       func(p SchedulerParams) Scheduler { return NewDPMQScheduler(p.MinTimeSlice, p.TimeSliceIncrement) },
	},
	{
		name:        "mfq",
		description: "Multi-level Feedback Queue",
		defaults:    SchedulerParams{BaseTimeSlice: 2, NQueues: 8},
		validate:    validateFeedback,
		build:       func(p SchedulerParams) Scheduler { return NewMFQScheduler(p.BaseTimeSlice, p.NQueues) },
	},
	{
		name:        "spmfq",
		description: "Static Priority Multi-level Feedback Queue",
		defaults:    SchedulerParams{BaseTimeSlice: 2, NQueues: 16, MinExp: 1.1, ExpIncrement: 0.15},
		validate:    validateExpFeedback,
		build: func(p SchedulerParams) Scheduler {
			return NewSPMFQScheduler(p.BaseTimeSlice, p.MinExp, p.ExpIncrement, p.NQueues)
		},
	},
	{
		name:        "mpmfq",
		description: "Mixed (static + dynamic) Priority Multi-level Feedback Queue",
		defaults:    SchedulerParams{BaseTimeSlice: 2, NQueues: 16, MinExp: 1.1, ExpIncrement: 0.15},
		validate:    validateExpFeedback,
		build: func(p SchedulerParams) Scheduler {
			return NewMPMFQScheduler(p.BaseTimeSlice, p.MinExp, p.ExpIncrement, p.NQueues)
		},
	},
}

// ValidSchedulers is the set of recognized scheduler names.
var ValidSchedulers = func() map[string]bool {
	m := make(map[string]bool, len(schedulerTable))
	for _, e := range schedulerTable {
		m[e.name] = true
	}
	return m
}()

// IsValidScheduler returns true if name is a registered scheduler.
func IsValidScheduler(name string) bool {
	return ValidSchedulers[name]
}

// SchedulerInfo describes one registered scheduler.
type SchedulerInfo struct {
	Name        string
	Description string
	Defaults    SchedulerParams
}

// Schedulers lists the registry in presentation order.
func Schedulers() []SchedulerInfo {
	out := make([]SchedulerInfo, len(schedulerTable))
	for i, e := range schedulerTable {
		out[i] = SchedulerInfo{Name: e.name, Description: e.description, Defaults: e.defaults}
	}
	return out
}

func lookupScheduler(name string) (schedulerEntry, error) {
	for _, e := range schedulerTable {
		if e.name == name {
			return e, nil
		}
	}
	return schedulerEntry{}, fmt.Errorf("%w: unknown scheduler %q", ErrInvalidConfiguration, name)
}

// DefaultSchedulerParams returns the parameters the named policy uses by default.
func DefaultSchedulerParams(name string) (SchedulerParams, error) {
	e, err := lookupScheduler(name)
	if err != nil {
		return SchedulerParams{}, err
	}
	return e.defaults, nil
}

// NewScheduler creates a scheduler by name after validating its parameters.
func NewScheduler(name string, params SchedulerParams) (Scheduler, error) {
	e, err := lookupScheduler(name)
	if err != nil {
		return nil, err
	}
	if e.validate != nil {
		if err := e.validate(params); err != nil {
			return nil, fmt.Errorf("scheduler %q: %w", name, err)
		}
	}
	return e.build(params), nil
}

func validateRR(p SchedulerParams) error {
	if p.TimeSlice < 1 {
		return fmt.Errorf("%w: time_slice must be at least 1, got %d", ErrInvalidConfiguration, p.TimeSlice)
	}
	return nil
}

func validatePrioritySlices(p SchedulerParams) error {
	if p.MinTimeSlice < 1 {
		return fmt.Errorf("%w: min_time_slice must be at least 1, got %d", ErrInvalidConfiguration, p.MinTimeSlice)
	}
	if p.TimeSliceIncrement < 0 {
		return fmt.Errorf("%w: time_slice_increment must be non-negative, got %d", ErrInvalidConfiguration, p.TimeSliceIncrement)
	}
	return nil
}

func validateFeedback(p SchedulerParams) error {
	if p.BaseTimeSlice < 1 {
		return fmt.Errorf("%w: base_time_slice must be at least 1, got %d", ErrInvalidConfiguration, p.BaseTimeSlice)
	}
	if p.NQueues < 1 || p.NQueues > maxQueues {
		return fmt.Errorf("%w: n_queues must be in [1, %d], got %d", ErrInvalidConfiguration, maxQueues, p.NQueues)
	}
	return nil
}

func validateExpFeedback(p SchedulerParams) error {
	if err := validateFeedback(p); err != nil {
		return err
	}
	if p.MinExp <= 0 || math.IsNaN(p.MinExp) || math.IsInf(p.MinExp, 0) {
		return fmt.Errorf("%w: min_exp must be positive and finite, got %v", ErrInvalidConfiguration, p.MinExp)
	}
	if p.ExpIncrement < 0 || math.IsNaN(p.ExpIncrement) || math.IsInf(p.ExpIncrement, 0) {
		return fmt.Errorf("%w: exp_increment must be non-negative and finite, got %v", ErrInvalidConfiguration, p.ExpIncrement)
	}
	return nil
}

// dispatchCounter carries the schedule_times metric shared by every policy.
type dispatchCounter struct {
	scheduleTimes int
}

func (c *dispatchCounter) ScheduleTimes() int { return c.scheduleTimes }

func (c *dispatchCounter) dispatch(env *Environment, pid int) {
	env.Dispatch(pid)
	c.scheduleTimes++
}

// topN truncates an ordered candidate list to the slot count.
func topN[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// byPID orders processes by pid, the total order every policy falls back to.
func byPID(procs []*ScheduledProcess) {
	sort.SliceStable(procs, func(i, j int) bool { return procs[i].PID() < procs[j].PID() })
}

// processesOf resolves queued pids to active processes, preserving order.
func processesOf(env *Environment, pids []int) []*ScheduledProcess {
	out := make([]*ScheduledProcess, 0, len(pids))
	for _, pid := range pids {
		if p := env.Process(pid); p != nil {
			out = append(out, p)
		}
	}
	return out
}

// agedPriority is the dynamic-priority aging rule:
// static - run_ratio + wait_ratio, where run_ratio is the fraction of the process's
// lifetime (inclusive of the current tick) spent running.
func agedPriority(p *ScheduledProcess, now int64) float64 {
	lifetime := float64(now - p.CreatedAt() + 1)
	runRatio := float64(p.RanTicks()) / lifetime
	waitRatio := 1 - runRatio
	return float64(p.Record.StaticPriority) - runRatio + waitRatio
}

// clampSlice converts a computed slice length to at least one tick.
func clampSlice(v float64) int {
	if math.IsNaN(v) || v < 1 {
		return 1
	}
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(v)
}

// sliceCounterOf returns the slice counter carried by a time-sliced extension.
func sliceCounterOf(ext Extension) *int {
	switch x := ext.(type) {
	case *SliceState:
		return &x.SliceCounter
	case *PriorityState:
		return &x.SliceCounter
	case *FeedbackState:
		return &x.SliceCounter
	case *MixedFeedbackState:
		return &x.SliceCounter
	default:
		return nil
	}
}

// expiredSlices returns the running pids whose slice counter has reached zero, ascending.
func expiredSlices(env *Environment) []int {
	var out []int
	for _, pid := range env.RunningIDs() {
		if c := sliceCounterOf(env.Process(pid).Ext); c != nil && *c <= 0 {
			out = append(out, pid)
		}
	}
	return out
}

// consumeSlices charges the upcoming tick against every running process's slice.
func consumeSlices(env *Environment) {
	for _, pid := range env.RunningIDs() {
		if c := sliceCounterOf(env.Process(pid).Ext); c != nil {
			*c--
		}
	}
}
