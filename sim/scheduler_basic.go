package sim

import (
	"sort"
)

// FCFSScheduler runs processes in pid (arrival) order and never preempts.
type FCFSScheduler struct {
	dispatchCounter
}

func NewFCFSScheduler() *FCFSScheduler { return &FCFSScheduler{} }

func (s *FCFSScheduler) Name() string                   { return "fcfs" }
func (s *FCFSScheduler) Wrap(_ *ProcessRecord) Extension { return NoExtension{} }
func (s *FCFSScheduler) Reset()                         { s.scheduleTimes = 0 }

func (s *FCFSScheduler) Schedule(env *Environment) {
	if env.FreeSlots() == 0 {
		return
	}
	procs := env.ActiveProcesses()
	byPID(procs)
	for _, p := range topN(procs, env.NumThreads()) {
		if !env.IsRunning(p.PID()) && env.FreeSlots() > 0 {
			s.dispatch(env, p.PID())
		}
	}
}

// SJFScheduler runs the processes with the least remaining CPU time.
// When Preemptive is set and all slots are busy, a strictly shorter contender evicts
// the running process with the most remaining time.
// Warning: SJF can starve long processes under sustained load.
type SJFScheduler struct {
	dispatchCounter
	Preemptive bool
}

func NewSJFScheduler(preemptive bool) *SJFScheduler {
	return &SJFScheduler{Preemptive: preemptive}
}

func (s *SJFScheduler) Name() string {
	if s.Preemptive {
		return "sjf-preemptive"
	}
	return "sjf"
}

func (s *SJFScheduler) Wrap(_ *ProcessRecord) Extension { return NoExtension{} }
func (s *SJFScheduler) Reset()                         { s.scheduleTimes = 0 }

func (s *SJFScheduler) Schedule(env *Environment) {
	procs := env.ActiveProcesses()
	sort.SliceStable(procs, func(i, j int) bool {
		if procs[i].Remaining != procs[j].Remaining {
			return procs[i].Remaining < procs[j].Remaining
		}
		return procs[i].PID() < procs[j].PID()
	})

	for _, p := range topN(procs, env.NumThreads()) {
		pid := p.PID()
		if env.IsRunning(pid) {
			continue
		}
		if env.FreeSlots() > 0 {
			s.dispatch(env, pid)
			continue
		}
		if !s.Preemptive {
			continue
		}
		victim := longestRunning(env)
		if env.Process(victim).Remaining > p.Remaining {
			env.Preempt(victim, pid)
			s.dispatch(env, pid)
		}
	}
}

// longestRunning returns the running pid with the most remaining CPU time,
// the later arrival on ties.
func longestRunning(env *Environment) int {
	best := -1
	var bestRemaining int64
	for _, pid := range env.RunningIDs() {
		r := env.Process(pid).Remaining
		if best < 0 || r >= bestRemaining {
			best, bestRemaining = pid, r
		}
	}
	return best
}

// HRRFScheduler fills free slots by descending response ratio
// (now - arrival) / remaining, and never preempts.
type HRRFScheduler struct {
	dispatchCounter
}

func NewHRRFScheduler() *HRRFScheduler { return &HRRFScheduler{} }

func (s *HRRFScheduler) Name() string                   { return "hrrf" }
func (s *HRRFScheduler) Wrap(_ *ProcessRecord) Extension { return NoExtension{} }
func (s *HRRFScheduler) Reset()                         { s.scheduleTimes = 0 }

func (s *HRRFScheduler) Schedule(env *Environment) {
	if env.FreeSlots() == 0 {
		return
	}
	now := env.CurrentTick()
	procs := env.ActiveProcesses()
	// Ratios are compared by cross-multiplication so ties are exact.
	sort.SliceStable(procs, func(i, j int) bool {
		wi, wj := now-procs[i].CreatedAt(), now-procs[j].CreatedAt()
		lhs, rhs := wi*procs[j].Remaining, wj*procs[i].Remaining
		if lhs != rhs {
			return lhs > rhs
		}
		return procs[i].PID() < procs[j].PID()
	})
	for _, p := range topN(procs, env.NumThreads()) {
		if !env.IsRunning(p.PID()) && env.FreeSlots() > 0 {
			s.dispatch(env, p.PID())
		}
	}
}
