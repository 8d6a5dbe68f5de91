package sim

import (
	"sort"
)

// RRScheduler is Round-Robin with a fixed slice. Processes are served in ReadyQueue
// order; a process whose slice runs out is paused and returns to the back.
type RRScheduler struct {
	dispatchCounter
	TimeSlice int
	ready     *ReadyQueue
}

func NewRRScheduler(timeSlice int) *RRScheduler {
	return &RRScheduler{TimeSlice: timeSlice, ready: NewReadyQueue()}
}

func (s *RRScheduler) Name() string { return "rr" }

func (s *RRScheduler) Wrap(rec *ProcessRecord) Extension {
	s.ready.Enqueue(rec.PID)
	return &SliceState{}
}

func (s *RRScheduler) Reset() {
	s.scheduleTimes = 0
	s.ready.Clear()
}

func (s *RRScheduler) Schedule(env *Environment) {
	s.ready.Prune(env.IsActive)
	for _, pid := range expiredSlices(env) {
		env.Pause(pid)
		s.ready.MoveToBack(pid)
	}

	if env.FreeSlots() > 0 {
		for _, pid := range topN(s.ready.Items(), env.NumThreads()) {
			if !env.IsRunning(pid) && env.FreeSlots() > 0 {
				s.dispatch(env, pid)
				env.Process(pid).Ext.(*SliceState).SliceCounter = s.TimeSlice
			}
		}
	}
	consumeSlices(env)
}

// prioritySlice is the slice length of the static/dynamic priority policies:
// minSlice + static_priority * increment, at least one tick.
func prioritySlice(rec *ProcessRecord, minSlice, increment int) int {
	return clampSlice(float64(minSlice + rec.StaticPriority*increment))
}

// SPScheduler is time-sliced static priority. When slots free up, the highest
// static priorities win, ties going to the process earliest in the ReadyQueue.
// Processes with exhausted slices are paused and requeued at the back.
type SPScheduler struct {
	dispatchCounter
	MinTimeSlice       int
	TimeSliceIncrement int
	ready              *ReadyQueue
}

func NewSPScheduler(minTimeSlice, timeSliceIncrement int) *SPScheduler {
	return &SPScheduler{
		MinTimeSlice:       minTimeSlice,
		TimeSliceIncrement: timeSliceIncrement,
		ready:              NewReadyQueue(),
	}
}

func (s *SPScheduler) Name() string { return "sp" }

func (s *SPScheduler) Wrap(rec *ProcessRecord) Extension {
	s.ready.Enqueue(rec.PID)
	return &SliceState{}
}

func (s *SPScheduler) Reset() {
	s.scheduleTimes = 0
	s.ready.Clear()
}

func (s *SPScheduler) Schedule(env *Environment) {
	s.ready.Prune(env.IsActive)
	for _, pid := range expiredSlices(env) {
		env.Pause(pid)
		s.ready.MoveToBack(pid)
	}

	if env.FreeSlots() > 0 {
		procs := processesOf(env, s.ready.Items())
		sort.SliceStable(procs, func(i, j int) bool {
			return procs[i].Record.StaticPriority > procs[j].Record.StaticPriority
		})
		for _, p := range topN(procs, env.NumThreads()) {
			if !env.IsRunning(p.PID()) && env.FreeSlots() > 0 {
				s.dispatch(env, p.PID())
				p.Ext.(*SliceState).SliceCounter = prioritySlice(p.Record, s.MinTimeSlice, s.TimeSliceIncrement)
			}
		}
	}
	consumeSlices(env)
}

// DPScheduler is dynamic priority with aging. Each time slots free up, every active
// process's dynamic priority is recomputed as
// static - run_ratio + wait_ratio, and the highest values win (pid breaks ties).
// Slice lengths follow SPScheduler.
type DPScheduler struct {
	dispatchCounter
	MinTimeSlice       int
	TimeSliceIncrement int
}

func NewDPScheduler(minTimeSlice, timeSliceIncrement int) *DPScheduler {
	return &DPScheduler{MinTimeSlice: minTimeSlice, TimeSliceIncrement: timeSliceIncrement}
}

func (s *DPScheduler) Name() string { return "dp" }

func (s *DPScheduler) Wrap(rec *ProcessRecord) Extension {
	return &PriorityState{DynamicPriority: float64(rec.StaticPriority)}
}

func (s *DPScheduler) Reset() { s.scheduleTimes = 0 }

func (s *DPScheduler) Schedule(env *Environment) {
	scheduleAged(env, &s.dispatchCounter, s.MinTimeSlice, s.TimeSliceIncrement, func(a, b *ScheduledProcess) (bool, bool) {
		da, db := a.Ext.(*PriorityState).DynamicPriority, b.Ext.(*PriorityState).DynamicPriority
		return da > db, da != db
	})
}

// DPMQScheduler is the multi-level variant of DPScheduler: static priority selects
// the level and the aged dynamic priority orders processes within it.
type DPMQScheduler struct {
	dispatchCounter
	MinTimeSlice       int
	TimeSliceIncrement int
}

func NewDPMQScheduler(minTimeSlice, timeSliceIncrement int) *DPMQScheduler {
	return &DPMQScheduler{MinTimeSlice: minTimeSlice, TimeSliceIncrement: timeSliceIncrement}
}

func (s *DPMQScheduler) Name() string { return "dpmq" }

func (s *DPMQScheduler) Wrap(rec *ProcessRecord) Extension {
	return &PriorityState{DynamicPriority: float64(rec.StaticPriority)}
}

func (s *DPMQScheduler) Reset() { s.scheduleTimes = 0 }

func (s *DPMQScheduler) Schedule(env *Environment) {
	scheduleAged(env, &s.dispatchCounter, s.MinTimeSlice, s.TimeSliceIncrement, func(a, b *ScheduledProcess) (bool, bool) {
		if a.Record.StaticPriority != b.Record.StaticPriority {
			return a.Record.StaticPriority > b.Record.StaticPriority, true
		}
		da, db := a.Ext.(*PriorityState).DynamicPriority, b.Ext.(*PriorityState).DynamicPriority
		return da > db, da != db
	})
}

// scheduleAged is the shared decision step of DP and DPMQ. before reports whether a
// ranks ahead of b and whether the two are distinguishable; pid breaks remaining ties.
func scheduleAged(env *Environment, c *dispatchCounter, minSlice, increment int,
	before func(a, b *ScheduledProcess) (less bool, decided bool)) {
	for _, pid := range expiredSlices(env) {
		env.Pause(pid)
	}

	if env.FreeSlots() > 0 {
		now := env.CurrentTick()
		procs := env.ActiveProcesses()
		for _, p := range procs {
			p.Ext.(*PriorityState).DynamicPriority = agedPriority(p, now)
		}
		sort.SliceStable(procs, func(i, j int) bool {
			if less, decided := before(procs[i], procs[j]); decided {
				return less
			}
			return procs[i].PID() < procs[j].PID()
		})
		for _, p := range topN(procs, env.NumThreads()) {
			if !env.IsRunning(p.PID()) && env.FreeSlots() > 0 {
				c.dispatch(env, p.PID())
				p.Ext.(*PriorityState).SliceCounter = prioritySlice(p.Record, minSlice, increment)
			}
		}
	}
	consumeSlices(env)
}
