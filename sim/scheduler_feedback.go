package sim

import (
	"math"
	"sort"
)

// feedbackQueue is the machinery shared by the multi-level feedback queue policies.
// Every process starts at queue 0. A process that uses up its slice is paused,
// demoted one level (capped at NQueues) and requeued at the back. Lower queue
// indices are served first; when all slots are busy, a contender from a strictly
// lower queue preempts the running process with the highest queue index.
type feedbackQueue struct {
	dispatchCounter
	BaseTimeSlice int
	NQueues       int
	ready         *ReadyQueue
}

func newFeedbackQueue(baseTimeSlice, nQueues int) feedbackQueue {
	return feedbackQueue{BaseTimeSlice: baseTimeSlice, NQueues: nQueues, ready: NewReadyQueue()}
}

func (f *feedbackQueue) Reset() {
	f.scheduleTimes = 0
	f.ready.Clear()
}

// feedbackFields returns the queue index and slice counter of a feedback extension.
func feedbackFields(ext Extension) (queueIndex *int, slice *int) {
	switch x := ext.(type) {
	case *FeedbackState:
		return &x.QueueIndex, &x.SliceCounter
	case *MixedFeedbackState:
		return &x.QueueIndex, &x.SliceCounter
	default:
		panic("feedback scheduler given a process it did not wrap")
	}
}

// QueueIndex returns the feedback level of a process wrapped by a feedback scheduler.
func QueueIndex(p *ScheduledProcess) int {
	qi, _ := feedbackFields(p.Ext)
	return *qi
}

// schedule runs one decision step. sliceLen gives the slice for a process at its
// current level; order, when non-nil, breaks ties within a level before ReadyQueue order.
func (f *feedbackQueue) schedule(env *Environment, sliceLen func(p *ScheduledProcess, level int) int,
	order func(a, b *ScheduledProcess) (less bool, decided bool)) {
	f.ready.Prune(env.IsActive)

	for _, pid := range expiredSlices(env) {
		qi, slice := feedbackFields(env.Process(pid).Ext)
		env.Pause(pid)
		from := *qi
		*qi = min(f.NQueues, *qi+1)
		*slice = 0
		if *qi != from {
			env.RecordDemotion(pid, from, *qi)
		}
		f.ready.MoveToBack(pid)
	}

	procs := processesOf(env, f.ready.Items())
	sort.SliceStable(procs, func(i, j int) bool {
		qi, qj := QueueIndex(procs[i]), QueueIndex(procs[j])
		if qi != qj {
			return qi < qj
		}
		if order != nil {
			if less, decided := order(procs[i], procs[j]); decided {
				return less
			}
		}
		return false
	})

	for _, p := range topN(procs, env.NumThreads()) {
		pid := p.PID()
		if env.IsRunning(pid) {
			continue
		}
		if env.FreeSlots() == 0 {
			victim := f.lowestRunning(env)
			if QueueIndex(env.Process(victim)) <= QueueIndex(p) {
				continue
			}
			_, victimSlice := feedbackFields(env.Process(victim).Ext)
			env.Preempt(victim, pid)
			*victimSlice = 0
			f.ready.MoveToBack(victim)
		}
		qi, slice := feedbackFields(p.Ext)
		f.dispatch(env, pid)
		*slice = sliceLen(p, *qi)
	}
	consumeSlices(env)
}

// lowestRunning returns the running pid with the highest queue index, the later
// arrival on ties.
func (f *feedbackQueue) lowestRunning(env *Environment) int {
	best, bestQI := -1, -1
	for _, pid := range env.RunningIDs() {
		if qi := QueueIndex(env.Process(pid)); qi >= bestQI {
			best, bestQI = pid, qi
		}
	}
	return best
}

// MFQScheduler is the classic multi-level feedback queue: the slice at level i is
// BaseTimeSlice * 2^i.
type MFQScheduler struct {
	feedbackQueue
}

func NewMFQScheduler(baseTimeSlice, nQueues int) *MFQScheduler {
	return &MFQScheduler{feedbackQueue: newFeedbackQueue(baseTimeSlice, nQueues)}
}

func (s *MFQScheduler) Name() string { return "mfq" }

func (s *MFQScheduler) Wrap(rec *ProcessRecord) Extension {
	s.ready.Enqueue(rec.PID)
	return &FeedbackState{}
}

func (s *MFQScheduler) Schedule(env *Environment) {
	s.schedule(env, func(_ *ScheduledProcess, level int) int {
		return clampSlice(float64(s.BaseTimeSlice) * math.Exp2(float64(level)))
	}, nil)
}

// expSlice is the static-priority-scaled slice of SPMFQ and MPMFQ:
// base * (minExp + expIncrement * static_priority) ^ level, truncated.
func expSlice(rec *ProcessRecord, level, base int, minExp, expIncrement float64) int {
	growth := minExp + expIncrement*float64(rec.StaticPriority)
	return clampSlice(float64(base) * math.Pow(growth, float64(level)))
}

// SPMFQScheduler is a feedback queue whose slices grow faster per level for
// processes with higher static priority.
type SPMFQScheduler struct {
	feedbackQueue
	MinExp       float64
	ExpIncrement float64
}

func NewSPMFQScheduler(baseTimeSlice int, minExp, expIncrement float64, nQueues int) *SPMFQScheduler {
	return &SPMFQScheduler{
		feedbackQueue: newFeedbackQueue(baseTimeSlice, nQueues),
		MinExp:        minExp,
		ExpIncrement:  expIncrement,
	}
}

func (s *SPMFQScheduler) Name() string { return "spmfq" }

func (s *SPMFQScheduler) Wrap(rec *ProcessRecord) Extension {
	s.ready.Enqueue(rec.PID)
	return &FeedbackState{}
}

func (s *SPMFQScheduler) Schedule(env *Environment) {
	s.schedule(env, func(p *ScheduledProcess, level int) int {
		return expSlice(p.Record, level, s.BaseTimeSlice, s.MinExp, s.ExpIncrement)
	}, nil)
}

// MPMFQScheduler is SPMFQScheduler with aging: every tick each active process's
// dynamic priority is recomputed, and within a level higher dynamic priority wins.
type MPMFQScheduler struct {
	feedbackQueue
	MinExp       float64
	ExpIncrement float64
}

func NewMPMFQScheduler(baseTimeSlice int, minExp, expIncrement float64, nQueues int) *MPMFQScheduler {
	return &MPMFQScheduler{
		feedbackQueue: newFeedbackQueue(baseTimeSlice, nQueues),
		MinExp:        minExp,
		ExpIncrement:  expIncrement,
	}
}

func (s *MPMFQScheduler) Name() string { return "mpmfq" }

func (s *MPMFQScheduler) Wrap(rec *ProcessRecord) Extension {
	s.ready.Enqueue(rec.PID)
	return &MixedFeedbackState{DynamicPriority: float64(rec.StaticPriority)}
}

func (s *MPMFQScheduler) Schedule(env *Environment) {
	now := env.CurrentTick()
	for _, p := range env.ActiveProcesses() {
		p.Ext.(*MixedFeedbackState).DynamicPriority = agedPriority(p, now)
	}
	s.schedule(env, func(p *ScheduledProcess, level int) int {
		return expSlice(p.Record, level, s.BaseTimeSlice, s.MinExp, s.ExpIncrement)
	}, func(a, b *ScheduledProcess) (bool, bool) {
		da, db := a.Ext.(*MixedFeedbackState).DynamicPriority, b.Ext.(*MixedFeedbackState).DynamicPriority
		return da > db, da != db
	})
}
