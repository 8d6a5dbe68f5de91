// sim/simulator.go
package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/procsched/procsched/sim/trace"
)

// Arrival is one entry of the driver's input: a process and the tick it arrives at.
type Arrival struct {
	Tick int64
	Spec ProcessSpec
}

// Simulator feeds an ascending arrival sequence into an Environment and ticks it
// until every process has completed.
type Simulator struct {
	Env       *Environment
	Scheduler Scheduler
	// Horizon bounds the number of ticks; 0 means unbounded.
	Horizon  int64
	Arrivals []Arrival
	Trace    *trace.SchedulingTrace

	next int
}

// Result is the outcome of one Simulator run.
type Result struct {
	Scheduler  string
	Threads    int
	EndTick    int64
	Completed  []*ScheduledProcess // completion order
	Evaluation Evaluation
}

// NewSimulator validates the arrival order and builds a fresh Environment.
// The scheduler is reset, so an instance can be reused across runs.
func NewSimulator(scheduler Scheduler, nThreads int, horizon int64, arrivals []Arrival) (*Simulator, error) {
	for i := 1; i < len(arrivals); i++ {
		if arrivals[i].Tick < arrivals[i-1].Tick {
			return nil, fmt.Errorf("%w: arrival %d at tick %d follows tick %d",
				ErrOutOfOrderArrival, i, arrivals[i].Tick, arrivals[i-1].Tick)
		}
	}
	if horizon < 0 {
		return nil, fmt.Errorf("%w: horizon must be non-negative, got %d", ErrInvalidConfiguration, horizon)
	}
	env, err := NewEnvironment(scheduler, nThreads)
	if err != nil {
		return nil, err
	}
	return &Simulator{
		Env:       env,
		Scheduler: scheduler,
		Horizon:   horizon,
		Arrivals:  arrivals,
	}, nil
}

// EnableTrace records scheduling decisions at the given level.
func (sim *Simulator) EnableTrace(level trace.TraceLevel) {
	sim.Trace = trace.NewSchedulingTrace(trace.TraceConfig{Level: level})
	sim.Env.SetTrace(sim.Trace)
}

// Run drives the simulation to completion. Arrivals are admitted when the clock
// reaches their tick; the run ends once every arrival is admitted and nothing is active.
func (sim *Simulator) Run() (*Result, error) {
	env := sim.Env
	logrus.Infof("Starting simulation: scheduler=%s threads=%d arrivals=%d",
		sim.Scheduler.Name(), env.NumThreads(), len(sim.Arrivals))

	for {
		for sim.next < len(sim.Arrivals) && sim.Arrivals[sim.next].Tick <= env.CurrentTick() {
			a := sim.Arrivals[sim.next]
			pid, err := env.Admit(a.Spec, a.Tick)
			if err != nil {
				return nil, err
			}
			logrus.Debugf("[tick %07d] Admitted pid %d (%s, cpu=%d, prio=%d)",
				env.CurrentTick(), pid, a.Spec.Name, a.Spec.CPUTime, a.Spec.StaticPriority)
			sim.next++
		}
		if sim.next == len(sim.Arrivals) && env.Idle() {
			break
		}
		if sim.Horizon > 0 && env.CurrentTick() >= sim.Horizon {
			logrus.Warnf("[tick %07d] Horizon reached with %d active processes",
				env.CurrentTick(), len(env.ActiveIDs()))
			return nil, fmt.Errorf("%w: %d ticks", ErrHorizonExceeded, sim.Horizon)
		}

		if err := env.Tick(); err != nil {
			logrus.Errorf("[tick %07d] %v", env.CurrentTick(), err)
			return nil, err
		}
		logrus.Debugf("[tick %07d] running=%v active=%d completed=%d",
			env.CurrentTick()-1, env.RunningIDs(), len(env.ActiveIDs()), len(env.doneOrder))
	}

	completed := env.CompletedProcesses()
	eval, err := Evaluate(completed, sim.Scheduler.ScheduleTimes())
	if err != nil {
		return nil, err
	}
	logrus.Infof("[tick %07d] Simulation ended: scheduler=%s, %d processes done",
		env.CurrentTick(), sim.Scheduler.Name(), len(completed))
	return &Result{
		Scheduler:  sim.Scheduler.Name(),
		Threads:    env.NumThreads(),
		EndTick:    env.CurrentTick(),
		Completed:  completed,
		Evaluation: eval,
	}, nil
}

// RunScheduler is a convenience wrapper: build a Simulator and run it.
func RunScheduler(scheduler Scheduler, nThreads int, horizon int64, arrivals []Arrival) (*Result, error) {
	sim, err := NewSimulator(scheduler, nThreads, horizon, arrivals)
	if err != nil {
		return nil, err
	}
	return sim.Run()
}
