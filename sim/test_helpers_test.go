package sim

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/procsched/procsched/sim/internal/testutil"
)

// proc builds an arrival at tick with the given demand and static priority.
func proc(tick int64, name string, cpu int64, prio int) Arrival {
	return Arrival{Tick: tick, Spec: ProcessSpec{Name: name, CPUTime: cpu, StaticPriority: prio}}
}

// mustScheduler builds a registered scheduler with its default parameters.
func mustScheduler(t *testing.T, name string) Scheduler {
	t.Helper()
	s, err := SchedulerConfig{Name: name}.Build()
	require.NoError(t, err)
	return s
}

// runChecked drives a Simulator tick by tick, asserting the environment invariants
// after every tick, and returns the completed processes in completion order.
func runChecked(t *testing.T, s Scheduler, threads int, arrivals []Arrival) []*ScheduledProcess {
	t.Helper()
	sim, err := NewSimulator(s, threads, 0, arrivals)
	require.NoError(t, err)
	env := sim.Env

	const maxTicks = 100000
	next := 0
	for tick := 0; ; tick++ {
		require.Less(t, tick, maxTicks, "simulation did not terminate")
		for next < len(arrivals) && arrivals[next].Tick <= env.CurrentTick() {
			_, err := env.Admit(arrivals[next].Spec, arrivals[next].Tick)
			require.NoError(t, err)
			next++
		}
		if next == len(arrivals) && env.Idle() {
			break
		}
		require.NoError(t, env.Tick())
		checkEnvironmentInvariants(t, env)
	}
	done := env.CompletedProcesses()
	for _, p := range done {
		checkTimeline(t, p)
	}
	return done
}

// checkEnvironmentInvariants asserts slot capacity and the active/completed partition.
func checkEnvironmentInvariants(t *testing.T, env *Environment) {
	t.Helper()
	running := env.RunningIDs()
	if len(running) > env.NumThreads() {
		t.Fatalf("tick %d: %d running on %d slots", env.CurrentTick(), len(running), env.NumThreads())
	}
	for _, pid := range running {
		if !env.IsActive(pid) {
			t.Fatalf("tick %d: running pid %d is not active", env.CurrentTick(), pid)
		}
	}
	for _, p := range env.CompletedProcesses() {
		if env.IsActive(p.PID()) {
			t.Fatalf("tick %d: pid %d is both active and completed", env.CurrentTick(), p.PID())
		}
		if p.Remaining != 0 {
			t.Fatalf("pid %d completed with %d remaining", p.PID(), p.Remaining)
		}
	}
}

// checkTimeline asserts a completed timeline follows the legal state path and
// records exactly TotalCPUTime running events.
func checkTimeline(t *testing.T, p *ScheduledProcess) {
	t.Helper()
	tl := p.Timeline
	if len(tl) < 4 || tl[0].State != StateCreated || tl[len(tl)-1].State != StateFinished {
		t.Fatalf("pid %d: malformed timeline %v", p.PID(), tl)
	}
	legal := map[ProcessState][]ProcessState{
		StateCreated:        {StateStartedRunning},
		StateStartedRunning: {StateRunning},
		StateRunning:        {StateRunning, StatePaused, StateFinished},
		StatePaused:         {StateStartedRunning},
	}
	running := int64(0)
	for i := 1; i < len(tl); i++ {
		prev, cur := tl[i-1], tl[i]
		if cur.Tick < prev.Tick {
			t.Fatalf("pid %d: tick decreases at event %d: %v", p.PID(), i, tl)
		}
		ok := false
		for _, s := range legal[prev.State] {
			ok = ok || s == cur.State
		}
		if !ok {
			t.Fatalf("pid %d: illegal transition %s -> %s in %v", p.PID(), prev.State, cur.State, tl)
		}
		if cur.State == StateRunning {
			running++
		}
	}
	if running != p.Record.TotalCPUTime {
		t.Fatalf("pid %d: %d running events, demand %d", p.PID(), running, p.Record.TotalCPUTime)
	}
}

// rows converts a timeline for testutil.AssertTimeline.
func rows(p *ScheduledProcess) []testutil.TimelineRow {
	out := make([]testutil.TimelineRow, len(p.Timeline))
	for i, ev := range p.Timeline {
		out[i] = testutil.TimelineRow{Tick: ev.Tick, State: string(ev.State)}
	}
	return out
}

// expect builds expected timeline rows from alternating (tick, state) pairs.
func expect(pairs ...any) []testutil.TimelineRow {
	if len(pairs)%2 != 0 {
		panic(fmt.Sprintf("expect: odd number of arguments %d", len(pairs)))
	}
	out := make([]testutil.TimelineRow, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, testutil.TimelineRow{Tick: int64(pairs[i].(int)), State: string(pairs[i+1].(ProcessState))})
	}
	return out
}

// byName indexes completed processes by name.
func byName(done []*ScheduledProcess) map[string]*ScheduledProcess {
	m := make(map[string]*ScheduledProcess, len(done))
	for _, p := range done {
		m[p.Record.Name] = p
	}
	return m
}

// responseAndTurnaround returns (RT, TAT) of a completed process.
func responseAndTurnaround(t *testing.T, p *ScheduledProcess) (int64, int64) {
	t.Helper()
	m, err := p.ComputeMetrics()
	require.NoError(t, err)
	return m.RT, m.TAT
}
