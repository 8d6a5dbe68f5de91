package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEnv(t *testing.T, threads int) *Environment {
	t.Helper()
	env, err := NewEnvironment(NewFCFSScheduler(), threads)
	require.NoError(t, err)
	return env
}

func TestNewEnvironment_InvalidArguments(t *testing.T) {
	_, err := NewEnvironment(nil, 1)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))

	_, err = NewEnvironment(NewFCFSScheduler(), 0)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
}

func TestEnvironment_Admit_AssignsMonotonicPIDs(t *testing.T) {
	env := newTestEnv(t, 1)
	for want := 0; want < 3; want++ {
		pid, err := env.Admit(ProcessSpec{Name: "p", CPUTime: 1}, 0)
		require.NoError(t, err)
		assert.Equal(t, want, pid)
	}
	assert.Equal(t, []int{0, 1, 2}, env.ActiveIDs())
}

func TestEnvironment_Admit_RecordsCreatedAndDefaultsName(t *testing.T) {
	env := newTestEnv(t, 1)
	pid, err := env.Admit(ProcessSpec{CPUTime: 2, StaticPriority: 4}, 0)
	require.NoError(t, err)

	p := env.Process(pid)
	require.NotNil(t, p)
	assert.Equal(t, DefaultProcessName, p.Record.Name)
	assert.Equal(t, []TimelineEvent{{Tick: 0, State: StateCreated}}, p.Timeline)
	assert.Equal(t, int64(2), p.Remaining)
}

func TestEnvironment_Admit_Rejections(t *testing.T) {
	env := newTestEnv(t, 1)
	_, err := env.Admit(ProcessSpec{CPUTime: 0}, 0)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))

	_, err = env.Admit(ProcessSpec{CPUTime: 1}, 3)
	require.NoError(t, err)
	_, err = env.Admit(ProcessSpec{CPUTime: 1}, 2)
	assert.True(t, errors.Is(err, ErrOutOfOrderArrival), "arrival before previous arrival")

	require.NoError(t, env.Tick())
	require.NoError(t, env.Tick())
	_, err = env.Admit(ProcessSpec{CPUTime: 1}, 1)
	assert.True(t, errors.Is(err, ErrOutOfOrderArrival), "arrival before current tick")
}

func TestEnvironment_FutureAdmission_ActivatesAtItsTick(t *testing.T) {
	// GIVEN a process admitted for tick 2 while the clock is at 0
	env := newTestEnv(t, 1)
	pid, err := env.Admit(ProcessSpec{Name: "late", CPUTime: 1}, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, env.PendingCount())
	assert.False(t, env.IsActive(pid))
	assert.False(t, env.Idle())

	// WHEN ticking to tick 2
	require.NoError(t, env.Tick())
	require.NoError(t, env.Tick())
	assert.False(t, env.IsActive(pid))

	// THEN it is created at 2, runs at 2, and finishes at 3
	require.NoError(t, env.Tick())
	assert.Equal(t, 0, env.PendingCount())
	done := env.CompletedProcesses()
	require.Len(t, done, 1)
	assert.Equal(t, []TimelineEvent{
		{2, StateCreated}, {2, StateStartedRunning}, {2, StateRunning}, {3, StateFinished},
	}, done[0].Timeline)
	assert.True(t, env.Idle())
}

func TestEnvironment_Tick_ConsumesAndRetires(t *testing.T) {
	env := newTestEnv(t, 2)
	a, _ := env.Admit(ProcessSpec{CPUTime: 2}, 0)
	b, _ := env.Admit(ProcessSpec{CPUTime: 1}, 0)

	require.NoError(t, env.Tick())
	assert.Equal(t, int64(1), env.CurrentTick())
	assert.Equal(t, []int{a}, env.RunningIDs())
	assert.False(t, env.IsActive(b))
	assert.Equal(t, int64(1), env.Process(a).Remaining)
	assert.Equal(t, 1, env.FreeSlots())

	require.NoError(t, env.Tick())
	assert.True(t, env.Idle())
	done := env.CompletedProcesses()
	require.Len(t, done, 2)
	assert.Equal(t, b, done[0].PID(), "completion order")
	assert.Equal(t, a, done[1].PID())
}

func TestEnvironment_EmptyTick_AdvancesClock(t *testing.T) {
	env := newTestEnv(t, 1)
	require.NoError(t, env.Tick())
	require.NoError(t, env.Tick())
	assert.Equal(t, int64(2), env.CurrentTick())
	assert.True(t, env.Idle())
}

// greedyScheduler dispatches every waiting process regardless of capacity.
type greedyScheduler struct{ FCFSScheduler }

func (s *greedyScheduler) Schedule(env *Environment) {
	for _, pid := range env.ActiveIDs() {
		if !env.IsRunning(pid) {
			env.Dispatch(pid)
		}
	}
}

// rogueScheduler dispatches a pid that was never admitted.
type rogueScheduler struct{ FCFSScheduler }

func (s *rogueScheduler) Schedule(env *Environment) { env.Dispatch(99) }

// pauser pauses a process that is not running.
type pauser struct{ FCFSScheduler }

func (s *pauser) Schedule(env *Environment) { env.Pause(0) }

func TestEnvironment_Tick_InvariantViolations(t *testing.T) {
	tests := []struct {
		name      string
		scheduler Scheduler
	}{
		{"over capacity", &greedyScheduler{}},
		{"inactive dispatch", &rogueScheduler{}},
		{"pause of waiting process", &pauser{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env, err := NewEnvironment(tc.scheduler, 1)
			require.NoError(t, err)
			_, _ = env.Admit(ProcessSpec{CPUTime: 3}, 0)
			_, _ = env.Admit(ProcessSpec{CPUTime: 3}, 0)

			err = env.Tick()
			assert.True(t, errors.Is(err, ErrInvariantViolation), "got %v", err)

			// the violation is sticky
			assert.True(t, errors.Is(env.Tick(), ErrInvariantViolation))
		})
	}
}

func TestEnvironment_ActiveIDsIsACopy(t *testing.T) {
	env := newTestEnv(t, 1)
	_, _ = env.Admit(ProcessSpec{CPUTime: 1}, 0)
	ids := env.ActiveIDs()
	ids[0] = 42
	assert.Equal(t, []int{0}, env.ActiveIDs())
}
