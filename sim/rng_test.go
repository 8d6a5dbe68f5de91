package sim

import (
	"math"
	"math/rand/v2"
	"testing"
)

// === SimulationKey Tests ===

func TestSimulationKey_Creation(t *testing.T) {
	tests := []struct {
		name string
		seed int64
	}{
		{"positive seed", 42},
		{"zero seed", 0},
		{"negative seed", -1},
		{"max int64", math.MaxInt64},
		{"min int64", math.MinInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := NewSimulationKey(tt.seed)
			if int64(key) != tt.seed {
				t.Errorf("NewSimulationKey(%d) = %d, want %d", tt.seed, key, tt.seed)
			}
		})
	}
}

// === PartitionedRNG Tests ===

func TestPartitionedRNG_DeterministicDerivation(t *testing.T) {
	// Same key+name produces same sequence
	rng1 := NewPartitionedRNG(NewSimulationKey(42))
	rng2 := NewPartitionedRNG(NewSimulationKey(42))

	for i := 0; i < 3; i++ {
		v1 := rng1.ForSubsystem(SubsystemNames).Float64()
		v2 := rng2.ForSubsystem(SubsystemNames).Float64()
		if v1 != v2 {
			t.Errorf("Value %d: got %v and %v, want identical", i, v1, v2)
		}
	}
}

func TestPartitionedRNG_SubsystemIsolation(t *testing.T) {
	// Drawing from the workload stream must not shift the names stream
	rngA := NewPartitionedRNG(NewSimulationKey(42))
	for i := 0; i < 10; i++ {
		rngA.ForSubsystem(SubsystemWorkload).Float64()
	}
	aNamesFirst := rngA.ForSubsystem(SubsystemNames).Float64()

	fresh := NewPartitionedRNG(NewSimulationKey(42))
	expectedFirst := fresh.ForSubsystem(SubsystemNames).Float64()

	if aNamesFirst != expectedFirst {
		t.Errorf("names first value = %v, want %v (isolation broken)", aNamesFirst, expectedFirst)
	}
}

func TestPartitionedRNG_WorkloadUsesMasterSeed(t *testing.T) {
	seed := int64(42)
	workloadRNG := NewPartitionedRNG(NewSimulationKey(seed)).ForSubsystem(SubsystemWorkload)
	directRNG := newRandFromSeed(seed)

	for i := 0; i < 10; i++ {
		got, want := workloadRNG.Float64(), directRNG.Float64()
		if got != want {
			t.Errorf("Value %d: workload RNG = %v, direct RNG = %v", i, got, want)
		}
	}
}

func TestPartitionedRNG_SubsystemsDiffer(t *testing.T) {
	rng := NewPartitionedRNG(NewSimulationKey(42))
	w := rng.ForSubsystem(SubsystemWorkload).Uint64()
	n := rng.ForSubsystem(SubsystemNames).Uint64()
	s := rng.ForSubsystem(SubsystemSweep).Uint64()
	if w == n || n == s || w == s {
		t.Errorf("subsystem streams collide: workload=%d names=%d sweep=%d", w, n, s)
	}
}

func TestPartitionedRNG_CachesInstance(t *testing.T) {
	rng := NewPartitionedRNG(NewSimulationKey(42))

	rng1 := rng.ForSubsystem(SubsystemWorkload)
	rng2 := rng.ForSubsystem(SubsystemWorkload)

	if rng1 != rng2 {
		t.Error("ForSubsystem returned different instances for same name")
	}
}

func TestPartitionedRNG_Key(t *testing.T) {
	seed := int64(12345)
	rng := NewPartitionedRNG(NewSimulationKey(seed))

	if rng.Key() != SimulationKey(seed) {
		t.Errorf("Key() = %v, want %v", rng.Key(), seed)
	}
}

func TestPartitionedRNG_NegativeSeed(t *testing.T) {
	rng := NewPartitionedRNG(NewSimulationKey(math.MinInt64))

	val := rng.ForSubsystem(SubsystemWorkload).Float64()
	if val < 0 || val >= 1 {
		t.Errorf("Float64() returned %v, want [0, 1)", val)
	}
}

func TestPartitionedRNG_LazyInitialization(t *testing.T) {
	rng := NewPartitionedRNG(NewSimulationKey(42))

	if len(rng.subsystems) != 0 {
		t.Errorf("New PartitionedRNG has %d subsystems, want 0", len(rng.subsystems))
	}

	rng.ForSubsystem(SubsystemWorkload)

	if len(rng.subsystems) != 1 {
		t.Errorf("After one ForSubsystem call, have %d subsystems, want 1", len(rng.subsystems))
	}
}

// === fnv1a64 Tests ===

func TestFnv1a64_Collision(t *testing.T) {
	names := []string{SubsystemWorkload, SubsystemNames, SubsystemSweep, ""}

	hashes := make(map[int64]string)
	for _, name := range names {
		h := fnv1a64(name)
		if existing, ok := hashes[h]; ok {
			t.Errorf("Hash collision: %q and %q both hash to %d", name, existing, h)
		}
		hashes[h] = name
	}
}

// === Benchmark ===

func BenchmarkPartitionedRNG_ForSubsystem_CacheHit(b *testing.B) {
	rng := NewPartitionedRNG(NewSimulationKey(42))
	rng.ForSubsystem(SubsystemWorkload)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rng.ForSubsystem(SubsystemWorkload)
	}
}

// newRandFromSeed mirrors the PCG construction used for the workload subsystem.
func newRandFromSeed(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}
