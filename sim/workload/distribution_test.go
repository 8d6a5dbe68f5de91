package workload

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestLengthSampler_AlwaysPositive(t *testing.T) {
	// A mean near zero produces many negative normal draws; abs()+1 keeps them >= 1.
	s := NewLengthSampler(0, 5, newTestRand())
	for i := 0; i < 1000; i++ {
		assert.GreaterOrEqual(t, s.Sample(), int64(1))
	}
}

func TestPrioritySampler_CoversRange(t *testing.T) {
	s := NewPrioritySampler(newTestRand())
	seen := make(map[int]bool)
	for i := 0; i < 2000; i++ {
		p := s.Sample()
		if p < MinPriority || p >= MaxPriority {
			t.Fatalf("priority %d outside [%d, %d)", p, MinPriority, MaxPriority)
		}
		seen[p] = true
	}
	assert.Len(t, seen, MaxPriority-MinPriority)
}

func TestArrivalCounter_MeanNearLambda(t *testing.T) {
	c := NewArrivalCounter(0.5, newTestRand())
	total := 0
	const n = 10000
	for i := 0; i < n; i++ {
		total += c.Sample()
	}
	assert.InDelta(t, 0.5, float64(total)/n, 0.05)
}

func TestRandomName_Alphanumeric(t *testing.T) {
	rng := newTestRand()
	for i := 0; i < 100; i++ {
		name := randomName(rng)
		assert.Len(t, name, NameLength)
		for _, c := range name {
			assert.Contains(t, nameAlphabet, string(c))
		}
	}
}
