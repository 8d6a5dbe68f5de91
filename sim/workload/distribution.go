package workload

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Priority bounds of generated processes: uniform over [MinPriority, MaxPriority).
const (
	MinPriority = 1
	MaxPriority = 9
)

// LengthSampler draws CPU demands as |N(mean, std)| truncated to an integer, plus one,
// so every sample is >= 1.
type LengthSampler struct {
	dist distuv.Normal
}

// NewLengthSampler creates a LengthSampler drawing from src.
func NewLengthSampler(mean, std float64, src *rand.Rand) *LengthSampler {
	return &LengthSampler{dist: distuv.Normal{Mu: mean, Sigma: std, Src: src}}
}

func (s *LengthSampler) Sample() int64 {
	v := math.Abs(s.dist.Rand())
	if math.IsInf(v, 0) || math.IsNaN(v) || v > math.MaxInt32 {
		v = math.MaxInt32
	}
	return int64(v) + 1
}

// PrioritySampler draws static priorities uniformly from [MinPriority, MaxPriority).
type PrioritySampler struct {
	dist distuv.Uniform
}

func NewPrioritySampler(src *rand.Rand) *PrioritySampler {
	return &PrioritySampler{dist: distuv.Uniform{Min: MinPriority, Max: MaxPriority, Src: src}}
}

func (s *PrioritySampler) Sample() int {
	p := int(math.Floor(s.dist.Rand()))
	// Uniform.Rand can return Max on rounding.
	if p >= MaxPriority {
		p = MaxPriority - 1
	}
	return p
}

// ArrivalCounter draws the number of arrivals in one tick ~ Poisson(lambda).
type ArrivalCounter struct {
	dist distuv.Poisson
}

func NewArrivalCounter(lambda float64, src *rand.Rand) *ArrivalCounter {
	return &ArrivalCounter{dist: distuv.Poisson{Lambda: lambda, Src: src}}
}

func (c *ArrivalCounter) Sample() int {
	return int(c.dist.Rand())
}

const nameAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NameLength is the length of generated process names.
const NameLength = 4

// randomName returns a NameLength-character alphanumeric name.
func randomName(rng *rand.Rand) string {
	b := make([]byte, NameLength)
	for i := range b {
		b[i] = nameAlphabet[rng.IntN(len(nameAlphabet))]
	}
	return string(b)
}
