package workload

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/procsched/procsched/sim"
)

// Generate creates a random arrival sequence from a WorkloadSpec.
// Deterministic given the same spec and seed.
//
// The arrival window is time_range = n_processes * lens_mean / density ticks; each tick
// receives Poisson(n_processes / time_range) arrivals. Arrivals past n_processes are
// dropped, so a sparse draw can yield fewer than n_processes processes.
// Returns arrivals in ascending tick order.
func Generate(spec sim.WorkloadSpec) ([]sim.Arrival, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid workload spec: %w", err)
	}

	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(spec.Seed))
	workloadRNG := rng.ForSubsystem(sim.SubsystemWorkload)
	namesRNG := rng.ForSubsystem(sim.SubsystemNames)

	timeRange := TimeRange(spec)
	counter := NewArrivalCounter(float64(spec.NProcesses)/float64(timeRange), workloadRNG)
	starts := make([]int64, 0, spec.NProcesses)
	for t := int64(0); t < timeRange; t++ {
		for n := counter.Sample(); n > 0; n-- {
			starts = append(starts, t)
		}
	}

	lengths := NewLengthSampler(spec.LensMean, spec.LensStd, workloadRNG)
	prios := NewPrioritySampler(workloadRNG)
	arrivals := make([]sim.Arrival, 0, spec.NProcesses)
	for i := 0; i < spec.NProcesses; i++ {
		// Demands and priorities are drawn for every process so the streams stay aligned
		// whatever the Poisson draw produced.
		cpu := lengths.Sample()
		prio := prios.Sample()
		if i >= len(starts) {
			continue
		}
		arrivals = append(arrivals, sim.Arrival{
			Tick: starts[i],
			Spec: sim.ProcessSpec{
				Name:           randomName(namesRNG),
				CPUTime:        cpu,
				StaticPriority: prio,
			},
		})
	}

	logrus.Debugf("Generated %d arrivals over %d ticks (seed=%d)", len(arrivals), timeRange, spec.Seed)
	return arrivals, nil
}

// TimeRange returns the arrival window of a generated workload, at least one tick.
func TimeRange(spec sim.WorkloadSpec) int64 {
	tr := int64(float64(spec.NProcesses) * spec.LensMean / spec.Density)
	if tr < 1 {
		return 1
	}
	return tr
}

// Resolve returns the arrivals described by spec: loaded from ArrivalsFile when set,
// generated otherwise.
func Resolve(spec sim.WorkloadSpec) ([]sim.Arrival, error) {
	if spec.ArrivalsFile != "" {
		return LoadArrivals(spec.ArrivalsFile)
	}
	return Generate(spec)
}
