package experiment

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/procsched/procsched/sim"
	"github.com/procsched/procsched/sim/workload"
)

// Group is one line of a sweep: Param takes each of Values while the other three
// generator parameters stay at their values in Base.
type Group struct {
	Param  string
	Base   sim.WorkloadSpec
	Values []float64
}

// Label describes the fixed parameters of the group, e.g. "lens_mean=30,lens_std=10,density=5".
func (g Group) Label() string {
	label := ""
	for _, p := range Params {
		if p == g.Param {
			continue
		}
		if label != "" {
			label += ","
		}
		label += fmt.Sprintf("%s=%g", p, get(g.Base, p))
	}
	return label
}

// Groups expands a sweep into one-parameter-at-a-time groups: for each parameter, every
// combination of the other three grids fixes a Group over that parameter's grid.
// Parameters without a range fall back to base. With skipSingle, groups whose varied
// grid has a single point are dropped.
func Groups(spec sim.SweepSpec, base sim.WorkloadSpec) []Group {
	grids := make(map[string][]float64, len(Params))
	for _, p := range Params {
		grids[p] = Grid(rangeOf(spec, p), get(base, p))
	}

	var groups []Group
	for _, varied := range Params {
		if spec.SkipSingle && len(grids[varied]) == 1 {
			continue
		}
		var others []string
		for _, p := range Params {
			if p != varied {
				others = append(others, p)
			}
		}
		for _, combo := range product(others, grids) {
			g := Group{Param: varied, Base: base, Values: grids[varied]}
			for i, p := range others {
				set(&g.Base, p, combo[i])
			}
			groups = append(groups, g)
		}
	}
	return groups
}

// product returns the cartesian product of the grids of params, first parameter outermost.
func product(params []string, grids map[string][]float64) [][]float64 {
	combos := [][]float64{{}}
	for _, p := range params {
		var next [][]float64
		for _, c := range combos {
			for _, v := range grids[p] {
				next = append(next, append(append([]float64(nil), c...), v))
			}
		}
		combos = next
	}
	return combos
}

// Runner compares schedulers over a sweep. Every scheduler sees the same workloads:
// per point, the trial seeds are drawn once from the sweep subsystem of Seed.
type Runner struct {
	Schedulers []sim.Scheduler
	Threads    int
	Horizon    int64
	Repeats    int
	Seed       int64
}

// NewRunner builds the sweep's schedulers from configuration.
func NewRunner(cfg *sim.SimConfig) (*Runner, error) {
	configs := cfg.Sweep.Schedulers
	if len(configs) == 0 {
		configs = []sim.SchedulerConfig{cfg.Scheduler}
	}
	r := &Runner{
		Threads: cfg.Threads,
		Horizon: cfg.Horizon,
		Repeats: max(cfg.Sweep.Repeats, 1),
		Seed:    cfg.Workload.Seed,
	}
	for _, c := range configs {
		s, err := c.Build()
		if err != nil {
			return nil, err
		}
		r.Schedulers = append(r.Schedulers, s)
	}
	return r, nil
}

// Point is the averaged outcome of one scheduler at one value of the varied parameter.
type Point struct {
	Scheduler string
	Value     float64
	Metrics   map[string]float64
}

// GroupResult holds every Point of one Group, scheduler-major in Runner order.
type GroupResult struct {
	Group  Group
	Points []Point
}

// Run evaluates every group.
func (r *Runner) Run(groups []Group) ([]GroupResult, error) {
	results := make([]GroupResult, 0, len(groups))
	for _, g := range groups {
		gr, err := r.RunGroup(g)
		if err != nil {
			return nil, err
		}
		results = append(results, gr)
	}
	return results, nil
}

// RunGroup evaluates every scheduler at every value of the group's varied parameter.
func (r *Runner) RunGroup(g Group) (GroupResult, error) {
	logrus.Infof("Sweeping %s over %v (%s)", g.Param, g.Values, g.Label())

	// workloads[i][k] is trial k at value i, shared by all schedulers.
	workloads := make([][][]sim.Arrival, len(g.Values))
	seeds := sim.NewPartitionedRNG(sim.NewSimulationKey(r.Seed)).ForSubsystem(sim.SubsystemSweep)
	for i, v := range g.Values {
		spec := g.Base
		set(&spec, g.Param, v)
		spec.ArrivalsFile = ""
		workloads[i] = make([][]sim.Arrival, r.Repeats)
		for k := range workloads[i] {
			spec.Seed = seeds.Int64()
			arrivals, err := workload.Generate(spec)
			if err != nil {
				return GroupResult{}, fmt.Errorf("%s=%g: %w", g.Param, v, err)
			}
			workloads[i][k] = arrivals
		}
	}

	res := GroupResult{Group: g}
	for _, s := range r.Schedulers {
		for i, v := range g.Values {
			evals := make([]sim.Evaluation, 0, r.Repeats)
			for _, arrivals := range workloads[i] {
				out, err := sim.RunScheduler(s, r.Threads, r.Horizon, arrivals)
				if err != nil {
					return GroupResult{}, fmt.Errorf("%s at %s=%g: %w", s.Name(), g.Param, v, err)
				}
				evals = append(evals, out.Evaluation)
			}
			res.Points = append(res.Points, Point{Scheduler: s.Name(), Value: v, Metrics: Average(evals)})
		}
	}
	return res, nil
}

// Average returns the per-metric mean of evals.
func Average(evals []sim.Evaluation) map[string]float64 {
	out := make(map[string]float64, len(sim.MetricNames))
	if len(evals) == 0 {
		return out
	}
	values := make([]map[string]float64, len(evals))
	for i, e := range evals {
		values[i] = e.Values()
	}
	column := make([]float64, len(evals))
	for _, name := range sim.MetricNames {
		for i := range values {
			column[i] = values[i][name]
		}
		out[name] = stat.Mean(column, nil)
	}
	return out
}
