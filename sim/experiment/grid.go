// Package experiment sweeps the workload generator's parameters and compares
// schedulers on averaged metrics.
package experiment

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/procsched/procsched/sim"
)

// Parameter names, in sweep order.
const (
	ParamNProcesses = "n_processes"
	ParamLensMean   = "lens_mean"
	ParamLensStd    = "lens_std"
	ParamDensity    = "density"
)

// Params lists the swept generator parameters in sweep order.
var Params = []string{ParamNProcesses, ParamLensMean, ParamLensStd, ParamDensity}

// Grid expands a sweep range into its points. An empty range yields fallback;
// a single value, or Groups <= 1, yields the first bound only.
// Arithmetic grids are evenly spaced, geometric grids evenly spaced in log space;
// Integer grids truncate each point.
func Grid(r sim.SweepRange, fallback float64) []float64 {
	if len(r.Range) == 0 {
		return []float64{fallback}
	}
	if len(r.Range) == 1 || r.Groups <= 1 {
		return []float64{truncate(r.Range[0], r.Integer)}
	}
	points := make([]float64, r.Groups)
	if r.Geometric {
		floats.LogSpan(points, r.Range[0], r.Range[1])
	} else {
		floats.Span(points, r.Range[0], r.Range[1])
	}
	for i, v := range points {
		points[i] = truncate(v, r.Integer)
	}
	return points
}

// truncate drops the fraction when integer is set. Values within 1e-9 of the next
// integer are rounded up so that log-space endpoints land exactly.
func truncate(v float64, integer bool) float64 {
	if !integer {
		return v
	}
	return math.Trunc(v + 1e-9)
}

// get returns the named generator parameter of spec.
func get(spec sim.WorkloadSpec, param string) float64 {
	switch param {
	case ParamNProcesses:
		return float64(spec.NProcesses)
	case ParamLensMean:
		return spec.LensMean
	case ParamLensStd:
		return spec.LensStd
	case ParamDensity:
		return spec.Density
	}
	panic("experiment: unknown parameter " + param)
}

// set assigns the named generator parameter of spec.
func set(spec *sim.WorkloadSpec, param string, v float64) {
	switch param {
	case ParamNProcesses:
		spec.NProcesses = int(v)
	case ParamLensMean:
		spec.LensMean = v
	case ParamLensStd:
		spec.LensStd = v
	case ParamDensity:
		spec.Density = v
	default:
		panic("experiment: unknown parameter " + param)
	}
}

func rangeOf(s sim.SweepSpec, param string) sim.SweepRange {
	switch param {
	case ParamNProcesses:
		r := s.NProcesses
		r.Integer = true
		return r
	case ParamLensMean:
		return s.LensMean
	case ParamLensStd:
		return s.LensStd
	case ParamDensity:
		return s.Density
	}
	panic("experiment: unknown parameter " + param)
}
