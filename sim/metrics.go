// Aggregates per-process lifecycle metrics into run-level statistics:
// plain and static-priority-weighted turnaround/response times and the
// scheduling-overhead counter.

package sim

import (
	"fmt"
	"io"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Evaluation is the run-level summary of one simulation.
type Evaluation struct {
	Completed int `json:"completed"`

	TAT     float64 `json:"tat"`      // mean turnaround time
	TATNorm float64 `json:"tat_norm"` // mean demand-normalized turnaround time
	RT      float64 `json:"rt"`       // mean response time
	RTNorm  float64 `json:"rt_norm"`  // mean demand-normalized response time

	// Static-priority-weighted means: sum(v * prio) / sum(prio).
	PrioTAT     float64 `json:"prio_tat"`
	PrioTATNorm float64 `json:"prio_tat_norm"`
	PrioRT      float64 `json:"prio_rt"`
	PrioRTNorm  float64 `json:"prio_rt_norm"`

	TATP95 float64 `json:"tat_p95"`
	RTP95  float64 `json:"rt_p95"`

	ScheduleTimes int `json:"schedule_times"`
}

// Evaluate computes the Evaluation of a set of completed processes.
// When every static priority is zero the weighted means fall back to plain means.
func Evaluate(completed []*ScheduledProcess, scheduleTimes int) (Evaluation, error) {
	ev := Evaluation{Completed: len(completed), ScheduleTimes: scheduleTimes}
	if len(completed) == 0 {
		return ev, nil
	}

	n := len(completed)
	tat := make([]float64, n)
	tatNorm := make([]float64, n)
	rt := make([]float64, n)
	rtNorm := make([]float64, n)
	prio := make([]float64, n)
	prioSum := 0.0
	for i, p := range completed {
		m, err := p.ComputeMetrics()
		if err != nil {
			return Evaluation{}, err
		}
		tat[i], tatNorm[i] = float64(m.TAT), m.TATNorm
		rt[i], rtNorm[i] = float64(m.RT), m.RTNorm
		prio[i] = float64(p.Record.StaticPriority)
		prioSum += prio[i]
	}
	weights := prio
	if prioSum == 0 {
		weights = nil
	}

	ev.TAT, ev.PrioTAT = stat.Mean(tat, nil), stat.Mean(tat, weights)
	ev.TATNorm, ev.PrioTATNorm = stat.Mean(tatNorm, nil), stat.Mean(tatNorm, weights)
	ev.RT, ev.PrioRT = stat.Mean(rt, nil), stat.Mean(rt, weights)
	ev.RTNorm, ev.PrioRTNorm = stat.Mean(rtNorm, nil), stat.Mean(rtNorm, weights)
	ev.TATP95 = quantile(tat, 0.95)
	ev.RTP95 = quantile(rt, 0.95)
	return ev, nil
}

// quantile returns the empirical p-quantile; x is sorted in place.
func quantile(x []float64, p float64) float64 {
	sort.Float64s(x)
	return stat.Quantile(p, stat.Empirical, x, nil)
}

// Values returns the evaluation keyed by metric name, for averaging across trials.
func (e Evaluation) Values() map[string]float64 {
	return map[string]float64{
		"completed":      float64(e.Completed),
		"tat":            e.TAT,
		"tat_norm":       e.TATNorm,
		"rt":             e.RT,
		"rt_norm":        e.RTNorm,
		"prio_tat":       e.PrioTAT,
		"prio_tat_norm":  e.PrioTATNorm,
		"prio_rt":        e.PrioRT,
		"prio_rt_norm":   e.PrioRTNorm,
		"tat_p95":        e.TATP95,
		"rt_p95":         e.RTP95,
		"schedule_times": float64(e.ScheduleTimes),
	}
}

// MetricNames lists the keys of Values in presentation order.
var MetricNames = []string{
	"completed",
	"tat", "tat_norm", "rt", "rt_norm",
	"prio_tat", "prio_tat_norm", "prio_rt", "prio_rt_norm",
	"tat_p95", "rt_p95",
	"schedule_times",
}

// Print writes the evaluation as aligned text.
func (e Evaluation) Print(w io.Writer, scheduler string) {
	fmt.Fprintf(w, "=== Scheduler: %s ===\n", scheduler)
	fmt.Fprintf(w, "Completed Processes  : %d\n", e.Completed)
	if e.Completed > 0 {
		fmt.Fprintf(w, "Turnaround (mean)    : %.2f ticks (norm %.2f)\n", e.TAT, e.TATNorm)
		fmt.Fprintf(w, "Response (mean)      : %.2f ticks (norm %.2f)\n", e.RT, e.RTNorm)
		fmt.Fprintf(w, "Turnaround (prio)    : %.2f ticks (norm %.2f)\n", e.PrioTAT, e.PrioTATNorm)
		fmt.Fprintf(w, "Response (prio)      : %.2f ticks (norm %.2f)\n", e.PrioRT, e.PrioRTNorm)
		fmt.Fprintf(w, "Turnaround p95       : %.2f ticks\n", e.TATP95)
		fmt.Fprintf(w, "Response p95         : %.2f ticks\n", e.RTP95)
	}
	fmt.Fprintf(w, "Schedule Times       : %d\n", e.ScheduleTimes)
}
