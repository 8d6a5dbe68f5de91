package cmd

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procsched/procsched/sim"
	"github.com/procsched/procsched/sim/experiment"
	"github.com/procsched/procsched/sim/trace"
)

func runFCFS(t *testing.T, arrivals []sim.Arrival) *sim.Result {
	t.Helper()
	res, err := sim.RunScheduler(sim.NewFCFSScheduler(), 1, 0, arrivals)
	require.NoError(t, err)
	return res
}

func arrival(tick int64, name string, cpu int64) sim.Arrival {
	return sim.Arrival{Tick: tick, Spec: sim.ProcessSpec{Name: name, CPUTime: cpu, StaticPriority: 1}}
}

func TestPrintProcessTable_RowsAndAverages(t *testing.T) {
	// GIVEN FCFS over A(5) and B(3) on one slot: RT 0 and 5, TAT 5 and 8
	res := runFCFS(t, []sim.Arrival{arrival(0, "procA", 5), arrival(0, "procB", 3)})
	var buf bytes.Buffer

	// WHEN printing the table
	require.NoError(t, printProcessTable(&buf, res.Completed))

	// THEN both processes and the averages appear
	out := buf.String()
	assert.Contains(t, out, "Process table")
	assert.Contains(t, out, "procA")
	assert.Contains(t, out, "procB")
	assert.Contains(t, out, "2.50", "mean response")
	assert.Contains(t, out, "6.50", "mean turnaround")
	assert.Less(t, strings.Index(out, "procA"), strings.Index(out, "procB"), "pid order")
}

func TestWriteTimelines_OneRowPerEvent(t *testing.T) {
	res := runFCFS(t, []sim.Arrival{arrival(0, "a", 1)})
	var buf bytes.Buffer

	require.NoError(t, writeTimelines(&buf, res.Completed))

	assert.Equal(t,
		"pid,name,tick,state\n"+
			"0,a,0,created\n"+
			"0,a,0,started_running\n"+
			"0,a,0,running\n"+
			"0,a,1,finished\n",
		buf.String())
}

func TestPrintSchedulerTable_ListsRegistry(t *testing.T) {
	var buf bytes.Buffer
	printSchedulerTable(&buf, sim.Schedulers())

	out := buf.String()
	for _, info := range sim.Schedulers() {
		assert.Contains(t, out, info.Name)
	}
	assert.Contains(t, out, "time_slice=")
	assert.Contains(t, out, "n_queues=")
}

func TestFormatParams_OnlyRelevantFields(t *testing.T) {
	p, err := sim.DefaultSchedulerParams("fcfs")
	require.NoError(t, err)
	assert.Equal(t, "-", formatParams("fcfs", p))

	p, err = sim.DefaultSchedulerParams("rr")
	require.NoError(t, err)
	assert.Equal(t, "time_slice="+strconv.Itoa(p.TimeSlice), formatParams("rr", p))
}

func TestPrintTraceSummary(t *testing.T) {
	var buf bytes.Buffer
	printTraceSummary(&buf, &trace.TraceSummary{TotalDecisions: 6, Dispatches: 3, Preemptions: 1, Finishes: 2})

	out := buf.String()
	assert.Contains(t, out, "=== Decision Trace ===")
	assert.Contains(t, out, "Dispatches           : 3")
	assert.Contains(t, out, "Preemptions          : 1")
}

func sampleResults() []experiment.GroupResult {
	return []experiment.GroupResult{{
		Group: experiment.Group{
			Param:  experiment.ParamDensity,
			Base:   sim.WorkloadSpec{NProcesses: 20, LensMean: 30, LensStd: 10, Density: 5},
			Values: []float64{1, 2},
		},
		Points: []experiment.Point{
			{Scheduler: "fcfs", Value: 1, Metrics: map[string]float64{"tat": 2.5}},
			{Scheduler: "fcfs", Value: 2, Metrics: map[string]float64{"tat": 4}},
		},
	}}
}

func TestWriteResults_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResults(&buf, sampleResults()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "group,param,value,scheduler,"+strings.Join(sim.MetricNames, ","), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], `"n_processes=20,lens_mean=30,lens_std=10",density,1,fcfs,0,2.5,`), lines[1])
}

func TestPrintGroupTable(t *testing.T) {
	var buf bytes.Buffer
	printGroupTable(&buf, sampleResults()[0])

	out := buf.String()
	assert.Contains(t, out, "=== density (n_processes=20,lens_mean=30,lens_std=10) ===")
	assert.Contains(t, out, "fcfs")
	assert.Contains(t, out, "2.50")
}

func TestWriteArrivals_Formats(t *testing.T) {
	arrivals := []sim.Arrival{arrival(0, "a", 3)}

	var csvBuf, yamlBuf bytes.Buffer
	require.NoError(t, writeArrivals(&csvBuf, "csv", arrivals))
	require.NoError(t, writeArrivals(&yamlBuf, "yaml", arrivals))
	assert.True(t, strings.HasPrefix(csvBuf.String(), "arrival,cpu,priority,name,user\n"))
	assert.Contains(t, yamlBuf.String(), "processes:")

	err := writeArrivals(&bytes.Buffer{}, "json", arrivals)
	assert.True(t, errors.Is(err, sim.ErrInvalidConfiguration))
}
