package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/procsched/procsched/sim"
	"github.com/procsched/procsched/sim/experiment"
	"github.com/procsched/procsched/sim/trace"
)

// printProcessTable writes one row per completed process in pid order, with the
// mean response and turnaround times in the footer.
func printProcessTable(w io.Writer, completed []*sim.ScheduledProcess) error {
	procs := append([]*sim.ScheduledProcess(nil), completed...)
	sort.Slice(procs, func(i, j int) bool { return procs[i].PID() < procs[j].PID() })

	rows := make([][]string, 0, len(procs))
	var sumRT, sumTAT int64
	for _, p := range procs {
		m, err := p.ComputeMetrics()
		if err != nil {
			return err
		}
		sumRT += m.RT
		sumTAT += m.TAT
		rows = append(rows, []string{
			strconv.Itoa(p.PID()),
			p.Record.Name,
			strconv.FormatInt(p.CreatedAt(), 10),
			strconv.FormatInt(p.Record.TotalCPUTime, 10),
			strconv.Itoa(p.Record.StaticPriority),
			strconv.FormatInt(m.RT, 10),
			strconv.FormatInt(m.TAT, 10),
			strconv.FormatInt(p.CreatedAt()+m.TAT, 10),
		})
	}

	_, _ = fmt.Fprintln(w, "Process table")
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"PID", "Name", "Arrival", "CPU", "Priority", "Response", "Turnaround", "Exit"})
	table.AppendBulk(rows)
	if n := len(procs); n > 0 {
		table.SetFooter([]string{"", "", "", "", "",
			fmt.Sprintf("Average\n%.2f", float64(sumRT)/float64(n)),
			fmt.Sprintf("Average\n%.2f", float64(sumTAT)/float64(n)),
			""})
	}
	table.Render()
	_, _ = fmt.Fprintln(w)
	return nil
}

func printTraceSummary(w io.Writer, sum *trace.TraceSummary) {
	_, _ = fmt.Fprintln(w, "=== Decision Trace ===")
	_, _ = fmt.Fprintf(w, "Decisions            : %d\n", sum.TotalDecisions)
	_, _ = fmt.Fprintf(w, "Dispatches           : %d\n", sum.Dispatches)
	_, _ = fmt.Fprintf(w, "Pauses               : %d\n", sum.Pauses)
	_, _ = fmt.Fprintf(w, "Preemptions          : %d\n", sum.Preemptions)
	_, _ = fmt.Fprintf(w, "Demotions            : %d\n", sum.Demotions)
	_, _ = fmt.Fprintf(w, "Finishes             : %d\n", sum.Finishes)
	_, _ = fmt.Fprintf(w, "Max Dispatches / PID : %d\n", sum.MaxContextSwitches)
}

func printSchedulerTable(w io.Writer, infos []sim.SchedulerInfo) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "Description", "Defaults"})
	table.SetAutoWrapText(false)
	for _, info := range infos {
		table.Append([]string{info.Name, info.Description, formatParams(info.Name, info.Defaults)})
	}
	table.Render()
}

// formatParams renders only the parameters the named policy reads.
func formatParams(name string, p sim.SchedulerParams) string {
	switch name {
	case "sjf", "sjf-preemptive":
		return fmt.Sprintf("preemptive=%t", p.Preemptive)
	case "rr":
		return fmt.Sprintf("time_slice=%d", p.TimeSlice)
	case "sp", "dp", "dpmq":
		return fmt.Sprintf("min_time_slice=%d time_slice_increment=%d", p.MinTimeSlice, p.TimeSliceIncrement)
	case "mfq":
		return fmt.Sprintf("base_time_slice=%d n_queues=%d", p.BaseTimeSlice, p.NQueues)
	case "spmfq", "mpmfq":
		return fmt.Sprintf("base_time_slice=%d n_queues=%d min_exp=%g exp_increment=%g",
			p.BaseTimeSlice, p.NQueues, p.MinExp, p.ExpIncrement)
	}
	return "-"
}

// groupColumns are the metrics shown per point in sweep tables.
var groupColumns = []string{"tat", "rt", "prio_tat", "prio_rt", "tat_p95", "rt_p95", "schedule_times"}

func printGroupTable(w io.Writer, gr experiment.GroupResult) {
	_, _ = fmt.Fprintf(w, "=== %s (%s) ===\n", gr.Group.Param, gr.Group.Label())
	table := tablewriter.NewWriter(w)
	table.SetHeader(append([]string{"Scheduler", gr.Group.Param}, groupColumns...))
	for _, pt := range gr.Points {
		row := []string{pt.Scheduler, strconv.FormatFloat(pt.Value, 'g', -1, 64)}
		for _, m := range groupColumns {
			row = append(row, fmt.Sprintf("%.2f", pt.Metrics[m]))
		}
		table.Append(row)
	}
	table.Render()
	_, _ = fmt.Fprintln(w)
}

// writeTimelines writes one row per timeline event: pid,name,tick,state.
func writeTimelines(w io.Writer, completed []*sim.ScheduledProcess) error {
	procs := append([]*sim.ScheduledProcess(nil), completed...)
	sort.Slice(procs, func(i, j int) bool { return procs[i].PID() < procs[j].PID() })

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"pid", "name", "tick", "state"}); err != nil {
		return err
	}
	for _, p := range procs {
		for _, ev := range p.Timeline {
			row := []string{strconv.Itoa(p.PID()), p.Record.Name, strconv.FormatInt(ev.Tick, 10), string(ev.State)}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

// writeResults writes every sweep point as group,param,value,scheduler followed by
// all metrics.
func writeResults(w io.Writer, results []experiment.GroupResult) error {
	writer := csv.NewWriter(w)
	header := append([]string{"group", "param", "value", "scheduler"}, sim.MetricNames...)
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, gr := range results {
		for _, pt := range gr.Points {
			row := []string{gr.Group.Label(), gr.Group.Param, strconv.FormatFloat(pt.Value, 'g', -1, 64), pt.Scheduler}
			for _, m := range sim.MetricNames {
				row = append(row, strconv.FormatFloat(pt.Metrics[m], 'g', -1, 64))
			}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeTimelineFile(path string, completed []*sim.ScheduledProcess) error {
	return writeFile(path, func(w io.Writer) error { return writeTimelines(w, completed) })
}

func writeResultsFile(path string, results []experiment.GroupResult) error {
	return writeFile(path, func(w io.Writer) error { return writeResults(w, results) })
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
