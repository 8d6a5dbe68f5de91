package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/procsched/procsched/sim"
)

// resolveConfig loads --config (or the built-in defaults) and overlays every flag
// the user set explicitly. Flags left at their defaults never override the file.
func resolveConfig(cmd *cobra.Command) (*sim.SimConfig, error) {
	var cfg *sim.SimConfig
	if configPath != "" {
		loaded, err := sim.LoadSimConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		def := sim.DefaultSimConfig()
		cfg = &def
	}

	flags := cmd.Flags()
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}

	if changed("threads") {
		cfg.Threads = threads
	}
	if changed("horizon") {
		cfg.Horizon = horizon
	}
	if changed("trace") {
		cfg.Trace = traceLevel
	}

	if changed("scheduler") && schedulerName != cfg.Scheduler.Name {
		// parameters from the file belong to the previous policy
		cfg.Scheduler = sim.SchedulerConfig{Name: schedulerName}
	}
	overlayInt := func(name string, v int, dst **int) {
		if changed(name) {
			*dst = &v
		}
	}
	overlayFloat := func(name string, v float64, dst **float64) {
		if changed(name) {
			*dst = &v
		}
	}
	if changed("preemptive") {
		p := preemptive
		cfg.Scheduler.Preemptive = &p
	}
	overlayInt("time-slice", timeSlice, &cfg.Scheduler.TimeSlice)
	overlayInt("min-time-slice", minTimeSlice, &cfg.Scheduler.MinTimeSlice)
	overlayInt("time-slice-increment", timeSliceIncrement, &cfg.Scheduler.TimeSliceIncrement)
	overlayInt("base-time-slice", baseTimeSlice, &cfg.Scheduler.BaseTimeSlice)
	overlayInt("n-queues", nQueues, &cfg.Scheduler.NQueues)
	overlayFloat("min-exp", minExp, &cfg.Scheduler.MinExp)
	overlayFloat("exp-increment", expIncrement, &cfg.Scheduler.ExpIncrement)

	w := &cfg.Workload
	if changed("workload") {
		w.ArrivalsFile = arrivalsPath
	}
	if changed("n-processes") {
		w.NProcesses = nProcesses
	}
	if changed("lens-mean") {
		w.LensMean = lensMean
	}
	if changed("lens-std") {
		w.LensStd = lensStd
	}
	if changed("density") {
		w.Density = density
	}
	if changed("seed") {
		w.Seed = seed
	}

	if changed("repeats") {
		cfg.Sweep.Repeats = repeats
	}
	if changed("schedulers") {
		cfg.Sweep.Schedulers = nil
		for _, name := range sweepSchedulers {
			cfg.Sweep.Schedulers = append(cfg.Sweep.Schedulers, sim.SchedulerConfig{Name: name})
		}
	}
	if changed("skip-single") {
		cfg.Sweep.SkipSingle = skipSingle
	}
	for _, v := range varies {
		param, r, err := parseVary(v)
		if err != nil {
			return nil, err
		}
		*sweepRangeOf(&cfg.Sweep, param) = r
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func schedulerNames() string {
	infos := sim.Schedulers()
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	return strings.Join(names, ", ")
}
