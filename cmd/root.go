package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/procsched/procsched/sim"
	"github.com/procsched/procsched/sim/trace"
	"github.com/procsched/procsched/sim/workload"
)

var (
	// CLI flags shared by run and sweep
	configPath    string  // YAML configuration file, flags override its values
	schedulerName string  // Scheduling policy
	threads       int     // Number of execution slots
	horizon       int64   // Tick limit, 0 means unbounded
	seed          int64   // Seed for workload generation
	logLevel      string  // Log verbosity level
	arrivalsPath  string  // Arrival file (.csv/.yaml) replacing the generator
	nProcesses    int     // Generator: number of processes
	lensMean      float64 // Generator: mean CPU demand
	lensStd       float64 // Generator: CPU demand standard deviation
	density       float64 // Generator: arrivals per tick relative to demand

	// CLI flags for scheduler parameters
	timeSlice          int
	minTimeSlice       int
	timeSliceIncrement int
	baseTimeSlice      int
	nQueues            int
	minExp             float64
	expIncrement       float64
	preemptive         bool

	// run-only flags
	traceLevel    string // Decision trace level
	timelineOut   string // CSV of every process timeline
	showProcesses bool   // Print the per-process table
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "procsched",
	Short: "Discrete-time CPU scheduling simulator",
}

// runCmd simulates one scheduler over one workload
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one scheduler over a workload",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		cfg, err := resolveConfig(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		arrivals, err := workload.Resolve(cfg.Workload)
		if err != nil {
			logrus.Fatalf("Unable to load workload: %v", err)
		}
		scheduler, err := cfg.Scheduler.Build()
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		logrus.Infof("Starting run: scheduler=%s threads=%d processes=%d horizon=%d",
			scheduler.Name(), cfg.Threads, len(arrivals), cfg.Horizon)
		startTime := time.Now()

		s, err := sim.NewSimulator(scheduler, cfg.Threads, cfg.Horizon, arrivals)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if cfg.Trace != string(trace.TraceLevelNone) {
			s.EnableTrace(trace.TraceLevel(cfg.Trace))
		}
		res, err := s.Run()
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}

		if showProcesses {
			if err := printProcessTable(os.Stdout, res.Completed); err != nil {
				logrus.Fatalf("%v", err)
			}
		}
		res.Evaluation.Print(os.Stdout, res.Scheduler)
		if s.Trace != nil {
			printTraceSummary(os.Stdout, trace.Summarize(s.Trace))
		}
		if timelineOut != "" {
			if err := writeTimelineFile(timelineOut, res.Completed); err != nil {
				logrus.Fatalf("%v", err)
			}
			logrus.Infof("Timelines written to %s", timelineOut)
		}

		logrus.Infof("Simulation complete: %d ticks in %s", res.EndTick, time.Since(startTime))
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// registerSimFlags adds the flags shared by run and sweep. Defaults mirror
// sim.DefaultSimConfig; only flags set explicitly override a config file.
func registerSimFlags(cmd *cobra.Command) {
	def := sim.DefaultSimConfig()
	cmd.Flags().StringVar(&configPath, "config", "", "YAML configuration file")
	cmd.Flags().StringVar(&schedulerName, "scheduler", def.Scheduler.Name, fmt.Sprintf("Scheduling policy (%s)", schedulerNames()))
	cmd.Flags().IntVar(&threads, "threads", def.Threads, "Number of execution slots")
	cmd.Flags().Int64Var(&horizon, "horizon", def.Horizon, "Tick limit (0 = run until every process finishes)")
	cmd.Flags().Int64Var(&seed, "seed", def.Workload.Seed, "Seed for workload generation")
	cmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")

	cmd.Flags().StringVar(&arrivalsPath, "workload", "", "Arrival file (.csv, .yaml); replaces the generator")
	cmd.Flags().IntVar(&nProcesses, "n-processes", def.Workload.NProcesses, "Number of generated processes")
	cmd.Flags().Float64Var(&lensMean, "lens-mean", def.Workload.LensMean, "Mean CPU demand of generated processes")
	cmd.Flags().Float64Var(&lensStd, "lens-std", def.Workload.LensStd, "Standard deviation of CPU demand")
	cmd.Flags().Float64Var(&density, "density", def.Workload.Density, "Arrival density (processes per tick times mean demand)")

	cmd.Flags().BoolVar(&preemptive, "preemptive", false, "Preemptive variant (sjf)")
	cmd.Flags().IntVar(&timeSlice, "time-slice", 0, "Time slice (rr)")
	cmd.Flags().IntVar(&minTimeSlice, "min-time-slice", 0, "Minimum time slice (sp, dp, dpmq)")
	cmd.Flags().IntVar(&timeSliceIncrement, "time-slice-increment", 0, "Time slice increment per priority level (sp, dp, dpmq)")
	cmd.Flags().IntVar(&baseTimeSlice, "base-time-slice", 0, "Base time slice of queue 0 (mfq, spmfq, mpmfq)")
	cmd.Flags().IntVar(&nQueues, "n-queues", 0, "Number of feedback queues (mfq, spmfq, mpmfq)")
	cmd.Flags().Float64Var(&minExp, "min-exp", 0, "Minimum slice growth exponent (spmfq, mpmfq)")
	cmd.Flags().Float64Var(&expIncrement, "exp-increment", 0, "Exponent increment per priority level (spmfq, mpmfq)")
}

// init sets up CLI flags and subcommands
func init() {
	registerSimFlags(runCmd)
	runCmd.Flags().StringVar(&traceLevel, "trace", string(trace.TraceLevelNone), "Decision trace level (none, decisions)")
	runCmd.Flags().StringVar(&timelineOut, "timeline-out", "", "Write every process timeline to this CSV file")
	runCmd.Flags().BoolVar(&showProcesses, "processes", true, "Print the per-process table")

	rootCmd.AddCommand(runCmd)
}
