package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/procsched/procsched/sim"
	"github.com/procsched/procsched/sim/experiment"
)

var (
	// CLI flags for sweeps
	repeats         int      // Trials averaged per point
	sweepSchedulers []string // Schedulers to compare, default policies only
	skipSingle      bool     // Drop groups whose varied parameter has one point
	varies          []string // Swept ranges, name=lo:hi:groups[:geometric]
	resultsOut      string   // CSV of every averaged point
)

// sweepCmd compares schedulers over a grid of generator parameters
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Compare schedulers over a grid of workload parameters",
	Long: "Vary one generator parameter at a time while the others stay fixed, " +
		"running every scheduler on identical workloads and averaging the metrics over --repeats trials.",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		cfg, err := resolveConfig(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if cfg.Workload.ArrivalsFile != "" {
			logrus.Warnf("Ignoring arrival file %s: sweeps always generate their workloads", cfg.Workload.ArrivalsFile)
		}

		runner, err := experiment.NewRunner(cfg)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		groups := experiment.Groups(cfg.Sweep, cfg.Workload)
		if len(groups) == 0 {
			logrus.Fatalf("Nothing to sweep: every parameter has a single value and skip-single is set")
		}
		logrus.Infof("Sweeping %d groups with %d schedulers, %d repeats", len(groups), len(runner.Schedulers), runner.Repeats)

		results, err := runner.Run(groups)
		if err != nil {
			logrus.Fatalf("Sweep failed: %v", err)
		}
		for _, gr := range results {
			printGroupTable(os.Stdout, gr)
		}
		if resultsOut != "" {
			if err := writeResultsFile(resultsOut, results); err != nil {
				logrus.Fatalf("%v", err)
			}
			logrus.Infof("Sweep results written to %s", resultsOut)
		}
	},
}

// parseVary parses "name=lo:hi:groups[:geometric]" into a sweep range.
// A bare "name=v" pins the parameter to a single value.
func parseVary(s string) (string, sim.SweepRange, error) {
	name, spec, ok := strings.Cut(s, "=")
	if !ok || !isParam(name) {
		return "", sim.SweepRange{}, fmt.Errorf("%w: --vary %q: want <param>=lo:hi:groups[:geometric] with param in %v",
			sim.ErrInvalidConfiguration, s, experiment.Params)
	}
	parts := strings.Split(spec, ":")
	if len(parts) != 1 && len(parts) != 3 && !(len(parts) == 4 && parts[3] == "geometric") {
		return "", sim.SweepRange{}, fmt.Errorf("%w: --vary %q: malformed range", sim.ErrInvalidConfiguration, s)
	}
	var r sim.SweepRange
	for _, p := range parts[:min(len(parts), 2)] {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return "", sim.SweepRange{}, fmt.Errorf("%w: --vary %q: %v", sim.ErrInvalidConfiguration, s, err)
		}
		r.Range = append(r.Range, v)
	}
	if len(parts) >= 3 {
		groups, err := strconv.Atoi(parts[2])
		if err != nil {
			return "", sim.SweepRange{}, fmt.Errorf("%w: --vary %q: groups: %v", sim.ErrInvalidConfiguration, s, err)
		}
		r.Groups = groups
		r.Geometric = len(parts) == 4
	}
	return name, r, nil
}

func isParam(name string) bool {
	for _, p := range experiment.Params {
		if p == name {
			return true
		}
	}
	return false
}

func sweepRangeOf(s *sim.SweepSpec, param string) *sim.SweepRange {
	switch param {
	case experiment.ParamNProcesses:
		return &s.NProcesses
	case experiment.ParamLensMean:
		return &s.LensMean
	case experiment.ParamLensStd:
		return &s.LensStd
	default:
		return &s.Density
	}
}

func init() {
	registerSimFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&repeats, "repeats", 1, "Trials averaged per point")
	sweepCmd.Flags().StringSliceVar(&sweepSchedulers, "schedulers", nil, "Comma-separated schedulers to compare (default: --scheduler)")
	sweepCmd.Flags().BoolVar(&skipSingle, "skip-single", false, "Skip groups whose varied parameter has a single value")
	sweepCmd.Flags().StringArrayVar(&varies, "vary", nil, "Swept range, <param>=lo:hi:groups[:geometric] (repeatable)")
	sweepCmd.Flags().StringVar(&resultsOut, "results-out", "", "Write every averaged point to this CSV file")

	rootCmd.AddCommand(sweepCmd)
}
