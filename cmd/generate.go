package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/procsched/procsched/sim"
	"github.com/procsched/procsched/sim/workload"
)

var (
	generateFormat string // csv or yaml
	generateOut    string // output file, stdout when empty
)

// generateCmd writes a generated workload as an arrival file, so that a run can be
// replayed with --workload or edited by hand.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a generated workload as an arrival file",
	Long:  "Generate a random workload from the generator flags and write it as CSV or YAML. Output is written to stdout for piping unless --out is set.",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		cfg, err := resolveConfig(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		spec := cfg.Workload
		spec.ArrivalsFile = ""
		arrivals, err := workload.Generate(spec)
		if err != nil {
			logrus.Fatalf("Generation failed: %v", err)
		}

		out := io.Writer(os.Stdout)
		if generateOut != "" {
			f, err := os.Create(generateOut)
			if err != nil {
				logrus.Fatalf("Failed to create %s: %v", generateOut, err)
			}
			defer func() { _ = f.Close() }()
			out = f
		}
		if err := writeArrivals(out, generateFormat, arrivals); err != nil {
			logrus.Fatalf("%v", err)
		}
		logrus.Infof("Generated %d processes", len(arrivals))
	},
}

func writeArrivals(w io.Writer, format string, arrivals []sim.Arrival) error {
	switch format {
	case "csv":
		return workload.WriteArrivalsCSV(w, arrivals)
	case "yaml":
		return workload.WriteArrivalsYAML(w, arrivals)
	default:
		return fmt.Errorf("%w: unknown format %q (csv, yaml)", sim.ErrInvalidConfiguration, format)
	}
}

func init() {
	def := sim.DefaultSimConfig()
	generateCmd.Flags().StringVar(&configPath, "config", "", "YAML configuration file (workload section)")
	generateCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	generateCmd.Flags().Int64Var(&seed, "seed", def.Workload.Seed, "Seed for workload generation")
	generateCmd.Flags().IntVar(&nProcesses, "n-processes", def.Workload.NProcesses, "Number of generated processes")
	generateCmd.Flags().Float64Var(&lensMean, "lens-mean", def.Workload.LensMean, "Mean CPU demand of generated processes")
	generateCmd.Flags().Float64Var(&lensStd, "lens-std", def.Workload.LensStd, "Standard deviation of CPU demand")
	generateCmd.Flags().Float64Var(&density, "density", def.Workload.Density, "Arrival density (processes per tick times mean demand)")
	generateCmd.Flags().StringVar(&generateFormat, "format", "csv", "Output format (csv, yaml)")
	generateCmd.Flags().StringVar(&generateOut, "out", "", "Output file (default stdout)")

	rootCmd.AddCommand(generateCmd)
}
