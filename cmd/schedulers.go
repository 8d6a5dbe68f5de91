package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/procsched/procsched/sim"
)

var schedulersCmd = &cobra.Command{
	Use:   "schedulers",
	Short: "List the scheduling policies and their default parameters",
	Run: func(cmd *cobra.Command, args []string) {
		printSchedulerTable(os.Stdout, sim.Schedulers())
	},
}

func init() {
	rootCmd.AddCommand(schedulersCmd)
}
