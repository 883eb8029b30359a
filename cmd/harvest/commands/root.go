package commands

import (
	"context"
	"fmt"
	"os"

	"linkharvest/lib/telemetry"

	"github.com/spf13/cobra"
)

var verbose *bool
var shutdownTelemetry = func(context.Context) error { return nil }

var rootCmd = &cobra.Command{
	Use:   "harvest",
	Short: "harvest scrapes categorized search queries for contact addresses and keeps a CSV ledger of everything found.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(*verbose)
		tel, err := telemetry.SetupFromEnv(cmd.Context(), "linkharvest.harvest")
		if err != nil {
			return err
		}
		shutdownTelemetry = tel.Shutdown
		telemetry.InstrumentPerfStats(cmd.Context())
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = shutdownTelemetry(cmd.Context())
	},
}

func init() {
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
