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
	Use:   "outreach",
	Short: "outreach sends one templated message per ledger address, keeping a sent log so nobody is ever contacted twice.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(*verbose)
		tel, err := telemetry.SetupFromEnv(cmd.Context(), "linkharvest.outreach")
		if err != nil {
			return err
		}
		shutdownTelemetry = tel.Shutdown
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
