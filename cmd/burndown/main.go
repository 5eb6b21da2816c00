// Command burndown serves bug burndown charts built from Bugzilla searches,
// or prints a one-off report to the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is overridden at build time with -ldflags.
var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "burndown",
		Short: "Bug burndown charts from Bugzilla searches",
		Long: `burndown runs a Bugzilla search, buckets the bugs by the day they were
opened and closed, and draws the running open and closed totals.

Configuration is read from the environment (and a .env file when present),
see BUGZILLA_URL, BUGZILLA_PRODUCT_FILTER and CHART_START_MONTHS.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(reportCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "burndown version %s\n", Version)
		},
	})

	return cmd
}
