// Command auditreport serves the settlement audit report API and provides
// maintenance subcommands.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "auditreport",
		Short:         "Settlement audit report service",
		Long:          "auditreport manages audit projects and renders settlement audit reports as Word documents and PDF previews.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd(), newAmountCmd(), newGenerateCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
