package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"auditreport/internal/core"
)

func newAmountCmd() *cobra.Command {
	var wan bool
	cmd := &cobra.Command{
		Use:   "amount <value>",
		Short: "Print an amount in capitalized Chinese numerals",
		Example: `  auditreport amount 14750000
  auditreport amount --wan 1550`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := core.ParseAmount(args[0])
			if err != nil {
				return err
			}
			if wan {
				amount = core.WanToYuan(amount)
			}
			text, err := core.AmountToChinese(amount)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	cmd.Flags().BoolVar(&wan, "wan", false, "treat the value as 万元")
	return cmd
}
