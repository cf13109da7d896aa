package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCmd(flags *globalFlags) *cobra.Command {
	var order bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check the hierarchy and report stale generated files",
		Long: `check loads the configured packages, rejects supertype cycles,
reports repeated ancestors and exits non-zero if any generated file is
missing or differs from what generate would write.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := flags.generator(cmd)
			if err != nil {
				return err
			}

			report, err := g.Check(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printWarnings(cmd.ErrOrStderr(), report.Warnings)
			if order {
				for i, key := range report.Order {
					fmt.Fprintf(out, "%3d %s\n", i+1, key)
				}
			}
			for _, path := range report.Stale {
				fmt.Fprintf(out, "stale %s\n", relTo(g.ProjectDir(), path))
			}
			if len(report.Stale) > 0 {
				return fmt.Errorf("%d generated files out of date; run dyncastgen generate", len(report.Stale))
			}
			fmt.Fprintf(out, "%d types ok\n", report.Types)
			return nil
		},
	}
	cmd.Flags().BoolVar(&order, "order", false, "print every type with supertypes first")
	return cmd
}
