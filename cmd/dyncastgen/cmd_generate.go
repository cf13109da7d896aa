package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/funvibe/dyncast/internal/gen"
)

func newGenerateCmd(flags *globalFlags) *cobra.Command {
	var force, dryRun bool
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write zz_dyncast.go for every configured package",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := flags.generator(cmd, gen.WithForce(force), gen.WithDryRun(dryRun))
			if err != nil {
				return err
			}

			report, err := g.Generate(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printWarnings(cmd.ErrOrStderr(), report.Warnings)
			verb := "wrote"
			if dryRun {
				verb = "would write"
			}
			for _, path := range report.Written {
				fmt.Fprintf(out, "%s %s\n", verb, relTo(g.ProjectDir(), path))
			}
			fmt.Fprintf(out, "%d types, %d files, %d packages up to date\n",
				report.Types, len(report.Written), len(report.Skipped))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "regenerate packages the ledger reports as up to date")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "show what would be written")
	return cmd
}

func relTo(base, path string) string {
	if rel, err := filepath.Rel(base, path); err == nil {
		return rel
	}
	return path
}
