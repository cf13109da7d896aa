package main

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/funvibe/dyncast/internal/gen"
)

func newLedgerCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect or clear the generation ledger",
	}
	cmd.AddCommand(newLedgerListCmd(flags))
	cmd.AddCommand(newLedgerCleanCmd(flags))
	return cmd
}

func newLedgerListCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the last generation of every package",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := flags.configPath()
			if err != nil {
				return err
			}

			ledger, err := gen.OpenLedger(cmd.Context(), filepath.Dir(path))
			if err != nil {
				return err
			}
			defer ledger.Close()

			entries, err := ledger.Entries(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "no generations recorded")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PACKAGE\tTYPES\tFINGERPRINT\tRUN\tGENERATED")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n",
					e.PkgPath, e.Types, e.Fingerprint, shortID(e.RunID), e.GeneratedAt.Local().Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		},
	}
}

// shortID abbreviates a run id for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func newLedgerCleanCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove the ledger so the next generate rewrites everything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := flags.configPath()
			if err != nil {
				return err
			}
			dir := filepath.Dir(path)
			if err := gen.CleanLedger(dir); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", gen.LedgerDir(dir))
			return nil
		},
	}
}
