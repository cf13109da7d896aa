package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/funvibe/dyncast/internal/config"
	"github.com/funvibe/dyncast/internal/gen"
)

type globalFlags struct {
	config  string
	verbose bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, paint(colorRed, "error: ")+err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "dyncastgen",
		Short:         "Generate dyncast Bases and DynamicType methods",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "config file (default: search upward for dyncast.yaml)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log progress to stderr")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newGenerateCmd(flags))
	root.AddCommand(newCheckCmd(flags))
	root.AddCommand(newLedgerCmd(flags))
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dyncastgen %s (codegen %s)\n", config.Version, config.CodegenVersion)
		},
	}
}

// configPath returns the --config flag or the nearest config file.
func (f *globalFlags) configPath() (string, error) {
	if f.config != "" {
		return f.config, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return gen.FindConfig(wd)
}

func (f *globalFlags) generator(cmd *cobra.Command, opts ...gen.GeneratorOption) (*gen.Generator, error) {
	path, err := f.configPath()
	if err != nil {
		return nil, err
	}
	opts = append(opts, gen.WithVerbose(f.verbose), gen.WithLog(cmd.ErrOrStderr()))
	return gen.NewGenerator(path, opts...)
}
