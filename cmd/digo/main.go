package main

import (
	"fmt"
	"os"

	"github.com/centraunit/digo"
	"github.com/centraunit/digo/config"
	"github.com/centraunit/digo/metrics"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootFlags struct {
	configPath string
	envFiles   []string
	verbosity  int
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{verbosity: -1}
	root := &cobra.Command{
		Use:           "digo",
		Short:         "Inspect and serve a dependency injection container",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "JSON settings file")
	root.PersistentFlags().StringSliceVar(&flags.envFiles, "env-file", nil, ".env files to load (default .env)")
	root.PersistentFlags().IntVarP(&flags.verbosity, "verbosity", "v", -1, "log verbosity, overrides the settings")

	root.AddCommand(newInspectCmd(flags))
	root.AddCommand(newArenaCmd(flags))
	root.AddCommand(newServeCmd(flags))
	return root
}

// setup loads the settings and builds the sample container.
func (f *rootFlags) setup() (*config.Settings, *digo.Container, *metrics.Collector, error) {
	settings, err := config.Load(f.configPath, f.envFiles...)
	if err != nil {
		return nil, nil, nil, err
	}
	if f.verbosity >= 0 {
		settings.Verbosity = f.verbosity
	}
	opts, err := settings.Options()
	if err != nil {
		return nil, nil, nil, err
	}

	col := metrics.NewCollector()
	c := digo.New(digo.WithOptions(opts), digo.WithObserver(col))
	if err := installSample(c); err != nil {
		return nil, nil, nil, err
	}
	return settings, c, col, nil
}
