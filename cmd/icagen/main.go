// Command icagen logs into a Citrix StoreFront store and produces ICA
// launch descriptors, either once from the command line or through an
// HTTP API.
package main

import (
	"fmt"
	"os"

	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rflorenc/storefront-ica-generator/internal/config"
	"github.com/rflorenc/storefront-ica-generator/internal/storefront"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newApp().rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries state shared by all subcommands.
type app struct {
	configPath string
	verbose    bool

	logger   *zap.Logger
	lookuper envconfig.Lookuper
	launch   storefront.Launcher // nil picks the platform launcher
	cfg      *config.Config
}

func newApp() *app {
	return &app{lookuper: envconfig.OsLookuper()}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "icagen",
		Short:        "Generate Citrix ICA files from a StoreFront store",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.logger == nil {
				zcfg := zap.NewProductionConfig()
				if a.verbose {
					zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
				}
				logger, err := zcfg.Build()
				if err != nil {
					return fmt.Errorf("failed to initialize logger: %w", err)
				}
				a.logger = logger
			}
			cfg, err := config.LoadWith(cmd.Context(), a.configPath, a.lookuper)
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML config file (default $ICAGEN_CONFIG)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		a.generateCmd(),
		a.launchCmd(),
		a.resourcesCmd(),
		a.serveCmd(),
		versionCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "icagen %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}
