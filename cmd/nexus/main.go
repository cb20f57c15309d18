package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vulnverified/nexus/internal/config"
	"github.com/vulnverified/nexus/internal/logging"
	"github.com/vulnverified/nexus/internal/output"
)

// Set via ldflags at build time.
var version = "dev"

// app carries the state shared by every subcommand.
type app struct {
	configPath string
	logLevel   string
	noColor    bool
	jsonOutput bool
	verbose    bool

	cfg *config.Config
	log *logrus.Logger
}

func main() {
	output.Version = version

	// Cancel in-flight probes and requests on Ctrl+C.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:          "nexus",
		Short:        "External recon and risk report for a single target",
		Long:         "Subdomain discovery, common-port scanning, technology fingerprinting and risk scoring for one host.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Config file (default: ./nexus.yaml or ~/.config/nexus/nexus.yaml)")
	flags.StringVar(&a.logLevel, "log-level", "", "Override log.level (debug, info, warn, error)")
	flags.BoolVar(&a.noColor, "no-color", false, "Disable terminal colors")
	flags.BoolVar(&a.jsonOutput, "json", false, "Output structured JSON to stdout")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Verbose stage progress")

	rootCmd.AddCommand(
		newDiscoverCmd(a),
		newPortsCmd(a),
		newTechCmd(a),
		newRiskCmd(a),
		newReportCmd(a),
		newServeCmd(a),
		newInitCmd(),
	)

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("nexus {{.Version}}\n")
	return rootCmd
}

// setup loads configuration and builds the logger. init runs without a config.
func (a *app) setup(cmd *cobra.Command) error {
	if cmd.Name() == "init" {
		return nil
	}

	// Respect NO_COLOR env var.
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		a.noColor = true
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	a.cfg = cfg
	a.log = log
	return nil
}
