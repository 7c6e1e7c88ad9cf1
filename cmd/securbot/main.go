package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"securbot/internal/adapters/logger"
	"securbot/internal/config"
)

// Set via ldflags at build time.
var version = "dev"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "securbot",
		Short:         "Security assessment worker",
		Long:          "Runs vulnerability scans and typosquat monitoring jobs and records risk-scored results.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Optional YAML config file (environment overrides it)")

	load := func(needDB bool) (config.Config, *logrus.Entry, error) {
		cfg, err := config.Load(configPath)
		if err != nil && !errors.Is(err, config.ErrNoDatabase) {
			return cfg, nil, err
		}
		if needDB && errors.Is(err, config.ErrNoDatabase) {
			return cfg, nil, fmt.Errorf("%w: required for Postgres adapters", err)
		}
		log := logrus.NewEntry(logger.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile))
		return cfg, log.WithField("env", cfg.Env), nil
	}

	rootCmd.AddCommand(
		newServeCmd(load),
		newMigrateCmd(load),
		newScanCmd(load),
		newMonitorCmd(load),
		newEnqueueCmd(load),
		newShowCmd(load),
	)

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("securbot {{.Version}}\n")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loader resolves configuration and the root logger for a command.
type loader func(needDB bool) (config.Config, *logrus.Entry, error)
