package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"securbot/internal/adapters/memory"
	"securbot/internal/domain"
	"securbot/internal/output"
	"securbot/internal/services/monitors"
	"securbot/internal/services/reports"
	"securbot/internal/services/scanner"
)

const localOwner = "local"

func newScanCmd(load loader) *cobra.Command {
	var (
		scanType   string
		jsonOutput bool
		noColor    bool
	)
	cmd := &cobra.Command{
		Use:   "scan <target>",
		Short: "Run one scan locally and print its findings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load(false)
			if err != nil {
				return err
			}
			if _, ok := os.LookupEnv("NO_COLOR"); ok {
				noColor = true
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()

			store := memory.New()
			job, err := scanner.New(store).Enqueue(ctx, localOwner, args[0], scanType)
			if err != nil {
				return err
			}
			artifacts, closeArtifacts, err := artifactStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer closeArtifacts()

			_, runErr := newScanOrchestrator(cfg, store, artifacts, log).Run(ctx, job)
			report, err := reports.New(store).Scan(context.WithoutCancel(ctx), job.ScanID)
			if err != nil {
				return err
			}
			summary := scanSummary(report)
			if jsonOutput {
				if err := output.WriteJSON(os.Stdout, summary); err != nil {
					return err
				}
			} else {
				output.WriteFindings(os.Stdout, report.Findings, noColor)
				output.WriteScanSummary(os.Stdout, summary, noColor)
			}
			if runErr != nil {
				return fmt.Errorf("scan failed: %w", runErr)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&scanType, "type", domain.DefaultScanType, "Scan type, selects the template set")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output structured JSON to stdout")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable terminal colors")
	return cmd
}

func newMonitorCmd(load loader) *cobra.Command {
	var (
		jsonOutput bool
		noColor    bool
	)
	cmd := &cobra.Command{
		Use:   "monitor <domain>",
		Short: "Run one typosquat monitoring pass locally and print its alerts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load(false)
			if err != nil {
				return err
			}
			if _, ok := os.LookupEnv("NO_COLOR"); ok {
				noColor = true
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()

			store := memory.New()
			job, err := monitors.New(store).Create(ctx, localOwner, args[0])
			if err != nil {
				return err
			}
			report, err := newMonitorOrchestrator(cfg, store, log).Run(ctx, job)
			if err != nil {
				return err
			}
			summary := output.MonitorSummary{
				MonitorID:  report.MonitorID,
				RootDomain: report.RootDomain,
				Candidates: report.Candidates,
				Alerts:     report.Alerts,
			}
			if jsonOutput {
				return output.WriteJSON(os.Stdout, summary)
			}
			output.WriteAlerts(os.Stdout, report.Alerts, noColor)
			output.WriteMonitorSummary(os.Stdout, summary, noColor)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output structured JSON to stdout")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable terminal colors")
	return cmd
}
