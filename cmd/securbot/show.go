package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	pg "securbot/internal/adapters/postgres"
	"securbot/internal/output"
	"securbot/internal/services/reports"
)

func newShowCmd(load loader) *cobra.Command {
	var (
		jsonOutput bool
		noColor    bool
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print stored scan or monitor results",
	}
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output structured JSON to stdout")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable terminal colors")

	connect := func(cmd *cobra.Command) (*reports.Service, func(), error) {
		cfg, log, err := load(true)
		if err != nil {
			return nil, nil, err
		}
		db, err := pg.ConnectWithRetry(cmd.Context(), cfg.DatabaseURL, 3, log)
		if err != nil {
			return nil, nil, fmt.Errorf("db connect error: %w", err)
		}
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			noColor = true
		}
		return reports.New(db), db.Close, nil
	}

	scanCmd := &cobra.Command{
		Use:   "scan <scan-id>",
		Short: "Print a scan and its findings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeDB, err := connect(cmd)
			if err != nil {
				return err
			}
			defer closeDB()
			report, err := svc.Scan(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("scan %s: %w", args[0], err)
			}
			summary := scanSummary(report)
			if jsonOutput {
				return output.WriteJSON(os.Stdout, summary)
			}
			output.WriteFindings(os.Stdout, report.Findings, noColor)
			output.WriteScanSummary(os.Stdout, summary, noColor)
			return nil
		},
	}

	monitorCmd := &cobra.Command{
		Use:   "monitor <monitor-id>",
		Short: "Print a monitor and its alerts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeDB, err := connect(cmd)
			if err != nil {
				return err
			}
			defer closeDB()
			report, err := svc.Monitor(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("monitor %s: %w", args[0], err)
			}
			summary := output.MonitorSummary{
				MonitorID:  report.Monitor.ID,
				RootDomain: report.Monitor.RootDomain,
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

	cmd.AddCommand(scanCmd, monitorCmd)
	return cmd
}

func scanSummary(r reports.ScanReport) output.ScanSummary {
	return output.ScanSummary{
		ScanID:    r.Scan.ID,
		Target:    r.Scan.Target,
		Status:    string(r.Scan.Status),
		RiskScore: r.Score(),
		ReportRef: r.Scan.ReportRef,
		Findings:  r.Findings,
	}
}
