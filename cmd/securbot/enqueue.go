package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	pg "securbot/internal/adapters/postgres"
	"securbot/internal/domain"
	"securbot/internal/output"
	"securbot/internal/services/monitors"
	"securbot/internal/services/scanner"
)

// newEnqueueCmd creates jobs in storage and prints the payload to publish.
// Pull-mode workers pick up queued scans without a publish.
func newEnqueueCmd(load loader) *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Create scan or monitor jobs",
	}
	cmd.PersistentFlags().StringVar(&owner, "owner", localOwner, "Owning user id")

	var scanType string
	scanCmd := &cobra.Command{
		Use:   "scan <target>",
		Short: "Create a QUEUED scan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load(true)
			if err != nil {
				return err
			}
			db, err := pg.ConnectWithRetry(cmd.Context(), cfg.DatabaseURL, 3, log)
			if err != nil {
				return fmt.Errorf("db connect error: %w", err)
			}
			defer db.Close()
			job, err := scanner.New(db).Enqueue(cmd.Context(), owner, args[0], scanType)
			if err != nil {
				return err
			}
			return output.WriteJSON(os.Stdout, job)
		},
	}
	scanCmd.Flags().StringVar(&scanType, "type", domain.DefaultScanType, "Scan type")

	monitorCmd := &cobra.Command{
		Use:   "monitor <domain>",
		Short: "Create an ACTIVE domain monitor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load(true)
			if err != nil {
				return err
			}
			db, err := pg.ConnectWithRetry(cmd.Context(), cfg.DatabaseURL, 3, log)
			if err != nil {
				return fmt.Errorf("db connect error: %w", err)
			}
			defer db.Close()
			job, err := monitors.New(db).Create(cmd.Context(), owner, args[0])
			if err != nil {
				return err
			}
			return output.WriteJSON(os.Stdout, job)
		},
	}

	cmd.AddCommand(scanCmd, monitorCmd)
	return cmd
}
