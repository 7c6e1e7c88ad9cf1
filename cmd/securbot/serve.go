package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httpadapter "securbot/internal/adapters/http"
	pg "securbot/internal/adapters/postgres"
	"securbot/internal/workers/monitorrunner"
	"securbot/internal/workers/scanrunner"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the push receiver, plus pull workers and the monitor scheduler when enabled",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := load(true)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			db, err := pg.ConnectWithRetry(ctx, cfg.DatabaseURL, 5, log)
			if err != nil {
				return fmt.Errorf("db connect error: %w", err)
			}
			defer db.Close()

			if cfg.AutoMigrate {
				if err := db.Migrate(ctx); err != nil {
					return err
				}
				log.Info("migrations applied")
			}

			artifacts, closeArtifacts, err := artifactStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer closeArtifacts()

			scans := newScanOrchestrator(cfg, db, artifacts, log)
			monitors := newMonitorOrchestrator(cfg, db, log)

			// Pull mode owns scan dispatch when enabled; the push route is then unmounted.
			var pushScans scanrunner.ScanProcessor = scans
			if cfg.ScanWorkers > 0 {
				pushScans = nil
			}
			srv := httpadapter.New(httpadapter.Options{MaxConcurrentJobs: int64(cfg.MaxConcurrentJobs)}, pushScans, monitors, log.WithField("component", "http"))
			httpSrv := &http.Server{
				Addr:              cfg.ListenAddr,
				Handler:           srv.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			var wg sync.WaitGroup
			if cfg.ScanWorkers > 0 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					scanrunner.Run(ctx, db, scans, cfg.ScanWorkers, cfg.PollInterval, log.WithField("component", "dispatcher"))
				}()
				log.WithField("workers", cfg.ScanWorkers).Info("scan workers started")
			}
			if cfg.MonitorInterval > 0 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					monitorrunner.Schedule(ctx, db, monitors, cfg.MonitorInterval, nil, log.WithField("component", "scheduler"))
				}()
				log.WithField("interval", cfg.MonitorInterval).Info("monitor scheduler started")
			}

			errCh := make(chan error, 1)
			go func() { errCh <- httpSrv.ListenAndServe() }()
			log.WithField("addr", cfg.ListenAddr).Info("listening")

			select {
			case <-ctx.Done():
				log.Info("shutting down")
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					cancel()
					wg.Wait()
					return fmt.Errorf("server error: %w", err)
				}
			}

			shutdownCtx, cancelShutdown := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancelShutdown()
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				log.WithError(err).Warn("http shutdown")
			}
			wg.Wait()
			return nil
		},
	}
}
