package main

import (
	"context"

	"github.com/sirupsen/logrus"

	"securbot/internal/adapters/dnsresolver"
	"securbot/internal/adapters/gcs"
	"securbot/internal/adapters/nuclei"
	"securbot/internal/adapters/whois"
	"securbot/internal/config"
	"securbot/internal/ports"
	"securbot/internal/workers/monitorrunner"
	"securbot/internal/workers/scanrunner"
)

// artifactStore returns nil when no bucket is configured. The returned close
// func is always safe to call.
func artifactStore(ctx context.Context, cfg config.Config, log *logrus.Entry) (ports.ArtifactStore, func(), error) {
	if cfg.ReportBucket == "" {
		log.Info("REPORT_BUCKET not set, scan reports will not be uploaded")
		return nil, func() {}, nil
	}
	store, err := gcs.New(ctx, cfg.ReportBucket)
	if err != nil {
		return nil, func() {}, err
	}
	return store, func() { _ = store.Close() }, nil
}

func newScanOrchestrator(cfg config.Config, store scanrunner.Store, artifacts ports.ArtifactStore, log *logrus.Entry) *scanrunner.Orchestrator {
	return scanrunner.New(scanrunner.Options{
		Timeout:   cfg.Scanner.Timeout,
		WorkDir:   cfg.Scanner.WorkDir,
		Templates: cfg.Scanner.Templates,
	}, store, nuclei.New(cfg.Scanner.Bin), artifacts, nil, log.WithField("component", "scanrunner"))
}

func newMonitorOrchestrator(cfg config.Config, store monitorrunner.Store, log *logrus.Entry) *monitorrunner.Orchestrator {
	server := cfg.DNSServer
	if server == "" {
		server = dnsresolver.DefaultServer()
	}
	return monitorrunner.New(monitorrunner.Options{
		LookupConcurrency: cfg.DNSConcurrency,
		LookupTimeout:     cfg.DNSTimeout,
		RegistryTimeout:   cfg.WhoisTimeout,
	}, store,
		dnsresolver.New(server, cfg.DNSTimeout),
		whois.New(cfg.WhoisTimeout),
		nil, log.WithField("component", "monitorrunner"))
}
