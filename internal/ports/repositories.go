package ports

import (
	"context"

	"securbot/internal/domain"
	"securbot/internal/jobstate"
)

// ScanRepository reads scans and applies guarded status transitions.
type ScanRepository interface {
	GetScan(ctx context.Context, scanID string) (domain.Scan, error)
	TransitionScan(ctx context.Context, scanID string, t jobstate.Transition) (applied bool, err error)
}

// ScanCreator inserts an asset and its QUEUED scan together.
type ScanCreator interface {
	CreateScan(ctx context.Context, asset domain.Asset, scan domain.Scan) error
}

type FindingRepository interface {
	SaveFinding(ctx context.Context, f domain.Finding) error
	ListFindings(ctx context.Context, scanID string) ([]domain.Finding, error)
}

// MonitorRepository reads monitors. Their status is owned outside the core.
type MonitorRepository interface {
	GetMonitor(ctx context.Context, monitorID string) (domain.Monitor, error)
	ListActiveMonitors(ctx context.Context) ([]domain.Monitor, error)
}

type MonitorCreator interface {
	CreateMonitor(ctx context.Context, m domain.Monitor) error
}

// AlertRepository appends domain alerts; there is no dedup across runs.
type AlertRepository interface {
	SaveAlert(ctx context.Context, a domain.DomainAlert) error
	ListAlerts(ctx context.Context, monitorID string) ([]domain.DomainAlert, error)
}

var ErrNotFound = errString("not found")

type errString string

func (e errString) Error() string { return string(e) }
