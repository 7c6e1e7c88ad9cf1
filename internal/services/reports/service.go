// Package reports assembles stored scan and monitor results for display.
package reports

import (
	"context"
	"errors"

	"securbot/internal/domain"
	"securbot/internal/ports"
)

var ErrNotFound = errString("not found")

type errString string

func (e errString) Error() string { return string(e) }

type Store interface {
	ports.ScanRepository
	ports.FindingRepository
	ports.MonitorRepository
	ports.AlertRepository
}

type Service struct {
	store Store
}

func New(store Store) *Service { return &Service{store: store} }

type ScanReport struct {
	Scan     domain.Scan
	Findings []domain.Finding
}

// Score is the stored risk score, or 0 while the scan has none.
func (r ScanReport) Score() int {
	if r.Scan.RiskScore == nil {
		return 0
	}
	return *r.Scan.RiskScore
}

type MonitorReport struct {
	Monitor domain.Monitor
	Alerts  []domain.DomainAlert
}

func (s *Service) Scan(ctx context.Context, scanID string) (ScanReport, error) {
	scan, err := s.store.GetScan(ctx, scanID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return ScanReport{}, ErrNotFound
		}
		return ScanReport{}, err
	}
	findings, err := s.store.ListFindings(ctx, scanID)
	if err != nil {
		return ScanReport{}, err
	}
	return ScanReport{Scan: scan, Findings: findings}, nil
}

func (s *Service) Monitor(ctx context.Context, monitorID string) (MonitorReport, error) {
	m, err := s.store.GetMonitor(ctx, monitorID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return MonitorReport{}, ErrNotFound
		}
		return MonitorReport{}, err
	}
	alerts, err := s.store.ListAlerts(ctx, monitorID)
	if err != nil {
		return MonitorReport{}, err
	}
	return MonitorReport{Monitor: m, Alerts: alerts}, nil
}
