// Package memory is an in-process implementation of the repository ports. It
// backs one-shot CLI runs and tests and enforces the same transition guards as
// the Postgres adapter.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"securbot/internal/domain"
	"securbot/internal/jobstate"
	"securbot/internal/ports"
)

type Store struct {
	mu       sync.Mutex
	assets   map[string]domain.Asset
	scans    map[string]*domain.Scan
	findings map[string][]domain.Finding
	monitors map[string]domain.Monitor
	alerts   map[string][]domain.DomainAlert
}

func New() *Store {
	return &Store{
		assets:   map[string]domain.Asset{},
		scans:    map[string]*domain.Scan{},
		findings: map[string][]domain.Finding{},
		monitors: map[string]domain.Monitor{},
		alerts:   map[string][]domain.DomainAlert{},
	}
}

// ScanCreator

func (s *Store) CreateScan(_ context.Context, asset domain.Asset, scan domain.Scan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scans[scan.ID]; ok {
		return errors.New("memory: duplicate scan id " + scan.ID)
	}
	if scan.Status == "" {
		scan.Status = domain.ScanQueued
	}
	if scan.CreatedAt.IsZero() {
		scan.CreatedAt = time.Now().UTC()
	}
	scan.AssetID = asset.ID
	scan.Target = asset.Value
	s.assets[asset.ID] = asset
	s.scans[scan.ID] = &scan
	return nil
}

// ScanRepository

func (s *Store) GetScan(_ context.Context, scanID string) (domain.Scan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	scan, ok := s.scans[scanID]
	if !ok {
		return domain.Scan{}, ports.ErrNotFound
	}
	return *scan, nil
}

func (s *Store) TransitionScan(_ context.Context, scanID string, t jobstate.Transition) (bool, error) {
	if err := t.Validate(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	scan, ok := s.scans[scanID]
	if !ok {
		return false, nil
	}
	if err := jobstate.Apply(scan, t); err != nil {
		if errors.Is(err, jobstate.ErrTerminal) || errors.Is(err, jobstate.ErrIllegalTransition) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// JobRepository

func (s *Store) ClaimNext(_ context.Context) (ports.ScanJob, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var next *domain.Scan
	for _, scan := range s.scans {
		if scan.Status != domain.ScanQueued {
			continue
		}
		if next == nil || scan.CreatedAt.Before(next.CreatedAt) || (scan.CreatedAt.Equal(next.CreatedAt) && scan.ID < next.ID) {
			next = scan
		}
	}
	if next == nil {
		return ports.ScanJob{}, false, nil
	}
	if err := jobstate.Apply(next, jobstate.Start(time.Now().UTC())); err != nil {
		return ports.ScanJob{}, false, err
	}
	return ports.ScanJob{ScanID: next.ID, Target: next.Target, Type: next.Type, OwnerID: next.OwnerID}, true, nil
}

// FindingRepository

func (s *Store) SaveFinding(_ context.Context, f domain.Finding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scans[f.ScanID]; !ok {
		return ports.ErrNotFound
	}
	s.findings[f.ScanID] = append(s.findings[f.ScanID], f)
	return nil
}

func (s *Store) ListFindings(_ context.Context, scanID string) ([]domain.Finding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Finding(nil), s.findings[scanID]...), nil
}

// MonitorRepository / MonitorCreator

func (s *Store) CreateMonitor(_ context.Context, m domain.Monitor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.monitors[m.ID]; ok {
		return errors.New("memory: duplicate monitor id " + m.ID)
	}
	if m.Status == "" {
		m.Status = domain.MonitorActive
	}
	s.monitors[m.ID] = m
	return nil
}

func (s *Store) GetMonitor(_ context.Context, monitorID string) (domain.Monitor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.monitors[monitorID]
	if !ok {
		return domain.Monitor{}, ports.ErrNotFound
	}
	return m, nil
}

func (s *Store) ListActiveMonitors(_ context.Context) ([]domain.Monitor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Monitor
	for _, m := range s.monitors {
		if m.Status == domain.MonitorActive {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SetMonitorStatus stands in for the external owner of monitor status.
func (s *Store) SetMonitorStatus(monitorID string, status domain.MonitorStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.monitors[monitorID]; ok {
		m.Status = status
		s.monitors[monitorID] = m
	}
}

// AlertRepository

func (s *Store) SaveAlert(_ context.Context, a domain.DomainAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.monitors[a.MonitorID]; !ok {
		return ports.ErrNotFound
	}
	s.alerts[a.MonitorID] = append(s.alerts[a.MonitorID], a)
	return nil
}

func (s *Store) ListAlerts(_ context.Context, monitorID string) ([]domain.DomainAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.DomainAlert(nil), s.alerts[monitorID]...), nil
}
