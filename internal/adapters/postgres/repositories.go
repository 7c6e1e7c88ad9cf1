package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"securbot/internal/domain"
	"securbot/internal/ports"
)

// FindingRepository

func (db *DB) SaveFinding(ctx context.Context, f domain.Finding) error {
	_, err := db.Pool.Exec(ctx, `
        INSERT INTO findings (id, scan_id, severity, title, description, remediation, fingerprint, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `, f.ID, f.ScanID, string(f.Severity), f.Title, f.Description, f.Remediation, f.Fingerprint, f.CreatedAt)
	return err
}

func (db *DB) ListFindings(ctx context.Context, scanID string) ([]domain.Finding, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT id, scan_id, severity, title, description, remediation, fingerprint, created_at
        FROM findings WHERE scan_id = $1 ORDER BY created_at, id
    `, scanID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Finding, error) {
		var f domain.Finding
		var sev string
		err := row.Scan(&f.ID, &f.ScanID, &sev, &f.Title, &f.Description, &f.Remediation, &f.Fingerprint, &f.CreatedAt)
		f.Severity = domain.Severity(sev)
		return f, err
	})
}

// MonitorRepository

func (db *DB) CreateMonitor(ctx context.Context, m domain.Monitor) error {
	status := m.Status
	if status == "" {
		status = domain.MonitorActive
	}
	_, err := db.Pool.Exec(ctx, `
        INSERT INTO domain_monitors (id, user_id, root_domain, status) VALUES ($1, $2, $3, $4)
    `, m.ID, m.OwnerID, m.RootDomain, string(status))
	return err
}

func (db *DB) GetMonitor(ctx context.Context, monitorID string) (domain.Monitor, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT id, user_id, root_domain, status, created_at FROM domain_monitors WHERE id = $1
    `, monitorID)
	if err != nil {
		return domain.Monitor{}, err
	}
	m, err := pgx.CollectExactlyOneRow(rows, scanMonitor)
	if errors.Is(err, pgx.ErrNoRows) {
		return m, ports.ErrNotFound
	}
	return m, err
}

func (db *DB) ListActiveMonitors(ctx context.Context) ([]domain.Monitor, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT id, user_id, root_domain, status, created_at
        FROM domain_monitors WHERE status = 'ACTIVE' ORDER BY created_at, id
    `)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanMonitor)
}

func scanMonitor(row pgx.CollectableRow) (domain.Monitor, error) {
	var m domain.Monitor
	var status string
	err := row.Scan(&m.ID, &m.OwnerID, &m.RootDomain, &status, &m.CreatedAt)
	m.Status = domain.MonitorStatus(status)
	return m, err
}

// AlertRepository

func (db *DB) SaveAlert(ctx context.Context, a domain.DomainAlert) error {
	_, err := db.Pool.Exec(ctx, `
        INSERT INTO domain_alerts (id, monitor_id, detected_domain, risk_level, reason, similarity_score, detected_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, a.ID, a.MonitorID, a.DetectedDomain, string(a.RiskLevel), a.Reason, a.SimilarityScore, a.DetectedAt)
	return err
}

func (db *DB) ListAlerts(ctx context.Context, monitorID string) ([]domain.DomainAlert, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT id, monitor_id, detected_domain, risk_level, reason, similarity_score, detected_at
        FROM domain_alerts WHERE monitor_id = $1 ORDER BY detected_at, id
    `, monitorID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.DomainAlert, error) {
		var a domain.DomainAlert
		var level string
		err := row.Scan(&a.ID, &a.MonitorID, &a.DetectedDomain, &level, &a.Reason, &a.SimilarityScore, &a.DetectedAt)
		a.RiskLevel = domain.RiskLevel(level)
		return a, err
	})
}
