package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"securbot/internal/domain"
	"securbot/internal/jobstate"
	"securbot/internal/ports"
)

// ClaimNext selects the oldest queued scan using SKIP LOCKED and marks it running.
func (db *DB) ClaimNext(ctx context.Context) (job ports.ScanJob, found bool, err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return job, false, err
	}
	defer func() {
		if err != nil || !found {
			_ = tx.Rollback(ctx)
			return
		}
		if err = tx.Commit(ctx); err != nil {
			job, found = ports.ScanJob{}, false
		}
	}()

	err = tx.QueryRow(ctx, `
        SELECT s.id, a.value, s.scan_type, s.user_id
        FROM scans s
        JOIN assets a ON a.id = s.asset_id
        WHERE s.status = 'QUEUED'
        ORDER BY s.created_at
        FOR UPDATE OF s SKIP LOCKED
        LIMIT 1
    `).Scan(&job.ScanID, &job.Target, &job.Type, &job.OwnerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return job, false, nil
	}
	if err != nil {
		return job, false, err
	}

	if _, err = tx.Exec(ctx, `
        UPDATE scans SET status='RUNNING', started_at=COALESCE(started_at, now()) WHERE id=$1
    `, job.ScanID); err != nil {
		return job, false, err
	}
	return job, true, nil
}

// TransitionScan writes t only while the scan is in one of jobstate.Sources(t.To).
// Redelivered jobs hit the guard and report applied=false.
func (db *DB) TransitionScan(ctx context.Context, scanID string, t jobstate.Transition) (bool, error) {
	if err := t.Validate(); err != nil {
		return false, err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	from := statusStrings(jobstate.Sources(t.To))
	var (
		tag pgconn.CommandTag
		err error
	)
	switch t.To {
	case domain.ScanRunning:
		tag, err = db.Pool.Exec(ctx, `
            UPDATE scans SET status=$2, started_at=COALESCE(started_at, $3)
            WHERE id=$1 AND status = ANY($4)
        `, scanID, string(t.To), t.At, from)
	case domain.ScanCompleted:
		tag, err = db.Pool.Exec(ctx, `
            UPDATE scans SET status=$2, completed_at=$3, report_url=NULLIF($5, ''), risk_score=$6
            WHERE id=$1 AND status = ANY($4)
        `, scanID, string(t.To), t.At, from, t.ReportRef, *t.RiskScore)
	case domain.ScanFailed:
		tag, err = db.Pool.Exec(ctx, `
            UPDATE scans SET status=$2, completed_at=$3
            WHERE id=$1 AND status = ANY($4)
        `, scanID, string(t.To), t.At, from)
	}
	if err != nil {
		return false, fmt.Errorf("transition scan %s to %s: %w", scanID, t.To, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (db *DB) GetScan(ctx context.Context, scanID string) (domain.Scan, error) {
	var (
		s         domain.Scan
		status    string
		assetID   *string
		target    *string
		reportRef *string
	)
	err := db.Pool.QueryRow(ctx, `
        SELECT s.id, s.user_id, s.asset_id, a.value, s.scan_type, s.status,
               s.created_at, s.started_at, s.completed_at, s.report_url, s.risk_score
        FROM scans s
        LEFT JOIN assets a ON a.id = s.asset_id
        WHERE s.id = $1
    `, scanID).Scan(&s.ID, &s.OwnerID, &assetID, &target, &s.Type, &status,
		&s.CreatedAt, &s.StartedAt, &s.CompletedAt, &reportRef, &s.RiskScore)
	if errors.Is(err, pgx.ErrNoRows) {
		return s, ports.ErrNotFound
	}
	if err != nil {
		return s, err
	}
	s.Status = domain.ScanStatus(status)
	s.AssetID = deref(assetID)
	s.Target = deref(target)
	s.ReportRef = deref(reportRef)
	return s, nil
}

// CreateScan inserts the asset and its QUEUED scan atomically.
func (db *DB) CreateScan(ctx context.Context, asset domain.Asset, scan domain.Scan) (err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `
        INSERT INTO assets (id, user_id, type, value) VALUES ($1, $2, $3, $4)
    `, asset.ID, asset.OwnerID, string(asset.Type), asset.Value); err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
        INSERT INTO scans (id, user_id, asset_id, scan_type, status)
        VALUES ($1, $2, $3, $4, 'QUEUED')
    `, scan.ID, scan.OwnerID, asset.ID, scan.Type)
	return err
}

func statusStrings(in []domain.ScanStatus) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
