//go:build integration

package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"securbot/internal/domain"
	"securbot/internal/jobstate"
	"securbot/internal/ports"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("SECURBOT_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("SECURBOT_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(ctx))
	return db
}

func TestIntegration_ScanLifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	scanID := uuid.NewString()
	asset := domain.Asset{ID: uuid.NewString(), OwnerID: "u1", Type: domain.AssetDomain, Value: "example.com"}
	require.NoError(t, db.CreateScan(ctx, asset, domain.Scan{ID: scanID, OwnerID: "u1", Type: "FULL"}))

	scan, err := db.GetScan(ctx, scanID)
	require.NoError(t, err)
	assert.Equal(t, domain.ScanQueued, scan.Status)
	assert.Equal(t, "example.com", scan.Target)

	now := time.Now().UTC().Truncate(time.Microsecond)
	ok, err := db.TransitionScan(ctx, scanID, jobstate.Start(now))
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, db.SaveFinding(ctx, domain.Finding{
		ID: uuid.NewString(), ScanID: scanID, Severity: domain.SeverityHigh,
		Title: "t", Description: "d", Remediation: "r", Fingerprint: "fp", CreatedAt: now,
	}))

	ok, err = db.TransitionScan(ctx, scanID, jobstate.Complete(now, 95, ""))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = db.TransitionScan(ctx, scanID, jobstate.Fail(now))
	require.NoError(t, err)
	assert.False(t, ok, "terminal scans ignore further transitions")

	scan, err = db.GetScan(ctx, scanID)
	require.NoError(t, err)
	assert.Equal(t, domain.ScanCompleted, scan.Status)
	require.NotNil(t, scan.RiskScore)
	assert.Equal(t, 95, *scan.RiskScore)
	assert.Empty(t, scan.ReportRef)

	fs, err := db.ListFindings(ctx, scanID)
	require.NoError(t, err)
	assert.Len(t, fs, 1)

	_, err = db.GetScan(ctx, "does-not-exist")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestIntegration_MonitorAlerts(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	monitorID := uuid.NewString()
	require.NoError(t, db.CreateMonitor(ctx, domain.Monitor{ID: monitorID, OwnerID: "u1", RootDomain: "bank-example.com"}))

	m, err := db.GetMonitor(ctx, monitorID)
	require.NoError(t, err)
	assert.Equal(t, domain.MonitorActive, m.Status)

	require.NoError(t, db.SaveAlert(ctx, domain.DomainAlert{
		ID: uuid.NewString(), MonitorID: monitorID, DetectedDomain: "bank-example1.com",
		RiskLevel: domain.RiskHigh, Reason: "Resolvable Typosquat", SimilarityScore: 94, DetectedAt: time.Now().UTC(),
	}))
	alerts, err := db.ListAlerts(ctx, monitorID)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, 94, alerts[0].SimilarityScore)
}

func TestIntegration_ClaimNextCommitsClaim(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	scanID := uuid.NewString()
	asset := domain.Asset{ID: uuid.NewString(), OwnerID: "u1", Type: domain.AssetDomain, Value: "claim.example.com"}
	require.NoError(t, db.CreateScan(ctx, asset, domain.Scan{ID: scanID, OwnerID: "u1", Type: "FULL"}))

	claimed := map[string]bool{}
	for {
		job, found, err := db.ClaimNext(ctx)
		require.NoError(t, err)
		if !found {
			break
		}
		require.False(t, claimed[job.ScanID], "scan %s claimed twice", job.ScanID)
		claimed[job.ScanID] = true
	}
	require.True(t, claimed[scanID])

	scan, err := db.GetScan(ctx, scanID)
	require.NoError(t, err)
	assert.Equal(t, domain.ScanRunning, scan.Status)
	assert.NotNil(t, scan.StartedAt)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	job, found, err := db.ClaimNext(cancelled)
	require.Error(t, err)
	assert.False(t, found)
	assert.Empty(t, job.ScanID)
}
