package reports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"securbot/internal/adapters/memory"
	"securbot/internal/domain"
	"securbot/internal/jobstate"
)

func TestScan(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.CreateScan(ctx,
		domain.Asset{ID: "a-1", Type: domain.AssetDomain, Value: "https://example.com"},
		domain.Scan{ID: "s-1", Type: "FULL"}))
	require.NoError(t, store.SaveFinding(ctx, domain.Finding{ID: "f-1", ScanID: "s-1", Severity: domain.SeverityHigh}))

	svc := New(store)
	report, err := svc.Scan(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", report.Scan.Target)
	assert.Len(t, report.Findings, 1)
	assert.Zero(t, report.Score())

	now := time.Now().UTC()
	_, err = store.TransitionScan(ctx, "s-1", jobstate.Start(now))
	require.NoError(t, err)
	_, err = store.TransitionScan(ctx, "s-1", jobstate.Complete(now, 95, ""))
	require.NoError(t, err)

	report, err = svc.Scan(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, 95, report.Score())
}

func TestMonitor(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.CreateMonitor(ctx, domain.Monitor{ID: "m-1", RootDomain: "bank-example.com"}))
	require.NoError(t, store.SaveAlert(ctx, domain.DomainAlert{ID: "al-1", MonitorID: "m-1", DetectedDomain: "bank-example1.com"}))

	report, err := New(store).Monitor(ctx, "m-1")
	require.NoError(t, err)
	assert.Equal(t, "bank-example.com", report.Monitor.RootDomain)
	assert.Len(t, report.Alerts, 1)
}

func TestNotFound(t *testing.T) {
	svc := New(memory.New())
	_, err := svc.Scan(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Monitor(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
