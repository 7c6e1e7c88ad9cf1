package httpadapter

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"securbot/internal/adapters/logger"
	"securbot/internal/adapters/memory"
	"securbot/internal/domain"
	"securbot/internal/ports"
	"securbot/internal/workers/scanrunner"
)

type scanFunc func(context.Context, ports.ScanJob) error

func (f scanFunc) Process(ctx context.Context, job ports.ScanJob) error { return f(ctx, job) }

type monitorFunc func(context.Context, ports.MonitorJob) error

func (f monitorFunc) Process(ctx context.Context, job ports.MonitorJob) error { return f(ctx, job) }

func envelope(payload string) string {
	data := base64.StdEncoding.EncodeToString([]byte(payload))
	return `{"message":{"data":"` + data + `","messageId":"m-1"},"subscription":"projects/p/subscriptions/s"}`
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv := New(Options{}, nil, nil, logger.Discard())
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestPushScan(t *testing.T) {
	var got ports.ScanJob
	srv := New(Options{}, scanFunc(func(_ context.Context, job ports.ScanJob) error {
		got = job
		return nil
	}), nil, logger.Discard())

	rec := post(t, srv.Routes(), "/push/scans", envelope(`{"scan_id":"s-1","target":"https://example.com","user_id":"u-1"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.Equal(t, ports.ScanJob{ScanID: "s-1", Target: "https://example.com", Type: "FULL", OwnerID: "u-1"}, got)
}

func TestPushMonitor(t *testing.T) {
	var got ports.MonitorJob
	srv := New(Options{}, nil, monitorFunc(func(_ context.Context, job ports.MonitorJob) error {
		got = job
		return nil
	}), logger.Discard())

	rec := post(t, srv.Routes(), "/push/monitors", envelope(`{"monitor_id":"m-1","domain":"Bank-Example.com","user_id":"u-1"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bank-example.com", got.Domain)
}

func TestPush_BoundaryErrors(t *testing.T) {
	called := false
	srv := New(Options{}, scanFunc(func(context.Context, ports.ScanJob) error {
		called = true
		return nil
	}), nil, logger.Discard())

	tests := []struct {
		name string
		body string
	}{
		{"not json", `hello`},
		{"no data", `{"message":{}}`},
		{"bad base64", `{"message":{"data":"***"}}`},
		{"payload not json", envelope(`not-json`)},
		{"missing scan id", envelope(`{"target":"https://example.com"}`)},
		{"missing target", envelope(`{"scan_id":"s-1"}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, srv.Routes(), "/push/scans", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.False(t, called)
}

// An error from the processor means the outcome was not recorded.
func TestPush_UnrecordedFailureIs5xx(t *testing.T) {
	srv := New(Options{}, scanFunc(func(context.Context, ports.ScanJob) error {
		return errors.New("database unavailable")
	}), nil, logger.Discard())

	rec := post(t, srv.Routes(), "/push/scans", envelope(`{"scan_id":"s-1","target":"https://example.com"}`))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPush_JobContextIsDetached(t *testing.T) {
	var done <-chan struct{}
	srv := New(Options{}, scanFunc(func(ctx context.Context, _ ports.ScanJob) error {
		done = ctx.Done()
		return nil
	}), nil, logger.Discard())

	rec := post(t, srv.Routes(), "/push/scans", envelope(`{"scan_id":"s-1","target":"https://example.com"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, done, "job context must not be cancelled with the request")
}

func TestPush_SaturatedReturns503(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	srv := New(Options{MaxConcurrentJobs: 1, AcquireTimeout: 20 * time.Millisecond},
		scanFunc(func(context.Context, ports.ScanJob) error {
			once.Do(func() { close(started) })
			<-release
			return nil
		}), nil, logger.Discard())
	h := srv.Routes()
	body := envelope(`{"scan_id":"s-1","target":"https://example.com"}`)

	first := make(chan int)
	go func() { first <- post(t, h, "/push/scans", body).Code }()
	<-started

	rec := post(t, h, "/push/scans", body)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	close(release)
	assert.Equal(t, http.StatusOK, <-first)
}

func TestRoutes_NilProcessorUnmounted(t *testing.T) {
	srv := New(Options{}, nil, monitorFunc(func(context.Context, ports.MonitorJob) error { return nil }), logger.Discard())
	rec := post(t, srv.Routes(), "/push/scans", envelope(`{"scan_id":"s-1","target":"https://example.com"}`))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type exitingScanner struct{}

func (exitingScanner) Scan(context.Context, string, []string, string) error {
	return errors.New("scanner nuclei exited with code 2")
}

func TestPushScan_RecordedFailureIsAcked(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.CreateScan(ctx,
		domain.Asset{ID: "a-1", Type: domain.AssetDomain, Value: "https://example.com"},
		domain.Scan{ID: "s-1", Type: domain.DefaultScanType}))
	scans := scanrunner.New(scanrunner.Options{WorkDir: t.TempDir()}, store, exitingScanner{}, nil, nil, logger.Discard())
	srv := New(Options{}, scans, nil, logger.Discard())

	rec := post(t, srv.Routes(), "/push/scans", envelope(`{"scan_id":"s-1","target":"https://example.com"}`))
	assert.Equal(t, http.StatusOK, rec.Code)

	scan, err := store.GetScan(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ScanFailed, scan.Status)
}
