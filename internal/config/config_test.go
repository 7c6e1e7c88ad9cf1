package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load("")
	assert.ErrorIs(t, err, ErrNoDatabase)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 20*time.Minute, cfg.Scanner.Timeout)
	assert.Equal(t, 2*time.Second, cfg.DNSTimeout)
	assert.Equal(t, []string{"http/misconfiguration", "http/exposures"}, cfg.Scanner.Templates["FULL"])
	assert.Zero(t, cfg.ScanWorkers)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "securbot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen_addr: ":9090"
database_url: postgres://file/db
scan_workers: 2
monitor_interval: 6h
scanner:
  bin: /opt/nuclei
  timeout: 5m
  templates:
    QUICK: [http/technologies]
report_bucket: ${TEST_BUCKET}
`), 0o600))
	t.Setenv("TEST_BUCKET", "reports-dev")
	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("SCAN_TIMEOUT", "90s")
	t.Setenv("LISTEN_ADDR", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "postgres://env/db", cfg.DatabaseURL)
	assert.Equal(t, 2, cfg.ScanWorkers)
	assert.Equal(t, 6*time.Hour, cfg.MonitorInterval)
	assert.Equal(t, "/opt/nuclei", cfg.Scanner.Bin)
	assert.Equal(t, 90*time.Second, cfg.Scanner.Timeout)
	assert.Equal(t, []string{"http/technologies"}, cfg.Scanner.Templates["QUICK"])
	assert.Equal(t, "reports-dev", cfg.ReportBucket)
}

func TestLoad_BadValuesKeepDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("SCAN_WORKERS", "many")
	t.Setenv("DNS_TIMEOUT", "soon")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Zero(t, cfg.ScanWorkers)
	assert.Equal(t, 2*time.Second, cfg.DNSTimeout)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
