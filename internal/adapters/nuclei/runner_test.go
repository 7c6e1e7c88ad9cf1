package nuclei

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-scanner.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestArgs(t *testing.T) {
	got := Args("example.com", []string{"http/misconfiguration", "http/exposures"}, "/tmp/s1.json")
	assert.Equal(t, []string{
		"-target", "example.com", "-json", "-o", "/tmp/s1.json", "-silent",
		"-t", "http/misconfiguration", "-t", "http/exposures",
	}, got)
}

func TestScan_WritesOutput(t *testing.T) {
	script := writeScript(t, `
out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "-o" ]; then out="$2"; fi
  shift
done
printf '%s\n' '{"info":{"severity":"high"}}' > "$out"
`)
	out := filepath.Join(t.TempDir(), "s1.json")

	err := New(script).Scan(context.Background(), "example.com", []string{"http/exposures"}, out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"severity":"high"`)
}

func TestScan_NonZeroExit(t *testing.T) {
	script := writeScript(t, "echo 'template load failed' >&2\nexit 3\n")

	err := New(script).Scan(context.Background(), "example.com", nil, filepath.Join(t.TempDir(), "o.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exited with code 3")
	assert.Contains(t, err.Error(), "template load failed")
}

func TestScan_Timeout(t *testing.T) {
	script := writeScript(t, "exec sleep 10\n")
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := New(script).Scan(ctx, "example.com", nil, filepath.Join(t.TempDir(), "o.json"))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 8*time.Second)
}

func TestScan_MissingBinary(t *testing.T) {
	err := New(filepath.Join(t.TempDir(), "nope")).Scan(context.Background(), "example.com", nil, "o.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error running scanner")
}
