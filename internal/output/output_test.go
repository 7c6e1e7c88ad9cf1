package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"securbot/internal/domain"
)

func TestWriteFindings_SimpleTableOrdersBySeverity(t *testing.T) {
	var buf bytes.Buffer
	WriteFindings(&buf, []domain.Finding{
		{Severity: domain.SeverityLow, Title: "Missing header", Fingerprint: "x-frame"},
		{Severity: domain.SeverityCritical, Title: "RCE", Fingerprint: "rce"},
		{Severity: domain.SeverityMedium, Title: "Directory listing", Fingerprint: "dirlist"},
	}, true)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "Severity"))
	assert.True(t, strings.HasPrefix(lines[2], "CRITICAL"))
	assert.True(t, strings.HasPrefix(lines[3], "MEDIUM"))
	assert.True(t, strings.HasPrefix(lines[4], "LOW"))
}

func TestWriteFindings_Empty(t *testing.T) {
	var buf bytes.Buffer
	WriteFindings(&buf, nil, false)
	assert.Contains(t, buf.String(), "No findings.")
}

func TestWriteAlerts_Styled(t *testing.T) {
	var buf bytes.Buffer
	WriteAlerts(&buf, []domain.DomainAlert{
		{RiskLevel: domain.RiskHigh, DetectedDomain: "bank-example1.com", SimilarityScore: 94, Reason: "Resolvable Typosquat"},
		{RiskLevel: domain.RiskMedium, DetectedDomain: "bank-example.com", Reason: "Newly Registered Domain (10 days)"},
	}, false)

	out := buf.String()
	assert.Contains(t, out, "bank-example1.com")
	assert.Contains(t, out, "94")
	assert.Contains(t, out, "Newly Registered Domain (10 days)")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, ScanSummary{ScanID: "s-1", Status: "COMPLETED", RiskScore: 89}))

	var back map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, "COMPLETED", back["status"])
	assert.EqualValues(t, 89, back["risk_score"])
	assert.NotContains(t, back, "report_ref")
}

func TestWriteScanSummary_NoColor(t *testing.T) {
	var buf bytes.Buffer
	WriteScanSummary(&buf, ScanSummary{Target: "https://example.com", Status: "COMPLETED", RiskScore: 75}, true)
	assert.Contains(t, buf.String(), "Risk score: 75/100 (0 findings)")
	assert.NotContains(t, buf.String(), "\033[")
}
