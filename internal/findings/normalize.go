// Package findings maps scanner JSONL records onto stored findings and scores them.
package findings

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"securbot/internal/domain"
)

const (
	DefaultTitle       = "Unknown Vulnerability"
	DefaultDescription = "No description provided"
	DefaultRemediation = "Check vendor documentation"
)

// RawFinding is one line of the scanner's JSONL output. Every field is
// optional; nil means the scanner did not emit it.
type RawFinding struct {
	TemplateID  *string `json:"template-id"`
	MatcherName *string `json:"matcher-name"`
	Host        *string `json:"host"`
	MatchedAt   *string `json:"matched-at"`
	Info        RawInfo `json:"info"`
}

type RawInfo struct {
	Name        *string `json:"name"`
	Severity    *string `json:"severity"`
	Description *string `json:"description"`
	Remediation *string `json:"remediation"`
}

// ParseLine decodes one output line. Blank and malformed lines report false.
func ParseLine(line []byte) (RawFinding, bool) {
	var raw RawFinding
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return raw, false
	}
	if err := json.Unmarshal(line, &raw); err != nil {
		return raw, false
	}
	return raw, true
}

// Normalize applies the storage defaults to raw. ID, ScanID and CreatedAt are
// left for the caller.
func Normalize(raw RawFinding) domain.Finding {
	return domain.Finding{
		Severity:    normalizeSeverity(raw.Info.Severity),
		Title:       valueOr(raw.Info.Name, DefaultTitle),
		Description: valueOr(raw.Info.Description, DefaultDescription),
		Remediation: valueOr(raw.Info.Remediation, DefaultRemediation),
		Fingerprint: valueOr(raw.MatcherName, uuid.NewString()),
	}
}

// Values outside the four stored severities (e.g. "info") are stored as LOW,
// which is also what they weigh.
func normalizeSeverity(s *string) domain.Severity {
	if s == nil {
		return domain.SeverityLow
	}
	sev := domain.Severity(strings.ToUpper(strings.TrimSpace(*s)))
	if !sev.Valid() {
		return domain.SeverityLow
	}
	return sev
}

func valueOr(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}
