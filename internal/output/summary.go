package output

import (
	"fmt"
	"io"

	"securbot/internal/domain"
)

// ScanSummary is what a one-shot scan reports.
type ScanSummary struct {
	ScanID    string           `json:"scan_id"`
	Target    string           `json:"target"`
	Status    string           `json:"status"`
	RiskScore int              `json:"risk_score"`
	ReportRef string           `json:"report_ref,omitempty"`
	Findings  []domain.Finding `json:"findings"`
}

// MonitorSummary is what a one-shot monitoring pass reports.
type MonitorSummary struct {
	MonitorID  string               `json:"monitor_id"`
	RootDomain string               `json:"root_domain"`
	Candidates int                  `json:"candidates"`
	Alerts     []domain.DomainAlert `json:"alerts"`
}

func WriteScanSummary(w io.Writer, s ScanSummary, noColor bool) {
	fmt.Fprintln(w)
	label := "%s %s\n"
	if !noColor {
		label = "\033[1m%s\033[0m %s\n"
	}
	fmt.Fprintf(w, label, "Target:", s.Target)
	fmt.Fprintf(w, label, "Status:", s.Status)
	fmt.Fprintf(w, label, "Risk score:", fmt.Sprintf("%d/100 (%d findings)", s.RiskScore, len(s.Findings)))
	if s.ReportRef != "" {
		fmt.Fprintf(w, label, "Report:", s.ReportRef)
	}
}

func WriteMonitorSummary(w io.Writer, s MonitorSummary, noColor bool) {
	fmt.Fprintln(w)
	label := "%s %s\n"
	if !noColor {
		label = "\033[1m%s\033[0m %s\n"
	}
	fmt.Fprintf(w, label, "Domain:", s.RootDomain)
	fmt.Fprintf(w, label, "Candidates:", fmt.Sprintf("%d checked, %d alerts", s.Candidates, len(s.Alerts)))
}
