// Package output renders scan findings and monitor alerts for the terminal.
package output

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"securbot/internal/domain"
)

var severityRank = map[domain.Severity]int{
	domain.SeverityCritical: 0,
	domain.SeverityHigh:     1,
	domain.SeverityMedium:   2,
	domain.SeverityLow:      3,
}

var severityColor = map[string]lipgloss.Color{
	"CRITICAL": lipgloss.Color("196"),
	"HIGH":     lipgloss.Color("208"),
	"MEDIUM":   lipgloss.Color("220"),
	"LOW":      lipgloss.Color("250"),
}

// WriteFindings renders findings, most severe first.
func WriteFindings(w io.Writer, findings []domain.Finding, noColor bool) {
	if len(findings) == 0 {
		fmt.Fprintln(w, "\nNo findings.")
		return
	}

	sorted := append([]domain.Finding(nil), findings...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return severityRank[sorted[i].Severity] < severityRank[sorted[j].Severity]
	})

	var rows [][]string
	for _, f := range sorted {
		rows = append(rows, []string{
			string(f.Severity),
			truncate(f.Title, 40),
			truncate(f.Fingerprint, 30),
			truncate(f.Remediation, 40),
		})
	}
	render(w, []string{"Severity", "Title", "Fingerprint", "Remediation"}, rows, noColor)
}

// WriteAlerts renders domain alerts in detection order.
func WriteAlerts(w io.Writer, alerts []domain.DomainAlert, noColor bool) {
	if len(alerts) == 0 {
		fmt.Fprintln(w, "\nNo look-alike domains detected.")
		return
	}

	var rows [][]string
	for _, a := range alerts {
		similarity := "-"
		if a.SimilarityScore > 0 {
			similarity = strconv.Itoa(a.SimilarityScore)
		}
		rows = append(rows, []string{string(a.RiskLevel), a.DetectedDomain, similarity, a.Reason})
	}
	render(w, []string{"Risk", "Domain", "Similarity", "Reason"}, rows, noColor)
}

// render expects the first column of every row to be a severity or risk level.
func render(w io.Writer, headers []string, rows [][]string, noColor bool) {
	fmt.Fprintln(w)

	if noColor {
		writeSimpleTable(w, headers, rows)
		return
	}

	t := table.New().
		Headers(headers...).
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
			}
			if col == 0 && row >= 0 && row < len(rows) {
				if c, ok := severityColor[rows[row][0]]; ok {
					return lipgloss.NewStyle().Bold(true).Foreground(c)
				}
			}
			return lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
		})

	for _, row := range rows {
		t.Row(row...)
	}

	fmt.Fprintln(w, t.Render())
}

func writeSimpleTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				fmt.Fprint(w, " | ")
			}
			fmt.Fprintf(w, "%-*s", widths[i], cell)
		}
		fmt.Fprintln(w)
	}

	writeRow(headers)
	for i, width := range widths {
		if i > 0 {
			fmt.Fprint(w, "-+-")
		}
		fmt.Fprint(w, strings.Repeat("-", width))
	}
	fmt.Fprintln(w)
	for _, row := range rows {
		writeRow(row)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
