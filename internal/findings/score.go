package findings

import "securbot/internal/domain"

// Weight is the penalty one finding of severity s takes off the risk score.
func Weight(s domain.Severity) int {
	switch s {
	case domain.SeverityCritical:
		return 10
	case domain.SeverityHigh:
		return 5
	case domain.SeverityMedium:
		return 2
	default:
		return 1
	}
}

// Score is 100 minus the summed weights, floored at 0.
func Score(findings []domain.Finding) int {
	total := 0
	for _, f := range findings {
		total += Weight(f.Severity)
	}
	return max(0, 100-total)
}
