// Package jobstate holds the scan lifecycle rules:
//
//	QUEUED -> RUNNING -> COMPLETED | FAILED
//
// RUNNING may be re-entered (redelivery of an in-flight job) and QUEUED may
// fail directly. COMPLETED and FAILED are terminal.
package jobstate

import (
	"errors"
	"fmt"
	"time"

	"securbot/internal/domain"
)

var (
	ErrTerminal          = errors.New("scan is in a terminal state")
	ErrIllegalTransition = errors.New("illegal scan transition")
)

var sources = map[domain.ScanStatus][]domain.ScanStatus{
	domain.ScanRunning:   {domain.ScanQueued, domain.ScanRunning},
	domain.ScanCompleted: {domain.ScanRunning},
	domain.ScanFailed:    {domain.ScanQueued, domain.ScanRunning},
}

// Sources lists the states a scan may be in for a move to `to` to apply.
// Storage adapters use it as the guard of their conditional update.
func Sources(to domain.ScanStatus) []domain.ScanStatus {
	return sources[to]
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to domain.ScanStatus) bool {
	for _, s := range sources[to] {
		if s == from {
			return true
		}
	}
	return false
}

// Transition is one requested status write together with the data recorded with it.
type Transition struct {
	To        domain.ScanStatus
	At        time.Time
	ReportRef string
	RiskScore *int
}

func Start(at time.Time) Transition {
	return Transition{To: domain.ScanRunning, At: at}
}

func Complete(at time.Time, score int, reportRef string) Transition {
	return Transition{To: domain.ScanCompleted, At: at, ReportRef: reportRef, RiskScore: &score}
}

func Fail(at time.Time) Transition {
	return Transition{To: domain.ScanFailed, At: at}
}

// Validate checks the payload matches the target state: only COMPLETED
// carries a score (required, 0-100) and a report reference.
func (t Transition) Validate() error {
	switch t.To {
	case domain.ScanCompleted:
		if t.RiskScore == nil {
			return fmt.Errorf("%w: completion without risk score", ErrIllegalTransition)
		}
		if *t.RiskScore < 0 || *t.RiskScore > 100 {
			return fmt.Errorf("%w: risk score %d out of range", ErrIllegalTransition, *t.RiskScore)
		}
	case domain.ScanRunning, domain.ScanFailed:
		if t.RiskScore != nil || t.ReportRef != "" {
			return fmt.Errorf("%w: %s carries completion data", ErrIllegalTransition, t.To)
		}
	default:
		return fmt.Errorf("%w: unknown target %q", ErrIllegalTransition, t.To)
	}
	return nil
}

// Apply performs t on s in memory. Re-entering RUNNING keeps the first start time.
func Apply(s *domain.Scan, t Transition) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if s.Status.Terminal() {
		return fmt.Errorf("%w: %s", ErrTerminal, s.Status)
	}
	if !CanTransition(s.Status, t.To) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, s.Status, t.To)
	}

	at := t.At
	s.Status = t.To
	switch t.To {
	case domain.ScanRunning:
		if s.StartedAt == nil {
			s.StartedAt = &at
		}
	case domain.ScanCompleted:
		score := *t.RiskScore
		s.CompletedAt = &at
		s.ReportRef = t.ReportRef
		s.RiskScore = &score
	case domain.ScanFailed:
		s.CompletedAt = &at
	}
	return nil
}
