// Package risk grades typosquat signals for a monitored domain.
package risk

import (
	"fmt"
	"time"

	"securbot/internal/domain"
)

// NewDomainWindow is the registration age under which a root domain is flagged.
const NewDomainWindow = 30 * 24 * time.Hour

const ReasonResolvable = "Resolvable Typosquat"

// Assessment is one classified signal, ready to become a domain alert.
type Assessment struct {
	Domain     string
	Level      domain.RiskLevel
	Reason     string
	Similarity int
}

// ClassifyResolution flags a candidate that resolved to at least one address.
// The root itself never fires.
func ClassifyResolution(root, candidate string, addrs []string) (Assessment, bool) {
	if candidate == root || len(addrs) == 0 {
		return Assessment{}, false
	}
	return Assessment{
		Domain:     candidate,
		Level:      domain.RiskHigh,
		Reason:     ReasonResolvable,
		Similarity: Similarity(root, candidate),
	}, true
}

// ClassifyRegistration flags a root domain registered less than NewDomainWindow before now.
// A zero creation date means the registry had none and never fires.
func ClassifyRegistration(root string, created, now time.Time) (Assessment, bool) {
	if created.IsZero() {
		return Assessment{}, false
	}
	age := now.Sub(created)
	if age >= NewDomainWindow {
		return Assessment{}, false
	}
	days := max(0, int(age/(24*time.Hour)))
	return Assessment{
		Domain: root,
		Level:  domain.RiskMedium,
		Reason: fmt.Sprintf("Newly Registered Domain (%d days)", days),
	}, true
}
