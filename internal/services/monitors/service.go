// Package monitors creates domain monitors.
package monitors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"

	"securbot/internal/domain"
	"securbot/internal/ports"
)

var ErrInvalidDomain = errors.New("invalid root domain")

type Service struct {
	monitors ports.MonitorCreator
	now      func() time.Time
}

func New(monitors ports.MonitorCreator) *Service {
	return &Service{monitors: monitors, now: time.Now}
}

// Create registers an ACTIVE monitor for rootDomain and returns the job payload to publish.
// The domain must have a public suffix and at least one label in front of it.
func (s *Service) Create(ctx context.Context, ownerID, rootDomain string) (ports.MonitorJob, error) {
	root := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(rootDomain)), ".")
	if _, err := publicsuffix.EffectiveTLDPlusOne(root); err != nil {
		return ports.MonitorJob{}, fmt.Errorf("%w: %q", ErrInvalidDomain, rootDomain)
	}
	m := domain.Monitor{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		RootDomain: root,
		Status:     domain.MonitorActive,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.monitors.CreateMonitor(ctx, m); err != nil {
		return ports.MonitorJob{}, fmt.Errorf("create monitor: %w", err)
	}
	return ports.MonitorJob{MonitorID: m.ID, Domain: root, OwnerID: ownerID}, nil
}
