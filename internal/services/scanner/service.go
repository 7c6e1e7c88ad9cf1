package scanner

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"securbot/internal/domain"
	"securbot/internal/ports"
)

var ErrInvalidTarget = errors.New("invalid scan target")

type Service struct {
	scans ports.ScanCreator
	now   func() time.Time
}

func New(scans ports.ScanCreator) *Service {
	return &Service{scans: scans, now: time.Now}
}

// Enqueue records the target, as given, as an asset and a QUEUED scan against it, and
// returns the job payload to publish.
func (s *Service) Enqueue(ctx context.Context, ownerID, target, scanType string) (ports.ScanJob, error) {
	target = strings.TrimSpace(target)
	u, err := url.Parse(withScheme(target))
	if err != nil || u.Hostname() == "" {
		return ports.ScanJob{}, fmt.Errorf("%w: %q", ErrInvalidTarget, target)
	}
	if scanType == "" {
		scanType = domain.DefaultScanType
	}
	scanType = strings.ToUpper(scanType)

	asset := domain.Asset{ID: uuid.NewString(), OwnerID: ownerID, Type: domain.AssetDomain, Value: target}
	scan := domain.Scan{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Target:    target,
		Type:      scanType,
		Status:    domain.ScanQueued,
		CreatedAt: s.now().UTC(),
	}
	if err := s.scans.CreateScan(ctx, asset, scan); err != nil {
		return ports.ScanJob{}, fmt.Errorf("create scan: %w", err)
	}
	return ports.ScanJob{ScanID: scan.ID, Target: target, Type: scanType, OwnerID: ownerID}, nil
}

// withScheme lets bare hosts validate; the stored target is not rewritten.
func withScheme(target string) string {
	if strings.Contains(target, "://") {
		return target
	}
	return "https://" + target
}
