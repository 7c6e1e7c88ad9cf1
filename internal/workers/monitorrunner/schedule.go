package monitorrunner

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"securbot/internal/domain"
	"securbot/internal/ports"
)

// MonitorProcessor runs one monitoring pass.
type MonitorProcessor interface {
	Process(ctx context.Context, job ports.MonitorJob) error
}

// ActiveMonitors lists the monitors the scheduler re-runs.
type ActiveMonitors interface {
	ListActiveMonitors(ctx context.Context) ([]domain.Monitor, error)
}

// Schedule re-runs every ACTIVE monitor each interval until ctx is cancelled.
// Status is re-read on every tick, so paused monitors drop out without a restart.
func Schedule(ctx context.Context, repo ActiveMonitors, processor MonitorProcessor, interval time.Duration, clock clockwork.Clock, log *logrus.Entry) {
	if interval <= 0 {
		return
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	ticker := clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			RunActive(ctx, repo, processor, log)
		}
	}
}

// RunActive performs one pass over all ACTIVE monitors and returns how many were processed.
func RunActive(ctx context.Context, repo ActiveMonitors, processor MonitorProcessor, log *logrus.Entry) int {
	monitors, err := repo.ListActiveMonitors(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.WithError(err).Error("list active monitors")
		}
		return 0
	}
	n := 0
	for _, m := range monitors {
		if ctx.Err() != nil {
			break
		}
		job := ports.MonitorJob{MonitorID: m.ID, Domain: m.RootDomain, OwnerID: m.OwnerID}
		if err := processor.Process(ctx, job); err != nil {
			log.WithField("monitor_id", m.ID).WithError(err).Error("scheduled monitor run failed")
		}
		n++
	}
	return n
}
