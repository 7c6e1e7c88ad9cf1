// Package monitorrunner runs one typosquat monitoring pass for a root domain:
// permutation, DNS resolution, registration age and alert persistence.
package monitorrunner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"securbot/internal/domain"
	"securbot/internal/permute"
	"securbot/internal/ports"
	"securbot/internal/risk"
)

const (
	DefaultLookupConcurrency = 8
	DefaultLookupTimeout     = 2 * time.Second
	DefaultRegistryTimeout   = 10 * time.Second
)

type Options struct {
	LookupConcurrency int
	LookupTimeout     time.Duration
	RegistryTimeout   time.Duration
}

// Store is the storage a monitor run needs.
type Store interface {
	ports.MonitorRepository
	ports.AlertRepository
}

type Orchestrator struct {
	opts     Options
	store    Store
	resolver ports.Resolver
	registry ports.Registry
	clock    clockwork.Clock
	log      *logrus.Entry
}

func New(opts Options, store Store, resolver ports.Resolver, registry ports.Registry, clock clockwork.Clock, log *logrus.Entry) *Orchestrator {
	if opts.LookupConcurrency < 1 {
		opts.LookupConcurrency = DefaultLookupConcurrency
	}
	if opts.LookupTimeout <= 0 {
		opts.LookupTimeout = DefaultLookupTimeout
	}
	if opts.RegistryTimeout <= 0 {
		opts.RegistryTimeout = DefaultRegistryTimeout
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Orchestrator{opts: opts, store: store, resolver: resolver, registry: registry, clock: clock, log: log}
}

// Report summarises one monitoring pass.
type Report struct {
	MonitorID  string
	RootDomain string
	Candidates int
	Alerts     []domain.DomainAlert
	// Skipped is set when the monitor was unknown or not ACTIVE.
	Skipped bool
}

func (o *Orchestrator) Process(ctx context.Context, job ports.MonitorJob) error {
	_, err := o.Run(ctx, job)
	return err
}

// Run performs one pass. Lookup failures never fail the run; only alert
// persistence errors are returned.
func (o *Orchestrator) Run(ctx context.Context, job ports.MonitorJob) (Report, error) {
	if err := job.Validate(); err != nil {
		return Report{}, err
	}
	log := o.log.WithField("monitor_id", job.MonitorID)
	report := Report{MonitorID: job.MonitorID, RootDomain: job.Domain}

	monitor, err := o.store.GetMonitor(ctx, job.MonitorID)
	if errors.Is(err, ports.ErrNotFound) {
		log.Warn("Dropping job for unknown monitor")
		report.Skipped = true
		return report, nil
	}
	if err != nil {
		return report, fmt.Errorf("load monitor %s: %w", job.MonitorID, err)
	}
	if monitor.Status != domain.MonitorActive {
		log.WithField("status", monitor.Status).Info("Monitor not active, skipping")
		report.Skipped = true
		return report, nil
	}
	if monitor.RootDomain != "" {
		report.RootDomain = monitor.RootDomain
	}
	root := report.RootDomain
	log = log.WithField("domain", root)

	candidates := permute.Generate(root)
	report.Candidates = len(candidates)
	log.WithField("candidates", len(candidates)).Info("Starting monitoring pass")

	hits := make([]*risk.Assessment, len(candidates))
	var registration *risk.Assessment

	// Lookup goroutines never return errors so one failure cannot cancel the rest.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.LookupConcurrency + 1)
	g.Go(func() error {
		registration = o.checkRegistration(gctx, root, log)
		return nil
	})
	for i, candidate := range candidates {
		if candidate == root {
			continue
		}
		g.Go(func() error {
			hits[i] = o.checkCandidate(gctx, root, candidate, log)
			return nil
		})
	}
	_ = g.Wait()

	var errs error
	now := o.clock.Now().UTC()
	persist := func(a risk.Assessment) {
		alert := domain.DomainAlert{
			ID:              uuid.NewString(),
			MonitorID:       job.MonitorID,
			DetectedDomain:  a.Domain,
			RiskLevel:       a.Level,
			Reason:          a.Reason,
			SimilarityScore: a.Similarity,
			DetectedAt:      now,
		}
		if err := o.store.SaveAlert(ctx, alert); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("save alert for %s: %w", a.Domain, err))
			return
		}
		report.Alerts = append(report.Alerts, alert)
		log.WithFields(logrus.Fields{"detected": a.Domain, "risk": a.Level}).Warn(a.Reason)
	}
	for _, hit := range hits {
		if hit != nil {
			persist(*hit)
		}
	}
	if registration != nil {
		persist(*registration)
	}

	log.WithField("alerts", len(report.Alerts)).Info("Monitoring pass finished")
	return report, errs
}

func (o *Orchestrator) checkCandidate(ctx context.Context, root, candidate string, log *logrus.Entry) *risk.Assessment {
	lookupCtx, cancel := context.WithTimeout(ctx, o.opts.LookupTimeout)
	defer cancel()
	addrs, err := o.resolver.LookupA(lookupCtx, candidate)
	if err != nil {
		logLookupError(log.WithField("candidate", candidate), err, "DNS lookup")
		return nil
	}
	a, ok := risk.ClassifyResolution(root, candidate, addrs)
	if !ok {
		return nil
	}
	return &a
}

func (o *Orchestrator) checkRegistration(ctx context.Context, root string, log *logrus.Entry) *risk.Assessment {
	lookupCtx, cancel := context.WithTimeout(ctx, o.opts.RegistryTimeout)
	defer cancel()
	created, err := o.registry.CreationDate(lookupCtx, root)
	if err != nil {
		logLookupError(log, err, "Registry lookup")
		return nil
	}
	a, ok := risk.ClassifyRegistration(root, created, o.clock.Now())
	if !ok {
		return nil
	}
	return &a
}

func logLookupError(log *logrus.Entry, err error, what string) {
	if ports.IsNoSignal(err) {
		log.WithError(err).Debug(what + ": no signal")
		return
	}
	log.WithError(err).Warn(what + " failed")
}
