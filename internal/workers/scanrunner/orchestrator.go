// Package scanrunner drives scan jobs end to end: scanner subprocess, findings
// normalization, scoring and the status transitions around them.
package scanrunner

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"securbot/internal/domain"
	"securbot/internal/findings"
	"securbot/internal/jobstate"
	"securbot/internal/ports"
)

const DefaultTimeout = 20 * time.Minute

// DefaultTemplates is the template set used for scan types without their own entry.
var DefaultTemplates = []string{"http/misconfiguration", "http/exposures"}

const maxLineSize = 4 << 20

type Options struct {
	// Timeout is the hard wall-clock budget of the scanner subprocess.
	Timeout time.Duration
	// WorkDir receives the scanner output file; os.TempDir() when empty.
	WorkDir string
	// Templates maps scan types to template sets.
	Templates map[string][]string
}

// Store is the storage an orchestrator needs.
type Store interface {
	ports.ScanRepository
	ports.FindingRepository
}

type Orchestrator struct {
	opts      Options
	store     Store
	machine   *jobstate.Machine
	scanner   ports.Scanner
	artifacts ports.ArtifactStore
	clock     clockwork.Clock
	log       *logrus.Entry
}

// New wires an orchestrator. artifacts may be nil when no report storage is configured.
func New(opts Options, store Store, scanner ports.Scanner, artifacts ports.ArtifactStore, clock clockwork.Clock, log *logrus.Entry) *Orchestrator {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.WorkDir == "" {
		opts.WorkDir = os.TempDir()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Orchestrator{
		opts:      opts,
		store:     store,
		machine:   jobstate.NewMachine(store, clock),
		scanner:   scanner,
		artifacts: artifacts,
		clock:     clock,
		log:       log,
	}
}

// Result summarises one invocation.
type Result struct {
	Status    domain.ScanStatus
	Findings  int
	Score     int
	ReportRef string
	// Skipped is set when the scan was unknown or already terminal.
	Skipped bool
	// FailureRecorded is set when the scan failed and FAILED was stored.
	FailureRecorded bool
}

// Process is Run for queue deliveries: a failure already stored as FAILED is
// handled, so only unrecorded outcomes surface as errors and trigger redelivery.
func (o *Orchestrator) Process(ctx context.Context, job ports.ScanJob) error {
	res, err := o.Run(ctx, job)
	if err != nil && res.FailureRecorded {
		return nil
	}
	return err
}

// Run processes job. It returns an error when the scan failed or its outcome
// could not be recorded; a redelivered terminal scan is a no-op.
func (o *Orchestrator) Run(ctx context.Context, job ports.ScanJob) (res Result, err error) {
	if err := job.Validate(); err != nil {
		return res, err
	}
	log := o.log.WithFields(logrus.Fields{"scan_id": job.ScanID, "target": job.Target, "type": job.Type})

	applied, err := o.machine.Start(ctx, job.ScanID)
	if err != nil {
		return res, fmt.Errorf("start scan %s: %w", job.ScanID, err)
	}
	if !applied {
		return o.skip(ctx, job, log)
	}
	log.Info("Starting scan")

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scan %s panicked: %v", job.ScanID, r)
		}
		if err != nil {
			res.Status = domain.ScanFailed
			log.WithError(err).Error("Scan failed")
			if _, ferr := o.machine.Fail(context.WithoutCancel(ctx), job.ScanID); ferr != nil {
				err = multierr.Append(err, fmt.Errorf("mark failed: %w", ferr))
			} else {
				res.FailureRecorded = true
			}
		}
	}()

	out, err := o.execute(ctx, job, log)
	if err != nil {
		return res, err
	}
	res = out

	applied, err = o.machine.Complete(ctx, job.ScanID, res.Score, res.ReportRef)
	if err != nil {
		return res, fmt.Errorf("complete scan %s: %w", job.ScanID, err)
	}
	if !applied {
		log.Warn("Scan left RUNNING before completion was recorded")
	}
	res.Status = domain.ScanCompleted
	log.WithFields(logrus.Fields{"findings": res.Findings, "score": res.Score}).Info("Scan finished")
	return res, nil
}

func (o *Orchestrator) skip(ctx context.Context, job ports.ScanJob, log *logrus.Entry) (Result, error) {
	scan, err := o.store.GetScan(ctx, job.ScanID)
	if errors.Is(err, ports.ErrNotFound) {
		log.Warn("Dropping job for unknown scan")
		return Result{Skipped: true}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("load scan %s: %w", job.ScanID, err)
	}
	log.WithField("status", scan.Status).Info("Scan already finished, ignoring redelivery")
	return Result{Status: scan.Status, Skipped: true}, nil
}

// execute covers scanner, artifact upload and findings; any error fails the scan.
func (o *Orchestrator) execute(ctx context.Context, job ports.ScanJob, log *logrus.Entry) (Result, error) {
	var res Result
	outputPath := filepath.Join(o.opts.WorkDir, job.ScanID+".json")
	defer os.Remove(outputPath)

	scanCtx, cancel := context.WithTimeout(ctx, o.opts.Timeout)
	err := o.scanner.Scan(scanCtx, job.Target, o.templates(job.Type), outputPath)
	cancel()
	if err != nil {
		return res, fmt.Errorf("scanner: %w", err)
	}

	res.ReportRef = o.upload(ctx, job.ScanID, outputPath, log)

	stored, err := o.collect(ctx, job.ScanID, outputPath, log)
	if err != nil {
		return res, err
	}
	res.Findings = len(stored)
	res.Score = findings.Score(stored)
	return res, nil
}

func (o *Orchestrator) templates(scanType string) []string {
	if t, ok := o.opts.Templates[scanType]; ok && len(t) > 0 {
		return t
	}
	return DefaultTemplates
}

// upload is best effort: a failure leaves the report reference empty.
func (o *Orchestrator) upload(ctx context.Context, scanID, path string, log *logrus.Entry) string {
	if o.artifacts == nil {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	ref, err := o.artifacts.Upload(ctx, "reports/"+scanID+".json", path)
	if err != nil {
		log.WithError(err).Warn("Report upload failed")
		return ""
	}
	return ref
}

// collect reads the scanner output, skipping malformed lines, and persists one
// finding per well-formed line. A missing output file means no findings.
func (o *Orchestrator) collect(ctx context.Context, scanID, path string, log *logrus.Entry) ([]domain.Finding, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open scanner output: %w", err)
	}
	defer f.Close()

	var stored []domain.Finding
	r := bufio.NewReaderSize(f, 64*1024)
	line := 0
	for {
		raw, tooLong, rerr := readLine(r, maxLineSize)
		if len(raw) > 0 || tooLong {
			line++
			if tooLong {
				log.WithField("line", line).Debug("Skipping oversized scanner line")
			} else if finding, ok := o.parse(scanID, raw); !ok {
				log.WithField("line", line).Debug("Skipping malformed scanner line")
			} else {
				if err := o.store.SaveFinding(ctx, finding); err != nil {
					return stored, fmt.Errorf("save finding (line %d): %w", line, err)
				}
				stored = append(stored, finding)
			}
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return stored, fmt.Errorf("read scanner output: %w", rerr)
		}
	}
	return stored, nil
}

func (o *Orchestrator) parse(scanID string, raw []byte) (domain.Finding, bool) {
	parsed, ok := findings.ParseLine(bytes.TrimRight(raw, "\r\n"))
	if !ok {
		return domain.Finding{}, false
	}
	finding := findings.Normalize(parsed)
	finding.ID = uuid.NewString()
	finding.ScanID = scanID
	finding.CreatedAt = o.clock.Now().UTC()
	return finding, true
}

// readLine returns the next line including its newline. A line longer than max
// is consumed to its end and reported as tooLong with no content.
func readLine(r *bufio.Reader, max int) (line []byte, tooLong bool, err error) {
	for {
		chunk, rerr := r.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(chunk) > max {
				tooLong = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}
		if errors.Is(rerr, bufio.ErrBufferFull) {
			continue
		}
		return line, tooLong, rerr
	}
}
