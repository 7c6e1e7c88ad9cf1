package ports

import (
	"context"
	"strings"

	"securbot/internal/domain"
)

// ScanJob is the queue payload that dispatches one scan.
type ScanJob struct {
	ScanID  string `json:"scan_id"`
	Target  string `json:"target"`
	Type    string `json:"type"`
	OwnerID string `json:"user_id"`
}

// Validate trims the job, fills the default scan type and reports missing fields.
func (j *ScanJob) Validate() error {
	j.ScanID = strings.TrimSpace(j.ScanID)
	j.Target = strings.TrimSpace(j.Target)
	if j.ScanID == "" {
		return errString("scan job: missing scan_id")
	}
	if j.Target == "" {
		return errString("scan job: missing target")
	}
	if j.Type == "" {
		j.Type = domain.DefaultScanType
	}
	return nil
}

// MonitorJob is the queue payload that dispatches one monitoring run.
type MonitorJob struct {
	MonitorID string `json:"monitor_id"`
	Domain    string `json:"domain"`
	OwnerID   string `json:"user_id"`
}

func (j *MonitorJob) Validate() error {
	j.MonitorID = strings.TrimSpace(j.MonitorID)
	j.Domain = strings.ToLower(strings.TrimSpace(j.Domain))
	if j.MonitorID == "" {
		return errString("monitor job: missing monitor_id")
	}
	if j.Domain == "" {
		return errString("monitor job: missing domain")
	}
	return nil
}

// JobRepository supports pull-mode dispatch: claiming queued scans directly from storage.
type JobRepository interface {
	// ClaimNext moves the oldest QUEUED scan to RUNNING and returns it.
	ClaimNext(ctx context.Context) (job ScanJob, found bool, err error)
}
