package domain

import "time"

// Core domain models shared by the orchestrators, the storage adapters and the
// push receiver. Field sets mirror the persisted tables.

type ScanStatus string

const (
	ScanQueued    ScanStatus = "QUEUED"
	ScanRunning   ScanStatus = "RUNNING"
	ScanCompleted ScanStatus = "COMPLETED"
	ScanFailed    ScanStatus = "FAILED"
)

// Terminal reports whether no further transition may leave s.
func (s ScanStatus) Terminal() bool {
	return s == ScanCompleted || s == ScanFailed
}

type MonitorStatus string

const (
	MonitorActive    MonitorStatus = "ACTIVE"
	MonitorPaused    MonitorStatus = "PAUSED"
	MonitorCancelled MonitorStatus = "CANCELLED"
)

type AssetType string

const AssetDomain AssetType = "DOMAIN"

type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Valid reports whether s is one of the four stored severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// RiskLevel grades a domain alert. It shares the severity scale.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// DefaultScanType is used when a scan request does not name one.
const DefaultScanType = "FULL"

type Asset struct {
	ID      string
	OwnerID string
	Type    AssetType
	Value   string
}

type Scan struct {
	ID          string
	OwnerID     string
	AssetID     string
	Target      string
	Type        string
	Status      ScanStatus
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	ReportRef   string
	RiskScore   *int
}

type Finding struct {
	ID          string    `json:"id"`
	ScanID      string    `json:"scan_id"`
	Severity    Severity  `json:"severity"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Remediation string    `json:"remediation"`
	Fingerprint string    `json:"fingerprint"`
	CreatedAt   time.Time `json:"created_at"`
}

type Monitor struct {
	ID         string
	OwnerID    string
	RootDomain string
	Status     MonitorStatus
	CreatedAt  time.Time
}

type DomainAlert struct {
	ID              string    `json:"id"`
	MonitorID       string    `json:"monitor_id"`
	DetectedDomain  string    `json:"detected_domain"`
	RiskLevel       RiskLevel `json:"risk_level"`
	Reason          string    `json:"reason"`
	SimilarityScore int       `json:"similarity_score"`
	DetectedAt      time.Time `json:"detected_at"`
}
