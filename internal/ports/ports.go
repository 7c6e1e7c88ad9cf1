package ports

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Scanner runs the external vulnerability scanner against target and leaves
// its JSONL output at outputPath. ctx carries the hard deadline.
type Scanner interface {
	Scan(ctx context.Context, target string, templates []string, outputPath string) error
}

// Resolver returns the A records of name. Failures are *LookupError.
type Resolver interface {
	LookupA(ctx context.Context, name string) ([]string, error)
}

// Registry returns the registry creation date of a domain. Failures are *LookupError.
type Registry interface {
	CreationDate(ctx context.Context, domain string) (time.Time, error)
}

// ArtifactStore uploads the file at path under key and returns its public reference.
type ArtifactStore interface {
	Upload(ctx context.Context, key, path string) (ref string, err error)
}

type LookupKind int

const (
	// LookupNotFound: NXDOMAIN, no records, or no registry data.
	LookupNotFound LookupKind = iota
	LookupTimeout
	// LookupServerFailure: the authority answered but could not serve the name (SERVFAIL, REFUSED).
	LookupServerFailure
	// LookupUnavailable: the signal source itself could not be reached or understood.
	LookupUnavailable
)

func (k LookupKind) String() string {
	switch k {
	case LookupNotFound:
		return "not found"
	case LookupTimeout:
		return "timeout"
	case LookupServerFailure:
		return "server failure"
	default:
		return "unavailable"
	}
}

// LookupError is the typed failure of a DNS or registry lookup.
type LookupError struct {
	Op   string
	Name string
	Kind LookupKind
	Err  error
}

func (e *LookupError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Name, e.Kind)
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Name, e.Kind, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// NoSignal reports whether the failure only means "nothing to report", as
// opposed to a broken signal source.
func (e *LookupError) NoSignal() bool { return e.Kind != LookupUnavailable }

// IsNoSignal reports whether err is a *LookupError that carries no signal.
func IsNoSignal(err error) bool {
	var le *LookupError
	return errors.As(err, &le) && le.NoSignal()
}
