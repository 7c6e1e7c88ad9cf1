// Package whois looks up domain creation dates from the registries.
package whois

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"
	"golang.org/x/net/publicsuffix"

	"securbot/internal/ports"
)

const DefaultTimeout = 10 * time.Second

// Registry satisfies ports.Registry.
type Registry struct {
	query func(domain string) (string, error)
}

func New(timeout time.Duration) *Registry {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := whois.NewClient().SetTimeout(timeout)
	return &Registry{query: func(domain string) (string, error) { return client.Whois(domain) }}
}

// CreationDate queries WHOIS for the registrable part (eTLD+1) of domain.
func (r *Registry) CreationDate(ctx context.Context, domain string) (time.Time, error) {
	registrable, err := publicsuffix.EffectiveTLDPlusOne(strings.ToLower(strings.TrimSuffix(domain, ".")))
	if err != nil {
		registrable = domain
	}

	type answer struct {
		raw string
		err error
	}
	ch := make(chan answer, 1)
	go func() {
		raw, err := r.query(registrable)
		ch <- answer{raw, err}
	}()

	var raw string
	select {
	case <-ctx.Done():
		return time.Time{}, &ports.LookupError{Op: "whois", Name: registrable, Kind: ports.LookupTimeout, Err: ctx.Err()}
	case a := <-ch:
		if a.err != nil {
			return time.Time{}, &ports.LookupError{Op: "whois", Name: registrable, Kind: ports.LookupUnavailable, Err: a.err}
		}
		raw = a.raw
	}
	return parseCreationDate(registrable, raw)
}

func parseCreationDate(name, raw string) (time.Time, error) {
	info, err := whoisparser.Parse(raw)
	if err != nil {
		kind := ports.LookupUnavailable
		if errors.Is(err, whoisparser.ErrNotFoundDomain) {
			kind = ports.LookupNotFound
		}
		return time.Time{}, &ports.LookupError{Op: "whois", Name: name, Kind: kind, Err: err}
	}
	if info.Domain == nil || strings.TrimSpace(info.Domain.CreatedDate) == "" {
		return time.Time{}, &ports.LookupError{Op: "whois", Name: name, Kind: ports.LookupNotFound}
	}
	created, err := ParseDate(info.Domain.CreatedDate)
	if err != nil {
		return time.Time{}, &ports.LookupError{Op: "whois", Name: name, Kind: ports.LookupNotFound, Err: err}
	}
	return created, nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02-Jan-2006",
	"2006.01.02",
	"2006/01/02",
	"02.01.2006",
}

// ParseDate accepts the creation-date spellings registries commonly use.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}
