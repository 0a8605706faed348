package action

import (
	"strings"
)

// Domain is the kind of entity a command acts on.
type Domain string

// Domains.
const (
	Indices   Domain = "indices"
	Snapshots Domain = "snapshots"
	Cluster   Domain = "cluster"
)

// Domains lists every known Domain.
var Domains = []Domain{Indices, Snapshots, Cluster}

// ParseDomain returns the Domain named s, or ErrInvalidDomain.
func ParseDomain(s string) (Domain, error) {
	d := Domain(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Domains {
		if d == known {
			return d, nil
		}
	}
	return "", &DomainError{Domain: s}
}

// HasEntities reports whether the domain has a working list.
// The cluster domain has none.
func (d Domain) HasEntities() bool {
	return d == Indices || d == Snapshots
}
