package action

import (
	"errors"
	"fmt"
)

// ErrInvalidDomain is the cause of every DomainError.
var ErrInvalidDomain = errors.New("invalid domain")

// ErrNotImplemented is returned for commands that are declared but
// cannot be carried out yet, such as cluster routing on the cluster domain.
var ErrNotImplemented = errors.New("not implemented")

// DomainError is returned when a domain name is not recognized.
type DomainError struct {
	Domain string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %q (expected one of %v)", ErrInvalidDomain, e.Domain, Domains)
}

// Cause returns ErrInvalidDomain, for github.com/pkg/errors.
func (e *DomainError) Cause() error {
	return ErrInvalidDomain
}

// Is makes errors.Is(err, ErrInvalidDomain) true.
func (e *DomainError) Is(target error) bool {
	return target == ErrInvalidDomain
}

// UnsupportedCommandError is returned when a command is not registered
// for a domain.
type UnsupportedCommandError struct {
	Domain  Domain
	Command string
}

func (e *UnsupportedCommandError) Error() string {
	return fmt.Sprintf("unsupported command %q for %s", e.Command, e.Domain)
}

// OptionError is returned when an option value can't be used by a command.
type OptionError struct {
	Command string
	Key     string
	Reason  string
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("%s: option %q %s", e.Command, e.Key, e.Reason)
}
