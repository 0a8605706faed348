// Package filter narrows working lists with an ordered chain of filters.
package filter

import (
	"context"
	"fmt"

	"go.uber.org/zap" // Logging

	"github.com/mintel/elasticsearch-curator/internal/pkg/action"   // Domains and command names
	"github.com/mintel/elasticsearch-curator/internal/pkg/worklist" // Working lists
	"github.com/mintel/elasticsearch-curator/pkg/ctxlog"            // Logger from context
)

// NoMatchError is returned by Chain.Select when nothing is left to act on.
type NoMatchError struct {
	Domain  action.Domain
	Options map[string]interface{} // the raw options of the invocation
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no %s matched provided args: %v", e.Domain, e.Options)
}

// destructive lists the normalized commands that get kibana protection.
var destructive = map[string]bool{
	"delete":        true,
	"deleteindices": true,
}

// Chain applies filter specs to working lists.
type Chain struct {
	stats FieldStatter
}

// NewChain returns a Chain. stats is used by age filters with source
// field_stats and may be nil if none are used.
func NewChain(stats FieldStatter) *Chain {
	return &Chain{stats: stats}
}

// Apply returns a copy of wl narrowed by each filter of spec in turn.
// Every filter is compiled before any is applied, so a bad spec is a
// *ConfigurationError with wl untouched. An empty spec returns wl's entries
// unchanged.
func (c *Chain) Apply(ctx context.Context, wl *worklist.WorkingList, spec Spec) (*worklist.WorkingList, error) {
	logger := ctxlog.L(ctx).Named("Chain.Apply")

	matchers := make([]matcher, len(spec))
	for i, d := range spec {
		m, err := compile(d, wl.Domain)
		if err != nil {
			return nil, &ConfigurationError{Source: fmt.Sprintf("filter %d (%s)", i, d.FilterType), Err: err}
		}
		matchers[i] = m
	}

	out := wl.Clone()
	e := &env{ctx: ctx, now: wl.Taken, stats: c.stats}
	for i, m := range matchers {
		if m == nil {
			continue
		}
		d := spec[i]
		matched, err := m.match(e, out.Entries)
		if err != nil {
			logger.Error("error applying filter", zap.Stringer("filter", d), zap.Error(err))
			return nil, err
		}
		exclude := d.excluded()
		removed := out.Retain(func(j int, _ worklist.Entry) bool {
			return matched[j] != exclude
		})
		logger.Debug("applied filter",
			zap.Stringer("filter", d),
			zap.Int("removed", removed),
			zap.Int("remaining", out.Len()),
		)
	}
	return out, nil
}

// Protect returns a copy of wl without kibana's operational indices if
// command is destructive, or wl itself otherwise.
func Protect(ctx context.Context, wl *worklist.WorkingList, command string) *worklist.WorkingList {
	if wl.Domain != action.Indices || !destructive[action.Normalize(command)] {
		return wl
	}
	out := wl.Clone()
	removed := out.Retain(func(_ int, e worklist.Entry) bool { return !isKibana(e) })
	ctxlog.L(ctx).Named("Protect").Info("pruned kibana-related indices to prevent accidental deletion",
		zap.Int("removed", removed),
	)
	return out
}

// Select narrows wl for command in the one supported order: kibana
// protection, then spec, then the emptiness check. An empty result is
// a *NoMatchError carrying raw.
func (c *Chain) Select(ctx context.Context, wl *worklist.WorkingList, command string, spec Spec, raw map[string]interface{}) (*worklist.WorkingList, error) {
	out, err := c.Apply(ctx, Protect(ctx, wl, command), spec)
	if err != nil {
		return nil, err
	}
	if out.Len() == 0 {
		return nil, &NoMatchError{Domain: wl.Domain, Options: raw}
	}
	return out, nil
}
