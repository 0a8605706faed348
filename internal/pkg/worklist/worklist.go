// Package worklist builds the working list of one curator invocation:
// every index or snapshot in the cluster, with the metadata filters need.
package worklist

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap" // Logging

	"github.com/mintel/elasticsearch-curator/internal/pkg/action"        // Domains
	"github.com/mintel/elasticsearch-curator/internal/pkg/elasticsearch" // Elasticsearch queries
	"github.com/mintel/elasticsearch-curator/pkg/ctxlog"                 // Logger from context
)

// Entry is one index or snapshot.
type Entry struct {
	Name    string
	Created time.Time // creation time, or snapshot start time

	// Indices only.
	Open      bool
	SizeBytes int64
	Shards    int
	Segments  int
	Aliases   []string

	// Snapshots only.
	Repository string
	State      string
	Indices    []string
}

// WorkingList is an ordered list of entries of one domain, as they were
// when the list was built. It is never refreshed.
type WorkingList struct {
	Domain  action.Domain
	Entries []Entry
	Taken   time.Time // when the list was built
}

// New returns a WorkingList of entries.
func New(domain action.Domain, taken time.Time, entries ...Entry) *WorkingList {
	return &WorkingList{Domain: domain, Entries: entries, Taken: taken}
}

// Len returns the number of entries.
func (wl *WorkingList) Len() int {
	return len(wl.Entries)
}

// Names returns the entry names, in order.
func (wl *WorkingList) Names() []string {
	names := make([]string, len(wl.Entries))
	for i, e := range wl.Entries {
		names[i] = e.Name
	}
	return names
}

// CSV returns the entry names joined with commas.
func (wl *WorkingList) CSV() string {
	return strings.Join(wl.Names(), ",")
}

// Clone returns a copy of wl that can be narrowed without changing wl.
func (wl *WorkingList) Clone() *WorkingList {
	c := *wl
	c.Entries = append([]Entry(nil), wl.Entries...)
	return &c
}

// Retain removes the entries for which keep returns false, preserving
// order, and returns how many were removed.
func (wl *WorkingList) Retain(keep func(i int, e Entry) bool) int {
	kept := wl.Entries[:0]
	for i, e := range wl.Entries {
		if keep(i, e) {
			kept = append(kept, e)
		}
	}
	removed := len(wl.Entries) - len(kept)
	// Clear the tail so dropped entries can be collected.
	for i := len(kept); i < len(wl.Entries); i++ {
		wl.Entries[i] = Entry{}
	}
	wl.Entries = kept
	return removed
}

// Source lists the entities of a cluster.
// It is implemented by *elasticsearch.Query.
type Source interface {
	Indices(ctx context.Context) ([]elasticsearch.Index, error)
	Snapshots(ctx context.Context, repos ...string) ([]elasticsearch.Snapshot, error)
}

// Builder builds working lists.
type Builder struct {
	source Source
	now    func() time.Time
}

// NewBuilder returns a new Builder.
func NewBuilder(source Source) *Builder {
	return &Builder{source: source, now: time.Now}
}

// Build returns every entity of domain currently in the cluster.
// Domains without entities, such as cluster, are an *action.DomainError.
func (b *Builder) Build(ctx context.Context, domain action.Domain) (*WorkingList, error) {
	logger := ctxlog.L(ctx).Named("Builder.Build").With(zap.String("domain", string(domain)))
	taken := b.now().UTC()

	switch domain {
	case action.Indices:
		logger.Debug("listing indices")
		indices, err := b.source.Indices(ctx)
		if err != nil {
			return nil, err
		}
		wl := New(domain, taken, make([]Entry, 0, len(indices))...)
		for _, i := range indices {
			wl.Entries = append(wl.Entries, Entry{
				Name:      i.Name,
				Created:   i.Created,
				Open:      i.Open,
				SizeBytes: i.SizeBytes,
				Shards:    i.Shards,
				Segments:  i.Segments,
				Aliases:   i.Aliases,
			})
		}
		logger.Debug("listed indices", zap.Int("count", wl.Len()))
		return wl, nil

	case action.Snapshots:
		logger.Debug("listing snapshots")
		snapshots, err := b.source.Snapshots(ctx)
		if err != nil {
			return nil, err
		}
		wl := New(domain, taken, make([]Entry, 0, len(snapshots))...)
		for _, s := range snapshots {
			wl.Entries = append(wl.Entries, Entry{
				Name:       s.Name,
				Created:    s.Started,
				Repository: s.Repository,
				State:      s.State,
				Indices:    s.Indices,
			})
		}
		logger.Debug("listed snapshots", zap.Int("count", wl.Len()))
		return wl, nil
	}

	logger.Error("domain has no working list")
	return nil, &action.DomainError{Domain: string(domain)}
}
