package action

import (
	"sort"
	"strings"
)

// Action identifiers. Most are derived from the command name by ActionID;
// they are listed here so executors can switch on them.
const (
	Alias           = "Alias"
	Allocation      = "Allocation"
	Close           = "Close"
	ClusterRouting  = "ClusterRouting"
	CreateIndex     = "CreateIndex"
	DeleteIndices   = "DeleteIndices"
	ForceMerge      = "ForceMerge"
	IndexSettings   = "IndexSettings"
	Open            = "Open"
	Reindex         = "Reindex"
	Replicas        = "Replicas"
	Restore         = "Restore"
	Rollover        = "Rollover"
	Shrink          = "Shrink"
	Snapshot        = "Snapshot"
	DeleteSnapshots = "DeleteSnapshots"
)

// Descriptor describes a resolved command.
type Descriptor struct {
	// Domain the command belongs to.
	Domain Domain

	// Command is the normalized command name, e.g. "deleteindices".
	Command string

	// Action is the action identifier, e.g. "DeleteIndices".
	Action string

	// Keys are the option keys the action accepts, sorted.
	Keys []string
}

// Accepts reports whether key is an accepted option key.
func (d Descriptor) Accepts(key string) bool {
	i := sort.SearchStrings(d.Keys, key)
	return i < len(d.Keys) && d.Keys[i] == key
}

// String implements fmt.Stringer.
func (d Descriptor) String() string {
	return string(d.Domain) + " " + d.Command
}

// entry is a row of a domain's command table.
type entry struct {
	// Separator-delimited canonical name, e.g. "delete-indices".
	name string

	// Other accepted spellings.
	aliases []string

	// Overrides the identifier derived from name.
	action string

	keys []string
}

var (
	waitKeys     = []string{"wait_for_completion", "timeout"}
	snapshotKeys = []string{
		"name", "prefix", "repository", "partial", "ignore_unavailable",
		"include_global_state", "wait_for_completion", "timeout",
	}
	clusterRoutingKeys = append([]string{"routing_type", "setting", "value"}, waitKeys...)
)

var tables = map[Domain][]entry{
	Indices: {
		{name: "alias", keys: []string{"name", "remove"}},
		{name: "allocation", keys: append([]string{"key", "value", "allocation_type", "rule"}, waitKeys...)},
		{name: "close", keys: []string{"delete_aliases", "skip_flush"}},
		{name: "cluster-routing", keys: clusterRoutingKeys},
		{name: "create-index", keys: []string{"name", "extra_settings"}},
		{name: "delete-indices", aliases: []string{"delete"}, keys: []string{"master_timeout"}},
		{name: "force-merge", aliases: []string{"optimize"}, keys: []string{"max_num_segments", "delay", "timeout"}},
		{name: "index-settings", keys: []string{"index_settings", "ignore_unavailable", "preserve_existing"}},
		{name: "open", keys: []string{"master_timeout"}},
		{name: "reindex", keys: []string{"request_body", "dest", "wait_for_completion", "requests_per_second", "refresh", "slices"}},
		{name: "replicas", keys: append([]string{"count"}, waitKeys...)},
		{name: "restore", keys: []string{
			"repository", "name", "indices", "rename_pattern", "rename_replacement",
			"include_aliases", "include_global_state", "partial", "ignore_unavailable",
			"wait_for_completion",
		}},
		{name: "rollover", keys: []string{"name", "conditions", "new_index", "extra_settings"}},
		{name: "shrink", keys: []string{
			"shrink_node", "number_of_shards", "number_of_replicas",
			"shrink_prefix", "shrink_suffix", "delete_after",
		}},
		{name: "snapshot", keys: snapshotKeys},
	},
	Snapshots: {
		{name: "snapshot", keys: snapshotKeys},
		{name: "delete", aliases: []string{"delete-snapshots"}, action: DeleteSnapshots, keys: []string{"repository"}},
	},
	Cluster: {
		{name: "cluster-routing", keys: clusterRoutingKeys},
	},
}

// Registry resolves commands. It is immutable once built and
// safe for concurrent use.
type Registry struct {
	byDomain map[Domain]map[string]Descriptor
	commands map[Domain][]string
}

// Default is the registry of every supported command.
var Default = NewRegistry()

// NewRegistry builds a Registry from the command tables.
// It panics if two spellings collide within a domain.
func NewRegistry() *Registry {
	r := &Registry{
		byDomain: make(map[Domain]map[string]Descriptor, len(tables)),
		commands: make(map[Domain][]string, len(tables)),
	}
	for domain, entries := range tables {
		m := make(map[string]Descriptor)
		for _, e := range entries {
			keys := append([]string(nil), e.keys...)
			sort.Strings(keys)
			d := Descriptor{
				Domain:  domain,
				Command: Normalize(e.name),
				Action:  e.action,
				Keys:    keys,
			}
			if d.Action == "" {
				d.Action = ActionID(e.name)
			}
			for _, spelling := range append([]string{e.name}, e.aliases...) {
				n := Normalize(spelling)
				if _, dup := m[n]; dup {
					panic("action: duplicate command " + n + " in " + string(domain))
				}
				m[n] = d
			}
			r.commands[domain] = append(r.commands[domain], d.Command)
		}
		sort.Strings(r.commands[domain])
		r.byDomain[domain] = m
	}
	return r
}

// Resolve returns the Descriptor for command in domain.
// Command spellings are compared after Normalize.
func (r *Registry) Resolve(domain Domain, command string) (Descriptor, error) {
	m, ok := r.byDomain[domain]
	if !ok {
		return Descriptor{}, &DomainError{Domain: string(domain)}
	}
	d, ok := m[Normalize(command)]
	if !ok {
		return Descriptor{}, &UnsupportedCommandError{Domain: domain, Command: command}
	}
	return d, nil
}

// Commands returns the normalized names of the commands in domain, sorted.
func (r *Registry) Commands(domain Domain) []string {
	return append([]string(nil), r.commands[domain]...)
}

// Normalize lower-cases a command name and strips separators, so that
// "delete-indices", "delete_indices" and "DeleteIndices" are equal.
func Normalize(command string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || r == '_' || r == ' ' {
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(command)))
}

// ActionID derives an action identifier from a separator-delimited
// command name by title-casing each word: "delete-indices" is "DeleteIndices".
func ActionID(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	var sb strings.Builder
	for _, w := range words {
		sb.WriteString(strings.ToUpper(w[:1]))
		sb.WriteString(strings.ToLower(w[1:]))
	}
	return sb.String()
}
