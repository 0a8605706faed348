package action

import (
	"strings"
	"time"
)

// Defaults shared by several commands.
const (
	DefaultTimeout        = 6 * time.Hour
	DefaultSnapshotPrefix = "curator-"
	DefaultShrinkSuffix   = "-shrink"
	DefaultAllocationType = "require"
	DefaultRoutingType    = "allocation"
	DefaultRoutingSetting = "enable"
	DefaultMaxNumSegments = 2
)

// AliasOptions configures the Alias action.
type AliasOptions struct {
	Name   string // alias to add indices to
	Remove bool   // remove indices from the alias instead
}

// AllocationOptions configures the Allocation action, which sets
// index.routing.allocation.{type}.{key} = value.
type AllocationOptions struct {
	Key               string
	Value             string
	AllocationType    string // require, include, or exclude
	WaitForCompletion bool
	Timeout           time.Duration
}

// Setting returns the index setting name.
func (o AllocationOptions) Setting() string {
	return "index.routing.allocation." + o.AllocationType + "." + o.Key
}

// CloseOptions configures the Close action.
type CloseOptions struct {
	DeleteAliases bool
	SkipFlush     bool
}

// ClusterRoutingOptions configures the ClusterRouting action.
type ClusterRoutingOptions struct {
	RoutingType       string // allocation or rebalance
	Setting           string // only "enable" is supported
	Value             string
	WaitForCompletion bool
	Timeout           time.Duration
}

// SettingName returns the cluster setting name.
func (o ClusterRoutingOptions) SettingName() string {
	return "cluster.routing." + o.RoutingType + "." + o.Setting
}

// CreateIndexOptions configures the CreateIndex action.
type CreateIndexOptions struct {
	Name          string // strftime patterns are expanded
	ExtraSettings map[string]interface{}
}

// DeleteIndicesOptions configures the DeleteIndices action.
type DeleteIndicesOptions struct {
	MasterTimeout time.Duration
}

// ForceMergeOptions configures the ForceMerge action.
type ForceMergeOptions struct {
	MaxNumSegments int
	Delay          time.Duration // pause between indices
	Timeout        time.Duration
}

// IndexSettingsOptions configures the IndexSettings action.
type IndexSettingsOptions struct {
	IndexSettings     map[string]interface{}
	IgnoreUnavailable bool
	PreserveExisting  bool
}

// OpenOptions configures the Open action.
type OpenOptions struct {
	MasterTimeout time.Duration
}

// ReindexOptions configures the Reindex action.
type ReindexOptions struct {
	// RequestBody is sent as is, except that source.index is filled in
	// with the target indices when absent.
	RequestBody       map[string]interface{}
	Dest              string
	WaitForCompletion bool
	RequestsPerSecond float64
	Refresh           bool
	Slices            int
}

// ReplicasOptions configures the Replicas action.
type ReplicasOptions struct {
	Count             int
	WaitForCompletion bool
	Timeout           time.Duration
}

// RestoreOptions configures the Restore action.
type RestoreOptions struct {
	Repository         string
	Name               string // snapshot; the most recent successful one if empty
	Indices            []string
	RenamePattern      string
	RenameReplacement  string
	IncludeAliases     bool
	IncludeGlobalState bool
	Partial            bool
	IgnoreUnavailable  bool
	WaitForCompletion  bool
}

// RolloverOptions configures the Rollover action.
type RolloverOptions struct {
	Name          string // alias
	Conditions    map[string]interface{}
	NewIndex      string
	ExtraSettings map[string]interface{}
}

// ShrinkOptions configures the Shrink action.
type ShrinkOptions struct {
	ShrinkNode       string
	NumberOfShards   int
	NumberOfReplicas int
	ShrinkPrefix     string
	ShrinkSuffix     string
	DeleteAfter      bool
}

// Target returns the name of the shrunken copy of index.
func (o ShrinkOptions) Target(index string) string {
	return o.ShrinkPrefix + index + o.ShrinkSuffix
}

// SnapshotOptions configures the Snapshot action.
type SnapshotOptions struct {
	Repository         string
	Name               string // strftime patterns are expanded
	Partial            bool
	IgnoreUnavailable  bool
	IncludeGlobalState bool
	WaitForCompletion  bool
	Timeout            time.Duration
}

// DeleteSnapshotsOptions configures the DeleteSnapshots action.
type DeleteSnapshotsOptions struct {
	Repository string
}

// Decode returns the typed options for action, validated.
// The result is one of the *Options types in this package.
func Decode(action string, opts Options) (interface{}, error) {
	r := newReader(action, opts)
	var v interface{}
	switch action {
	case Alias:
		r.require("name")
		v = AliasOptions{
			Name:   r.string("name", ""),
			Remove: r.bool("remove", false),
		}
	case Allocation:
		o := AllocationOptions{
			Key:               r.string("key", ""),
			Value:             r.string("value", ""),
			AllocationType:    r.string("allocation_type", DefaultAllocationType),
			WaitForCompletion: r.bool("wait_for_completion", false),
			Timeout:           r.duration("timeout", DefaultTimeout),
		}
		if rule := r.string("rule", ""); rule != "" && o.Key == "" {
			parts := strings.SplitN(rule, "=", 2)
			if len(parts) != 2 || parts[0] == "" {
				r.fail("rule", "must look like key=value, got %q", rule)
			} else {
				o.Key, o.Value = parts[0], parts[1]
			}
		}
		if o.Key == "" {
			r.fail("key", "is required")
		}
		r.oneOf("allocation_type", o.AllocationType, "require", "include", "exclude")
		v = o
	case Close:
		v = CloseOptions{
			DeleteAliases: r.bool("delete_aliases", false),
			SkipFlush:     r.bool("skip_flush", false),
		}
	case ClusterRouting:
		r.require("value")
		o := ClusterRoutingOptions{
			RoutingType:       r.string("routing_type", DefaultRoutingType),
			Setting:           r.string("setting", DefaultRoutingSetting),
			Value:             r.string("value", ""),
			WaitForCompletion: r.bool("wait_for_completion", false),
			Timeout:           r.duration("timeout", DefaultTimeout),
		}
		r.oneOf("routing_type", o.RoutingType, "allocation", "rebalance")
		r.oneOf("setting", o.Setting, "enable")
		if o.RoutingType == "allocation" {
			r.oneOf("value", o.Value, "all", "primaries", "new_primaries", "none")
		} else {
			r.oneOf("value", o.Value, "all", "primaries", "replicas", "none")
		}
		v = o
	case CreateIndex:
		r.require("name")
		v = CreateIndexOptions{
			Name:          r.string("name", ""),
			ExtraSettings: r.object("extra_settings"),
		}
	case DeleteIndices:
		v = DeleteIndicesOptions{
			MasterTimeout: r.duration("master_timeout", 0),
		}
	case ForceMerge:
		o := ForceMergeOptions{
			MaxNumSegments: r.int("max_num_segments", DefaultMaxNumSegments),
			Delay:          r.duration("delay", 0),
			Timeout:        r.duration("timeout", DefaultTimeout),
		}
		if o.MaxNumSegments < 1 {
			r.fail("max_num_segments", "must be at least 1, got %d", o.MaxNumSegments)
		}
		v = o
	case IndexSettings:
		r.require("index_settings")
		v = IndexSettingsOptions{
			IndexSettings:     r.object("index_settings"),
			IgnoreUnavailable: r.bool("ignore_unavailable", false),
			PreserveExisting:  r.bool("preserve_existing", false),
		}
	case Open:
		v = OpenOptions{
			MasterTimeout: r.duration("master_timeout", 0),
		}
	case Reindex:
		o := ReindexOptions{
			RequestBody:       r.object("request_body"),
			Dest:              r.string("dest", ""),
			WaitForCompletion: r.bool("wait_for_completion", true),
			RequestsPerSecond: r.float("requests_per_second", -1),
			Refresh:           r.bool("refresh", true),
			Slices:            r.int("slices", 1),
		}
		if o.RequestBody == nil && o.Dest == "" {
			r.fail("dest", "or request_body is required")
		}
		v = o
	case Replicas:
		r.require("count")
		o := ReplicasOptions{
			Count:             r.int("count", 0),
			WaitForCompletion: r.bool("wait_for_completion", false),
			Timeout:           r.duration("timeout", DefaultTimeout),
		}
		if o.Count < 0 {
			r.fail("count", "must not be negative, got %d", o.Count)
		}
		v = o
	case Restore:
		r.require("repository")
		v = RestoreOptions{
			Repository:         r.string("repository", ""),
			Name:               r.string("name", ""),
			Indices:            r.strings("indices"),
			RenamePattern:      r.string("rename_pattern", ""),
			RenameReplacement:  r.string("rename_replacement", ""),
			IncludeAliases:     r.bool("include_aliases", false),
			IncludeGlobalState: r.bool("include_global_state", false),
			Partial:            r.bool("partial", false),
			IgnoreUnavailable:  r.bool("ignore_unavailable", false),
			WaitForCompletion:  r.bool("wait_for_completion", true),
		}
	case Rollover:
		r.require("name")
		v = RolloverOptions{
			Name:          r.string("name", ""),
			Conditions:    r.object("conditions"),
			NewIndex:      r.string("new_index", ""),
			ExtraSettings: r.object("extra_settings"),
		}
	case Shrink:
		r.require("shrink_node")
		o := ShrinkOptions{
			ShrinkNode:       r.string("shrink_node", ""),
			NumberOfShards:   r.int("number_of_shards", 1),
			NumberOfReplicas: r.int("number_of_replicas", 1),
			ShrinkPrefix:     r.string("shrink_prefix", ""),
			ShrinkSuffix:     r.string("shrink_suffix", DefaultShrinkSuffix),
			DeleteAfter:      r.bool("delete_after", true),
		}
		if o.NumberOfShards < 1 {
			r.fail("number_of_shards", "must be at least 1, got %d", o.NumberOfShards)
		}
		if o.ShrinkPrefix == "" && o.ShrinkSuffix == "" {
			r.fail("shrink_suffix", "or shrink_prefix must be set so the target differs from the source")
		}
		v = o
	case Snapshot:
		r.require("repository")
		name := r.string("name", "")
		if name == "" {
			name = r.string("prefix", DefaultSnapshotPrefix) + "%Y%m%d%H%M%S"
		}
		v = SnapshotOptions{
			Repository:         r.string("repository", ""),
			Name:               name,
			Partial:            r.bool("partial", false),
			IgnoreUnavailable:  r.bool("ignore_unavailable", false),
			IncludeGlobalState: r.bool("include_global_state", true),
			WaitForCompletion:  r.bool("wait_for_completion", true),
			Timeout:            r.duration("timeout", DefaultTimeout),
		}
	case DeleteSnapshots:
		r.require("repository")
		v = DeleteSnapshotsOptions{
			Repository: r.string("repository", ""),
		}
	default:
		return nil, &OptionError{Command: action, Key: "", Reason: "has no option decoder"}
	}
	if r.err != nil {
		return nil, r.err
	}
	return v, nil
}

// Validate checks opts can be decoded for d. Snapshot deletion takes its
// repository from each snapshot when the option is absent, so it is
// not required here.
func Validate(d Descriptor, opts Options) error {
	if d.Action == DeleteSnapshots && !opts.has("repository") {
		return nil
	}
	_, err := Decode(d.Action, opts)
	return err
}

func (o Options) has(key string) bool {
	_, ok := o[key]
	return ok
}
