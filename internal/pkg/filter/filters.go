package filter

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/JohnCGriffin/overflow" // Overflow-safe size sums
	"github.com/pkg/errors"            // Error wrapping

	"github.com/mintel/elasticsearch-curator/internal/pkg/action"        // Domains
	"github.com/mintel/elasticsearch-curator/internal/pkg/elasticsearch" // Field stats
	"github.com/mintel/elasticsearch-curator/internal/pkg/worklist"      // Working lists
	ctime "github.com/mintel/elasticsearch-curator/pkg/time"             // Units and timestrings
)

// KibanaIndices are the operational indices the kibana filter matches,
// besides any index named .kibana_*.
var KibanaIndices = []string{".kibana", ".marvel-kibana", "kibana-int", ".marvel-es-data"}

// gigabyte is the unit of disk_space.
const gigabyte = 1 << 30

// FieldStatter returns the range of a date field in an index.
// It is implemented by *elasticsearch.Query.
type FieldStatter interface {
	FieldStats(ctx context.Context, index, field string) (elasticsearch.FieldStats, error)
}

// env is what a filter can see besides the entries it is given.
type env struct {
	ctx   context.Context
	now   time.Time
	stats FieldStatter
}

// matcher reports which of entries a filter matches. Filters that rank
// entries need the whole list, so matching is done list at a time.
type matcher interface {
	match(e *env, entries []worklist.Entry) ([]bool, error)
}

// each adapts a per-entry predicate to a matcher.
type each func(worklist.Entry) bool

func (f each) match(_ *env, entries []worklist.Entry) ([]bool, error) {
	out := make([]bool, len(entries))
	for i, e := range entries {
		out[i] = f(e)
	}
	return out, nil
}

// compile validates d for domain and returns its matcher.
// The none filter compiles to a nil matcher.
func compile(d Descriptor, domain action.Domain) (matcher, error) {
	indicesOnly := func() error {
		if domain != action.Indices {
			return errors.Errorf("%s filter applies to indices only", d.FilterType)
		}
		return nil
	}

	switch d.FilterType {
	case TypeNone:
		return nil, nil

	case TypeKibana:
		return each(isKibana), nil

	case TypePattern:
		return compilePattern(d)

	case TypeAge:
		return compileAge(d, domain)

	case TypeSpace:
		if err := indicesOnly(); err != nil {
			return nil, err
		}
		if d.DiskSpace == nil || *d.DiskSpace <= 0 {
			return nil, errors.New("space filter needs a positive disk_space")
		}
		var limit int64 = math.MaxInt64
		if l := *d.DiskSpace * gigabyte; l < math.MaxInt64 {
			limit = int64(l)
		}
		return &spaceFilter{
			limit:   limit,
			reverse: boolOr(d.Reverse, true),
			useAge:  d.UseAge,
		}, nil

	case TypeOpened, TypeClosed:
		if err := indicesOnly(); err != nil {
			return nil, err
		}
		wantOpen := d.FilterType == TypeOpened
		return each(func(e worklist.Entry) bool { return e.Open == wantOpen }), nil

	case TypeState:
		state := d.State
		if state == "" {
			state = d.Value
		}
		if domain == action.Snapshots {
			state = strings.ToUpper(state)
			switch state {
			case "SUCCESS", "PARTIAL", "FAILED", "IN_PROGRESS":
			default:
				return nil, errors.Errorf("snapshot state must be SUCCESS, PARTIAL, FAILED or IN_PROGRESS, got %q", state)
			}
			return each(func(e worklist.Entry) bool { return e.State == state }), nil
		}
		switch state {
		case "open":
			return each(func(e worklist.Entry) bool { return e.Open }), nil
		case "close", "closed":
			return each(func(e worklist.Entry) bool { return !e.Open }), nil
		}
		return nil, errors.Errorf("index state must be open or close, got %q", state)

	case TypeForceMerged:
		if err := indicesOnly(); err != nil {
			return nil, err
		}
		if d.MaxNumSegments == nil || *d.MaxNumSegments < 1 {
			return nil, errors.New("forcemerged filter needs max_num_segments of at least 1")
		}
		max := *d.MaxNumSegments
		// Closed indices report no segments, so they never count as merged.
		return each(func(e worklist.Entry) bool {
			return e.Open && e.Shards > 0 && e.Segments <= max*e.Shards
		}), nil

	case TypeAlias:
		if err := indicesOnly(); err != nil {
			return nil, err
		}
		if len(d.Aliases) == 0 {
			return nil, errors.New("alias filter needs aliases")
		}
		want := make(map[string]bool, len(d.Aliases))
		for _, a := range d.Aliases {
			want[a] = true
		}
		return each(func(e worklist.Entry) bool {
			for _, a := range e.Aliases {
				if want[a] {
					return true
				}
			}
			return false
		}), nil

	case TypeCount:
		if d.Count == nil || *d.Count < 0 {
			return nil, errors.New("count filter needs a count of at least 0")
		}
		return &countFilter{count: *d.Count, reverse: boolOr(d.Reverse, true)}, nil
	}
	return nil, errors.Errorf("unknown filtertype %q", d.FilterType)
}

func isKibana(e worklist.Entry) bool {
	if strings.HasPrefix(e.Name, ".kibana_") {
		return true
	}
	for _, name := range KibanaIndices {
		if e.Name == name {
			return true
		}
	}
	return false
}

func compilePattern(d Descriptor) (matcher, error) {
	if d.Value == "" && d.Kind != "timestring" {
		return nil, errors.New("pattern filter needs a value")
	}
	switch d.Kind {
	case "prefix":
		return each(func(e worklist.Entry) bool { return strings.HasPrefix(e.Name, d.Value) }), nil
	case "suffix":
		return each(func(e worklist.Entry) bool { return strings.HasSuffix(e.Name, d.Value) }), nil
	case "regex":
		re, err := regexp.Compile(d.Value)
		if err != nil {
			return nil, errors.Wrap(err, "pattern filter has a bad regex")
		}
		return each(func(e worklist.Entry) bool { return re.MatchString(e.Name) }), nil
	case "timestring":
		pattern := d.Value
		if pattern == "" {
			pattern = d.Timestring
		}
		ts, err := ctime.NewTimestring(pattern)
		if err != nil {
			return nil, errors.Wrap(err, "pattern filter has a bad timestring")
		}
		return each(func(e worklist.Entry) bool { return ts.Match(e.Name) }), nil
	}
	return nil, errors.Errorf("pattern kind must be prefix, suffix, regex or timestring, got %q", d.Kind)
}

// Age sources.
const (
	SourceCreationDate = "creation_date"
	SourceName         = "name"
	SourceFieldStats   = "field_stats"
)

type ageFilter struct {
	source string
	older  bool
	span   time.Duration
	ts     *ctime.Timestring
	field  string
	useMax bool
	epoch  *time.Time
}

func compileAge(d Descriptor, domain action.Domain) (matcher, error) {
	f := &ageFilter{source: d.Source}
	switch d.Direction {
	case "older":
		f.older = true
	case "younger":
	default:
		return nil, errors.Errorf("age direction must be older or younger, got %q", d.Direction)
	}

	unit, err := ctime.ParseUnit(d.Unit)
	if err != nil {
		return nil, errors.Wrap(err, "age filter")
	}
	if d.UnitCount == nil {
		return nil, errors.New("age filter needs a unit_count")
	}
	f.span = unit.Duration(*d.UnitCount)

	switch d.Source {
	case SourceCreationDate:
	case SourceName:
		if f.ts, err = ctime.NewTimestring(d.Timestring); err != nil {
			return nil, errors.Wrap(err, "age filter with source name needs a timestring")
		}
	case SourceFieldStats:
		if domain != action.Indices {
			return nil, errors.New("age filter with source field_stats applies to indices only")
		}
		if d.Field == "" {
			return nil, errors.New("age filter with source field_stats needs a field")
		}
		f.field = d.Field
		switch d.StatsResult {
		case "", "min_value":
		case "max_value":
			f.useMax = true
		default:
			return nil, errors.Errorf("stats_result must be min_value or max_value, got %q", d.StatsResult)
		}
	default:
		return nil, errors.Errorf("age source must be creation_date, name or field_stats, got %q", d.Source)
	}

	if d.Epoch != nil {
		t := time.Unix(*d.Epoch, 0).UTC()
		f.epoch = &t
	}
	return f, nil
}

func (f *ageFilter) match(e *env, entries []worklist.Entry) ([]bool, error) {
	now := e.now
	if f.epoch != nil {
		now = *f.epoch
	}
	cutoff := now.Add(-f.span)

	out := make([]bool, len(entries))
	for i, entry := range entries {
		t, ok, err := f.timestamp(e, entry)
		if err != nil {
			return nil, err
		} else if !ok {
			continue // no derivable age
		}
		if f.older {
			out[i] = t.Before(cutoff)
		} else {
			out[i] = t.After(cutoff)
		}
	}
	return out, nil
}

func (f *ageFilter) timestamp(e *env, entry worklist.Entry) (time.Time, bool, error) {
	switch f.source {
	case SourceName:
		t, err := f.ts.Parse(entry.Name)
		return t, err == nil, nil
	case SourceFieldStats:
		if !entry.Open {
			return time.Time{}, false, nil
		}
		if e.stats == nil {
			return time.Time{}, false, errors.New("field_stats age filter used without a field stats source")
		}
		stats, err := e.stats.FieldStats(e.ctx, entry.Name, f.field)
		if err == elasticsearch.ErrNoFieldStats {
			return time.Time{}, false, nil
		} else if err != nil {
			return time.Time{}, false, errors.Wrapf(err, "getting field stats of %s", entry.Name)
		}
		if f.useMax {
			return stats.Max, true, nil
		}
		return stats.Min, true, nil
	}
	return entry.Created, !entry.Created.IsZero(), nil
}

// spaceFilter matches the entries past the point where their cumulative
// size exceeds limit.
type spaceFilter struct {
	limit   int64
	reverse bool
	useAge  bool
}

func (f *spaceFilter) match(_ *env, entries []worklist.Entry) ([]bool, error) {
	order := rank(entries, f.reverse, func(a, b worklist.Entry) bool {
		if f.useAge {
			return a.Created.Before(b.Created)
		}
		return a.SizeBytes < b.SizeBytes
	})

	out := make([]bool, len(entries))
	var total int64
	for _, i := range order {
		sum, ok := overflow.Add64(total, entries[i].SizeBytes)
		if !ok {
			sum = math.MaxInt64
		}
		total = sum
		out[i] = total > f.limit
	}
	return out, nil
}

// countFilter matches every entry but the first count, ranked by name.
type countFilter struct {
	count   int
	reverse bool
}

func (f *countFilter) match(_ *env, entries []worklist.Entry) ([]bool, error) {
	order := rank(entries, f.reverse, func(a, b worklist.Entry) bool { return a.Name < b.Name })
	out := make([]bool, len(entries))
	for k, i := range order {
		out[i] = k >= f.count
	}
	return out, nil
}

// rank returns the indexes of entries sorted by less, descending if
// reverse. Ties are broken by name so the order is deterministic.
func rank(entries []worklist.Entry, reverse bool, less func(a, b worklist.Entry) bool) []int {
	order := make([]int, len(entries))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(x, y int) bool {
		a, b := entries[order[x]], entries[order[y]]
		if reverse {
			a, b = b, a
		}
		if less(a, b) {
			return true
		} else if less(b, a) {
			return false
		}
		return a.Name < b.Name
	})
	return order
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
