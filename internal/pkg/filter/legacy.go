package filter

import (
	"github.com/mintel/elasticsearch-curator/internal/pkg/action" // Command names
)

// Legacy holds the discrete filter flags that predate filter specs.
// The zero value selects everything.
type Legacy struct {
	Prefix         string
	Suffix         string
	Regex          string
	OlderThan      int // in TimeUnit; 0 is unset
	NewerThan      int // in TimeUnit; 0 is unset
	TimeUnit       string
	Timestring     string // age is read from names if set, else from creation dates
	DiskSpace      float64
	Reverse        *bool
	ClosedOnly     bool
	OpenedOnly     bool
	MaxNumSegments int // already merged indices are excluded
}

// IsZero reports whether no legacy flag is set.
func (l Legacy) IsZero() bool {
	return l.Prefix == "" && l.Suffix == "" && l.Regex == "" &&
		l.OlderThan == 0 && l.NewerThan == 0 && l.Timestring == "" && l.DiskSpace == 0 &&
		!l.ClosedOnly && !l.OpenedOnly && l.MaxNumSegments == 0
}

// Spec converts the flags into a Spec in a fixed order: pattern, age,
// state, forcemerged, then space. The space filter is only used by
// destructive commands.
func (l Legacy) Spec(command string) Spec {
	var spec Spec
	pattern := func(kind, value string) {
		if value != "" {
			spec = append(spec, Descriptor{FilterType: TypePattern, Kind: kind, Value: value})
		}
	}
	pattern("prefix", l.Prefix)
	pattern("suffix", l.Suffix)
	pattern("regex", l.Regex)
	if l.OlderThan == 0 && l.NewerThan == 0 {
		// Without an age a timestring only selects names carrying a timestamp.
		pattern("timestring", l.Timestring)
	}

	unit := l.TimeUnit
	if unit == "" {
		unit = "days"
	}
	age := func(direction string, count int) {
		if count == 0 {
			return
		}
		d := Descriptor{
			FilterType: TypeAge,
			Source:     SourceCreationDate,
			Direction:  direction,
			Unit:       unit,
			UnitCount:  &count,
		}
		if l.Timestring != "" {
			d.Source = SourceName
			d.Timestring = l.Timestring
		}
		spec = append(spec, d)
	}
	age("older", l.OlderThan)
	age("younger", l.NewerThan)

	if l.OpenedOnly {
		spec = append(spec, Descriptor{FilterType: TypeOpened})
	}
	if l.ClosedOnly {
		spec = append(spec, Descriptor{FilterType: TypeClosed})
	}

	if l.MaxNumSegments > 0 {
		n, exclude := l.MaxNumSegments, true
		spec = append(spec, Descriptor{FilterType: TypeForceMerged, MaxNumSegments: &n, Exclude: &exclude})
	}

	if l.DiskSpace > 0 && destructive[action.Normalize(command)] {
		space := l.DiskSpace
		spec = append(spec, Descriptor{FilterType: TypeSpace, DiskSpace: &space, Reverse: l.Reverse})
	}

	if len(spec) == 0 {
		return PassThrough
	}
	return spec
}
