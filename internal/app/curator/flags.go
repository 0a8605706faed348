package curator

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"                  // Error wrapping.
	kingpin "gopkg.in/alecthomas/kingpin.v2" // Command line flag parsing.
	yaml "gopkg.in/yaml.v3"                  // Option values.

	"github.com/mintel/elasticsearch-curator/internal/pkg/cmd"
	"github.com/mintel/elasticsearch-curator/internal/pkg/filter"
)

const (
	defaultLogLevel               = "INFO"
	defaultElasticsearchRetryInit = 150 * time.Millisecond
	defaultElasticsearchRetryMax  = 1200 * time.Millisecond
)

// DefaultFiltersFile is read for filters when neither --filters,
// --filters-file nor a discrete filter flag is given. It must exist.
// A leading ~ is the home directory.
const DefaultFiltersFile = "~/.curator/filters.yml"

// Flags holds command line flags for the
// curator App.
type Flags struct {
	// If true, log action calls without making them.
	DryRun bool

	// Filter spec, inline or from a file.
	Filters     string
	FiltersFile string

	// Discrete filter flags, used when no filter spec is given.
	Legacy filter.Legacy

	// Action options as key=value. Values are YAML scalars,
	// lists or maps: -o count=2 -o conditions='{max_age: 7d}'.
	Options map[string]string

	*cmd.ElasticsearchFlags
	*cmd.LoggingFlags
	*cmd.MetricsFlags

	defaultFiltersFile string
}

// NewFlags returns a new Flags.
func NewFlags(app *kingpin.Application) *Flags {
	f := Flags{
		Options:            make(map[string]string),
		defaultFiltersFile: DefaultFiltersFile,
	}

	app.Flag("dry-run", "Log action calls without actually making them.").
		Short('n').
		BoolVar(&f.DryRun)

	app.Flag("filters", "Filters as a JSON array or YAML list, e.g. '[{\"filtertype\": \"age\", ...}]'.").
		Short('f').
		Envar("CURATOR_FILTERS").
		StringVar(&f.Filters)

	app.Flag("filters-file", "File to read filters from. Default: "+DefaultFiltersFile+".").
		Envar("CURATOR_FILTERS_FILE").
		PlaceHolder("PATH").
		StringVar(&f.FiltersFile)

	app.Flag("option", "Action option as key=value. May be repeated.").
		Short('o').
		PlaceHolder("KEY=VALUE").
		StringMapVar(&f.Options)

	// Discrete filters.
	l := &f.Legacy
	l.Reverse = new(bool)
	app.Flag("prefix", "Only indices or snapshots beginning with this prefix.").StringVar(&l.Prefix)
	app.Flag("suffix", "Only indices or snapshots ending with this suffix.").StringVar(&l.Suffix)
	app.Flag("regex", "Only indices or snapshots whose names match this regular expression.").StringVar(&l.Regex)
	app.Flag("older-than", "Only entities older than this many time units.").PlaceHolder("N").IntVar(&l.OlderThan)
	app.Flag("newer-than", "Only entities newer than this many time units.").PlaceHolder("N").IntVar(&l.NewerThan)
	app.Flag("time-unit", "Time unit of --older-than and --newer-than.").
		Default("days").
		EnumVar(&l.TimeUnit, "seconds", "minutes", "hours", "days", "weeks", "months", "years")
	app.Flag("timestring", "strftime pattern of the timestamp in names, e.g. %Y.%m.%d. Ages use creation dates if unset. Alone, selects the names carrying one.").
		StringVar(&l.Timestring)
	app.Flag("disk-space", "Delete the indices past this many gigabytes of disk space.").
		PlaceHolder("GB").
		Float64Var(&l.DiskSpace)
	app.Flag("reverse", "With --disk-space, keep the largest (or, with names, latest) indices first.").
		Default("true").
		BoolVar(l.Reverse)
	app.Flag("closed-only", "Only closed indices.").BoolVar(&l.ClosedOnly)
	app.Flag("opened-only", "Only open indices.").BoolVar(&l.OpenedOnly)
	app.Flag("max-num-segments", "Skip indices merged down to this many segments per shard.").
		PlaceHolder("N").
		IntVar(&l.MaxNumSegments)

	f.ElasticsearchFlags = cmd.NewElasticsearchFlags(app, defaultElasticsearchRetryInit, defaultElasticsearchRetryMax)
	f.LoggingFlags = cmd.NewLoggingFlags(app, defaultLogLevel)
	f.MetricsFlags = cmd.NewMetricsFlags(app)

	return &f
}

// Spec returns the filter spec to apply for command: --filters if set,
// else --filters-file, else the discrete filter flags if any is set,
// else DefaultFiltersFile. A missing file is a *filter.ConfigurationError.
func (f *Flags) Spec(command string) (filter.Spec, error) {
	switch {
	case strings.TrimSpace(f.Filters) != "":
		return filter.Load(f.Filters, "", true)
	case f.FiltersFile != "":
		return filter.Load("", expandHome(f.FiltersFile), true)
	case !f.Legacy.IsZero():
		return f.Legacy.Spec(command), nil
	}
	return filter.Load("", expandHome(f.defaultFiltersFile), true)
}

// ActionOptions returns the -o options with their values decoded.
func (f *Flags) ActionOptions() (map[string]interface{}, error) {
	keys := make([]string, 0, len(f.Options))
	for k := range f.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	opts := make(map[string]interface{}, len(f.Options))
	for _, k := range keys {
		var v interface{}
		if err := yaml.Unmarshal([]byte(f.Options[k]), &v); err != nil {
			return nil, errors.Wrapf(err, "bad value of option %s", k)
		}
		opts[k] = v
	}
	return opts, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
