package filter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strings"

	"github.com/pkg/errors" // Error wrapping
	yaml "gopkg.in/yaml.v3" // Filter files
)

// Filter types.
const (
	TypeNone        = "none"
	TypeKibana      = "kibana"
	TypeSpace       = "space"
	TypeAge         = "age"
	TypePattern     = "pattern"
	TypeOpened      = "opened"
	TypeClosed      = "closed"
	TypeState       = "state"
	TypeForceMerged = "forcemerged"
	TypeAlias       = "alias"
	TypeCount       = "count"
)

// Descriptor is one entry of a filter Spec. Which fields apply
// depends on FilterType; the others must be left unset.
type Descriptor struct {
	FilterType string `json:"filtertype" yaml:"filtertype"`

	// Exclude removes matching entities instead of keeping them.
	// It defaults to true for kibana and false for every other type.
	Exclude *bool `json:"exclude,omitempty" yaml:"exclude,omitempty"`

	// pattern
	Kind  string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Value string `json:"value,omitempty" yaml:"value,omitempty"` // also state

	// age
	Source      string `json:"source,omitempty" yaml:"source,omitempty"`
	Direction   string `json:"direction,omitempty" yaml:"direction,omitempty"`
	Unit        string `json:"unit,omitempty" yaml:"unit,omitempty"`
	UnitCount   *int   `json:"unit_count,omitempty" yaml:"unit_count,omitempty"`
	Timestring  string `json:"timestring,omitempty" yaml:"timestring,omitempty"` // also pattern kind timestring
	Field       string `json:"field,omitempty" yaml:"field,omitempty"`
	StatsResult string `json:"stats_result,omitempty" yaml:"stats_result,omitempty"`
	Epoch       *int64 `json:"epoch,omitempty" yaml:"epoch,omitempty"`

	// space
	DiskSpace *float64 `json:"disk_space,omitempty" yaml:"disk_space,omitempty"`
	UseAge    bool     `json:"use_age,omitempty" yaml:"use_age,omitempty"`

	// space, count
	Reverse *bool `json:"reverse,omitempty" yaml:"reverse,omitempty"`

	// state
	State string `json:"state,omitempty" yaml:"state,omitempty"`

	// forcemerged
	MaxNumSegments *int `json:"max_num_segments,omitempty" yaml:"max_num_segments,omitempty"`

	// alias
	Aliases []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`

	// count
	Count *int `json:"count,omitempty" yaml:"count,omitempty"`
}

func (d Descriptor) String() string {
	b, err := json.Marshal(d)
	if err != nil {
		return d.FilterType
	}
	return string(b)
}

// excluded returns the effective Exclude value.
func (d Descriptor) excluded() bool {
	if d.Exclude != nil {
		return *d.Exclude
	}
	return d.FilterType == TypeKibana
}

// Spec is an ordered list of filters. Each filter sees only the
// entities the filters before it kept.
type Spec []Descriptor

// PassThrough is the Spec used when none is given.
var PassThrough = Spec{{FilterType: TypeNone}}

// ConfigurationError is returned for filter specs that can't be
// read, parsed or compiled.
type ConfigurationError struct {
	Source string // where the spec came from
	Err    error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("filter configuration error in %s: %s", e.Source, e.Err)
}

// Cause returns the underlying error, for github.com/pkg/errors.
func (e *ConfigurationError) Cause() error {
	return e.Err
}

// Unwrap returns the underlying error.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Parse parses a Spec from a JSON array or a YAML list.
// Unknown keys are an error. An empty document is PassThrough.
func Parse(source string, data []byte) (Spec, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return PassThrough, nil
	}

	var spec Spec
	if data[0] == '[' {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&spec); err != nil {
			return nil, &ConfigurationError{Source: source, Err: errors.Wrap(err, "invalid JSON filter list")}
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&spec); err == io.EOF {
			return PassThrough, nil // only comments
		} else if err != nil {
			return nil, &ConfigurationError{Source: source, Err: errors.Wrap(err, "invalid YAML filter list")}
		}
	}
	if len(spec) == 0 {
		return PassThrough, nil
	}
	for i, d := range spec {
		if strings.TrimSpace(d.FilterType) == "" {
			return nil, &ConfigurationError{Source: source, Err: errors.Errorf("filter %d has no filtertype", i)}
		}
		spec[i].FilterType = strings.ToLower(strings.TrimSpace(d.FilterType))
	}
	return spec, nil
}

// Load reads a Spec from inline text, or else from path.
// A missing file is an error only if required is true; otherwise
// PassThrough is returned.
func Load(inline, path string, required bool) (Spec, error) {
	if strings.TrimSpace(inline) != "" {
		return Parse("--filters", []byte(inline))
	}
	if path == "" {
		return PassThrough, nil
	}
	data, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) && !required {
		return PassThrough, nil
	} else if err != nil {
		return nil, &ConfigurationError{Source: path, Err: err}
	}
	return Parse(path, data)
}
