package action

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	ctime "github.com/mintel/elasticsearch-curator/pkg/time" // Curator time units and parsing.
)

// Options are the option values forwarded to an action.
type Options map[string]interface{}

// Compact returns the subset of raw whose keys d accepts and whose
// values are not empty. raw is not modified.
func (d Descriptor) Compact(raw map[string]interface{}) Options {
	opts := make(Options, len(d.Keys))
	for k, v := range raw {
		if !d.Accepts(k) || isEmpty(v) {
			continue
		}
		opts[k] = v
	}
	return opts
}

// isEmpty reports whether v is nil, an empty string, or an empty
// slice or map. False and zero are values, not empties.
func isEmpty(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// With returns a copy of o with key set to value.
func (o Options) With(key string, value interface{}) Options {
	c := make(Options, len(o)+1)
	for k, v := range o {
		c[k] = v
	}
	c[key] = value
	return c
}

// Keys returns the option keys, sorted.
func (o Options) Keys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// reader decodes values from Options, remembering the first error.
type reader struct {
	command string
	opts    Options
	err     error
}

func newReader(command string, opts Options) *reader {
	return &reader{command: command, opts: opts}
}

func (r *reader) fail(key, format string, args ...interface{}) {
	if r.err == nil {
		r.err = &OptionError{Command: r.command, Key: key, Reason: fmt.Sprintf(format, args...)}
	}
}

func (r *reader) has(key string) bool {
	return r.opts.has(key)
}

func (r *reader) require(keys ...string) {
	for _, k := range keys {
		if !r.has(k) {
			r.fail(k, "is required")
		}
	}
}

func (r *reader) string(key, def string) string {
	v, ok := r.opts[key]
	if !ok {
		return def
	}
	switch v := v.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case int, int64, float64, bool:
		return fmt.Sprint(v)
	}
	r.fail(key, "must be a string, got %T", v)
	return def
}

func (r *reader) bool(key string, def bool) bool {
	v, ok := r.opts[key]
	if !ok {
		return def
	}
	switch v := v.(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			r.fail(key, "must be a boolean, got %q", v)
			return def
		}
		return b
	}
	r.fail(key, "must be a boolean, got %T", v)
	return def
}

func (r *reader) int(key string, def int) int {
	v, ok := r.opts[key]
	if !ok {
		return def
	}
	switch v := v.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if v != float64(int(v)) {
			r.fail(key, "must be a whole number, got %v", v)
			return def
		}
		return int(v)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			r.fail(key, "must be a number, got %q", v)
			return def
		}
		return i
	}
	r.fail(key, "must be a number, got %T", v)
	return def
}

func (r *reader) float(key string, def float64) float64 {
	v, ok := r.opts[key]
	if !ok {
		return def
	}
	switch v := v.(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			r.fail(key, "must be a number, got %q", v)
			return def
		}
		return f
	}
	r.fail(key, "must be a number, got %T", v)
	return def
}

// duration accepts a number of seconds or any ctime.ParseDuration string.
func (r *reader) duration(key string, def time.Duration) time.Duration {
	v, ok := r.opts[key]
	if !ok {
		return def
	}
	switch v := v.(type) {
	case int:
		return time.Duration(v) * time.Second
	case int64:
		return time.Duration(v) * time.Second
	case float64:
		return time.Duration(v * float64(time.Second))
	case time.Duration:
		return v
	case string:
		d, err := ctime.ParseDuration(v)
		if err != nil {
			r.fail(key, "must be a duration: %s", err)
			return def
		}
		return d
	}
	r.fail(key, "must be a duration, got %T", v)
	return def
}

// strings accepts a list or a comma-separated string.
func (r *reader) strings(key string) []string {
	v, ok := r.opts[key]
	if !ok {
		return nil
	}
	switch v := v.(type) {
	case string:
		parts := strings.Split(v, ",")
		out := parts[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				r.fail(key, "must be a list of strings, got %T item", item)
				return nil
			}
			out = append(out, s)
		}
		return out
	}
	r.fail(key, "must be a list of strings, got %T", v)
	return nil
}

// object accepts a map with string keys.
func (r *reader) object(key string) map[string]interface{} {
	v, ok := r.opts[key]
	if !ok {
		return nil
	}
	switch v := v.(type) {
	case map[string]interface{}:
		return v
	case Options:
		return v
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, item := range v {
			ks, ok := k.(string)
			if !ok {
				r.fail(key, "must have string keys, got %T", k)
				return nil
			}
			out[ks] = item
		}
		return out
	}
	r.fail(key, "must be an object, got %T", v)
	return nil
}

func (r *reader) oneOf(key, value string, allowed ...string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	r.fail(key, "must be one of %v, got %q", allowed, value)
}
