package time

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// strftime directives understood by Strftime and Timestring.
var directives = map[byte]string{
	'Y': `\d{4}`,
	'y': `\d{2}`,
	'm': `\d{2}`,
	'd': `\d{2}`,
	'H': `\d{2}`,
	'M': `\d{2}`,
	'S': `\d{2}`,
	'j': `\d{3}`,
	'W': `\d{2}`,
	'U': `\d{2}`,
	'b': `[A-Za-z]{3}`,
}

// Strftime formats t with a strftime-style pattern such as "%Y.%m.%d".
// Unknown directives are written out unchanged.
func Strftime(t time.Time, pattern string) string {
	var sb strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c != '%' || i == len(pattern)-1 {
			sb.WriteByte(c)
			continue
		}
		i++
		switch pattern[i] {
		case 'Y':
			fmt.Fprintf(&sb, "%04d", t.Year())
		case 'y':
			fmt.Fprintf(&sb, "%02d", t.Year()%100)
		case 'm':
			fmt.Fprintf(&sb, "%02d", int(t.Month()))
		case 'd':
			fmt.Fprintf(&sb, "%02d", t.Day())
		case 'H':
			fmt.Fprintf(&sb, "%02d", t.Hour())
		case 'M':
			fmt.Fprintf(&sb, "%02d", t.Minute())
		case 'S':
			fmt.Fprintf(&sb, "%02d", t.Second())
		case 'j':
			fmt.Fprintf(&sb, "%03d", t.YearDay())
		case 'W':
			fmt.Fprintf(&sb, "%02d", weekNumber(t, time.Monday))
		case 'U':
			fmt.Fprintf(&sb, "%02d", weekNumber(t, time.Sunday))
		case 'b':
			sb.WriteString(t.Month().String()[:3])
		case '%':
			sb.WriteByte('%')
		default:
			sb.WriteByte('%')
			sb.WriteByte(pattern[i])
		}
	}
	return sb.String()
}

// weekNumber returns the week of the year where weeks start on first.
// Days before the first such weekday are in week 0.
func weekNumber(t time.Time, first time.Weekday) int {
	offset := (int(t.Weekday()) - int(first) + 7) % 7
	return (t.YearDay() - 1 - offset + 7) / 7
}

// Timestring extracts and parses timestamps embedded in names,
// such as the date in "logstash-2019.10.01".
type Timestring struct {
	pattern string
	re      *regexp.Regexp
	fields  []byte
}

// NewTimestring compiles a strftime-style pattern.
func NewTimestring(pattern string) (*Timestring, error) {
	if pattern == "" {
		return nil, fmt.Errorf("empty timestring")
	}
	var (
		sb     strings.Builder
		fields []byte
	)
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c != '%' || i == len(pattern)-1 {
			sb.WriteString(regexp.QuoteMeta(string(c)))
			continue
		}
		i++
		d := pattern[i]
		if d == '%' {
			sb.WriteString("%")
			continue
		}
		expr, ok := directives[d]
		if !ok {
			return nil, fmt.Errorf("unsupported directive %%%c in timestring %q", d, pattern)
		}
		sb.WriteString("(" + expr + ")")
		fields = append(fields, d)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("timestring %q has no directives", pattern)
	}
	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, err
	}
	return &Timestring{pattern: pattern, re: re, fields: fields}, nil
}

// MustTimestring is like NewTimestring, but panics if there's an error.
func MustTimestring(pattern string) *Timestring {
	ts, err := NewTimestring(pattern)
	if err != nil {
		panic(err)
	}
	return ts
}

// String returns the strftime pattern.
func (ts *Timestring) String() string {
	return ts.pattern
}

// Regexp returns the expression matching the pattern anywhere in a name.
func (ts *Timestring) Regexp() *regexp.Regexp {
	return ts.re
}

// Match reports whether name contains a timestamp of this pattern.
func (ts *Timestring) Match(name string) bool {
	return ts.re.MatchString(name)
}

// Parse returns the UTC time embedded in name. Missing fields default
// to January 1st, midnight. The first match in name wins.
func (ts *Timestring) Parse(name string) (time.Time, error) {
	m := ts.re.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, fmt.Errorf("%q does not contain a timestamp matching %q", name, ts.pattern)
	}
	var (
		year                 = 1970
		month                = time.January
		day                  = 1
		hour, minute, second int
		yday, week           = -1, -1
		weekStart            time.Weekday
	)
	for i, f := range ts.fields {
		v := m[i+1]
		if f == 'b' {
			mo, err := time.Parse("Jan", strings.Title(strings.ToLower(v)))
			if err != nil {
				return time.Time{}, fmt.Errorf("bad month %q in %q", v, name)
			}
			month = mo.Month()
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return time.Time{}, err
		}
		switch f {
		case 'Y':
			year = n
		case 'y':
			year = 2000 + n
			if n >= 69 {
				year = 1900 + n
			}
		case 'm':
			month = time.Month(n)
		case 'd':
			day = n
		case 'H':
			hour = n
		case 'M':
			minute = n
		case 'S':
			second = n
		case 'j':
			yday = n
		case 'W':
			week, weekStart = n, time.Monday
		case 'U':
			week, weekStart = n, time.Sunday
		}
	}
	if month < time.January || month > time.December || day < 1 || day > 31 || hour > 23 || minute > 59 || second > 60 {
		return time.Time{}, fmt.Errorf("%q contains an out of range timestamp for %q", name, ts.pattern)
	}
	switch {
	case yday > 0:
		t := time.Date(year, time.January, 1, hour, minute, second, 0, time.UTC)
		return t.AddDate(0, 0, yday-1), nil
	case week >= 0:
		jan1 := time.Date(year, time.January, 1, hour, minute, second, 0, time.UTC)
		if week == 0 {
			return jan1, nil
		}
		offset := (int(weekStart) - int(jan1.Weekday()) + 7) % 7
		return jan1.AddDate(0, 0, offset+(week-1)*7), nil
	}
	return time.Date(year, month, day, hour, minute, second, 0, time.UTC), nil
}
