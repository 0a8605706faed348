package time

import (
	"fmt"
	"strings"
	"time"
)

// Unit is a time unit used by age thresholds.
type Unit string

// Age units. Months and years are fixed lengths (30 and 365 days),
// matching how curator has always counted them.
const (
	Seconds Unit = "seconds"
	Minutes Unit = "minutes"
	Hours   Unit = "hours"
	Days    Unit = "days"
	Weeks   Unit = "weeks"
	Months  Unit = "months"
	Years   Unit = "years"
)

var unitDurations = map[Unit]time.Duration{
	Seconds: time.Second,
	Minutes: time.Minute,
	Hours:   time.Hour,
	Days:    Day,
	Weeks:   Week,
	Months:  30 * Day,
	Years:   365 * Day,
}

// ParseUnit parses a unit name. Singular names are accepted.
func ParseUnit(s string) (Unit, error) {
	u := Unit(strings.ToLower(strings.TrimSpace(s)))
	if !strings.HasSuffix(string(u), "s") {
		u += "s"
	}
	if _, ok := unitDurations[u]; !ok {
		return "", fmt.Errorf("unknown time unit %q", s)
	}
	return u, nil
}

// Duration returns the length of count units.
func (u Unit) Duration(count int) time.Duration {
	return time.Duration(count) * unitDurations[u]
}
