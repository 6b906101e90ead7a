// Package schedule defines schedules of recurring actions (i.e. a weekly challenge) and how they're
// registered with a gocron scheduler
package schedule

import (
	"fmt"
	"github.com/marcsantiago/gocron"
	"strings"
	"time"
)

// Definition represents when a recurring action runs. It can be decoded from configuration using the
// mapstructure keys (i.e. interval, unit, weekday and atTime)
type Definition struct {
	// Interval value (every 1 minute would be expressed with an interval of 1). Must be set explicitly or implicitly (a weekday value implicitly sets the interval to 1)
	Interval uint64 `mapstructure:"interval"`

	// Must be set explicitly or implicitly ("weeks" is implicitly set when "Weekday" is set). Valid time units are: "weeks", "hours", "days", "minutes", "seconds"
	Unit string `mapstructure:"unit"`

	// Optional day of the week. If set, unit and interval are ignored and implicitly considered to be "every 1 week"
	Weekday string `mapstructure:"weekday"`

	// Optional "at time" value (i.e. "10:30")
	AtTime string `mapstructure:"atTime"`
}

// Unit values
const (
	Weeks   = "weeks"
	Hours   = "hours"
	Days    = "days"
	Minutes = "minutes"
	Seconds = "seconds"
)

var weekdayToNumeral = map[string]time.Weekday{
	time.Monday.String():    time.Monday,
	time.Tuesday.String():   time.Tuesday,
	time.Wednesday.String(): time.Wednesday,
	time.Thursday.String():  time.Thursday,
	time.Friday.String():    time.Friday,
	time.Saturday.String():  time.Saturday,
	time.Sunday.String():    time.Sunday,
}

var validUnits = map[string]bool{Weeks: true, Hours: true, Days: true, Minutes: true, Seconds: true}

// String returns a human-friendly string for the Definition
func (d Definition) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Every ")

	if d.Weekday != "" {
		fmt.Fprintf(&b, "%s", d.Weekday)
	} else if d.Interval == 1 {
		fmt.Fprintf(&b, "%s", strings.TrimSuffix(d.Unit, "s"))
	} else {
		fmt.Fprintf(&b, "%d %s", d.Interval, d.Unit)
	}

	if d.AtTime != "" {
		fmt.Fprintf(&b, " at %s", d.AtTime)
	}

	return b.String()
}

// Validate returns an error if the definition can't be scheduled
func (d Definition) Validate() (err error) {
	if d.Weekday != "" {
		if _, ok := weekdayToNumeral[d.Weekday]; !ok {
			return fmt.Errorf("Invalid weekday [%s]", d.Weekday)
		}

		return nil
	}

	if d.Interval == 0 {
		return fmt.Errorf("Interval must be set when no weekday is set")
	}

	if !validUnits[d.Unit] {
		return fmt.Errorf("Invalid unit [%s]", d.Unit)
	}

	return nil
}

// Builder holds a definition to build
type Builder struct {
	definition Definition
}

// New returns a new Builder for a definition with an interval of 1
func New() (b *Builder) {
	b = new(Builder)
	b.definition = Definition{Interval: 1}

	return b
}

// Every sets the unit (or weekday, when the value is a day of the week) of the definition
func (b *Builder) Every(unitOrWeekday string) *Builder {
	if _, ok := weekdayToNumeral[unitOrWeekday]; ok {
		b.definition.Weekday = unitOrWeekday
	} else {
		b.definition.Unit = unitOrWeekday
	}

	return b
}

// EveryN sets the interval and unit of the definition
func (b *Builder) EveryN(interval uint64, unit string) *Builder {
	b.definition.Interval = interval
	b.definition.Unit = unit

	return b
}

// AtTime sets the "at time" value of the definition (i.e. "10:30")
func (b *Builder) AtTime(atTime string) *Builder {
	b.definition.AtTime = atTime

	return b
}

// Build returns the Definition
func (b *Builder) Build() Definition {
	return b.definition
}

// NewJob sets up the gocron.Job with the schedule and leaves the task undefined for the caller to set up
func NewJob(s *gocron.Scheduler, d Definition) (j *gocron.Job, err error) {
	if err = d.Validate(); err != nil {
		return nil, err
	}

	j = s.Every(d.Interval, false)

	if _, ok := weekdayToNumeral[d.Weekday]; ok {
		switch d.Weekday {
		case time.Monday.String():
			j = j.Monday()
		case time.Tuesday.String():
			j = j.Tuesday()
		case time.Wednesday.String():
			j = j.Wednesday()
		case time.Thursday.String():
			j = j.Thursday()
		case time.Friday.String():
			j = j.Friday()
		case time.Saturday.String():
			j = j.Saturday()
		case time.Sunday.String():
			j = j.Sunday()
		}
	} else {
		switch d.Unit {
		case Weeks:
			j = j.Weeks()
		case Hours:
			j = j.Hours()
		case Days:
			j = j.Days()
		case Minutes:
			j = j.Minutes()
		case Seconds:
			j = j.Seconds()
		}
	}

	if d.AtTime != "" {
		j = j.At(d.AtTime)
	}

	if j.Err() != nil {
		return nil, j.Err()
	}

	return j, nil
}
