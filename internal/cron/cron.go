// Package cron implements the calendar-trigger engine: a five-field
// schedule expression paired with a command payload, in the line format
//
//	<minute> <hour> <day> <month> <weekday> | <command>
//
// Fields accept * or ? as wildcards. Parsing, matching and rendering are
// pure; persistence lives in the Store.
package cron

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Any is the wildcard sentinel for a schedule field.
const Any = -1

// Job is one parsed cron line.
type Job struct {
	Minute  int
	Hour    int
	Day     int
	Month   int
	Weekday int // 0 = Sunday
	Command string
}

type fieldSpec struct {
	name string
	min  int
	max  int
}

var fieldSpecs = [5]fieldSpec{
	{"minute", 0, 59},
	{"hour", 0, 23},
	{"day", 1, 31},
	{"month", 1, 12},
	{"weekday", 0, 6},
}

// Parse parses a single cron line. Blank lines and #-comments yield
// (nil, nil): no job, no error. Any malformed field rejects the whole
// line with an error naming the field.
func Parse(line string) (*Job, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return nil, nil
	}

	sched, command, found := strings.Cut(trimmed, "|")
	if !found {
		return nil, fmt.Errorf("cron: missing %q separator in line %q", "|", line)
	}
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, fmt.Errorf("cron: empty command in line %q", line)
	}

	fields := strings.Fields(sched)
	if len(fields) != 5 {
		return nil, fmt.Errorf("cron: expected 5 schedule fields, got %d in line %q", len(fields), line)
	}

	var vals [5]int
	for i, f := range fields {
		v, err := parseField(fieldSpecs[i], f)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}

	return &Job{
		Minute:  vals[0],
		Hour:    vals[1],
		Day:     vals[2],
		Month:   vals[3],
		Weekday: vals[4],
		Command: command,
	}, nil
}

func parseField(spec fieldSpec, s string) (int, error) {
	if s == "*" || s == "?" {
		return Any, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("cron: %s field %q is not a number", spec.name, s)
	}
	if v < spec.min || v > spec.max {
		return 0, fmt.Errorf("cron: %s field %d out of range %d-%d", spec.name, v, spec.min, spec.max)
	}
	return v, nil
}

// Matches reports whether the job fires for the given calendar components.
// Every field must match (wildcard or equal); there is no OR.
func (j *Job) Matches(hour, minute, day, month, weekday int) bool {
	return fieldMatches(j.Minute, minute) &&
		fieldMatches(j.Hour, hour) &&
		fieldMatches(j.Day, day) &&
		fieldMatches(j.Month, month) &&
		fieldMatches(j.Weekday, weekday)
}

// MatchesTime reports whether the job fires at time t.
func (j *Job) MatchesTime(t time.Time) bool {
	return j.Matches(t.Hour(), t.Minute(), t.Day(), int(t.Month()), int(t.Weekday()))
}

func fieldMatches(field, value int) bool {
	return field == Any || field == value
}

// Render produces the canonical line form of the job, the inverse of Parse.
func (j *Job) Render() string {
	return fmt.Sprintf("%s %s %s %s %s | %s",
		renderField(j.Minute), renderField(j.Hour), renderField(j.Day),
		renderField(j.Month), renderField(j.Weekday), j.Command)
}

func renderField(v int) string {
	if v == Any {
		return "*"
	}
	return strconv.Itoa(v)
}
