package domain

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// DateLayout is the wire format of every calendar date in the API.
const DateLayout = "2006-01-02"

// ParseError reports a date string that could not be parsed. Dates are never
// coerced: a malformed value always reaches the caller as a ParseError.
type ParseError struct {
	Field string
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s %q: expected YYYY-MM-DD", e.Field, e.Input)
	}
	return fmt.Sprintf("invalid date %q: expected YYYY-MM-DD", e.Input)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseDate parses a YYYY-MM-DD string into a calendar date.
func ParseDate(s string) (civil.Date, error) {
	return ParseDateField("", s)
}

// ParseDateField is ParseDate with the name of the offending field attached
// to the error.
func ParseDateField(field, s string) (civil.Date, error) {
	d, err := civil.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return civil.Date{}, &ParseError{Field: field, Input: s, Err: err}
	}
	return d, nil
}

// ParseOptionalDate returns nil for an empty string.
func ParseOptionalDate(field, s string) (*civil.Date, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := ParseDateField(field, s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// DateOf returns the UTC calendar date of t.
func DateOf(t time.Time) civil.Date {
	return civil.DateOf(t.UTC())
}

// Weekday returns the day of week of d, Sunday = 0.
func Weekday(d civil.Date) time.Weekday {
	return d.In(time.UTC).Weekday()
}

// MonthsBetween returns the number of calendar months from a to b, ignoring
// the day of month.
func MonthsBetween(a, b civil.Date) int {
	return (b.Year-a.Year)*12 + int(b.Month) - int(a.Month)
}

// HolidaySet is a set of non-working dates. A nil set is empty.
type HolidaySet map[civil.Date]string

func NewHolidaySet(dates ...civil.Date) HolidaySet {
	set := make(HolidaySet, len(dates))
	for _, d := range dates {
		set[d] = ""
	}
	return set
}

func (h HolidaySet) Contains(d civil.Date) bool {
	if h == nil {
		return false
	}
	_, ok := h[d]
	return ok
}
