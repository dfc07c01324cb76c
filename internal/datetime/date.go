// Package datetime converts event dates and times between their storage
// encoding (ISO date, 24-hour clock), their display encoding (day-first
// date, 12-hour clock with meridiem) and an orderable Instant.
//
// Conversions only check the shape of their input. Calendar legality is a
// separate concern exposed through Validate and enforced by input boundaries.
package datetime

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CalendarDate is a (year, month, day) triple with month in 1..12.
type CalendarDate struct {
	Year  int
	Month int
	Day   int
}

// ParseStorageDate decodes a YYYY-MM-DD string.
func ParseStorageDate(s string) (CalendarDate, error) {
	parts, err := splitNumeric(s, "-", 3)
	if err != nil {
		return CalendarDate{}, err
	}
	return CalendarDate{Year: parts[0], Month: parts[1], Day: parts[2]}, nil
}

// ParseDisplayDate decodes a day-first D/M/YYYY string. Components need not
// be zero-padded.
func ParseDisplayDate(s string) (CalendarDate, error) {
	parts, err := splitNumeric(s, "/", 3)
	if err != nil {
		return CalendarDate{}, err
	}
	return CalendarDate{Year: parts[2], Month: parts[1], Day: parts[0]}, nil
}

// FormatStorageDate renders d as zero-padded YYYY-MM-DD.
func FormatStorageDate(d CalendarDate) string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Display renders d as D/M/YYYY without padding.
func (d CalendarDate) Display() string {
	return fmt.Sprintf("%d/%d/%d", d.Day, d.Month, d.Year)
}

// ToDisplayDate reformats a storage date as a display date. It is a
// pass-through: "2021-02-31" becomes "31/2/2021".
func ToDisplayDate(storage string) (string, error) {
	d, err := ParseStorageDate(storage)
	if err != nil {
		return "", err
	}
	return d.Display(), nil
}

// Validate reports whether d names a real calendar day.
func (d CalendarDate) Validate() error {
	if d.Year < 1 || d.Year > 9999 {
		return fmt.Errorf("year %d out of range", d.Year)
	}
	if d.Month < 1 || d.Month > 12 {
		return fmt.Errorf("month %d out of range", d.Month)
	}
	if maxDay := daysInMonth(d.Year, d.Month); d.Day < 1 || d.Day > maxDay {
		return fmt.Errorf("day %d out of range for %04d-%02d", d.Day, d.Year, d.Month)
	}
	return nil
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) CalendarDate {
	y, m, d := t.Date()
	return CalendarDate{Year: y, Month: int(m), Day: d}
}

// AddDays returns d shifted by n days, normalizing through the Gregorian calendar.
func (d CalendarDate) AddDays(n int) CalendarDate {
	return DateOf(time.Date(d.Year, time.Month(d.Month), d.Day+n, 0, 0, 0, 0, time.UTC))
}

func daysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// splitNumeric splits s on sep into exactly n base-10 integers.
func splitNumeric(s, sep string, n int) ([]int, error) {
	tokens := strings.Split(s, sep)
	if len(tokens) != n {
		return nil, malformed(s, "expected %d %q-separated components, got %d", n, sep, len(tokens))
	}
	out := make([]int, n)
	for i, tok := range tokens {
		v, err := strconv.Atoi(strings.TrimSpace(tok))
		if err != nil {
			return nil, malformed(s, "component %q is not a number", tok)
		}
		out[i] = v
	}
	return out, nil
}
