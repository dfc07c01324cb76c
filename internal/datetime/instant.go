package datetime

import (
	"cmp"
	"fmt"
	"slices"
	"time"
)

// Instant is a date and wall-clock time without a zone. It is interpreted
// in whatever location the caller supplies to Time, normally time.Local.
// MonthIndex is zero-based.
type Instant struct {
	Year       int
	MonthIndex int
	Day        int
	Hour       int
	Minute     int
	Second     int
}

// NewInstant combines a date and a clock time.
func NewInstant(d CalendarDate, t WallClockTime) Instant {
	return Instant{
		Year:       d.Year,
		MonthIndex: d.Month - 1,
		Day:        d.Day,
		Hour:       t.Hour,
		Minute:     t.Minute,
		Second:     t.Second,
	}
}

// ToInstant composes a display date (D/M/YYYY) and a display time
// (H:MM[:SS] AM|PM). Component ranges are not checked: day 32 yields an
// Instant that orders after day 31 of the same month.
func ToInstant(displayDate, displayTime string) (Instant, error) {
	d, err := ParseDisplayDate(displayDate)
	if err != nil {
		return Instant{}, err
	}
	t, err := ParseDisplayTime(displayTime)
	if err != nil {
		return Instant{}, err
	}
	return NewInstant(d, t), nil
}

// Compare orders instants lexicographically on
// (year, month, day, hour, minute, second).
func (i Instant) Compare(o Instant) int {
	if c := cmp.Compare(i.Year, o.Year); c != 0 {
		return c
	}
	if c := cmp.Compare(i.MonthIndex, o.MonthIndex); c != 0 {
		return c
	}
	if c := cmp.Compare(i.Day, o.Day); c != 0 {
		return c
	}
	if c := cmp.Compare(i.Hour, o.Hour); c != 0 {
		return c
	}
	if c := cmp.Compare(i.Minute, o.Minute); c != 0 {
		return c
	}
	return cmp.Compare(i.Second, o.Second)
}

// Before reports whether i is strictly earlier than o.
func (i Instant) Before(o Instant) bool { return i.Compare(o) < 0 }

// Date returns the calendar part of i.
func (i Instant) Date() CalendarDate {
	return CalendarDate{Year: i.Year, Month: i.MonthIndex + 1, Day: i.Day}
}

// Time converts i to a time.Time in loc. Out-of-range components roll over
// as time.Date normalizes them.
func (i Instant) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(i.Year, time.Month(i.MonthIndex+1), i.Day, i.Hour, i.Minute, i.Second, 0, loc)
}

func (i Instant) String() string {
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d",
		i.Year, i.MonthIndex+1, i.Day, i.Hour, i.Minute, i.Second)
}

// StartInstant derives the start Instant of a stored event exactly as the
// feed ordering does: through the display encodings, seconds included.
func StartInstant(storageDate, storageTime string) (Instant, error) {
	displayDate, err := ToDisplayDate(storageDate)
	if err != nil {
		return Instant{}, err
	}
	displayTime, err := ToDisplayTime(storageTime, true)
	if err != nil {
		return Instant{}, err
	}
	return ToInstant(displayDate, displayTime)
}

// OrderByStart returns a new slice holding records in ascending start order.
// start extracts the storage-encoded start date and time of a record. Equal
// instants keep their input order. If any record fails to parse, no partial
// result is returned.
func OrderByStart[T any](records []T, start func(T) (date, clock string)) ([]T, error) {
	type keyed struct {
		at  Instant
		rec T
	}
	keys := make([]keyed, len(records))
	for idx, rec := range records {
		d, c := start(rec)
		at, err := StartInstant(d, c)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", idx, err)
		}
		keys[idx] = keyed{at: at, rec: rec}
	}

	slices.SortStableFunc(keys, func(a, b keyed) int { return a.at.Compare(b.at) })

	out := make([]T, len(keys))
	for idx, k := range keys {
		out[idx] = k.rec
	}
	return out, nil
}
