package datetime

import (
	"fmt"
	"strconv"
	"strings"
)

// Meridiem markers rendered by ToDisplayTime.
const (
	AM = "AM"
	PM = "PM"
)

const secondsPerDay = 24 * 60 * 60

// WallClockTime is an (hour, minute, second) triple on a 24-hour clock.
type WallClockTime struct {
	Hour   int
	Minute int
	Second int
}

// ParseStorageTime decodes an HH:MM:SS string.
func ParseStorageTime(s string) (WallClockTime, error) {
	parts, err := splitNumeric(s, ":", 3)
	if err != nil {
		return WallClockTime{}, err
	}
	return WallClockTime{Hour: parts[0], Minute: parts[1], Second: parts[2]}, nil
}

// FormatStorageTime renders t as zero-padded HH:MM:SS.
func FormatStorageTime(t WallClockTime) string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// ParseDisplayTime decodes "H:MM[:SS] AM|PM". The meridiem is matched
// case-insensitively and may be separated by any Unicode space, including
// the narrow no-break space some locales emit.
func ParseDisplayTime(s string) (WallClockTime, error) {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return WallClockTime{}, malformed(s, "missing AM/PM marker")
	}
	if len(fields) > 2 {
		return WallClockTime{}, malformed(s, "unexpected text after AM/PM marker")
	}

	clock := strings.Split(fields[0], ":")
	if len(clock) != 2 && len(clock) != 3 {
		return WallClockTime{}, malformed(s, "expected H:MM or H:MM:SS")
	}
	nums := make([]int, 3)
	for i, tok := range clock {
		v, err := strconv.Atoi(tok)
		if err != nil {
			return WallClockTime{}, malformed(s, "component %q is not a number", tok)
		}
		nums[i] = v
	}

	hour := nums[0]
	switch strings.ToLower(fields[1]) {
	case "pm":
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	default:
		return WallClockTime{}, malformed(s, "unknown meridiem %q", fields[1])
	}
	return WallClockTime{Hour: hour, Minute: nums[1], Second: nums[2]}, nil
}

// To12Hour applies the meridiem transform to a 24-hour value in 0..23.
func To12Hour(hour24 int) (int, string) {
	switch {
	case hour24 == 0:
		return 12, AM
	case hour24 < 12:
		return hour24, AM
	case hour24 == 12:
		return 12, PM
	default:
		return hour24 - 12, PM
	}
}

// Display renders t on a 12-hour clock. Out-of-range components roll over
// the way a platform clock would, so 25:00:00 renders as "1:00 AM".
func (t WallClockTime) Display(includeSeconds bool) string {
	n := t.normalized()
	h, mer := To12Hour(n.Hour)
	if includeSeconds {
		return fmt.Sprintf("%d:%02d:%02d %s", h, n.Minute, n.Second, mer)
	}
	return fmt.Sprintf("%d:%02d %s", h, n.Minute, mer)
}

// ToDisplayTime reformats a storage time for display. The locale is fixed to
// English 12-hour output regardless of the host.
func ToDisplayTime(storage string, includeSeconds bool) (string, error) {
	t, err := ParseStorageTime(storage)
	if err != nil {
		return "", err
	}
	return t.Display(includeSeconds), nil
}

// Validate reports whether every component is in range.
func (t WallClockTime) Validate() error {
	if t.Hour < 0 || t.Hour > 23 {
		return fmt.Errorf("hour %d out of range", t.Hour)
	}
	if t.Minute < 0 || t.Minute > 59 {
		return fmt.Errorf("minute %d out of range", t.Minute)
	}
	if t.Second < 0 || t.Second > 59 {
		return fmt.Errorf("second %d out of range", t.Second)
	}
	return nil
}

func (t WallClockTime) normalized() WallClockTime {
	total := (t.Hour*3600 + t.Minute*60 + t.Second) % secondsPerDay
	if total < 0 {
		total += secondsPerDay
	}
	return WallClockTime{Hour: total / 3600, Minute: total % 3600 / 60, Second: total % 60}
}
