package nest

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/edgard/nestbot/internal/database"
	"github.com/edgard/nestbot/internal/datetime"
	"github.com/edgard/nestbot/internal/sanitize"
)

// EventForm carries an event as a user types it: dates as D/M/YYYY and
// times as H:MM[:SS] AM|PM.
type EventForm struct {
	Name         string `validate:"required"`
	Description  string `validate:"required"`
	StartDate    string `validate:"required"`
	StartTime    string `validate:"required"`
	EndDate      string `validate:"required"`
	EndTime      string `validate:"required"`
	LocationName string `validate:"required"`
	LocationURL  string `validate:"required,url"`
	City         string `validate:"required"`
}

// fieldOrder is the order messages are reported in.
var fieldOrder = []string{
	"Name", "Description", "StartDate", "StartTime", "EndDate", "EndTime",
	"LocationName", "LocationURL", "City",
}

var tagMessages = map[string]map[string]string{
	"Name":         {"required": "Event name is required"},
	"Description":  {"required": "Description is required"},
	"StartDate":    {"required": "Start Date is required"},
	"StartTime":    {"required": "Start Time is required"},
	"EndDate":      {"required": "End Date is required"},
	"EndTime":      {"required": "End Time is required"},
	"LocationName": {"required": "Location is required"},
	"LocationURL":  {"required": "Location URL is required", "url": "Location URL is invalid"},
	"City":         {"required": "City is required"},
}

var formValidator = validator.New(validator.WithRequiredStructEnabled())

// Trimmed returns a copy with surrounding whitespace removed from every field
// and markup stripped from the free-text ones.
func (f EventForm) Trimmed() EventForm {
	return EventForm{
		Name:         sanitize.Text(f.Name),
		Description:  sanitize.Text(f.Description),
		StartDate:    strings.TrimSpace(f.StartDate),
		StartTime:    strings.TrimSpace(f.StartTime),
		EndDate:      strings.TrimSpace(f.EndDate),
		EndTime:      strings.TrimSpace(f.EndTime),
		LocationName: sanitize.Text(f.LocationName),
		LocationURL:  strings.TrimSpace(f.LocationURL),
		City:         strings.TrimSpace(f.City),
	}
}

// FormFromEvent renders a stored event back into form encoding.
func FormFromEvent(e database.Event) EventForm {
	return EventForm{
		Name:         e.Name,
		Description:  e.Description,
		StartDate:    displayDate(e.StartDate),
		StartTime:    displayTime(e.StartTime),
		EndDate:      displayDate(e.EndDate),
		EndTime:      displayTime(e.EndTime),
		LocationName: e.LocationName,
		LocationURL:  e.LocationURL,
		City:         e.City,
	}
}

// Validate checks f against cities and returns the event fields in storage
// encoding. City is returned in its configured spelling. Every problem is
// reported at once through *ValidationError.
func (f EventForm) Validate(cities []string) (database.Event, error) {
	f = f.Trimmed()
	problems := make(map[string]string)
	report := func(field, msg string) {
		if _, seen := problems[field]; !seen {
			problems[field] = msg
		}
	}

	if err := formValidator.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return database.Event{}, err
		}
		for _, fe := range verrs {
			msg, ok := tagMessages[fe.Field()][fe.Tag()]
			if !ok {
				msg = fe.Field() + " is invalid"
			}
			report(fe.Field(), msg)
		}
	}

	city := ""
	if f.City != "" {
		for _, known := range cities {
			if strings.EqualFold(known, f.City) {
				city = known
				break
			}
		}
		if city == "" {
			report("City", "City must be one of: "+strings.Join(cities, ", "))
		}
	}

	startDate, startDateOK := parseFormDate(f.StartDate, "StartDate", "Start Date", report)
	startTime, startTimeOK := parseFormTime(f.StartTime, "StartTime", "Start Time", report)
	endDate, endDateOK := parseFormDate(f.EndDate, "EndDate", "End Date", report)
	endTime, endTimeOK := parseFormTime(f.EndTime, "EndTime", "End Time", report)

	if startDateOK && endDateOK {
		midnight := datetime.WallClockTime{}
		if datetime.NewInstant(endDate, midnight).Before(datetime.NewInstant(startDate, midnight)) {
			report("EndDate", "End Date should be after start date")
		}
	}
	if startDateOK && startTimeOK && endDateOK && endTimeOK {
		if datetime.NewInstant(endDate, endTime).Compare(datetime.NewInstant(startDate, startTime)) <= 0 {
			report("EndTime", "End Time should be after start time")
		}
	}

	if len(problems) > 0 {
		verr := &ValidationError{}
		for _, field := range fieldOrder {
			if msg, ok := problems[field]; ok {
				verr.Fields = append(verr.Fields, FieldError{Field: field, Message: msg})
			}
		}
		return database.Event{}, verr
	}

	return database.Event{
		Name:         f.Name,
		Description:  f.Description,
		StartDate:    datetime.FormatStorageDate(startDate),
		StartTime:    datetime.FormatStorageTime(startTime),
		EndDate:      datetime.FormatStorageDate(endDate),
		EndTime:      datetime.FormatStorageTime(endTime),
		LocationName: f.LocationName,
		LocationURL:  f.LocationURL,
		City:         city,
	}, nil
}

func parseFormDate(s, field, label string, report func(field, msg string)) (datetime.CalendarDate, bool) {
	if s == "" {
		return datetime.CalendarDate{}, false
	}
	d, err := datetime.ParseDisplayDate(s)
	if err == nil {
		err = d.Validate()
	}
	if err != nil {
		report(field, label+" is invalid, use D/M/YYYY")
		return datetime.CalendarDate{}, false
	}
	return d, true
}

func parseFormTime(s, field, label string, report func(field, msg string)) (datetime.WallClockTime, bool) {
	if s == "" {
		return datetime.WallClockTime{}, false
	}
	t, err := datetime.ParseDisplayTime(s)
	if err == nil {
		err = t.Validate()
	}
	if err != nil || !validClockHour(s) {
		report(field, label+" is invalid, use H:MM AM/PM")
		return datetime.WallClockTime{}, false
	}
	return t, true
}

// validClockHour reports whether the hour typed in a display time that
// already parsed is on the 12-hour dial.
func validClockHour(s string) bool {
	clock, _, _ := strings.Cut(strings.Fields(s)[0], ":")
	h, err := strconv.Atoi(clock)
	return err == nil && h >= 1 && h <= 12
}

// displayDate converts a storage date for display, leaving it untouched
// when it cannot be decoded.
func displayDate(storage string) string {
	out, err := datetime.ToDisplayDate(storage)
	if err != nil {
		return storage
	}
	return out
}

// displayTime converts a storage time for display, showing seconds only
// when they are set.
func displayTime(storage string) string {
	t, err := datetime.ParseStorageTime(storage)
	if err != nil {
		return storage
	}
	return t.Display(t.Second != 0)
}
