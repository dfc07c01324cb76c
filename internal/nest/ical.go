package nest

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/emersion/go-ical"

	"github.com/edgard/nestbot/internal/database"
	"github.com/edgard/nestbot/internal/datetime"
)

const icalProductID = "-//nestbot//EN"

// ExportCalendar encodes the events userID is going to as an iCalendar
// document. It returns ErrCalendarEmpty when there is nothing to export.
func (s *Service) ExportCalendar(ctx context.Context, userID int64) ([]byte, error) {
	days, err := s.Calendar(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return nil, ErrCalendarEmpty
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, icalProductID)

	stamp := s.clock.Now().UTC()
	for _, day := range days {
		for _, e := range day.Events {
			ve, err := s.toICal(e, stamp)
			if err != nil {
				return nil, err
			}
			cal.Children = append(cal.Children, ve)
		}
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("failed to encode calendar: %w", err)
	}
	return buf.Bytes(), nil
}

// toICal converts an event to a VEVENT. Start and end are written in UTC
// after interpreting the stored wall-clock times in the events zone.
func (s *Service) toICal(e database.EventDetails, stamp time.Time) (*ical.Component, error) {
	start, err := datetime.StartInstant(e.StartDate, e.StartTime)
	if err != nil {
		return nil, fmt.Errorf("event %s start: %w", e.ID, err)
	}
	end, err := datetime.StartInstant(e.EndDate, e.EndTime)
	if err != nil {
		return nil, fmt.Errorf("event %s end: %w", e.ID, err)
	}

	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, e.ID+"@nestbot")
	ve.Props.SetText(ical.PropSummary, e.Name)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
	ve.Props.SetDateTime(ical.PropDateTimeStart, start.Time(s.loc).UTC())
	ve.Props.SetDateTime(ical.PropDateTimeEnd, end.Time(s.loc).UTC())

	if e.Description != "" {
		ve.Props.SetText(ical.PropDescription, e.Description)
	}
	location := e.LocationName
	if e.City != "" {
		location += ", " + e.City
	}
	ve.Props.SetText(ical.PropLocation, location)
	if e.LocationURL != "" {
		p := ical.NewProp(ical.PropURL)
		p.Value = e.LocationURL
		ve.Props.Set(p)
	}
	if e.OrganiserUsername != "" {
		p := ical.NewProp(ical.PropOrganizer)
		p.Value = "https://t.me/" + e.OrganiserUsername
		p.Params.Set(ical.ParamCommonName, e.OrganiserName)
		ve.Props.Add(p)
	}
	return ve, nil
}
