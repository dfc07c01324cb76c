package nest

import (
	"fmt"
	"strings"
	"time"

	"github.com/edgard/nestbot/internal/database"
	"github.com/edgard/nestbot/internal/datetime"
)

// DayLabel names a storage date relative to today: "Today", "Tomorrow",
// or a weekday label such as "Tuesday, Mar 5". Dates that cannot be
// decoded are shown in display encoding or as stored.
func DayLabel(storageDate string, today datetime.CalendarDate) string {
	d, err := datetime.ParseStorageDate(storageDate)
	if err != nil {
		return storageDate
	}
	if d.Validate() != nil {
		return d.Display()
	}
	switch d {
	case today:
		return "Today"
	case today.AddDays(1):
		return "Tomorrow"
	}
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC).Format("Monday, Jan 2")
}

// FormatEventCard renders the short feed entry for an event.
func FormatEventCard(e database.EventDetails, today datetime.CalendarDate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎫 %s\n", e.Name)
	fmt.Fprintf(&b, "%s, %s\n", DayLabel(e.StartDate, today), displayTime(e.StartTime))
	fmt.Fprintf(&b, "📍 %s, %s\n", e.LocationName, e.City)
	if e.OrganiserUsername != "" {
		fmt.Fprintf(&b, "Organised by @%s\n", e.OrganiserUsername)
	}
	fmt.Fprintf(&b, "/event %s", e.ID)
	return b.String()
}

// FormatEventList joins cards with blank lines.
func FormatEventList(events []database.EventDetails, today datetime.CalendarDate) string {
	cards := make([]string, 0, len(events))
	for _, e := range events {
		cards = append(cards, FormatEventCard(e, today))
	}
	return strings.Join(cards, "\n\n")
}

// FormatEventDetails renders the full event page for one viewer.
func FormatEventDetails(v EventView, today datetime.CalendarDate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎫 %s\n\n", v.Name)
	fmt.Fprintf(&b, "%s\n\n", v.Description)
	fmt.Fprintf(&b, "🗓 Starts: %s (%s) %s\n", displayDate(v.StartDate), DayLabel(v.StartDate, today), displayTime(v.StartTime))
	fmt.Fprintf(&b, "🏁 Ends: %s %s\n", displayDate(v.EndDate), displayTime(v.EndTime))
	fmt.Fprintf(&b, "📍 %s, %s\n", v.LocationName, v.City)
	fmt.Fprintf(&b, "🗺 %s\n", v.LocationURL)
	fmt.Fprintf(&b, "👤 Organised by %s (@%s)\n", v.OrganiserName, v.OrganiserUsername)
	fmt.Fprintf(&b, "⭐ %d interested · 🎉 %d going\n", v.NumInterested, v.NumGoing)

	switch {
	case v.Going:
		b.WriteString("You're going.\n")
	case v.Interested:
		b.WriteString("You're interested.\n")
	}

	fmt.Fprintf(&b, "\n/interested %s\n/going %s", v.ID, v.ID)
	return b.String()
}

// FormatProfile renders a user's profile.
func FormatProfile(u *database.User) string {
	bio := u.Bio
	if bio == "" {
		bio = "No bio yet. Add one with /bio."
	}
	return fmt.Sprintf("👤 %s (@%s)\n\n%s", u.Name, u.Username, bio)
}

// FormatOrganisedEvents lists the events a user created, one line each,
// for the profile screen.
func FormatOrganisedEvents(events []database.EventDetails) string {
	var b strings.Builder
	b.WriteString("🎫 Your events")
	for _, e := range events {
		fmt.Fprintf(&b, "\n• %s %s %s /event %s", displayDate(e.StartDate), displayTime(e.StartTime), e.Name, e.ID)
	}
	return b.String()
}

// FormatCalendar renders calendar days as headed lists.
func FormatCalendar(days []CalendarDay, today datetime.CalendarDate) string {
	sections := make([]string, 0, len(days))
	for _, day := range days {
		var b strings.Builder
		fmt.Fprintf(&b, "📅 %s (%s)", DayLabel(day.Date, today), displayDate(day.Date))
		for _, e := range day.Events {
			fmt.Fprintf(&b, "\n• %s %s, %s /event %s", displayTime(e.StartTime), e.Name, e.LocationName, e.ID)
		}
		sections = append(sections, b.String())
	}
	return strings.Join(sections, "\n\n")
}

// FormatReminder fills a reminder template with the event name, its day
// label, its start time and its place.
func FormatReminder(format string, e database.EventDetails, today datetime.CalendarDate) string {
	place := e.LocationName
	if e.City != "" {
		place += ", " + e.City
	}
	day := DayLabel(e.StartDate, today)
	if day == "Today" || day == "Tomorrow" {
		day = strings.ToLower(day)
	} else {
		day = "on " + day
	}
	return fmt.Sprintf(format, e.Name, day, displayTime(e.StartTime), place)
}
