package config

// Names of the scheduled tasks known to the task registry.
const (
	TaskSQLMaintenance    = "sql_maintenance"
	TaskEventReminders    = "event_reminders"
	TaskPastEventsCleanup = "past_events_cleanup"
)

var defaults = map[string]any{
	"logger.level": "info",
	"logger.json":  false,

	"database.path": "nest.db",

	"telegram.token": "",

	"events.cities":         []string{"Bengaluru", "Chennai", "Delhi", "Hyderabad", "Kolkata", "Mumbai", "Pune"},
	"events.timezone":       "Asia/Kolkata",
	"events.feed_limit":     10,
	"events.reminder_days":  1,
	"events.retention_days": 30,

	"scheduler.tasks." + TaskSQLMaintenance + ".enabled":     true,
	"scheduler.tasks." + TaskSQLMaintenance + ".schedule":    "0 4 * * 0",
	"scheduler.tasks." + TaskEventReminders + ".enabled":     true,
	"scheduler.tasks." + TaskEventReminders + ".schedule":    "0 9 * * *",
	"scheduler.tasks." + TaskPastEventsCleanup + ".enabled":  true,
	"scheduler.tasks." + TaskPastEventsCleanup + ".schedule": "30 3 * * *",

	"messages.welcome": "👋 Welcome to Nest! Discover what's happening in your city.\n" +
		"Register with /register <username> <your name>, then try /events.",
	"messages.help": "Commands:\n" +
		"/register <username> <name> - create your profile\n" +
		"/login - sign back in after /logout\n" +
		"/me - show your profile\n" +
		"/bio <text>, /name <text> - edit your profile\n" +
		"send a photo captioned /avatar - set your profile picture\n" +
		"/cities - list supported cities\n" +
		"/events <city> - upcoming events\n" +
		"/search <text> [| city] - search events\n" +
		"/event <id> - event details\n" +
		"/create - create an event\n" +
		"/edit <id> | ... - edit your event\n" +
		"send a photo captioned /thumbnail <id> - set an event thumbnail\n" +
		"/interested <id>, /going <id> - toggle your RSVP\n" +
		"/calendar - events you're going to\n" +
		"/ics - export your calendar\n" +
		"/logout - sign out",
	"messages.general_error":     "❌ An error occurred. Please try again later.",
	"messages.not_registered":    "🔒 You're not signed in. Use /login, or /register <username> <your name> if you're new.",
	"messages.register_usage":    "Usage: /register <username> <your name>",
	"messages.registered_fmt":    "✅ Welcome, %s! You're signed in as @%s.",
	"messages.username_taken":    "🚫 Username is already taken.",
	"messages.invalid_username":  "🚫 Usernames are 3-32 letters, digits or underscores.",
	"messages.logged_out":        "👋 You're signed out. Use /login to sign back in.",
	"messages.logged_in_fmt":     "✅ Welcome back, %s!",
	"messages.bio_usage":         "Usage: /bio <text>",
	"messages.bio_updated":       "✅ Bio updated.",
	"messages.name_usage":        "Usage: /name <your name>",
	"messages.name_updated":      "✅ Name updated.",
	"messages.avatar_usage":      "Send a photo with the caption /avatar.",
	"messages.avatar_updated":    "✅ Profile picture updated.",
	"messages.no_events_fmt":     "No upcoming events in %s yet.",
	"messages.events_usage":      "Usage: /events <city>. See /cities for the list.",
	"messages.events_header_fmt": "📆 Upcoming in %s:",
	"messages.search_header":     "🔎 Matching events:",
	"messages.unknown_city_fmt":  "🚫 Unknown city %q. See /cities.",
	"messages.cities_header":     "Supported cities:\n",
	"messages.search_usage":      "Usage: /search <text> [| city]",
	"messages.no_results":        "No events match your search.",
	"messages.event_usage":       "Usage: /event <id>",
	"messages.event_not_found":   "🚫 Event not found.",
	"messages.create_usage": "Usage:\n/create name | description | start date | start time | end date | end time | location | location url | city\n" +
		"Dates are D/M/YYYY and times H:MM AM/PM, for example:\n" +
		"/create Jazz Night | Live trio | 5/3/2024 | 7:00 PM | 5/3/2024 | 10:30 PM | Blue Frog | https://maps.example.com/bf | Mumbai",
	"messages.edit_usage":        "Usage: /edit <id> | name | description | start date | start time | end date | end time | location | location url | city",
	"messages.validation_header": "🚫 Please fix the following:",
	"messages.event_created_fmt": "✅ Event created successfully. ID: %s",
	"messages.event_updated":     "✅ Event edited successfully.",
	"messages.forbidden":         "🚫 Only the organiser can change this event.",
	"messages.thumbnail_usage":   "Send a photo with the caption /thumbnail <event id>.",
	"messages.thumbnail_updated": "✅ Thumbnail updated.",
	"messages.interest_added":    "⭐ Marked as interested.",
	"messages.interest_removed":  "Removed from your interests.",
	"messages.going_added":       "🎉 You're going! It's on your /calendar.",
	"messages.going_removed":     "You're no longer going.",
	"messages.calendar_empty":    "Your calendar is empty. RSVP with /going <id>.",
	"messages.calendar_caption":  "📅 Your Nest calendar",
	"messages.reminder_fmt":      "⏰ Reminder: %s starts %s at %s (%s).",
}
