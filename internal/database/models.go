package database

import (
	"time"
)

// User is a registered profile, keyed by the Telegram user ID.
type User struct {
	ID         int64     `db:"id"`
	Username   string    `db:"username"`
	Name       string    `db:"name"`
	Bio        string    `db:"bio"`
	ProfilePic string    `db:"profile_pic"` // Telegram file ID, empty when unset
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// Event is a stored event. Dates use the YYYY-MM-DD storage encoding and
// times HH:MM:SS, both interpreted in the configured events timezone.
type Event struct {
	ID           string    `db:"id"`
	OrganiserID  int64     `db:"organiser_id"`
	Name         string    `db:"name"`
	Description  string    `db:"description"`
	StartDate    string    `db:"start_date"`
	StartTime    string    `db:"start_time"`
	EndDate      string    `db:"end_date"`
	EndTime      string    `db:"end_time"`
	LocationName string    `db:"location_name"`
	LocationURL  string    `db:"location_url"`
	City         string    `db:"city"`
	Thumbnail    string    `db:"thumbnail"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Start returns the storage-encoded start date and time.
func (e Event) Start() (date, clock string) {
	return e.StartDate, e.StartTime
}

// EventDetails is an event joined with its organiser and RSVP counts.
type EventDetails struct {
	Event
	OrganiserUsername string `db:"organiser_username"`
	OrganiserName     string `db:"organiser_name"`
	NumInterested     int    `db:"num_interested"`
	NumGoing          int    `db:"num_going"`
}

// EventFilter narrows ListEvents. Zero fields are ignored.
type EventFilter struct {
	City string // case-insensitive exact match
	// Query matches name, description or location name, case-insensitively.
	Query string
	// EndingFrom keeps events whose end date is on or after this storage date.
	EndingFrom string
	// StartingOn keeps events starting on this storage date.
	StartingOn  string
	OrganiserID int64
}
