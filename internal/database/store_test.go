package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (Store, *sqlx.DB) {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "nest_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { CloseDB(db) })
	return NewStore(db, nil), db
}

func mustSaveUser(t *testing.T, store Store, id int64, username string) *User {
	t.Helper()
	u := &User{ID: id, Username: username, Name: "User " + username}
	require.NoError(t, store.SaveUser(context.Background(), u))
	return u
}

func testEvent(id string, organiser int64, city, startDate, startTime string) *Event {
	return &Event{
		ID:           id,
		OrganiserID:  organiser,
		Name:         "Event " + id,
		Description:  "Description of " + id,
		StartDate:    startDate,
		StartTime:    startTime,
		EndDate:      startDate,
		EndTime:      "23:00:00",
		LocationName: "Hall " + id,
		LocationURL:  "https://maps.example.com/" + id,
		City:         city,
	}
}

func TestExtractDBNameFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"nest.db", "nest.db"},
		{"file:nest.db", "nest.db"},
		{"file:/var/lib/nest%20bot.db?_pragma=foreign_keys(1)", "/var/lib/nest bot.db"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, ExtractDBNameFromPath(tc.in))
	}
}

func TestDSN(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "nest.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", DSN("nest.db"))
	assert.Equal(t, "file:nest.db?mode=rwc&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", DSN("file:nest.db?mode=rwc"))
}

func TestNewDB_MigrationsAreIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "twice.db")
	db, err := NewDB(path)
	require.NoError(t, err)
	CloseDB(db)

	db, err = NewDB(path)
	require.NoError(t, err)
	defer CloseDB(db)

	var tables int
	require.NoError(t, db.Get(&tables,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('users', 'events', 'interests', 'going')`))
	assert.Equal(t, 4, tables)
}

func TestStore_Users(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, _ := newTestStore(t)

	got, err := store.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got)

	u := mustSaveUser(t, store, 1, "alice")
	assert.False(t, u.CreatedAt.IsZero())

	got, err = store.GetUser(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Username)
	assert.Empty(t, got.Bio)

	got, err = store.GetUserByUsername(ctx, "ALICE")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(1), got.ID)

	u.Bio = "likes jazz"
	u.ProfilePic = "file-123"
	require.NoError(t, store.SaveUser(ctx, u))
	got, err = store.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "likes jazz", got.Bio)
	assert.Equal(t, "file-123", got.ProfilePic)

	err = store.SaveUser(ctx, &User{ID: 2, Username: "Alice", Name: "Other"})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = store.GetUser(ctx, 0)
	assert.Error(t, err)
}

func TestStore_EventLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, _ := newTestStore(t)
	mustSaveUser(t, store, 1, "organiser")
	mustSaveUser(t, store, 2, "guest")

	ev := testEvent("ev-1", 1, "Mumbai", "2024-03-05", "19:00:00")
	require.NoError(t, store.CreateEvent(ctx, ev))
	assert.ErrorIs(t, store.CreateEvent(ctx, ev), ErrDuplicate)

	details, err := store.GetEvent(ctx, "ev-1")
	require.NoError(t, err)
	require.NotNil(t, details)
	assert.Equal(t, "organiser", details.OrganiserUsername)
	assert.Equal(t, 0, details.NumGoing)

	ev.Name = "Renamed"
	ev.Thumbnail = "thumb-file"
	require.NoError(t, store.UpdateEvent(ctx, ev))
	details, err = store.GetEvent(ctx, "ev-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", details.Name)
	assert.Equal(t, "thumb-file", details.Thumbnail)

	missing := testEvent("nope", 1, "Mumbai", "2024-03-05", "19:00:00")
	assert.ErrorIs(t, store.UpdateEvent(ctx, missing), ErrNotFound)

	details, err = store.GetEvent(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, details)
}

func TestStore_ListEvents(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, _ := newTestStore(t)
	mustSaveUser(t, store, 1, "organiser")

	require.NoError(t, store.CreateEvent(ctx, testEvent("a", 1, "Mumbai", "2024-03-05", "19:00:00")))
	require.NoError(t, store.CreateEvent(ctx, testEvent("b", 1, "Pune", "2024-03-06", "10:00:00")))
	jazz := testEvent("c", 1, "Mumbai", "2024-02-01", "20:00:00")
	jazz.Name = "Jazz 100% live"
	require.NoError(t, store.CreateEvent(ctx, jazz))

	ids := func(events []EventDetails) []string {
		out := make([]string, 0, len(events))
		for _, e := range events {
			out = append(out, e.ID)
		}
		return out
	}

	all, err := store.ListEvents(ctx, EventFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mumbai, err := store.ListEvents(ctx, EventFilter{City: "mumbai"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "c"}, ids(mumbai))

	upcoming, err := store.ListEvents(ctx, EventFilter{City: "Mumbai", EndingFrom: "2024-03-01"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(upcoming))

	search, err := store.ListEvents(ctx, EventFilter{Query: "JAZZ"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, ids(search))

	literal, err := store.ListEvents(ctx, EventFilter{Query: "100%"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, ids(literal))

	byLocation, err := store.ListEvents(ctx, EventFilter{Query: "hall b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids(byLocation))

	onDay, err := store.ListEvents(ctx, EventFilter{StartingOn: "2024-03-06"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids(onDay))
}

func TestStore_RSVPs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, _ := newTestStore(t)
	mustSaveUser(t, store, 1, "organiser")
	mustSaveUser(t, store, 2, "guest")
	mustSaveUser(t, store, 3, "friend")
	require.NoError(t, store.CreateEvent(ctx, testEvent("ev", 1, "Pune", "2024-03-05", "19:00:00")))

	ok, err := store.IsInterested(ctx, 2, "ev")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.AddInterest(ctx, 2, "ev"))
	require.NoError(t, store.AddInterest(ctx, 2, "ev"))
	ok, err = store.IsInterested(ctx, 2, "ev")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.AddGoing(ctx, 2, "ev"))
	require.NoError(t, store.AddGoing(ctx, 3, "ev"))

	details, err := store.GetEvent(ctx, "ev")
	require.NoError(t, err)
	assert.Equal(t, 1, details.NumInterested)
	assert.Equal(t, 2, details.NumGoing)

	users, err := store.GetGoingUserIDs(ctx, "ev")
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{2, 3}, users)

	events, err := store.GetGoingEvents(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "ev", events[0].ID)

	require.NoError(t, store.RemoveGoing(ctx, 2, "ev"))
	require.NoError(t, store.RemoveInterest(ctx, 2, "ev"))
	ok, err = store.IsGoing(ctx, 2, "ev")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = store.IsInterested(ctx, 2, "ev")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Error(t, store.AddGoing(ctx, 2, "missing-event"), "foreign keys are enforced")
}

func TestStore_DeleteEventsEndedBefore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, db := newTestStore(t)
	mustSaveUser(t, store, 1, "organiser")
	require.NoError(t, store.CreateEvent(ctx, testEvent("old", 1, "Pune", "2024-01-01", "10:00:00")))
	require.NoError(t, store.CreateEvent(ctx, testEvent("new", 1, "Pune", "2024-06-01", "10:00:00")))
	require.NoError(t, store.AddGoing(ctx, 1, "old"))

	deleted, err := store.DeleteEventsEndedBefore(ctx, "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var rsvps int
	require.NoError(t, db.Get(&rsvps, `SELECT COUNT(*) FROM going`))
	assert.Zero(t, rsvps)

	left, err := store.ListEvents(ctx, EventFilter{})
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "new", left[0].ID)
}

func TestStore_MaintenanceAndCancelledContext(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore(t)

	require.NoError(t, store.Ping(context.Background()))
	require.NoError(t, store.RunSQLMaintenance(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := store.ListEvents(ctx, EventFilter{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.RunSQLMaintenance(ctx), context.Canceled)
}
