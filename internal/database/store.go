package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrDuplicate is returned when a write violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate record")
	// ErrNotFound is returned by writes addressing a missing row.
	ErrNotFound = errors.New("record not found")
)

// RSVP tables.
const (
	tableInterests = "interests"
	tableGoing     = "going"
)

// Store defines the interface for database operations.
// Lookups return nil, nil when the row does not exist.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error

	GetUser(ctx context.Context, userID int64) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	// SaveUser inserts or updates a user. A username held by another user
	// yields ErrDuplicate.
	SaveUser(ctx context.Context, user *User) error

	CreateEvent(ctx context.Context, event *Event) error
	// UpdateEvent rewrites every mutable column; ErrNotFound if the event is gone.
	UpdateEvent(ctx context.Context, event *Event) error
	GetEvent(ctx context.Context, eventID string) (*EventDetails, error)
	// ListEvents returns matching events with their details in insertion
	// order. Callers order them chronologically.
	ListEvents(ctx context.Context, filter EventFilter) ([]EventDetails, error)

	AddInterest(ctx context.Context, userID int64, eventID string) error
	RemoveInterest(ctx context.Context, userID int64, eventID string) error
	IsInterested(ctx context.Context, userID int64, eventID string) (bool, error)

	AddGoing(ctx context.Context, userID int64, eventID string) error
	RemoveGoing(ctx context.Context, userID int64, eventID string) error
	IsGoing(ctx context.Context, userID int64, eventID string) (bool, error)

	// GetGoingEvents returns the events userID is going to.
	GetGoingEvents(ctx context.Context, userID int64) ([]EventDetails, error)
	// GetGoingUserIDs returns the users going to eventID.
	GetGoingUserIDs(ctx context.Context, eventID string) ([]int64, error)

	// DeleteEventsEndedBefore removes events whose end date is before the
	// given storage date and reports how many were deleted.
	DeleteEventsEndedBefore(ctx context.Context, date string) (int64, error)
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func isCtxErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

// inTx runs fn inside a transaction, rolling back unless fn and the commit
// both succeed.
func (s *sqlxStore) inTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction", "op", op, "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			s.logger.WarnContext(ctx, "Error rolling back transaction", "op", op, "error", rollbackErr)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction", "op", op, "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// RunSQLMaintenance refreshes planner statistics and then runs VACUUM,
// which SQLite only allows outside a transaction.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	if _, err := s.db.ExecContext(ctx, "PRAGMA optimize;"); err != nil {
		s.logger.WarnContext(ctx, "PRAGMA optimize failed", "error", err)
	}

	_, err := s.db.ExecContext(ctx, "VACUUM;")
	switch {
	case isCtxErr(err):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	return nil
}

const userColumns = `id, username, name, bio, profile_pic, created_at, updated_at`

// GetUser retrieves a user by Telegram user ID. Returns nil, nil if not found.
func (s *sqlxStore) GetUser(ctx context.Context, userID int64) (*User, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user_id cannot be zero")
	}
	return s.getUser(ctx, "user_id", userID, `SELECT `+userColumns+` FROM users WHERE id = ?`, userID)
}

// GetUserByUsername retrieves a user by username, ignoring case. Returns nil, nil if not found.
func (s *sqlxStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	if username == "" {
		return nil, fmt.Errorf("username cannot be empty")
	}
	return s.getUser(ctx, "username", username, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

func (s *sqlxStore) getUser(ctx context.Context, key string, value any, query string, args ...any) (*User, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var user User
	err := s.db.GetContext(ctx, &user, query, args...)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "No user found", key, value)
		return nil, nil

	case isCtxErr(err):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching user", key, value, "error", err)
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting user", key, value, "error", err)
		return nil, fmt.Errorf("failed to get user by %s %v: %w", key, value, err)
	}
	return &user, nil
}

// SaveUser inserts or updates a user keyed by ID.
func (s *sqlxStore) SaveUser(ctx context.Context, user *User) error {
	if user == nil {
		return fmt.Errorf("cannot save nil user")
	}
	if user.ID == 0 {
		return fmt.Errorf("user must have a non-zero id")
	}
	if user.Username == "" {
		return fmt.Errorf("user must have a non-empty username")
	}

	now := time.Now().UTC()
	user.UpdatedAt = now
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}

	query := `
		INSERT INTO users (id, username, name, bio, profile_pic, created_at, updated_at)
		VALUES (:id, :username, :name, :bio, :profile_pic, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			username = excluded.username,
			name = excluded.name,
			bio = excluded.bio,
			profile_pic = excluded.profile_pic,
			updated_at = excluded.updated_at
	`

	err := s.inTx(ctx, "save_user", func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, query, user); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("username %q: %w", user.Username, ErrDuplicate)
			}
			s.logger.ErrorContext(ctx, "Error saving user", "user_id", user.ID, "error", err)
			return fmt.Errorf("failed to save user %d: %w", user.ID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.DebugContext(ctx, "User saved successfully", "user_id", user.ID, "username", user.Username)
	return nil
}

const selectEventDetails = `
	SELECT e.id, e.organiser_id, e.name, e.description,
		e.start_date, e.start_time, e.end_date, e.end_time,
		e.location_name, e.location_url, e.city, e.thumbnail, e.created_at, e.updated_at,
		u.username AS organiser_username,
		u.name AS organiser_name,
		(SELECT COUNT(*) FROM interests i WHERE i.event_id = e.id) AS num_interested,
		(SELECT COUNT(*) FROM going gc WHERE gc.event_id = e.id) AS num_going
	FROM events e
	JOIN users u ON u.id = e.organiser_id`

// CreateEvent inserts a new event. The caller assigns the ID.
func (s *sqlxStore) CreateEvent(ctx context.Context, event *Event) error {
	if event == nil {
		return fmt.Errorf("cannot save nil event")
	}
	if event.ID == "" {
		return fmt.Errorf("event must have a non-empty id")
	}
	if event.OrganiserID == 0 {
		return fmt.Errorf("event must have a non-zero organiser_id")
	}

	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now

	query := `
		INSERT INTO events (
			id, organiser_id, name, description, start_date, start_time, end_date, end_time,
			location_name, location_url, city, thumbnail, created_at, updated_at
		) VALUES (
			:id, :organiser_id, :name, :description, :start_date, :start_time, :end_date, :end_time,
			:location_name, :location_url, :city, :thumbnail, :created_at, :updated_at
		)
	`

	err := s.inTx(ctx, "create_event", func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, query, event); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("event %s: %w", event.ID, ErrDuplicate)
			}
			s.logger.ErrorContext(ctx, "Error creating event", "event_id", event.ID, "error", err)
			return fmt.Errorf("failed to create event %s: %w", event.ID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.DebugContext(ctx, "Event created successfully", "event_id", event.ID, "city", event.City)
	return nil
}

// UpdateEvent rewrites the mutable columns of an existing event.
func (s *sqlxStore) UpdateEvent(ctx context.Context, event *Event) error {
	if event == nil {
		return fmt.Errorf("cannot save nil event")
	}
	if event.ID == "" {
		return fmt.Errorf("event must have a non-empty id")
	}

	event.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE events SET
			name = :name,
			description = :description,
			start_date = :start_date,
			start_time = :start_time,
			end_date = :end_date,
			end_time = :end_time,
			location_name = :location_name,
			location_url = :location_url,
			city = :city,
			thumbnail = :thumbnail,
			updated_at = :updated_at
		WHERE id = :id
	`

	err := s.inTx(ctx, "update_event", func(tx *sqlx.Tx) error {
		result, err := tx.NamedExecContext(ctx, query, event)
		if err != nil {
			s.logger.ErrorContext(ctx, "Error updating event", "event_id", event.ID, "error", err)
			return fmt.Errorf("failed to update event %s: %w", event.ID, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows for event %s: %w", event.ID, err)
		}
		if affected == 0 {
			return fmt.Errorf("event %s: %w", event.ID, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.DebugContext(ctx, "Event updated successfully", "event_id", event.ID)
	return nil
}

// GetEvent retrieves an event with its organiser and RSVP counts. Returns nil, nil if not found.
func (s *sqlxStore) GetEvent(ctx context.Context, eventID string) (*EventDetails, error) {
	if eventID == "" {
		return nil, fmt.Errorf("event_id cannot be empty")
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	query := selectEventDetails + ` WHERE e.id = ?`

	var details EventDetails
	err := s.db.GetContext(ctx, &details, query, eventID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "No event found", "event_id", eventID)
		return nil, nil

	case isCtxErr(err):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching event", "event_id", eventID, "error", err)
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting event", "event_id", eventID, "error", err)
		return nil, fmt.Errorf("failed to get event %s: %w", eventID, err)
	}
	return &details, nil
}

// likePattern builds a LIKE pattern matching q anywhere, with wildcards in q
// taken literally.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(q)) + "%"
}

// ListEvents returns the events matching filter.
func (s *sqlxStore) ListEvents(ctx context.Context, filter EventFilter) ([]EventDetails, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var (
		where []string
		args  []any
	)
	if filter.City != "" {
		where = append(where, "e.city = ? COLLATE NOCASE")
		args = append(args, filter.City)
	}
	if filter.Query != "" {
		pattern := likePattern(filter.Query)
		where = append(where, `(lower(e.name) LIKE ? ESCAPE '\' OR lower(e.description) LIKE ? ESCAPE '\' OR lower(e.location_name) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern)
	}
	if filter.EndingFrom != "" {
		where = append(where, "e.end_date >= ?")
		args = append(args, filter.EndingFrom)
	}
	if filter.StartingOn != "" {
		where = append(where, "e.start_date = ?")
		args = append(args, filter.StartingOn)
	}
	if filter.OrganiserID != 0 {
		where = append(where, "e.organiser_id = ?")
		args = append(args, filter.OrganiserID)
	}

	query := selectEventDetails
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY e.created_at, e.id`

	var events []EventDetails
	err := s.db.SelectContext(ctx, &events, query, args...)
	switch {
	case isCtxErr(err):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while listing events", "error", err)
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error listing events", "filter", filter, "error", err)
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	s.logger.DebugContext(ctx, "Listed events", "city", filter.City, "query", filter.Query, "count", len(events))
	return events, nil
}

func (s *sqlxStore) addRSVP(ctx context.Context, table string, userID int64, eventID string) error {
	query := `INSERT OR IGNORE INTO ` + table + ` (user_id, event_id, created_at) VALUES (?, ?, ?)`
	return s.inTx(ctx, "add_"+table, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, query, userID, eventID, time.Now().UTC()); err != nil {
			s.logger.ErrorContext(ctx, "Error adding RSVP", "table", table, "user_id", userID, "event_id", eventID, "error", err)
			return fmt.Errorf("failed to add %s for user %d event %s: %w", table, userID, eventID, err)
		}
		return nil
	})
}

func (s *sqlxStore) removeRSVP(ctx context.Context, table string, userID int64, eventID string) error {
	query := `DELETE FROM ` + table + ` WHERE user_id = ? AND event_id = ?`
	return s.inTx(ctx, "remove_"+table, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, query, userID, eventID); err != nil {
			s.logger.ErrorContext(ctx, "Error removing RSVP", "table", table, "user_id", userID, "event_id", eventID, "error", err)
			return fmt.Errorf("failed to remove %s for user %d event %s: %w", table, userID, eventID, err)
		}
		return nil
	})
}

func (s *sqlxStore) hasRSVP(ctx context.Context, table string, userID int64, eventID string) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM ` + table + ` WHERE user_id = ? AND event_id = ?)`
	if err := s.db.GetContext(ctx, &exists, query, userID, eventID); err != nil {
		if isCtxErr(err) {
			return false, err
		}
		s.logger.ErrorContext(ctx, "Error checking RSVP", "table", table, "user_id", userID, "event_id", eventID, "error", err)
		return false, fmt.Errorf("failed to check %s for user %d event %s: %w", table, userID, eventID, err)
	}
	return exists, nil
}

func (s *sqlxStore) AddInterest(ctx context.Context, userID int64, eventID string) error {
	return s.addRSVP(ctx, tableInterests, userID, eventID)
}

func (s *sqlxStore) RemoveInterest(ctx context.Context, userID int64, eventID string) error {
	return s.removeRSVP(ctx, tableInterests, userID, eventID)
}

func (s *sqlxStore) IsInterested(ctx context.Context, userID int64, eventID string) (bool, error) {
	return s.hasRSVP(ctx, tableInterests, userID, eventID)
}

func (s *sqlxStore) AddGoing(ctx context.Context, userID int64, eventID string) error {
	return s.addRSVP(ctx, tableGoing, userID, eventID)
}

func (s *sqlxStore) RemoveGoing(ctx context.Context, userID int64, eventID string) error {
	return s.removeRSVP(ctx, tableGoing, userID, eventID)
}

func (s *sqlxStore) IsGoing(ctx context.Context, userID int64, eventID string) (bool, error) {
	return s.hasRSVP(ctx, tableGoing, userID, eventID)
}

// GetGoingEvents returns the events userID is going to, in RSVP order.
func (s *sqlxStore) GetGoingEvents(ctx context.Context, userID int64) ([]EventDetails, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	query := selectEventDetails + `
		JOIN going g ON g.event_id = e.id
		WHERE g.user_id = ?
		ORDER BY g.created_at, e.id`

	var events []EventDetails
	if err := s.db.SelectContext(ctx, &events, query, userID); err != nil {
		if isCtxErr(err) {
			return nil, err
		}
		s.logger.ErrorContext(ctx, "Error getting going events", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get going events for user %d: %w", userID, err)
	}
	return events, nil
}

// GetGoingUserIDs returns the IDs of users going to eventID.
func (s *sqlxStore) GetGoingUserIDs(ctx context.Context, eventID string) ([]int64, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var ids []int64
	query := `SELECT user_id FROM going WHERE event_id = ? ORDER BY created_at, user_id`
	if err := s.db.SelectContext(ctx, &ids, query, eventID); err != nil {
		if isCtxErr(err) {
			return nil, err
		}
		s.logger.ErrorContext(ctx, "Error getting going users", "event_id", eventID, "error", err)
		return nil, fmt.Errorf("failed to get going users for event %s: %w", eventID, err)
	}
	return ids, nil
}

// DeleteEventsEndedBefore deletes events (and, by cascade, their RSVPs)
// whose end date is before date.
func (s *sqlxStore) DeleteEventsEndedBefore(ctx context.Context, date string) (int64, error) {
	if date == "" {
		return 0, fmt.Errorf("cutoff date cannot be empty")
	}

	var deleted int64
	err := s.inTx(ctx, "delete_past_events", func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM events WHERE end_date < ?`, date)
		if err != nil {
			s.logger.ErrorContext(ctx, "Error deleting past events", "before", date, "error", err)
			return fmt.Errorf("failed to delete events ended before %s: %w", date, err)
		}
		deleted, err = result.RowsAffected()
		if err != nil {
			s.logger.WarnContext(ctx, "Could not read affected rows after deleting past events", "error", err)
			deleted = 0
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "Deleted past events", "before", date, "count", deleted)
	return deleted, nil
}
