// Package nest implements the event directory: profiles, events, RSVPs and
// the personal calendar, on top of the store and the session registry.
package nest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/edgard/nestbot/internal/clock"
	"github.com/edgard/nestbot/internal/database"
	"github.com/edgard/nestbot/internal/datetime"
	"github.com/edgard/nestbot/internal/sanitize"
	"github.com/edgard/nestbot/internal/session"
)

const (
	maxBioLength     = 500
	defaultFeedLimit = 10
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)

// Service is the application layer shared by the bot handlers and tasks.
type Service struct {
	store     database.Store
	sessions  *session.Registry
	clock     clock.Clock
	loc       *time.Location
	cities    []string
	feedLimit int
	newID     func() string
	logger    *slog.Logger
}

// Option customises a Service.
type Option func(*Service)

// WithFeedLimit caps the number of events returned by Events and Search.
func WithFeedLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.feedLimit = n
		}
	}
}

// WithLocation sets the zone event times are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithIDGenerator replaces the UUID generator for new events.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService wires a Service. cities is the list of supported cities in
// display order.
func NewService(store database.Store, sessions *session.Registry, clk clock.Clock, cities []string, opts ...Option) *Service {
	s := &Service{
		store:     store,
		sessions:  sessions,
		clock:     clk,
		loc:       time.Local,
		cities:    append([]string(nil), cities...),
		feedLimit: defaultFeedLimit,
		newID:     uuid.NewString,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "nest")
	return s
}

// Cities returns the supported cities.
func (s *Service) Cities() []string {
	return append([]string(nil), s.cities...)
}

// Location returns the zone event times are interpreted in.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Today returns the current calendar date in the events zone.
func (s *Service) Today() datetime.CalendarDate {
	return datetime.DateOf(s.clock.Now().In(s.loc))
}

// CanonicalCity resolves city case-insensitively to its configured spelling.
func (s *Service) CanonicalCity(city string) (string, bool) {
	city = strings.TrimSpace(city)
	for _, known := range s.cities {
		if strings.EqualFold(known, city) {
			return known, true
		}
	}
	return "", false
}

func toSessionUser(u *database.User) session.User {
	return session.User{
		ID:         u.ID,
		Username:   u.Username,
		Name:       u.Name,
		Bio:        u.Bio,
		ProfilePic: u.ProfilePic,
	}
}

// Register creates or renames the profile of userID and signs them in.
func (s *Service) Register(ctx context.Context, userID int64, username, name string) (*database.User, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	name = sanitize.Text(name)
	if !usernamePattern.MatchString(username) {
		return nil, ErrInvalidUsername
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	holder, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if holder != nil && holder.ID != userID {
		return nil, ErrUsernameTaken
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user = &database.User{ID: userID}
	}
	user.Username = username
	user.Name = name

	if err := s.store.SaveUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	s.sessions.SignIn(userID, toSessionUser(user))
	s.logger.InfoContext(ctx, "User registered", "user_id", userID, "username", username)
	return user, nil
}

// Authenticate returns the signed-in session of userID. A user seen for the
// first time since start-up is restored from the store; a user who signed
// out stays signed out until Login or Register.
func (s *Service) Authenticate(ctx context.Context, userID int64) (session.Session, error) {
	sess := s.sessions.Get(userID)
	switch sess.State {
	case session.Authenticated:
		return sess, nil
	case session.Unauthenticated:
		return sess, ErrNotRegistered
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return sess, err
	}
	if user == nil {
		s.sessions.SignOut(userID)
		return s.sessions.Get(userID), ErrNotRegistered
	}
	s.sessions.SignIn(userID, toSessionUser(user))
	return s.sessions.Get(userID), nil
}

// Login signs in a registered user.
func (s *Service) Login(ctx context.Context, userID int64) (*database.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotRegistered
	}
	s.sessions.SignIn(userID, toSessionUser(user))
	return user, nil
}

// SignOut ends the session of userID.
func (s *Service) SignOut(userID int64) {
	s.sessions.SignOut(userID)
}

// Profile returns the stored profile of userID.
func (s *Service) Profile(ctx context.Context, userID int64) (*database.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotRegistered
	}
	return user, nil
}

// UpdateBio replaces the bio of userID.
func (s *Service) UpdateBio(ctx context.Context, userID int64, bio string) (*database.User, error) {
	bio = sanitize.Text(bio)
	if utf8.RuneCountInString(bio) > maxBioLength {
		return nil, fmt.Errorf("%w: bio is longer than %d characters", ErrInvalidInput, maxBioLength)
	}
	return s.updateUser(ctx, userID, func(u *database.User) { u.Bio = bio })
}

// UpdateName replaces the display name of userID.
func (s *Service) UpdateName(ctx context.Context, userID int64, name string) (*database.User, error) {
	name = sanitize.Text(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	return s.updateUser(ctx, userID, func(u *database.User) { u.Name = name })
}

// SetProfilePic stores the Telegram file ID of the profile picture.
func (s *Service) SetProfilePic(ctx context.Context, userID int64, fileID string) (*database.User, error) {
	if fileID == "" {
		return nil, fmt.Errorf("%w: picture is required", ErrInvalidInput)
	}
	return s.updateUser(ctx, userID, func(u *database.User) { u.ProfilePic = fileID })
}

func (s *Service) updateUser(ctx context.Context, userID int64, mutate func(*database.User)) (*database.User, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	mutate(user)
	if err := s.store.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	s.sessions.Refresh(userID, toSessionUser(user))
	return user, nil
}

// CreateEvent validates form and stores a new event organised by organiserID.
func (s *Service) CreateEvent(ctx context.Context, organiserID int64, form EventForm) (*database.Event, error) {
	if _, err := s.Profile(ctx, organiserID); err != nil {
		return nil, err
	}

	event, err := form.Validate(s.cities)
	if err != nil {
		return nil, err
	}
	event.ID = s.newID()
	event.OrganiserID = organiserID

	if err := s.store.CreateEvent(ctx, &event); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Event created", "event_id", event.ID, "organiser_id", organiserID, "city", event.City)
	return &event, nil
}

// UpdateEvent replaces the fields of an event. Only its organiser may edit it.
func (s *Service) UpdateEvent(ctx context.Context, editorID int64, eventID string, form EventForm) (*database.Event, error) {
	current, err := s.ownedEvent(ctx, editorID, eventID)
	if err != nil {
		return nil, err
	}

	updated, err := form.Validate(s.cities)
	if err != nil {
		return nil, err
	}
	updated.ID = current.ID
	updated.OrganiserID = current.OrganiserID
	updated.Thumbnail = current.Thumbnail
	updated.CreatedAt = current.CreatedAt

	if err := s.saveEvent(ctx, &updated); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Event updated", "event_id", eventID, "editor_id", editorID)
	return &updated, nil
}

// SetThumbnail stores the Telegram file ID of an event's picture.
func (s *Service) SetThumbnail(ctx context.Context, editorID int64, eventID, fileID string) (*database.Event, error) {
	if fileID == "" {
		return nil, fmt.Errorf("%w: picture is required", ErrInvalidInput)
	}
	event, err := s.ownedEvent(ctx, editorID, eventID)
	if err != nil {
		return nil, err
	}
	event.Thumbnail = fileID
	if err := s.saveEvent(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *Service) ownedEvent(ctx context.Context, editorID int64, eventID string) (*database.Event, error) {
	details, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if details.OrganiserID != editorID {
		return nil, ErrForbidden
	}
	return &details.Event, nil
}

func (s *Service) saveEvent(ctx context.Context, event *database.Event) error {
	if err := s.store.UpdateEvent(ctx, event); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrEventNotFound
		}
		return err
	}
	return nil
}

func (s *Service) getEvent(ctx context.Context, eventID string) (*database.EventDetails, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil, ErrEventNotFound
	}
	details, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if details == nil {
		return nil, ErrEventNotFound
	}
	return details, nil
}

// EventView is an event as seen by one user.
type EventView struct {
	database.EventDetails
	Interested bool
	Going      bool
}

// Event returns an event with the viewer's RSVP state.
func (s *Service) Event(ctx context.Context, eventID string, viewerID int64) (*EventView, error) {
	details, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	view := &EventView{EventDetails: *details}
	if view.Interested, err = s.store.IsInterested(ctx, viewerID, details.ID); err != nil {
		return nil, err
	}
	if view.Going, err = s.store.IsGoing(ctx, viewerID, details.ID); err != nil {
		return nil, err
	}
	return view, nil
}

// Events returns the upcoming and ongoing events of a city in start order.
func (s *Service) Events(ctx context.Context, city string) ([]database.EventDetails, error) {
	canonical, ok := s.CanonicalCity(city)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownCity, city)
	}
	return s.listOrdered(ctx, database.EventFilter{
		City:       canonical,
		EndingFrom: datetime.FormatStorageDate(s.Today()),
	})
}

// Search matches query against the names, descriptions and locations of
// upcoming and ongoing events, optionally within one city, and returns the
// hits in start order.
func (s *Service) Search(ctx context.Context, query, city string) ([]database.EventDetails, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search text is required", ErrInvalidInput)
	}
	filter := database.EventFilter{
		Query:      query,
		EndingFrom: datetime.FormatStorageDate(s.Today()),
	}
	if strings.TrimSpace(city) != "" {
		canonical, ok := s.CanonicalCity(city)
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownCity, city)
		}
		filter.City = canonical
	}
	return s.listOrdered(ctx, filter)
}

// EventsByOrganiser returns every event userID created, past ones
// included, in start order.
func (s *Service) EventsByOrganiser(ctx context.Context, userID int64) ([]database.EventDetails, error) {
	events, err := s.store.ListEvents(ctx, database.EventFilter{OrganiserID: userID})
	if err != nil {
		return nil, err
	}
	return orderEvents(events)
}

func (s *Service) listOrdered(ctx context.Context, filter database.EventFilter) ([]database.EventDetails, error) {
	events, err := s.store.ListEvents(ctx, filter)
	if err != nil {
		return nil, err
	}
	ordered, err := orderEvents(events)
	if err != nil {
		return nil, err
	}
	if len(ordered) > s.feedLimit {
		ordered = ordered[:s.feedLimit]
	}
	return ordered, nil
}

func orderEvents(events []database.EventDetails) ([]database.EventDetails, error) {
	ordered, err := datetime.OrderByStart(events, func(e database.EventDetails) (string, string) {
		return e.Start()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to order events: %w", err)
	}
	return ordered, nil
}

// ToggleInterest flips whether userID is interested in an event and
// returns the new state.
func (s *Service) ToggleInterest(ctx context.Context, userID int64, eventID string) (bool, error) {
	return s.toggle(ctx, userID, eventID, s.store.IsInterested, s.store.AddInterest, s.store.RemoveInterest)
}

// ToggleGoing flips whether userID is going to an event and returns the
// new state.
func (s *Service) ToggleGoing(ctx context.Context, userID int64, eventID string) (bool, error) {
	return s.toggle(ctx, userID, eventID, s.store.IsGoing, s.store.AddGoing, s.store.RemoveGoing)
}

func (s *Service) toggle(
	ctx context.Context,
	userID int64,
	eventID string,
	has func(context.Context, int64, string) (bool, error),
	add, remove func(context.Context, int64, string) error,
) (bool, error) {
	details, err := s.getEvent(ctx, eventID)
	if err != nil {
		return false, err
	}
	on, err := has(ctx, userID, details.ID)
	if err != nil {
		return false, err
	}
	if on {
		return false, remove(ctx, userID, details.ID)
	}
	return true, add(ctx, userID, details.ID)
}

// CalendarDay groups the events starting on one storage date.
type CalendarDay struct {
	Date   string
	Events []database.EventDetails
}

// Calendar returns the events userID is going to, in start order and
// grouped by start date.
func (s *Service) Calendar(ctx context.Context, userID int64) ([]CalendarDay, error) {
	events, err := s.store.GetGoingEvents(ctx, userID)
	if err != nil {
		return nil, err
	}
	ordered, err := orderEvents(events)
	if err != nil {
		return nil, err
	}

	var days []CalendarDay
	index := make(map[string]int)
	for _, e := range ordered {
		i, ok := index[e.StartDate]
		if !ok {
			i = len(days)
			index[e.StartDate] = i
			days = append(days, CalendarDay{Date: e.StartDate})
		}
		days[i].Events = append(days[i].Events, e)
	}
	return days, nil
}

// Reminder pairs an event with the users going to it.
type Reminder struct {
	Event   database.EventDetails
	UserIDs []int64
}

// DueReminders returns the events starting on day that have at least one
// user going, in start order.
func (s *Service) DueReminders(ctx context.Context, day datetime.CalendarDate) ([]Reminder, error) {
	events, err := s.store.ListEvents(ctx, database.EventFilter{StartingOn: datetime.FormatStorageDate(day)})
	if err != nil {
		return nil, err
	}
	ordered, err := orderEvents(events)
	if err != nil {
		return nil, err
	}

	var reminders []Reminder
	for _, e := range ordered {
		users, err := s.store.GetGoingUserIDs(ctx, e.ID)
		if err != nil {
			return nil, err
		}
		if len(users) > 0 {
			reminders = append(reminders, Reminder{Event: e, UserIDs: users})
		}
	}
	return reminders, nil
}

// CleanupPastEvents deletes events that ended more than retentionDays ago.
func (s *Service) CleanupPastEvents(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays < 1 {
		return 0, fmt.Errorf("%w: retention must be at least one day", ErrInvalidInput)
	}
	cutoff := s.Today().AddDays(-retentionDays)
	return s.store.DeleteEventsEndedBefore(ctx, datetime.FormatStorageDate(cutoff))
}
