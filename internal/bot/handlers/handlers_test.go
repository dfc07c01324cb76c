package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/nestbot/internal/clock"
	"github.com/edgard/nestbot/internal/config"
	"github.com/edgard/nestbot/internal/database"
	"github.com/edgard/nestbot/internal/nest"
	"github.com/edgard/nestbot/internal/session"
)

const chatID = 42

type sentPhoto struct {
	fileID, caption string
}

type sentDocument struct {
	filename, caption string
	data              []byte
}

// fakeSender records everything the handlers send.
type fakeSender struct {
	mu        sync.Mutex
	messages  []string
	photos    []sentPhoto
	documents []sentDocument
}

func (f *fakeSender) SendMessage(_ context.Context, p *bot.SendMessageParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, p.Text)
	return &models.Message{}, nil
}

func (f *fakeSender) SendPhoto(_ context.Context, p *bot.SendPhotoParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	photo, _ := p.Photo.(*models.InputFileString)
	if photo == nil {
		return nil, fmt.Errorf("unexpected photo type %T", p.Photo)
	}
	f.photos = append(f.photos, sentPhoto{fileID: photo.Data, caption: p.Caption})
	return &models.Message{}, nil
}

func (f *fakeSender) SendDocument(_ context.Context, p *bot.SendDocumentParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, _ := p.Document.(*models.InputFileUpload)
	if doc == nil {
		return nil, fmt.Errorf("unexpected document type %T", p.Document)
	}
	data, err := io.ReadAll(doc.Data)
	if err != nil {
		return nil, err
	}
	f.documents = append(f.documents, sentDocument{filename: doc.Filename, caption: p.Caption, data: data})
	return &models.Message{}, nil
}

// last returns the most recent text message and clears the log.
func (f *fakeSender) last(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.messages, "no message sent")
	msg := f.messages[len(f.messages)-1]
	f.messages = nil
	return msg
}

type testEnv struct {
	deps     HandlerDeps
	sender   *fakeSender
	handlers map[string]RegisteredHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("telegram:\n  token: \"123:abc\"\nevents:\n  cities: [Mumbai, Pune]\n"), 0o600))
	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	cfg.Telegram.BotInfo = &models.User{Username: "nest_test_bot"}

	db, err := database.NewDB(filepath.Join(dir, "nest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })

	ist := time.FixedZone("IST", 5*3600+30*60)
	n := 0
	svc := nest.NewService(
		database.NewStore(db, nil),
		session.NewRegistry(nil),
		clock.NewFixed(time.Date(2024, time.March, 5, 10, 0, 0, 0, ist)),
		cfg.Events.Cities,
		nest.WithLocation(ist),
		nest.WithIDGenerator(func() string { n++; return fmt.Sprintf("ev-%d", n) }),
	)

	sender := &fakeSender{}
	deps := HandlerDeps{
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config:  cfg,
		Service: svc,
		Sender:  sender,
	}
	return &testEnv{deps: deps, sender: sender, handlers: RegisterAllCommands(deps)}
}

func textUpdate(userID int64, text string) *models.Update {
	return &models.Update{Message: &models.Message{
		Chat: models.Chat{ID: chatID},
		From: &models.User{ID: userID},
		Text: text,
	}}
}

func photoUpdate(userID int64, caption, fileID string) *models.Update {
	return &models.Update{Message: &models.Message{
		Chat:    models.Chat{ID: chatID},
		From:    &models.User{ID: userID},
		Caption: caption,
		Photo: []models.PhotoSize{
			{FileID: fileID + "-small", Width: 90, Height: 90},
			{FileID: fileID, Width: 800, Height: 800},
		},
	}}
}

// send runs the registered handler for key, with its middleware, and
// returns the last reply.
func (e *testEnv) send(t *testing.T, key string, update *models.Update) string {
	t.Helper()
	reg, ok := e.handlers[key]
	require.True(t, ok, "no handler registered for %s", key)
	h := reg.Handler
	for i := len(reg.Middleware) - 1; i >= 0; i-- {
		h = reg.Middleware[i](h)
	}
	h(context.Background(), nil, update)
	return e.sender.last(t)
}

const createArgs = "Jazz Night | Live trio | 6/3/2024 | 7:00 PM | 6/3/2024 | 10:30 PM | Blue Frog | https://maps.example.com/bf | mumbai"

func (e *testEnv) registerAndCreate(t *testing.T) {
	t.Helper()
	e.send(t, "/register", textUpdate(1, "/register olga Olga Organiser"))
	out := e.send(t, "/create", textUpdate(1, "/create "+createArgs))
	require.Equal(t, "✅ Event created successfully. ID: ev-1", out)
}

func TestCommandArgs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", commandArgs("/me"))
	assert.Equal(t, "hello world", commandArgs("/bio   hello world  "))
	assert.Equal(t, "ev-1", commandArgs("/event\nev-1"))
	assert.Equal(t, "plain", commandArgs(" plain "))
	assert.Equal(t, []string{"a", "b", ""}, splitPipe(" a |b| "))
}

func TestParseForm(t *testing.T) {
	t.Parallel()

	_, ok := parseForm(splitPipe("a | b"), nest.EventForm{})
	assert.False(t, ok)

	base := nest.EventForm{Name: "Old", City: "Pune", StartTime: "7:00 PM"}
	form, ok := parseForm(splitPipe("New | - | | - | - | - | - | - | -"), base)
	require.True(t, ok)
	assert.Equal(t, "New", form.Name)
	assert.Equal(t, "Pune", form.City)
	assert.Equal(t, "7:00 PM", form.StartTime)
}

func TestStartAndHelp(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	assert.Contains(t, env.send(t, "/start", textUpdate(1, "/start")), "Welcome to Nest")
	assert.Contains(t, env.send(t, "/help", textUpdate(1, "/help")), "/register")
	assert.Equal(t, "Supported cities:\n• Mumbai\n• Pune", env.send(t, "/cities", textUpdate(1, "/cities")))
}

func TestRequireSession(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	out := env.send(t, "/me", textUpdate(7, "/me"))
	assert.Equal(t, env.deps.Config.Messages.NotRegistered, out)

	env.send(t, "/register", textUpdate(7, "/register alice Alice"))
	assert.Equal(t, "👤 Alice (@alice)\n\nNo bio yet. Add one with /bio.", env.send(t, "/me", textUpdate(7, "/me")))

	assert.Equal(t, env.deps.Config.Messages.LoggedOut, env.send(t, "/logout", textUpdate(7, "/logout")))
	assert.Equal(t, env.deps.Config.Messages.NotRegistered, env.send(t, "/me", textUpdate(7, "/me")))

	assert.Equal(t, "✅ Welcome back, Alice!", env.send(t, "/login", textUpdate(7, "/login")))
	assert.Contains(t, env.send(t, "/me", textUpdate(7, "/me")), "@alice")
}

func TestMeListsOrganisedEvents(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.registerAndCreate(t)
	env.send(t, "/register", textUpdate(2, "/register bob Bob"))

	reg := env.handlers["/me"]
	RequireSession(env.deps)(reg.Handler)(context.Background(), nil, textUpdate(1, "/me"))
	assert.Equal(t, []string{
		"👤 Olga Organiser (@olga)\n\nNo bio yet. Add one with /bio.",
		"🎫 Your events\n• 6/3/2024 7:00 PM Jazz Night /event ev-1",
	}, env.sender.messages)

	assert.Equal(t, "👤 Bob (@bob)\n\nNo bio yet. Add one with /bio.", env.send(t, "/me", textUpdate(2, "/me")))
}

func TestRegister(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	msgs := env.deps.Config.Messages

	assert.Equal(t, msgs.RegisterUsage, env.send(t, "/register", textUpdate(1, "/register alice")))
	assert.Equal(t, msgs.InvalidUsername, env.send(t, "/register", textUpdate(1, "/register a! Alice")))
	assert.Equal(t, "✅ Welcome, Alice Smith! You're signed in as @alice.",
		env.send(t, "/register", textUpdate(1, "/register @alice Alice Smith")))
	assert.Equal(t, msgs.UsernameTaken, env.send(t, "/register", textUpdate(2, "/register ALICE Other")))
	assert.Equal(t, msgs.NotRegistered, env.send(t, "/login", textUpdate(3, "/login")))
}

func TestProfileEditing(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	msgs := env.deps.Config.Messages
	env.send(t, "/register", textUpdate(1, "/register alice Alice"))

	assert.Equal(t, msgs.BioUsage, env.send(t, "/bio", textUpdate(1, "/bio")))
	assert.Equal(t, msgs.BioUpdated, env.send(t, "/bio", textUpdate(1, "/bio Jazz lover")))
	assert.Equal(t, msgs.NameUsage, env.send(t, "/name", textUpdate(1, "/name  ")))
	assert.Equal(t, msgs.NameUpdated, env.send(t, "/name", textUpdate(1, "/name Alice B")))

	assert.Equal(t, msgs.AvatarUsage, env.send(t, "/avatar", textUpdate(1, "/avatar")))
	assert.Equal(t, msgs.AvatarUpdated, env.send(t, "/avatar photo", photoUpdate(1, "/avatar", "pic-1")))

	reg := env.handlers["/me"]
	RequireSession(env.deps)(reg.Handler)(context.Background(), nil, textUpdate(1, "/me"))
	require.Len(t, env.sender.photos, 1)
	assert.Equal(t, "pic-1", env.sender.photos[0].fileID)
	assert.Equal(t, "👤 Alice B (@alice)\n\nJazz lover", env.sender.photos[0].caption)
}

func TestCreateAndBrowseEvents(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	msgs := env.deps.Config.Messages
	env.registerAndCreate(t)

	assert.Equal(t, msgs.CreateUsage, env.send(t, "/create", textUpdate(1, "/create")))
	assert.Equal(t, msgs.CreateUsage, env.send(t, "/create", textUpdate(1, "/create a | b")))

	out := env.send(t, "/create", textUpdate(1,
		"/create Late | Desc | 6/3/2024 | 9:00 PM | 6/3/2024 | 8:00 PM | Club | not a url | Paris"))
	assert.Equal(t, "🚫 Please fix the following:\n"+
		"• End Time should be after start time\n"+
		"• Location URL is invalid\n"+
		"• City must be one of: Mumbai, Pune", out)

	assert.Equal(t, msgs.EventsUsage, env.send(t, "/events", textUpdate(1, "/events")))
	assert.Equal(t, `🚫 Unknown city "Paris". See /cities.`, env.send(t, "/events", textUpdate(1, "/events Paris")))
	assert.Equal(t, "No upcoming events in Pune yet.", env.send(t, "/events", textUpdate(1, "/events pune")))

	feed := env.send(t, "/events", textUpdate(1, "/events mumbai"))
	assert.True(t, strings.HasPrefix(feed, "📆 Upcoming in Mumbai:\n\n🎫 Jazz Night\nTomorrow, 7:00 PM"), feed)

	assert.Equal(t, msgs.SearchUsage, env.send(t, "/search", textUpdate(1, "/search")))
	assert.Equal(t, msgs.NoResults, env.send(t, "/search", textUpdate(1, "/search jazz | Pune")))
	assert.Contains(t, env.send(t, "/search", textUpdate(1, "/search trio")), "/event ev-1")

	assert.Equal(t, msgs.EventUsage, env.send(t, "/event", textUpdate(1, "/event")))
	assert.Equal(t, msgs.EventNotFound, env.send(t, "/event", textUpdate(1, "/event nope")))
	details := env.send(t, "/event", textUpdate(1, "/event ev-1"))
	assert.Contains(t, details, "🗓 Starts: 6/3/2024 (Tomorrow) 7:00 PM")
	assert.Empty(t, env.sender.photos)
}

func TestEditAndThumbnail(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	msgs := env.deps.Config.Messages
	env.registerAndCreate(t)
	env.send(t, "/register", textUpdate(2, "/register bob Bob"))

	keep := " | - | - | - | - | - | - | - | - | -"
	assert.Equal(t, msgs.EditUsage, env.send(t, "/edit", textUpdate(1, "/edit ev-1")))
	assert.Equal(t, msgs.Forbidden, env.send(t, "/edit", textUpdate(2, "/edit ev-1"+keep)))
	assert.Equal(t, msgs.EventNotFound, env.send(t, "/edit", textUpdate(1, "/edit nope"+keep)))

	assert.Equal(t, msgs.EventUpdated,
		env.send(t, "/edit", textUpdate(1, "/edit ev-1 | Jazz Night II | - | - | 8:00 PM | - | - | - | - | -")))
	details := env.send(t, "/event", textUpdate(1, "/event ev-1"))
	assert.Contains(t, details, "🎫 Jazz Night II")
	assert.Contains(t, details, "(Tomorrow) 8:00 PM")

	assert.Equal(t, msgs.ThumbnailUsage, env.send(t, "/thumbnail", textUpdate(1, "/thumbnail ev-1")))
	assert.Equal(t, msgs.Forbidden, env.send(t, "/thumbnail photo", photoUpdate(2, "/thumbnail ev-1", "thumb")))
	assert.Equal(t, msgs.ThumbnailUpdated, env.send(t, "/thumbnail photo", photoUpdate(1, "/thumbnail ev-1", "thumb")))

	env.send(t, "/event", textUpdate(2, "/event ev-1"))
	require.Len(t, env.sender.photos, 1)
	assert.Equal(t, sentPhoto{fileID: "thumb", caption: "Jazz Night II"}, env.sender.photos[0])
}

func TestRSVPAndCalendar(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	msgs := env.deps.Config.Messages
	env.registerAndCreate(t)
	env.send(t, "/register", textUpdate(2, "/register bob Bob"))

	assert.Equal(t, msgs.CalendarEmpty, env.send(t, "/calendar", textUpdate(2, "/calendar")))
	assert.Equal(t, msgs.CalendarEmpty, env.send(t, "/ics", textUpdate(2, "/ics")))

	assert.Equal(t, msgs.EventUsage, env.send(t, "/going", textUpdate(2, "/going")))
	assert.Equal(t, msgs.EventNotFound, env.send(t, "/going", textUpdate(2, "/going nope")))
	assert.Equal(t, msgs.InterestAdded, env.send(t, "/interested", textUpdate(2, "/interested ev-1")))
	assert.Equal(t, msgs.InterestRemoved, env.send(t, "/interested", textUpdate(2, "/interested ev-1")))
	assert.Equal(t, msgs.GoingAdded, env.send(t, "/going", textUpdate(2, "/going ev-1")))

	assert.Equal(t, "📅 Tomorrow (6/3/2024)\n• 7:00 PM Jazz Night, Blue Frog /event ev-1",
		env.send(t, "/calendar", textUpdate(2, "/calendar")))

	reg := env.handlers["/ics"]
	RequireSession(env.deps)(reg.Handler)(context.Background(), nil, textUpdate(2, "/ics"))
	require.Len(t, env.sender.documents, 1)
	doc := env.sender.documents[0]
	assert.Equal(t, "nest.ics", doc.filename)
	assert.Equal(t, msgs.CalendarCaption, doc.caption)
	assert.Contains(t, string(doc.data), "SUMMARY:Jazz Night")

	assert.Equal(t, msgs.GoingRemoved, env.send(t, "/going", textUpdate(2, "/going ev-1")))
}

func TestRegistryMenu(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	for key, reg := range env.handlers {
		assert.NotNil(t, reg.Handler, key)
		if reg.HandlerType == bot.HandlerTypePhotoCaption {
			assert.Equal(t, bot.MatchTypePrefix, reg.MatchType, key)
			assert.Empty(t, reg.Description, key)
		}
	}
	assert.Len(t, env.handlers["/me"].Middleware, 1)
	assert.Nil(t, env.handlers["/register"].Middleware)
}

func TestErrorText(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	msgs := env.deps.Config.Messages

	text, ok := errorText(fmt.Errorf("wrapped: %w", nest.ErrForbidden), msgs)
	assert.True(t, ok)
	assert.Equal(t, msgs.Forbidden, text)

	text, ok = errorText(fmt.Errorf("%w: bio is longer than 500 characters", nest.ErrInvalidInput), msgs)
	assert.True(t, ok)
	assert.Equal(t, "🚫 bio is longer than 500 characters", text)

	text, ok = errorText(io.ErrUnexpectedEOF, msgs)
	assert.False(t, ok)
	assert.Equal(t, msgs.GeneralError, text)
}
