// Package session tracks who is signed in to the bot. Each Telegram user has
// a session that moves from Uninitialized to Authenticated and Unauthenticated
// as they register, come back after a restart, edit their profile or log out.
// Interested components subscribe to transitions instead of polling.
package session

import (
	"io"
	"log/slog"
	"sync"
)

// State is the lifecycle position of a session.
type State int

const (
	// Uninitialized means the registry has not yet looked the user up.
	Uninitialized State = iota
	// Authenticated means a stored user is attached to the session.
	Authenticated
	// Unauthenticated means the user is known to be signed out or unregistered.
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// User is the profile snapshot held by an authenticated session.
type User struct {
	ID         int64
	Username   string
	Name       string
	Bio        string
	ProfilePic string
}

// Session is a value copy of one user's session.
type Session struct {
	State State
	User  User
}

// Authenticated reports whether the session carries a user.
func (s Session) Authenticated() bool { return s.State == Authenticated }

// Change describes one transition.
type Change struct {
	UserID int64
	From   State
	To     State
	User   User
}

// Registry holds every session. It is safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[int64]Session
	subscribers map[int]chan Change
	nextSubID   int
	logger      *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Registry{
		sessions:    make(map[int64]Session),
		subscribers: make(map[int]chan Change),
		logger:      logger.With("component", "session"),
	}
}

// Get returns the session for userID, Uninitialized if never seen.
func (r *Registry) Get(userID int64) Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[userID]
}

// SignIn attaches user to the session.
func (r *Registry) SignIn(userID int64, user User) {
	r.transition(userID, Session{State: Authenticated, User: user})
}

// Refresh replaces the user snapshot of an authenticated session. It is a
// no-op for sessions that are not authenticated.
func (r *Registry) Refresh(userID int64, user User) {
	r.mu.Lock()
	cur := r.sessions[userID]
	if cur.State != Authenticated {
		r.mu.Unlock()
		return
	}
	r.sessions[userID] = Session{State: Authenticated, User: user}
	r.publishLocked(Change{UserID: userID, From: Authenticated, To: Authenticated, User: user})
	r.mu.Unlock()
}

// SignOut detaches any user from the session.
func (r *Registry) SignOut(userID int64) {
	r.transition(userID, Session{State: Unauthenticated})
}

// Subscribe returns a channel receiving every subsequent change and a cancel
// function that closes it. Changes are dropped for subscribers whose buffer
// is full.
func (r *Registry) Subscribe(buffer int) (<-chan Change, func()) {
	ch := make(chan Change, buffer)

	r.mu.Lock()
	id := r.nextSubID
	r.nextSubID++
	r.subscribers[id] = ch
	r.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subscribers, id)
			r.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (r *Registry) transition(userID int64, next Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.sessions[userID]
	r.sessions[userID] = next
	r.publishLocked(Change{UserID: userID, From: prev.State, To: next.State, User: next.User})
}

func (r *Registry) publishLocked(c Change) {
	for id, ch := range r.subscribers {
		select {
		case ch <- c:
		default:
			r.logger.Warn("Dropping session change for slow subscriber",
				"subscriber_id", id, "user_id", c.UserID, "to", c.To.String())
		}
	}
}
