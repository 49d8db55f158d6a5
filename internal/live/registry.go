// Package live tracks which users currently hold an open event stream and
// lets the login flow push a forced-logout notification to the connection
// being displaced.
package live

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Event names pushed over a live connection.
const (
	EventForceLogout = "forceLogout"
)

// Event is a message delivered to one live connection.
type Event struct {
	Name    string `json:"event"`
	Message string `json:"message"`
}

// Entry is one user's live connection. A user holds at most one entry;
// registering again overwrites the previous entry (last writer wins).
type Entry struct {
	UserID       string
	ConnectionID string
	UserAgent    string

	events chan Event
	closed bool
}

// Events exposes the connection's event channel for the stream handler.
func (e *Entry) Events() <-chan Event {
	return e.events
}

// Registry is an in-memory map of user id to live connection entry. It is
// process-local state: a restart forgets every connection, and clients
// simply reconnect. All methods are safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*Entry
	logger  *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
		logger:  logger.With("component", "live"),
	}
}

// Register records a live connection for userID, displacing any previous
// one. The displaced connection is sent a forced-logout event and its
// channel is closed so its stream handler returns.
func (r *Registry) Register(userID, userAgent string) *Entry {
	entry := &Entry{
		UserID:       userID,
		ConnectionID: "conn_" + uuid.New().String(),
		UserAgent:    userAgent,
		// Buffered so pushes never block a login on a slow consumer.
		events: make(chan Event, 4),
	}

	r.mu.Lock()
	old := r.entries[userID]
	r.entries[userID] = entry
	if old != nil {
		sendAndClose(old, Event{Name: EventForceLogout, Message: "You have been logged in from another device."})
	}
	r.mu.Unlock()

	if old != nil {
		r.logger.Info("connection displaced", "user_id", userID, "old_conn", old.ConnectionID, "new_conn", entry.ConnectionID)
	}
	r.logger.Debug("connection registered", "user_id", userID, "conn", entry.ConnectionID)
	return entry
}

// Unregister removes the entry whose connection id matches, for any user.
// Called when a stream closes. A connection already displaced by a newer
// Register is a no-op.
func (r *Registry) Unregister(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for userID, entry := range r.entries {
		if entry.ConnectionID == connectionID {
			delete(r.entries, userID)
			r.logger.Debug("connection unregistered", "user_id", userID, "conn", connectionID)
			return
		}
	}
}

// Lookup returns the live entry for userID, or nil when not connected.
func (r *Registry) Lookup(userID string) *Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[userID]
}

// UserAgent reports the client info of the user's live connection, empty
// when the user is not connected.
func (r *Registry) UserAgent(userID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry := r.entries[userID]; entry != nil {
		return entry.UserAgent
	}
	return ""
}

// ForceLogout pushes a forced-logout event to the user's live connection
// and removes the entry. The send is fire-and-forget: the connection may
// already be gone, and a full buffer is dropped rather than waited on.
// Returns whether a connection existed to notify.
func (r *Registry) ForceLogout(userID, message string) bool {
	r.mu.Lock()
	entry := r.entries[userID]
	if entry != nil {
		delete(r.entries, userID)
		sendAndClose(entry, Event{Name: EventForceLogout, Message: message})
	}
	r.mu.Unlock()

	if entry == nil {
		return false
	}
	r.logger.Info("forced logout sent", "user_id", userID, "conn", entry.ConnectionID)
	return true
}

// sendAndClose delivers an event without blocking and closes the channel.
// Callers must hold the registry lock so an entry is closed exactly once.
func sendAndClose(entry *Entry, ev Event) {
	if entry.closed {
		return
	}
	entry.closed = true
	select {
	case entry.events <- ev:
	default:
	}
	close(entry.events)
}
