package ui

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/me/petms/internal/store"
	"github.com/me/petms/pkg/model"
)

func setupTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	logger := slog.Default()
	st, err := store.NewSQLiteStore(":memory:", logger)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	if err := st.Migrate(context.Background()); err != nil {
		st.Close()
		t.Fatalf("failed to migrate: %v", err)
	}

	t.Cleanup(func() { st.Close() })
	return st
}

// seedUser creates a user and, via currentSession, marks a session id as
// the account's authorized one.
func seedUser(t *testing.T, st *store.SQLiteStore, currentSession string) *model.User {
	t.Helper()

	user := &model.User{
		ID:               "user_1",
		Username:         "alice",
		PasswordHash:     []byte("$2a$10$notarealhash"),
		Role:             model.RoleStaff,
		CurrentSessionID: currentSession,
		CreatedAt:        time.Now(),
	}
	if err := st.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return user
}

func TestSessionManager_CreateAndGet(t *testing.T) {
	st := setupTestStore(t)
	sm := NewSessionManager(st)
	ctx := context.Background()

	user := seedUser(t, st, "")

	sess, err := sm.CreateSession(ctx, user)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if sess.ID == "" {
		t.Error("expected session ID to be set")
	}
	if sess.UserID != user.ID {
		t.Errorf("expected UserID %q, got %q", user.ID, sess.UserID)
	}
	if sess.Role != model.RoleStaff {
		t.Errorf("expected staff role, got %q", sess.Role)
	}

	// Mark the session as current so validation passes.
	user.CurrentSessionID = sess.ID
	if err := st.UpdateUser(ctx, user); err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}

	retrieved, err := sm.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if retrieved == nil {
		t.Fatal("expected session to be found")
	}
	if retrieved.Username != "alice" {
		t.Errorf("expected Username alice, got %q", retrieved.Username)
	}
}

func TestSessionManager_GetSession_NotFound(t *testing.T) {
	st := setupTestStore(t)
	sm := NewSessionManager(st)

	sess, err := sm.GetSession(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if sess != nil {
		t.Error("expected nil session for nonexistent ID")
	}
}

func TestSessionManager_GetSession_Expired(t *testing.T) {
	st := setupTestStore(t)
	sm := NewSessionManager(st)
	ctx := context.Background()

	seedUser(t, st, "sess_expired")

	sess := &model.Session{
		ID:        "sess_expired",
		UserID:    "user_1",
		Username:  "alice",
		Role:      model.RoleStaff,
		CreatedAt: time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-1 * time.Hour),
	}
	if err := st.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	retrieved, err := sm.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if retrieved != nil {
		t.Error("expected nil session for expired session")
	}

	// The expired record was cleaned up.
	stored, err := st.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("store GetSession failed: %v", err)
	}
	if stored != nil {
		t.Error("expected expired record deleted")
	}
}

func TestSessionManager_GetSession_SupersededSessionRejected(t *testing.T) {
	st := setupTestStore(t)
	sm := NewSessionManager(st)
	ctx := context.Background()

	// The account's authorized session is sess_new; a surviving sess_old
	// record (a revocation delete that was lost) must not authenticate.
	seedUser(t, st, "sess_new")

	old := &model.Session{
		ID:        "sess_old",
		UserID:    "user_1",
		Username:  "alice",
		Role:      model.RoleStaff,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := st.CreateSession(ctx, old); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	retrieved, err := sm.GetSession(ctx, "sess_old")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if retrieved != nil {
		t.Error("expected superseded session to be rejected")
	}

	stored, err := st.GetSession(ctx, "sess_old")
	if err != nil {
		t.Fatalf("store GetSession failed: %v", err)
	}
	if stored != nil {
		t.Error("expected superseded record deleted")
	}
}

func TestSessionManager_GetSessionFromRequest(t *testing.T) {
	st := setupTestStore(t)
	sm := NewSessionManager(st)
	ctx := context.Background()

	user := seedUser(t, st, "")
	sess, err := sm.CreateSession(ctx, user)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	user.CurrentSessionID = sess.ID
	if err := st.UpdateUser(ctx, user); err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sess.ID})

	retrieved, err := sm.GetSessionFromRequest(req)
	if err != nil {
		t.Fatalf("GetSessionFromRequest failed: %v", err)
	}
	if retrieved == nil {
		t.Fatal("expected session to be found")
	}

	// No cookie, no session, no error.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	retrieved, err = sm.GetSessionFromRequest(req)
	if err != nil {
		t.Fatalf("GetSessionFromRequest failed: %v", err)
	}
	if retrieved != nil {
		t.Error("expected nil session when no cookie")
	}
}

func TestSetSessionCookie(t *testing.T) {
	sess := &model.Session{
		ID:        "sess_test123",
		ExpiresAt: time.Now().Add(RecordDuration),
	}

	w := httptest.NewRecorder()
	SetSessionCookie(w, sess, false)

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}

	cookie := cookies[0]
	if cookie.Name != SessionCookieName {
		t.Errorf("expected cookie name %q, got %q", SessionCookieName, cookie.Name)
	}
	if cookie.Value != sess.ID {
		t.Errorf("expected cookie value %q, got %q", sess.ID, cookie.Value)
	}
	if !cookie.HttpOnly {
		t.Error("expected HttpOnly to be true")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("expected SameSite Lax, got %v", cookie.SameSite)
	}
	// The cookie lives 1 day even though the record lives longer.
	maxExpiry := time.Now().Add(CookieDuration + time.Minute)
	if cookie.Expires.After(maxExpiry) {
		t.Errorf("expected cookie expiry within %v, got %v", CookieDuration, cookie.Expires)
	}
}

func TestClearSessionCookie(t *testing.T) {
	w := httptest.NewRecorder()
	ClearSessionCookie(w)

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}

	cookie := cookies[0]
	if cookie.Name != SessionCookieName {
		t.Errorf("expected cookie name %q, got %q", SessionCookieName, cookie.Name)
	}
	if cookie.MaxAge != -1 {
		t.Errorf("expected MaxAge -1, got %d", cookie.MaxAge)
	}
}

func TestSession_IsExpired(t *testing.T) {
	tests := []struct {
		name     string
		expires  time.Time
		expected bool
	}{
		{"future", time.Now().Add(time.Hour), false},
		{"past", time.Now().Add(-time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := &model.Session{ExpiresAt: tt.expires}
			if got := sess.IsExpired(); got != tt.expected {
				t.Errorf("IsExpired() = %v, want %v", got, tt.expected)
			}
		})
	}
}
