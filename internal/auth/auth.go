// Package auth implements credential checking with account lockout and
// single-active-session enforcement.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/me/petms/internal/store"
	"github.com/me/petms/pkg/model"
)

const (
	// MaxAttempts is the number of consecutive failed logins that locks an
	// account.
	MaxAttempts = 3
	// LockDuration is the fixed length of a lockout window.
	LockDuration = 5 * time.Minute
)

// Rejection reasons surfaced to the login form. Unknown usernames and wrong
// passwords share one message so usernames cannot be enumerated.
const (
	ReasonMissingCredentials = "Please provide both username and password."
	ReasonInvalidCredentials = "Invalid username or password."
)

// Notifier pushes a forced-logout notification to a user's live connection,
// if one exists, and forgets the connection. Delivery is best-effort.
type Notifier interface {
	ForceLogout(userID, message string) bool
}

// Service validates login attempts and coordinates session takeover.
type Service struct {
	store    store.Store
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates an auth service. notifier may be nil when no live
// channel exists (e.g. the admin CLI).
func NewService(st store.Store, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		store:    st,
		notifier: notifier,
		logger:   logger.With("component", "auth"),
		now:      time.Now,
	}
}

// WithClock overrides the time source. Tests use this to step through lock
// windows without sleeping.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// AttemptLogin evaluates one login attempt.
//
// The returned error covers storage faults only; every credential or
// lockout verdict is expressed through the Outcome. On a correct password
// the lockout counters are NOT reset here; that happens atomically with
// the session-id write in EstablishSession, so a crash between the
// password check and session creation cannot silently clear lock state.
func (s *Service) AttemptLogin(ctx context.Context, username, password string) (model.Outcome, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return model.Rejected(ReasonMissingCredentials, -1), nil
	}

	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return model.Outcome{}, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return model.Rejected(ReasonInvalidCredentials, -1), nil
	}

	now := s.now()

	// Lazy lock expiry: a lock is only cleared when the account is next
	// touched.
	if user.LockExpired(now) {
		user.LoginAttempts = 0
		user.LockedUntil = nil
		if err := s.store.UpdateUser(ctx, user); err != nil {
			return model.Outcome{}, fmt.Errorf("clear expired lock: %w", err)
		}
	}

	if user.IsLocked(now) {
		return model.Locked(remainingMinutes(*user.LockedUntil, now)), nil
	}

	if err := CheckPassword(user.PasswordHash, password); err != nil {
		user.LoginAttempts++
		locked := user.LoginAttempts >= MaxAttempts
		if locked {
			until := now.Add(LockDuration)
			user.LockedUntil = &until
		}
		if err := s.store.UpdateUser(ctx, user); err != nil {
			return model.Outcome{}, fmt.Errorf("record failed attempt: %w", err)
		}

		if locked {
			s.logger.Warn("account locked", "username", username, "attempts", user.LoginAttempts)
			return model.Locked(int(LockDuration / time.Minute)), nil
		}
		return model.Rejected(ReasonInvalidCredentials, MaxAttempts-user.LoginAttempts), nil
	}

	return model.Authenticated(user), nil
}

// remainingMinutes computes the lock window left, rounded up, never below 1.
func remainingMinutes(until, now time.Time) int {
	mins := int((until.Sub(now) + time.Minute - 1) / time.Minute)
	if mins < 1 {
		mins = 1
	}
	return mins
}

// CreateUser registers a new account with a hashed password. The username
// must be unused; the password must be at least 6 characters and match its
// confirmation.
func (s *Service) CreateUser(ctx context.Context, username, password, confirm string, role model.UserRole) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, model.NewValidationError("All fields are required.")
	}
	if len(password) < 6 {
		return nil, model.NewValidationError("Password must be at least 6 characters.")
	}
	if password != confirm {
		return nil, model.NewValidationError("Passwords do not match.")
	}

	existing, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if existing != nil {
		return nil, model.NewConflictError("Username already taken.")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if role == "" {
		role = model.RoleStaff
	}
	user := &model.User{
		ID:           "user_" + uuid.New().String(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user created", "username", username, "role", role)
	return user, nil
}
