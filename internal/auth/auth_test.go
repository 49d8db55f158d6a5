package auth

import (
	"context"
	"log/slog"
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

	return st
}

// fakeNotifier records forced-logout pushes.
type fakeNotifier struct {
	userID  string
	message string
	calls   int
	online  bool
}

func (f *fakeNotifier) ForceLogout(userID, message string) bool {
	f.userID = userID
	f.message = message
	f.calls++
	return f.online
}

// fakeClock is a settable time source.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func setupService(t *testing.T) (*Service, *store.SQLiteStore, *fakeNotifier, *fakeClock) {
	t.Helper()

	st := setupTestStore(t)
	t.Cleanup(func() { st.Close() })

	notifier := &fakeNotifier{online: true}
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewService(st, notifier, slog.Default()).WithClock(clock.Now)
	return svc, st, notifier, clock
}

func mustCreateUser(t *testing.T, svc *Service, username, password string) *model.User {
	t.Helper()
	user, err := svc.CreateUser(context.Background(), username, password, password, model.RoleStaff)
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return user
}

func TestAttemptLogin_MissingCredentials(t *testing.T) {
	svc, _, _, _ := setupService(t)

	for _, pair := range [][2]string{{"", ""}, {"alice", ""}, {"", "secret"}, {"   ", "   "}} {
		out, err := svc.AttemptLogin(context.Background(), pair[0], pair[1])
		if err != nil {
			t.Fatalf("AttemptLogin failed: %v", err)
		}
		if out.Kind != model.OutcomeRejected {
			t.Errorf("credentials %q/%q: expected rejection, got %v", pair[0], pair[1], out.Kind)
		}
		if out.Reason != ReasonMissingCredentials {
			t.Errorf("expected missing-credentials reason, got %q", out.Reason)
		}
	}
}

func TestAttemptLogin_UnknownUsername(t *testing.T) {
	svc, _, _, _ := setupService(t)

	out, err := svc.AttemptLogin(context.Background(), "nobody", "whatever")
	if err != nil {
		t.Fatalf("AttemptLogin failed: %v", err)
	}
	if out.Kind != model.OutcomeRejected {
		t.Fatalf("expected rejection, got %v", out.Kind)
	}
	// Same message as a wrong password, so usernames cannot be probed.
	if out.Reason != ReasonInvalidCredentials {
		t.Errorf("expected invalid-credentials reason, got %q", out.Reason)
	}
	if out.RemainingAttempts != -1 {
		t.Errorf("expected no attempt count for unknown user, got %d", out.RemainingAttempts)
	}
}

func TestAttemptLogin_WrongPasswordCountsDown(t *testing.T) {
	svc, _, _, _ := setupService(t)
	mustCreateUser(t, svc, "alice", "correct-horse")
	ctx := context.Background()

	for i, want := range []int{2, 1} {
		out, err := svc.AttemptLogin(ctx, "alice", "wrong")
		if err != nil {
			t.Fatalf("attempt %d failed: %v", i+1, err)
		}
		if out.Kind != model.OutcomeRejected {
			t.Fatalf("attempt %d: expected rejection, got %v", i+1, out.Kind)
		}
		if out.RemainingAttempts != want {
			t.Errorf("attempt %d: expected %d remaining, got %d", i+1, want, out.RemainingAttempts)
		}
	}
}

func TestAttemptLogin_ThirdFailureLocks(t *testing.T) {
	svc, st, _, _ := setupService(t)
	mustCreateUser(t, svc, "alice", "correct-horse")
	ctx := context.Background()

	svc.AttemptLogin(ctx, "alice", "wrong")
	svc.AttemptLogin(ctx, "alice", "wrong")

	out, err := svc.AttemptLogin(ctx, "alice", "wrong")
	if err != nil {
		t.Fatalf("AttemptLogin failed: %v", err)
	}
	if out.Kind != model.OutcomeLocked {
		t.Fatalf("expected lockout, got %v", out.Kind)
	}
	if out.RemainingMinutes != 5 {
		t.Errorf("expected 5 minute lock, got %d", out.RemainingMinutes)
	}

	user, err := st.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername failed: %v", err)
	}
	if user.LockedUntil == nil {
		t.Fatal("expected LockedUntil to be persisted")
	}
	if user.LoginAttempts != 3 {
		t.Errorf("expected 3 recorded attempts, got %d", user.LoginAttempts)
	}
}

func TestAttemptLogin_CorrectPasswordWhileLocked(t *testing.T) {
	svc, _, _, clock := setupService(t)
	mustCreateUser(t, svc, "alice", "correct-horse")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		svc.AttemptLogin(ctx, "alice", "wrong")
	}

	clock.Advance(2*time.Minute + 30*time.Second)

	// The right password does not bypass an active lock.
	out, err := svc.AttemptLogin(ctx, "alice", "correct-horse")
	if err != nil {
		t.Fatalf("AttemptLogin failed: %v", err)
	}
	if out.Kind != model.OutcomeLocked {
		t.Fatalf("expected lockout, got %v", out.Kind)
	}
	// 2.5 minutes left rounds up to 3.
	if out.RemainingMinutes != 3 {
		t.Errorf("expected 3 remaining minutes, got %d", out.RemainingMinutes)
	}
}

func TestAttemptLogin_LockExpiresLazily(t *testing.T) {
	svc, st, _, clock := setupService(t)
	mustCreateUser(t, svc, "alice", "correct-horse")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		svc.AttemptLogin(ctx, "alice", "wrong")
	}

	clock.Advance(5*time.Minute + time.Second)

	// First failure after expiry counts from a clean slate.
	out, err := svc.AttemptLogin(ctx, "alice", "wrong")
	if err != nil {
		t.Fatalf("AttemptLogin failed: %v", err)
	}
	if out.Kind != model.OutcomeRejected {
		t.Fatalf("expected rejection after lock expiry, got %v", out.Kind)
	}
	if out.RemainingAttempts != 2 {
		t.Errorf("expected 2 remaining after reset, got %d", out.RemainingAttempts)
	}

	user, err := st.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername failed: %v", err)
	}
	if user.LockedUntil != nil {
		t.Error("expected expired lock to be cleared in the store")
	}
}

func TestAttemptLogin_SuccessAfterExpiredLock(t *testing.T) {
	svc, _, _, clock := setupService(t)
	mustCreateUser(t, svc, "alice", "correct-horse")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		svc.AttemptLogin(ctx, "alice", "wrong")
	}
	clock.Advance(6 * time.Minute)

	out, err := svc.AttemptLogin(ctx, "alice", "correct-horse")
	if err != nil {
		t.Fatalf("AttemptLogin failed: %v", err)
	}
	if out.Kind != model.OutcomeAuthenticated {
		t.Fatalf("expected authentication after lock expiry, got %v", out.Kind)
	}
	if out.User == nil || out.User.Username != "alice" {
		t.Error("expected authenticated user to be returned")
	}
}

func TestAttemptLogin_SuccessDoesNotResetCounterItself(t *testing.T) {
	svc, st, _, _ := setupService(t)
	mustCreateUser(t, svc, "alice", "correct-horse")
	ctx := context.Background()

	svc.AttemptLogin(ctx, "alice", "wrong")
	svc.AttemptLogin(ctx, "alice", "wrong")

	out, err := svc.AttemptLogin(ctx, "alice", "correct-horse")
	if err != nil {
		t.Fatalf("AttemptLogin failed: %v", err)
	}
	if out.Kind != model.OutcomeAuthenticated {
		t.Fatalf("expected authentication, got %v", out.Kind)
	}

	// The counter reset happens in EstablishSession, atomically with the
	// session-id write, not here.
	user, err := st.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername failed: %v", err)
	}
	if user.LoginAttempts != 2 {
		t.Errorf("expected counter still at 2 before session establishment, got %d", user.LoginAttempts)
	}
}

func TestAttemptLogin_TrimsWhitespace(t *testing.T) {
	svc, _, _, _ := setupService(t)
	mustCreateUser(t, svc, "alice", "correct-horse")

	out, err := svc.AttemptLogin(context.Background(), "  alice  ", "  correct-horse  ")
	if err != nil {
		t.Fatalf("AttemptLogin failed: %v", err)
	}
	if out.Kind != model.OutcomeAuthenticated {
		t.Errorf("expected authentication with padded input, got %v", out.Kind)
	}
}

func TestCreateUser_Validation(t *testing.T) {
	svc, _, _, _ := setupService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		confirm  string
	}{
		{"empty username", "", "secret1", "secret1"},
		{"short password", "bob", "abc", "abc"},
		{"mismatched confirm", "bob", "secret1", "secret2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateUser(ctx, tt.username, tt.password, tt.confirm, model.RoleStaff)
			if err == nil {
				t.Fatal("expected validation error")
			}
			apiErr, ok := err.(*model.APIError)
			if !ok {
				t.Fatalf("expected APIError, got %T", err)
			}
			if apiErr.Code != model.ErrValidation {
				t.Errorf("expected validation code, got %s", apiErr.Code)
			}
		})
	}
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	svc, _, _, _ := setupService(t)
	mustCreateUser(t, svc, "alice", "correct-horse")

	_, err := svc.CreateUser(context.Background(), "alice", "another1", "another1", model.RoleStaff)
	if err == nil {
		t.Fatal("expected conflict error")
	}
	apiErr, ok := err.(*model.APIError)
	if !ok {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Code != model.ErrConflict {
		t.Errorf("expected conflict code, got %s", apiErr.Code)
	}
}

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if err := CheckPassword(hash, "secret123"); err != nil {
		t.Errorf("expected password to verify: %v", err)
	}
	if err := CheckPassword(hash, "secret124"); err == nil {
		t.Error("expected wrong password to fail")
	}
}

func TestRemainingMinutes_RoundsUp(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		left time.Duration
		want int
	}{
		{5 * time.Minute, 5},
		{4*time.Minute + 1*time.Second, 5},
		{30 * time.Second, 1},
		{0, 1},
	}
	for _, tt := range tests {
		if got := remainingMinutes(now.Add(tt.left), now); got != tt.want {
			t.Errorf("remainingMinutes(+%v) = %d, want %d", tt.left, got, tt.want)
		}
	}
}
