package auth

import (
	"context"
	"fmt"

	"github.com/me/petms/pkg/model"
)

// ForcedLogoutMessage is pushed to a live connection whose session was
// taken over by a newer login.
const ForcedLogoutMessage = "You have been logged in from another device."

// EstablishSession makes newSessionID the user's sole authorized session.
// Call it only after AttemptLogin returned an authenticated outcome.
//
// The old session record is deleted before the live connection is
// notified, so the stale session is unusable even if the notification is
// lost; the new session id is written last, so a failure mid-revocation
// never leaves the account pointing at a session that was never
// established. Store faults during revocation are logged and swallowed;
// cleaning up the old session never blocks the new login.
func (s *Service) EstablishSession(ctx context.Context, user *model.User, newSessionID string) error {
	if user.CurrentSessionID != "" {
		if err := s.store.DeleteSession(ctx, user.CurrentSessionID); err != nil {
			s.logger.Warn("revoke old session failed",
				"username", user.Username, "session", user.CurrentSessionID, "error", err)
		}

		if s.notifier != nil {
			delivered := s.notifier.ForceLogout(user.ID, ForcedLogoutMessage)
			if delivered {
				s.logger.Info("forced logout pushed", "username", user.Username)
			}
		}
	}

	user.CurrentSessionID = newSessionID
	user.LoginAttempts = 0
	user.LockedUntil = nil
	user.LastLoginAt = s.now()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("record new session: %w", err)
	}
	return nil
}

// TeardownSession handles an explicit logout: the session record is
// deleted, and the user's current-session pointer is cleared only if it
// still names sessionID. A pointer already replaced by a newer login is
// left alone. The live-connection registry is not touched here; it reaps
// entries on connection close.
func (s *Service) TeardownSession(ctx context.Context, user *model.User, sessionID string) error {
	if err := s.store.DeleteSession(ctx, sessionID); err != nil {
		s.logger.Warn("delete session failed", "session", sessionID, "error", err)
	}

	if user == nil || user.CurrentSessionID != sessionID {
		return nil
	}

	user.CurrentSessionID = ""
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("clear session pointer: %w", err)
	}
	return nil
}
