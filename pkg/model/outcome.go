package model

// OutcomeKind classifies the result of a login attempt.
type OutcomeKind string

const (
	// OutcomeAuthenticated means the credentials checked out; the caller
	// must still establish the session before the login is complete.
	OutcomeAuthenticated OutcomeKind = "authenticated"
	// OutcomeRejected covers missing credentials, unknown usernames and
	// wrong passwords below the lockout threshold.
	OutcomeRejected OutcomeKind = "rejected"
	// OutcomeLocked means the account is inside a lock window, whether
	// newly triggered by this attempt or still active from an earlier one.
	OutcomeLocked OutcomeKind = "locked"
)

// Outcome is the caller-visible result of a login attempt.
type Outcome struct {
	Kind OutcomeKind

	// User is set only when Kind is OutcomeAuthenticated.
	User *User

	// Reason is a user-facing message for rejections.
	Reason string

	// RemainingAttempts is the number of tries left before lockout.
	// Only meaningful for wrong-password rejections.
	RemainingAttempts int

	// RemainingMinutes is how long the lock window still runs, rounded up.
	// Only meaningful when Kind is OutcomeLocked.
	RemainingMinutes int
}

// Authenticated builds a successful outcome for the given user.
func Authenticated(u *User) Outcome {
	return Outcome{Kind: OutcomeAuthenticated, User: u}
}

// Rejected builds a rejection outcome. remaining < 0 means the
// remaining-attempt count is not applicable (e.g. unknown username).
func Rejected(reason string, remaining int) Outcome {
	return Outcome{Kind: OutcomeRejected, Reason: reason, RemainingAttempts: remaining}
}

// Locked builds a lockout outcome with the remaining window in minutes.
func Locked(minutes int) Outcome {
	return Outcome{Kind: OutcomeLocked, RemainingMinutes: minutes}
}
