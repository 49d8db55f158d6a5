package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/me/petms/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns a Store.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

// --- User CRUD ---

func (s *SQLiteStore) CreateUser(ctx context.Context, u *model.User) error {
	s.logger.Debug("sql", "op", "insert", "table", "users", "id", u.ID)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, role, login_attempts, locked_until, session_id, created_at, last_login_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.PasswordHash, string(u.Role),
		u.LoginAttempts, unixPtr(u.LockedUntil), u.CurrentSessionID,
		u.CreatedAt.Unix(), u.LastLoginAt.Unix(),
	)
	return err
}

func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	s.logger.Debug("sql", "op", "select", "table", "users", "id", id)
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role, login_attempts, locked_until, session_id, created_at, last_login_at
		 FROM users WHERE id = ?`, id))
}

// GetUserByUsername looks up a user by exact, case-sensitive username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	s.logger.Debug("sql", "op", "select_by_username", "table", "users")
	// SQLite compares TEXT case-sensitively by default, which is what the
	// login flow requires.
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role, login_attempts, locked_until, session_id, created_at, last_login_at
		 FROM users WHERE username = ?`, username))
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	var role string
	var lockedUntil sql.NullInt64
	var createdAt, lastLoginAt int64

	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &role,
		&u.LoginAttempts, &lockedUntil, &u.CurrentSessionID, &createdAt, &lastLoginAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	u.Role = model.UserRole(role)
	if lockedUntil.Valid {
		t := time.Unix(lockedUntil.Int64, 0)
		u.LockedUntil = &t
	}
	u.CreatedAt = time.Unix(createdAt, 0)
	u.LastLoginAt = time.Unix(lastLoginAt, 0)
	return &u, nil
}

// UpdateUser persists all mutable user fields, including lockout counters
// and the current session id, in a single statement.
func (s *SQLiteStore) UpdateUser(ctx context.Context, u *model.User) error {
	s.logger.Debug("sql", "op", "update", "table", "users", "id", u.ID)

	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, role = ?, login_attempts = ?, locked_until = ?, session_id = ?, last_login_at = ?
		 WHERE id = ?`,
		u.PasswordHash, string(u.Role), u.LoginAttempts, unixPtr(u.LockedUntil),
		u.CurrentSessionID, u.LastLoginAt.Unix(), u.ID,
	)
	return err
}

func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*model.User, error) {
	s.logger.Debug("sql", "op", "list", "table", "users")

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, password_hash, role, login_attempts, locked_until, session_id, created_at, last_login_at
		 FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		var u model.User
		var role string
		var lockedUntil sql.NullInt64
		var createdAt, lastLoginAt int64
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &role,
			&u.LoginAttempts, &lockedUntil, &u.CurrentSessionID, &createdAt, &lastLoginAt); err != nil {
			return nil, err
		}
		u.Role = model.UserRole(role)
		if lockedUntil.Valid {
			t := time.Unix(lockedUntil.Int64, 0)
			u.LockedUntil = &t
		}
		u.CreatedAt = time.Unix(createdAt, 0)
		u.LastLoginAt = time.Unix(lastLoginAt, 0)
		users = append(users, &u)
	}
	return users, rows.Err()
}

// --- Owner CRUD ---

const ownerColumns = `id, owner_ref, first_name, last_name, gender, birthdate, civil_status,
	email, phone, phone2, address, emergency_contact_person, emergency_contact_number,
	photo_file, qr_code, status, created_at, updated_at`

func (s *SQLiteStore) CreateOwner(ctx context.Context, o *model.Owner) error {
	s.logger.Debug("sql", "op", "insert", "table", "owners", "id", o.ID)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO owners (`+ownerColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.OwnerRef, o.FirstName, o.LastName, o.Gender, datePtr(o.Birthdate), o.CivilStatus,
		o.Email, o.Phone, o.Phone2, o.Address, o.EmergencyContactPerson, o.EmergencyContactNumber,
		o.PhotoFile, o.QRCode, string(o.Status),
		o.CreatedAt.Format(time.RFC3339Nano), o.UpdatedAt.Format(time.RFC3339Nano),
	)
	return err
}

func (s *SQLiteStore) GetOwner(ctx context.Context, id string) (*model.Owner, error) {
	s.logger.Debug("sql", "op", "select", "table", "owners", "id", id)

	row := s.db.QueryRowContext(ctx, `SELECT `+ownerColumns+` FROM owners WHERE id = ?`, id)
	return scanOwnerRow(row.Scan)
}

// GetOwnerByEmail finds an owner by email, case-insensitively. excludeID,
// when non-empty, skips that record (used by update uniqueness checks).
func (s *SQLiteStore) GetOwnerByEmail(ctx context.Context, email, excludeID string) (*model.Owner, error) {
	s.logger.Debug("sql", "op", "select_by_email", "table", "owners")

	row := s.db.QueryRowContext(ctx,
		`SELECT `+ownerColumns+` FROM owners WHERE lower(email) = lower(?) AND id != ?`,
		email, excludeID)
	return scanOwnerRow(row.Scan)
}

// ListOwners returns a page of owners plus the total match count, newest
// first. The search term matches name parts, the concatenated full name,
// email, phone, and the owner ref, all case-insensitively.
func (s *SQLiteStore) ListOwners(ctx context.Context, opts model.ListOptions) ([]*model.Owner, int, error) {
	s.logger.Debug("sql", "op", "list", "table", "owners", "limit", opts.Limit, "offset", opts.Offset, "search", opts.Search)
	opts.Clamp()

	where := ""
	var args []any
	if term := strings.Join(strings.Fields(opts.Search), " "); term != "" {
		like := "%" + term + "%"
		where = ` WHERE first_name LIKE ? COLLATE NOCASE
			OR last_name LIKE ? COLLATE NOCASE
			OR (trim(first_name) || ' ' || trim(last_name)) LIKE ? COLLATE NOCASE
			OR email LIKE ? COLLATE NOCASE
			OR phone LIKE ?
			OR owner_ref LIKE ? COLLATE NOCASE`
		args = append(args, like, like, like, like, like, like)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM owners`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+ownerColumns+` FROM owners`+where+` ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		append(args, opts.Limit, opts.Offset)...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var owners []*model.Owner
	for rows.Next() {
		o, err := scanOwnerRow(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		owners = append(owners, o)
	}
	return owners, total, rows.Err()
}

func (s *SQLiteStore) UpdateOwner(ctx context.Context, o *model.Owner) error {
	s.logger.Debug("sql", "op", "update", "table", "owners", "id", o.ID)

	_, err := s.db.ExecContext(ctx,
		`UPDATE owners SET first_name = ?, last_name = ?, gender = ?, birthdate = ?, civil_status = ?,
			email = ?, phone = ?, phone2 = ?, address = ?, emergency_contact_person = ?,
			emergency_contact_number = ?, photo_file = ?, qr_code = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		o.FirstName, o.LastName, o.Gender, datePtr(o.Birthdate), o.CivilStatus,
		o.Email, o.Phone, o.Phone2, o.Address, o.EmergencyContactPerson,
		o.EmergencyContactNumber, o.PhotoFile, o.QRCode, string(o.Status),
		o.UpdatedAt.Format(time.RFC3339Nano), o.ID,
	)
	return err
}

func (s *SQLiteStore) DeleteOwner(ctx context.Context, id string) error {
	s.logger.Debug("sql", "op", "delete", "table", "owners", "id", id)
	_, err := s.db.ExecContext(ctx, `DELETE FROM owners WHERE id = ?`, id)
	return err
}

// scanOwnerRow reads one owner from a row or rows scan function.
func scanOwnerRow(scan func(dest ...any) error) (*model.Owner, error) {
	var o model.Owner
	var birthdate sql.NullString
	var status, createdAt, updatedAt string

	err := scan(&o.ID, &o.OwnerRef, &o.FirstName, &o.LastName, &o.Gender, &birthdate, &o.CivilStatus,
		&o.Email, &o.Phone, &o.Phone2, &o.Address, &o.EmergencyContactPerson, &o.EmergencyContactNumber,
		&o.PhotoFile, &o.QRCode, &status, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	o.Status = model.OwnerStatus(status)
	if birthdate.Valid && birthdate.String != "" {
		if t, err := time.Parse("2006-01-02", birthdate.String); err == nil {
			o.Birthdate = &t
		}
	}
	o.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	o.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &o, nil
}

// --- Session operations ---

func (s *SQLiteStore) CreateSession(ctx context.Context, sess *model.Session) error {
	s.logger.Debug("sql", "op", "insert", "table", "sessions", "id", sess.ID)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, username, role, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.UserID, sess.Username, string(sess.Role),
		sess.CreatedAt.Unix(), sess.ExpiresAt.Unix(),
	)
	return err
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*model.Session, error) {
	s.logger.Debug("sql", "op", "select", "table", "sessions", "id", id)

	var sess model.Session
	var role string
	var createdAt, expiresAt int64

	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, username, role, created_at, expires_at FROM sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.UserID, &sess.Username, &role, &createdAt, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	sess.Role = model.UserRole(role)
	sess.CreatedAt = time.Unix(createdAt, 0)
	sess.ExpiresAt = time.Unix(expiresAt, 0)
	return &sess, nil
}

// DeleteSession removes a session record. Deleting a missing id is not an
// error.
func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	s.logger.Debug("sql", "op", "delete", "table", "sessions", "id", id)
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

func (s *SQLiteStore) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	s.logger.Debug("sql", "op", "delete_expired", "table", "sessions")

	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, time.Now().Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// --- helpers ---

func unixPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func datePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format("2006-01-02")
}
