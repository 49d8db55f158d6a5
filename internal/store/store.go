package store

import (
	"context"

	"github.com/me/petms/pkg/model"
)

// Store defines the persistence layer for PetMS entities.
type Store interface {
	// User CRUD
	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	UpdateUser(ctx context.Context, u *model.User) error
	ListUsers(ctx context.Context) ([]*model.User, error)

	// Owner CRUD
	CreateOwner(ctx context.Context, o *model.Owner) error
	GetOwner(ctx context.Context, id string) (*model.Owner, error)
	GetOwnerByEmail(ctx context.Context, email, excludeID string) (*model.Owner, error)
	ListOwners(ctx context.Context, opts model.ListOptions) ([]*model.Owner, int, error)
	UpdateOwner(ctx context.Context, o *model.Owner) error
	DeleteOwner(ctx context.Context, id string) error

	// Session operations
	CreateSession(ctx context.Context, sess *model.Session) error
	GetSession(ctx context.Context, id string) (*model.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}
