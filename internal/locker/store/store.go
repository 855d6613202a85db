package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/locker/internal/locker/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres,
// memory) implement this. Sub-repositories are exposed as methods so a
// Tx-scoped Store hands out repos bound to the same transaction.
type Store interface {
	Users() Users
	Items() Items

	ApplyMigrations() error

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional view. Nested transactions are not supported.
type Tx interface {
	Users() Users
	Items() Items
}

// NewUser carries the fields a driver needs to insert a user. The driver
// assigns ID and timestamps.
type NewUser struct {
	Username     string
	Email        string
	PasswordHash string
	AvatarURL    string
}

// NewItem carries the fields a driver needs to insert an item.
type NewItem struct {
	Title       string
	Description *string
	OwnerID     int64
}

// Users is the user directory.
type Users interface {
	GetUserByID(ctx context.Context, id int64) (domain.User, error)

	// GetUserByUsername is used by login and on every authenticated request.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// GetUserByEmail is used by forgot/reset password.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a user. Returns ErrAlreadyExists when username or
	// email collides with an existing row.
	CreateUser(ctx context.Context, u NewUser) (domain.User, error)

	// UpdatePasswordHash replaces the hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID int64, newHash string) error
}

// Items is the item store. Every query that returns more than one row is
// scoped by owner.
type Items interface {
	ListItemsByOwner(ctx context.Context, ownerID int64, offset, limit int) ([]domain.Item, error)
	CreateItem(ctx context.Context, it NewItem) (domain.Item, error)
	GetItemByID(ctx context.Context, id int64) (domain.Item, error)

	// DeleteItem returns ErrNotFound when no row was removed.
	DeleteItem(ctx context.Context, id int64) error
}
