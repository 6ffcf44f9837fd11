package interfaces

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sheikh-saqib/fin-ledger/internal/models"
)

var (
	// ErrNotFound is returned by stores when no record matches the lookup.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned by stores when a unique constraint is violated.
	ErrConflict = errors.New("record already exists")
)

type UserStore interface {
	CreateUser(ctx context.Context, user models.User) error
	FindUserByID(ctx context.Context, id uuid.UUID) (models.User, error)
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
}

type StatementStore interface {
	InsertStatement(ctx context.Context, statement models.Statement) error
	FindStatementByID(ctx context.Context, id uuid.UUID) (models.Statement, error)
	// FindStatementsByUser returns every statement owned or sent by the user, oldest first.
	FindStatementsByUser(ctx context.Context, userID uuid.UUID) ([]models.Statement, error)
}

// Tx is the view of the store handed to a WithinUserLock callback.
type Tx interface {
	UserStore
	StatementStore
}

type LedgerStore interface {
	UserStore
	StatementStore

	// WithinUserLock runs fn with exclusive access to the statement histories
	// of the given users. Writes made through tx are committed only if fn
	// returns nil.
	WithinUserLock(ctx context.Context, userIDs []uuid.UUID, fn func(ctx context.Context, tx Tx) error) error
	Close() error
}
