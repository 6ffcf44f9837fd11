package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	interfaces "github.com/sheikh-saqib/fin-ledger/internal/interfaces"
	"github.com/sheikh-saqib/fin-ledger/internal/models"
)

var statementCols = []string{"id", "user_id", "sender_id", "description", "amount", "type", "created_at", "updated_at"}

func newMockStore(t *testing.T) (*PostgresLedgerStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresLedgerStore(db, zap.NewNop()), mock
}

func TestMigrate(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users.+CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_lower ON users \\(lower\\(email\\)\\)").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserConflict(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pq.Error{Code: uniqueViolation})

	err := store.CreateUser(context.Background(), models.User{ID: uuid.New(), Email: "nelson@nelsonoak.dev"})
	assert.ErrorIs(t, err, interfaces.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindUserByIDNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()
	mock.ExpectQuery("SELECT id, name, email, password, created_at, updated_at FROM users WHERE id = \\$1").
		WithArgs(id.String()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password", "created_at", "updated_at"}))

	_, err := store.FindUserByID(context.Background(), id)
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindUserByEmail(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()
	now := time.Now()
	mock.ExpectQuery("FROM users WHERE lower\\(email\\) = lower\\(\\$1\\)").
		WithArgs("nelson@nelsonoak.dev").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password", "created_at", "updated_at"}).
			AddRow(id.String(), "Nelson Oak", "nelson@nelsonoak.dev", "hash", now, now))

	u, err := store.FindUserByEmail(context.Background(), "nelson@nelsonoak.dev")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "hash", u.Password)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindStatementsByUser(t *testing.T) {
	store, mock := newMockStore(t)
	user := uuid.New()
	other := uuid.New()
	now := time.Now()

	rows := sqlmock.NewRows(statementCols).
		AddRow(uuid.NewString(), user.String(), nil, "salary", "400.00", "deposit", now, now).
		AddRow(uuid.NewString(), other.String(), user.String(), "rent", "150.50", "transfer", now, now)

	mock.ExpectQuery("FROM statements\\s+WHERE user_id = \\$1 OR sender_id = \\$1\\s+ORDER BY seq ASC").
		WithArgs(user.String()).
		WillReturnRows(rows)

	statements, err := store.FindStatementsByUser(context.Background(), user)
	require.NoError(t, err)
	require.Len(t, statements, 2)

	assert.Equal(t, models.Deposit, statements[0].Type)
	assert.Nil(t, statements[0].SenderID)
	assert.True(t, decimal.RequireFromString("400").Equal(statements[0].Amount))

	assert.Equal(t, models.Transfer, statements[1].Type)
	require.NotNil(t, statements[1].SenderID)
	assert.Equal(t, user, *statements[1].SenderID)
	assert.Equal(t, other, statements[1].UserID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindStatementByIDNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("FROM statements WHERE id = \\$1").
		WillReturnRows(sqlmock.NewRows(statementCols))

	_, err := store.FindStatementByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinUserLockCommits(t *testing.T) {
	store, mock := newMockStore(t)
	user := uuid.New()
	s := models.Statement{
		ID:        uuid.New(),
		UserID:    user,
		Type:      models.Deposit,
		Amount:    decimal.NewFromInt(10),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	mock.ExpectBegin()
	mock.ExpectExec("SELECT id FROM users WHERE id = ANY\\(\\$1::uuid\\[\\]\\) ORDER BY id FOR UPDATE").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO statements").
		WithArgs(s.ID.String(), user.String(), nil, "", sqlmock.AnyArg(), "deposit", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := store.WithinUserLock(context.Background(), []uuid.UUID{user}, func(ctx context.Context, tx interfaces.Tx) error {
		return tx.InsertStatement(ctx, s)
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinUserLockRollsBackOnError(t *testing.T) {
	store, mock := newMockStore(t)
	boom := errors.New("insufficient")

	mock.ExpectBegin()
	mock.ExpectExec("FOR UPDATE").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	err := store.WithinUserLock(context.Background(), []uuid.UUID{uuid.New()}, func(ctx context.Context, tx interfaces.Tx) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinUserLockRollsBackWhenLockFails(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("FOR UPDATE").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	called := false
	err := store.WithinUserLock(context.Background(), []uuid.UUID{uuid.New()}, func(ctx context.Context, tx interfaces.Tx) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)
	require.NoError(t, mock.ExpectationsWereMet())
}
