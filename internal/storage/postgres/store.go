package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	interfaces "github.com/sheikh-saqib/fin-ledger/internal/interfaces" // interface LedgerStore
	"github.com/sheikh-saqib/fin-ledger/internal/models"
)

//go:embed schema.sql
var schema string

const uniqueViolation = "23505"

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type PostgresLedgerStore struct {
	queries
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresLedgerStore(db *sql.DB, logger *zap.Logger) *PostgresLedgerStore {
	return &PostgresLedgerStore{
		queries: queries{q: db},
		db:      db,
		logger:  logger,
	}
}

// Migrate applies the embedded schema. Every statement in it is idempotent.
func (p *PostgresLedgerStore) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// WithinUserLock opens a transaction and takes row locks on the given users
// before running fn. Concurrent callers naming the same user block on
// SELECT ... FOR UPDATE until the holder commits or rolls back.
func (p *PostgresLedgerStore) WithinUserLock(ctx context.Context, userIDs []uuid.UUID, fn func(ctx context.Context, tx interfaces.Tx) error) (err error) {
	dbTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := dbTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				p.logger.Warn("rollback failed", zap.Error(rbErr))
			}
		}
	}()

	ids := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		ids = append(ids, id.String())
	}

	const lockQuery = `SELECT id FROM users WHERE id = ANY($1::uuid[]) ORDER BY id FOR UPDATE`
	if _, err = dbTx.ExecContext(ctx, lockQuery, pq.Array(ids)); err != nil {
		return fmt.Errorf("lock users: %w", err)
	}

	if err = fn(ctx, queries{q: dbTx}); err != nil {
		return err
	}

	if err = dbTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (p *PostgresLedgerStore) Close() error {
	return p.db.Close()
}

// queries holds every read and write so the same code runs on the pool and
// inside a transaction.
type queries struct {
	q querier
}

func (r queries) CreateUser(ctx context.Context, user models.User) error {
	const query = `INSERT INTO users (id, name, email, password, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.q.ExecContext(ctx, query, user.ID, user.Name, user.Email, user.Password, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return interfaces.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r queries) FindUserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	const query = `SELECT id, name, email, password, created_at, updated_at FROM users WHERE id = $1`
	return r.scanUser(r.q.QueryRowContext(ctx, query, id))
}

func (r queries) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `SELECT id, name, email, password, created_at, updated_at FROM users WHERE lower(email) = lower($1)`
	return r.scanUser(r.q.QueryRowContext(ctx, query, email))
}

func (r queries) scanUser(row *sql.Row) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, interfaces.ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

func (r queries) InsertStatement(ctx context.Context, s models.Statement) error {
	const query = `INSERT INTO statements (id, user_id, sender_id, description, amount, type, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	var sender uuid.NullUUID
	if s.SenderID != nil {
		sender = uuid.NullUUID{UUID: *s.SenderID, Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query, s.ID, s.UserID, sender, s.Description, s.Amount, string(s.Type), s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return interfaces.ErrConflict
		}
		return fmt.Errorf("insert statement: %w", err)
	}
	return nil
}

const statementColumns = `id, user_id, sender_id, description, amount, type, created_at, updated_at`

func (r queries) FindStatementByID(ctx context.Context, id uuid.UUID) (models.Statement, error) {
	query := `SELECT ` + statementColumns + ` FROM statements WHERE id = $1`

	s, err := scanStatement(r.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Statement{}, interfaces.ErrNotFound
	}
	if err != nil {
		return models.Statement{}, fmt.Errorf("scan statement: %w", err)
	}
	return s, nil
}

func (r queries) FindStatementsByUser(ctx context.Context, userID uuid.UUID) ([]models.Statement, error) {
	query := `SELECT ` + statementColumns + ` FROM statements
	WHERE user_id = $1 OR sender_id = $1
	ORDER BY seq ASC`

	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query statements: %w", err)
	}
	defer rows.Close()

	statements := make([]models.Statement, 0)
	for rows.Next() {
		s, err := scanStatement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan statement: %w", err)
		}
		statements = append(statements, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return statements, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStatement(row scanner) (models.Statement, error) {
	var (
		s      models.Statement
		sender uuid.NullUUID
		typ    string
	)
	if err := row.Scan(&s.ID, &s.UserID, &sender, &s.Description, &s.Amount, &typ, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return models.Statement{}, err
	}
	if sender.Valid {
		id := sender.UUID
		s.SenderID = &id
	}
	s.Type = models.OperationType(typ)
	return s, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// Connect opens a connection pool and pings it, retrying with exponential
// backoff while the database comes up.
func Connect(ctx context.Context, dsn string, maxRetries int, logger *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(5 * time.Minute)

	delay := 2 * time.Second
	for attempt := 1; attempt <= maxRetries; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = db.PingContext(pingCtx)
		cancel()
		if err == nil {
			logger.Info("connected to database", zap.Int("attempt", attempt))
			return db, nil
		}

		logger.Warn("database ping failed",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", maxRetries),
			zap.Error(err))

		if attempt < maxRetries {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				db.Close()
				return nil, ctx.Err()
			}
			delay *= 2
		}
	}

	db.Close()
	return nil, fmt.Errorf("connect to database after %d attempts: %w", maxRetries, err)
}

var _ interfaces.LedgerStore = (*PostgresLedgerStore)(nil)
var _ interfaces.Tx = queries{}
