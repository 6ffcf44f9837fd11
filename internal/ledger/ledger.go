package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	interfaces "github.com/sheikh-saqib/fin-ledger/internal/interfaces"
	"github.com/sheikh-saqib/fin-ledger/internal/models"
	"github.com/sheikh-saqib/fin-ledger/internal/models/events"
)

// Ledger records statements and derives balances from them.
// It never stores a balance: every check folds the full history.
type Ledger struct {
	store     interfaces.LedgerStore   // users and the append-only statement log
	publisher interfaces.EventPublisher // notified after each committed statement, may be nil
	logger    *zap.Logger
	now       func() time.Time
	newID     func() uuid.UUID
}

// NewLedger is a constructor function that creates a new Ledger instance
// We pass in a storage implementation (MemoryLedgerStore, Postgres, etc.)
func NewLedger(store interfaces.LedgerStore, publisher interfaces.EventPublisher, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		store:     store,
		publisher: publisher,
		logger:    logger.Named("ledger"),
		now:       time.Now,
		newID:     uuid.New,
	}
}

// GetBalance folds every statement the user owns or sent into a balance and
// returns it together with the history, oldest first.
func (l *Ledger) GetBalance(ctx context.Context, userID uuid.UUID) (models.Balance, error) {
	if err := requireUser(ctx, l.store, userID, ErrUserNotFound); err != nil {
		return models.Balance{}, err
	}

	statements, err := l.store.FindStatementsByUser(ctx, userID)
	if err != nil {
		return models.Balance{}, fmt.Errorf("list statements: %w", err)
	}

	return models.Balance{
		Statements: statements,
		Balance:    Fold(userID, statements),
	}, nil
}

func (l *Ledger) Deposit(ctx context.Context, userID uuid.UUID, description string, amount decimal.Decimal) (models.Statement, error) {
	return l.CreateStatement(ctx, userID, description, amount, models.Deposit)
}

func (l *Ledger) Withdraw(ctx context.Context, userID uuid.UUID, description string, amount decimal.Decimal) (models.Statement, error) {
	return l.CreateStatement(ctx, userID, description, amount, models.Withdraw)
}

// CreateStatement records a single-party deposit or withdrawal.
// Withdrawals are checked against the folded balance while the user's
// history is locked, so two concurrent withdrawals can not both pass
// against the same stale balance.
func (l *Ledger) CreateStatement(ctx context.Context, userID uuid.UUID, description string, amount decimal.Decimal, typ models.OperationType) (models.Statement, error) {
	if typ != models.Deposit && typ != models.Withdraw {
		return models.Statement{}, ErrInvalidOperation
	}
	if err := requireUser(ctx, l.store, userID, ErrUserNotFound); err != nil {
		return models.Statement{}, err
	}
	if !ValidAmount(amount) {
		return models.Statement{}, ErrInvalidAmount
	}

	statement := l.newStatement(userID, nil, description, amount, typ)

	var err error
	if typ == models.Deposit {
		err = l.store.InsertStatement(ctx, statement)
	} else {
		err = l.store.WithinUserLock(ctx, []uuid.UUID{userID}, func(ctx context.Context, tx interfaces.Tx) error {
			if err := ensureFunds(ctx, tx, userID, amount, ErrInsufficientFunds); err != nil {
				return err
			}
			return tx.InsertStatement(ctx, statement)
		})
	}
	if err != nil {
		return models.Statement{}, l.wrapWriteErr(err)
	}

	l.logger.Info("statement created",
		zap.Stringer("statement_id", statement.ID),
		zap.String("type", string(typ)),
		zap.Stringer("user_id", userID),
		zap.Stringer("amount", statement.Amount))

	l.publish(ctx, statement)
	return statement, nil
}

// Transfer moves amount from sender to recipient as ONE statement owned by
// the recipient with SenderID set. Only the sender's history is locked: the
// recipient side has no check to race with.
func (l *Ledger) Transfer(ctx context.Context, senderID, recipientID uuid.UUID, description string, amount decimal.Decimal) (models.Statement, error) {
	if err := requireUser(ctx, l.store, senderID, ErrSenderNotFound); err != nil {
		return models.Statement{}, err
	}
	if err := requireUser(ctx, l.store, recipientID, ErrRecipientNotFound); err != nil {
		return models.Statement{}, err
	}
	if senderID == recipientID {
		return models.Statement{}, ErrTransferRequiresDifferentUsers
	}
	if !ValidAmount(amount) {
		return models.Statement{}, ErrInvalidAmount
	}

	sender := senderID
	statement := l.newStatement(recipientID, &sender, description, amount, models.Transfer)

	err := l.store.WithinUserLock(ctx, []uuid.UUID{senderID}, func(ctx context.Context, tx interfaces.Tx) error {
		if err := ensureFunds(ctx, tx, senderID, amount, ErrTransferInsufficientFunds); err != nil {
			return err
		}
		return tx.InsertStatement(ctx, statement)
	})
	if err != nil {
		return models.Statement{}, l.wrapWriteErr(err)
	}

	l.logger.Info("transfer created",
		zap.Stringer("statement_id", statement.ID),
		zap.Stringer("sender_id", senderID),
		zap.Stringer("recipient_id", recipientID),
		zap.Stringer("amount", statement.Amount))

	l.publish(ctx, statement)
	return statement, nil
}

// GetStatement returns a statement to one of its parties: the owner or,
// for transfers, the sender.
func (l *Ledger) GetStatement(ctx context.Context, statementID, requesterID uuid.UUID) (models.Statement, error) {
	if err := requireUser(ctx, l.store, requesterID, ErrUserNotFound); err != nil {
		return models.Statement{}, err
	}

	statement, err := l.store.FindStatementByID(ctx, statementID)
	if errors.Is(err, interfaces.ErrNotFound) {
		return models.Statement{}, ErrStatementNotFound
	}
	if err != nil {
		return models.Statement{}, fmt.Errorf("find statement %s: %w", statementID, err)
	}

	if !statement.Involves(requesterID) {
		return models.Statement{}, ErrStatementAccessDenied
	}
	return statement, nil
}

func (l *Ledger) newStatement(owner uuid.UUID, sender *uuid.UUID, description string, amount decimal.Decimal, typ models.OperationType) models.Statement {
	now := l.now().UTC()
	return models.Statement{
		ID:          l.newID(),
		UserID:      owner,
		SenderID:    sender,
		Description: description,
		Amount:      amount,
		Type:        typ,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// publish is best effort: the statement is already committed, so a broker
// failure is logged and not returned to the caller.
func (l *Ledger) publish(ctx context.Context, statement models.Statement) {
	if l.publisher == nil {
		return
	}
	event := events.NewStatementCreated(statement)
	if err := l.publisher.Publish(ctx, events.StatementCreatedTopic, event); err != nil {
		l.logger.Warn("failed to publish statement event",
			zap.Stringer("statement_id", statement.ID),
			zap.Error(err))
	}
}

func (l *Ledger) wrapWriteErr(err error) error {
	if isDomainErr(err) {
		return err
	}
	return fmt.Errorf("record statement: %w", err)
}

func isDomainErr(err error) bool {
	return errors.Is(err, ErrInsufficientFunds) || errors.Is(err, ErrTransferInsufficientFunds)
}

func requireUser(ctx context.Context, users interfaces.UserStore, userID uuid.UUID, notFound error) error {
	_, err := users.FindUserByID(ctx, userID)
	if errors.Is(err, interfaces.ErrNotFound) {
		return notFound
	}
	if err != nil {
		return fmt.Errorf("find user %s: %w", userID, err)
	}
	return nil
}

// ensureFunds folds the user's history as seen by tx and fails with
// insufficient when amount exceeds it. An amount equal to the balance passes.
func ensureFunds(ctx context.Context, tx interfaces.StatementStore, userID uuid.UUID, amount decimal.Decimal, insufficient error) error {
	statements, err := tx.FindStatementsByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list statements: %w", err)
	}
	if amount.GreaterThan(Fold(userID, statements)) {
		return insufficient
	}
	return nil
}
