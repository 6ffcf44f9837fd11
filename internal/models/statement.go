package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OperationType discriminates how a statement affects a balance
type OperationType string

const (
	Deposit  OperationType = "deposit"
	Withdraw OperationType = "withdraw"
	Transfer OperationType = "transfer"
)

// Valid reports whether t is one of the known operation types.
func (t OperationType) Valid() bool {
	switch t {
	case Deposit, Withdraw, Transfer:
		return true
	}
	return false
}

// Statement is a single immutable ledger record.
// For transfers UserID is the recipient and SenderID the paying user;
// the same record is read with opposite sign by each of them.
type Statement struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`             // owner (beneficiary)
	SenderID    *uuid.UUID      `json:"sender_id,omitempty"` // transfers only
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"` // always positive
	Type        OperationType   `json:"type"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Involves reports whether the user is the owner or the sender of the statement.
func (s Statement) Involves(userID uuid.UUID) bool {
	if s.UserID == userID {
		return true
	}
	return s.SenderID != nil && *s.SenderID == userID
}

// SignedAmount is the contribution of the statement to the balance of userID.
func (s Statement) SignedAmount(userID uuid.UUID) decimal.Decimal {
	switch s.Type {
	case Deposit:
		if s.UserID == userID {
			return s.Amount
		}
	case Withdraw:
		if s.UserID == userID {
			return s.Amount.Neg()
		}
	case Transfer:
		switch {
		case s.UserID == userID:
			return s.Amount
		case s.SenderID != nil && *s.SenderID == userID:
			return s.Amount.Neg()
		}
	}
	return decimal.Zero
}
