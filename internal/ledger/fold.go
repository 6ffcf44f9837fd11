package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/fin-ledger/internal/models"
)

// Fold computes the balance of userID from a statement history.
// Deposits add, withdrawals subtract, and a transfer adds for its owner
// and subtracts for its sender. Statements not involving the user are ignored.
func Fold(userID uuid.UUID, statements []models.Statement) decimal.Decimal {
	balance := decimal.Zero
	for _, s := range statements {
		balance = balance.Add(s.SignedAmount(userID))
	}
	return balance
}

// AmountScale is the number of decimal places a stored amount can hold.
const AmountScale = 2

// ValidAmount reports whether amount is positive and has no more than
// AmountScale decimal places.
func ValidAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() && amount.Equal(amount.Round(AmountScale))
}
