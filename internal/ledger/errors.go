package ledger

import "errors"

// Lookups
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrSenderNotFound    = errors.New("sender user not found")
	ErrRecipientNotFound = errors.New("recipient user not found")
	ErrStatementNotFound = errors.New("statement not found")
)

// Validation
var (
	ErrInsufficientFunds              = errors.New("insufficient funds")
	ErrTransferInsufficientFunds      = errors.New("insufficient funds for a transfer")
	ErrTransferRequiresDifferentUsers = errors.New("sender and recipient can not be the same user")
	ErrInvalidAmount                  = errors.New("amount must be greater than zero with at most two decimal places")
	ErrInvalidOperation               = errors.New("operation must be deposit or withdraw")
)

// Authorization
var (
	ErrStatementAccessDenied = errors.New("statement does not belong to the user")
)
