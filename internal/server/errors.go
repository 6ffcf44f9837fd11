package server

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sheikh-saqib/fin-ledger/internal/ledger"
	"github.com/sheikh-saqib/fin-ledger/internal/response"
	"github.com/sheikh-saqib/fin-ledger/internal/users"
)

const msgInvalidAmount = "Amount must be greater than zero with at most two decimal places"

type apiError struct {
	err     error
	status  int
	message string
}

var apiErrors = []apiError{
	{ledger.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{ledger.ErrSenderNotFound, http.StatusNotFound, "Sender user not found!"},
	{ledger.ErrRecipientNotFound, http.StatusNotFound, "Recipient user not found!"},
	{ledger.ErrStatementNotFound, http.StatusNotFound, "Statement not found"},

	{ledger.ErrInsufficientFunds, http.StatusBadRequest, "Insufficient funds"},
	{ledger.ErrTransferInsufficientFunds, http.StatusBadRequest, "Insufficient funds for a transfer!"},
	{ledger.ErrTransferRequiresDifferentUsers, http.StatusBadRequest, "Sender and recipient can not be the same user!"},
	{ledger.ErrInvalidAmount, http.StatusBadRequest, msgInvalidAmount},
	{ledger.ErrInvalidOperation, http.StatusBadRequest, "Operation must be deposit or withdraw"},
	{users.ErrUserAlreadyExists, http.StatusBadRequest, "User already exists"},

	{users.ErrIncorrectCredentials, http.StatusUnauthorized, "Incorrect email or password"},
	{ledger.ErrStatementAccessDenied, http.StatusForbidden, "Statement does not belong to the user"},
}

// writeError maps a service error to its status and message. Anything
// unknown is logged and reported as a 500 without leaking its text.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, e := range apiErrors {
		if errors.Is(err, e.err) {
			response.Error(w, e.status, e.message)
			return
		}
	}

	s.logger.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err))
	response.Error(w, http.StatusInternalServerError, "Internal server error")
}
