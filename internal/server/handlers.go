package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/fin-ledger/internal/auth"
	"github.com/sheikh-saqib/fin-ledger/internal/ledger"
	"github.com/sheikh-saqib/fin-ledger/internal/response"
)

const maxBodyBytes = 1 << 20

type createUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createSessionRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionUser struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type sessionResponse struct {
	User  sessionUser `json:"user"`
	Token string      `json:"token"`
}

type statementRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		response.Error(w, http.StatusBadRequest, "name, email and password are required")
		return
	}

	user, err := s.users.Create(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, user)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !s.decode(w, r, &req) {
		return
	}

	user, token, err := s.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, sessionResponse{
		User:  sessionUser{ID: user.ID, Name: user.Name, Email: user.Email},
		Token: token,
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "JWT invalid token!")
		return
	}

	user, err := s.users.Profile(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, user)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "JWT invalid token!")
		return
	}

	balance, err := s.ledger.GetBalance(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, balance)
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	userID, req, ok := s.statementInput(w, r)
	if !ok {
		return
	}

	statement, err := s.ledger.Deposit(r.Context(), userID, req.Description, req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, statement)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	userID, req, ok := s.statementInput(w, r)
	if !ok {
		return
	}

	statement, err := s.ledger.Withdraw(r.Context(), userID, req.Description, req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, statement)
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	recipientID, err := uuid.Parse(chi.URLParam(r, "user_id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	senderID, req, ok := s.statementInput(w, r)
	if !ok {
		return
	}

	statement, err := s.ledger.Transfer(r.Context(), senderID, recipientID, req.Description, req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, statement)
}

func (s *Server) handleGetStatement(w http.ResponseWriter, r *http.Request) {
	statementID, err := uuid.Parse(chi.URLParam(r, "statement_id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid statement id")
		return
	}

	userID, ok := auth.UserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "JWT invalid token!")
		return
	}

	statement, err := s.ledger.GetStatement(r.Context(), statementID, userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, statement)
}

// statementInput reads the caller and an amount/description body, writing a
// 400 for anything the ledger would reject before touching the store.
func (s *Server) statementInput(w http.ResponseWriter, r *http.Request) (uuid.UUID, statementRequest, bool) {
	var req statementRequest

	userID, ok := auth.UserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "JWT invalid token!")
		return uuid.Nil, req, false
	}
	if !s.decode(w, r, &req) {
		return uuid.Nil, req, false
	}
	if !ledger.ValidAmount(req.Amount) {
		response.Error(w, http.StatusBadRequest, msgInvalidAmount)
		return uuid.Nil, req, false
	}
	return userID, req, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		msg := "invalid request body"
		if errors.Is(err, io.EOF) {
			msg = "request body is empty"
		}
		response.Error(w, http.StatusBadRequest, msg)
		return false
	}
	return true
}
