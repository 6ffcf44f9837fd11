package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/fin-ledger/internal/models"
	"github.com/sheikh-saqib/fin-ledger/internal/response"
)

// LedgerService is the statement API served under /api/v1/statements.
type LedgerService interface {
	GetBalance(ctx context.Context, userID uuid.UUID) (models.Balance, error)
	Deposit(ctx context.Context, userID uuid.UUID, description string, amount decimal.Decimal) (models.Statement, error)
	Withdraw(ctx context.Context, userID uuid.UUID, description string, amount decimal.Decimal) (models.Statement, error)
	Transfer(ctx context.Context, senderID, recipientID uuid.UUID, description string, amount decimal.Decimal) (models.Statement, error)
	GetStatement(ctx context.Context, statementID, requesterID uuid.UUID) (models.Statement, error)
}

type UserService interface {
	Create(ctx context.Context, name, email, password string) (models.User, error)
	Authenticate(ctx context.Context, email, password string) (models.User, string, error)
	Profile(ctx context.Context, userID uuid.UUID) (models.User, error)
}

// Authenticator guards the routes that need a logged in user.
type Authenticator interface {
	Middleware(next http.Handler) http.Handler
}

type Server struct {
	ledger LedgerService
	users  UserService
	auth   Authenticator
	logger *zap.Logger
}

func New(ledger LedgerService, users UserService, auth Authenticator, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		ledger: ledger,
		users:  users,
		auth:   auth,
		logger: logger.Named("http"),
	}
}

func (s *Server) Routes(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/users", s.handleCreateUser)
		r.Post("/sessions", s.handleCreateSession)

		r.Group(func(r chi.Router) {
			r.Use(s.auth.Middleware)

			r.Get("/profile", s.handleProfile)

			r.Route("/statements", func(r chi.Router) {
				r.Get("/balance", s.handleBalance)
				r.Post("/deposit", s.handleDeposit)
				r.Post("/withdraw", s.handleWithdraw)
				r.Post("/transfer/{user_id}", s.handleTransfer)
				r.Get("/{statement_id}", s.handleGetStatement)
			})
		})
	})

	return r
}

// LoggerMiddleware writes one access log line per request.
func LoggerMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("http request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr))
		})
	}
}
