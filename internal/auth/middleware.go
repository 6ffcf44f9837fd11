package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/sheikh-saqib/fin-ledger/internal/response"
)

type contextKey string

const ContextUserID contextKey = "userID"

const (
	msgTokenMissing = "JWT token is missing!"
	msgTokenInvalid = "JWT invalid token!"
)

// Middleware rejects requests without a valid Bearer token and stores the
// authenticated user id in the request context.
func (t *Tokens) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			response.Error(w, http.StatusUnauthorized, msgTokenMissing)
			return
		}

		claims, err := t.Parse(token)
		if err != nil {
			response.Error(w, http.StatusUnauthorized, msgTokenInvalid)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.UserUUID())))
	})
}

func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		// a header that is not a bearer token is treated as an invalid token
		return header
	}
	return strings.TrimSpace(token)
}

func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, ContextUserID, userID)
}

func UserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ContextUserID).(uuid.UUID)
	return id, ok
}
