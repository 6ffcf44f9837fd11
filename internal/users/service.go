package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	interfaces "github.com/sheikh-saqib/fin-ledger/internal/interfaces"
	"github.com/sheikh-saqib/fin-ledger/internal/ledger"
	"github.com/sheikh-saqib/fin-ledger/internal/models"
)

var (
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrIncorrectCredentials = errors.New("incorrect email or password")
)

// TokenIssuer signs a session token for an authenticated user.
type TokenIssuer interface {
	Issue(userID uuid.UUID) (string, error)
}

type Service struct {
	store  interfaces.UserStore
	tokens TokenIssuer
	logger *zap.Logger
	cost   int
	now    func() time.Time
}

func NewService(store interfaces.UserStore, tokens TokenIssuer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		tokens: tokens,
		logger: logger.Named("users"),
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
	}
}

// Create registers a user. The password is stored as a bcrypt hash.
func (s *Service) Create(ctx context.Context, name, email, password string) (models.User, error) {
	email = strings.TrimSpace(email)

	_, err := s.store.FindUserByEmail(ctx, email)
	if err == nil {
		return models.User{}, ErrUserAlreadyExists
	}
	if !errors.Is(err, interfaces.ErrNotFound) {
		return models.User{}, fmt.Errorf("find user by email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := models.User{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Password:  string(hash),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		// lost a race with another registration for the same email
		if errors.Is(err, interfaces.ErrConflict) {
			return models.User{}, ErrUserAlreadyExists
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user created", zap.Stringer("user_id", user.ID))
	return user, nil
}

// Authenticate checks the credentials and returns the user with a fresh token.
// An unknown email and a wrong password fail the same way.
func (s *Service) Authenticate(ctx context.Context, email, password string) (models.User, string, error) {
	user, err := s.store.FindUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, interfaces.ErrNotFound) {
		return models.User{}, "", ErrIncorrectCredentials
	}
	if err != nil {
		return models.User{}, "", fmt.Errorf("find user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return models.User{}, "", ErrIncorrectCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return models.User{}, "", err
	}
	return user, token, nil
}

func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (models.User, error) {
	user, err := s.store.FindUserByID(ctx, userID)
	if errors.Is(err, interfaces.ErrNotFound) {
		return models.User{}, ledger.ErrUserNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("find user %s: %w", userID, err)
	}
	return user, nil
}
