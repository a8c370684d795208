package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"easeabill/internal/core"
)

const (
	tokenBytes = 32
	// TokenTTL is how long a session token stays valid after login.
	TokenTTL = 30 * 24 * time.Hour
)

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrUsernameTooShort   = errors.New("username must be at least 3 characters")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthorized       = errors.New("unauthorized")
)

// Store is the persistence surface the auth service needs.
type Store interface {
	CreateUser(ctx context.Context, username, passwordHash string) (core.User, error)
	GetUserByUsername(ctx context.Context, username string) (*core.User, error)
	AddToken(ctx context.Context, token, userID string, expiresAt time.Time) (core.Token, error)
	GetToken(ctx context.Context, token string) (*core.Token, error)
	DeleteToken(ctx context.Context, token string) error
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

// Service issues and validates bearer session tokens.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Register creates a user with a freshly hashed password and logs them in.
func (s *Service) Register(ctx context.Context, username, password string) (core.User, core.Token, error) {
	if len(username) < 3 {
		return core.User{}, core.Token{}, ErrUsernameTooShort
	}
	if len(password) < 6 {
		return core.User{}, core.Token{}, ErrPasswordTooShort
	}

	existing, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return core.User{}, core.Token{}, fmt.Errorf("check username: %w", err)
	}
	if existing != nil {
		return core.User{}, core.Token{}, ErrUsernameTaken
	}

	hash, err := HashPassword(password)
	if err != nil {
		return core.User{}, core.Token{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, username, hash)
	if err != nil {
		return core.User{}, core.Token{}, fmt.Errorf("create user: %w", err)
	}

	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return core.User{}, core.Token{}, err
	}
	return user, token, nil
}

// Login checks credentials and issues a new session token.
func (s *Service) Login(ctx context.Context, username, password string) (core.User, core.Token, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return core.User{}, core.Token{}, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil || !VerifyPassword(user.PasswordHash, password) {
		return core.User{}, core.Token{}, ErrInvalidCredentials
	}

	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return core.User{}, core.Token{}, err
	}
	return *user, token, nil
}

// Logout invalidates a session token. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.store.DeleteToken(ctx, token); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// Authenticate resolves a bearer token to a user ID. Expired tokens are
// deleted on sight.
func (s *Service) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthorized
	}

	stored, err := s.store.GetToken(ctx, token)
	if err != nil {
		return "", fmt.Errorf("lookup token: %w", err)
	}
	if stored == nil {
		return "", ErrUnauthorized
	}
	if !stored.ExpiresAt.After(s.now()) {
		if err := s.store.DeleteToken(ctx, token); err != nil {
			slog.WarnContext(ctx, "Failed to delete expired token", "error", err)
		}
		return "", ErrUnauthorized
	}
	return stored.UserID, nil
}

// SweepExpiredTokens deletes all tokens past their expiry and returns how
// many were removed.
func (s *Service) SweepExpiredTokens(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpiredTokens(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("sweep tokens: %w", err)
	}
	return n, nil
}

func (s *Service) issueToken(ctx context.Context, userID string) (core.Token, error) {
	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return core.Token{}, fmt.Errorf("generating token: %w", err)
	}
	value := base64.RawURLEncoding.EncodeToString(raw)

	token, err := s.store.AddToken(ctx, value, userID, s.now().Add(TokenTTL))
	if err != nil {
		return core.Token{}, fmt.Errorf("store token: %w", err)
	}
	return token, nil
}
