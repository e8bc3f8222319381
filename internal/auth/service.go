// Package auth issues and verifies the bearer tokens protecting the
// analytics and ingestion endpoints.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/revlens-lab/project-revlens/internal/core/storage"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials covers unknown emails and wrong passwords alike, so
// responses do not leak which part failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidToken is returned for malformed, mis-signed, or expired tokens.
var ErrInvalidToken = errors.New("invalid token")

// Service owns registration, login, and token verification.
type Service struct {
	users    storage.UserStore
	secret   []byte
	tokenTTL time.Duration
}

func NewService(users storage.UserStore, secret string, tokenTTL time.Duration) *Service {
	if users == nil {
		panic("auth: user store must not be nil")
	}
	if secret == "" {
		panic("auth: signing secret must not be empty")
	}
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &Service{
		users:    users,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}
}

// Register creates a user with a bcrypt-hashed password.
// Returns storage.ErrDuplicateEmail if the email is already registered.
func (s *Service) Register(ctx context.Context, email, password string) (*storage.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: malformed email", ErrInvalidCredentials)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidCredentials)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, email, string(hashed))
	if err != nil {
		return nil, err
	}

	slog.Info("Registered user", "user_id", user.ID)
	return user, nil
}

// Login verifies the credentials and issues a signed bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   user.Email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Authenticate verifies a bearer token and loads the user it names.
func (s *Service) Authenticate(ctx context.Context, tokenString string) (*storage.User, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	user, err := s.users.GetUserByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("look up token subject: %w", err)
	}
	return user, nil
}
