package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/revlens-lab/project-revlens/internal/core/storage"
)

// UsersAdapter implements storage.UserStore for PostgreSQL.
// It shares the connection pool of the sales Adapter.
type UsersAdapter struct {
	db *sql.DB
}

// NewUsersAdapter creates a user store backed by an existing connection.
func NewUsersAdapter(db *sql.DB) *UsersAdapter {
	return &UsersAdapter{db: db}
}

// CreateUser inserts a user row. Uses ON CONFLICT DO NOTHING so a duplicate
// email returns no rows (sql.ErrNoRows), mapped to storage.ErrDuplicateEmail.
func (a *UsersAdapter) CreateUser(ctx context.Context, email, hashedPassword string) (*storage.User, error) {
	var id int64
	err := a.db.QueryRowContext(ctx, queryCreateUser, email, hashedPassword).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, storage.ErrDuplicateEmail
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Debug("[Postgres] Created user", "user_id", id)

	return &storage.User{
		ID:             id,
		Email:          email,
		HashedPassword: hashedPassword,
	}, nil
}

// GetUserByEmail looks a user up by email.
func (a *UsersAdapter) GetUserByEmail(ctx context.Context, email string) (*storage.User, error) {
	var u storage.User
	err := a.db.QueryRowContext(ctx, queryGetUserByEmail, email).
		Scan(&u.ID, &u.Email, &u.HashedPassword)
	if err == sql.ErrNoRows {
		return nil, storage.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &u, nil
}

// CountUsers returns the total number of registered users.
func (a *UsersAdapter) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := a.db.QueryRowContext(ctx, queryCountUsers).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
