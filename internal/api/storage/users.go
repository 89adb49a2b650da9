package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/adityawrm/voiceguard/internal/api/domain"
	"github.com/adityawrm/voiceguard/internal/api/model"
	"github.com/adityawrm/voiceguard/shared/postgres"
)

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailTaken is returned when registering an already-used email.
var ErrEmailTaken = errors.New("email already registered")

// UserStore persists user accounts.
type UserStore struct {
	db *sqlx.DB
}

// NewUserStore creates a UserStore backed by pg.
func NewUserStore(pg *postgres.Client) *UserStore {
	return &UserStore{db: pg.GetDB()}
}

// CreateUser inserts a new user with the FREE plan and returns the stored row.
func (s *UserStore) CreateUser(ctx context.Context, email, passwordHash string) (*model.User, error) {
	var existing int
	err := s.db.GetContext(ctx, &existing,
		`SELECT COUNT(*) FROM users WHERE email = $1`, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing > 0 {
		return nil, ErrEmailTaken
	}

	user := &model.User{
		UserID:       uuid.New().String(),
		Email:        email,
		PasswordHash: passwordHash,
		Plan:         domain.PlanFree,
	}

	query := `
		INSERT INTO users (user_id, email, password_hash, plan)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`

	err = s.db.QueryRowxContext(ctx, query,
		user.UserID, user.Email, user.PasswordHash, user.Plan,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// GetByEmail returns the user with the given email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	query := `
		SELECT user_id, email, password_hash, plan, created_at, updated_at
		FROM users
		WHERE email = $1
	`

	err := s.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &user, nil
}

// GetByID returns the user with the given id.
func (s *UserStore) GetByID(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	query := `
		SELECT user_id, email, password_hash, plan, created_at, updated_at
		FROM users
		WHERE user_id = $1
	`

	err := s.db.GetContext(ctx, &user, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return &user, nil
}
