package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Rrens/identity-api/internal/domain"
	"github.com/Rrens/identity-api/internal/identity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const userColumns = `id, user_name, normalized_user_name, email, normalized_email,
	password_hash, security_stamp, first_name, last_name, created_at, updated_at`

// UserRepository handles user data access
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		user.ID,
		user.UserName,
		user.NormalizedUserName,
		user.Email,
		user.NormalizedEmail,
		user.PasswordHash,
		user.SecurityStamp,
		user.FirstName,
		user.LastName,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return &identity.DuplicateError{Field: duplicateField(pgErr.ConstraintName), Err: err}
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getOne(ctx, "id", id)
}

// GetByNormalizedUserName retrieves a user by normalized user name
func (r *UserRepository) GetByNormalizedUserName(ctx context.Context, normalized string) (*domain.User, error) {
	return r.getOne(ctx, "normalized_user_name", normalized)
}

// GetByNormalizedEmail retrieves a user by normalized email
func (r *UserRepository) GetByNormalizedEmail(ctx context.Context, normalized string) (*domain.User, error) {
	return r.getOne(ctx, "normalized_email", normalized)
}

func (r *UserRepository) getOne(ctx context.Context, column string, value any) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1 LIMIT 1`

	var user domain.User
	err := r.db.Pool.QueryRow(ctx, query, value).Scan(
		&user.ID,
		&user.UserName,
		&user.NormalizedUserName,
		&user.Email,
		&user.NormalizedEmail,
		&user.PasswordHash,
		&user.SecurityStamp,
		&user.FirstName,
		&user.LastName,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

func duplicateField(constraint string) string {
	if strings.Contains(constraint, "email") {
		return identity.FieldEmail
	}
	return identity.FieldUserName
}
