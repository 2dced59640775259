package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Rrens/identity-api/internal/domain"
	"github.com/Rrens/identity-api/internal/identity"
	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const mysqlDuplicateEntry = 1062

const userColumns = `id, user_name, normalized_user_name, email, normalized_email,
	password_hash, security_stamp, first_name, last_name, created_at, updated_at`

// UserRepository handles user data access over database/sql
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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.UserName,
		user.NormalizedUserName,
		user.Email,
		user.NormalizedEmail,
		user.PasswordHash,
		user.SecurityStamp,
		user.FirstName,
		user.LastName,
		user.CreatedAt.UTC(),
		user.UpdatedAt.UTC(),
	)
	if err != nil {
		if field, ok := duplicateField(err); ok {
			return &identity.DuplicateError{Field: field, Err: err}
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
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = ? LIMIT 1`

	var user domain.User
	err := r.db.QueryRowContext(ctx, query, value).Scan(
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
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// duplicateField reports which unique column rejected an insert, if any.
// MySQL names the key and SQLite names the column in the error message.
func duplicateField(err error) (string, bool) {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return fieldFromMessage(myErr.Message), true
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) && liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return fieldFromMessage(liteErr.Error()), true
	}

	return "", false
}

func fieldFromMessage(msg string) string {
	// MySQL echoes the rejected value before the key name
	if idx := strings.LastIndex(msg, "for key"); idx >= 0 {
		msg = msg[idx:]
	}
	if strings.Contains(strings.ToLower(msg), "email") {
		return identity.FieldEmail
	}
	return identity.FieldUserName
}
