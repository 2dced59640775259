package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Rrens/identity-api/internal/domain"
	"github.com/Rrens/identity-api/internal/identity"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// userDocument is the stored shape of a user; the id is kept as its
// canonical string form
type userDocument struct {
	ID                 string    `bson:"_id"`
	UserName           string    `bson:"user_name"`
	NormalizedUserName string    `bson:"normalized_user_name"`
	Email              string    `bson:"email"`
	NormalizedEmail    string    `bson:"normalized_email"`
	PasswordHash       string    `bson:"password_hash"`
	SecurityStamp      string    `bson:"security_stamp"`
	FirstName          string    `bson:"first_name"`
	LastName           string    `bson:"last_name"`
	CreatedAt          time.Time `bson:"created_at"`
	UpdatedAt          time.Time `bson:"updated_at"`
}

func toDocument(u *domain.User) userDocument {
	return userDocument{
		ID:                 u.ID.String(),
		UserName:           u.UserName,
		NormalizedUserName: u.NormalizedUserName,
		Email:              u.Email,
		NormalizedEmail:    u.NormalizedEmail,
		PasswordHash:       u.PasswordHash,
		SecurityStamp:      u.SecurityStamp,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

func (d userDocument) toUser() (*domain.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", d.ID, err)
	}
	return &domain.User{
		ID:                 id,
		UserName:           d.UserName,
		NormalizedUserName: d.NormalizedUserName,
		Email:              d.Email,
		NormalizedEmail:    d.NormalizedEmail,
		PasswordHash:       d.PasswordHash,
		SecurityStamp:      d.SecurityStamp,
		FirstName:          d.FirstName,
		LastName:           d.LastName,
		CreatedAt:          d.CreatedAt.UTC(),
		UpdatedAt:          d.UpdatedAt.UTC(),
	}, nil
}

// UserRepository handles user data access in MongoDB
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if _, err := r.db.users().InsertOne(ctx, toDocument(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return &identity.DuplicateError{Field: duplicateField(err), Err: err}
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()})
}

// GetByNormalizedUserName retrieves a user by normalized user name
func (r *UserRepository) GetByNormalizedUserName(ctx context.Context, normalized string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"normalized_user_name": normalized})
}

// GetByNormalizedEmail retrieves a user by normalized email
func (r *UserRepository) GetByNormalizedEmail(ctx context.Context, normalized string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"normalized_email": normalized})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDocument
	if err := r.db.users().FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return doc.toUser()
}

// duplicateField reads the violated index from the server message. Stored
// key values are upper-cased, so the lower-case field name only appears
// in the index and key description.
func duplicateField(err error) string {
	if strings.Contains(err.Error(), "normalized_email") {
		return identity.FieldEmail
	}
	return identity.FieldUserName
}
