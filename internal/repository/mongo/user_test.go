package mongo

import (
	"errors"
	"testing"
	"time"

	"github.com/Rrens/identity-api/internal/domain"
	"github.com/Rrens/identity-api/internal/identity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserDocument_RoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	user := &domain.User{
		ID:                 uuid.New(),
		UserName:           "alice",
		NormalizedUserName: "ALICE",
		Email:              "alice@example.com",
		NormalizedEmail:    "ALICE@EXAMPLE.COM",
		PasswordHash:       "hash",
		SecurityStamp:      "stamp",
		FirstName:          "Alice",
		LastName:           "Liddell",
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	doc := toDocument(user)
	assert.Equal(t, user.ID.String(), doc.ID)

	got, err := doc.toUser()
	require.NoError(t, err)
	assert.Equal(t, user, got)
}

func TestUserDocument_InvalidID(t *testing.T) {
	_, err := userDocument{ID: "not-a-uuid"}.toUser()
	assert.Error(t, err)
}

func TestDuplicateField(t *testing.T) {
	emailErr := errors.New(`E11000 duplicate key error collection: identity.users index: ux_users_normalized_email dup key: { normalized_email: "ALICE@EXAMPLE.COM" }`)
	nameErr := errors.New(`E11000 duplicate key error collection: identity.users index: ux_users_normalized_user_name dup key: { normalized_user_name: "ALICE" }`)

	assert.Equal(t, identity.FieldEmail, duplicateField(emailErr))
	assert.Equal(t, identity.FieldUserName, duplicateField(nameErr))
}
