package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Rrens/identity-api/internal/domain"
	"github.com/Rrens/identity-api/internal/identity"
	"github.com/Rrens/identity-api/migrations"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuplicateField(t *testing.T) {
	tests := []struct {
		constraint string
		want       string
	}{
		{constraint: "ux_users_normalized_email", want: identity.FieldEmail},
		{constraint: "ux_users_normalized_user_name", want: identity.FieldUserName},
		{constraint: "users_pkey", want: identity.FieldUserName},
		{constraint: "", want: identity.FieldUserName},
	}

	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			assert.Equal(t, tt.want, duplicateField(tt.constraint))
		})
	}
}

// newTestDB connects to POSTGRES_TEST_DSN, skipping when it is unset
func newTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("Requires PostgreSQL - set POSTGRES_TEST_DSN to run")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	schema, err := migrations.FS.ReadFile("postgres/000001_create_users.up.sql")
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(schema))
	require.NoError(t, err)

	return &DB{Pool: pool}
}

func testUser() *domain.User {
	suffix := uuid.NewString()[:8]
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.User{
		ID:                 uuid.New(),
		UserName:           "user-" + suffix,
		NormalizedUserName: "USER-" + suffix,
		Email:              suffix + "@example.com",
		NormalizedEmail:    suffix + "@EXAMPLE.COM",
		PasswordHash:       "hash",
		SecurityStamp:      uuid.NewString(),
		FirstName:          "First",
		LastName:           "Last",
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func TestUserRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := testUser()
	require.NoError(t, repo.Create(ctx, user))
	t.Cleanup(func() {
		db.Pool.Exec(context.Background(), "DELETE FROM users WHERE id = $1", user.ID)
	})

	got, err := repo.GetByNormalizedUserName(ctx, user.NormalizedUserName)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.ID)
	assert.True(t, user.CreatedAt.Equal(got.CreatedAt))

	got, err = repo.GetByNormalizedEmail(ctx, user.NormalizedEmail)
	require.NoError(t, err)
	require.NotNil(t, got)

	missing, err := repo.GetByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	sameName := testUser()
	sameName.NormalizedUserName = user.NormalizedUserName
	var dupErr *identity.DuplicateError
	require.ErrorAs(t, repo.Create(ctx, sameName), &dupErr)
	assert.Equal(t, identity.FieldUserName, dupErr.Field)

	sameEmail := testUser()
	sameEmail.NormalizedEmail = user.NormalizedEmail
	require.ErrorAs(t, repo.Create(ctx, sameEmail), &dupErr)
	assert.Equal(t, identity.FieldEmail, dupErr.Field)
}
