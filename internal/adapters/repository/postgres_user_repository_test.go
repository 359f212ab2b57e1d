package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
)

func TestPostgresUserRepository_Integration(t *testing.T) {
	db := setupTestDB(t)

	repo := NewPostgresUserRepository(db)
	ctx := context.Background()

	user, err := domain.NewUser(uuid.NewString(), "User.Repo@Kanso.app")
	require.NoError(t, err)
	require.NoError(t, user.SetPassword("StrongPassword123!"))

	t.Run("Create and fetch by email and id", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, user))

		byEmail, err := repo.GetByEmail(ctx, "user.repo@kanso.app")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)
		assert.Equal(t, user.PasswordHash, byEmail.PasswordHash)

		byID, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.Email, byID.Email)
	})

	t.Run("Duplicate email", func(t *testing.T) {
		dup, _ := domain.NewUser(uuid.NewString(), user.Email)
		dup.PasswordHash = "hash"

		err := repo.Create(ctx, dup)
		assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
	})

	t.Run("Not found", func(t *testing.T) {
		_, err := repo.GetByEmail(ctx, "ghost@kanso.app")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)

		_, err = repo.GetByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}
