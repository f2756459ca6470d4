package user

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menu-app-go/internal/db/dbtest"
	domain "menu-app-go/internal/domain/user"
)

func TestUserRepository(t *testing.T) {
	repo := NewPostgres(dbtest.Open(t))
	ctx := context.Background()

	first := domain.User{Username: "chef", Email: "chef@example.com", PasswordHash: "h"}
	require.NoError(t, repo.Create(ctx, &first))
	second := domain.User{Username: "waiter", PasswordHash: "h", IsStaff: true}
	require.NoError(t, repo.Create(ctx, &second))

	dup := domain.User{Username: "chef", PasswordHash: "h"}
	assert.True(t, errors.Is(repo.Create(ctx, &dup), domain.ErrUsernameTaken))

	found, err := repo.GetByUsername(ctx, "waiter")
	require.NoError(t, err)
	assert.True(t, found.IsStaff)

	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "chef", users[0].Username)
	assert.Equal(t, "waiter", users[1].Username)
}
