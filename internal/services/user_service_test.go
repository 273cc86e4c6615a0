package services

import (
	"context"
	"testing"

	"agencyportal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, err := env.userSvc.EnsureUser(ctx, &models.Identity{UID: clientActor.UserID, Email: clientActor.Email})
	require.NoError(t, err)
	assert.False(t, session.Created)
	assert.Equal(t, models.UserRoleClient, session.User.Role)

	session, err = env.userSvc.EnsureUser(ctx, &models.Identity{UID: "fresh", Email: "Fresh@Example.com"})
	require.NoError(t, err)
	assert.True(t, session.Created)
	assert.Equal(t, "fresh@example.com", session.User.Email)
	assert.Equal(t, models.UserRoleClient, session.User.Role)

	_, err = env.userSvc.EnsureUser(ctx, &models.Identity{UID: "no-email"})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestSetRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.users.items[adminActor.UserID] = &models.User{ID: adminActor.UserID, Email: adminActor.Email, Role: models.UserRoleAdmin}

	isAdmin, err := env.userSvc.IsAdmin(ctx, clientActor.UserID)
	require.NoError(t, err)
	assert.False(t, isAdmin)

	user, err := env.userSvc.SetRole(ctx, clientActor.UserID, models.UserRoleAdmin, adminActor)
	require.NoError(t, err)
	assert.True(t, user.IsAdmin())

	_, err = env.userSvc.SetRole(ctx, adminActor.UserID, models.UserRoleClient, adminActor)
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = env.userSvc.SetRole(ctx, clientActor.UserID, models.UserRole("owner"), adminActor)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = env.userSvc.IsAdmin(ctx, "ghost")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
