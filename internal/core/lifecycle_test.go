package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskquest/pkg/models"
)

func TestUserCreatedIsIdempotent(t *testing.T) {
	f := newFixture(t)
	lifecycle := NewUserLifecycle(f.store, f.engine)

	profile, err := lifecycle.UserCreated(f.ctx, &models.User{ID: "u1", Username: "ada", Role: models.UserRoleUser})
	require.NoError(t, err)
	assert.Equal(t, "u1", profile.UserID)
	assert.Equal(t, 1, profile.CurrentLevel)
	assert.Equal(t, 0, profile.TotalXP)

	user, err := f.store.Users().GetByID(f.ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, baseTime, user.CreatedAt)

	again, err := lifecycle.UserCreated(f.ctx, &models.User{ID: "u1", Username: "ada", Role: models.UserRoleUser})
	require.NoError(t, err)
	assert.Equal(t, profile.CreatedAt, again.CreatedAt)

	_, err = lifecycle.UserCreated(f.ctx, nil)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	_, err = lifecycle.UserCreated(f.ctx, &models.User{})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}
