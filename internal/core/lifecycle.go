package core

import (
	"context"
	"errors"
	"fmt"

	"taskquest/internal/repository"
	"taskquest/pkg/logger"
	"taskquest/pkg/models"
)

// UserLifecycle is called by the account service after it creates a user
type UserLifecycle interface {
	UserCreated(ctx context.Context, user *models.User) (*models.ProgressProfile, error)
}

type userLifecycle struct {
	store  repository.Store
	engine GamificationEngine
}

// NewUserLifecycle creates the post-creation hook
func NewUserLifecycle(store repository.Store, engine GamificationEngine) UserLifecycle {
	return &userLifecycle{store: store, engine: engine}
}

// UserCreated mirrors the account locally and gives it a starting profile. Repeated calls are harmless.
func (l *userLifecycle) UserCreated(ctx context.Context, user *models.User) (*models.ProgressProfile, error) {
	if user == nil || user.ID == "" {
		return nil, fmt.Errorf("user id is required: %w", models.ErrInvalidInput)
	}

	var profile *models.ProgressProfile
	err := l.store.WithTransaction(ctx, func(tx repository.Store) error {
		if user.CreatedAt.IsZero() {
			user.CreatedAt = l.engine.Now()
		}
		_, err := tx.Users().GetByID(ctx, user.ID)
		switch {
		case errors.Is(err, models.ErrNotFound):
			if err := tx.Users().Create(ctx, user); err != nil {
				return fmt.Errorf("failed to record user: %w", err)
			}
		case err != nil:
			return fmt.Errorf("failed to look up user: %w", err)
		}
		profile, err = l.engine.WithStore(tx).EnsureProfile(ctx, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"component": "lifecycle",
		"user_id":   user.ID,
	}).Info("progress profile ready")
	return profile, nil
}
