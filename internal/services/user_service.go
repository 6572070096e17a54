package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/store"
	"github.com/google/uuid"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrIncorrectPassword = errors.New("current password is incorrect")
)

type UserService struct {
	repo   store.Repository
	hasher PasswordHasher
	auth   *AuthService
}

func NewUserService(repo store.Repository, hasher PasswordHasher, auth *AuthService) *UserService {
	return &UserService{repo: repo, hasher: hasher, auth: auth}
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.Users().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, req *dto.UpdateUserRequest) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	users := s.repo.Users()

	if req.Username != nil && *req.Username != user.Username {
		taken, err := users.ExistsByUsername(ctx, *req.Username)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrUsernameTaken
		}
		user.Username = *req.Username
	}
	if req.Email != nil && *req.Email != user.Email {
		taken, err := users.ExistsByEmail(ctx, *req.Email)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrEmailTaken
		}
		user.Email = *req.Email
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}

	if err := users.Update(ctx, user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, conflictError(err)
		}
		return nil, err
	}
	return user, nil
}

// ChangePassword replaces the password digest and ends every session of the
// user in one transaction, so existing refresh tokens cannot outlive the old
// password.
func (s *UserService) ChangePassword(ctx context.Context, id uuid.UUID, req *dto.ChangePasswordRequest) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(req.CurrentPassword, user.Password) {
		return ErrIncorrectPassword
	}

	digest, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	user.Password = digest
	return s.repo.Transaction(ctx, func(tx store.Repository) error {
		if err := tx.Users().Update(ctx, user); err != nil {
			return err
		}
		return s.auth.revokeSessions(ctx, tx, user.ID)
	})
}

func (s *UserService) List(ctx context.Context, limit, offset int) ([]models.User, int64, error) {
	return s.repo.Users().List(ctx, limit, offset)
}

// SetStatus updates the enabled and locked flags. An account that can no
// longer log in loses all of its sessions.
func (s *UserService) SetStatus(ctx context.Context, id uuid.UUID, req *dto.UserStatusRequest) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Enabled != nil {
		user.Enabled = *req.Enabled
	}
	if req.Locked != nil {
		user.Locked = *req.Locked
	}

	err = s.repo.Transaction(ctx, func(tx store.Repository) error {
		if err := tx.Users().Update(ctx, user); err != nil {
			return err
		}
		if user.IsActive() {
			return nil
		}
		if err := s.auth.revokeSessions(ctx, tx, user.ID); err != nil {
			return fmt.Errorf("failed to revoke sessions: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("user status changed", "user_id", user.ID.String(), "enabled", user.Enabled, "locked", user.Locked, "action", "set_status")
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Users().Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	slog.Info("user deleted", "user_id", id.String(), "action", "delete_user")
	return nil
}
