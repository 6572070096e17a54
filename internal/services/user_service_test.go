package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newUserService(f *authFixture) *UserService {
	return NewUserService(f.repo, NewBcryptHasher(bcrypt.MinCost), f.svc)
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestUserService_UpdateProfile(t *testing.T) {
	f := newAuthFixture(t)
	users := newUserService(f)
	ana := f.register(t, "ana").User
	f.register(t, "bia")
	ctx := context.Background()

	updated, err := users.UpdateProfile(ctx, ana.ID, &dto.UpdateUserRequest{
		Name: strPtr("Ana Lima"),
		Bio:  strPtr("Reads on trains."),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana Lima", updated.Name)
	assert.Equal(t, "Reads on trains.", updated.Bio)
	assert.Equal(t, "ana", updated.Username)

	_, err = users.UpdateProfile(ctx, ana.ID, &dto.UpdateUserRequest{Username: strPtr("bia")})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = users.UpdateProfile(ctx, ana.ID, &dto.UpdateUserRequest{Email: strPtr("bia@example.com")})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = users.UpdateProfile(ctx, uuid.New(), &dto.UpdateUserRequest{})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_ChangePasswordRevokesSessions(t *testing.T) {
	f := newAuthFixture(t)
	users := newUserService(f)
	resp := f.register(t, "ana")
	ctx := context.Background()

	err := users.ChangePassword(ctx, resp.User.ID, &dto.ChangePasswordRequest{
		CurrentPassword: "wrong", NewPassword: "N3w!passw0rd",
	})
	assert.ErrorIs(t, err, ErrIncorrectPassword)

	require.NoError(t, users.ChangePassword(ctx, resp.User.ID, &dto.ChangePasswordRequest{
		CurrentPassword: "Str0ng!pass", NewPassword: "N3w!passw0rd",
	}))

	_, err = f.svc.Refresh(ctx, resp.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenExpiredOrRevoked)

	_, err = f.svc.Login(ctx, &dto.LoginRequest{UsernameOrEmail: "ana", Password: "N3w!passw0rd"}, ClientInfo{})
	assert.NoError(t, err)
}

// revokeFailingRepo is a memory repository whose RevokeAll always fails.
type revokeFailingRepo struct {
	*store.MemoryRepository
}

func (r revokeFailingRepo) RefreshTokens() store.RefreshTokenStore {
	return revokeFailingTokens{r.MemoryRepository.RefreshTokens()}
}

func (r revokeFailingRepo) Transaction(ctx context.Context, fn func(tx store.Repository) error) error {
	return r.MemoryRepository.Transaction(ctx, func(store.Repository) error { return fn(r) })
}

type revokeFailingTokens struct {
	store.RefreshTokenStore
}

func (revokeFailingTokens) RevokeAll(context.Context, uuid.UUID, time.Time) (int64, error) {
	return 0, errors.New("connection reset")
}

func TestUserService_ChangePasswordRollsBackWhenRevokeFails(t *testing.T) {
	f := newAuthFixture(t)
	resp := f.register(t, "ana")
	ctx := context.Background()

	hasher := NewBcryptHasher(bcrypt.MinCost)
	repo := revokeFailingRepo{f.repo}
	users := NewUserService(repo, hasher, NewAuthService(repo, f.codec, hasher))

	err := users.ChangePassword(ctx, resp.User.ID, &dto.ChangePasswordRequest{
		CurrentPassword: "Str0ng!pass", NewPassword: "N3w!passw0rd",
	})
	require.Error(t, err)

	stored, err := f.repo.Users().FindByID(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.True(t, hasher.Verify("Str0ng!pass", stored.Password))
	assert.False(t, hasher.Verify("N3w!passw0rd", stored.Password))

	_, err = f.svc.Refresh(ctx, resp.RefreshToken)
	assert.NoError(t, err)
}

func TestUserService_SetStatusRollsBackWhenRevokeFails(t *testing.T) {
	f := newAuthFixture(t)
	resp := f.register(t, "ana")
	ctx := context.Background()

	hasher := NewBcryptHasher(bcrypt.MinCost)
	repo := revokeFailingRepo{f.repo}
	users := NewUserService(repo, hasher, NewAuthService(repo, f.codec, hasher))

	_, err := users.SetStatus(ctx, resp.User.ID, &dto.UserStatusRequest{Locked: boolPtr(true)})
	require.Error(t, err)

	stored, err := f.repo.Users().FindByID(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.False(t, stored.Locked)
}

func TestUserService_SetStatus(t *testing.T) {
	f := newAuthFixture(t)
	users := newUserService(f)
	resp := f.register(t, "ana")
	ctx := context.Background()

	user, err := users.SetStatus(ctx, resp.User.ID, &dto.UserStatusRequest{Locked: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, user.Locked)

	_, err = f.svc.Refresh(ctx, resp.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenExpiredOrRevoked)

	user, err = users.SetStatus(ctx, resp.User.ID, &dto.UserStatusRequest{Locked: boolPtr(false)})
	require.NoError(t, err)
	assert.True(t, user.IsActive())

	_, err = f.svc.Login(ctx, &dto.LoginRequest{UsernameOrEmail: "ana", Password: "Str0ng!pass"}, ClientInfo{})
	assert.NoError(t, err)
}

func TestUserService_Delete(t *testing.T) {
	f := newAuthFixture(t)
	users := newUserService(f)
	resp := f.register(t, "ana")
	ctx := context.Background()

	require.NoError(t, users.Delete(ctx, resp.User.ID))
	assert.Zero(t, f.repo.TokenStore().Count())
	assert.ErrorIs(t, users.Delete(ctx, resp.User.ID), ErrUserNotFound)

	_, err := users.Get(ctx, resp.User.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_List(t *testing.T) {
	f := newAuthFixture(t)
	users := newUserService(f)
	f.register(t, "ana")
	f.register(t, "bia")
	f.register(t, "cris")

	list, total, err := users.List(context.Background(), 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, list, 2)
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	digest, err := h.Hash("Str0ng!pass")
	require.NoError(t, err)

	assert.True(t, h.Verify("Str0ng!pass", digest))
	assert.False(t, h.Verify("other", digest))
	assert.False(t, h.Verify("Str0ng!pass", ""))

	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).cost)
}
