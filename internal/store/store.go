package store

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"time"

	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/models"
	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
	// ErrRevoked is returned by Rotate when the old record was revoked
	// before this caller could claim it.
	ErrRevoked = errors.New("refresh token already revoked")
)

// ConflictError is a unique constraint violation. Constraint names the
// violated index when the backend reports one. It matches ErrConflict.
type ConflictError struct {
	Constraint string
}

func (e *ConflictError) Error() string {
	if e.Constraint == "" {
		return ErrConflict.Error()
	}
	return ErrConflict.Error() + ": " + e.Constraint
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// ConflictConstraint returns the constraint named by a conflict in err's
// chain. ok is false when err is not a conflict at all.
func ConflictConstraint(err error) (constraint string, ok bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce.Constraint, true
	}
	return "", errors.Is(err, ErrConflict)
}

// RefreshTokenStore persists refresh token records keyed by the hash of the
// raw token.
type RefreshTokenStore interface {
	Save(ctx context.Context, token *models.RefreshToken) error
	FindByHash(ctx context.Context, hash string) (*models.RefreshToken, error)
	ListActiveByPrincipal(ctx context.Context, userID uuid.UUID) ([]models.RefreshToken, error)
	// Revoke marks a single record revoked. It reports false when the record
	// was already revoked or does not exist.
	Revoke(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	RevokeAll(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error)
	DeleteExpired(ctx context.Context, at time.Time) (int64, error)
	// Rotate revokes oldID and saves next atomically. Exactly one of several
	// concurrent callers rotating the same record succeeds; the others get
	// ErrRevoked.
	Rotate(ctx context.Context, oldID uuid.UUID, at time.Time, next *models.RefreshToken) error
}

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, limit, offset int) ([]models.User, int64, error)
}

// Repository groups the stores that share a connection so a use case can
// run several writes in one transaction.
type Repository interface {
	Users() UserStore
	RefreshTokens() RefreshTokenStore
	Transaction(ctx context.Context, fn func(tx Repository) error) error
}

// HashToken returns the base64 encoded SHA-256 digest of a raw token.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return base64.StdEncoding.EncodeToString(sum[:])
}
