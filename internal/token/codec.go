package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	KindAccess  = "access"
	KindRefresh = "refresh"

	// MinSecretBytes is the shortest HS256 key accepted. Length stands in
	// for the 256 bits of entropy HS256 wants; the codec cannot measure
	// entropy, so it only rejects the degenerate single character case.
	MinSecretBytes = 32
)

var (
	ErrMalformed    = errors.New("token is malformed")
	ErrExpired      = errors.New("token is expired")
	ErrBadSignature = errors.New("token signature is invalid")
	ErrWeakSecret   = errors.New("signing secret is too weak")
)

// Claims is the payload carried by both access and refresh tokens.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
	Role   string `json:"role,omitempty"`
	Kind   string `json:"type"`
}

type Config struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// Now overrides the wall clock, mainly for tests.
	Now func() time.Time
}

// Codec signs and verifies HS256 tokens with a single symmetric key.
// It holds no mutable state and is safe for concurrent use.
type Codec struct {
	key        []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func New(cfg Config) (*Codec, error) {
	if len(cfg.Secret) < MinSecretBytes {
		return nil, fmt.Errorf("%w: need at least %d bytes, got %d", ErrWeakSecret, MinSecretBytes, len(cfg.Secret))
	}
	if strings.Count(cfg.Secret, cfg.Secret[:1]) == len(cfg.Secret) {
		return nil, fmt.Errorf("%w: secret repeats a single character", ErrWeakSecret)
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Codec{
		key:        []byte(cfg.Secret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        now,
	}, nil
}

func (c *Codec) AccessTTL() time.Duration  { return c.accessTTL }
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// Now returns the codec's clock reading so callers stamp records with the
// same time source used for token expiry.
func (c *Codec) Now() time.Time { return c.now() }

// Issue signs claims, stamping iat and exp from the codec clock.
func (c *Codec) Issue(claims Claims, ttl time.Duration) (string, error) {
	now := c.now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", claims.Kind, err)
	}
	return signed, nil
}

// IssueAccess creates a short-lived access token for a principal.
func (c *Codec) IssueAccess(subject, userID, role string) (string, error) {
	return c.Issue(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: subject,
			ID:      uuid.NewString(),
		},
		UserID: userID,
		Role:   role,
		Kind:   KindAccess,
	}, c.accessTTL)
}

// IssueRefresh creates a long-lived refresh token. The jti keeps two tokens
// issued within the same second distinct.
func (c *Codec) IssueRefresh(subject, userID string) (string, error) {
	return c.Issue(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: subject,
			ID:      uuid.NewString(),
		},
		UserID: userID,
		Kind:   KindRefresh,
	}, c.refreshTTL)
}

// ParseClaims verifies the signature first and the expiry second.
func (c *Codec) ParseClaims(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return c.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, classify(err)
	}
	return claims, nil
}

func (c *Codec) ExtractSubject(raw string) (string, error) {
	claims, err := c.ParseClaims(raw)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (c *Codec) ExtractKind(raw string) (string, error) {
	claims, err := c.ParseClaims(raw)
	if err != nil {
		return "", err
	}
	return claims.Kind, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrBadSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
