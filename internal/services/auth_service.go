package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/store"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/token"
	"github.com/google/uuid"
)

var (
	ErrUsernameTaken         = errors.New("username is already taken")
	ErrEmailTaken            = errors.New("email is already registered")
	ErrInvalidCredentials    = errors.New("invalid username/email or password")
	ErrInvalidToken          = errors.New("invalid refresh token")
	ErrTokenExpiredOrRevoked = errors.New("refresh token is expired or revoked")
)

const (
	maxDeviceInfo = 500
	maxIPAddress  = 45
	tokenType     = "Bearer"
)

// ClientInfo describes the client a session was opened from.
type ClientInfo struct {
	UserAgent string
	IPAddress string
}

type AuthOption func(*AuthService)

// WithReuseDetection revokes every session of a user when one of their
// already revoked, unexpired refresh tokens is presented again.
func WithReuseDetection(enabled bool) AuthOption {
	return func(s *AuthService) { s.reuseDetection = enabled }
}

type AuthService struct {
	repo           store.Repository
	codec          *token.Codec
	hasher         PasswordHasher
	reuseDetection bool
	dummyDigest    string
}

func NewAuthService(repo store.Repository, codec *token.Codec, hasher PasswordHasher, opts ...AuthOption) *AuthService {
	s := &AuthService{repo: repo, codec: codec, hasher: hasher}
	for _, opt := range opts {
		opt(s)
	}

	// Compared against when the identifier is unknown so that response time
	// does not reveal whether an account exists.
	digest, err := hasher.Hash(uuid.NewString())
	if err != nil {
		slog.Warn("failed to prepare dummy password digest", "error", err)
	}
	s.dummyDigest = digest
	return s
}

func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest, client ClientInfo) (*dto.AuthResponse, error) {
	users := s.repo.Users()
	if taken, err := users.ExistsByUsername(ctx, req.Username); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrUsernameTaken
	}
	if taken, err := users.ExistsByEmail(ctx, req.Email); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrEmailTaken
	}

	digest, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:       uuid.New(),
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Password: digest,
		Role:     models.RoleUser,
		Enabled:  true,
		Locked:   false,
	}

	var resp *dto.AuthResponse
	err = s.repo.Transaction(ctx, func(tx store.Repository) error {
		if err := tx.Users().Create(ctx, user); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return conflictError(err)
			}
			return err
		}
		var err error
		resp, err = s.openSession(ctx, tx.RefreshTokens(), user, client)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("user registered", "user_id", user.ID.String(), "action", "register")
	return resp, nil
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest, client ClientInfo) (*dto.AuthResponse, error) {
	user, err := s.lookupIdentifier(ctx, req.UsernameOrEmail)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.hasher.Verify(req.Password, s.dummyDigest)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !s.hasher.Verify(req.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive() {
		slog.Warn("login rejected for inactive account", "user_id", user.ID.String(), "enabled", user.Enabled, "locked", user.Locked)
		return nil, ErrInvalidCredentials
	}

	return s.openSession(ctx, s.repo.RefreshTokens(), user, client)
}

// Refresh exchanges a live refresh token for a new pair. The presented token
// is revoked in the same transaction that stores its replacement.
func (s *AuthService) Refresh(ctx context.Context, raw string) (*dto.AuthResponse, error) {
	claims, err := s.codec.ParseClaims(raw)
	if err != nil {
		slog.Debug("refresh token rejected", "error", err)
		return nil, ErrInvalidToken
	}
	if claims.Kind != token.KindRefresh || strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}

	tokens := s.repo.RefreshTokens()
	record, err := tokens.FindByHash(ctx, store.HashToken(raw))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}

	now := s.codec.Now()
	if !record.IsValid(now) {
		if record.Revoked && record.ExpiresAt.After(now) {
			s.handleReuse(ctx, tokens, record)
		}
		return nil, ErrTokenExpiredOrRevoked
	}

	user, err := s.repo.Users().FindByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !user.IsActive() {
		return nil, ErrTokenExpiredOrRevoked
	}

	access, refresh, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}
	next := s.newRecord(user.ID, refresh, ClientInfo{UserAgent: record.DeviceInfo, IPAddress: record.IPAddress})
	if err := tokens.Rotate(ctx, record.ID, now, next); err != nil {
		if errors.Is(err, store.ErrRevoked) {
			return nil, ErrTokenExpiredOrRevoked
		}
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	return s.envelope(access, refresh, user), nil
}

// Logout revokes the record behind raw. Unknown, blank and already revoked
// tokens are accepted silently.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	tokens := s.repo.RefreshTokens()
	record, err := tokens.FindByHash(ctx, store.HashToken(raw))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up refresh token: %w", err)
	}
	if record.Revoked {
		return nil
	}

	if _, err := tokens.Revoke(ctx, record.ID, s.codec.Now()); err != nil {
		return err
	}
	return nil
}

func (s *AuthService) LogoutAllDevices(ctx context.Context, userID uuid.UUID) error {
	return s.revokeSessions(ctx, s.repo, userID)
}

// revokeSessions revokes every refresh token of userID through repo, which
// may be a transaction scoped repository.
func (s *AuthService) revokeSessions(ctx context.Context, repo store.Repository, userID uuid.UUID) error {
	n, err := repo.RefreshTokens().RevokeAll(ctx, userID, s.codec.Now())
	if err != nil {
		return err
	}
	slog.Info("revoked all sessions", "user_id", userID.String(), "revoked", n, "action", "logout_all")
	return nil
}

func (s *AuthService) ListSessions(ctx context.Context, userID uuid.UUID) ([]dto.SessionResponse, error) {
	records, err := s.repo.RefreshTokens().ListActiveByPrincipal(ctx, userID)
	if err != nil {
		return nil, err
	}

	sessions := make([]dto.SessionResponse, 0, len(records))
	for i := range records {
		sessions = append(sessions, dto.NewSessionResponse(&records[i]))
	}
	return sessions, nil
}

// SweepExpired deletes records whose expiry has passed.
func (s *AuthService) SweepExpired(ctx context.Context) (int64, error) {
	return s.repo.RefreshTokens().DeleteExpired(ctx, s.codec.Now())
}

func (s *AuthService) handleReuse(ctx context.Context, tokens store.RefreshTokenStore, record *models.RefreshToken) {
	slog.Warn("revoked refresh token presented", "user_id", record.UserID.String(), "token_id", record.ID.String())
	if !s.reuseDetection {
		return
	}
	n, err := tokens.RevokeAll(ctx, record.UserID, s.codec.Now())
	if err != nil {
		slog.Error("failed to revoke sessions after token reuse", "user_id", record.UserID.String(), "error", err)
		return
	}
	slog.Warn("refresh token reuse detected, revoked all sessions", "user_id", record.UserID.String(), "revoked", n)
}

func (s *AuthService) lookupIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	users := s.repo.Users()
	user, err := users.FindByUsername(ctx, identifier)
	if err == nil || !errors.Is(err, store.ErrNotFound) {
		return user, err
	}
	return users.FindByEmail(ctx, strings.ToLower(identifier))
}

func (s *AuthService) openSession(ctx context.Context, tokens store.RefreshTokenStore, user *models.User, client ClientInfo) (*dto.AuthResponse, error) {
	access, refresh, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}
	if err := tokens.Save(ctx, s.newRecord(user.ID, refresh, client)); err != nil {
		return nil, err
	}
	return s.envelope(access, refresh, user), nil
}

func (s *AuthService) issuePair(user *models.User) (string, string, error) {
	access, err := s.codec.IssueAccess(user.Username, user.ID.String(), user.Role)
	if err != nil {
		return "", "", err
	}
	refresh, err := s.codec.IssueRefresh(user.Username, user.ID.String())
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (s *AuthService) newRecord(userID uuid.UUID, refresh string, client ClientInfo) *models.RefreshToken {
	now := s.codec.Now()
	return &models.RefreshToken{
		ID:         uuid.New(),
		UserID:     userID,
		TokenHash:  store.HashToken(refresh),
		ExpiresAt:  now.Add(s.codec.RefreshTTL()),
		DeviceInfo: truncate(client.UserAgent, maxDeviceInfo),
		IPAddress:  truncate(client.IPAddress, maxIPAddress),
		CreatedAt:  now,
	}
}

func (s *AuthService) envelope(access, refresh string, user *models.User) *dto.AuthResponse {
	return &dto.AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    tokenType,
		ExpiresIn:    int64(s.codec.AccessTTL().Seconds()),
		User:         dto.NewUserResponse(user),
	}
}

// conflictError maps a unique violation raised by the users table onto the
// matching sentinel by index name. Other conflicts pass through unchanged.
func conflictError(err error) error {
	constraint, _ := store.ConflictConstraint(err)
	switch constraint {
	case models.UserEmailIndex:
		return ErrEmailTaken
	case models.UserUsernameIndex:
		return ErrUsernameTaken
	}
	return err
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
