package store

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps everything in process memory for tests and local
// runs without PostgreSQL. Transaction restores the previous state when fn
// fails but does not isolate concurrent callers.
type MemoryRepository struct {
	users  *MemoryUserStore
	tokens *MemoryRefreshTokenStore
}

func NewMemoryRepository() *MemoryRepository {
	tokens := NewMemoryRefreshTokenStore()
	return &MemoryRepository{
		users:  &MemoryUserStore{byID: make(map[uuid.UUID]models.User), tokens: tokens},
		tokens: tokens,
	}
}

func (r *MemoryRepository) Users() UserStore                 { return r.users }
func (r *MemoryRepository) RefreshTokens() RefreshTokenStore { return r.tokens }

// UserStore exposes the concrete type so tests can seed principals directly.
func (r *MemoryRepository) UserStore() *MemoryUserStore { return r.users }

func (r *MemoryRepository) TokenStore() *MemoryRefreshTokenStore { return r.tokens }

func (r *MemoryRepository) Transaction(_ context.Context, fn func(tx Repository) error) error {
	users := r.users.snapshot()
	tokens := r.tokens.snapshot()
	if err := fn(r); err != nil {
		r.users.restore(users)
		r.tokens.restore(tokens)
		return err
	}
	return nil
}

type MemoryRefreshTokenStore struct {
	mu     sync.Mutex
	byID   map[uuid.UUID]models.RefreshToken
	byHash map[string]uuid.UUID
}

func NewMemoryRefreshTokenStore() *MemoryRefreshTokenStore {
	return &MemoryRefreshTokenStore{
		byID:   make(map[uuid.UUID]models.RefreshToken),
		byHash: make(map[string]uuid.UUID),
	}
}

func (s *MemoryRefreshTokenStore) Save(_ context.Context, token *models.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(token)
}

func (s *MemoryRefreshTokenStore) insertLocked(token *models.RefreshToken) error {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	if _, ok := s.byHash[token.TokenHash]; ok {
		return ErrConflict
	}
	if _, ok := s.byID[token.ID]; ok {
		return ErrConflict
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}
	s.byID[token.ID] = *token
	s.byHash[token.TokenHash] = token.ID
	return nil
}

func (s *MemoryRefreshTokenStore) FindByHash(_ context.Context, hash string) (*models.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byHash[hash]
	if !ok {
		return nil, ErrNotFound
	}
	token := s.byID[id]
	return &token, nil
}

func (s *MemoryRefreshTokenStore) ListActiveByPrincipal(_ context.Context, userID uuid.UUID) ([]models.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var tokens []models.RefreshToken
	for _, t := range s.byID {
		if t.UserID == userID && !t.Revoked {
			tokens = append(tokens, t)
		}
	}
	sort.Slice(tokens, func(i, j int) bool {
		return tokens[i].CreatedAt.After(tokens[j].CreatedAt)
	})
	return tokens, nil
}

func (s *MemoryRefreshTokenStore) Revoke(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revokeLocked(id, at), nil
}

func (s *MemoryRefreshTokenStore) revokeLocked(id uuid.UUID, at time.Time) bool {
	t, ok := s.byID[id]
	if !ok || t.Revoked {
		return false
	}
	revokedAt := at
	t.Revoked = true
	t.RevokedAt = &revokedAt
	s.byID[id] = t
	return true
}

func (s *MemoryRefreshTokenStore) RevokeAll(_ context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, t := range s.byID {
		if t.UserID == userID && s.revokeLocked(id, at) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryRefreshTokenStore) DeleteExpired(_ context.Context, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, t := range s.byID {
		if t.ExpiresAt.Before(at) {
			delete(s.byID, id)
			delete(s.byHash, t.TokenHash)
			n++
		}
	}
	return n, nil
}

func (s *MemoryRefreshTokenStore) Rotate(_ context.Context, oldID uuid.UUID, at time.Time, next *models.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.byID[oldID]
	if !ok || old.Revoked {
		return ErrRevoked
	}
	if err := s.insertLocked(next); err != nil {
		return err
	}
	s.revokeLocked(oldID, at)
	return nil
}

func (s *MemoryRefreshTokenStore) deleteByUser(userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.byID {
		if t.UserID == userID {
			delete(s.byID, id)
			delete(s.byHash, t.TokenHash)
		}
	}
}

func (s *MemoryRefreshTokenStore) snapshot() map[uuid.UUID]models.RefreshToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.byID)
}

func (s *MemoryRefreshTokenStore) restore(byID map[uuid.UUID]models.RefreshToken) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID = byID
	s.byHash = make(map[string]uuid.UUID, len(byID))
	for id, t := range byID {
		s.byHash[t.TokenHash] = id
	}
}

// Count returns the number of stored records, revoked or not.
func (s *MemoryRefreshTokenStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

type MemoryUserStore struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]models.User
	tokens *MemoryRefreshTokenStore
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{byID: make(map[uuid.UUID]models.User)}
}

func (s *MemoryUserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if err := s.conflictLocked(user); err != nil {
		return err
	}
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	s.byID[user.ID] = *user
	return nil
}

func (s *MemoryUserStore) Update(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[user.ID]; !ok {
		return ErrNotFound
	}
	if err := s.conflictLocked(user); err != nil {
		return err
	}
	user.UpdatedAt = time.Now()
	s.byID[user.ID] = *user
	return nil
}

// conflictLocked reports the unique index another user already holds.
func (s *MemoryUserStore) conflictLocked(user *models.User) error {
	for id, u := range s.byID {
		if id == user.ID {
			continue
		}
		if u.Username == user.Username {
			return &ConflictError{Constraint: models.UserUsernameIndex}
		}
		if u.Email == user.Email {
			return &ConflictError{Constraint: models.UserEmailIndex}
		}
	}
	return nil
}

func (s *MemoryUserStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	if _, ok := s.byID[id]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.byID, id)
	s.mu.Unlock()

	if s.tokens != nil {
		s.tokens.deleteByUser(id)
	}
	return nil
}

func (s *MemoryUserStore) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryUserStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.Username == username })
}

func (s *MemoryUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.Email == email })
}

func (s *MemoryUserStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := s.FindByUsername(ctx, username)
	return err == nil, nil
}

func (s *MemoryUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := s.FindByEmail(ctx, email)
	return err == nil, nil
}

func (s *MemoryUserStore) List(_ context.Context, limit, offset int) ([]models.User, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]models.User, 0, len(s.byID))
	for _, u := range s.byID {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := int64(len(all))
	if offset >= len(all) {
		return []models.User{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (s *MemoryUserStore) snapshot() map[uuid.UUID]models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.byID)
}

func (s *MemoryUserStore) restore(byID map[uuid.UUID]models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = byID
}

func (s *MemoryUserStore) find(match func(models.User) bool) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.byID {
		if match(u) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}
