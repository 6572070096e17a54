package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRefreshToken_IsValid(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		token RefreshToken
		want  bool
	}{
		{"active", RefreshToken{ExpiresAt: now.Add(time.Minute)}, true},
		{"revoked", RefreshToken{ExpiresAt: now.Add(time.Minute), Revoked: true}, false},
		{"expired", RefreshToken{ExpiresAt: now.Add(-time.Second)}, false},
		{"expires exactly now", RefreshToken{ExpiresAt: now}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.token.IsValid(now))
		})
	}
}

func TestUser_IsActive(t *testing.T) {
	assert.True(t, (&User{Enabled: true}).IsActive())
	assert.False(t, (&User{Enabled: false}).IsActive())
	assert.False(t, (&User{Enabled: true, Locked: true}).IsActive())
}
