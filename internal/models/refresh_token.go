package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is the server-side record of an issued refresh token. Only
// the hash of the raw token is stored.
type RefreshToken struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"userId"`
	TokenHash  string     `gorm:"uniqueIndex;not null;size:64" json:"-"`
	ExpiresAt  time.Time  `gorm:"not null;index" json:"expiresAt"`
	Revoked    bool       `gorm:"not null;index" json:"revoked"`
	RevokedAt  *time.Time `json:"revokedAt,omitempty"`
	DeviceInfo string     `gorm:"size:500" json:"deviceInfo"`
	IPAddress  string     `gorm:"size:45" json:"ipAddress"`
	CreatedAt  time.Time  `json:"createdAt"`
	User       User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsValid reports whether the record can still be exchanged at now.
func (t *RefreshToken) IsValid(now time.Time) bool {
	return !t.Revoked && t.ExpiresAt.After(now)
}
