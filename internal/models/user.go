package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Unique index names on the users table. They must match the uniqueIndex
// tags below; stores report them on duplicate key violations.
const (
	UserUsernameIndex = "idx_users_username"
	UserEmailIndex    = "idx_users_email"
)

// User is the authenticated principal. Enabled and Locked carry no gorm
// default so that an explicit false is always written.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Username  string    `gorm:"size:30;not null;uniqueIndex:idx_users_username" json:"username"`
	Email     string    `gorm:"size:254;not null;uniqueIndex:idx_users_email" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	Bio       string    `gorm:"size:300" json:"bio"`
	Role      string    `gorm:"size:20;not null;default:'user'" json:"role"`
	Enabled   bool      `gorm:"not null" json:"enabled"`
	Locked    bool      `gorm:"not null" json:"locked"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsActive reports whether the account may authenticate.
func (u *User) IsActive() bool {
	return u.Enabled && !u.Locked
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
