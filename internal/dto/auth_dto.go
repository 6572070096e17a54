package dto

import (
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/models"
	"github.com/google/uuid"
)

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,notblank,min=2,max=100"`
	Username string `json:"username" validate:"required,username,min=3,max=30"`
	Email    string `json:"email" validate:"required,max=254,email"`
	Password string `json:"password" validate:"required,min=8,max=100,strongpassword"`
}

func (r *RegisterRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *RegisterRequest) Validate() FieldErrors {
	return Struct(r)
}

type LoginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail" validate:"required,notblank"`
	Password        string `json:"password" validate:"required,notblank"`
}

func (r *LoginRequest) Normalize() {
	r.UsernameOrEmail = strings.TrimSpace(r.UsernameOrEmail)
}

func (r *LoginRequest) Validate() FieldErrors {
	return Struct(r)
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required,notblank"`
}

func (r *RefreshRequest) Validate() FieldErrors {
	return Struct(r)
}

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// AuthResponse is the token envelope returned by register, login and refresh.
type AuthResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	TokenType    string       `json:"tokenType"`
	ExpiresIn    int64        `json:"expiresIn"`
	User         UserResponse `json:"user"`
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Bio       string    `json:"bio"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Username:  u.Username,
		Email:     u.Email,
		Bio:       u.Bio,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type SessionResponse struct {
	ID         uuid.UUID `json:"id"`
	DeviceInfo string    `json:"deviceInfo"`
	IPAddress  string    `json:"ipAddress"`
	CreatedAt  time.Time `json:"createdAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

func NewSessionResponse(t *models.RefreshToken) SessionResponse {
	return SessionResponse{
		ID:         t.ID,
		DeviceInfo: t.DeviceInfo,
		IPAddress:  t.IPAddress,
		CreatedAt:  t.CreatedAt,
		ExpiresAt:  t.ExpiresAt,
	}
}

type ErrorResponse struct {
	Error   bool              `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func ValidationError(errs FieldErrors) ErrorResponse {
	return ErrorResponse{Error: true, Message: "Validation failed", Fields: errs}
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
	Storage   bool   `json:"storage"`
	Redis     bool   `json:"redis"`
	Modules   int    `json:"modules"`
}
