package dto

import "strings"

// UpdateUserRequest is a partial profile update; nil fields are left as is.
type UpdateUserRequest struct {
	Name     *string `json:"name" validate:"omitnil,notblank,min=2,max=100"`
	Username *string `json:"username" validate:"omitnil,notblank,username,min=3,max=30"`
	Email    *string `json:"email" validate:"omitnil,notblank,max=254,email"`
	Bio      *string `json:"bio" validate:"omitnil,max=300"`
}

func (r *UpdateUserRequest) Normalize() {
	trim(r.Name)
	trim(r.Username)
	trim(r.Bio)
	if r.Email != nil {
		v := strings.ToLower(strings.TrimSpace(*r.Email))
		r.Email = &v
	}
}

func (r *UpdateUserRequest) Validate() FieldErrors {
	return Struct(r)
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required,notblank"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=100,strongpassword"`
}

func (r *ChangePasswordRequest) Validate() FieldErrors {
	return Struct(r)
}

type UserStatusRequest struct {
	Enabled *bool `json:"enabled" validate:"required_without=Locked"`
	Locked  *bool `json:"locked"`
}

func (r *UserStatusRequest) Validate() FieldErrors {
	return Struct(r)
}

type UserListResponse struct {
	Users  []UserResponse `json:"users"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

func trim(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}
