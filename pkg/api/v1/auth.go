package v1

import (
	"time"

	"auditorium/pkg/constraints"
)

// User is the authenticated user. Every field stays nil until loaded.
type User struct {
	ID        *string           `json:"id"`
	Name      *string           `json:"name"`
	Email     *string           `json:"email"`
	Role      *constraints.Role `json:"role"`
	Bio       *string           `json:"bio"`
	CreatedAt *time.Time        `json:"created_at"`
	UpdatedAt *time.Time        `json:"updated_at"`
}

// HasRole reports whether the user is loaded with the given role.
func (u *User) HasRole(role constraints.Role) bool {
	return u != nil && u.Role != nil && *u.Role == role
}

type RegisterOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type CheckOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,len=6,numeric"`
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	OTP      string `json:"otp" binding:"required,len=6,numeric"`
	Name     string `json:"name" binding:"required,max=100"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type ResetPasswordOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	OTP         string `json:"otp" binding:"required,len=6,numeric"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user,omitempty"`
}
