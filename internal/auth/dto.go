package auth

import "github.com/dfrchat/backend/internal/users"

// LoginRequest carries the credentials posted to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the signed token plus the authenticated profile.
type LoginResponse struct {
	Token              string         `json:"token"`
	User               *users.UserDTO `json:"user"`
	MustChangePassword bool           `json:"mustChangePassword"`
}

// SetupStatusResponse reports whether the bootstrap step already ran.
type SetupStatusResponse struct {
	AdminExists bool `json:"adminExists"`
}

// SetupRequest bootstraps the first administrator account.
type SetupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest swaps the caller's own password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}
