package auth

import (
	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/users"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/enums"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued tokens and the caller's profile.
type LoginResponse struct {
	Success      bool           `json:"success"`
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	Role         enums.UserRole `json:"role"`
	Avatar       *string        `json:"avatar"`
	User         *users.UserDTO `json:"user"`
}

// VerifyResponse reflects the registry's current view of the token holder.
type VerifyResponse struct {
	Authenticated bool           `json:"authenticated"`
	Role          enums.UserRole `json:"role,omitempty"`
	ID            int64          `json:"id,omitempty"`
	Name          string         `json:"name,omitempty"`
	Avatar        *string        `json:"avatar,omitempty"`
	Message       string         `json:"message,omitempty"`
}

// RefreshRequest exchanges an (expired) access token plus refresh token for a new pair.
type RefreshRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshResponse is the rotated token pair.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
