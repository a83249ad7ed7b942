package auth

import (
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID int64
	Email  string
	Role   enums.UserRole
	JTI    string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID int64          `json:"id"`
	Email  string         `json:"email"`
	Role   enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}
