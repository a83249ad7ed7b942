package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// ErrMissingSubject marks a well-signed token that names no user.
var ErrMissingSubject = errors.New("token carries no user id")

// MintAccessToken signs an HS256 token carrying {id, email, role} that
// expires after cfg.AccessTokenTTL.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	switch {
	case cfg.Secret == "":
		return "", fmt.Errorf("jwt secret is required")
	case cfg.Issuer == "":
		return "", fmt.Errorf("jwt issuer is required")
	case cfg.ExpirationMinutes <= 0:
		return "", fmt.Errorf("jwt expiration minutes must be positive")
	case payload.UserID <= 0:
		return "", fmt.Errorf("user id is required")
	case !payload.Role.IsValid():
		return "", fmt.Errorf("invalid user role %q", payload.Role)
	}

	jti := strings.TrimSpace(payload.JTI)
	if jti == "" {
		jti = uuid.NewString()
	}
	claims := AccessTokenClaims{
		UserID: payload.UserID,
		Email:  strings.ToLower(strings.TrimSpace(payload.Email)),
		Role:   payload.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.AccessTokenTTL())),
			ID:        jti,
		},
	}

	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies signature, issuer and expiry.
func ParseAccessToken(cfg config.JWTConfig, tokenString string) (*AccessTokenClaims, error) {
	return parse(cfg, tokenString)
}

// ParseAccessTokenAllowExpired skips exp/nbf so logout and refresh can still
// read the jti of a lapsed token. Signature and issuer are still enforced.
func ParseAccessTokenAllowExpired(cfg config.JWTConfig, tokenString string) (*AccessTokenClaims, error) {
	return parse(cfg, tokenString, jwt.WithoutClaimsValidation())
}

func parse(cfg config.JWTConfig, tokenString string, extra ...jwt.ParserOption) (*AccessTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	opts := append([]jwt.ParserOption{
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
	}, extra...)

	claims := &AccessTokenClaims{}
	_, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return []byte(cfg.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims.UserID <= 0 {
		return nil, ErrMissingSubject
	}
	return claims, nil
}
