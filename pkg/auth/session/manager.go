package session

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/config"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

const refreshTokenBytes = 32

var ErrInvalidRefreshToken = errors.New("invalid refresh token")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	SAdd(ctx context.Context, key string, ttl time.Duration, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

type sessionKeyer interface {
	AccessSessionKey(accessID string) string
	UserSessionsKey(userID string) string
}

// Backend is the Redis surface sessions need; *redis.Client satisfies it.
type Backend interface {
	sessionStore
	sessionKeyer
}

// Manager keeps one refresh token per access token jti, plus a per-user
// index of live jtis so every session of a user can be dropped at once.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// AccessSessionChecker exposes the read-only surface needed by middleware.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

func NewManager(backend Backend, cfg config.JWTConfig) (*Manager, error) {
	if backend == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	ttl := cfg.RefreshTokenTTL()
	if ttl <= 0 {
		return nil, fmt.Errorf("refresh token ttl must be positive")
	}
	if accessTTL := cfg.AccessTokenTTL(); ttl <= accessTTL {
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", ttl, accessTTL)
	}
	return &Manager{store: backend, keyer: backend, ttl: ttl}, nil
}

// Generate opens a session for accessID and returns its refresh token.
func (m *Manager) Generate(ctx context.Context, userID int64, accessID string) (string, error) {
	if strings.TrimSpace(accessID) == "" {
		return "", fmt.Errorf("access id is required")
	}
	return m.open(ctx, userID, accessID)
}

// Rotate trades a valid (jti, refresh token) pair for a fresh one. The new
// session is written before the old one is dropped.
func (m *Manager) Rotate(ctx context.Context, userID int64, oldAccessID, provided string) (string, string, error) {
	if strings.TrimSpace(oldAccessID) == "" || strings.TrimSpace(provided) == "" {
		return "", "", ErrInvalidRefreshToken
	}
	stored, err := m.store.Get(ctx, m.keyer.AccessSessionKey(oldAccessID))
	if err != nil {
		return "", "", wrapNotFound(err)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(provided)) != 1 {
		return "", "", ErrInvalidRefreshToken
	}

	newAccessID := NewAccessID()
	newToken, err := m.open(ctx, userID, newAccessID)
	if err != nil {
		return "", "", err
	}
	if err := m.close(ctx, userID, oldAccessID); err != nil {
		return "", "", err
	}
	return newAccessID, newToken, nil
}

// Revoke ends one session.
func (m *Manager) Revoke(ctx context.Context, userID int64, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return fmt.Errorf("access id is required")
	}
	return m.close(ctx, userID, accessID)
}

// RevokeUser drops every session of the user. Used when an account is
// blocked, deleted or has its password reset.
func (m *Manager) RevokeUser(ctx context.Context, userID int64) error {
	index := m.userKey(userID)
	accessIDs, err := m.store.SMembers(ctx, index)
	if err != nil && !errors.Is(err, redislib.Nil) {
		return err
	}
	keys := make([]string, 0, len(accessIDs)+1)
	for _, id := range accessIDs {
		keys = append(keys, m.keyer.AccessSessionKey(id))
	}
	return m.store.Del(ctx, append(keys, index)...)
}

func (m *Manager) open(ctx context.Context, userID int64, accessID string) (string, error) {
	token, err := generateRefreshToken()
	if err != nil {
		return "", err
	}
	if err := m.store.Set(ctx, m.keyer.AccessSessionKey(accessID), token, m.ttl); err != nil {
		return "", err
	}
	if err := m.store.SAdd(ctx, m.userKey(userID), m.ttl, accessID); err != nil {
		return "", err
	}
	return token, nil
}

func (m *Manager) close(ctx context.Context, userID int64, accessID string) error {
	if err := m.store.Del(ctx, m.keyer.AccessSessionKey(accessID)); err != nil {
		return err
	}
	return m.store.SRem(ctx, m.userKey(userID), accessID)
}

func (m *Manager) userKey(userID int64) string {
	return m.keyer.UserSessionsKey(strconv.FormatInt(userID, 10))
}

// NewAccessID produces a stable identifier used as the JWT jti/Redis key.
func NewAccessID() string {
	return uuid.NewString()
}

func generateRefreshToken() (string, error) {
	bytes := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

func wrapNotFound(err error) error {
	if errors.Is(err, redislib.Nil) || errors.Is(err, ErrInvalidRefreshToken) {
		return ErrInvalidRefreshToken
	}
	return err
}

// HasSession reports whether accessID still has a refresh session. Logout
// and revocation delete it, which is how revoked access tokens are refused.
func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	if strings.TrimSpace(accessID) == "" {
		return false, fmt.Errorf("access id is required")
	}
	_, err := m.store.Get(ctx, m.keyer.AccessSessionKey(accessID))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redislib.Nil):
		return false, nil
	default:
		return false, err
	}
}
