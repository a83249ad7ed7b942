// Package redis holds the portal's Redis helpers: refresh sessions, login
// throttling and worker locks. Every key lives under the "portal:" namespace.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/config"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	keyNamespace    = "portal"
	rateLimitPrefix = "rate_limit"
	sessionPrefix   = "session"
	lockPrefix      = "lock"
)

var errNotReady = errors.New("redis client not initialized")

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	SetNX(context.Context, string, any, time.Duration) *redis.BoolCmd
	Get(context.Context, string) *redis.StringCmd
	Incr(context.Context, string) *redis.IntCmd
	Expire(context.Context, string, time.Duration) *redis.BoolCmd
	TTL(context.Context, string) *redis.DurationCmd
	Del(context.Context, ...string) *redis.IntCmd
	SAdd(context.Context, string, ...any) *redis.IntCmd
	SRem(context.Context, string, ...any) *redis.IntCmd
	SMembers(context.Context, string) *redis.StringSliceCmd
}

type Client struct {
	store cmdable
	raw   *redis.Client
}

// New connects and pings; a Redis that is down at boot fails startup.
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "redis_addr", opts.Addr), "redis connection established")
	}
	return &Client{store: raw, raw: raw}, nil
}

// optionsFromConfig prefers PORTAL_REDIS_URL; explicit pool and timeout
// settings fill whatever the URL leaves unset.
func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	var opts *redis.Options
	switch {
	case cfg.URL != "":
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	case cfg.Address != "":
		opts = &redis.Options{Addr: cfg.Address, Password: cfg.Password, DB: cfg.DB}
	default:
		return nil, errors.New("redis url or address is required")
	}

	setInt := func(dst *int, v int) {
		if *dst == 0 {
			*dst = v
		}
	}
	setDur := func(dst *time.Duration, v time.Duration) {
		if *dst == 0 {
			*dst = v
		}
	}
	setInt(&opts.DB, cfg.DB)
	setInt(&opts.PoolSize, cfg.PoolSize)
	setInt(&opts.MinIdleConns, cfg.MinIdleConns)
	setDur(&opts.DialTimeout, cfg.DialTimeout)
	setDur(&opts.ReadTimeout, cfg.ReadTimeout)
	setDur(&opts.WriteTimeout, cfg.WriteTimeout)
	return opts, nil
}

func (c *Client) ready() error {
	if c == nil || c.store == nil {
		return errNotReady
	}
	return nil
}

func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if err := c.ready(); err != nil {
		return err
	}
	return c.store.Set(ctx, key, value, ttl).Err()
}

// SetNX stores value only when key is absent.
func (c *Client) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if err := c.ready(); err != nil {
		return false, err
	}
	return c.store.SetNX(ctx, key, value, ttl).Result()
}

// Get returns redis.Nil when key is absent.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	if err := c.ready(); err != nil {
		return "", err
	}
	return c.store.Get(ctx, key).Result()
}

// IncrWithTTL increments key and makes sure it expires. The TTL is set on
// the first hit, and re-applied whenever a counter is found without one (a
// crash between INCR and EXPIRE would otherwise pin the window forever).
func (c *Client) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if err := c.ready(); err != nil {
		return 0, err
	}
	count, err := c.store.Incr(ctx, key).Result()
	if err != nil || ttl <= 0 {
		return count, err
	}
	if count > 1 {
		remaining, err := c.store.TTL(ctx, key).Result()
		if err != nil {
			return count, err
		}
		if remaining >= 0 {
			return count, nil
		}
	}
	return count, c.store.Expire(ctx, key, ttl).Err()
}

// FixedWindowAllow counts a hit against scope and reports whether the
// window's count is still within limit.
func (c *Client) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	count, err := c.IncrWithTTL(ctx, c.RateLimitKey(scope), window)
	if err != nil {
		return false, 0, err
	}
	return count <= limit, count, nil
}

func (c *Client) LockKey(name string) string {
	return buildKey(lockPrefix, name)
}

func (c *Client) RateLimitKey(scope string) string {
	return buildKey(rateLimitPrefix, scope)
}

// AccessSessionKey maps an access token's jti to its refresh token.
func (c *Client) AccessSessionKey(accessID string) string {
	return buildKey(sessionPrefix, "access", accessID)
}

// UserSessionsKey indexes a user's live access ids for mass revocation.
func (c *Client) UserSessionsKey(userID string) string {
	return buildKey(sessionPrefix, "user", userID)
}

// SAdd adds members to the set at key and refreshes its TTL.
func (c *Client) SAdd(ctx context.Context, key string, ttl time.Duration, members ...string) error {
	if err := c.ready(); err != nil {
		return err
	}
	if err := c.store.SAdd(ctx, key, toAny(members)...).Err(); err != nil {
		return err
	}
	if ttl > 0 {
		return c.store.Expire(ctx, key, ttl).Err()
	}
	return nil
}

func (c *Client) SRem(ctx context.Context, key string, members ...string) error {
	if err := c.ready(); err != nil {
		return err
	}
	return c.store.SRem(ctx, key, toAny(members)...).Err()
}

// SMembers lists the set at key. A missing key yields an empty slice.
func (c *Client) SMembers(ctx context.Context, key string) ([]string, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	return c.store.SMembers(ctx, key).Result()
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	if err := c.ready(); err != nil {
		return err
	}
	return c.store.Del(ctx, keys...).Err()
}

// Ping backs the readiness probe.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.ready(); err != nil {
		return err
	}
	return c.store.Ping(ctx).Err()
}

func (c *Client) Close() error {
	if c == nil || c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

func buildKey(parts ...string) string {
	clean := []string{keyNamespace}
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			clean = append(clean, part)
		}
	}
	return strings.Join(clean, ":")
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
