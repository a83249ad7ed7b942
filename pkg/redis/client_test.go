package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	allowed, count, err := client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Fatalf("expected allowed on first request")
	}
	if count != 1 {
		t.Fatalf("expected counter 1 got %d", count)
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expected expire for first increment")
	}

	allowed, count, err = client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed || count != 2 {
		t.Fatalf("unexpected second call state allowed=%v count=%d", allowed, count)
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expire should not be set again")
	}

	allowed, _, err = client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Fatalf("expected limit reached")
	}
}

func TestIncrWithTTLHealsCounterWithoutExpiry(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}
	key := client.RateLimitKey("login:ip:10.0.0.1")

	// counter left behind without a TTL
	mock.incr[key] = 4

	count, err := client.IncrWithTTL(ctx, key, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 5 {
		t.Fatalf("expected count 5, got %d", count)
	}
	if len(mock.expireCalls) != 1 || mock.expireCalls[0].ttl != time.Minute {
		t.Fatalf("expected ttl re-applied, got %+v", mock.expireCalls)
	}
}

func TestSetNX(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}
	key := client.LockKey("maintenance-worker")
	if key != "portal:lock:maintenance-worker" {
		t.Fatalf("unexpected lock key %s", key)
	}
	if ok, err := client.SetNX(ctx, key, "a", time.Minute); err != nil || !ok {
		t.Fatalf("first setnx: ok=%v err=%v", ok, err)
	}
	if ok, _ := client.SetNX(ctx, key, "b", time.Minute); ok {
		t.Fatalf("second setnx should fail")
	}
}

func TestUninitializedClient(t *testing.T) {
	var client *Client
	if err := client.Ping(context.Background()); err == nil {
		t.Fatalf("expected error from nil client")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close on nil client: %v", err)
	}
}

func TestUserSessionIndex(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	key := client.UserSessionsKey("7")
	if err := client.SAdd(ctx, key, time.Hour, "a", "b"); err != nil {
		t.Fatalf("sadd failed: %v", err)
	}
	if len(mock.expireCalls) != 1 || mock.expireCalls[0].key != key {
		t.Fatalf("expected ttl refresh on the index key, got %+v", mock.expireCalls)
	}
	if err := client.SRem(ctx, key, "a"); err != nil {
		t.Fatalf("srem failed: %v", err)
	}
	members, err := client.SMembers(ctx, key)
	if err != nil {
		t.Fatalf("smembers failed: %v", err)
	}
	if len(members) != 1 || members[0] != "b" {
		t.Fatalf("unexpected members %v", members)
	}

	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	members, err = client.SMembers(ctx, key)
	if err != nil || len(members) != 0 {
		t.Fatalf("expected empty set after delete, got %v (%v)", members, err)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.RateLimitKey("login:ip:1.2.3.4"); got != "portal:rate_limit:login:ip:1.2.3.4" {
		t.Fatalf("unexpected rate limit key %s", got)
	}
	if got := client.AccessSessionKey("abc"); got != "portal:session:access:abc" {
		t.Fatalf("unexpected access key %s", got)
	}
	if got := client.UserSessionsKey("9"); got != "portal:session:user:9" {
		t.Fatalf("unexpected user sessions key %s", got)
	}
	if got := client.RateLimitKey(""); got != "portal:rate_limit" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}
}

type mockCmdable struct {
	data        map[string]string
	incr        map[string]int64
	sets        map[string]map[string]struct{}
	ttls        map[string]time.Duration
	expireCalls []expireCall
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		incr: make(map[string]int64),
		sets: make(map[string]map[string]struct{}),
		ttls: make(map[string]time.Duration),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, ok := m.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	m.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}

// TTL mirrors Redis: -1 for a key without expiry, -2 for a missing key.
func (m *mockCmdable) TTL(ctx context.Context, key string) *redis.DurationCmd {
	if ttl, ok := m.ttls[key]; ok {
		return redis.NewDurationResult(ttl, nil)
	}
	if _, ok := m.incr[key]; ok {
		return redis.NewDurationResult(-1, nil)
	}
	return redis.NewDurationResult(-2, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
		delete(m.sets, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (m *mockCmdable) SAdd(ctx context.Context, key string, members ...any) *redis.IntCmd {
	set, ok := m.sets[key]
	if !ok {
		set = make(map[string]struct{})
		m.sets[key] = set
	}
	for _, member := range members {
		set[fmt.Sprint(member)] = struct{}{}
	}
	return redis.NewIntResult(int64(len(members)), nil)
}

func (m *mockCmdable) SRem(ctx context.Context, key string, members ...any) *redis.IntCmd {
	for _, member := range members {
		delete(m.sets[key], fmt.Sprint(member))
	}
	return redis.NewIntResult(int64(len(members)), nil)
}

func (m *mockCmdable) SMembers(ctx context.Context, key string) *redis.StringSliceCmd {
	out := make([]string, 0, len(m.sets[key]))
	for member := range m.sets[key] {
		out = append(out, member)
	}
	return redis.NewStringSliceResult(out, nil)
}
