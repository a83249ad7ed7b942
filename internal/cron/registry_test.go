package cron

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestRegistryKeepsOrderAndIgnoresNil(t *testing.T) {
	a := &testJob{name: "a"}
	b := &testJob{name: "b"}
	registry := NewRegistry(a, nil)
	registry.Register(b)

	jobs := registry.Jobs()
	if len(jobs) != 2 || jobs[0] != a || jobs[1] != b {
		t.Fatalf("unexpected jobs: %v", jobs)
	}
	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatalf("internal slice leaked")
	}
}

type memoryLockStore struct {
	values map[string]string
}

func (m *memoryLockStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryLockStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memoryLockStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func TestRedisLockExclusiveAndOwnerChecked(t *testing.T) {
	ctx := context.Background()
	store := &memoryLockStore{values: map[string]string{}}
	first, err := NewRedisLock(store, "portal:lock:maintenance", 0)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	second, _ := NewRedisLock(store, "portal:lock:maintenance", 0)

	if ok, err := first.Acquire(ctx); err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	if ok, _ := second.Acquire(ctx); ok {
		t.Fatalf("second acquire should fail while held")
	}

	// a takeover after expiry must survive the stale owner's release
	store.values["portal:lock:maintenance"] = "someone-else"
	if err := first.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if store.values["portal:lock:maintenance"] != "someone-else" {
		t.Fatalf("stale owner deleted a foreign lock")
	}

	delete(store.values, "portal:lock:maintenance")
	if ok, _ := second.Acquire(ctx); !ok {
		t.Fatalf("expected acquire after key cleared")
	}
	if err := second.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, ok := store.values["portal:lock:maintenance"]; ok {
		t.Fatalf("expected lock deleted by owner")
	}
}

func TestNewRedisLockValidates(t *testing.T) {
	if _, err := NewRedisLock(nil, "k", 0); err == nil {
		t.Fatalf("expected error for nil store")
	}
	if _, err := NewRedisLock(&memoryLockStore{}, "", 0); err == nil {
		t.Fatalf("expected error for empty key")
	}
}
