package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/config"
	pkgerrors "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/errors"
)

func loginRequest(email, addr string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"email":"`+email+`","password":"secret"}`))
	req.RemoteAddr = addr
	return req
}

func TestLoginRateLimitPreservesBody(t *testing.T) {
	limiter := newFakeLimiter()
	cfg := config.AuthRateLimitConfig{LoginWindow: time.Minute, LoginIPLimit: 2, LoginEmailLimit: 2}
	handler := LoginRateLimit(cfg, limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		if !strings.Contains(string(body), `"email":"tester@example.com"`) {
			t.Fatalf("unexpected body: %s", string(body))
		}
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, loginRequest("tester@example.com", "1.2.3.4:5678"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestLoginRateLimitEmailWindow(t *testing.T) {
	limiter := newFakeLimiter()
	cfg := config.AuthRateLimitConfig{LoginWindow: time.Minute, LoginEmailLimit: 2}
	handler := LoginRateLimit(cfg, limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		// Case and whitespace variants share one counter.
		email := "Blocked@Example.com"
		if i == 1 {
			email = " blocked@example.com"
		}
		handler.ServeHTTP(rec, loginRequest(email, "1.2.3.4:5678"))

		if i < 2 {
			if rec.Code != http.StatusOK {
				t.Fatalf("attempt %d: expected 200, got %d", i, rec.Code)
			}
			continue
		}
		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", rec.Code)
		}
		var payload struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode error: %v", err)
		}
		if payload.Error.Code != string(pkgerrors.CodeRateLimit) {
			t.Fatalf("unexpected code: %s", payload.Error.Code)
		}
	}
	for scope := range limiter.counts {
		if strings.Contains(scope, "example.com") {
			t.Fatalf("raw email leaked into scope %q", scope)
		}
	}
}

func TestLoginRateLimitIPWindow(t *testing.T) {
	limiter := newFakeLimiter()
	cfg := config.AuthRateLimitConfig{LoginWindow: time.Minute, LoginIPLimit: 1}
	handler := LoginRateLimit(cfg, limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, loginRequest("a@example.com", "5.6.7.8:1234"))
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, loginRequest("b@example.com", "5.6.7.8:4321"))
	if first.Code != http.StatusOK || second.Code != http.StatusTooManyRequests {
		t.Fatalf("unexpected codes %d, %d", first.Code, second.Code)
	}
	if limiter.counts["login:ip:5.6.7.8"] != 2 {
		t.Fatalf("expected ip counter 2, got %v", limiter.counts)
	}
}

func TestLoginRateLimitLimiterFailure(t *testing.T) {
	limiter := newFakeLimiter()
	limiter.err = errors.New("redis down")
	cfg := config.AuthRateLimitConfig{LoginWindow: time.Minute, LoginIPLimit: 1}
	handler := LoginRateLimit(cfg, limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, loginRequest("a@example.com", "5.6.7.8:1234"))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestLoginRateLimitDisabledWithoutLimiter(t *testing.T) {
	cfg := config.AuthRateLimitConfig{LoginWindow: time.Minute, LoginIPLimit: 1}
	called := false
	handler := LoginRateLimit(cfg, nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	handler.ServeHTTP(httptest.NewRecorder(), loginRequest("a@example.com", "5.6.7.8:1234"))
	if !called {
		t.Fatal("expected passthrough")
	}
}

type fakeLimiter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func newFakeLimiter() *fakeLimiter {
	return &fakeLimiter{counts: map[string]int64{}}
}

func (f *fakeLimiter) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, 0, f.err
	}
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}
