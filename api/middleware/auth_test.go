package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/auth"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/auth/session"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/config"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/enums"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/types"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(testJWT, "authToken", stubSessionVerifier{ok: true}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	handler := Auth(testJWT, "authToken", stubSessionVerifier{ok: true}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthSeedsActorFromHeader(t *testing.T) {
	token := mintTestToken(t, 7, enums.UserRoleAdmin)

	var captured types.Actor
	handler := Auth(testJWT, "authToken", stubSessionVerifier{ok: true}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = ActorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.RemoteAddr = "10.0.0.9:4000"
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured.UserID != 7 || captured.Role != enums.UserRoleAdmin {
		t.Fatalf("unexpected actor %+v", captured)
	}
	if captured.Email != "user7@example.com" || captured.IP != "10.0.0.9" {
		t.Fatalf("unexpected actor %+v", captured)
	}
}

func TestAuthAcceptsCookie(t *testing.T) {
	token := mintTestToken(t, 3, enums.UserRoleTeam)

	handler := Auth(testJWT, "authToken", stubSessionVerifier{ok: true}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		if !ok || actor.UserID != 3 {
			t.Fatalf("unexpected actor %+v", actor)
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "authToken", Value: token})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	token := mintTestToken(t, 3, enums.UserRoleTeam)
	cases := map[string]struct {
		verifier stubSessionVerifier
		status   int
	}{
		"revoked":     {verifier: stubSessionVerifier{ok: false}, status: http.StatusUnauthorized},
		"unreachable": {verifier: stubSessionVerifier{err: errors.New("redis down")}, status: http.StatusServiceUnavailable},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			handler := Auth(testJWT, "authToken", tc.verifier, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler must not run")
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, req)
			if resp.Code != tc.status {
				t.Fatalf("expected %d got %d", tc.status, resp.Code)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	guard := RequireRole(nil, enums.UserRoleOwner, enums.UserRoleCEO)
	handler := guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		role   enums.UserRole
		status int
	}{
		{enums.UserRoleOwner, http.StatusNoContent},
		{enums.UserRoleCEO, http.StatusNoContent},
		{enums.UserRoleAdmin, http.StatusForbidden},
		{enums.UserRoleClient, http.StatusForbidden},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithActor(req.Context(), types.Actor{UserID: 1, Role: tc.role}))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != tc.status {
			t.Fatalf("%s: expected %d got %d", tc.role, tc.status, resp.Code)
		}
	}

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without actor got %d", resp.Code)
	}
}

func TestWorkspaceScope(t *testing.T) {
	var seen int64
	handler := WorkspaceScope(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = WorkspaceIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/targets/1/data?workspaceId=42", nil))
	if resp.Code != http.StatusOK || seen != 42 {
		t.Fatalf("expected workspace 42, got %d (status %d)", seen, resp.Code)
	}

	seen = -1
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/targets/1/data", nil))
	if resp.Code != http.StatusOK || seen != 0 {
		t.Fatalf("expected no workspace, got %d (status %d)", seen, resp.Code)
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/targets/1/data?workspaceId=abc", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed workspace, got %d", resp.Code)
	}
}

func mintTestToken(t *testing.T, userID int64, role enums.UserRole) string {
	t.Helper()
	payload := auth.AccessTokenPayload{
		UserID: userID,
		Email:  fmt.Sprintf("user%d@example.com", userID),
		Role:   role,
		JTI:    session.NewAccessID(),
	}
	token, err := auth.MintAccessToken(testJWT, time.Now(), payload)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}


type stubSessionVerifier struct {
	ok  bool
	err error
}

func (s stubSessionVerifier) HasSession(ctx context.Context, accessID string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.ok, nil
}
