package controllers

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/Jerry-Sag/branding-pirates-portal-server/api/middleware"
	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/targets"
	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/workspaces"
	pkgerrors "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/errors"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/types"
	"github.com/go-chi/chi/v5"
)

type stubWorkspaceService struct {
	workspaces.Service
	err       error
	gotCreate workspaces.CreateRequest
}

func (s *stubWorkspaceService) Create(ctx context.Context, actor types.Actor, req workspaces.CreateRequest) (*workspaces.CreateResult, error) {
	s.gotCreate = req
	if s.err != nil {
		return nil, s.err
	}
	return &workspaces.CreateResult{WorkspaceID: 4, TableName: "ws_acme_4"}, nil
}

type stubTargetCreator struct {
	targets.Service
	gotWorkspace int64
	gotReq       targets.CreateRequest
}

func (s *stubTargetCreator) Create(ctx context.Context, actor types.Actor, workspaceID int64, req targets.CreateRequest) (*targets.CreateResult, error) {
	s.gotWorkspace, s.gotReq = workspaceID, req
	return &targets.CreateResult{TargetID: 9, Storage: "/data/ws_acme_4/targetsdb/q1_1.db"}, nil
}

func workspaceRouter(ws workspaces.Service, ts targets.Service) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithActor(req.Context(), testActor)))
		})
	})
	r.Post("/api/workspaces/create", WorkspaceCreate(ws, nil))
	r.Post("/api/workspaces/{id}/targets/create", TargetCreate(ts, nil))
	return r
}

func TestWorkspaceCreate(t *testing.T) {
	svc := &stubWorkspaceService{}
	rec := serve(workspaceRouter(svc, nil), http.MethodPost, "/api/workspaces/create",
		`{"displayName":"Acme","columns":["Reach"],"users":[1,"2"]}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.gotCreate.DisplayName != "Acme" || len(svc.gotCreate.Users) != 2 {
		t.Fatalf("unexpected request %+v", svc.gotCreate)
	}
	if !strings.Contains(rec.Body.String(), `"tableName":"ws_acme_4"`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestWorkspaceCreateRequiresColumns(t *testing.T) {
	rec := serve(workspaceRouter(&stubWorkspaceService{}, nil), http.MethodPost, "/api/workspaces/create", `{"displayName":"Acme"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestWorkspaceCreatePartialFailureExposesStep(t *testing.T) {
	svc := &stubWorkspaceService{err: pkgerrors.New(pkgerrors.CodePartialFailure, "workspace registered but storage failed").
		WithDetails(map[string]any{"workspaceId": 4, "step": "create_store"})}
	rec := serve(workspaceRouter(svc, nil), http.MethodPost, "/api/workspaces/create", `{"displayName":"Acme","columns":["Reach"]}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"step":"create_store"`) {
		t.Fatalf("expected step in details: %s", rec.Body.String())
	}
}

func TestTargetCreateUsesPathWorkspace(t *testing.T) {
	svc := &stubTargetCreator{}
	rec := serve(workspaceRouter(nil, svc), http.MethodPost, "/api/workspaces/4/targets/create",
		`{"targetName":"Q1","startDate":"2024-01-01","endDate":"2024-01-31"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.gotWorkspace != 4 || svc.gotReq.TargetName != "Q1" {
		t.Fatalf("unexpected call %d %+v", svc.gotWorkspace, svc.gotReq)
	}
}
