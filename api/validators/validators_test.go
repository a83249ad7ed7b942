package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/errors"
	"github.com/go-chi/chi/v5"
)

type sample struct {
	Name  string `json:"name" validate:"required"`
	Count int    `json:"count" validate:"gt=0"`
}

func TestDecodeJSONBodyValidation(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"count":0}`))
	var dest sample
	err := DecodeJSONBody(req, &dest)
	if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	details := pkgerrors.As(err).Details().(map[string]string)
	if details["name"] != "is required" || details["count"] != "must be greater than 0" {
		t.Fatalf("unexpected details %v", details)
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","count":1,"extra":true}`))
	var dest sample
	if err := DecodeJSONBody(req, &dest); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecodeJSONMap(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"date":"2024-01-01","impressions":5}`))
	out, err := DecodeJSONMap(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["date"] != "2024-01-01" {
		t.Fatalf("unexpected map %v", out)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`null`))
	if _, err := DecodeJSONMap(req); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for null body, got %v", err)
	}
}

func TestDecodeRejectsOversizedAndTrailingBodies(t *testing.T) {
	huge := `{"date":"` + strings.Repeat("x", MaxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(huge))
	if _, err := DecodeJSONMap(req); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for oversized body, got %v", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","count":1} {"name":"b"}`))
	var dest sample
	if err := DecodeJSONBody(req, &dest); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for trailing value, got %v", err)
	}
}

func TestParseID(t *testing.T) {
	for raw, ok := range map[string]bool{"12": true, "0": false, "-3": false, "abc": false} {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", raw)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
		_, err := ParseID(req, "id")
		if (err == nil) != ok {
			t.Fatalf("ParseID(%q): ok=%v err=%v", raw, ok, err)
		}
	}
}

func TestSanitizeString(t *testing.T) {
	cases := map[string]struct {
		in   string
		max  int
		want string
	}{
		"trims and collapses": {in: "  Jane \t  Doe \n", want: "Jane Doe"},
		"drops control runes": {in: "Ja\x00ne\x07", want: "Jane"},
		"cuts by rune":        {in: "Zoë Zoë", max: 3, want: "Zoë"},
	}
	for name, tc := range cases {
		if got := SanitizeString(tc.in, tc.max); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", name, tc.want, got)
		}
	}
}
