package env

import "testing"

func TestGet(t *testing.T) {
	t.Setenv("PORTAL_LOG_FORMAT", "  console ")
	if got := Get("PORTAL_LOG_FORMAT", "json"); got != "console" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
	t.Setenv("PORTAL_LOG_FORMAT", "   ")
	if got := Get("PORTAL_LOG_FORMAT", "json"); got != "json" {
		t.Fatalf("expected fallback for blank value, got %q", got)
	}
}
