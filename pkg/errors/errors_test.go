package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized},
		{code: CodeForbidden, status: http.StatusForbidden},
		{code: CodeNotFound, status: http.StatusNotFound},
		{code: CodeConflict, status: http.StatusConflict},
		{code: CodeProtectedColumn, status: http.StatusBadRequest, detailsOK: true},
		{code: CodeDuplicateColumn, status: http.StatusConflict, detailsOK: true},
		{code: CodeStorageMissing, status: http.StatusNotFound, detailsOK: true},
		{code: CodePartialFailure, status: http.StatusInternalServerError, detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, retryable: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	if meta := MetadataFor("SOMETHING_UNKNOWN"); meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stdErrors.New("disk full")
	err := Wrap(CodePartialFailure, cause, "store creation failed").WithDetails(map[string]any{"target_id": 4})

	if !stdErrors.Is(err, cause) {
		t.Fatalf("expected cause in chain")
	}
	if !Is(err, CodePartialFailure) {
		t.Fatalf("expected partial failure code")
	}
	if err.Details() == nil {
		t.Fatalf("expected details")
	}
}

func TestEnsure(t *testing.T) {
	typed := New(CodeNotFound, "target not found")
	if got := Ensure(typed, CodeInternal, "x"); As(got) != typed {
		t.Fatalf("typed error should pass through")
	}
	got := Ensure(stdErrors.New("boom"), CodeInternal, "load target")
	if !Is(got, CodeInternal) {
		t.Fatalf("expected internal code, got %v", got)
	}
	if Ensure(nil, CodeInternal, "x") != nil {
		t.Fatalf("nil should stay nil")
	}
}

func TestExposesMessage(t *testing.T) {
	if !ExposesMessage(CodeDuplicateColumn) {
		t.Fatalf("duplicate column message should be exposed")
	}
	if ExposesMessage(CodeInternal) {
		t.Fatalf("internal message must stay hidden")
	}
}
