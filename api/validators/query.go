package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/errors"
	"github.com/go-chi/chi/v5"
)

// ParseID reads a positive integer id from the chi URL parameter key.
func ParseID(r *http.Request, key string) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid id").WithDetails(map[string]any{"field": key})
	}
	return id, nil
}
