package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/types"
)

var defaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

// CORS returns middleware that applies the API's allowed origin policy.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = defaultCORSOrigins
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", types.RequestIDHeader, "X-Requested-With"},
		ExposedHeaders:   []string{types.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
