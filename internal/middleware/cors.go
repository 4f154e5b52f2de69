// Package middleware provides reusable HTTP middleware for the Belatedly API.
package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// corsMaxAge is how long, in seconds, browsers may cache a preflight answer.
const corsMaxAge = 300

// NewCORSHandler returns CORS middleware for the single-page client.
// Entries are full origins such as "http://localhost:5173"; one "*" wildcard
// per entry is allowed, as in "https://*.example.com". Content-Disposition
// is exposed so the client can read the export file name.
func NewCORSHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition", "X-Request-Id"},
		MaxAge:         corsMaxAge,
	}).Handler
}
