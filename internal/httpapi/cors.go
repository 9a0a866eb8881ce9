package httpapi

import (
	"net/http"

	"github.com/go-chi/cors"

	"activation_fulfiller/internal/config"
)

func corsMiddleware(cfg config.CorsConfig) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization", "X-Request-Id"},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           600,
	})
}
