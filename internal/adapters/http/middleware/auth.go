package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"zapcast/internal/adapters/http/shared"
	"zapcast/platform/config"
	"zapcast/platform/logger"
)

type contextKey string

const (
	userIDContextKey        contextKey = "user_id"
	authenticatedContextKey contextKey = "authenticated"
)

// APIKeyAuth middleware para autenticação via API key. Requisições
// autenticadas também carregam a identidade do usuário do dashboard
// no header X-User-ID, propagada pelo backend chamador.
func APIKeyAuth(cfg *config.Config, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path

			// Pular autenticação para rotas públicas
			if isPublicRoute(path) {
				next.ServeHTTP(w, r)
				return
			}

			apiKey := extractAPIKey(r)
			if apiKey == "" {
				log.WarnWithFields("Missing API key", map[string]interface{}{
					"path":   path,
					"method": r.Method,
					"ip":     getClientIP(r),
				})

				writeUnauthorizedResponse(w, "API key is required. Provide it via Authorization header or X-API-Key header", "MISSING_API_KEY")
				return
			}

			if !isValidAPIKey(apiKey, cfg) {
				log.WarnWithFields("Invalid API key", map[string]interface{}{
					"path":    path,
					"method":  r.Method,
					"ip":      getClientIP(r),
					"api_key": maskAPIKey(apiKey),
				})

				writeUnauthorizedResponse(w, "Invalid API key", "INVALID_API_KEY")
				return
			}

			userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
			if userID == "" {
				writeUnauthorizedResponse(w, "X-User-ID header is required", "MISSING_USER_ID")
				return
			}

			ctx := context.WithValue(r.Context(), userIDContextKey, userID)
			ctx = context.WithValue(ctx, authenticatedContextKey, true)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext retorna a identidade autenticada da requisição
func UserIDFromContext(ctx context.Context) string {
	if userID, ok := ctx.Value(userIDContextKey).(string); ok {
		return userID
	}
	return ""
}

// isPublicRoute verifica se a rota é pública (não requer autenticação)
func isPublicRoute(path string) bool {
	publicRoutes := []string{
		"/health",
	}

	for _, route := range publicRoutes {
		if strings.HasPrefix(path, route) {
			return true
		}
	}

	return false
}

// extractAPIKey extrai API key dos headers da requisição
func extractAPIKey(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		if strings.HasPrefix(authHeader, "Bearer ") {
			return strings.TrimPrefix(authHeader, "Bearer ")
		}
		return authHeader
	}

	return r.Header.Get("X-API-Key")
}

// isValidAPIKey valida se API key é válida
func isValidAPIKey(apiKey string, cfg *config.Config) bool {
	return cfg.GlobalAPIKey != "" && apiKey == cfg.GlobalAPIKey
}

// writeUnauthorizedResponse escreve resposta de não autorizado
func writeUnauthorizedResponse(w http.ResponseWriter, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)

	response := shared.ErrorResponse{
		Success: false,
		Error:   "Unauthorized",
		Code:    code,
		Details: message,
	}

	_ = json.NewEncoder(w).Encode(response)
}

// maskAPIKey mascara API key para logs
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return strings.Repeat("*", len(apiKey))
	}

	return apiKey[:4] + strings.Repeat("*", len(apiKey)-8) + apiKey[len(apiKey)-4:]
}
