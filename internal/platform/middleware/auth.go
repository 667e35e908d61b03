package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// TokenValidator validates bearer tokens issued at admin login.
type TokenValidator interface {
	ValidateToken(tokenString string) (*TokenClaims, error)
}

// TokenClaims represents the claims we expect from the token validator.
type TokenClaims struct {
	Email string
	Kind  string
}

// Context keys for storing authenticated actor information.
type contextKeyActorEmail struct{}
type contextKeyActorKind struct{}

// Exported for use in handlers and tests.
var (
	ContextKeyActorEmail = contextKeyActorEmail{}
	ContextKeyActorKind  = contextKeyActorKind{}
)

// GetActorEmail retrieves the authenticated actor's email from the context.
func GetActorEmail(ctx context.Context) string {
	email, ok := ctx.Value(ContextKeyActorEmail).(string)
	if !ok {
		return ""
	}
	return email
}

// GetActorKind retrieves the authenticated actor's session kind.
func GetActorKind(ctx context.Context) string {
	kind, ok := ctx.Value(ContextKeyActorKind).(string)
	if !ok {
		return ""
	}
	return kind
}

// RequireAdmin denies any request that does not carry a valid administrator
// bearer token. A partner token is denied, never upgraded.
func RequireAdmin(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(r.Context(), "admin access denied - missing token",
					"request_id", GetRequestID(r.Context()),
				)
				writeUnauthorized(w, "Admin authentication required")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(r.Context(), "admin access denied - invalid token",
					"error", err,
					"request_id", GetRequestID(r.Context()),
				)
				writeUnauthorized(w, "Invalid admin token")
				return
			}
			if claims.Kind != "administrator" {
				logger.WarnContext(r.Context(), "admin access denied - wrong session kind",
					"kind", claims.Kind,
					"request_id", GetRequestID(r.Context()),
				)
				writeUnauthorized(w, "Administrator session required")
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, ContextKeyActorEmail, claims.Email)
			ctx = context.WithValue(ctx, ContextKeyActorKind, claims.Kind)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
