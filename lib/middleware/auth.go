package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hostplane/pveman/lib/logger"
)

type contextKey string

const userIDKey contextKey = "user_id"

// JwtAuth returns middleware that validates HMAC-signed JWT bearer tokens
// and stores the subject claim in the request context. Requests without a
// valid token are rejected with 401.
func JwtAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := logger.FromContext(ctx)

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				log.DebugContext(ctx, "missing authorization header")
				writeAuthError(w, "authorization header required")
				return
			}

			token, err := extractBearerToken(authHeader)
			if err != nil {
				log.DebugContext(ctx, "invalid authorization header", "error", err)
				writeAuthError(w, "invalid authorization header format")
				return
			}

			claims := jwt.MapClaims{}
			parsedToken, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !parsedToken.Valid {
				log.DebugContext(ctx, "failed to validate JWT", "error", err)
				writeAuthError(w, "invalid token")
				return
			}

			var userID string
			if sub, ok := claims["sub"].(string); ok {
				userID = sub
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, userIDKey, userID)))
		})
	}
}

// UserIDFromContext returns the authenticated subject, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok && userID != ""
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, `{"code":"unauthorized","message":"%s"}`, message)
}

// extractBearerToken extracts the token from "Bearer <token>" format
func extractBearerToken(authHeader string) (string, error) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid authorization header format")
	}

	scheme := strings.ToLower(parts[0])
	if scheme != "bearer" {
		return "", fmt.Errorf("unsupported authorization scheme: %s", scheme)
	}

	return parts[1], nil
}
