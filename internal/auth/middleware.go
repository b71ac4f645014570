package auth

import (
	"context"
	"net/http"
	"strings"

	"chatter/pkg/jwt"
)

type contextKey string

const userIDKey contextKey = "user_id"

// Middleware resolves the authenticated caller from a bearer token and puts
// the user id into the request context. Token issuance happens elsewhere;
// this core only consumes an already-established identity.
type Middleware struct {
	tokens *jwt.JWT
}

func NewMiddleware(tokens *jwt.JWT) *Middleware {
	return &Middleware{tokens: tokens}
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "authorization token is not provided", http.StatusUnauthorized)
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := m.tokens.ValidateToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.UserID)))
	})
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID returns the authenticated caller id, or "" when the request did
// not pass through the middleware.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
