package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ebotikaph/ebotika-api/internal/httputil"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const (
	ResidentIDContextKey    ContextKey = "resident_id"
	ResidentEmailContextKey ContextKey = "resident_email"
)

// Middleware handles authentication for protected routes
type Middleware struct {
	tokenService TokenService
}

func NewMiddleware(tokenService TokenService) *Middleware {
	return &Middleware{tokenService: tokenService}
}

// RequireAuth is a middleware that validates the access token
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.RespondErrorWithCode(w, "invalid authorization header format", httputil.CodeInvalidAuthHeader, http.StatusUnauthorized)
			return
		}

		claims, err := m.tokenService.VerifyToken(parts[1])
		if err != nil {
			if err == ErrExpiredToken {
				httputil.RespondErrorWithCode(w, "token has expired", httputil.CodeTokenExpired, http.StatusUnauthorized)
				return
			}
			httputil.RespondErrorWithCode(w, "invalid token", httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}

		residentID, err := uuid.Parse(claims.ResidentID)
		if err != nil {
			httputil.RespondErrorWithCode(w, "invalid resident ID in token", httputil.CodeInvalidTokenUserID, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ResidentIDContextKey, residentID)
		ctx = context.WithValue(ctx, ResidentEmailContextKey, claims.Email)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetResidentIDFromContext extracts the resident ID from the request context
func GetResidentIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	residentID, ok := ctx.Value(ResidentIDContextKey).(uuid.UUID)
	return residentID, ok
}

// GetResidentEmailFromContext extracts the resident email from the request context
func GetResidentEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(ResidentEmailContextKey).(string)
	return email, ok
}
