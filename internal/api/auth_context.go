package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	domainerrors "github.com/shelfmarkapp/shelfmark-server/internal/errors"
	"github.com/shelfmarkapp/shelfmark-server/internal/service"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

// userIDKey is the context key for the authenticated user ID.
const userIDKey ctxKey = "userID"

// GetUserID returns the authenticated user ID from context.
// Returns a 401 error if the request carried no valid token.
func GetUserID(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok || userID == "" {
		return "", huma.Error401Unauthorized("Authentication required")
	}
	return userID, nil
}

// authMiddleware validates Bearer tokens and stores identity in context.
// An absent or invalid token is not an error here; handlers that need
// authentication reject through GetUserID / RequireUser.
func authMiddleware(auth *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				next.ServeHTTP(w, r)
				return
			}

			user, _, err := auth.VerifyAccessToken(r.Context(), authHeader[7:])
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser returns the authenticated user, fetched fresh from the store
// so revoked accounts lose access the moment they are deleted.
func (s *Server) RequireUser(ctx context.Context) (*domain.User, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.db.GetUser(ctx, userID)
	if err != nil {
		return nil, huma.Error401Unauthorized("User not found")
	}
	return user, nil
}

// RequireAdmin returns the authenticated user and rejects non-admins.
func (s *Server) RequireAdmin(ctx context.Context) (*domain.User, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin {
		return nil, domainerrors.Forbidden("Admin access required")
	}
	return user, nil
}
