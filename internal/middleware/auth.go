package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fleetops/fleet-management/internal/apperr"
	"github.com/fleetops/fleet-management/internal/auth"
	"github.com/fleetops/fleet-management/internal/db"
	"github.com/fleetops/fleet-management/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// UserContextKey holds the resolved principal snapshot for the request.
	UserContextKey contextKey = "user"
)

// AuthMiddleware resolves session tokens into principal snapshots.
type AuthMiddleware struct {
	authService *auth.Service
	users       db.UserCollection
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(authService *auth.Service, users db.UserCollection) *AuthMiddleware {
	return &AuthMiddleware{authService: authService, users: users}
}

func writeAuthError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperr.HTTPStatus(err))
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": apperr.SafeMessage(err),
	})
}

// Authenticate verifies the bearer token, loads the user it names, rejects
// stale tokens (issued before the last credential change) and non-active
// accounts, and stores the principal snapshot in the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		token, err := m.authService.ExtractTokenFromHeader(authHeader)
		if err != nil {
			writeAuthError(w, apperr.New(apperr.KindAuth, "authorization header required"))
			return
		}

		claims, err := m.authService.ValidateToken(token)
		if err != nil {
			writeAuthError(w, apperr.Wrap(apperr.KindAuth, err.Error(), err))
			return
		}

		user, err := m.users.FindUserByID(r.Context(), claims.UserID)
		if err != nil {
			writeAuthError(w, apperr.New(apperr.KindAuth, "not authorized, user not found"))
			return
		}

		if err := m.authService.CheckStaleness(claims, user); err != nil {
			writeAuthError(w, apperr.New(apperr.KindAuth, "credentials changed, please log in again"))
			return
		}

		if user.Status != models.UserActive {
			writeAuthError(w, apperr.New(apperr.KindAuth, "account is not active"))
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePermission gates a route on a capability via the access decision
// engine. Department-scoped routes additionally check scope in the handler,
// where the target department is known.
func (m *AuthMiddleware) RequirePermission(capability models.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUserFromContext(r.Context())
			if !ok {
				writeAuthError(w, apperr.New(apperr.KindAuth, "authentication required"))
				return
			}

			if decision := auth.Authorize(user, capability, primitive.NilObjectID); !decision.Allowed {
				writeAuthError(w, decision.Err())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole gates a route on one or more roles. Super-admin always passes.
func (m *AuthMiddleware) RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUserFromContext(r.Context())
			if !ok {
				writeAuthError(w, apperr.New(apperr.KindAuth, "authentication required"))
				return
			}

			if user.Role != models.RoleSuperAdmin {
				allowed := false
				for _, role := range roles {
					if user.Role == role {
						allowed = true
						break
					}
				}
				if !allowed {
					writeAuthError(w, apperr.New(apperr.KindForbidden, "insufficient role"))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetUserFromContext extracts the principal snapshot from request context
func GetUserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	return user, ok
}
