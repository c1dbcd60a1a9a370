package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fleetops/fleet-management/internal/apperr"
	"github.com/fleetops/fleet-management/internal/auth"
	"github.com/fleetops/fleet-management/internal/models"
)

// userStore is an in-memory stand-in for the user collection; only the
// lookups the middleware uses are meaningful.
type userStore struct {
	users map[string]*models.User
}

func newUserStore(users ...*models.User) *userStore {
	s := &userStore{users: make(map[string]*models.User)}
	for _, u := range users {
		s.users[u.ID.Hex()] = u
	}
	return s
}

func (s *userStore) InsertUser(_ context.Context, user models.User) error {
	s.users[user.ID.Hex()] = &user
	return nil
}

func (s *userStore) FindUserByID(_ context.Context, id string) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "user not found")
	}
	return u, nil
}

func (s *userStore) FindUserByEmail(_ context.Context, _ string) (*models.User, error) {
	return nil, apperr.New(apperr.KindNotFound, "user not found")
}

func (s *userStore) FindUserByEmailOrEmployeeNumber(_ context.Context, _, _ string) (*models.User, error) {
	return nil, apperr.New(apperr.KindNotFound, "user not found")
}

func (s *userStore) FindUsers(_ context.Context, _ bson.M) ([]models.User, error) {
	return nil, nil
}

func (s *userStore) UpdateUser(_ context.Context, _ string, _ models.User) error { return nil }

func (s *userStore) UpdateRoleAndPermissions(_ context.Context, _ string, _ models.Role, _ map[models.Capability]bool) error {
	return nil
}

func (s *userStore) SetCredential(_ context.Context, _ string, _ string, _ time.Time) error {
	return nil
}

func (s *userStore) DeleteUser(_ context.Context, _ string) error { return nil }

func (s *userStore) UpdateLastLogin(_ context.Context, _ string) error { return nil }

func activeUser(role models.Role, caps ...models.Capability) *models.User {
	perms := make(map[models.Capability]bool)
	for _, c := range caps {
		perms[c] = true
	}
	return &models.User{
		ID:                  primitive.NewObjectID(),
		Email:               "user@example.com",
		Role:                role,
		Permissions:         perms,
		Status:              models.UserActive,
		CredentialChangedAt: time.Now().Add(-time.Hour),
	}
}

func TestAuthenticate(t *testing.T) {
	authService := auth.NewService("test-secret", time.Hour)

	t.Run("valid token", func(t *testing.T) {
		user := activeUser(models.RoleAdmin)
		middleware := NewAuthMiddleware(authService, newUserStore(user))
		token, err := authService.GenerateToken(user)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/api/vehicles", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		handlerCalled := false
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
			principal, ok := GetUserFromContext(r.Context())
			assert.True(t, ok)
			assert.Equal(t, user.ID, principal.ID)
		})

		middleware.Authenticate(handler).ServeHTTP(w, req)
		assert.True(t, handlerCalled)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing authorization header", func(t *testing.T) {
		middleware := NewAuthMiddleware(authService, newUserStore())

		req := httptest.NewRequest("GET", "/api/vehicles", nil)
		w := httptest.NewRecorder()

		handlerCalled := false
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
		})

		middleware.Authenticate(handler).ServeHTTP(w, req)
		assert.False(t, handlerCalled)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		middleware := NewAuthMiddleware(authService, newUserStore())

		req := httptest.NewRequest("GET", "/api/vehicles", nil)
		req.Header.Set("Authorization", "Bearer invalid-token")
		w := httptest.NewRecorder()

		handlerCalled := false
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
		})

		middleware.Authenticate(handler).ServeHTTP(w, req)
		assert.False(t, handlerCalled)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("token for deleted user", func(t *testing.T) {
		user := activeUser(models.RoleAdmin)
		middleware := NewAuthMiddleware(authService, newUserStore())
		token, err := authService.GenerateToken(user)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/api/vehicles", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be reached")
		})).ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("stale token after credential change", func(t *testing.T) {
		user := activeUser(models.RoleAdmin)
		middleware := NewAuthMiddleware(authService, newUserStore(user))
		token, err := authService.GenerateToken(user)
		require.NoError(t, err)

		// password changed after the token was issued
		user.CredentialChangedAt = time.Now().Add(time.Hour)

		req := httptest.NewRequest("GET", "/api/vehicles", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		handlerCalled := false
		middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
		})).ServeHTTP(w, req)
		assert.False(t, handlerCalled)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("inactive account", func(t *testing.T) {
		user := activeUser(models.RoleSuperAdmin)
		user.Status = models.UserSuspended
		middleware := NewAuthMiddleware(authService, newUserStore(user))
		token, err := authService.GenerateToken(user)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/api/vehicles", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		handlerCalled := false
		middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
		})).ServeHTTP(w, req)
		assert.False(t, handlerCalled)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequirePermission(t *testing.T) {
	authService := auth.NewService("test-secret", time.Hour)

	run := func(user *models.User, capability models.Capability) (*httptest.ResponseRecorder, bool) {
		middleware := NewAuthMiddleware(authService, newUserStore(user))
		token, _ := authService.GenerateToken(user)

		req := httptest.NewRequest("GET", "/api/vehicles", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		handlerCalled := false
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
		})

		middleware.Authenticate(middleware.RequirePermission(capability)(handler)).ServeHTTP(w, req)
		return w, handlerCalled
	}

	t.Run("capability granted", func(t *testing.T) {
		w, called := run(activeUser(models.RoleFleetManager, models.CapVehicleManagement), models.CapVehicleManagement)
		assert.True(t, called)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("capability missing", func(t *testing.T) {
		w, called := run(activeUser(models.RoleViewer, models.CapDashboard), models.CapVehicleManagement)
		assert.False(t, called)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("super-admin bypasses capability check", func(t *testing.T) {
		w, called := run(activeUser(models.RoleSuperAdmin), models.CapSystemSettings)
		assert.True(t, called)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRequireRole(t *testing.T) {
	authService := auth.NewService("test-secret", time.Hour)

	run := func(user *models.User, roles ...models.Role) (*httptest.ResponseRecorder, bool) {
		middleware := NewAuthMiddleware(authService, newUserStore(user))
		token, _ := authService.GenerateToken(user)

		req := httptest.NewRequest("GET", "/api/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		handlerCalled := false
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
		})

		middleware.Authenticate(middleware.RequireRole(roles...)(handler)).ServeHTTP(w, req)
		return w, handlerCalled
	}

	t.Run("matching role", func(t *testing.T) {
		w, called := run(activeUser(models.RoleAdmin), models.RoleAdmin)
		assert.True(t, called)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("wrong role", func(t *testing.T) {
		w, called := run(activeUser(models.RoleDriver), models.RoleAdmin)
		assert.False(t, called)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("super-admin always passes", func(t *testing.T) {
		w, called := run(activeUser(models.RoleSuperAdmin), models.RoleAdmin)
		assert.True(t, called)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRateLimit(t *testing.T) {
	t.Run("under the budget", func(t *testing.T) {
		middleware := NewRateLimitMiddleware(5, 10)

		req := httptest.NewRequest("GET", "/api/test", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		w := httptest.NewRecorder()

		handlerCalled := false
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
		})

		middleware.RateLimit(handler).ServeHTTP(w, req)
		assert.True(t, handlerCalled)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("over the budget", func(t *testing.T) {
		middleware := NewRateLimitMiddleware(1, 1)
		handler := middleware.RateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		req := httptest.NewRequest("GET", "/api/test", nil)
		req.RemoteAddr = "192.168.1.2:12345"

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	})

	t.Run("budgets are per client", func(t *testing.T) {
		middleware := NewRateLimitMiddleware(1, 1)
		handler := middleware.RateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		first := httptest.NewRequest("GET", "/api/test", nil)
		first.RemoteAddr = "192.168.1.3:12345"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, first)
		require.Equal(t, http.StatusOK, w.Code)

		second := httptest.NewRequest("GET", "/api/test", nil)
		second.RemoteAddr = "192.168.1.4:12345"
		w = httptest.NewRecorder()
		handler.ServeHTTP(w, second)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.1:4567"
	assert.Equal(t, "10.0.0.1", getClientIP(req))

	req.Header.Set("X-Real-IP", "203.0.113.9")
	assert.Equal(t, "203.0.113.9", getClientIP(req))

	req.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")
	assert.Equal(t, "198.51.100.7", getClientIP(req))
}

func TestGetUserFromContext(t *testing.T) {
	user := activeUser(models.RoleAdmin)
	ctx := context.WithValue(context.Background(), UserContextKey, user)

	got, ok := GetUserFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, user.ID, got.ID)

	_, ok = GetUserFromContext(context.Background())
	assert.False(t, ok)
}
