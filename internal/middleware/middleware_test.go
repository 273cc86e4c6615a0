package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"agencyportal/internal/models"
	"agencyportal/internal/utils"
	"agencyportal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type stubRoles map[string]bool

func (s stubRoles) IsAdmin(ctx context.Context, userID string) (bool, error) {
	if userID == "broken" {
		return false, errors.New("redis down")
	}
	isAdmin, ok := s[userID]
	if !ok {
		return false, models.ErrNotFound
	}
	return isAdmin, nil
}

func token(t *testing.T, uid, email string) string {
	t.Helper()
	pair, err := utils.GenerateTokenPair(uid, email, "", testSecret, time.Hour, 2*time.Hour)
	require.NoError(t, err)
	return pair.AccessToken
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	auth := AuthRequired(NewJWTVerifier(testSecret), stubRoles{"admin-1": true, "client-1": false}, logger.NewNop())

	r.GET("/me", auth, func(c *gin.Context) {
		actor := CurrentActor(c)
		c.JSON(http.StatusOK, gin.H{"uid": actor.UserID, "email": actor.Email, "admin": actor.IsAdmin})
	})
	r.GET("/admin", auth, AdminRequired(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func do(r http.Handler, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	r := newRouter()

	t.Run("missing header", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do(r, "/me", "").Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do(r, "/me", "not-a-jwt").Code)
	})

	t.Run("refresh token rejected", func(t *testing.T) {
		pair, err := utils.GenerateTokenPair("client-1", "client@example.com", "", testSecret, time.Hour, 2*time.Hour)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, do(r, "/me", pair.RefreshToken).Code)
	})

	t.Run("valid client", func(t *testing.T) {
		w := do(r, "/me", token(t, "client-1", "Client@Example.com"))
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"uid":"client-1","email":"client@example.com","admin":false}`, w.Body.String())
	})

	t.Run("user without profile is a client", func(t *testing.T) {
		w := do(r, "/me", token(t, "newcomer", "new@example.com"))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"admin":false`)
	})

	t.Run("role lookup failure", func(t *testing.T) {
		assert.Equal(t, http.StatusInternalServerError, do(r, "/me", token(t, "broken", "b@example.com")).Code)
	})

	t.Run("websocket query token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me?token="+token(t, "client-1", "client@example.com"), nil)
		req.Header.Set("Upgrade", "websocket")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("query token ignored for plain requests", func(t *testing.T) {
		w := do(r, "/me?token="+token(t, "client-1", "client@example.com"), "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAdminRequired(t *testing.T) {
	r := newRouter()

	assert.Equal(t, http.StatusNoContent, do(r, "/admin", token(t, "admin-1", "admin@example.com")).Code)
	assert.Equal(t, http.StatusForbidden, do(r, "/admin", token(t, "client-1", "client@example.com")).Code)
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	w := do(r, "/", "")
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Equal(t, w.Header().Get(RequestIDHeader), w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://portal.example.com"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://portal.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "https://portal.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://portal.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
