package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ds124wfegd/hotel-booking/internal/entity"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "jwt-secret"

func signToken(t *testing.T, key string, method jwt.SigningMethod, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func newAuthRouter(secret string, roles ...entity.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := []gin.HandlerFunc{Auth(secret)}
	if len(roles) > 0 {
		handlers = append(handlers, RequireRole(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, actor)
	})
	r.GET("/me", handlers...)
	return r
}

func get(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	valid := Claims{
		UserID:           "user-1",
		Role:             "admin",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}

	t.Run("valid token sets actor", func(t *testing.T) {
		w := get(newAuthRouter(secret), signToken(t, secret, jwt.SigningMethodHS256, valid))
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user_id":"user-1","role":"admin"}`, w.Body.String())
	})

	t.Run("role defaults to user", func(t *testing.T) {
		claims := valid
		claims.Role = ""
		w := get(newAuthRouter(secret), signToken(t, secret, jwt.SigningMethodHS256, claims))
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user_id":"user-1","role":"user"}`, w.Body.String())
	})

	rejected := []struct {
		name   string
		router *gin.Engine
		token  func(t *testing.T) string
	}{
		{"missing header", newAuthRouter(secret), func(t *testing.T) string { return "" }},
		{"garbage", newAuthRouter(secret), func(t *testing.T) string { return "not-a-jwt" }},
		{"wrong key", newAuthRouter(secret), func(t *testing.T) string {
			return signToken(t, "other", jwt.SigningMethodHS256, valid)
		}},
		{"expired", newAuthRouter(secret), func(t *testing.T) string {
			claims := valid
			claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
			return signToken(t, secret, jwt.SigningMethodHS256, claims)
		}},
		{"no user id", newAuthRouter(secret), func(t *testing.T) string {
			claims := valid
			claims.UserID = ""
			return signToken(t, secret, jwt.SigningMethodHS256, claims)
		}},
		{"empty secret", newAuthRouter(""), func(t *testing.T) string {
			return signToken(t, "anything", jwt.SigningMethodHS256, valid)
		}},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			w := get(tt.router, tt.token(t))
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	router := newAuthRouter(secret, entity.RoleAdmin)

	user := signToken(t, secret, jwt.SigningMethodHS256, Claims{UserID: "user-1", Role: "user"})
	assert.Equal(t, http.StatusForbidden, get(router, user).Code)

	admin := signToken(t, secret, jwt.SigningMethodHS256, Claims{UserID: "admin-1", Role: "admin"})
	assert.Equal(t, http.StatusOK, get(router, admin).Code)
}
