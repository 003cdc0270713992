package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret"

type fakeTokens struct {
	revoked map[string]bool
}

func (f *fakeTokens) CheckAccessToken(ctx context.Context, access string) error {
	if f.revoked[access] {
		return errors.New("revoked")
	}
	return nil
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"uid":  "42",
		"role": "user",
		"aud":  "foodgram-web",
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		userID, _ := c.Get(ContextUserID)
		role, _ := c.Get(ContextUserRole)
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "role": role})
	})
	router.GET("/", handlers...)
	return router
}

func doRequest(router *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	tokens := &fakeTokens{revoked: map[string]bool{}}
	auth := NewAuthenticator(testSecret, tokens)
	router := newRouter(auth.RequireAuth())

	valid := signToken(t, validClaims())
	revoked := signToken(t, jwt.MapClaims{"uid": "7", "role": "user", "exp": time.Now().Add(time.Hour).Unix()})
	tokens.revoked[revoked] = true

	expiredClaims := validClaims()
	expiredClaims["exp"] = time.Now().Add(-time.Minute).Unix()

	noRole := validClaims()
	delete(noRole, "role")

	badRole := validClaims()
	badRole["role"] = "superuser"

	noExp := validClaims()
	delete(noExp, "exp")

	otherKey, err := jwt.NewWithClaims(jwt.SigningMethodHS512, validClaims()).SignedString([]byte("other"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"bearer scheme", "Bearer " + valid, http.StatusOK},
		{"token scheme", "Token " + valid, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"unknown scheme", "Basic " + valid, http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"revoked", "Bearer " + revoked, http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, expiredClaims), http.StatusUnauthorized},
		{"missing role", "Bearer " + signToken(t, noRole), http.StatusUnauthorized},
		{"unknown role", "Bearer " + signToken(t, badRole), http.StatusUnauthorized},
		{"missing exp", "Bearer " + signToken(t, noExp), http.StatusUnauthorized},
		{"wrong key", "Bearer " + otherKey, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, tt.header)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.status == http.StatusOK {
				assert.JSONEq(t, `{"user_id":42,"role":"user"}`, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), `"code":"UNAUTHORIZED"`)
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	auth := NewAuthenticator(testSecret, &fakeTokens{})
	router := newRouter(auth.OptionalAuth())

	w := doRequest(router, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":null,"role":null}`, w.Body.String())

	w = doRequest(router, "Bearer "+signToken(t, validClaims()))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":42,"role":"user"}`, w.Body.String())

	w = doRequest(router, "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	auth := NewAuthenticator(testSecret, nil)
	router := newRouter(auth.RequireAuth(), RequireRole("admin"))

	w := doRequest(router, "Bearer "+signToken(t, validClaims()))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"FORBIDDEN"`)

	admin := validClaims()
	admin["role"] = "admin"
	w = doRequest(router, "Bearer "+signToken(t, admin))
	assert.Equal(t, http.StatusOK, w.Code)

	anonymous := newRouter(RequireRole("admin"))
	w = doRequest(anonymous, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBearerToken(t *testing.T) {
	token, err := bearerToken("bearer abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	_, err = bearerToken("abc")
	assert.Error(t, err)
}
