package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andes-edu/colegio-admin-api/internal/models"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, colegioID string) string {
	t.Helper()
	claims := &models.JWTClaims{
		ColegioID: colegioID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func runJWT(t *testing.T, authorization string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodGet, "/assignments/counts", nil)
	require.NoError(t, err)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	c.Request = req

	reached := false
	JWT(testSecret)(c)
	if !c.IsAborted() {
		reached = true
	}
	return w, reached
}

func TestJWTAcceptsValidToken(t *testing.T) {
	token := signToken(t, testSecret, "colegio-1")
	w, reached := runJWT(t, "Bearer "+token)

	assert.True(t, reached)
	assert.NotEqual(t, http.StatusUnauthorized, w.Code)
}

func TestJWTStoresClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "colegio-9"))
	c.Request = req

	JWT(testSecret)(c)

	value, ok := c.Get(ContextUserKey)
	require.True(t, ok)
	claims := value.(*models.JWTClaims)
	assert.Equal(t, "colegio-9", claims.ColegioID)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestJWTRejectsMissingHeader(t *testing.T) {
	w, reached := runJWT(t, "")
	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTRejectsMalformedHeader(t *testing.T) {
	w, reached := runJWT(t, "Token abc")
	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTRejectsWrongSignature(t *testing.T) {
	token := signToken(t, "other-secret", "colegio-1")
	w, reached := runJWT(t, "Bearer "+token)
	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTRejectsExpiredToken(t *testing.T) {
	claims := &models.JWTClaims{
		ColegioID: "colegio-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	w, reached := runJWT(t, "Bearer "+token)
	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
