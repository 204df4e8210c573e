package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthorized_ValidToken(t *testing.T) {
	a := New("super-secret")

	req := httptest.NewRequest(http.MethodDelete, "/api/links", nil)
	req.Header.Set("X-Admin-Token", "super-secret")

	assert.True(t, a.Authorized(req))
}

func TestAuthorized_BearerToken(t *testing.T) {
	a := New("super-secret")

	req := httptest.NewRequest(http.MethodDelete, "/api/links", nil)
	req.Header.Set("Authorization", "Bearer super-secret")

	assert.True(t, a.Authorized(req))
}

func TestAuthorized_WrongToken(t *testing.T) {
	a := New("super-secret")

	req := httptest.NewRequest(http.MethodDelete, "/api/links", nil)
	req.Header.Set("X-Admin-Token", "guess")

	assert.False(t, a.Authorized(req))
}

func TestAuthorized_MissingToken(t *testing.T) {
	a := New("super-secret")

	req := httptest.NewRequest(http.MethodDelete, "/api/links", nil)

	assert.False(t, a.Authorized(req))
}

// Пустой секрет означает, что административный доступ выключен
func TestAuthorized_EmptySecret(t *testing.T) {
	a := New("")

	req := httptest.NewRequest(http.MethodDelete, "/api/links", nil)
	req.Header.Set("X-Admin-Token", "")

	assert.False(t, a.Authorized(req))
}

func TestMiddleware_Rejects(t *testing.T) {
	a := New("super-secret")

	called := false
	handler := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodDelete, "/api/links", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, called)
}
