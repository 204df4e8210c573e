package auth

import (
	"crypto/hmac"
	"net/http"
	"strings"
)

const headerName = "X-Admin-Token"

// Admin проверяет административный токен вызывающего.
// Ядро сервиса авторизацией не занимается: обработчики получают уже
// авторизованный вызов через эту прослойку.
type Admin struct {
	secret string
}

func New(secret string) *Admin {
	return &Admin{secret: secret}
}

// token достаёт токен из X-Admin-Token либо из Authorization: Bearer.
func (a *Admin) token(r *http.Request) string {
	if t := r.Header.Get(headerName); t != "" {
		return t
	}
	header := r.Header.Get("Authorization")
	if t := strings.TrimPrefix(header, "Bearer "); t != header {
		return t
	}
	return ""
}

// Authorized сравнивает токен с настроенным секретом.
// Пустой секрет запрещает административные операции полностью.
func (a *Admin) Authorized(r *http.Request) bool {
	if a.secret == "" {
		return false
	}
	token := a.token(r)
	if token == "" {
		return false
	}
	return hmac.Equal([]byte(token), []byte(a.secret))
}

// Middleware отклоняет неавторизованные запросы кодом 401.
func (a *Admin) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Authorized(r) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
