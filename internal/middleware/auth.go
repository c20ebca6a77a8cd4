// Package middleware содержит HTTP middleware магазина: авторизацию админки, логирование, метрики и ограничение частоты.
package middleware

import (
	"crypto/rand"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	authCookieName = "admin_token"
	authTokenTTL   = 12 * time.Hour
	adminSubject   = "admin"
)

// ErrInvalidCredentials возвращается при неверном пароле администратора.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthMiddleware выполняет проверку сессии администратора по подписанному JWT.
type AuthMiddleware struct {
	secretKey    []byte
	passwordHash []byte
	now          func() time.Time
}

// NewAuthMiddleware создаёт AuthMiddleware с ключом подписи и bcrypt-хэшем пароля администратора.
// Пустой секрет заменяется случайным: сессии тогда не переживают перезапуск.
func NewAuthMiddleware(secret, passwordHash string) *AuthMiddleware {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		_, _ = rand.Read(key)
	}

	return &AuthMiddleware{
		secretKey:    key,
		passwordHash: []byte(passwordHash),
		now:          time.Now,
	}
}

// CheckPassword сверяет пароль с хэшем из конфигурации. Без хэша вход в админку закрыт.
func (a *AuthMiddleware) CheckPassword(password string) error {
	if len(a.passwordHash) == 0 {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Middleware пропускает запрос только с действующим токеном администратора в cookie или заголовке Authorization.
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			if cookie, err := r.Cookie(authCookieName); err == nil {
				token = cookie.Value
			}
		}
		if token == "" {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		if _, err := a.parseToken(token); err != nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// IssueToken подписывает токен сессии администратора.
func (a *AuthMiddleware) IssueToken() (string, time.Time, error) {
	now := a.now()
	exp := now.Add(authTokenTTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   adminSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})

	signed, err := token.SignedString(a.secretKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// SetAuthCookie выпускает токен и устанавливает cookie сессии администратора.
func (a *AuthMiddleware) SetAuthCookie(w http.ResponseWriter) error {
	token, exp, err := a.IssueToken()
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// ClearAuthCookie удаляет cookie сессии.
func (a *AuthMiddleware) ClearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *AuthMiddleware) parseToken(tokenStr string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return a.secretKey, nil
		},
		jwt.WithTimeFunc(a.now),
		jwt.WithSubject(adminSubject),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}
